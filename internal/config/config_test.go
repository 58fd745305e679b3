package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "database:\n  path: "+filepath.Join(dir, "db", "x.db")+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 8090, cfg.Monitoring.HealthCheckPort)
	assert.Equal(t, 9090, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, "configs/catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, "reports", cfg.Audit.Path)
	assert.Equal(t, LockBackendLocal, cfg.Booking.LockBackend)

	assert.Equal(t, 5*time.Second, cfg.AdmissionTimeout())
	assert.Equal(t, 10*time.Second, cfg.LockTTL())
	assert.Equal(t, 25*time.Millisecond, cfg.LockRetryInterval())
	assert.Equal(t, 30*time.Second, cfg.CatalogReloadInterval())

	rps, burst := cfg.RateLimit()
	assert.Equal(t, 10.0, rps)
	assert.Equal(t, 20, burst)

	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("RENTAL_TEST_API_KEY", "secret-key")
	t.Setenv("RENTAL_TEST_REDIS", "localhost:6379")

	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
database:
  path: `+filepath.Join(dir, "x.db")+`
redis:
  address: ${RENTAL_TEST_REDIS}
api:
  api_keys:
    - ${RENTAL_TEST_API_KEY}
  rate_limit_rps: 2.5
  rate_limit_burst: 4
booking:
  lock_backend: redis
  admission_timeout_seconds: 2
  lock_ttl_seconds: 3
  lock_retry_millis: 10
admins: [1, 2]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"secret-key"}, cfg.API.APIKeys)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, LockBackendRedis, cfg.Booking.LockBackend)
	assert.Equal(t, 2*time.Second, cfg.AdmissionTimeout())
	assert.Equal(t, 3*time.Second, cfg.LockTTL())
	assert.Equal(t, 10*time.Millisecond, cfg.LockRetryInterval())
	assert.Equal(t, []int64{1, 2}, cfg.Admins)

	rps, burst := cfg.RateLimit()
	assert.Equal(t, 2.5, rps)
	assert.Equal(t, 4, burst)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "x.db")

	tests := []struct {
		name    string
		content string
	}{
		{"redis backend without address", "database:\n  path: " + db + "\nbooking:\n  lock_backend: redis\n"},
		{"unknown backend", "database:\n  path: " + db + "\nbooking:\n  lock_backend: etcd\n"},
		{"broken yaml", "database: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "config.yaml", tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
