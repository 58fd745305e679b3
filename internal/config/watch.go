package config

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CatalogWatcher applies catalog.yaml whenever its content changes.
// Versions are compared by SHA-256 of the file bytes; modification times are ignored.
type CatalogWatcher struct {
	path     string
	interval time.Duration
	apply    func(*CatalogConfig)
	logger   zerolog.Logger

	mu        sync.Mutex
	loaded    bool
	applied   [sha256.Size]byte
	rejected  [sha256.Size]byte
	rejectErr error
}

// NewCatalogWatcher creates a watcher for path. apply receives every accepted catalog version.
func NewCatalogWatcher(path string, interval time.Duration, logger *zerolog.Logger, apply func(*CatalogConfig)) *CatalogWatcher {
	if path == "" {
		path = "configs/catalog.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &CatalogWatcher{
		path:     path,
		interval: interval,
		apply:    apply,
		logger:   logger.With().Str("component", "catalog").Str("path", path).Logger(),
	}
}

// Reload reads the catalog and applies it when the content differs from the version last applied.
// It reports whether apply was called. An invalid version keeps the previous catalog in force,
// and the same error is returned until the file content changes again.
func (w *CatalogWatcher) Reload() (bool, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return false, fmt.Errorf("read catalog config: %w", err)
	}
	sum := sha256.Sum256(data)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.loaded && sum == w.applied {
		return false, nil
	}
	if w.rejectErr != nil && sum == w.rejected {
		return false, w.rejectErr
	}

	cfg, err := ParseCatalogConfig(data)
	if err != nil {
		w.rejected, w.rejectErr = sum, err
		return false, err
	}

	w.loaded, w.applied = true, sum
	w.rejectErr = nil
	if w.apply != nil {
		w.apply(cfg)
	}
	return true, nil
}

// Run polls the file until ctx is done. Each rejected version is logged once.
func (w *CatalogWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var reported error
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := w.Reload()
			switch {
			case errors.Is(err, fs.ErrNotExist):
				// Editors often replace the file by rename; the next tick sees it again.
				w.logger.Debug().Err(err).Msg("catalog file missing")
			case err != nil:
				if err != reported {
					w.logger.Warn().Err(err).Msg("catalog reload rejected")
					reported = err
				}
			case changed:
				reported = nil
				w.logger.Info().Msg("catalog reloaded")
			}
		}
	}
}

// WatchCatalog applies the catalog once and keeps polling it in the background until ctx is done.
// The initial load must succeed.
func WatchCatalog(ctx context.Context, path string, interval time.Duration, logger *zerolog.Logger, onUpdate func(*CatalogConfig)) (*CatalogWatcher, error) {
	w := NewCatalogWatcher(path, interval, logger, onUpdate)
	if _, err := w.Reload(); err != nil {
		return nil, err
	}
	go w.Run(ctx)
	return w, nil
}
