package config

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wypozyczalnia/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCatalog = `
categories:
  - id: 1
    name: Rowerowy
  - id: 2
    name: Zimowy
items:
  - id: 1
    name: Rower górski
    category: Rowerowy
    season: summer
    quantity: 5
    price_per_hour: 15
  - id: 2
    name: Narty
    category: Zimowy
    season: winter
    target_audience: women
    size: "160"
    quantity: 0
    price_per_hour: 20
    is_active: false
`

func TestLoadCatalogConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.yaml", validCatalog)

	cfg, err := LoadCatalogConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Items, 2)
	assert.Equal(t, int64(2), cfg.CategoryID("Zimowy"))
	assert.Zero(t, cfg.CategoryID("Wodne"))
	assert.Equal(t, "CatalogConfig: 2 categories, 2 items, 5 units", cfg.String())

	item, err := cfg.Items[1].ToModel(cfg.CategoryID(cfg.Items[1].Category))
	require.NoError(t, err)
	assert.Equal(t, models.SeasonWinter, item.Season)
	assert.Equal(t, models.AudienceWomen, item.TargetAudience)
	assert.Equal(t, "160", item.Size)
	assert.False(t, item.IsActive)
	assert.Equal(t, int64(2), item.CategoryID)

	first, err := cfg.Items[0].ToModel(1)
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.Equal(t, models.AudienceUnisex, first.TargetAudience)
}

func TestCatalogValidate(t *testing.T) {
	base := func() *CatalogConfig {
		return &CatalogConfig{
			Categories: []CategoryConfig{{ID: 1, Name: "Wodne"}},
			Items:      []ItemConfig{{ID: 1, Name: "Kajak", Category: "Wodne", Quantity: 3, PricePerHour: 25}},
		}
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(c *CatalogConfig)
	}{
		{"no items", func(c *CatalogConfig) { c.Items = nil }},
		{"category id zero", func(c *CatalogConfig) { c.Categories[0].ID = 0 }},
		{"duplicate category", func(c *CatalogConfig) { c.Categories = append(c.Categories, CategoryConfig{ID: 1, Name: "Inne"}) }},
		{"duplicate category name", func(c *CatalogConfig) { c.Categories = append(c.Categories, CategoryConfig{ID: 2, Name: "Wodne"}) }},
		{"item id zero", func(c *CatalogConfig) { c.Items[0].ID = 0 }},
		{"duplicate item", func(c *CatalogConfig) { c.Items = append(c.Items, c.Items[0]) }},
		{"unknown category", func(c *CatalogConfig) { c.Items[0].Category = "Zimowy" }},
		{"unknown season", func(c *CatalogConfig) { c.Items[0].Season = "monsoon" }},
		{"unknown audience", func(c *CatalogConfig) { c.Items[0].TargetAudience = "pets" }},
		{"negative quantity", func(c *CatalogConfig) { c.Items[0].Quantity = -1 }},
		{"quantity too large", func(c *CatalogConfig) { c.Items[0].Quantity = models.MaxItemQuantity + 1 }},
		{"price too large", func(c *CatalogConfig) { c.Items[0].PricePerHour = models.MaxItemPricePerHour + 1 }},
		{"empty name", func(c *CatalogConfig) { c.Items[0].Name = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestCatalogWatcher_Reload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.yaml", validCatalog)
	logger := zerolog.Nop()

	var applied []*CatalogConfig
	w := NewCatalogWatcher(path, time.Second, &logger, func(c *CatalogConfig) { applied = append(applied, c) })

	changed, err := w.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, applied, 1)
	assert.Len(t, applied[0].Items, 2)

	// Same bytes with a newer mtime are not a new version.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.WriteFile(path, []byte(validCatalog), 0o644))
	require.NoError(t, os.Chtimes(path, future, future))
	changed, err = w.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, applied, 1)

	require.NoError(t, os.WriteFile(path, []byte("items: []\n"), 0o644))
	_, first := w.Reload()
	require.Error(t, first)
	_, again := w.Reload()
	assert.Same(t, first, again, "an unchanged invalid file is not parsed again")
	assert.Len(t, applied, 1)

	edited := validCatalog + `  - id: 3
    name: Kask
    category: Zimowy
    quantity: 6
    price_per_hour: 5
`
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))
	changed, err = w.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, applied, 2)
	assert.Len(t, applied[1].Items, 3)

	// Going back to an earlier version is still a change.
	require.NoError(t, os.WriteFile(path, []byte(validCatalog), 0o644))
	changed, err = w.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, applied, 3)
}

func TestCatalogWatcher_MissingFile(t *testing.T) {
	logger := zerolog.Nop()
	w := NewCatalogWatcher(filepath.Join(t.TempDir(), "nope.yaml"), time.Second, &logger, nil)
	_, err := w.Reload()
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWatchCatalog(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.yaml", validCatalog)
	logger := zerolog.Nop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *CatalogConfig, 4)
	w, err := WatchCatalog(ctx, path, 10*time.Millisecond, &logger, func(c *CatalogConfig) { updates <- c })
	require.NoError(t, err)
	require.NotNil(t, w)

	initial := <-updates
	assert.Len(t, initial.Items, 2)

	// An invalid edit is rejected and does not reach the callback.
	require.NoError(t, os.WriteFile(path, []byte("items: []\n"), 0o644))

	select {
	case <-updates:
		t.Fatal("invalid catalog must not be applied")
	case <-time.After(100 * time.Millisecond):
	}

	edited := validCatalog + `  - id: 3
    name: Kask
    category: Zimowy
    quantity: 6
    price_per_hour: 5
`
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	select {
	case c := <-updates:
		assert.Len(t, c.Items, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("catalog reload not observed")
	}
}

func TestWatchCatalog_InvalidInitial(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.yaml", "items: []\n")
	logger := zerolog.Nop()
	w, err := WatchCatalog(context.Background(), path, time.Second, &logger, nil)
	assert.Error(t, err)
	assert.Nil(t, w)
}
