package config

import (
	"fmt"
	"os"

	"wypozyczalnia/internal/models"

	"gopkg.in/yaml.v3"
)

// CategoryConfig represents a single equipment category.
type CategoryConfig struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// ItemConfig represents a single rentable item.
type ItemConfig struct {
	ID             int64   `yaml:"id"`
	Name           string  `yaml:"name"`
	Category       string  `yaml:"category"`
	Season         string  `yaml:"season"`
	TargetAudience string  `yaml:"target_audience"`
	Size           string  `yaml:"size"`
	Quantity       int     `yaml:"quantity"`
	PricePerHour   float64 `yaml:"price_per_hour"`
	IsActive       *bool   `yaml:"is_active,omitempty"`
}

// CatalogConfig is the root of catalog.yaml.
type CatalogConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
	Items      []ItemConfig     `yaml:"items"`
}

// LoadCatalogConfig loads and validates the catalog from a YAML file.
func LoadCatalogConfig(path string) (*CatalogConfig, error) {
	if path == "" {
		path = "configs/catalog.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog config: %w", err)
	}
	return ParseCatalogConfig(data)
}

// ParseCatalogConfig decodes and validates catalog YAML.
func ParseCatalogConfig(data []byte) (*CatalogConfig, error) {
	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the catalog for errors.
func (c *CatalogConfig) Validate() error {
	categoryIDs := make(map[int64]bool)
	categoryNames := make(map[string]bool)
	for i, cat := range c.Categories {
		if cat.ID <= 0 {
			return fmt.Errorf("category[%d]: id must be positive, got %d", i, cat.ID)
		}
		if categoryIDs[cat.ID] {
			return fmt.Errorf("category[%d]: duplicate id %d", i, cat.ID)
		}
		if cat.Name == "" {
			return fmt.Errorf("category[%d]: name is required", i)
		}
		if categoryNames[cat.Name] {
			return fmt.Errorf("category[%d]: duplicate name '%s'", i, cat.Name)
		}
		categoryIDs[cat.ID] = true
		categoryNames[cat.Name] = true
	}

	if len(c.Items) == 0 {
		return fmt.Errorf("no items defined")
	}

	ids := make(map[int64]bool)
	for i, it := range c.Items {
		if it.ID <= 0 {
			return fmt.Errorf("item[%d]: id must be positive, got %d", i, it.ID)
		}
		if ids[it.ID] {
			return fmt.Errorf("item[%d]: duplicate id %d", i, it.ID)
		}
		ids[it.ID] = true

		if it.Category != "" && !categoryNames[it.Category] {
			return fmt.Errorf("item[%d]: unknown category '%s'", i, it.Category)
		}

		model, err := it.ToModel(0)
		if err != nil {
			return fmt.Errorf("item[%d]: %w", i, err)
		}
		if err := model.Validate(); err != nil {
			return fmt.Errorf("item[%d]: %w", i, err)
		}
	}

	return nil
}

// ToModel converts the config entry into a catalog item in the given category.
func (it *ItemConfig) ToModel(categoryID int64) (*models.EquipmentItem, error) {
	season := models.SeasonAllYear
	if it.Season != "" {
		s, err := models.ParseSeason(it.Season)
		if err != nil {
			return nil, err
		}
		season = s
	}

	audience, err := models.ParseTargetAudience(it.TargetAudience)
	if err != nil {
		return nil, err
	}

	active := true
	if it.IsActive != nil {
		active = *it.IsActive
	}

	return &models.EquipmentItem{
		ID:             it.ID,
		Name:           it.Name,
		CategoryID:     categoryID,
		Season:         season,
		TargetAudience: audience,
		Size:           it.Size,
		Quantity:       it.Quantity,
		PricePerHour:   it.PricePerHour,
		IsActive:       active,
	}, nil
}

// CategoryID returns the id of the named category, or 0.
func (c *CatalogConfig) CategoryID(name string) int64 {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat.ID
		}
	}
	return 0
}

// String returns a summary of the catalog.
func (c *CatalogConfig) String() string {
	units := 0
	for _, it := range c.Items {
		units += it.Quantity
	}
	return fmt.Sprintf("CatalogConfig: %d categories, %d items, %d units", len(c.Categories), len(c.Items), units)
}
