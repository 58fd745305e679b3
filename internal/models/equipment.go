package models

import (
	"fmt"
	"strings"
	"time"
)

// Catalog bounds for an equipment item.
const (
	MaxItemQuantity     = 1000
	MaxItemPricePerHour = 10000.0
)

// Season tags an item with the part of the year it is rented in.
type Season string

const (
	SeasonSpring  Season = "spring"
	SeasonSummer  Season = "summer"
	SeasonAutumn  Season = "autumn"
	SeasonWinter  Season = "winter"
	SeasonAllYear Season = "all_year"
)

var seasons = []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonAllYear}

// ParseSeason converts a raw tag into a Season. Matching is case-insensitive.
func ParseSeason(s string) (Season, error) {
	v := Season(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range seasons {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown season %q", s)
}

// TargetAudience is the group an item is sized for.
type TargetAudience string

const (
	AudienceUnisex TargetAudience = "unisex"
	AudienceMen    TargetAudience = "men"
	AudienceWomen  TargetAudience = "women"
	AudienceKids   TargetAudience = "kids"
)

var audiences = []TargetAudience{AudienceUnisex, AudienceMen, AudienceWomen, AudienceKids}

// ParseTargetAudience converts a raw tag into a TargetAudience.
// An empty value defaults to unisex.
func ParseTargetAudience(s string) (TargetAudience, error) {
	v := TargetAudience(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return AudienceUnisex, nil
	}
	for _, known := range audiences {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown target audience %q", s)
}

// Category groups equipment items.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EquipmentItem is a rentable piece of equipment with a finite number of interchangeable units.
type EquipmentItem struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	CategoryID     int64          `json:"category_id"`
	Season         Season         `json:"season"`
	TargetAudience TargetAudience `json:"target_audience"`
	Size           string         `json:"size,omitempty"`
	Quantity       int            `json:"quantity"`
	PricePerHour   float64        `json:"price_per_hour"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Validate checks catalog bounds.
func (i *EquipmentItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if i.Quantity < 0 || i.Quantity > MaxItemQuantity {
		return fmt.Errorf("quantity must be between 0 and %d, got %d", MaxItemQuantity, i.Quantity)
	}
	if i.PricePerHour < 0 || i.PricePerHour > MaxItemPricePerHour {
		return fmt.Errorf("price_per_hour must be between 0 and %.0f, got %.2f", MaxItemPricePerHour, i.PricePerHour)
	}
	return nil
}
