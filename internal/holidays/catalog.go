// Package holidays carries the built-in Saudi holiday catalog and the
// optional operator-supplied extras file.
package holidays

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nawafsh/hilalbot/internal/domain"
)

// Catalog returns the built-in Hijri-anchored definitions. Immutable
// templates: per-year corrections go through overrides, never through
// editing a definition.
func Catalog() []domain.HolidayDefinition {
	return []domain.HolidayDefinition{
		{EventID: "islamic-new-year", Title: "Islamic New Year", HijriDay: 1, HijriMonth: domain.Muharram, Category: domain.CategoryNational},
		{EventID: "ramadan-start", Title: "First day of Ramadan", HijriDay: 1, HijriMonth: domain.Ramadan, Category: domain.CategoryRamadan},
		{EventID: "eid-al-fitr", Title: "Eid al-Fitr", HijriDay: 1, HijriMonth: domain.Shawwal, Category: domain.CategoryEid},
		{EventID: "arafat-day", Title: "Day of Arafah", HijriDay: 9, HijriMonth: domain.DhuAlHijjah, Category: domain.CategoryEid},
		{EventID: "eid-al-adha", Title: "Eid al-Adha", HijriDay: 10, HijriMonth: domain.DhuAlHijjah, Category: domain.CategoryEid},
	}
}

type extraDefinition struct {
	EventID    string `yaml:"event_id"`
	Title      string `yaml:"title"`
	HijriMonth int    `yaml:"hijri_month"`
	HijriDay   int    `yaml:"hijri_day"`
	Category   string `yaml:"category"`
}

type extrasFile struct {
	Holidays []extraDefinition `yaml:"holidays"`
}

// LoadExtras reads additional definitions from a YAML file. A missing path
// returns just the built-in catalog.
func LoadExtras(path string) ([]domain.HolidayDefinition, error) {
	defs := Catalog()
	if path == "" {
		return defs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holidays file: %w", err)
	}
	var file extrasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse holidays file: %w", err)
	}

	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		seen[d.EventID] = true
	}
	for _, e := range file.Holidays {
		if e.EventID == "" || e.Title == "" {
			return nil, fmt.Errorf("holiday entry missing event_id or title")
		}
		if seen[e.EventID] {
			return nil, fmt.Errorf("duplicate holiday %q", e.EventID)
		}
		month := domain.HijriMonth(e.HijriMonth)
		if !month.Valid() || e.HijriDay < 1 || e.HijriDay > 30 {
			return nil, fmt.Errorf("holiday %q has invalid hijri date %d/%d", e.EventID, e.HijriDay, e.HijriMonth)
		}
		category := domain.Category(e.Category)
		if category == "" {
			category = domain.CategoryPersonal
		}
		seen[e.EventID] = true
		defs = append(defs, domain.HolidayDefinition{
			EventID:    e.EventID,
			Title:      e.Title,
			HijriDay:   e.HijriDay,
			HijriMonth: month,
			Category:   category,
		})
	}
	return defs, nil
}
