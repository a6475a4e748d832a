package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nawafsh/hilalbot/internal/domain"
	"github.com/nawafsh/hilalbot/internal/hijri"
	"github.com/nawafsh/hilalbot/internal/storage"
)

// HolidayService resolves Hijri-anchored holiday definitions into concrete
// Gregorian dates with a confidence level, layering operator overrides on
// top of the tabular calendar.
//
// Resolution is a pure read: it re-reads the override table on every call
// and never caches, so identical inputs against identical override state
// always produce identical results.
type HolidayService struct {
	storage  *storage.Storage
	catalog  []domain.HolidayDefinition
	timezone *time.Location
	weekend  Weekend
	rule     domain.AdjustmentRule
}

func NewHolidayService(s *storage.Storage, catalog []domain.HolidayDefinition, tz *time.Location, weekend Weekend, rule domain.AdjustmentRule) *HolidayService {
	return &HolidayService{
		storage:  s,
		catalog:  catalog,
		timezone: tz,
		weekend:  weekend,
		rule:     rule,
	}
}

func (s *HolidayService) Catalog() []domain.HolidayDefinition {
	return s.catalog
}

func (s *HolidayService) Definition(eventID string) (domain.HolidayDefinition, bool) {
	for _, def := range s.catalog {
		if def.EventID == eventID {
			return def, true
		}
	}
	return domain.HolidayDefinition{}, false
}

// Resolve computes the next occurrence of def after now. A calendar range
// failure is absorbed into a tentative result with no date rather than an
// error; only storage failures propagate.
func (s *HolidayService) Resolve(def domain.HolidayDefinition, now time.Time) (domain.ResolvedHoliday, error) {
	now = now.In(s.timezone)
	hijriYear, raw, err := hijri.NextOccurrence(int(def.HijriMonth), def.HijriDay, now)
	if errors.Is(err, hijri.ErrOutOfRange) {
		return domain.ResolvedHoliday{
			EventID:        def.EventID,
			Title:          def.Title,
			Category:       def.Category,
			HijriDay:       def.HijriDay,
			HijriMonth:     def.HijriMonth,
			Confidence:     domain.ConfidenceTentative,
			IsHijriDerived: def.HijriMonth.IsSightingDependent(),
		}, nil
	}
	if err != nil {
		return domain.ResolvedHoliday{}, fmt.Errorf("next occurrence of %s: %w", def.EventID, err)
	}
	return s.resolveYear(def, hijriYear, raw, now)
}

func (s *HolidayService) resolveYear(def domain.HolidayDefinition, hijriYear int, raw, now time.Time) (domain.ResolvedHoliday, error) {
	resolved := domain.ResolvedHoliday{
		EventID:        def.EventID,
		Title:          def.Title,
		Category:       def.Category,
		HijriYear:      hijriYear,
		HijriDay:       def.HijriDay,
		HijriMonth:     def.HijriMonth,
		RawDate:        raw,
		IsHijriDerived: def.HijriMonth.IsSightingDependent(),
	}

	override, err := s.storage.GetOverride(def.EventID, hijriYear)
	if err != nil {
		return domain.ResolvedHoliday{}, fmt.Errorf("get override %s/%d: %w", def.EventID, hijriYear, err)
	}
	if override != nil {
		d := override.Date.In(s.timezone)
		resolved.RawDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.timezone)
		resolved.IsOverridden = true
	}

	resolved.Confidence = s.confidence(resolved, now)
	resolved.ObservedDate = Adjust(resolved.RawDate, s.rule, s.weekend)
	return resolved, nil
}

// confidence classifies a resolution. An override always confirms the date,
// whatever the year: setting an exact date is an explicit operator act.
// Without one, non-sighting months are confirmed within the current Hijri
// year, anything more than one Hijri year out is tentative, and the rest is
// estimated.
func (s *HolidayService) confidence(r domain.ResolvedHoliday, now time.Time) domain.Confidence {
	if r.IsOverridden {
		return domain.ConfidenceConfirmed
	}
	currentYear, _, _, err := hijri.FromGregorian(now)
	if err != nil {
		return domain.ConfidenceTentative
	}
	switch {
	case !r.HijriMonth.IsSightingDependent() && r.HijriYear <= currentYear:
		return domain.ConfidenceConfirmed
	case r.HijriYear > currentYear+1:
		return domain.ConfidenceTentative
	default:
		return domain.ConfidenceEstimated
	}
}

// ListUpcoming resolves every occurrence of the given definitions within
// horizonYears of now, sorted by observed date ascending with ties broken
// by event id for determinism.
func (s *HolidayService) ListUpcoming(defs []domain.HolidayDefinition, now time.Time, horizonYears int) ([]domain.ResolvedHoliday, error) {
	now = now.In(s.timezone)
	horizon := now.AddDate(horizonYears, 0, 0)

	var out []domain.ResolvedHoliday
	for _, def := range defs {
		hijriYear, raw, err := hijri.NextOccurrence(int(def.HijriMonth), def.HijriDay, now)
		if errors.Is(err, hijri.ErrOutOfRange) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("next occurrence of %s: %w", def.EventID, err)
		}

		for raw.Before(horizon) {
			resolved, err := s.resolveYear(def, hijriYear, raw, now)
			if err != nil {
				return nil, err
			}
			out = append(out, resolved)

			hijriYear++
			g, err := hijri.ToGregorian(hijriYear, int(def.HijriMonth), def.HijriDay)
			if errors.Is(err, hijri.ErrOutOfRange) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("convert %s/%d: %w", def.EventID, hijriYear, err)
			}
			raw = time.Date(g.Year(), g.Month(), g.Day(), 0, 0, 0, 0, s.timezone)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ObservedDate.Equal(out[j].ObservedDate) {
			return out[i].ObservedDate.Before(out[j].ObservedDate)
		}
		return out[i].EventID < out[j].EventID
	})
	return out, nil
}

// UpcomingSaudiHolidays resolves the built-in catalog over the horizon.
func (s *HolidayService) UpcomingSaudiHolidays(now time.Time, horizonYears int) ([]domain.ResolvedHoliday, error) {
	return s.ListUpcoming(s.catalog, now, horizonYears)
}

// SetOverride pins one occurrence of an event to an exact date after a
// moon-sighting announcement. Setting an existing key replaces it.
func (s *HolidayService) SetOverride(eventID string, hijriYear int, date time.Time, reason string) error {
	if _, ok := s.Definition(eventID); !ok {
		return fmt.Errorf("unknown event %q", eventID)
	}
	if err := s.storage.SetOverride(eventID, hijriYear, date, reason); err != nil {
		return fmt.Errorf("set override %s/%d: %w", eventID, hijriYear, err)
	}
	return nil
}

// ClearOverride reverts one occurrence to the computed date. Clearing a
// missing override is a no-op.
func (s *HolidayService) ClearOverride(eventID string, hijriYear int) error {
	if err := s.storage.ClearOverride(eventID, hijriYear); err != nil {
		return fmt.Errorf("clear override %s/%d: %w", eventID, hijriYear, err)
	}
	return nil
}
