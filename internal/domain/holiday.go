package domain

import "time"

// HijriMonth is a month of the Islamic (Hijri) calendar, 1-12.
type HijriMonth int

const (
	Muharram HijriMonth = iota + 1
	Safar
	RabiAlAwwal
	RabiAlThani
	JumadaAlUla
	JumadaAlThani
	Rajab
	Shaban
	Ramadan
	Shawwal
	DhuAlQadah
	DhuAlHijjah
)

func (m HijriMonth) String() string {
	switch m {
	case Muharram:
		return "Muharram"
	case Safar:
		return "Safar"
	case RabiAlAwwal:
		return "Rabi al-Awwal"
	case RabiAlThani:
		return "Rabi al-Thani"
	case JumadaAlUla:
		return "Jumada al-Ula"
	case JumadaAlThani:
		return "Jumada al-Thani"
	case Rajab:
		return "Rajab"
	case Shaban:
		return "Sha'ban"
	case Ramadan:
		return "Ramadan"
	case Shawwal:
		return "Shawwal"
	case DhuAlQadah:
		return "Dhu al-Qa'dah"
	case DhuAlHijjah:
		return "Dhu al-Hijjah"
	}
	return "unknown"
}

func (m HijriMonth) Valid() bool {
	return m >= Muharram && m <= DhuAlHijjah
}

// IsSightingDependent reports whether the month's start is announced by
// moon-sighting committees rather than taken from the tabular calendar.
// Dates in these months stay uncertain until shortly before the event.
func (m HijriMonth) IsSightingDependent() bool {
	switch m {
	case Ramadan, Shawwal, DhuAlHijjah:
		return true
	}
	return false
}

// Category classifies a holiday for display purposes.
type Category string

const (
	CategoryEid      Category = "eid"
	CategoryRamadan  Category = "ramadan"
	CategoryNational Category = "national"
	CategoryPersonal Category = "personal"
)

func (c Category) Icon() string {
	switch c {
	case CategoryEid:
		return "🎉"
	case CategoryRamadan:
		return "🌙"
	case CategoryNational:
		return "🇸🇦"
	case CategoryPersonal:
		return "⭐"
	}
	return "📅"
}

func (c Category) Label() string {
	switch c {
	case CategoryEid:
		return "Eid"
	case CategoryRamadan:
		return "Ramadan"
	case CategoryNational:
		return "National"
	case CategoryPersonal:
		return "Personal"
	}
	return "Other"
}

// Confidence describes how certain a resolved holiday date is.
type Confidence string

const (
	// ConfidenceConfirmed means the date is locked in: either an operator
	// override exists or the month is not moon-sighting-dependent and the
	// occurrence is within the current Hijri year.
	ConfidenceConfirmed Confidence = "confirmed"
	// ConfidenceEstimated means the date comes from the tabular calendar and
	// may still shift by a day once the moon is sighted.
	ConfidenceEstimated Confidence = "estimated"
	// ConfidenceTentative means the date is more than one Hijri year out, or
	// fell outside the converter's supported range.
	ConfidenceTentative Confidence = "tentative"
)

// HolidayDefinition is an immutable template for a recurring Hijri-anchored
// holiday. Defined at build time (or loaded from the extras file), never
// mutated; per-year corrections go through HolidayOverride instead.
type HolidayDefinition struct {
	EventID    string
	Title      string
	HijriDay   int // 1-30
	HijriMonth HijriMonth
	Category   Category
}

// HolidayOverride pins one occurrence of a holiday to an exact Gregorian
// date, typically after a moon-sighting announcement. Keyed by
// (EventID, HijriYear); it replaces the computed date for that year only.
type HolidayOverride struct {
	EventID   string
	HijriYear int
	Date      time.Time
	Reason    string
	CreatedAt time.Time
}

// ResolvedHoliday is the derived, non-persisted result of resolving a
// definition against the calendar and the override table.
type ResolvedHoliday struct {
	EventID    string
	Title      string
	Category   Category
	HijriYear  int
	HijriDay   int
	HijriMonth HijriMonth

	// RawDate is the astronomical/calendar-computed date; ObservedDate is
	// the date the holiday is actually recognized on after weekend
	// adjustment. RawDate is never discarded.
	RawDate      time.Time
	ObservedDate time.Time

	Confidence     Confidence
	IsOverridden   bool
	IsHijriDerived bool
}

// DaysUntil returns whole days from now until the observed date.
func (r *ResolvedHoliday) DaysUntil(now time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	obs := r.ObservedDate
	obsDay := time.Date(obs.Year(), obs.Month(), obs.Day(), 0, 0, 0, 0, now.Location())
	return int(obsDay.Sub(nowDay).Hours() / 24)
}
