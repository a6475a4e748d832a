// Package hijri converts between the tabular (civil) Islamic calendar and the
// proleptic Gregorian calendar. The tabular calendar is deterministic
// arithmetic over a 30-year leap cycle; it approximates the observed
// moon-sighting calendar to within about a day, which is why callers layer
// operator overrides and confidence levels on top of it.
package hijri

import (
	"errors"
	"time"
)

// Supported tabular range. Outside it conversions return ErrOutOfRange and
// callers degrade confidence instead of crashing.
const (
	MinYear = 1343 // ≈ 1924 CE
	MaxYear = 1600 // ≈ 2174 CE
)

var ErrOutOfRange = errors.New("hijri: date out of supported range")

// Julian day number of the day before 1 Muharram 1 AH (civil epoch,
// 16 July 622 Julian / 19 July 622 proleptic Gregorian).
const epochJDN = 1948439

// IsLeapYear reports whether the Hijri year has 355 days in the 30-year
// tabular cycle (years 2, 5, 7, 10, 13, 16, 18, 21, 24, 26, 29). The rule
// matches the intercalary term used in toJDN.
func IsLeapYear(year int) bool {
	return (11*year+14)%30 < 11
}

// MonthLength returns the number of days in a tabular Hijri month. Odd
// months have 30 days, even months 29, and Dhu al-Hijjah gains a day in
// leap years.
func MonthLength(year, month int) int {
	if month%2 == 1 {
		return 30
	}
	if month == 12 && IsLeapYear(year) {
		return 30
	}
	return 29
}

// toJDN maps a tabular Hijri date to its Julian day number. Inputs are not
// range-checked; exported functions do that.
func toJDN(year, month, day int) int {
	// ceil(29.5 * (month-1)) days elapsed before the month starts.
	monthDays := (59*(month-1) + 1) / 2
	return day + monthDays + 354*(year-1) + (3+11*year)/30 + epochJDN
}

// gregorianToJDN and jdnToGregorian implement the standard proleptic
// Gregorian <-> Julian day number conversion.
func gregorianToJDN(year int, month time.Month, day int) int {
	a := (14 - int(month)) / 12
	y := year + 4800 - a
	m := int(month) + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

func jdnToGregorian(jdn int) (int, time.Month, int) {
	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153
	day := e - (153*m+2)/5 + 1
	month := time.Month(m + 3 - 12*(m/10))
	year := 100*b + d - 4800 + m/10
	return year, month, day
}

// ToGregorian converts a tabular Hijri date to the Gregorian calendar day it
// falls on, as midnight UTC. Monotonic: for a fixed (month, day), a larger
// year always yields a later date.
func ToGregorian(year, month, day int) (time.Time, error) {
	if year < MinYear || year > MaxYear {
		return time.Time{}, ErrOutOfRange
	}
	if month < 1 || month > 12 || day < 1 || day > 30 {
		return time.Time{}, ErrOutOfRange
	}
	gy, gm, gd := jdnToGregorian(toJDN(year, month, day))
	return time.Date(gy, gm, gd, 0, 0, 0, 0, time.UTC), nil
}

// FromGregorian converts a Gregorian instant to the tabular Hijri date of
// the same calendar day.
func FromGregorian(t time.Time) (year, month, day int, err error) {
	jdn := gregorianToJDN(t.Year(), t.Month(), t.Day())

	// Estimate the year, then correct against the forward conversion so the
	// inverse is exact by construction.
	year = (30*(jdn-epochJDN) + 10646) / 10631
	for toJDN(year+1, 1, 1) <= jdn {
		year++
	}
	for toJDN(year, 1, 1) > jdn {
		year--
	}
	if year < MinYear || year > MaxYear {
		return 0, 0, 0, ErrOutOfRange
	}

	month = 1
	for month < 12 && toJDN(year, month+1, 1) <= jdn {
		month++
	}
	day = jdn - toJDN(year, month, 1) + 1
	return year, month, day, nil
}

// NextOccurrence finds the smallest Hijri year whose (month, day) falls
// strictly after the given reference instant, and returns that year together
// with the Gregorian date at midnight in the reference's location. When the
// current Hijri year's occurrence has already passed it advances exactly one
// year.
func NextOccurrence(month, day int, after time.Time) (int, time.Time, error) {
	hy, _, _, err := FromGregorian(after)
	if err != nil {
		return 0, time.Time{}, err
	}
	for i := 0; i <= 1; i++ {
		g, err := ToGregorian(hy+i, month, day)
		if err != nil {
			return 0, time.Time{}, err
		}
		raw := time.Date(g.Year(), g.Month(), g.Day(), 0, 0, 0, 0, after.Location())
		if raw.After(after) {
			return hy + i, raw, nil
		}
	}
	// Unreachable for valid months: the next year's occurrence is always in
	// the future once the current year's has passed.
	return 0, time.Time{}, ErrOutOfRange
}
