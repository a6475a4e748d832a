package service

import (
	"strings"
	"time"

	"github.com/nawafsh/hilalbot/internal/domain"
)

// Weekend is the set of weekdays on which a holiday is not observed. Passed
// in explicitly (from config) so the engine is callable from background
// contexts without ambient locale state.
type Weekend map[time.Weekday]bool

// DefaultWeekend is the Saudi weekend.
func DefaultWeekend() Weekend {
	return Weekend{time.Friday: true, time.Saturday: true}
}

// ParseWeekend parses a comma-separated list of English weekday names.
func ParseWeekend(s string) (Weekend, bool) {
	names := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	w := Weekend{}
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		d, ok := names[name]
		if !ok {
			return nil, false
		}
		w[d] = true
	}
	return w, true
}

// Adjust turns a raw holiday date into the observed one. Rule "none" is the
// identity. Rule "smart" shifts forward past the weekend set onto the next
// working day; the loop is bounded because the weekend is a proper subset of
// the week.
func Adjust(raw time.Time, rule domain.AdjustmentRule, weekend Weekend) time.Time {
	if rule != domain.AdjustSmart || len(weekend) >= 7 {
		return raw
	}
	observed := raw
	for weekend[observed.Weekday()] {
		observed = observed.AddDate(0, 0, 1)
	}
	return observed
}
