package service

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/nawafsh/hilalbot/internal/domain"
)

// PlanEntry is one scheduled alert of a reminder plan.
type PlanEntry struct {
	OffsetKey string
	FireAt    time.Time
}

// Plan computes the absolute fire instants for a countdown's reminder
// offsets, relative to now. The same (countdown, now) always yields the
// same plan, which is what makes rescheduling idempotent.
//
// Day offsets subtract whole wall-clock days in the countdown's location,
// so a reminder stays at the same local time across DST transitions.
// Entries at or before now are dropped; a one-time countdown whose offsets
// have all elapsed simply gets an empty plan.
func Plan(c *domain.Countdown, now time.Time, loc *time.Location, weekend Weekend) []PlanEntry {
	target := c.TargetDate.In(loc)
	if c.RecurrenceType == domain.RecurYearly {
		target = nextYearly(target, now)
	}
	// Adjust after the recurrence advance: the weekend shift depends on the
	// weekday of the concrete occurrence, not of the original target.
	target = Adjust(target, c.AdjustmentRule, weekend)

	var entries []PlanEntry
	for _, opt := range c.Reminders {
		var fireAt time.Time
		switch opt.Kind {
		case domain.OffsetMonthly:
			fireAt = nextMonthly(opt, now, loc)
		default:
			fireAt = target.AddDate(0, 0, -opt.Days)
		}
		if !fireAt.After(now) {
			continue
		}
		entries = append(entries, PlanEntry{OffsetKey: opt.Key(), FireAt: fireAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].FireAt.Equal(entries[j].FireAt) {
			return entries[i].FireAt.Before(entries[j].FireAt)
		}
		return entries[i].OffsetKey < entries[j].OffsetKey
	})
	return entries
}

// nextYearly advances target to its first yearly occurrence strictly after
// now. The original target is the first occurrence of the rule.
func nextYearly(target, now time.Time) time.Time {
	if target.After(now) {
		return target
	}
	r, err := rrule.NewRRule(rrule.ROption{Freq: rrule.YEARLY, Dtstart: target})
	if err != nil {
		return target
	}
	next := r.After(now, false)
	if next.IsZero() {
		return target
	}
	return next.In(target.Location())
}

// nextMonthly finds the next day-D occurrence at the option's wall time
// strictly after now. A day beyond the month's length clamps to the last
// day of that month (RRULE BYMONTHDAY would skip short months instead,
// which is not the behavior salary-day reminders want).
func nextMonthly(opt domain.ReminderOption, now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	year, month, _ := local.Date()
	for i := 0; i < 3; i++ {
		first := time.Date(year, month+time.Month(i), 1, 0, 0, 0, 0, loc)
		day := opt.Day
		if n := daysIn(first); day > n {
			day = n
		}
		t := time.Date(first.Year(), first.Month(), day, opt.Hour, opt.Minute, 0, 0, loc)
		if t.After(now) {
			return t
		}
	}
	// Unreachable: the occurrence two months ahead is always in the future.
	return time.Time{}
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
