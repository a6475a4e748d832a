package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CalendarType is the input mode a countdown's target date was entered in.
// Once saved the target date is always Gregorian.
type CalendarType string

const (
	CalendarGregorian CalendarType = "gregorian"
	CalendarHijri     CalendarType = "hijri"
)

// AdjustmentRule governs whether the observed date shifts off a weekend.
type AdjustmentRule string

const (
	AdjustSmart AdjustmentRule = "smart"
	AdjustNone  AdjustmentRule = "none"
)

type RecurrenceType string

const (
	RecurOneTime RecurrenceType = "one-time"
	RecurYearly  RecurrenceType = "yearly"
	RecurMonthly RecurrenceType = "monthly"
)

// OffsetKind tags the two reminder offset variants.
type OffsetKind string

const (
	// OffsetDaysBefore fires N whole days before the target date.
	OffsetDaysBefore OffsetKind = "days"
	// OffsetMonthly fires on day D of every month at a fixed wall time
	// (salary-day style reminders).
	OffsetMonthly OffsetKind = "monthly"
)

// ReminderOption is a single relative reminder offset. The set of offsets on
// a countdown is enumerated, not arbitrary, so the plan stays finite and a
// serialized key identifies each offset stably across edits.
type ReminderOption struct {
	Kind OffsetKind

	// Days before the target date; valid for OffsetDaysBefore. Zero means
	// "on the day itself".
	Days int

	// Day of month (1-31, clamped to the month length) and wall-clock time;
	// valid for OffsetMonthly.
	Day    int
	Hour   int
	Minute int
}

func DaysBefore(n int) ReminderOption {
	return ReminderOption{Kind: OffsetDaysBefore, Days: n}
}

func MonthlyOn(day, hour, minute int) ReminderOption {
	return ReminderOption{Kind: OffsetMonthly, Day: day, Hour: hour, Minute: minute}
}

// Key serializes the option into its stable offset key:
// "days:N" or "monthly:D:HH:MM".
func (o ReminderOption) Key() string {
	switch o.Kind {
	case OffsetMonthly:
		return fmt.Sprintf("monthly:%d:%02d:%02d", o.Day, o.Hour, o.Minute)
	default:
		return fmt.Sprintf("days:%d", o.Days)
	}
}

// ParseOffsetKey is the inverse of ReminderOption.Key.
func ParseOffsetKey(key string) (ReminderOption, error) {
	parts := strings.Split(key, ":")
	switch {
	case len(parts) == 2 && parts[0] == string(OffsetDaysBefore):
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 {
			return ReminderOption{}, fmt.Errorf("invalid days offset %q", key)
		}
		return DaysBefore(n), nil
	case len(parts) == 4 && parts[0] == string(OffsetMonthly):
		day, err1 := strconv.Atoi(parts[1])
		hour, err2 := strconv.Atoi(parts[2])
		minute, err3 := strconv.Atoi(parts[3])
		if err1 != nil || err2 != nil || err3 != nil ||
			day < 1 || day > 31 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return ReminderOption{}, fmt.Errorf("invalid monthly offset %q", key)
		}
		return MonthlyOn(day, hour, minute), nil
	}
	return ReminderOption{}, fmt.Errorf("invalid offset key %q", key)
}

// EncodeReminders serializes an offset list for storage, preserving order.
func EncodeReminders(opts []ReminderOption) string {
	keys := make([]string, len(opts))
	for i, o := range opts {
		keys[i] = o.Key()
	}
	return strings.Join(keys, ",")
}

func DecodeReminders(s string) ([]ReminderOption, error) {
	if s == "" {
		return nil, nil
	}
	var opts []ReminderOption
	for _, key := range strings.Split(s, ",") {
		o, err := ParseOffsetKey(key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, nil
}

// Countdown is a user-created countdown to a target date.
type Countdown struct {
	ID             string
	ChatID         int64
	Title          string
	TargetDate     time.Time
	CalendarType   CalendarType
	AdjustmentRule AdjustmentRule
	RecurrenceType RecurrenceType
	Reminders      []ReminderOption
	IsStarred      bool
	CreatedAt      time.Time
}

// DaysLeft returns whole days from now until the target date.
func (c *Countdown) DaysLeft(now time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	t := c.TargetDate.In(now.Location())
	targetDay := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	return int(targetDay.Sub(nowDay).Hours() / 24)
}

// ScheduledNotificationHandle records one live external notification for a
// countdown offset. Unique per (CountdownID, OffsetKey).
type ScheduledNotificationHandle struct {
	CountdownID    string
	OffsetKey      string
	ExternalHandle string
	FireAt         time.Time
}
