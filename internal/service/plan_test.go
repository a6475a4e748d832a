package service

import (
	"testing"
	"time"

	"github.com/nawafsh/hilalbot/internal/domain"
)

var riyadh = time.FixedZone("AST", 3*3600)

func testCountdown(target time.Time, recurrence domain.RecurrenceType, reminders ...domain.ReminderOption) *domain.Countdown {
	return &domain.Countdown{
		ID:             "c1",
		Title:          "Trip",
		TargetDate:     target,
		AdjustmentRule: domain.AdjustNone,
		RecurrenceType: recurrence,
		Reminders:      reminders,
	}
}

func TestPlanDayOffsets(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)
	target := time.Date(2025, time.June, 11, 0, 0, 0, 0, riyadh) // 10 days out
	c := testCountdown(target, domain.RecurOneTime,
		domain.DaysBefore(7), domain.DaysBefore(1), domain.DaysBefore(0))

	plan := Plan(c, now, riyadh, DefaultWeekend())
	if len(plan) != 3 {
		t.Fatalf("plan has %d entries, want 3", len(plan))
	}

	want := []struct {
		key  string
		fire time.Time
	}{
		{"days:7", time.Date(2025, time.June, 4, 0, 0, 0, 0, riyadh)},
		{"days:1", time.Date(2025, time.June, 10, 0, 0, 0, 0, riyadh)},
		{"days:0", target},
	}
	for i, w := range want {
		if plan[i].OffsetKey != w.key || !plan[i].FireAt.Equal(w.fire) {
			t.Errorf("plan[%d] = {%s %v}, want {%s %v}",
				i, plan[i].OffsetKey, plan[i].FireAt, w.key, w.fire)
		}
	}
}

func TestPlanExcludesElapsedOffsets(t *testing.T) {
	now := time.Date(2025, time.June, 8, 12, 0, 0, 0, riyadh)
	target := time.Date(2025, time.June, 11, 0, 0, 0, 0, riyadh) // 3 days out
	c := testCountdown(target, domain.RecurOneTime,
		domain.DaysBefore(7), domain.DaysBefore(1))

	plan := Plan(c, now, riyadh, DefaultWeekend())
	if len(plan) != 1 || plan[0].OffsetKey != "days:1" {
		t.Fatalf("plan = %v, want only days:1", plan)
	}
}

func TestPlanEmptyForPastOneTime(t *testing.T) {
	now := time.Date(2025, time.June, 20, 12, 0, 0, 0, riyadh)
	target := time.Date(2025, time.June, 11, 0, 0, 0, 0, riyadh)
	c := testCountdown(target, domain.RecurOneTime, domain.DaysBefore(7), domain.DaysBefore(0))

	if plan := Plan(c, now, riyadh, DefaultWeekend()); len(plan) != 0 {
		t.Fatalf("plan for fully elapsed one-time countdown = %v, want empty", plan)
	}
}

func TestPlanYearlyAdvancesToNextOccurrence(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)
	target := time.Date(2024, time.August, 15, 0, 0, 0, 0, riyadh) // past; recurs yearly
	c := testCountdown(target, domain.RecurYearly, domain.DaysBefore(7))

	plan := Plan(c, now, riyadh, DefaultWeekend())
	if len(plan) != 1 {
		t.Fatalf("plan has %d entries, want 1", len(plan))
	}
	want := time.Date(2025, time.August, 8, 0, 0, 0, 0, riyadh)
	if !plan[0].FireAt.Equal(want) {
		t.Errorf("fireAt = %v, want %v", plan[0].FireAt, want)
	}
}

func TestPlanMonthlyClampsToMonthEnd(t *testing.T) {
	// April has 30 days; a day-31 salary reminder clamps to the 30th.
	now := time.Date(2025, time.April, 10, 12, 0, 0, 0, riyadh)
	c := testCountdown(time.Date(2030, time.January, 1, 0, 0, 0, 0, riyadh),
		domain.RecurMonthly, domain.MonthlyOn(31, 9, 0))

	plan := Plan(c, now, riyadh, DefaultWeekend())
	if len(plan) != 1 {
		t.Fatalf("plan has %d entries, want 1", len(plan))
	}
	want := time.Date(2025, time.April, 30, 9, 0, 0, 0, riyadh)
	if !plan[0].FireAt.Equal(want) {
		t.Errorf("fireAt = %v, want %v", plan[0].FireAt, want)
	}
}

func TestPlanMonthlyRollsToNextMonth(t *testing.T) {
	// Past this month's occurrence: the next one is in May, on the 31st.
	now := time.Date(2025, time.April, 30, 10, 0, 0, 0, riyadh)
	c := testCountdown(time.Date(2030, time.January, 1, 0, 0, 0, 0, riyadh),
		domain.RecurMonthly, domain.MonthlyOn(31, 9, 0))

	plan := Plan(c, now, riyadh, DefaultWeekend())
	if len(plan) != 1 {
		t.Fatalf("plan has %d entries, want 1", len(plan))
	}
	want := time.Date(2025, time.May, 31, 9, 0, 0, 0, riyadh)
	if !plan[0].FireAt.Equal(want) {
		t.Errorf("fireAt = %v, want %v", plan[0].FireAt, want)
	}
}

func TestPlanAppliesSmartAdjustment(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)
	// 2025-06-06 is a Friday; smart shifts the observed date to Sunday the 8th.
	target := time.Date(2025, time.June, 6, 0, 0, 0, 0, riyadh)
	c := testCountdown(target, domain.RecurOneTime, domain.DaysBefore(0))
	c.AdjustmentRule = domain.AdjustSmart

	plan := Plan(c, now, riyadh, DefaultWeekend())
	if len(plan) != 1 {
		t.Fatalf("plan has %d entries, want 1", len(plan))
	}
	want := time.Date(2025, time.June, 8, 0, 0, 0, 0, riyadh)
	if !plan[0].FireAt.Equal(want) {
		t.Errorf("fireAt = %v, want %v", plan[0].FireAt, want)
	}
}

func TestPlanDeterministic(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)
	c := testCountdown(time.Date(2025, time.July, 1, 0, 0, 0, 0, riyadh), domain.RecurYearly,
		domain.DaysBefore(7), domain.DaysBefore(30), domain.MonthlyOn(15, 8, 30))

	a := Plan(c, now, riyadh, DefaultWeekend())
	b := Plan(c, now, riyadh, DefaultWeekend())
	if len(a) != len(b) {
		t.Fatalf("plans differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].OffsetKey != b[i].OffsetKey || !a[i].FireAt.Equal(b[i].FireAt) {
			t.Errorf("plans diverge at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
