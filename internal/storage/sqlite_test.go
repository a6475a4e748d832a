package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nawafsh/hilalbot/internal/domain"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOverrideLifecycle(t *testing.T) {
	s := newStorage(t)
	date := time.Date(2025, time.March, 30, 0, 0, 0, 0, time.UTC)

	got, err := s.GetOverride("eid-al-fitr", 1446)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected absent override")
	}

	if err := s.SetOverride("eid-al-fitr", 1446, date, "sighting"); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	got, err = s.GetOverride("eid-al-fitr", 1446)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.Date.Equal(date) || got.Reason != "sighting" {
		t.Fatalf("GetOverride = %+v, want date %v reason %q", got, date, "sighting")
	}

	// Set on an existing key replaces it.
	moved := date.AddDate(0, 0, 1)
	if err := s.SetOverride("eid-al-fitr", 1446, moved, "corrected"); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetOverride("eid-al-fitr", 1446)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Date.Equal(moved) || got.Reason != "corrected" {
		t.Fatalf("after replace: %+v", got)
	}

	// Other years are untouched.
	other, err := s.GetOverride("eid-al-fitr", 1447)
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Fatal("override leaked into another year")
	}

	if err := s.ClearOverride("eid-al-fitr", 1446); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetOverride("eid-al-fitr", 1446)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("override survived clear")
	}
	// Clearing again is a no-op.
	if err := s.ClearOverride("eid-al-fitr", 1446); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestCountdownPersistsReminders(t *testing.T) {
	s := newStorage(t)
	c := &domain.Countdown{
		ID:             "cd-1",
		ChatID:         42,
		Title:          "Salary",
		TargetDate:     time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC),
		CalendarType:   domain.CalendarGregorian,
		AdjustmentRule: domain.AdjustSmart,
		RecurrenceType: domain.RecurMonthly,
		Reminders: []domain.ReminderOption{
			domain.DaysBefore(7),
			domain.MonthlyOn(31, 9, 0),
		},
	}
	if err := s.CreateCountdown(c); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetCountdown("cd-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("countdown not found")
	}
	if len(got.Reminders) != 2 {
		t.Fatalf("got %d reminders, want 2", len(got.Reminders))
	}
	if got.Reminders[0].Key() != "days:7" || got.Reminders[1].Key() != "monthly:31:09:00" {
		t.Errorf("reminders = %v", got.Reminders)
	}
	if got.AdjustmentRule != domain.AdjustSmart || got.RecurrenceType != domain.RecurMonthly {
		t.Errorf("countdown fields lost: %+v", got)
	}
}

func TestHandleUniquePerOffset(t *testing.T) {
	s := newStorage(t)
	c := &domain.Countdown{
		ID:         "cd-1",
		Title:      "Trip",
		TargetDate: time.Now(),
	}
	if err := s.CreateCountdown(c); err != nil {
		t.Fatal(err)
	}

	h := &domain.ScheduledNotificationHandle{
		CountdownID:    "cd-1",
		OffsetKey:      "days:7",
		ExternalHandle: "h1",
		FireAt:         time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC),
	}
	if err := s.PutHandle(h); err != nil {
		t.Fatal(err)
	}
	// Replacing the same offset keeps exactly one row.
	h.ExternalHandle = "h2"
	if err := s.PutHandle(h); err != nil {
		t.Fatal(err)
	}

	handles, err := s.ListHandles("cd-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(handles) != 1 {
		t.Fatalf("got %d handles, want 1", len(handles))
	}
	if handles[0].ExternalHandle != "h2" {
		t.Errorf("handle = %s, want h2", handles[0].ExternalHandle)
	}
}

func TestAlertQueue(t *testing.T) {
	s := newStorage(t)
	fire := time.Date(2025, time.June, 4, 9, 0, 0, 0, time.UTC)
	if err := s.CreateAlert("a1", "cd-1", "days:7", "Trip", "Trip is in 7 days", fire); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateAlert("a2", "cd-1", "days:0", "Trip", "Trip is today!", fire.AddDate(0, 0, 7)); err != nil {
		t.Fatal(err)
	}

	due, err := s.DueAlerts(fire.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != "a1" {
		t.Fatalf("due = %+v, want only a1", due)
	}

	if err := s.MarkAlertSent("a1", fire.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	due, err = s.DueAlerts(fire.Add(2 * time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Fatalf("sent alert still due: %+v", due)
	}

	ids, err := s.ListAlertIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "a2" {
		t.Fatalf("pending ids = %v, want [a2]", ids)
	}
}
