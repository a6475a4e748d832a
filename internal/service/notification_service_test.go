package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nawafsh/hilalbot/internal/domain"
	"github.com/nawafsh/hilalbot/internal/notify"
	"github.com/nawafsh/hilalbot/internal/storage"
)

// fakeScheduler records external scheduler calls and tracks live handles.
type fakeScheduler struct {
	next       int
	live       map[string]notify.Payload
	scheduled  []string
	cancelled  []string
	denyAll    bool
	failKeys   map[string]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{live: map[string]notify.Payload{}, failKeys: map[string]bool{}}
}

func (f *fakeScheduler) Schedule(_ context.Context, p notify.Payload) (string, error) {
	if f.denyAll {
		return "", notify.ErrPermissionDenied
	}
	if f.failKeys[p.OffsetKey] {
		return "", errors.New("backend unavailable")
	}
	f.next++
	handle := fmt.Sprintf("h%d", f.next)
	f.live[handle] = p
	f.scheduled = append(f.scheduled, handle)
	return handle, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, handle string) error {
	delete(f.live, handle)
	f.cancelled = append(f.cancelled, handle)
	return nil
}

func (f *fakeScheduler) List(_ context.Context) ([]string, error) {
	var out []string
	for h := range f.live {
		out = append(out, h)
	}
	return out, nil
}

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func storedCountdown(t *testing.T, store *storage.Storage, reminders ...domain.ReminderOption) *domain.Countdown {
	t.Helper()
	c := &domain.Countdown{
		ID:             "cd-1",
		Title:          "Vacation",
		TargetDate:     time.Date(2025, time.June, 11, 0, 0, 0, 0, riyadh),
		CalendarType:   domain.CalendarGregorian,
		AdjustmentRule: domain.AdjustNone,
		RecurrenceType: domain.RecurOneTime,
		Reminders:      reminders,
	}
	if err := store.CreateCountdown(c); err != nil {
		t.Fatalf("create countdown: %v", err)
	}
	return c
}

func TestScheduleAllThenCancelAll(t *testing.T) {
	store := newTestStorage(t)
	external := newFakeScheduler()
	svc := NewNotificationService(store, external, riyadh, DefaultWeekend())
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)

	c := storedCountdown(t, store, domain.DaysBefore(7), domain.DaysBefore(1), domain.DaysBefore(0))

	handles, err := svc.ScheduleAll(ctx, c, now)
	if err != nil {
		t.Fatalf("ScheduleAll: %v", err)
	}
	if len(handles) != 3 {
		t.Fatalf("scheduled %d handles, want 3", len(handles))
	}
	persisted, err := store.ListHandles(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 3 {
		t.Fatalf("persisted %d handles, want 3", len(persisted))
	}

	if err := svc.CancelAll(ctx, c.ID); err != nil {
		t.Fatalf("CancelAll: %v", err)
	}
	persisted, err = store.ListHandles(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 0 {
		t.Fatalf("persisted %d handles after CancelAll, want 0", len(persisted))
	}
	if len(external.live) != 0 {
		t.Fatalf("external has %d live handles after CancelAll, want 0", len(external.live))
	}

	// Cancelling again with nothing scheduled is a no-op.
	if err := svc.CancelAll(ctx, c.ID); err != nil {
		t.Fatalf("second CancelAll: %v", err)
	}
}

func TestRescheduleIsIdempotent(t *testing.T) {
	store := newTestStorage(t)
	external := newFakeScheduler()
	svc := NewNotificationService(store, external, riyadh, DefaultWeekend())
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)

	c := storedCountdown(t, store, domain.DaysBefore(7), domain.DaysBefore(1))

	first, err := svc.Reschedule(ctx, c, now)
	if err != nil {
		t.Fatalf("first Reschedule: %v", err)
	}
	second, err := svc.Reschedule(ctx, c, now)
	if err != nil {
		t.Fatalf("second Reschedule: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("handle counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("handle %d changed across idempotent reschedule: %s vs %s", i, first[i], second[i])
		}
	}
	// Unchanged entries must not touch the external scheduler again.
	if len(external.scheduled) != 2 {
		t.Errorf("external Schedule called %d times, want 2", len(external.scheduled))
	}
	if len(external.cancelled) != 0 {
		t.Errorf("external Cancel called %d times, want 0", len(external.cancelled))
	}
}

func TestRescheduleReplacesChangedFireTimes(t *testing.T) {
	store := newTestStorage(t)
	external := newFakeScheduler()
	svc := NewNotificationService(store, external, riyadh, DefaultWeekend())
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)

	c := storedCountdown(t, store, domain.DaysBefore(7), domain.DaysBefore(1))
	if _, err := svc.ScheduleAll(ctx, c, now); err != nil {
		t.Fatal(err)
	}

	// Move the target date: both offsets change fire time, old handles must
	// be cancelled before new ones appear.
	c.TargetDate = c.TargetDate.AddDate(0, 0, 5)
	if err := store.UpdateCountdown(c); err != nil {
		t.Fatal(err)
	}
	handles, err := svc.Reschedule(ctx, c, now)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("got %d handles, want 2", len(handles))
	}
	if len(external.cancelled) != 2 {
		t.Errorf("external Cancel called %d times, want 2", len(external.cancelled))
	}
	if len(external.live) != 2 {
		t.Errorf("external has %d live handles, want 2", len(external.live))
	}

	persisted, err := store.ListHandles(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range persisted {
		if _, ok := external.live[h.ExternalHandle]; !ok {
			t.Errorf("persisted handle %s not live externally", h.ExternalHandle)
		}
	}
}

func TestRescheduleDropsRemovedOffsets(t *testing.T) {
	store := newTestStorage(t)
	external := newFakeScheduler()
	svc := NewNotificationService(store, external, riyadh, DefaultWeekend())
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)

	c := storedCountdown(t, store, domain.DaysBefore(7), domain.DaysBefore(1))
	if _, err := svc.ScheduleAll(ctx, c, now); err != nil {
		t.Fatal(err)
	}

	c.Reminders = []domain.ReminderOption{domain.DaysBefore(7)}
	if err := store.UpdateCountdown(c); err != nil {
		t.Fatal(err)
	}
	handles, err := svc.Reschedule(ctx, c, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(handles) != 1 {
		t.Fatalf("got %d handles, want 1", len(handles))
	}
	persisted, err := store.ListHandles(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 1 || persisted[0].OffsetKey != "days:7" {
		t.Fatalf("persisted = %+v, want only days:7", persisted)
	}
	if len(external.live) != 1 {
		t.Errorf("external has %d live handles, want 1", len(external.live))
	}
}

func TestScheduleAllPermissionDenied(t *testing.T) {
	store := newTestStorage(t)
	external := newFakeScheduler()
	external.denyAll = true
	svc := NewNotificationService(store, external, riyadh, DefaultWeekend())
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)

	c := storedCountdown(t, store, domain.DaysBefore(7))

	handles, err := svc.ScheduleAll(ctx, c, now)
	if err != nil {
		t.Fatalf("ScheduleAll with denied permission must not error, got %v", err)
	}
	if len(handles) != 0 {
		t.Fatalf("got %d handles, want 0", len(handles))
	}
}

func TestScheduleAllPartialFailure(t *testing.T) {
	store := newTestStorage(t)
	external := newFakeScheduler()
	external.failKeys["days:1"] = true
	svc := NewNotificationService(store, external, riyadh, DefaultWeekend())
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, riyadh)

	c := storedCountdown(t, store, domain.DaysBefore(7), domain.DaysBefore(1), domain.DaysBefore(0))

	handles, err := svc.ScheduleAll(ctx, c, now)
	if err != nil {
		t.Fatalf("partial failure must not abort: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("got %d handles, want 2 (the successful subset)", len(handles))
	}
	persisted, err := store.ListHandles(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 2 {
		t.Fatalf("persisted %d handles, want 2", len(persisted))
	}
	for _, h := range persisted {
		if h.OffsetKey == "days:1" {
			t.Error("failed offset days:1 must not be persisted")
		}
	}
}
