package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nawafsh/hilalbot/internal/domain"
	"github.com/nawafsh/hilalbot/internal/notify"
	"github.com/nawafsh/hilalbot/internal/storage"
)

// NotificationService reconciles a countdown's reminder plan against the
// handles currently scheduled with the external notification scheduler.
//
// Precondition: operations for a given countdown id are serialized by the
// caller (one in-flight mutation per countdown); the service does not lock.
// The handle table is re-read on every call and treated as the source of
// truth, never cached.
type NotificationService struct {
	storage  *storage.Storage
	external notify.Scheduler
	timezone *time.Location
	weekend  Weekend
}

func NewNotificationService(s *storage.Storage, external notify.Scheduler, tz *time.Location, weekend Weekend) *NotificationService {
	return &NotificationService{
		storage:  s,
		external: external,
		timezone: tz,
		weekend:  weekend,
	}
}

// ScheduleAll computes the reminder plan for the countdown and brings the
// scheduled handles in line with it. Guarantees at most one live handle per
// (countdown, offsetKey): a stale handle for an offset is always cancelled
// before its replacement is requested.
//
// If the external scheduler denies permission the result is an empty list,
// not an error; the caller surfaces a permission-request flow. A failure on
// one offset is logged and skipped so the remaining offsets still get
// scheduled: partial success is reported, not rolled back.
func (s *NotificationService) ScheduleAll(ctx context.Context, c *domain.Countdown, now time.Time) ([]string, error) {
	return s.reconcile(ctx, c, Plan(c, now, s.timezone, s.weekend))
}

// Reschedule recomputes the plan after an edit. Handles whose offsetKey and
// fireAt are unchanged are left untouched rather than torn down and
// recreated.
func (s *NotificationService) Reschedule(ctx context.Context, c *domain.Countdown, now time.Time) ([]string, error) {
	return s.ScheduleAll(ctx, c, now)
}

func (s *NotificationService) reconcile(ctx context.Context, c *domain.Countdown, plan []PlanEntry) ([]string, error) {
	existing, err := s.storage.ListHandles(c.ID)
	if err != nil {
		return nil, fmt.Errorf("list handles for %s: %w", c.ID, err)
	}
	stale := make(map[string]*domain.ScheduledNotificationHandle, len(existing))
	for _, h := range existing {
		stale[h.OffsetKey] = h
	}

	handles := []string{}
	for _, entry := range plan {
		if h, ok := stale[entry.OffsetKey]; ok {
			delete(stale, entry.OffsetKey)
			if h.FireAt.Equal(entry.FireAt) {
				handles = append(handles, h.ExternalHandle)
				continue
			}
			// Changed fire time: tear down before requesting the
			// replacement so the offset is never double-booked.
			if err := s.dropHandle(ctx, h); err != nil {
				log.Printf("Error cancelling stale handle for %s/%s: %v", c.ID, h.OffsetKey, err)
				continue
			}
		}

		external, err := s.external.Schedule(ctx, notify.Payload{
			CountdownID: c.ID,
			OffsetKey:   entry.OffsetKey,
			Title:       c.Title,
			Body:        alertBody(c, entry),
			FireAt:      entry.FireAt,
		})
		if errors.Is(err, notify.ErrPermissionDenied) {
			return []string{}, nil
		}
		if err != nil {
			log.Printf("Error scheduling %s/%s: %v", c.ID, entry.OffsetKey, err)
			continue
		}

		h := &domain.ScheduledNotificationHandle{
			CountdownID:    c.ID,
			OffsetKey:      entry.OffsetKey,
			ExternalHandle: external,
			FireAt:         entry.FireAt,
		}
		if err := s.storage.PutHandle(h); err != nil {
			// Storage failed after the external call succeeded; undo the
			// external side so the persisted view stays authoritative.
			if cerr := s.external.Cancel(ctx, external); cerr != nil {
				log.Printf("Error cancelling orphaned handle %s: %v", external, cerr)
			}
			return handles, fmt.Errorf("persist handle %s/%s: %w", c.ID, entry.OffsetKey, err)
		}
		handles = append(handles, external)
	}

	// Whatever is left no longer appears in the plan.
	for _, h := range stale {
		if err := s.dropHandle(ctx, h); err != nil {
			log.Printf("Error removing stale handle for %s/%s: %v", c.ID, h.OffsetKey, err)
		}
	}

	return handles, nil
}

// CancelAll cancels every live handle for the countdown and removes the
// records. Safe to call when none exist.
func (s *NotificationService) CancelAll(ctx context.Context, countdownID string) error {
	existing, err := s.storage.ListHandles(countdownID)
	if err != nil {
		return fmt.Errorf("list handles for %s: %w", countdownID, err)
	}
	for _, h := range existing {
		if err := s.external.Cancel(ctx, h.ExternalHandle); err != nil {
			log.Printf("Error cancelling handle %s: %v", h.ExternalHandle, err)
		}
	}
	if err := s.storage.DeleteHandles(countdownID); err != nil {
		return fmt.Errorf("delete handles for %s: %w", countdownID, err)
	}
	return nil
}

func (s *NotificationService) dropHandle(ctx context.Context, h *domain.ScheduledNotificationHandle) error {
	if err := s.external.Cancel(ctx, h.ExternalHandle); err != nil {
		return err
	}
	return s.storage.DeleteHandle(h.CountdownID, h.OffsetKey)
}

func alertBody(c *domain.Countdown, entry PlanEntry) string {
	opt, err := domain.ParseOffsetKey(entry.OffsetKey)
	if err == nil && opt.Kind == domain.OffsetDaysBefore {
		switch opt.Days {
		case 0:
			return fmt.Sprintf("%s is today!", c.Title)
		case 1:
			return fmt.Sprintf("%s is tomorrow", c.Title)
		default:
			return fmt.Sprintf("%s is in %d days", c.Title, opt.Days)
		}
	}
	return c.Title
}
