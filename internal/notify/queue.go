package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nawafsh/hilalbot/internal/storage"
)

// Queue is a Scheduler backed by the pending_alerts table. Due alerts are
// drained by the cron loop and sent over Telegram; the handle is the alert
// row id.
type Queue struct {
	storage *storage.Storage
	enabled bool
}

func NewQueue(s *storage.Storage, enabled bool) *Queue {
	return &Queue{storage: s, enabled: enabled}
}

func (q *Queue) Schedule(ctx context.Context, p Payload) (string, error) {
	if !q.enabled {
		return "", ErrPermissionDenied
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := q.storage.CreateAlert(id, p.CountdownID, p.OffsetKey, p.Title, p.Body, p.FireAt); err != nil {
		return "", fmt.Errorf("create alert: %w", err)
	}
	return id, nil
}

// Cancel removes the alert; cancelling an unknown or already-fired handle is
// a no-op.
func (q *Queue) Cancel(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.storage.DeleteAlert(handle); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return nil
}

func (q *Queue) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := q.storage.ListAlertIDs()
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return ids, nil
}
