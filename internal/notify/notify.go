// Package notify defines the contract of the external notification
// scheduler the countdown core talks to, plus a local queue-backed
// implementation delivered over Telegram.
package notify

import (
	"context"
	"errors"
	"time"
)

// Payload is the alert handed to the scheduler.
type Payload struct {
	CountdownID string
	OffsetKey   string
	Title       string
	Body        string
	FireAt      time.Time
}

// ErrPermissionDenied is returned by Schedule when the delivery channel is
// not allowed to post notifications. Callers surface a permission-request
// flow instead of treating it as a hard failure.
var ErrPermissionDenied = errors.New("notify: permission denied")

// Scheduler is the external collaborator: schedule returns an opaque handle,
// cancel and list operate on handles. Calls may block on I/O.
type Scheduler interface {
	Schedule(ctx context.Context, p Payload) (string, error)
	Cancel(ctx context.Context, handle string) error
	List(ctx context.Context) ([]string, error)
}
