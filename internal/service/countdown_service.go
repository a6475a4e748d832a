package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nawafsh/hilalbot/internal/domain"
	"github.com/nawafsh/hilalbot/internal/hijri"
	"github.com/nawafsh/hilalbot/internal/storage"
)

// CountdownService owns the countdown lifecycle. Every mutation that can
// change the reminder plan (target date, reminders, recurrence) flows
// through the notification service so the scheduled handles never drift
// from the stored entity.
//
// Precondition: mutations for a given countdown id are serialized by the
// caller.
type CountdownService struct {
	storage       *storage.Storage
	notifications *NotificationService
	timezone      *time.Location
}

func NewCountdownService(s *storage.Storage, notifications *NotificationService, tz *time.Location) *CountdownService {
	return &CountdownService{
		storage:       s,
		notifications: notifications,
		timezone:      tz,
	}
}

// CreateInput carries the user's input. With CalendarHijri the Hijri triple
// is resolved to a Gregorian target at save time; the stored target date is
// always Gregorian.
type CreateInput struct {
	ChatID         int64
	Title          string
	TargetDate     time.Time
	CalendarType   domain.CalendarType
	HijriYear      int
	HijriMonth     domain.HijriMonth
	HijriDay       int
	AdjustmentRule domain.AdjustmentRule
	RecurrenceType domain.RecurrenceType
	Reminders      []domain.ReminderOption
}

func (s *CountdownService) Create(ctx context.Context, in CreateInput) (*domain.Countdown, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("countdown title cannot be empty")
	}

	target := in.TargetDate
	if in.CalendarType == domain.CalendarHijri {
		g, err := hijri.ToGregorian(in.HijriYear, int(in.HijriMonth), in.HijriDay)
		if err != nil {
			return nil, fmt.Errorf("resolve hijri target: %w", err)
		}
		target = time.Date(g.Year(), g.Month(), g.Day(), 0, 0, 0, 0, s.timezone)
	}
	if target.IsZero() {
		return nil, fmt.Errorf("countdown target date is required")
	}

	rule := in.AdjustmentRule
	if rule == "" {
		rule = domain.AdjustNone
	}
	recurrence := in.RecurrenceType
	if recurrence == "" {
		recurrence = domain.RecurOneTime
	}

	c := &domain.Countdown{
		ID:             uuid.NewString(),
		ChatID:         in.ChatID,
		Title:          title,
		TargetDate:     target,
		CalendarType:   in.CalendarType,
		AdjustmentRule: rule,
		RecurrenceType: recurrence,
		Reminders:      in.Reminders,
	}
	if err := s.storage.CreateCountdown(c); err != nil {
		return nil, fmt.Errorf("create countdown: %w", err)
	}

	if _, err := s.notifications.ScheduleAll(ctx, c, time.Now().In(s.timezone)); err != nil {
		return nil, fmt.Errorf("schedule countdown %s: %w", c.ID, err)
	}
	return c, nil
}

func (s *CountdownService) Get(id string) (*domain.Countdown, error) {
	return s.storage.GetCountdown(id)
}

func (s *CountdownService) List() ([]*domain.Countdown, error) {
	return s.storage.ListCountdowns()
}

func (s *CountdownService) ListByChat(chatID int64) ([]*domain.Countdown, error) {
	return s.storage.ListCountdownsByChat(chatID)
}

// Update persists the edited countdown and reconciles its notifications.
func (s *CountdownService) Update(ctx context.Context, c *domain.Countdown) error {
	if err := s.storage.UpdateCountdown(c); err != nil {
		return fmt.Errorf("update countdown %s: %w", c.ID, err)
	}
	if _, err := s.notifications.Reschedule(ctx, c, time.Now().In(s.timezone)); err != nil {
		return fmt.Errorf("reschedule countdown %s: %w", c.ID, err)
	}
	return nil
}

// Delete cancels the countdown's notifications before removing the entity.
func (s *CountdownService) Delete(ctx context.Context, id string) error {
	if err := s.notifications.CancelAll(ctx, id); err != nil {
		return fmt.Errorf("cancel notifications for %s: %w", id, err)
	}
	if err := s.storage.DeleteCountdown(id); err != nil {
		return fmt.Errorf("delete countdown %s: %w", id, err)
	}
	return nil
}

func (s *CountdownService) Star(id string, starred bool) error {
	return s.storage.UpdateCountdownStarred(id, starred)
}

// RescheduleAll re-plans every countdown, typically once a day, so that
// override changes, moon-sighting confirmations, and recurrence rollovers
// propagate into the scheduled alerts.
func (s *CountdownService) RescheduleAll(ctx context.Context, now time.Time) error {
	countdowns, err := s.storage.ListCountdowns()
	if err != nil {
		return fmt.Errorf("list countdowns: %w", err)
	}
	for _, c := range countdowns {
		if _, err := s.notifications.Reschedule(ctx, c, now); err != nil {
			return fmt.Errorf("reschedule %s: %w", c.ID, err)
		}
	}
	return nil
}
