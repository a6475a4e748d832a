package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nawafsh/hilalbot/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS holiday_overrides (
			event_id TEXT NOT NULL,
			hijri_year INTEGER NOT NULL,
			date DATETIME NOT NULL,
			reason TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (event_id, hijri_year)
		)`,
		`CREATE TABLE IF NOT EXISTS countdowns (
			id TEXT PRIMARY KEY,
			chat_id INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL,
			target_date DATETIME NOT NULL,
			calendar_type TEXT NOT NULL DEFAULT 'gregorian',
			adjustment_rule TEXT NOT NULL DEFAULT 'none',
			recurrence_type TEXT NOT NULL DEFAULT 'one-time',
			reminders TEXT DEFAULT '',
			is_starred INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_countdowns_chat_id ON countdowns(chat_id)`,
		`CREATE INDEX IF NOT EXISTS idx_countdowns_target ON countdowns(target_date)`,
		`CREATE TABLE IF NOT EXISTS notification_handles (
			countdown_id TEXT NOT NULL,
			offset_key TEXT NOT NULL,
			external_handle TEXT NOT NULL,
			fire_at DATETIME NOT NULL,
			PRIMARY KEY (countdown_id, offset_key),
			FOREIGN KEY (countdown_id) REFERENCES countdowns(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_handles_fire_at ON notification_handles(fire_at)`,
		// Delivery queue behind the local notification scheduler.
		`CREATE TABLE IF NOT EXISTS pending_alerts (
			id TEXT PRIMARY KEY,
			countdown_id TEXT NOT NULL,
			offset_key TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT DEFAULT '',
			fire_at DATETIME NOT NULL,
			sent_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_fire_at ON pending_alerts(fire_at)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_sent ON pending_alerts(sent_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// === Holiday overrides ===

func (s *Storage) GetOverride(eventID string, hijriYear int) (*domain.HolidayOverride, error) {
	o := &domain.HolidayOverride{}
	err := s.db.QueryRow(
		`SELECT event_id, hijri_year, date, reason, created_at
		 FROM holiday_overrides WHERE event_id = ? AND hijri_year = ?`,
		eventID, hijriYear,
	).Scan(&o.EventID, &o.HijriYear, &o.Date, &o.Reason, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

// SetOverride inserts or replaces the override for (eventID, hijriYear) in a
// single statement, so a failure never leaves a half-updated row.
func (s *Storage) SetOverride(eventID string, hijriYear int, date time.Time, reason string) error {
	_, err := s.db.Exec(
		`INSERT INTO holiday_overrides (event_id, hijri_year, date, reason, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(event_id, hijri_year) DO UPDATE SET
		   date = excluded.date, reason = excluded.reason, created_at = excluded.created_at`,
		eventID, hijriYear, date, reason, time.Now(),
	)
	return err
}

// ClearOverride removes the override if present. Deleting a missing key is
// a no-op, not an error.
func (s *Storage) ClearOverride(eventID string, hijriYear int) error {
	_, err := s.db.Exec(
		`DELETE FROM holiday_overrides WHERE event_id = ? AND hijri_year = ?`,
		eventID, hijriYear,
	)
	return err
}

func (s *Storage) ListOverrides(eventID string) ([]*domain.HolidayOverride, error) {
	rows, err := s.db.Query(
		`SELECT event_id, hijri_year, date, reason, created_at
		 FROM holiday_overrides WHERE event_id = ? ORDER BY hijri_year`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []*domain.HolidayOverride
	for rows.Next() {
		o := &domain.HolidayOverride{}
		if err := rows.Scan(&o.EventID, &o.HijriYear, &o.Date, &o.Reason, &o.CreatedAt); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// === Countdowns ===

func (s *Storage) CreateCountdown(c *domain.Countdown) error {
	_, err := s.db.Exec(
		`INSERT INTO countdowns (id, chat_id, title, target_date, calendar_type, adjustment_rule, recurrence_type, reminders, is_starred)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ChatID, c.Title, c.TargetDate, c.CalendarType, c.AdjustmentRule, c.RecurrenceType,
		domain.EncodeReminders(c.Reminders), c.IsStarred,
	)
	if err != nil {
		return err
	}
	c.CreatedAt = time.Now()
	return nil
}

func (s *Storage) GetCountdown(id string) (*domain.Countdown, error) {
	c := &domain.Countdown{}
	var reminders string
	err := s.db.QueryRow(
		`SELECT id, chat_id, title, target_date, calendar_type, adjustment_rule, recurrence_type, reminders, is_starred, created_at
		 FROM countdowns WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.ChatID, &c.Title, &c.TargetDate, &c.CalendarType, &c.AdjustmentRule, &c.RecurrenceType, &reminders, &c.IsStarred, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Reminders, err = domain.DecodeReminders(reminders); err != nil {
		return nil, fmt.Errorf("decode reminders for %s: %w", id, err)
	}
	return c, nil
}

func (s *Storage) ListCountdowns() ([]*domain.Countdown, error) {
	return s.listCountdowns(`SELECT id, chat_id, title, target_date, calendar_type, adjustment_rule, recurrence_type, reminders, is_starred, created_at
		 FROM countdowns ORDER BY target_date ASC`)
}

func (s *Storage) ListCountdownsByChat(chatID int64) ([]*domain.Countdown, error) {
	return s.listCountdowns(`SELECT id, chat_id, title, target_date, calendar_type, adjustment_rule, recurrence_type, reminders, is_starred, created_at
		 FROM countdowns WHERE chat_id = ? ORDER BY is_starred DESC, target_date ASC`, chatID)
}

func (s *Storage) listCountdowns(query string, args ...any) ([]*domain.Countdown, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countdowns []*domain.Countdown
	for rows.Next() {
		c := &domain.Countdown{}
		var reminders string
		if err := rows.Scan(&c.ID, &c.ChatID, &c.Title, &c.TargetDate, &c.CalendarType, &c.AdjustmentRule, &c.RecurrenceType, &reminders, &c.IsStarred, &c.CreatedAt); err != nil {
			return nil, err
		}
		if c.Reminders, err = domain.DecodeReminders(reminders); err != nil {
			return nil, fmt.Errorf("decode reminders for %s: %w", c.ID, err)
		}
		countdowns = append(countdowns, c)
	}
	return countdowns, rows.Err()
}

func (s *Storage) UpdateCountdown(c *domain.Countdown) error {
	_, err := s.db.Exec(
		`UPDATE countdowns SET title = ?, target_date = ?, calendar_type = ?, adjustment_rule = ?, recurrence_type = ?, reminders = ?, is_starred = ?
		 WHERE id = ?`,
		c.Title, c.TargetDate, c.CalendarType, c.AdjustmentRule, c.RecurrenceType,
		domain.EncodeReminders(c.Reminders), c.IsStarred, c.ID,
	)
	return err
}

func (s *Storage) DeleteCountdown(id string) error {
	_, err := s.db.Exec(`DELETE FROM countdowns WHERE id = ?`, id)
	return err
}

func (s *Storage) UpdateCountdownStarred(id string, starred bool) error {
	_, err := s.db.Exec(`UPDATE countdowns SET is_starred = ? WHERE id = ?`, starred, id)
	return err
}

// === Notification handles ===

// PutHandle records the live external handle for (countdownID, offsetKey),
// replacing any previous one so the pair never has two rows.
func (s *Storage) PutHandle(h *domain.ScheduledNotificationHandle) error {
	_, err := s.db.Exec(
		`INSERT INTO notification_handles (countdown_id, offset_key, external_handle, fire_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(countdown_id, offset_key) DO UPDATE SET
		   external_handle = excluded.external_handle, fire_at = excluded.fire_at`,
		h.CountdownID, h.OffsetKey, h.ExternalHandle, h.FireAt,
	)
	return err
}

func (s *Storage) ListHandles(countdownID string) ([]*domain.ScheduledNotificationHandle, error) {
	rows, err := s.db.Query(
		`SELECT countdown_id, offset_key, external_handle, fire_at
		 FROM notification_handles WHERE countdown_id = ? ORDER BY fire_at`,
		countdownID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var handles []*domain.ScheduledNotificationHandle
	for rows.Next() {
		h := &domain.ScheduledNotificationHandle{}
		if err := rows.Scan(&h.CountdownID, &h.OffsetKey, &h.ExternalHandle, &h.FireAt); err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}

func (s *Storage) DeleteHandle(countdownID, offsetKey string) error {
	_, err := s.db.Exec(
		`DELETE FROM notification_handles WHERE countdown_id = ? AND offset_key = ?`,
		countdownID, offsetKey,
	)
	return err
}

func (s *Storage) DeleteHandles(countdownID string) error {
	_, err := s.db.Exec(`DELETE FROM notification_handles WHERE countdown_id = ?`, countdownID)
	return err
}

// === Pending alerts (local notification queue) ===

func (s *Storage) CreateAlert(id, countdownID, offsetKey, title, body string, fireAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO pending_alerts (id, countdown_id, offset_key, title, body, fire_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, countdownID, offsetKey, title, body, fireAt,
	)
	return err
}

func (s *Storage) DeleteAlert(id string) error {
	_, err := s.db.Exec(`DELETE FROM pending_alerts WHERE id = ?`, id)
	return err
}

// ListAlertIDs returns the ids of all alerts that have not fired yet.
func (s *Storage) ListAlertIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM pending_alerts WHERE sent_at IS NULL ORDER BY fire_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type DueAlert struct {
	ID          string
	CountdownID string
	OffsetKey   string
	Title       string
	Body        string
	FireAt      time.Time
}

func (s *Storage) DueAlerts(now time.Time) ([]*DueAlert, error) {
	rows, err := s.db.Query(
		`SELECT id, countdown_id, offset_key, title, body, fire_at
		 FROM pending_alerts WHERE sent_at IS NULL AND fire_at <= ? ORDER BY fire_at`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*DueAlert
	for rows.Next() {
		a := &DueAlert{}
		if err := rows.Scan(&a.ID, &a.CountdownID, &a.OffsetKey, &a.Title, &a.Body, &a.FireAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *Storage) MarkAlertSent(id string, sentAt time.Time) error {
	_, err := s.db.Exec(`UPDATE pending_alerts SET sent_at = ? WHERE id = ?`, sentAt, id)
	return err
}
