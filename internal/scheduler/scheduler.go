package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nawafsh/hilalbot/config"
	"github.com/nawafsh/hilalbot/internal/clients/caldav"
	"github.com/nawafsh/hilalbot/internal/service"
	"github.com/nawafsh/hilalbot/internal/storage"
)

type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

type Scheduler struct {
	cron       *cron.Cron
	cfg        *config.Config
	storage    *storage.Storage
	holidays   *service.HolidayService
	countdowns *service.CountdownService
	caldav     *caldav.Client
	sender     MessageSender
}

func New(cfg *config.Config, storage *storage.Storage, holidaySvc *service.HolidayService, countdownSvc *service.CountdownService, caldavClient *caldav.Client) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:       c,
		cfg:        cfg,
		storage:    storage,
		holidays:   holidaySvc,
		countdowns: countdownSvc,
		caldav:     caldavClient,
	}
}

func (s *Scheduler) SetSender(sender MessageSender) {
	s.sender = sender
}

func (s *Scheduler) Start(ctx context.Context) error {
	// Morning holiday digest
	if s.cfg.DigestChatID != 0 {
		if _, err := s.cron.AddFunc(cronSpec(s.cfg.DigestTime), s.morningDigest); err != nil {
			return fmt.Errorf("add morning digest: %w", err)
		}
	}

	// Nightly refresh: re-resolve holidays (overrides may have landed) and
	// rebuild every countdown's alert plan.
	if _, err := s.cron.AddFunc(cronSpec(s.cfg.RefreshTime), s.nightlyRefresh); err != nil {
		return fmt.Errorf("add nightly refresh: %w", err)
	}

	// Dispatch due alerts every minute
	if _, err := s.cron.AddFunc("* * * * *", s.dispatchAlerts); err != nil {
		return fmt.Errorf("add alert dispatch: %w", err)
	}

	s.cron.Start()
	log.Printf("Scheduler started (TZ: %s, digest: %s, refresh: %s)",
		s.cfg.Timezone, s.cfg.DigestTime, s.cfg.RefreshTime)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// cronSpec turns an "HH:MM" wall-clock time into a daily cron expression.
func cronSpec(hhmm string) string {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return "0 7 * * *"
	}
	return fmt.Sprintf("%s %s * * *", parts[1], parts[0])
}

func (s *Scheduler) morningDigest() {
	if s.sender == nil {
		return
	}

	now := time.Now().In(s.cfg.Timezone)
	upcoming, err := s.holidays.UpcomingSaudiHolidays(now, s.cfg.HorizonYears)
	if err != nil {
		log.Printf("Error resolving holidays for digest: %v", err)
		return
	}
	if len(upcoming) == 0 {
		return
	}

	shown := upcoming
	if len(shown) > 3 {
		shown = shown[:3]
	}

	text := "☀️ <b>Good morning!</b>\n\n"
	for _, r := range shown {
		days := r.DaysUntil(now)
		var when string
		switch {
		case days <= 0:
			when = "today! 🎉"
		case days == 1:
			when = "tomorrow"
		default:
			when = fmt.Sprintf("in %d days", days)
		}
		text += fmt.Sprintf("%s <b>%s</b> — %s\n", r.Category.Icon(), r.Title, when)
	}

	if err := s.sender.SendMessage(s.cfg.DigestChatID, text); err != nil {
		log.Printf("Error sending morning digest to %d: %v", s.cfg.DigestChatID, err)
	}
}

// nightlyRefresh re-resolves everything after the tabular dates may have
// been overridden by an announcement, then mirrors holidays to CalDAV.
func (s *Scheduler) nightlyRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now().In(s.cfg.Timezone)
	if err := s.countdowns.RescheduleAll(ctx, now); err != nil {
		log.Printf("Error rescheduling countdowns: %v", err)
	}

	if s.caldav == nil || !s.caldav.IsConfigured() {
		return
	}

	upcoming, err := s.holidays.UpcomingSaudiHolidays(now, s.cfg.HorizonYears)
	if err != nil {
		log.Printf("Error resolving holidays for caldav: %v", err)
		return
	}
	for _, r := range upcoming {
		if err := s.caldav.PublishHoliday(ctx, r); err != nil {
			log.Printf("Error publishing %s/%d to caldav: %v", r.EventID, r.HijriYear, err)
		}
	}
}

func (s *Scheduler) dispatchAlerts() {
	if s.sender == nil {
		return
	}

	now := time.Now().In(s.cfg.Timezone)
	alerts, err := s.storage.DueAlerts(now)
	if err != nil {
		log.Printf("Error getting due alerts: %v", err)
		return
	}

	for _, a := range alerts {
		c, err := s.storage.GetCountdown(a.CountdownID)
		if err != nil {
			log.Printf("Error loading countdown %s: %v", a.CountdownID, err)
			continue
		}
		if c == nil {
			// Countdown deleted after the alert was queued.
			if err := s.storage.DeleteAlert(a.ID); err != nil {
				log.Printf("Error dropping orphan alert %s: %v", a.ID, err)
			}
			continue
		}

		text := fmt.Sprintf("🔔 <b>%s</b>\n\n%s", a.Title, a.Body)
		if err := s.sender.SendMessage(c.ChatID, text); err != nil {
			log.Printf("Error sending alert %s to chat %d: %v", a.ID, c.ChatID, err)
			continue
		}

		if err := s.storage.MarkAlertSent(a.ID, now); err != nil {
			log.Printf("Error marking alert %s as sent: %v", a.ID, err)
		}
	}
}
