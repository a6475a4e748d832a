package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nawafsh/hilalbot/config"
	"github.com/nawafsh/hilalbot/internal/bot"
	"github.com/nawafsh/hilalbot/internal/clients/caldav"
	"github.com/nawafsh/hilalbot/internal/domain"
	"github.com/nawafsh/hilalbot/internal/holidays"
	"github.com/nawafsh/hilalbot/internal/notify"
	"github.com/nawafsh/hilalbot/internal/scheduler"
	"github.com/nawafsh/hilalbot/internal/service"
	"github.com/nawafsh/hilalbot/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	catalog, err := holidays.LoadExtras(cfg.HolidaysFile)
	if err != nil {
		log.Fatalf("Failed to load holiday catalog: %v", err)
	}

	weekend, ok := service.ParseWeekend(cfg.WeekendDays)
	if !ok {
		log.Fatalf("Invalid WEEKEND_DAYS %q", cfg.WeekendDays)
	}

	holidaySvc := service.NewHolidayService(store, catalog, cfg.Timezone, weekend, domain.AdjustmentRule(cfg.HolidayAdjustment))
	queue := notify.NewQueue(store, cfg.NotificationsEnabled)
	notificationSvc := service.NewNotificationService(store, queue, cfg.Timezone, weekend)
	countdownSvc := service.NewCountdownService(store, notificationSvc, cfg.Timezone)

	caldavClient := caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalDAVCalendar)

	tgBot, err := bot.New(cfg, store, holidaySvc, countdownSvc)
	if err != nil {
		log.Fatalf("Failed to init bot: %v", err)
	}

	if err := tgBot.SetupWebhook(); err != nil {
		log.Fatalf("Failed to setup webhook: %v", err)
	}

	sched := scheduler.New(cfg, store, holidaySvc, countdownSvc, caldavClient)
	sched.SetSender(tgBot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Printf("Bot error: %v", err)
		}
	}()

	log.Println("HilalBot started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := tgBot.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping bot: %v", err)
	}

	log.Println("HilalBot stopped")
}
