package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	DatabasePath  string
	Timezone      *time.Location

	// WeekendDays is the comma-separated weekend set for the smart
	// adjustment rule, e.g. "friday,saturday".
	WeekendDays string

	// HolidayAdjustment is the rule applied when resolving catalog
	// holidays: "smart" or "none".
	HolidayAdjustment string

	// HolidaysFile optionally points at a YAML file with extra holiday
	// definitions layered over the built-in catalog.
	HolidaysFile string

	HorizonYears int

	// NotificationsEnabled gates the local notification scheduler; when
	// false scheduling is denied and countdowns carry no alerts.
	NotificationsEnabled bool

	// DigestChatID receives the morning holiday digest; 0 disables it.
	DigestChatID int64
	DigestTime   string
	RefreshTime  string

	// CalDAV mirroring of resolved holidays; disabled when URL is empty.
	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
	CalDAVCalendar string

	WebhookURL string
	ServerPort string

	// APIUsername/APIPassword protect the REST API; the API stays
	// disabled until both are set.
	APIUsername string
	APIPassword string
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/hilalbot.db"
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "Asia/Riyadh"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	weekend := os.Getenv("WEEKEND_DAYS")
	if weekend == "" {
		weekend = "friday,saturday"
	}

	adjustment := os.Getenv("HOLIDAY_ADJUSTMENT")
	if adjustment == "" {
		adjustment = "smart"
	}
	if adjustment != "smart" && adjustment != "none" {
		return nil, fmt.Errorf("invalid HOLIDAY_ADJUSTMENT %q (want smart or none)", adjustment)
	}

	horizonYears := 2
	if h := os.Getenv("HORIZON_YEARS"); h != "" {
		horizonYears, err = strconv.Atoi(h)
		if err != nil || horizonYears < 1 {
			return nil, fmt.Errorf("invalid HORIZON_YEARS %q", h)
		}
	}

	notificationsEnabled := true
	if v := os.Getenv("NOTIFICATIONS_ENABLED"); v != "" {
		notificationsEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid NOTIFICATIONS_ENABLED %q", v)
		}
	}

	var digestChatID int64
	if v := os.Getenv("DIGEST_CHAT_ID"); v != "" {
		digestChatID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid DIGEST_CHAT_ID %q", v)
		}
	}

	digestTime := os.Getenv("DIGEST_TIME")
	if digestTime == "" {
		digestTime = "07:00"
	}
	refreshTime := os.Getenv("REFRESH_TIME")
	if refreshTime == "" {
		refreshTime = "03:30"
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	return &Config{
		TelegramToken:        token,
		DatabasePath:         dbPath,
		Timezone:             tz,
		WeekendDays:          weekend,
		HolidayAdjustment:    adjustment,
		HolidaysFile:         os.Getenv("HOLIDAYS_FILE"),
		HorizonYears:         horizonYears,
		NotificationsEnabled: notificationsEnabled,
		DigestChatID:         digestChatID,
		DigestTime:           digestTime,
		RefreshTime:          refreshTime,
		CalDAVURL:            os.Getenv("CALDAV_URL"),
		CalDAVUsername:       os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword:       os.Getenv("CALDAV_PASSWORD"),
		CalDAVCalendar:       os.Getenv("CALDAV_CALENDAR"),
		WebhookURL:           os.Getenv("WEBHOOK_URL"),
		ServerPort:           serverPort,
		APIUsername:          os.Getenv("API_USERNAME"),
		APIPassword:          os.Getenv("API_PASSWORD"),
	}, nil
}
