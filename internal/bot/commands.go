package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nawafsh/hilalbot/internal/domain"
	"github.com/nawafsh/hilalbot/internal/service"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	switch cmd {
	case "start":
		b.cmdStart(chatID)
	case "help":
		b.cmdHelp(chatID)
	case "holidays":
		b.cmdHolidays(chatID)
	case "next":
		b.cmdNext(chatID)
	case "countdowns":
		b.cmdCountdowns(chatID)
	case "add":
		b.cmdAdd(chatID, args)
	default:
		b.SendMessage(chatID, "Unknown command. /help for the command list")
	}
}

func (b *Bot) cmdStart(chatID int64) {
	b.SendMessage(chatID, "🌙 Marhaba! I track Hijri holidays and count down to the dates you care about.\n\n/holidays — upcoming holidays\n/add — create a countdown\n/help — all commands")
}

func (b *Bot) cmdHelp(chatID int64) {
	text := `<b>Commands:</b>

<b>Holidays</b>
/holidays — upcoming holidays with estimated dates
/next — the next holiday

<b>Countdowns</b>
/add 2026-03-20 Trip to Jeddah — Gregorian countdown
/add hijri 1448-9-1 Ramadan begins — Hijri countdown
/countdowns — list your countdowns

Countdowns remind you 7 days before, 1 day before and on the day.
Dates marked ~ are estimates until the moon sighting is announced.`

	b.SendMessage(chatID, text)
}

func (b *Bot) cmdHolidays(chatID int64) {
	now := time.Now().In(b.cfg.Timezone)

	upcoming, err := b.holidays.UpcomingSaudiHolidays(now, b.cfg.HorizonYears)
	if err != nil {
		log.Printf("Error listing holidays: %v", err)
		b.SendMessage(chatID, "❌ Could not resolve holidays, try again later")
		return
	}
	if len(upcoming) == 0 {
		b.SendMessage(chatID, "No holidays inside the lookup horizon")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Upcoming holidays:</b>\n\n")
	for _, r := range upcoming {
		sb.WriteString(formatHolidayLine(&r, now))
		sb.WriteString("\n")
	}
	sb.WriteString("\n~ estimated date, pending moon sighting")

	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdNext(chatID int64) {
	now := time.Now().In(b.cfg.Timezone)

	upcoming, err := b.holidays.UpcomingSaudiHolidays(now, b.cfg.HorizonYears)
	if err != nil || len(upcoming) == 0 {
		b.SendMessage(chatID, "No upcoming holiday found")
		return
	}

	r := upcoming[0]
	days := r.DaysUntil(now)
	text := fmt.Sprintf("%s <b>%s</b>\n%s\n%d %s %d AH\n\n⏳ %s",
		r.Category.Icon(), r.Title,
		formatObserved(&r),
		r.HijriDay, r.HijriMonth, r.HijriYear,
		daysLeftPhrase(days))
	b.SendMessage(chatID, text)
}

func (b *Bot) cmdCountdowns(chatID int64) {
	now := time.Now().In(b.cfg.Timezone)

	list, err := b.countdowns.ListByChat(chatID)
	if err != nil {
		log.Printf("Error listing countdowns: %v", err)
		b.SendMessage(chatID, "❌ Could not load countdowns")
		return
	}
	if len(list) == 0 {
		b.SendMessage(chatID, "No countdowns yet. /add 2026-03-20 Trip to Jeddah")
		return
	}

	for _, c := range list {
		star := ""
		if c.IsStarred {
			star = "⭐ "
		}
		text := fmt.Sprintf("%s<b>%s</b>\n📅 %s — %s",
			star, c.Title,
			c.TargetDate.In(b.cfg.Timezone).Format("Mon, 2 Jan 2006"),
			daysLeftPhrase(c.DaysLeft(now)))
		b.SendMessageWithKeyboard(chatID, text, countdownKeyboard(c.ID))
	}
}

func (b *Bot) cmdAdd(chatID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Usage:\n/add 2026-03-20 Trip to Jeddah\n/add hijri 1448-9-1 Ramadan begins")
		return
	}

	in := service.CreateInput{
		ChatID:         chatID,
		CalendarType:   domain.CalendarGregorian,
		AdjustmentRule: domain.AdjustNone,
		RecurrenceType: domain.RecurOneTime,
		Reminders: []domain.ReminderOption{
			domain.DaysBefore(7),
			domain.DaysBefore(1),
			domain.DaysBefore(0),
		},
	}

	fields := strings.Fields(args)
	if strings.EqualFold(fields[0], "hijri") {
		if len(fields) < 3 {
			b.SendMessage(chatID, "Usage: /add hijri 1448-9-1 Ramadan begins")
			return
		}
		var y, m, d int
		if _, err := fmt.Sscanf(fields[1], "%d-%d-%d", &y, &m, &d); err != nil {
			b.SendMessage(chatID, "Hijri date must be YYYY-MM-DD, e.g. 1448-9-1")
			return
		}
		in.CalendarType = domain.CalendarHijri
		in.HijriYear = y
		in.HijriMonth = domain.HijriMonth(m)
		in.HijriDay = d
		in.Title = strings.Join(fields[2:], " ")
	} else {
		if len(fields) < 2 {
			b.SendMessage(chatID, "Usage: /add 2026-03-20 Trip to Jeddah")
			return
		}
		target, err := time.ParseInLocation("2006-01-02", fields[0], b.cfg.Timezone)
		if err != nil {
			b.SendMessage(chatID, "Date must be YYYY-MM-DD, e.g. 2026-03-20")
			return
		}
		in.TargetDate = target
		in.Title = strings.Join(fields[1:], " ")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := b.countdowns.Create(ctx, in)
	if err != nil {
		log.Printf("Error creating countdown: %v", err)
		b.SendMessage(chatID, "❌ "+err.Error())
		return
	}

	now := time.Now().In(b.cfg.Timezone)
	b.SendMessage(chatID, fmt.Sprintf("✅ <b>%s</b>\n📅 %s — %s",
		c.Title,
		c.TargetDate.In(b.cfg.Timezone).Format("Mon, 2 Jan 2006"),
		daysLeftPhrase(c.DaysLeft(now))))
}

func formatHolidayLine(r *domain.ResolvedHoliday, now time.Time) string {
	return fmt.Sprintf("%s <b>%s</b> — %s (%s)",
		r.Category.Icon(), r.Title, formatObserved(r), daysLeftPhrase(r.DaysUntil(now)))
}

// formatObserved renders the observed date, marking estimates so users know
// the day may still shift with the moon sighting announcement.
func formatObserved(r *domain.ResolvedHoliday) string {
	date := r.ObservedDate.Format("Mon, 2 Jan 2006")
	if r.Confidence != domain.ConfidenceConfirmed {
		return "~" + date
	}
	return date
}

func daysLeftPhrase(days int) string {
	switch {
	case days <= 0:
		return "today!"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
