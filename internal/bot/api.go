package bot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nawafsh/hilalbot/internal/domain"
	"github.com/nawafsh/hilalbot/internal/ics"
	"github.com/nawafsh/hilalbot/internal/service"
)

// API Response types
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type HolidayResponse struct {
	EventID      string `json:"event_id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	HijriDate    string `json:"hijri_date"`
	RawDate      string `json:"raw_date"`
	ObservedDate string `json:"observed_date"`
	Confidence   string `json:"confidence"`
	IsOverridden bool   `json:"is_overridden"`
	DaysUntil    int    `json:"days_until"`
}

type OverrideResponse struct {
	EventID   string `json:"event_id"`
	HijriYear int    `json:"hijri_year"`
	Date      string `json:"date"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

type CountdownResponse struct {
	ID         string   `json:"id"`
	ChatID     int64    `json:"chat_id"`
	Title      string   `json:"title"`
	TargetDate string   `json:"target_date"`
	Calendar   string   `json:"calendar"`
	Adjustment string   `json:"adjustment"`
	Recurrence string   `json:"recurrence"`
	Reminders  []string `json:"reminders"`
	IsStarred  bool     `json:"is_starred"`
	DaysLeft   int      `json:"days_left"`
}

// SetupAPI registers API routes with Basic Auth
func (b *Bot) SetupAPI() {
	if b.cfg.APIUsername == "" || b.cfg.APIPassword == "" {
		return // API disabled if no credentials
	}

	// Holidays
	http.HandleFunc("/api/holidays", b.basicAuth(b.apiHolidays))
	http.HandleFunc("/api/holidays.ics", b.basicAuth(b.apiHolidaysICS))

	// Overrides (official announcements)
	http.HandleFunc("/api/overrides", b.basicAuth(b.apiOverrides))
	http.HandleFunc("/api/override/", b.basicAuth(b.apiOverrideDelete))

	// Countdowns
	http.HandleFunc("/api/countdowns", b.basicAuth(b.apiCountdowns))
	http.HandleFunc("/api/countdown/", b.basicAuth(b.apiCountdown))
}

// basicAuth middleware
func (b *Bot) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != b.cfg.APIUsername || password != b.cfg.APIPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="HilalBot API"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (b *Bot) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

func (b *Bot) jsonError(w http.ResponseWriter, err string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: err})
}

// GET /api/holidays - upcoming resolved holidays
func (b *Bot) apiHolidays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now().In(b.cfg.Timezone)
	upcoming, err := b.holidays.UpcomingSaudiHolidays(now, b.cfg.HorizonYears)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result := make([]HolidayResponse, 0, len(upcoming))
	for _, h := range upcoming {
		result = append(result, holidayToResponse(&h, now))
	}
	b.jsonResponse(w, result)
}

// GET /api/holidays.ics - holidays as a subscribable iCalendar feed
func (b *Bot) apiHolidaysICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now().In(b.cfg.Timezone)
	upcoming, err := b.holidays.UpcomingSaudiHolidays(now, b.cfg.HorizonYears)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := ics.Export(w, upcoming); err != nil {
		b.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

// GET /api/overrides?event_id=eid-al-fitr - list announced overrides
// POST /api/overrides - record an announced date
func (b *Bot) apiOverrides(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		eventID := r.URL.Query().Get("event_id")

		var ids []string
		if eventID != "" {
			ids = []string{eventID}
		} else {
			for _, def := range b.holidays.Catalog() {
				ids = append(ids, def.EventID)
			}
		}

		var result []OverrideResponse
		for _, id := range ids {
			overrides, err := b.storage.ListOverrides(id)
			if err != nil {
				b.jsonError(w, err.Error(), http.StatusInternalServerError)
				return
			}
			for _, o := range overrides {
				result = append(result, overrideToResponse(o))
			}
		}
		b.jsonResponse(w, result)

	case http.MethodPost:
		var req struct {
			EventID   string `json:"event_id"`
			HijriYear int    `json:"hijri_year"`
			Date      string `json:"date"`
			Reason    string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			b.jsonError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		date, err := time.ParseInLocation("2006-01-02", req.Date, b.cfg.Timezone)
		if err != nil {
			b.jsonError(w, "Invalid date format (use YYYY-MM-DD)", http.StatusBadRequest)
			return
		}

		if err := b.holidays.SetOverride(req.EventID, req.HijriYear, date, req.Reason); err != nil {
			b.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.jsonResponse(w, map[string]bool{"saved": true})

	default:
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// DELETE /api/override/{event_id}/{hijri_year} - revert to the computed date
func (b *Bot) apiOverrideDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/override/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		b.jsonError(w, "Use /api/override/{event_id}/{hijri_year}", http.StatusBadRequest)
		return
	}

	hijriYear, err := strconv.Atoi(parts[1])
	if err != nil {
		b.jsonError(w, "Invalid hijri year", http.StatusBadRequest)
		return
	}

	if err := b.holidays.ClearOverride(parts[0], hijriYear); err != nil {
		b.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	b.jsonResponse(w, map[string]bool{"cleared": true})
}

// GET /api/countdowns - list countdowns
// POST /api/countdowns - create countdown
func (b *Bot) apiCountdowns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := b.countdowns.List()
		if err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		now := time.Now().In(b.cfg.Timezone)
		result := make([]CountdownResponse, 0, len(list))
		for _, c := range list {
			result = append(result, countdownToResponse(c, now))
		}
		b.jsonResponse(w, result)

	case http.MethodPost:
		var req struct {
			ChatID     int64    `json:"chat_id"`
			Title      string   `json:"title"`
			Date       string   `json:"date"`       // Gregorian YYYY-MM-DD
			HijriDate  string   `json:"hijri_date"` // Hijri YYYY-MM-DD, overrides date
			Adjustment string   `json:"adjustment"`
			Recurrence string   `json:"recurrence"`
			Reminders  []string `json:"reminders"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			b.jsonError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		in := service.CreateInput{
			ChatID:         req.ChatID,
			Title:          req.Title,
			CalendarType:   domain.CalendarGregorian,
			AdjustmentRule: domain.AdjustmentRule(req.Adjustment),
			RecurrenceType: domain.RecurrenceType(req.Recurrence),
		}

		for _, key := range req.Reminders {
			opt, err := domain.ParseOffsetKey(key)
			if err != nil {
				b.jsonError(w, err.Error(), http.StatusBadRequest)
				return
			}
			in.Reminders = append(in.Reminders, opt)
		}

		if req.HijriDate != "" {
			var y, m, d int
			if _, err := fmt.Sscanf(req.HijriDate, "%d-%d-%d", &y, &m, &d); err != nil {
				b.jsonError(w, "Invalid hijri_date (use YYYY-MM-DD)", http.StatusBadRequest)
				return
			}
			in.CalendarType = domain.CalendarHijri
			in.HijriYear = y
			in.HijriMonth = domain.HijriMonth(m)
			in.HijriDay = d
		} else {
			date, err := time.ParseInLocation("2006-01-02", req.Date, b.cfg.Timezone)
			if err != nil {
				b.jsonError(w, "Invalid date format (use YYYY-MM-DD)", http.StatusBadRequest)
				return
			}
			in.TargetDate = date
		}

		c, err := b.countdowns.Create(r.Context(), in)
		if err != nil {
			b.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.jsonResponse(w, countdownToResponse(c, time.Now().In(b.cfg.Timezone)))

	default:
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /api/countdown/{id} - get countdown
// DELETE /api/countdown/{id} - delete countdown and cancel its alerts
func (b *Bot) apiCountdown(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/countdown/")
	if id == "" {
		b.jsonError(w, "Countdown ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		c, err := b.countdowns.Get(id)
		if err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if c == nil {
			b.jsonError(w, "Countdown not found", http.StatusNotFound)
			return
		}
		b.jsonResponse(w, countdownToResponse(c, time.Now().In(b.cfg.Timezone)))

	case http.MethodDelete:
		if err := b.countdowns.Delete(r.Context(), id); err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		b.jsonResponse(w, map[string]bool{"deleted": true})

	default:
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func holidayToResponse(h *domain.ResolvedHoliday, now time.Time) HolidayResponse {
	return HolidayResponse{
		EventID:      h.EventID,
		Title:        h.Title,
		Category:     string(h.Category),
		HijriDate:    fmt.Sprintf("%d %s %d AH", h.HijriDay, h.HijriMonth, h.HijriYear),
		RawDate:      h.RawDate.Format("2006-01-02"),
		ObservedDate: h.ObservedDate.Format("2006-01-02"),
		Confidence:   string(h.Confidence),
		IsOverridden: h.IsOverridden,
		DaysUntil:    h.DaysUntil(now),
	}
}

func overrideToResponse(o *domain.HolidayOverride) OverrideResponse {
	return OverrideResponse{
		EventID:   o.EventID,
		HijriYear: o.HijriYear,
		Date:      o.Date.Format("2006-01-02"),
		Reason:    o.Reason,
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
}

func countdownToResponse(c *domain.Countdown, now time.Time) CountdownResponse {
	reminders := make([]string, 0, len(c.Reminders))
	for _, opt := range c.Reminders {
		reminders = append(reminders, opt.Key())
	}
	return CountdownResponse{
		ID:         c.ID,
		ChatID:     c.ChatID,
		Title:      c.Title,
		TargetDate: c.TargetDate.Format("2006-01-02"),
		Calendar:   string(c.CalendarType),
		Adjustment: string(c.AdjustmentRule),
		Recurrence: string(c.RecurrenceType),
		Reminders:  reminders,
		IsStarred:  c.IsStarred,
		DaysLeft:   c.DaysLeft(now),
	}
}
