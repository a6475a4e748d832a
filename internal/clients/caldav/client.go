// Package caldav mirrors resolved holidays into a CalDAV calendar so they
// show up in the user's regular calendar apps.
package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/nawafsh/hilalbot/internal/domain"
)

// Client is a CalDAV client used as a one-way publisher of resolved
// holidays.
type Client struct {
	baseURL      string
	username     string
	password     string
	calendarPath string
	client       *caldav.Client
}

func NewClient(baseURL, username, password, calendarPath string) *Client {
	return &Client{
		baseURL:      baseURL,
		username:     username,
		password:     password,
		calendarPath: calendarPath,
	}
}

// IsConfigured returns true if the client has a server and credentials.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.username != "" && c.password != ""
}

func (c *Client) connect() (*caldav.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// DiscoverCalendars returns all calendars for the user.
func (c *Client) DiscoverCalendars(ctx context.Context) ([]Calendar, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var result []Calendar
	for _, cal := range cals {
		result = append(result, Calendar{
			ID:          cal.Path,
			DisplayName: cal.Name,
			URL:         cal.Path,
		})
	}
	return result, nil
}

// PublishHoliday upserts one resolved holiday occurrence as an all-day
// event. The UID is derived from (eventId, hijriYear), so republishing the
// same occurrence after an override change replaces the event in place.
func (c *Client) PublishHoliday(ctx context.Context, r domain.ResolvedHoliday) error {
	client, err := c.connect()
	if err != nil {
		return err
	}
	if c.calendarPath == "" {
		return fmt.Errorf("calendar path not specified")
	}

	uid := holidayUID(r.EventID, r.HijriYear)
	cal := holidayToICS(r, uid)
	if _, err := client.PutCalendarObject(ctx, c.objectPath(uid), cal); err != nil {
		return fmt.Errorf("publish holiday %s: %w", uid, err)
	}
	return nil
}

// RemoveHoliday deletes a previously published occurrence.
func (c *Client) RemoveHoliday(ctx context.Context, eventID string, hijriYear int) error {
	client, err := c.connect()
	if err != nil {
		return err
	}
	uid := holidayUID(eventID, hijriYear)
	if err := client.RemoveAll(ctx, c.objectPath(uid)); err != nil {
		return fmt.Errorf("remove holiday %s: %w", uid, err)
	}
	return nil
}

func (c *Client) objectPath(uid string) string {
	path := c.calendarPath
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + uid + ".ics"
}

func holidayUID(eventID string, hijriYear int) string {
	return fmt.Sprintf("%s-%d@hilalbot", eventID, hijriYear)
}

// holidayToICS builds the calendar object for one occurrence. The observed
// date becomes the event day; the raw date and confidence go into the
// description so a shifted or still-estimated date stays visible.
func holidayToICS(r domain.ResolvedHoliday, uid string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//hilalbot//CalDAV//EN")

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetText(ical.PropSummary, fmt.Sprintf("%s %s", r.Category.Icon(), r.Title))
	vevent.Props.SetText(ical.PropDescription, holidayDescription(r))

	vevent.Props.SetDate(ical.PropDateTimeStart, r.ObservedDate)
	vevent.Props.SetDate(ical.PropDateTimeEnd, r.ObservedDate.AddDate(0, 0, 1))
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}

func holidayDescription(r domain.ResolvedHoliday) string {
	desc := fmt.Sprintf("%d %s %d AH - %s", r.HijriDay, r.HijriMonth, r.HijriYear, r.Confidence)
	if r.IsOverridden {
		desc += " (confirmed by announcement)"
	} else if !r.ObservedDate.Equal(r.RawDate) {
		desc += fmt.Sprintf(", observed in lieu of %s", r.RawDate.Format("2006-01-02"))
	}
	return desc
}
