// Package ics renders resolved holidays as an iCalendar feed, for export to
// apps that subscribe to a file rather than a CalDAV account.
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/nawafsh/hilalbot/internal/domain"
)

// Export writes an iCalendar document with one all-day VEVENT per resolved
// holiday occurrence.
func Export(w io.Writer, holidays []domain.ResolvedHoliday) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//hilalbot//ICS Export//EN")

	stamp := time.Now().UTC()
	for _, r := range holidays {
		vevent := ical.NewEvent()
		vevent.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%d@hilalbot", r.EventID, r.HijriYear))
		vevent.Props.SetText(ical.PropSummary, r.Title)
		vevent.Props.SetText(ical.PropDescription,
			fmt.Sprintf("%d %s %d AH (%s)", r.HijriDay, r.HijriMonth, r.HijriYear, r.Confidence))
		vevent.Props.SetText(ical.PropStatus, exportStatus(r.Confidence))
		vevent.Props.SetDate(ical.PropDateTimeStart, r.ObservedDate)
		vevent.Props.SetDate(ical.PropDateTimeEnd, r.ObservedDate.AddDate(0, 0, 1))
		vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		cal.Children = append(cal.Children, vevent.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

// exportStatus maps confidence onto the closest iCalendar event status, so
// subscribing apps render estimated dates as tentative.
func exportStatus(c domain.Confidence) string {
	if c == domain.ConfidenceConfirmed {
		return "CONFIRMED"
	}
	return "TENTATIVE"
}
