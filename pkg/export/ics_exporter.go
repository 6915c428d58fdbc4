package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is a single entry of an exported calendar. AllDay events use only the date of Start.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// ICSExporter renders events into an iCalendar feed.
type ICSExporter struct {
	prodID string
}

// NewICSExporter constructs an ICS exporter announcing the given product id.
func NewICSExporter(prodID string) *ICSExporter {
	if prodID == "" {
		prodID = "-//course-site//schedule//EN"
	}
	return &ICSExporter{prodID: prodID}
}

// Render serialises the events. The stamp is written as DTSTAMP on every event.
func (e *ICSExporter) Render(name string, events []CalendarEvent, stamp time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.prodID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("calendar event %q has no uid", ev.Summary)
		}
		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp.UTC())
		event.SetSummary(ev.Summary)
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			event.SetLocation(ev.Location)
		}
		if ev.AllDay {
			event.SetAllDayStartAt(ev.Start)
			end := ev.End
			if !end.After(ev.Start) {
				end = ev.Start.AddDate(0, 0, 1)
			}
			event.SetAllDayEndAt(end)
			continue
		}
		event.SetStartAt(ev.Start.UTC())
		event.SetEndAt(ev.End.UTC())
	}
	return []byte(cal.Serialize()), nil
}
