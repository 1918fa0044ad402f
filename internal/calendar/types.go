package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// DefaultTitle is used for events without a summary.
const DefaultTitle = "(No title)"

// Event is a calendar event as the assistant sees it.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"summary"`
	Start       time.Time `json:"start"`
	AllDay      bool      `json:"allDay,omitempty"`
	Description string    `json:"description"`
}

// DateRange is a half-open interval [Min, Max) of calendar time. The default
// "today" range is closed at 23:59:59.999 instead.
type DateRange struct {
	Min time.Time `json:"timeMin"`
	Max time.Time `json:"timeMax"`
}

// Contains reports whether t lies inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Min) && t.Before(r.Max)
}

// toEvent converts an API event. All-day events carry only a date, which is
// interpreted as local midnight in loc.
func toEvent(e *calendar.Event, loc *time.Location) Event {
	if e == nil {
		return Event{}
	}

	ev := Event{
		ID:          e.Id,
		Title:       e.Summary,
		Description: e.Description,
	}
	if ev.Title == "" {
		ev.Title = DefaultTitle
	}

	if e.Start != nil {
		switch {
		case e.Start.DateTime != "":
			if t, err := time.Parse(time.RFC3339, e.Start.DateTime); err == nil {
				ev.Start = t
			}
		case e.Start.Date != "":
			if t, err := time.ParseInLocation("2006-01-02", e.Start.Date, loc); err == nil {
				ev.Start = t
				ev.AllDay = true
			}
		}
	}

	return ev
}
