package calendar

import (
	"strings"
	"time"

	"github.com/dukerupert/callagent/internal/model"
)

// providerEvent is the Google Calendar event shape relayed by the backend.
type providerEvent struct {
	ID          string       `json:"id"`
	Summary     string       `json:"summary"`
	Description string       `json:"description"`
	Start       providerTime `json:"start"`
	End         providerTime `json:"end"`
	Attendees   []attendee   `json:"attendees"`
	HTMLLink    string       `json:"htmlLink"`
	Color       string       `json:"color"`
}

// providerTime carries either a timestamp or, for all-day events, a bare date.
type providerTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	TimeZone string `json:"timeZone"`
}

type attendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

const untitledEvent = "(No title)"

func (t providerTime) parse() (time.Time, bool, error) {
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		return ts, false, err
	}
	if t.Date != "" {
		loc := time.UTC
		if t.TimeZone != "" {
			if l, err := time.LoadLocation(t.TimeZone); err == nil {
				loc = l
			}
		}
		ts, err := time.ParseInLocation(time.DateOnly, t.Date, loc)
		return ts, true, err
	}
	return time.Time{}, false, nil
}

// toEvent converts a provider event. Events whose times cannot be parsed are
// reported with ok false and skipped by the caller.
func (p providerEvent) toEvent() (model.CalendarEvent, bool) {
	start, allDay, err := p.Start.parse()
	if err != nil {
		return model.CalendarEvent{}, false
	}
	end, _, err := p.End.parse()
	if err != nil {
		return model.CalendarEvent{}, false
	}
	if end.IsZero() {
		end = start
	}

	title := strings.TrimSpace(p.Summary)
	if title == "" {
		title = untitledEvent
	}
	color := p.Color
	if color == "" {
		color = model.DefaultEventColor
	}

	var attendees []string
	for _, a := range p.Attendees {
		switch {
		case a.DisplayName != "":
			attendees = append(attendees, a.DisplayName)
		case a.Email != "":
			attendees = append(attendees, a.Email)
		}
	}

	return model.CalendarEvent{
		ID:          p.ID,
		Title:       title,
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Description: p.Description,
		Attendees:   attendees,
		HTMLLink:    p.HTMLLink,
		Color:       color,
	}, true
}

func transformEvents(in []providerEvent) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(in))
	for _, p := range in {
		if ev, ok := p.toEvent(); ok {
			out = append(out, ev)
		}
	}
	return out
}
