package model

import "time"

// DefaultEventColor is applied to events the provider returns without a color.
const DefaultEventColor = "#3b82f6"

// CalendarStatus mirrors the organization's linked-calendar connection state.
type CalendarStatus struct {
	Connected    bool   `json:"connected"`
	CalendarName string `json:"calendar_name,omitempty"`
	CalendarID   string `json:"calendar_id,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
	LastSync     string `json:"last_sync,omitempty"`
	Message      string `json:"message,omitempty"`
}

type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	Description string    `json:"description,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
	HTMLLink    string    `json:"html_link,omitempty"`
	Color       string    `json:"color"`
}

// AvailableSlot is computed by the calendar backend and passed through unchanged.
type AvailableSlot struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	DisplayTime string `json:"display_time"`
	Duration    int    `json:"duration"`
}

// BookingRequest is built from form input and sent once.
type BookingRequest struct {
	Service       string `json:"service"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Duration      int    `json:"duration"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type BookingResult struct {
	Success bool   `json:"success"`
	EventID string `json:"event_id,omitempty"`
	Message string `json:"message,omitempty"`
}
