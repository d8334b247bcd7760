package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/callagent/internal/model"
	"github.com/dukerupert/callagent/internal/notify"
)

// defaultWindow is the event range fetched when no end date is given.
const defaultWindow = 30 * 24 * time.Hour

// Start checks the connection once. If the calendar is connected, events
// for the default window are loaded as well.
func (c *Client) Start(ctx context.Context) Status {
	c.CheckStatus(ctx)
	return c.Status()
}

// CheckStatus asks the backend whether a calendar is linked. Any failure is
// treated as disconnected; it never returns an error. When the status flips to
// connected, events are fetched once.
func (c *Client) CheckStatus(ctx context.Context) model.CalendarStatus {
	var st model.CalendarStatus
	if err := c.do(ctx, http.MethodGet, "/auth/google/status", nil, nil, &st); err != nil {
		c.logger.Warn("status check failed, assuming disconnected", "error", err)
		st = model.CalendarStatus{}
	}
	if ctx.Err() != nil {
		return st
	}
	c.applyStatus(ctx, st)
	return st
}

func (c *Client) applyStatus(ctx context.Context, st model.CalendarStatus) {
	var flipped bool
	c.update(func() {
		flipped = !c.calendar.Connected && st.Connected
		c.calendar = st
		switch {
		case !st.Connected:
			c.state = StateDisconnected
			c.events = nil
		case c.state == StateDisconnected || c.state == StateConnecting:
			c.state = StateConnected
		}
	})
	if flipped {
		c.logger.Info("calendar connected", "calendar", st.CalendarName)
		c.FetchEvents(ctx, time.Time{}, time.Time{})
	}
}

// ConnectGoogle starts the OAuth flow for orgID and returns the authorization
// URL. The URL is also passed to the configured Opener. The client stays in
// the connecting state until CompleteOAuth or CheckStatus observes the link.
func (c *Client) ConnectGoogle(ctx context.Context, orgID string) (string, error) {
	done := c.begin(StateConnecting)

	var resp struct {
		AuthorizationURL string `json:"authorization_url"`
		AuthURL          string `json:"auth_url"`
	}
	body := map[string]string{"organization_id": orgID}
	if err := c.do(ctx, http.MethodPost, "/auth/google/start", nil, body, &resp); err != nil {
		done(StateDisconnected)
		return "", c.failure("connect google calendar", "Failed to connect Google Calendar", err)
	}

	authURL := resp.AuthorizationURL
	if authURL == "" {
		authURL = resp.AuthURL
	}
	if authURL == "" {
		done(StateDisconnected)
		return "", c.failure("connect google calendar", "Failed to connect Google Calendar", errors.New("response has no authorization url"))
	}

	if c.opener != nil {
		if err := c.opener(authURL); err != nil {
			done(StateDisconnected)
			return authURL, c.failure("open authorization url", "Could not open the Google authorization page", err)
		}
	}
	done(StateConnecting)
	return authURL, nil
}

// CompleteOAuth forwards the authorization code from the OAuth redirect and
// refreshes the connection status.
func (c *Client) CompleteOAuth(ctx context.Context, code, state string) error {
	if code == "" {
		return errors.New("complete oauth: code is required")
	}
	done := c.begin(StateConnecting)

	var resp struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	body := map[string]string{"code": code, "state": state}
	if err := c.do(ctx, http.MethodPost, "/auth/google/callback", nil, body, &resp); err != nil {
		done(StateDisconnected)
		return c.failure("complete oauth", "Google Calendar authorization failed", err)
	}
	if resp.Success != nil && !*resp.Success {
		done(StateDisconnected)
		return c.failure("complete oauth", "Google Calendar authorization failed", errors.New(orDefault(resp.Message, "rejected by server")))
	}
	done("")

	st := c.CheckStatus(ctx)
	if !st.Connected {
		return c.failure("complete oauth", "Google Calendar is still not connected", errors.New("status reports disconnected"))
	}
	c.notifier.Notify(notify.LevelSuccess, "Google Calendar connected")
	return nil
}

// Disconnect unlinks the calendar and drops cached events and slots.
func (c *Client) Disconnect(ctx context.Context) error {
	done := c.begin("")
	if err := c.do(ctx, http.MethodPost, "/auth/google/disconnect", nil, nil, nil); err != nil {
		done("")
		return c.failure("disconnect google calendar", "Failed to disconnect Google Calendar", err)
	}
	c.update(func() {
		c.calendar = model.CalendarStatus{}
		c.events = nil
		c.slots = nil
	})
	done(StateDisconnected)
	c.notifier.Notify(notify.LevelSuccess, "Google Calendar disconnected")
	return nil
}

// FetchEvents loads events between start and end. A zero start means the
// beginning of today and a zero end means start plus 30 days. It returns
// ErrNotConnected without a request when no calendar is linked.
func (c *Client) FetchEvents(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	if !c.Status().Calendar.Connected {
		return nil, ErrNotConnected
	}
	if start.IsZero() {
		y, m, d := c.now().Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, c.now().Location())
	}
	if end.IsZero() {
		end = start.Add(defaultWindow)
	}

	done := c.begin(StateFetching)
	defer func() { done(c.connectedState()) }()

	q := url.Values{}
	q.Set("start_date", start.Format(time.RFC3339))
	q.Set("end_date", end.Format(time.RFC3339))

	var resp struct {
		Events []providerEvent `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/calendar/events", q, nil, &resp); err != nil {
		err = c.failure("fetch events", "Failed to load calendar events", err)
		c.mu.Lock()
		c.fetchErr = err
		c.mu.Unlock()
		return nil, err
	}

	events := transformEvents(resp.Events)
	c.update(func() {
		c.events = events
		c.fetchErr = nil
		c.windowStart, c.windowEnd = start, end
	})
	out := make([]model.CalendarEvent, len(events))
	copy(out, events)
	return out, nil
}

// CheckAvailability returns the free slots on date (YYYY-MM-DD) for an
// appointment of duration minutes. The result is also kept for
// AvailableSlots.
func (c *Client) CheckAvailability(ctx context.Context, date string, duration int, timePreference string) ([]model.AvailableSlot, error) {
	done := c.begin("")
	defer func() { done("") }()

	body := struct {
		Date           string `json:"date"`
		Duration       int    `json:"duration"`
		TimePreference string `json:"time_preference,omitempty"`
	}{date, duration, timePreference}

	var resp struct {
		AvailableSlots []model.AvailableSlot `json:"available_slots"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/calendar/availability", nil, body, &resp); err != nil {
		return nil, c.failure("check availability", "Failed to check availability", err)
	}

	slots := resp.AvailableSlots
	if slots == nil {
		slots = []model.AvailableSlot{}
	}
	c.update(func() { c.slots = slots })
	if len(slots) == 0 {
		c.notifier.Notify(notify.LevelInfo, "No available slots on "+date)
	}
	out := make([]model.AvailableSlot, len(slots))
	copy(out, slots)
	return out, nil
}

// Book sends a booking once and, on success, refetches events.
func (c *Client) Book(ctx context.Context, req model.BookingRequest) (*model.BookingResult, error) {
	if err := validateBooking(req); err != nil {
		c.notifier.Notify(notify.LevelError, err.Error())
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	done := c.begin(StateBooking)
	var resp struct {
		Success *bool  `json:"success"`
		EventID string `json:"event_id"`
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/api/calendar/book", nil, req, &resp)
	done(c.connectedState())
	if err != nil {
		return nil, c.failure("book appointment", "Failed to book appointment", err)
	}

	res := &model.BookingResult{
		Success: resp.Success == nil || *resp.Success,
		EventID: resp.EventID,
		Message: resp.Message,
	}
	if !res.Success {
		return res, c.failure("book appointment", "Booking was not accepted", errors.New(orDefault(res.Message, "rejected by server")))
	}

	c.notifier.Notify(notify.LevelSuccess, "Appointment booked for "+req.CustomerName)
	c.resync(ctx)
	return res, nil
}

// Cancel removes the event and, on success, refetches events.
func (c *Client) Cancel(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("cancel appointment: event id is required")
	}

	done := c.begin(StateCancelling)
	var resp struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	body := map[string]string{"event_id": eventID}
	err := c.do(ctx, http.MethodPost, "/api/calendar/cancel", nil, body, &resp)
	done(c.connectedState())
	if err != nil {
		return c.failure("cancel appointment", "Failed to cancel appointment", err)
	}
	if resp.Success != nil && !*resp.Success {
		return c.failure("cancel appointment", "Cancellation was not accepted", errors.New(orDefault(resp.Message, "rejected by server")))
	}

	c.notifier.Notify(notify.LevelSuccess, "Appointment cancelled")
	c.resync(ctx)
	return nil
}

// TestConnection asks the backend to verify the linked calendar.
func (c *Client) TestConnection(ctx context.Context) error {
	done := c.begin(StateTesting)
	defer func() { done(c.connectedState()) }()

	var resp struct {
		Success      *bool  `json:"success"`
		Message      string `json:"message"`
		CalendarName string `json:"calendar_name"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/google/test-connection", nil, nil, &resp); err != nil {
		return c.failure("test connection", "Calendar connection test failed", err)
	}
	if resp.Success != nil && !*resp.Success {
		return c.failure("test connection", "Calendar connection test failed", errors.New(orDefault(resp.Message, "rejected by server")))
	}

	msg := "Calendar connection is working"
	if resp.CalendarName != "" {
		msg += " (" + resp.CalendarName + ")"
	}
	c.notifier.Notify(notify.LevelSuccess, msg)
	return nil
}

// resync refetches the last event window after a mutation.
func (c *Client) resync(ctx context.Context) {
	c.mu.RLock()
	start, end := c.windowStart, c.windowEnd
	c.mu.RUnlock()

	if _, err := c.FetchEvents(ctx, start, end); err != nil && !errors.Is(err, ErrNotConnected) {
		c.logger.Warn("resync after change failed", "error", err)
	}
}

func validateBooking(r model.BookingRequest) error {
	switch {
	case r.CustomerName == "":
		return errors.New("customer name is required")
	case r.Date == "":
		return errors.New("date is required")
	case r.Time == "":
		return errors.New("time is required")
	case r.Duration <= 0:
		return errors.New("duration must be positive")
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
