// Package calendar wraps the organization's linked Google Calendar as exposed
// by the CallAgent backend: connection status, events, availability and
// bookings.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/callagent/internal/auth"
	"github.com/dukerupert/callagent/internal/model"
	"github.com/dukerupert/callagent/internal/notify"
)

// State is the calendar connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateTesting      State = "testing"
	StateFetching     State = "fetching"
	StateBooking      State = "booking"
	StateCancelling   State = "cancelling"
)

// ErrNotConnected is returned by operations that need a linked calendar.
var ErrNotConnected = errors.New("calendar not connected")

// Status is a snapshot of the client state.
type Status struct {
	State    State
	Loading  bool
	Calendar model.CalendarStatus
}

// StatusCallback is called whenever the state or loading flag changes.
type StatusCallback func(Status)

// Opener hands the OAuth authorization URL to the user, e.g. by launching a
// browser or printing it.
type Opener func(authURL string) error

// TokenSource supplies the bearer token sent with every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(cl *Client) {
		if n != nil {
			cl.notifier = n
		}
	}
}

func WithOpener(o Opener) Option {
	return func(cl *Client) {
		cl.opener = o
	}
}

func WithStatusCallback(cb StatusCallback) Option {
	return func(cl *Client) {
		cl.callback = cb
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// Client tracks one organization's calendar connection. A single loading
// flag is shared by all operations of the instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	notifier   notify.Notifier
	opener     Opener
	callback   StatusCallback
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	state    State
	loading  bool
	calendar model.CalendarStatus
	events   []model.CalendarEvent
	slots    []model.AvailableSlot
	fetchErr error

	// window of the last event fetch, reused to resync after bookings
	windowStart, windowEnd time.Time
}

func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
		notifier:   notify.Discard,
		logger:     slog.Default(),
		now:        time.Now,
		state:      StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "calendar")
	return c
}

// Status returns the current state snapshot.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

func (c *Client) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Events returns a copy of the most recently fetched events.
func (c *Client) Events() []model.CalendarEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.CalendarEvent, len(c.events))
	copy(out, c.events)
	return out
}

// AvailableSlots returns a copy of the slots from the last availability check.
// EventsErr returns the error of the most recent event fetch, including the
// one triggered automatically when the calendar becomes connected. It is nil
// after a successful fetch.
func (c *Client) EventsErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchErr
}

func (c *Client) AvailableSlots() []model.AvailableSlot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.AvailableSlot, len(c.slots))
	copy(out, c.slots)
	return out
}

func (c *Client) snapshot() Status {
	return Status{State: c.state, Loading: c.loading, Calendar: c.calendar}
}

// update applies fn under the lock and reports the new snapshot to the
// callback after releasing it.
func (c *Client) update(fn func()) {
	c.mu.Lock()
	fn()
	s := c.snapshot()
	c.mu.Unlock()

	if c.callback != nil {
		c.callback(s)
	}
}

// begin marks an operation as running, entering s unless it is empty. The
// returned func clears the loading flag and moves to next, or back to the
// state before begin when next is empty.
func (c *Client) begin(s State) func(next State) {
	var prev State
	c.update(func() {
		prev = c.state
		if s != "" {
			c.state = s
		}
		c.loading = true
	})
	return func(next State) {
		if next == "" {
			next = prev
		}
		c.update(func() {
			c.state = next
			c.loading = false
		})
	}
}

// connectedState is the state to return to after a sub-operation.
func (c *Client) connectedState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.calendar.Connected {
		return StateConnected
	}
	return StateDisconnected
}

type requestError struct {
	Status  int
	Message string
	Path    string
}

func (e *requestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Path, e.Status)
}

// do sends a JSON request with bearer auth. A missing token still sends the
// request so the backend can answer 401.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("Authorization", auth.BearerHeader(ctx, c.tokens))
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &requestError{Status: resp.StatusCode, Message: errorDetail(resp.Body), Path: path}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func errorDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 16<<10))
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}

// failure reports err through the notifier and returns it wrapped with op.
func (c *Client) failure(op, message string, err error) error {
	c.logger.Error(op+" failed", "error", err)
	var reqErr *requestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		message = message + ": " + reqErr.Message
	}
	c.notifier.Notify(notify.LevelError, message)
	return fmt.Errorf("%s: %w", op, err)
}
