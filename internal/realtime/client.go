// Package realtime streams an organization's call-minute balance over a
// WebSocket and reconnects a bounded number of times when the stream drops.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/callagent/internal/model"
	"github.com/dukerupert/callagent/internal/notify"
)

const (
	heartbeatInterval = 30 * time.Second
	reconnectDelay    = 3 * time.Second
	maxReconnects     = 5
	stopTimeout       = 5 * time.Second
)

// Message types exchanged with the minutes stream.
const (
	TypeInitialState = "initial_state"
	TypeMinuteUpdate = "minute_update"
	TypeHeartbeat    = "heartbeat"
	TypeHeartbeatAck = "heartbeat_ack"
)

type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateGaveUp       State = "gave_up"
	StateClosed       State = "closed"
)

type Status struct {
	State       State     `json:"state"`
	Attempts    int       `json:"attempts"`
	Error       string    `json:"error,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitempty"`
}

// StatusCallback is called whenever the connection state changes.
type StatusCallback func(Status)

// UpdateCallback receives every minute_update after the sink has.
type UpdateCallback func(model.MinuteBalance)

type inbound struct {
	Type      string              `json:"type"`
	Data      model.MinuteBalance `json:"data"`
	Timestamp int64               `json:"timestamp,omitempty"`
}

type heartbeat struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// MinutesURL derives the stream URL for orgID from the call API base URL,
// mapping http to ws and https to wss.
func MinutesURL(base, orgID string) (string, error) {
	if orgID == "" {
		return "", errors.New("organization id is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/call-minutes/realtime-minutes/" + url.PathEscape(orgID)
	u.RawPath = ""
	return u.String(), nil
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithSink(s BalanceSink) Option {
	return func(cl *Client) {
		cl.sink = s
	}
}

func WithUpdateCallback(cb UpdateCallback) Option {
	return func(cl *Client) {
		cl.onUpdate = cb
	}
}

func WithStatusCallback(cb StatusCallback) Option {
	return func(cl *Client) {
		cl.onStatus = cb
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(cl *Client) {
		if n != nil {
			cl.notifier = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// Client holds one organization's minutes stream.
type Client struct {
	orgID      string
	url        string
	httpClient *http.Client
	sink       BalanceSink
	onUpdate   UpdateCallback
	onStatus   StatusCallback
	notifier   notify.Notifier
	logger     *slog.Logger
	now        func() time.Time

	heartbeatInterval time.Duration
	reconnectDelay    time.Duration
	maxReconnects     uint64

	mu      sync.RWMutex
	status  Status
	balance model.MinuteBalance
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewClient prepares a client for orgID against the call API base URL. It
// does not dial until Connect.
func NewClient(baseURL, orgID string, opts ...Option) (*Client, error) {
	u, err := MinutesURL(baseURL, orgID)
	if err != nil {
		return nil, err
	}
	c := &Client{
		orgID:             orgID,
		url:               u,
		notifier:          notify.Discard,
		logger:            slog.Default(),
		now:               time.Now,
		heartbeatInterval: heartbeatInterval,
		reconnectDelay:    reconnectDelay,
		maxReconnects:     maxReconnects,
		status:            Status{State: StateIdle},
		balance:           model.MinuteBalance{OrganizationID: orgID},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "realtime", "organization_id", orgID)
	return c, nil
}

func (c *Client) OrganizationID() string { return c.orgID }

// URL returns the stream endpoint.
func (c *Client) URL() string { return c.url }

func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Balance returns the most recent balance received.
func (c *Client) Balance() model.MinuteBalance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balance
}

// Connect starts the stream in the background. It is a no-op while a stream
// is already running. The stream ends when ctx is cancelled, Disconnect is
// called, or reconnects are exhausted.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	s := Status{State: StateConnecting}
	c.status = s
	c.mu.Unlock()

	c.notifyStatus(s)
	go c.run(runCtx, done)
	return nil
}

// Disconnect stops the heartbeat and any pending reconnect, closes the
// socket and waits for the stream goroutine to exit.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		c.logger.Warn("disconnect timed out", "timeout", stopTimeout)
	}
}

// Done is closed when the current stream goroutine exits. It is nil before
// the first Connect.
func (c *Client) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.done
}

// notifyStatus runs the status callback. It must be called without c.mu held
// so callbacks may read the client.
func (c *Client) notifyStatus(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

func (c *Client) updateState(fn func(s *Status)) {
	c.mu.Lock()
	s := c.status
	fn(&s)
	c.status = s
	c.mu.Unlock()

	c.notifyStatus(s)
}

func (c *Client) newBackoff() retry.Backoff {
	return retry.WithMaxRetries(c.maxReconnects, retry.NewConstant(c.reconnectDelay))
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		close(done)
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		c.mu.Unlock()
	}()

	backoff := c.newBackoff()
	attempts := 0

	for {
		err := c.session(ctx, func() {
			// each successful open gets a fresh reconnect budget
			backoff = c.newBackoff()
			attempts = 0
		})

		if ctx.Err() != nil {
			c.updateState(func(s *Status) { *s = Status{State: StateClosed} })
			c.logger.Info("stream closed")
			return
		}

		delay, stop := backoff.Next()
		if stop {
			c.updateState(func(s *Status) {
				*s = Status{State: StateGaveUp, Attempts: attempts, Error: errString(err)}
			})
			c.logger.Warn("giving up on stream", "attempts", attempts, "error", err)
			c.notifier.Notify(notify.LevelWarning, fmt.Sprintf("Real-time minutes unavailable for organization %s", c.orgID))
			return
		}

		attempts++
		c.updateState(func(s *Status) {
			*s = Status{State: StateReconnecting, Attempts: attempts, Error: errString(err)}
		})
		c.logger.Info("stream dropped, reconnecting", "error", err, "delay", delay, "attempt", attempts, "max", c.maxReconnects)

		select {
		case <-ctx.Done():
			c.updateState(func(s *Status) { *s = Status{State: StateClosed} })
			return
		case <-time.After(delay):
		}
	}
}

// session dials once and reads until the connection fails.
func (c *Client) session(ctx context.Context, opened func()) error {
	conn, _, err := ws.Dial(ctx, c.url, &ws.DialOptions{HTTPClient: c.httpClient})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	opened()
	c.updateState(func(s *Status) {
		*s = Status{State: StateConnected, ConnectedAt: c.now()}
	})
	c.logger.Info("stream connected")

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.heartbeat(sessCtx, conn)

	for {
		_, data, err := conn.Read(sessCtx)
		if err != nil {
			if ctx.Err() != nil {
				conn.Close(ws.StatusNormalClosure, "client disconnect")
			}
			return err
		}
		c.handle(data)
	}
}

func (c *Client) heartbeat(ctx context.Context, conn *ws.Conn) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := heartbeat{Type: TypeHeartbeat, Timestamp: c.now().UnixMilli()}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				c.logger.Debug("heartbeat write failed", "error", err)
				return
			}
		}
	}
}

// handle dispatches one frame. Malformed frames and unknown types are logged
// and ignored.
func (c *Client) handle(data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("malformed stream message", "error", err)
		return
	}

	switch msg.Type {
	case TypeInitialState:
		b := c.store(msg.Data)
		if c.sink != nil {
			c.sink.OnBalanceUpdate(c.orgID, b)
		}
	case TypeMinuteUpdate:
		b := c.store(msg.Data)
		if c.sink != nil {
			c.sink.OnBalanceUpdate(c.orgID, b)
		}
		if c.onUpdate != nil {
			c.onUpdate(b)
		}
	case TypeHeartbeatAck:
		c.logger.Debug("heartbeat acknowledged")
	default:
		c.logger.Debug("ignoring stream message", "type", msg.Type)
	}
}

func (c *Client) store(b model.MinuteBalance) model.MinuteBalance {
	if b.OrganizationID == "" {
		b.OrganizationID = c.orgID
	}
	c.mu.Lock()
	c.balance = b
	c.mu.Unlock()
	return b
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
