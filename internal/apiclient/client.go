// Package apiclient talks to the CallAgent admin, call and lead backends.
package apiclient

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
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/callagent/internal/auth"
	"github.com/dukerupert/callagent/internal/cache"
)

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Path, e.Status)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL     string
	callBaseURL string
	leadBaseURL string
	httpClient  *http.Client
	tokens      TokenSource
	cache       *cache.Store
	logger      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithCallBaseURL points call and call-minute requests at a separate host.
func WithCallBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.callBaseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithLeadBaseURL points lead requests at a separate host.
func WithLeadBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.leadBaseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithCache shares a response cache with other components.
func WithCache(s *cache.Store) Option {
	return func(cl *Client) {
		cl.cache = s
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL:     base,
		callBaseURL: base,
		leadBaseURL: base,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		tokens:      tokens,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewStore(cache.Options{})
	}
	return c
}

// Cache returns the response cache used by the client.
func (c *Client) Cache() *cache.Store {
	return c.cache
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// doJSON sends in (if non-nil) as JSON with bearer auth and decodes the
// response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, rawURL string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", auth.BearerHeader(ctx, c.tokens))

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body),
			Path:    req.URL.Path,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// errorMessage pulls a human-readable message out of an error body. FastAPI
// style {"detail": "..."} and {"message": "..."} bodies are recognized.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	switch d := body.Detail.(type) {
	case string:
		return d
	case nil:
	default:
		if b, err := json.Marshal(d); err == nil {
			return string(b)
		}
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func (c *Client) url(base, path string, query url.Values) string {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
