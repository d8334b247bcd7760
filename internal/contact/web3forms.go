// Package contact submits marketing contact and enterprise inquiries through
// Web3Forms.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
)

const defaultEndpoint = "https://api.web3forms.com/submit"

type Kind string

const (
	KindContact    Kind = "contact"
	KindEnterprise Kind = "enterprise"
)

type Submission struct {
	Kind    Kind
	Name    string
	Email   string
	Company string
	Phone   string
	Subject string
	Message string
	// Team size or expected monthly call volume, enterprise only.
	CallVolume string
}

// Validate checks the fields every form requires.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}
	if _, err := mail.ParseAddress(s.Email); err != nil {
		return fmt.Errorf("invalid email %q", s.Email)
	}
	if strings.TrimSpace(s.Message) == "" {
		return errors.New("message is required")
	}
	if s.Kind == KindEnterprise && strings.TrimSpace(s.Company) == "" {
		return errors.New("company is required for enterprise inquiries")
	}
	return nil
}

type Client struct {
	accessKey  string
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithEndpoint(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.endpoint = u
		}
	}
}

func NewClient(accessKey string, opts ...Option) *Client {
	c := &Client{
		accessKey:  accessKey,
		endpoint:   defaultEndpoint,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the access key is set.
func (c *Client) Configured() bool {
	return c.accessKey != ""
}

type payload struct {
	AccessKey  string `json:"access_key"`
	Subject    string `json:"subject"`
	FromName   string `json:"from_name"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Company    string `json:"company,omitempty"`
	Phone      string `json:"phone,omitempty"`
	CallVolume string `json:"call_volume,omitempty"`
	Message    string `json:"message"`
	Botcheck   bool   `json:"botcheck"`
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func subjectFor(s Submission) string {
	if s.Subject != "" {
		return s.Subject
	}
	if s.Kind == KindEnterprise {
		return fmt.Sprintf("Enterprise inquiry from %s", s.Company)
	}
	return fmt.Sprintf("New contact message from %s", s.Name)
}

// Submit sends the form. Both transport errors and a success=false reply are
// returned as errors.
func (c *Client) Submit(ctx context.Context, s Submission) error {
	if !c.Configured() {
		return fmt.Errorf("contact form not configured: missing access key")
	}
	if s.Kind == "" {
		s.Kind = KindContact
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid submission: %w", err)
	}

	body, err := json.Marshal(payload{
		AccessKey:  c.accessKey,
		Subject:    subjectFor(s),
		FromName:   "CallAgent AI website",
		Name:       s.Name,
		Email:      s.Email,
		Company:    s.Company,
		Phone:      s.Phone,
		CallVolume: s.CallVolume,
		Message:    s.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit form: %w", err)
	}
	defer resp.Body.Close()

	var r response
	decodeErr := json.NewDecoder(resp.Body).Decode(&r)
	if resp.StatusCode >= 400 {
		if decodeErr == nil && r.Message != "" {
			return fmt.Errorf("web3forms API error: status %d: %s", resp.StatusCode, r.Message)
		}
		return fmt.Errorf("web3forms API error: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !r.Success {
		return fmt.Errorf("web3forms rejected submission: %s", r.Message)
	}
	return nil
}
