package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dukerupert/callagent/internal/model"
)

// AllocateMinutes adds minutes to an organization's balance. Like the other
// minute writes it drops the cached organization list.
func (c *Client) AllocateMinutes(ctx context.Context, a model.MinuteAllocation) (*model.MinuteBalance, error) {
	if a.Minutes <= 0 {
		return nil, fmt.Errorf("allocate minutes: minutes must be positive, got %v", a.Minutes)
	}
	var resp struct {
		Balance model.MinuteBalance `json:"balance"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.url(c.callBaseURL, "/call-minutes/allocate", nil), a, &resp); err != nil {
		return nil, fmt.Errorf("allocate minutes: %w", err)
	}
	c.cache.Delete(organizationsKey)
	if resp.Balance.OrganizationID == "" {
		resp.Balance.OrganizationID = a.OrganizationID
	}
	return &resp.Balance, nil
}

func (c *Client) ActivateMinutes(ctx context.Context, orgID string) error {
	return c.setMinutesActive(ctx, orgID, "activate")
}

func (c *Client) DeactivateMinutes(ctx context.Context, orgID string) error {
	return c.setMinutesActive(ctx, orgID, "deactivate")
}

func (c *Client) setMinutesActive(ctx context.Context, orgID, action string) error {
	path := "/call-minutes/organization/" + url.PathEscape(orgID) + "/" + action
	if err := c.doJSON(ctx, http.MethodPost, c.url(c.callBaseURL, path, nil), nil, nil); err != nil {
		return fmt.Errorf("%s minutes for %s: %w", action, orgID, err)
	}
	c.cache.Delete(organizationsKey)
	return nil
}

// OrganizationMinutes returns an organization's balance. A non-2xx response
// yields a zeroed balance and no error so views can render a fallback; a
// transport failure yields a zeroed balance and the error.
func (c *Client) OrganizationMinutes(ctx context.Context, orgID string) (model.MinuteBalance, error) {
	zero := model.MinuteBalance{OrganizationID: orgID}

	var bal model.MinuteBalance
	err := c.doJSON(ctx, http.MethodGet, c.url(c.callBaseURL, "/call-minutes/organization/"+url.PathEscape(orgID), nil), nil, &bal)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.logger.Warn("minutes lookup failed, using zero balance", "organization_id", orgID, "status", apiErr.Status)
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("organization minutes %s: %w", orgID, err)
	}
	if bal.OrganizationID == "" {
		bal.OrganizationID = orgID
	}
	return bal, nil
}
