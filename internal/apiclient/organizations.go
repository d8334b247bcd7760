package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dukerupert/callagent/internal/cache"
	"github.com/dukerupert/callagent/internal/model"
)

const organizationsKey = "organizations"

// ListOrganizations returns all organizations, served from cache unless refresh is set.
func (c *Client) ListOrganizations(ctx context.Context, refresh bool) ([]model.Organization, error) {
	l := cache.NewLoader(c.cache, organizationsKey, cache.OrganizationsTTL, func(ctx context.Context) ([]model.Organization, error) {
		var resp struct {
			Organizations []model.Organization `json:"organizations"`
		}
		if err := c.doJSON(ctx, http.MethodGet, c.url(c.baseURL, "/api/admin/organizations", nil), nil, &resp); err != nil {
			return nil, fmt.Errorf("list organizations: %w", err)
		}
		return resp.Organizations, nil
	})
	return l.FetchData(ctx, refresh)
}

func (c *Client) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	if err := c.doJSON(ctx, http.MethodGet, c.url(c.baseURL, "/api/admin/organizations/"+url.PathEscape(id), nil), nil, &org); err != nil {
		return nil, fmt.Errorf("get organization %s: %w", id, err)
	}
	return &org, nil
}

// UpdateOrganization applies upd and drops the cached organization list.
func (c *Client) UpdateOrganization(ctx context.Context, id string, upd model.OrganizationUpdate) (*model.Organization, error) {
	var org model.Organization
	if err := c.doJSON(ctx, http.MethodPut, c.url(c.baseURL, "/api/admin/organizations/"+url.PathEscape(id), nil), upd, &org); err != nil {
		return nil, fmt.Errorf("update organization %s: %w", id, err)
	}
	c.cache.Delete(organizationsKey)
	return &org, nil
}
