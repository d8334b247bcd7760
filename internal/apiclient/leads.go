package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dukerupert/callagent/internal/cache"
	"github.com/dukerupert/callagent/internal/model"
)

func (c *Client) ListLeads(ctx context.Context, refresh bool) ([]model.Lead, error) {
	l := cache.NewLoader(c.cache, "leads", cache.LeadsTTL, func(ctx context.Context) ([]model.Lead, error) {
		var resp struct {
			Leads []model.Lead `json:"leads"`
		}
		if err := c.doJSON(ctx, http.MethodGet, c.url(c.leadBaseURL, "/api/leads", nil), nil, &resp); err != nil {
			return nil, fmt.Errorf("list leads: %w", err)
		}
		return resp.Leads, nil
	})
	return l.FetchData(ctx, refresh)
}
