package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/callagent/internal/cache"
	"github.com/dukerupert/callagent/internal/model"
)

// CallQuery narrows the server-side call listing.
type CallQuery struct {
	OrganizationID string
	Status         string
	Direction      string
	Page           int
	Limit          int
}

func (q CallQuery) values() url.Values {
	v := url.Values{}
	if q.OrganizationID != "" {
		v.Set("organization_id", q.OrganizationID)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Direction != "" {
		v.Set("direction", q.Direction)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// ListCalls returns one page of calls. Each distinct query is cached separately.
func (c *Client) ListCalls(ctx context.Context, q CallQuery, refresh bool) (model.CallPage, error) {
	vals := q.values()
	key := "calls?" + vals.Encode()
	l := cache.NewLoader(c.cache, key, cache.CallsTTL, func(ctx context.Context) (model.CallPage, error) {
		var page model.CallPage
		if err := c.doJSON(ctx, http.MethodGet, c.url(c.callBaseURL, "/api/calls", vals), nil, &page); err != nil {
			return model.CallPage{}, fmt.Errorf("list calls: %w", err)
		}
		return page, nil
	})
	return l.FetchData(ctx, refresh)
}

func (c *Client) CallStats(ctx context.Context, orgID string, refresh bool) (model.CallStats, error) {
	vals := url.Values{}
	if orgID != "" {
		vals.Set("organization_id", orgID)
	}
	l := cache.NewLoader(c.cache, "calls:stats?"+vals.Encode(), cache.StatsTTL, func(ctx context.Context) (model.CallStats, error) {
		var stats model.CallStats
		if err := c.doJSON(ctx, http.MethodGet, c.url(c.callBaseURL, "/api/calls/stats", vals), nil, &stats); err != nil {
			return model.CallStats{}, fmt.Errorf("call stats: %w", err)
		}
		return stats, nil
	})
	return l.FetchData(ctx, refresh)
}

func (c *Client) CallFilterOptions(ctx context.Context, refresh bool) (model.CallFilterOptions, error) {
	l := cache.NewLoader(c.cache, "calls:filters", cache.CallsTTL, func(ctx context.Context) (model.CallFilterOptions, error) {
		var opts model.CallFilterOptions
		if err := c.doJSON(ctx, http.MethodGet, c.url(c.callBaseURL, "/api/calls/filters/options", nil), nil, &opts); err != nil {
			return model.CallFilterOptions{}, fmt.Errorf("call filter options: %w", err)
		}
		return opts, nil
	})
	return l.FetchData(ctx, refresh)
}

// CallFilter is applied client-side to an already fetched list.
type CallFilter struct {
	Status    string
	Direction string
	Sentiment string
	Search    string // matched against phone number, caller name and summary
	From, To  time.Time
}

// FilterCalls returns the calls matching every non-empty field of f, in input order.
func FilterCalls(calls []model.Call, f CallFilter) []model.Call {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Call, 0, len(calls))
	for _, call := range calls {
		if f.Status != "" && !strings.EqualFold(call.Status, f.Status) {
			continue
		}
		if f.Direction != "" && !strings.EqualFold(call.Direction, f.Direction) {
			continue
		}
		if f.Sentiment != "" && !strings.EqualFold(call.Sentiment, f.Sentiment) {
			continue
		}
		if !f.From.IsZero() && call.StartedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !call.StartedAt.Before(f.To) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(call.PhoneNumber), search) &&
			!strings.Contains(strings.ToLower(call.CallerName), search) &&
			!strings.Contains(strings.ToLower(call.Summary), search) {
			continue
		}
		out = append(out, call)
	}
	return out
}
