package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dukerupert/callagent/internal/model"
)

func (c *Client) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	var out []model.Announcement
	if err := c.doJSON(ctx, http.MethodGet, c.url(c.baseURL, "/api/announcements/", nil), nil, &out); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return out, nil
}

func (c *Client) CreateAnnouncement(ctx context.Context, in model.AnnouncementInput) (*model.Announcement, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("create announcement: title is required")
	}
	var out model.Announcement
	if err := c.doJSON(ctx, http.MethodPost, c.url(c.baseURL, "/api/announcements/", nil), in, &out); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return &out, nil
}

func (c *Client) UpdateAnnouncement(ctx context.Context, id string, in model.AnnouncementInput) (*model.Announcement, error) {
	var out model.Announcement
	if err := c.doJSON(ctx, http.MethodPut, c.url(c.baseURL, "/api/announcements/"+url.PathEscape(id), nil), in, &out); err != nil {
		return nil, fmt.Errorf("update announcement %s: %w", id, err)
	}
	return &out, nil
}

func (c *Client) DeleteAnnouncement(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, c.url(c.baseURL, "/api/announcements/"+url.PathEscape(id), nil), nil, nil); err != nil {
		return fmt.Errorf("delete announcement %s: %w", id, err)
	}
	return nil
}
