package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dukerupert/callagent/internal/auth"
	"github.com/dukerupert/callagent/internal/model"
)

// Login exchanges super-admin credentials for a bearer token. The endpoint
// takes an OAuth2 password form, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, c.url(c.baseURL, "/api/auth/super-admin/token", nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp model.TokenResponse
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	if resp.User.Username == "" {
		resp.User.Username = username
	}
	if resp.User.Role == "" {
		resp.User.Role = auth.RoleSuperAdmin
	}
	return &resp, nil
}
