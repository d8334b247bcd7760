package model

// AdminUser is the authenticated super-admin returned by the login endpoint.
type AdminUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// TokenResponse is the body of a successful super-admin login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        AdminUser `json:"user"`
}
