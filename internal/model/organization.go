package model

import "time"

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status,omitempty"`
	IsActive  bool      `json:"is_active"`
	APIKey    string    `json:"api_key,omitempty"`
	UserCount int       `json:"user_count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationUpdate carries the fields an admin may change. Nil fields are left untouched.
type OrganizationUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Status   *string `json:"status,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// MinuteBalance is an organization's call-minute allocation and usage.
type MinuteBalance struct {
	OrganizationID   string    `json:"organization_id"`
	TotalMinutes     float64   `json:"total_minutes"`
	UsedMinutes      float64   `json:"used_minutes"`
	RemainingMinutes float64   `json:"remaining_minutes"`
	UsagePercentage  float64   `json:"usage_percentage"`
	IsActive         bool      `json:"is_active"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// Usage returns the usage percentage, deriving it from used/total when the
// server did not send one.
func (b MinuteBalance) Usage() float64 {
	if b.UsagePercentage > 0 || b.TotalMinutes <= 0 {
		return b.UsagePercentage
	}
	return b.UsedMinutes / b.TotalMinutes * 100
}

type MinuteAllocation struct {
	OrganizationID string  `json:"organization_id"`
	Minutes        float64 `json:"minutes"`
	Notes          string  `json:"notes,omitempty"`
}
