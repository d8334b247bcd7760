package model

import "time"

type Call struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	PhoneNumber    string    `json:"phone_number"`
	CallerName     string    `json:"caller_name,omitempty"`
	Direction      string    `json:"direction"`
	Status         string    `json:"status"`
	Duration       int       `json:"duration"`
	StartedAt      time.Time `json:"started_at"`
	Summary        string    `json:"summary,omitempty"`
	Sentiment      string    `json:"sentiment,omitempty"`
	RecordingURL   string    `json:"recording_url,omitempty"`
}

type CallPage struct {
	Calls []Call `json:"calls"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

type CallStats struct {
	TotalCalls      int     `json:"total_calls"`
	CompletedCalls  int     `json:"completed_calls"`
	FailedCalls     int     `json:"failed_calls"`
	TotalDuration   int     `json:"total_duration"`
	AverageDuration float64 `json:"average_duration"`
	SuccessRate     float64 `json:"success_rate"`
}

type CallFilterOptions struct {
	Statuses   []string `json:"statuses"`
	Directions []string `json:"directions"`
	Sentiments []string `json:"sentiments"`
}
