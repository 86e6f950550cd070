package model

import (
	"encoding/json"
	"time"
)

// APIResponse is the envelope every hub endpoint answers with.
type APIResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type DashboardResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary aggregates one upload run.
type Summary struct {
	SuccessCount int `json:"successCount"`
	FailCount    int `json:"failCount"`
}

func (s Summary) Total() int {
	return s.SuccessCount + s.FailCount
}

type RowOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type BulkUserResult struct {
	User   User       `json:"user"`
	Result RowOutcome `json:"result"`
}

type BulkUsersResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Summary Summary          `json:"summary"`
	Results []BulkUserResult `json:"results"`
}

// BatchView is one page of a batch session plus its aggregate state.
type BatchView struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Page        int            `json:"page"`
	PageSize    int            `json:"pageSize"`
	TotalPages  int            `json:"totalPages"`
	Total       int            `json:"total"`
	Counts      map[string]int `json:"counts"`
	Retryable   int            `json:"retryable"`
	Running     bool           `json:"running"`
	LastSummary *Summary       `json:"lastSummary,omitempty"`
	Rows        any            `json:"rows"`
}

type ImportResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Parsed  int        `json:"parsed"`
	Added   int        `json:"added"`
	Batch   *BatchView `json:"batch"`
}
