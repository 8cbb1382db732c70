// Package genvr talks to the remote generation API: it submits jobs, checks
// their status and fetches results, and polls a job until it finishes.
package genvr

import "encoding/json"

// Task statuses reported by the remote API. Only completed and failed are terminal.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Credentials identify the account a call is made for. They are passed per
// call and never stored on the client.
type Credentials struct {
	UserID string
	APIKey string
}

// Empty reports whether neither field is set.
func (c Credentials) Empty() bool {
	return c.UserID == "" && c.APIKey == ""
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.UserID != "" && c.APIKey != ""
}

// Task is one remote generation job as observed by this process.
type Task struct {
	ID          string
	Category    string
	Subcategory string
	Status      string
	Result      json.RawMessage
	Error       string
}

// Terminal reports whether the status is completed or failed.
func (t Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// TaskStatus is the outcome of one status check.
type TaskStatus struct {
	Status string
	Error  string
}
