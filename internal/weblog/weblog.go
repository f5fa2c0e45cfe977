// Package weblog defines access-log events and the derived rows built from them.
package weblog

import "time"

// TimeLayout is the timestamp layout of the persisted dataset.
const TimeLayout = "2006-01-02 15:04:05"

// Event is a single access-log line as persisted. It is never mutated once
// generated or loaded.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	IPAddress  string    `json:"ip_address"`
	Method     string    `json:"method"`
	Page       string    `json:"page"`
	StatusCode int       `json:"status_code"`
	Country    string    `json:"country"`
	JobType    string    `json:"job_type"`
}

// Record is an Event enriched with the fields derived at load time.
type Record struct {
	Event

	RequestType string `json:"request_type"`
	Hour        int    `json:"hour"`
	Week        int    `json:"week"`
	ProductName string `json:"product_name"`

	SessionID       string  `json:"session_id"`
	PagesPerSession int     `json:"pages_per_session"`
	SessionDuration float64 `json:"session_duration"` // minutes
}
