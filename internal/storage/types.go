package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the history store.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Recording outcome statuses.
const (
	StatusRecorded = "recorded"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// Entry records the outcome of one recording job.
// Keep it compact and schema-stable.
type Entry struct {
	At     time.Time `json:"at"`
	JobID  int       `json:"job_id"`
	Stream string    `json:"stream"`
	URI    string    `json:"uri"`
	Output string    `json:"output,omitempty"`
	Status string    `json:"status"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Error  string    `json:"error,omitempty"`
}
