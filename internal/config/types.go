package config

import "fmt"

// Config is the full on-disk configuration. Decoding is strict: unknown
// keys are rejected so typos surface at startup instead of silently
// disabling features.
type Config struct {
	Streams  []Stream `json:"stream_list"`
	SavePath string   `json:"save_path"`

	// Exactly one of these is consulted, selected by the -template flag.
	ScheduleDict     []WindowSpec  `json:"schedule_dict,omitempty"`
	ScheduleTemplate *TemplateSpec `json:"schedule_template,omitempty"`

	// PollInterval is a Go duration string (e.g. "10s"). Default 10s.
	PollInterval string `json:"poll_interval,omitempty"`

	FFmpeg   *FFmpegConfig   `json:"ffmpeg,omitempty"`
	Logging  *LoggingConfig  `json:"logging,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
	Daily    *DailyConfig    `json:"daily,omitempty"`
}

type Stream struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// WindowSpec is one explicit window, times of day as "HH:MM:SS".
type WindowSpec struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TemplateSpec is a recurring slot pattern. Duration and Break are in
// minutes, matching the schedule_template wire format.
type TemplateSpec struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int    `json:"duration"`
	Break    int    `json:"break"`
}

type FFmpegConfig struct {
	Binary     string `json:"binary,omitempty"`
	BufferSize int    `json:"buffer_size,omitempty"`
	// ProbeGrace is how long to wait for a capture's output file before
	// warning. Go duration string; empty disables the probe.
	ProbeGrace string `json:"probe_grace,omitempty"`
}

// LoggingConfig controls the log sinks. Console and file default to
// enabled; pointers distinguish "omitted" from an explicit false.
type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console *bool       `json:"console,omitempty"`
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"` // default: <save_path>/stream.log
}

type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
	// Notify sends started/finished/skipped recording events to the chat.
	Notify bool            `json:"notify"`
	Log    TelegramLogging `json:"log,omitempty"`
}

type TelegramLogging struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// DailyConfig enables the looping variant: the whole cycle (config read,
// schedule expansion, poll loop) re-runs on a cron cadence.
type DailyConfig struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec,omitempty"` // cron spec, default "0 0 * * *"
}

// Error marks a fatal configuration problem, reported before the poll
// loop starts.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return "config: " + e.Field + ": " + e.Reason
}

func errf(field, format string, args ...any) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}
