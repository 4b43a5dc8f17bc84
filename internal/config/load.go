package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"streamrec/internal/schedule"
)

// Mode selects which schedule section of the config is used.
type Mode int

const (
	ModeExplicit Mode = iota
	ModeTemplate
)

func (m Mode) String() string {
	if m == ModeTemplate {
		return "template"
	}
	return "explicit"
}

const DefaultPollInterval = 10 * time.Second

// Load reads, decodes and validates the config file. YAML files (by
// extension) are coerced to JSON first so both formats share the strict
// decoder.
func Load(path string, mode Mode) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}

	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks everything that must hold before the loop starts.
func (c *Config) Validate(mode Mode) error {
	if len(c.Streams) == 0 {
		return errf("stream_list", "at least one stream is required")
	}
	for i, s := range c.Streams {
		if s.URI == "" {
			return errf(fmt.Sprintf("stream_list[%d].uri", i), "must not be empty")
		}
		if s.Name == "" {
			return errf(fmt.Sprintf("stream_list[%d].name", i), "must not be empty")
		}
	}
	if c.SavePath == "" {
		return errf("save_path", "must not be empty")
	}

	switch mode {
	case ModeTemplate:
		t := c.ScheduleTemplate
		if t == nil {
			return errf("schedule_template", "required in template mode")
		}
		if _, err := schedule.ParseClock(t.Start); err != nil {
			return errf("schedule_template.start", "%v", err)
		}
		if _, err := schedule.ParseClock(t.End); err != nil {
			return errf("schedule_template.end", "%v", err)
		}
		if t.Duration <= 0 {
			return errf("schedule_template.duration", "must be positive (minutes)")
		}
		if t.Break < 0 {
			return errf("schedule_template.break", "must not be negative (minutes)")
		}
	case ModeExplicit:
		if len(c.ScheduleDict) == 0 {
			return errf("schedule_dict", "required in explicit mode")
		}
		for i, w := range c.ScheduleDict {
			start, err := schedule.ParseClock(w.Start)
			if err != nil {
				return errf(fmt.Sprintf("schedule_dict[%d].start", i), "%v", err)
			}
			end, err := schedule.ParseClock(w.End)
			if err != nil {
				return errf(fmt.Sprintf("schedule_dict[%d].end", i), "%v", err)
			}
			if end <= start {
				return errf(fmt.Sprintf("schedule_dict[%d]", i), "end must be after start")
			}
		}
	}

	if _, err := ParseDurationField("poll_interval", c.PollInterval); err != nil {
		return errf("poll_interval", "%v", err)
	}
	if c.FFmpeg != nil {
		if _, err := ParseDurationField("ffmpeg.probe_grace", c.FFmpeg.ProbeGrace); err != nil {
			return errf("ffmpeg.probe_grace", "%v", err)
		}
		if c.FFmpeg.BufferSize < 0 {
			return errf("ffmpeg.buffer_size", "must not be negative")
		}
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return errf("storage.busy_timeout", "%v", err)
		}
	}
	if c.Telegram != nil && (c.Telegram.Notify || c.Telegram.Log.Enabled) {
		if c.Telegram.Token == "" {
			return errf("telegram.token", "required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return errf("telegram.chat_id", "required when telegram is enabled")
		}
	}
	return nil
}

// Windows expands the selected schedule section for the day of now.
// Validate must have passed; parse errors here would be programmer error.
func (c *Config) Windows(mode Mode, now time.Time) ([]schedule.Window, error) {
	if mode == ModeTemplate {
		t := c.ScheduleTemplate
		start, err := schedule.ParseClock(t.Start)
		if err != nil {
			return nil, err
		}
		end, err := schedule.ParseClock(t.End)
		if err != nil {
			return nil, err
		}
		return schedule.BuildTemplate(schedule.Template{
			Start: start,
			End:   end,
			Slot:  time.Duration(t.Duration) * time.Minute,
			Break: time.Duration(t.Break) * time.Minute,
		}, now)
	}

	entries := make([]schedule.Entry, 0, len(c.ScheduleDict))
	for _, w := range c.ScheduleDict {
		start, err := schedule.ParseClock(w.Start)
		if err != nil {
			return nil, err
		}
		end, err := schedule.ParseClock(w.End)
		if err != nil {
			return nil, err
		}
		entries = append(entries, schedule.Entry{Start: start, End: end})
	}
	return schedule.BuildExplicit(entries, now), nil
}

// PollEvery returns the configured poll interval or the default.
func (c *Config) PollEvery() time.Duration {
	d, err := ParseDurationField("poll_interval", c.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}
