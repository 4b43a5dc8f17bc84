package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a half-open interval [Start, End) during which one recording
// job is considered active.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return w.Start.Format("15:04:05") + "-" + w.End.Format("15:04:05")
}

// Template describes a recurring slot pattern for one day.
// Start and End are offsets from midnight; Slot is the length of each
// recording window and Break the gap between consecutive windows.
type Template struct {
	Start time.Duration
	End   time.Duration
	Slot  time.Duration
	Break time.Duration
}

// Entry is one explicitly configured time-of-day window.
type Entry struct {
	Start time.Duration
	End   time.Duration
}

// BuildTemplate expands tpl into concrete windows for the calendar day of
// now. A template whose start has already passed is truncated to now, not
// skipped. Windows step by Slot+Break; generation stops as soon as a
// window would start at or past the template end.
func BuildTemplate(tpl Template, now time.Time) ([]Window, error) {
	if tpl.Slot <= 0 {
		return nil, errors.New("slot duration must be positive")
	}
	if tpl.Break < 0 {
		return nil, errors.New("break duration must not be negative")
	}

	cursor := atClock(now, tpl.Start)
	end := atClock(now, tpl.End)
	if cursor.Before(now) {
		cursor = now
	}

	var windows []Window
	for cursor.Before(end) {
		windows = append(windows, Window{Start: cursor, End: cursor.Add(tpl.Slot)})
		cursor = cursor.Add(tpl.Slot + tpl.Break)
	}
	return windows, nil
}

// BuildExplicit maps each configured entry onto the calendar day of now,
// verbatim. No clipping against now, no ordering requirement; overlapping
// windows are the caller's responsibility.
func BuildExplicit(entries []Entry, now time.Time) []Window {
	windows := make([]Window, 0, len(entries))
	for _, e := range entries {
		windows = append(windows, Window{
			Start: atClock(now, e.Start),
			End:   atClock(now, e.End),
		})
	}
	return windows
}

// atClock pins a time-of-day offset onto the calendar date of day.
func atClock(day time.Time, clock time.Duration) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(clock)
}

// ParseClock parses "HH:MM:SS" (seconds optional) into an offset from
// midnight.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM:SS)", s)
	}

	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
		}
		vals[i] = n
	}

	h, m, sec := vals[0], vals[1], vals[2]
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}
