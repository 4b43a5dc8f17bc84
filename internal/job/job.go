package job

import (
	"streamrec/internal/capture"
	"streamrec/internal/schedule"
)

// State tags a job's position in its lifecycle. Keeping the tag on the
// record (instead of encoding state by collection membership) means a job
// is always in exactly one state.
type State int

const (
	Pending State = iota
	Recording
	Finished
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Recording:
		return "recording"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Source is one configured network stream.
type Source struct {
	URI  string
	Name string
}

// Job pairs one stream source with one time window. Handle and Output are
// set only while the job is Recording; the poll loop is the sole mutator.
type Job struct {
	ID     int
	Source Source
	Window schedule.Window
	State  State

	Handle capture.Handle
	Output string
}

// Build produces one pending job per (window, source) pair in window-major
// order, assigning contiguous IDs starting at 0. Deterministic for
// identical inputs.
func Build(sources []Source, windows []schedule.Window) []*Job {
	jobs := make([]*Job, 0, len(sources)*len(windows))
	id := 0
	for _, w := range windows {
		for _, src := range sources {
			jobs = append(jobs, &Job{ID: id, Source: src, Window: w, State: Pending})
			id++
		}
	}
	return jobs
}
