// Package runner drives recording jobs through their lifecycle.
//
// One Runner owns the job collection for the lifetime of one run. A
// single goroutine polls at a fixed interval: pending jobs whose window
// has arrived are started, recording jobs whose window has passed are
// stopped. Nothing else mutates job state, so no locking is needed.
package runner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"streamrec/internal/capture"
	"streamrec/internal/job"
	"streamrec/internal/notifier"
	"streamrec/internal/outfile"
	"streamrec/internal/storage"
	"streamrec/pkg/logx"
)

type Config struct {
	Engine   capture.Engine
	Store    storage.Store           // optional history; nil disables
	Notify   *notifier.Notifier      // optional events; nil-safe
	Probe    *capture.Probe          // optional no-output detection
	SaveDir  string
	Interval time.Duration
	Log      logx.Logger

	// Now overrides the clock for tests. Nil means time.Now.
	Now func() time.Time
}

type Runner struct {
	cfg  Config
	now  func() time.Time
	log  logx.Logger
	jobs map[int]*job.Job
}

func New(cfg Config, jobs []*job.Job) *Runner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	m := make(map[int]*job.Job, len(jobs))
	for _, j := range jobs {
		m[j.ID] = j
	}
	return &Runner{cfg: cfg, now: now, log: cfg.Log, jobs: m}
}

// Run polls until every job has finished. On context cancellation all
// live captures are stopped before returning, so every started capture
// is paired with a stop.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if r.tick(ctx) {
			r.log.Info("no schedule left, exiting")
			return nil
		}
		select {
		case <-ctx.Done():
			r.shutdown(ctx)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick runs one poll iteration and reports whether all jobs are done.
// All time comparisons use a single snapshot so a job can never be seen
// on both sides of its window within one iteration.
func (r *Runner) tick(ctx context.Context) bool {
	now := r.now()

	for _, id := range r.sortedIDs() {
		j := r.jobs[id]
		switch j.State {
		case job.Pending:
			switch {
			case !now.Before(j.Window.End):
				// The whole window elapsed before this job was ever
				// observed active (loop delayed past a short window).
				// Dropped without starting a capture.
				r.skip(ctx, j, now)
			case j.Window.Contains(now):
				r.start(ctx, j, now)
			}
		case job.Recording:
			if !now.Before(j.Window.End) {
				r.stop(ctx, j, now)
			}
		}
	}
	return len(r.jobs) == 0
}

func (r *Runner) start(ctx context.Context, j *job.Job, now time.Time) {
	out, err := outfile.Generate(j.Source.Name, r.cfg.SaveDir, now)
	if err != nil {
		r.log.Error("output path generation failed",
			logx.Int("job", j.ID), logx.String("stream", j.Source.Name), logx.Err(err))
		r.discard(ctx, j, now, storage.StatusFailed, err.Error())
		return
	}

	h, err := r.cfg.Engine.Start(ctx, j.Source.URI, out)
	if err != nil {
		r.log.Error("failed to start capture",
			logx.Int("job", j.ID), logx.String("stream", j.Source.Name), logx.Err(err))
		r.discard(ctx, j, now, storage.StatusFailed, err.Error())
		return
	}

	j.Handle = h
	j.Output = out
	j.State = job.Recording

	r.log.Info("started recording",
		logx.Int("job", j.ID),
		logx.String("stream", j.Source.Name),
		logx.String("output", out),
		logx.Time("until", j.Window.End))
	r.cfg.Notify.Event(fmt.Sprintf("started recording: %s (until %s)",
		j.Source.Name, j.Window.End.Format("15:04:05")))
	if r.cfg.Probe != nil {
		r.cfg.Probe.Expect(j.Source.Name, out)
	}
}

func (r *Runner) stop(ctx context.Context, j *job.Job, now time.Time) {
	j.Handle.Stop()
	j.Handle = nil
	j.State = job.Finished

	r.log.Info("finished recording",
		logx.Int("job", j.ID),
		logx.String("stream", j.Source.Name),
		logx.String("output", j.Output))
	r.cfg.Notify.Event(fmt.Sprintf("finished recording: %s", j.Source.Name))
	r.record(ctx, j, now, storage.StatusRecorded, "")
	delete(r.jobs, j.ID)
}

// skip drops a pending job whose window fully elapsed unobserved.
func (r *Runner) skip(ctx context.Context, j *job.Job, now time.Time) {
	r.log.Warn("skipped recording: window elapsed before capture could start",
		logx.Int("job", j.ID),
		logx.String("stream", j.Source.Name),
		logx.Time("window_start", j.Window.Start),
		logx.Time("window_end", j.Window.End))
	r.cfg.Notify.Event(fmt.Sprintf("skipped recording: %s", j.Source.Name))
	r.discard(ctx, j, now, storage.StatusSkipped, "window elapsed before start")
}

// discard finalizes a job that never produced a recording.
func (r *Runner) discard(ctx context.Context, j *job.Job, now time.Time, status, reason string) {
	j.State = job.Finished
	r.record(ctx, j, now, status, reason)
	delete(r.jobs, j.ID)
}

// shutdown stops every live capture. Early termination still pairs each
// start with exactly one stop.
func (r *Runner) shutdown(ctx context.Context) {
	now := r.now()
	for _, id := range r.sortedIDs() {
		j := r.jobs[id]
		if j.State == job.Recording {
			j.Handle.Stop()
			j.Handle = nil
			j.State = job.Finished
			r.log.Info("stopped recording on shutdown",
				logx.Int("job", j.ID), logx.String("stream", j.Source.Name))
			r.record(context.WithoutCancel(ctx), j, now, storage.StatusRecorded, "interrupted by shutdown")
		}
		delete(r.jobs, id)
	}
}

// record appends a history entry. Best-effort: a failing store is logged
// and never stops the loop.
func (r *Runner) record(ctx context.Context, j *job.Job, now time.Time, status, errMsg string) {
	if r.cfg.Store == nil {
		return
	}
	e := storage.Entry{
		At:     now,
		JobID:  j.ID,
		Stream: j.Source.Name,
		URI:    j.Source.URI,
		Output: j.Output,
		Status: status,
		Start:  j.Window.Start,
		End:    j.Window.End,
		Error:  errMsg,
	}
	if err := r.cfg.Store.AppendRecording(ctx, e); err != nil {
		r.log.Warn("history append failed", logx.Int("job", j.ID), logx.Err(err))
	}
}

func (r *Runner) sortedIDs() []int {
	ids := make([]int, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
