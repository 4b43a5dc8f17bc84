package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"streamrec/internal/capture"
	"streamrec/internal/job"
	"streamrec/internal/schedule"
	"streamrec/internal/storage"
	"streamrec/pkg/logx"
)

type fakeHandle struct {
	stopped int
}

func (h *fakeHandle) Stop() { h.stopped++ }

type fakeEngine struct {
	failURI string
	starts  []*fakeHandle
	uris    []string
}

func (e *fakeEngine) Start(_ context.Context, uri, _ string) (capture.Handle, error) {
	if uri == e.failURI {
		return nil, errors.New("connection refused")
	}
	h := &fakeHandle{}
	e.starts = append(e.starts, h)
	e.uris = append(e.uris, uri)
	return h, nil
}

type memStore struct {
	entries []storage.Entry
}

func (s *memStore) AppendRecording(_ context.Context, e storage.Entry) error {
	s.entries = append(s.entries, e)
	return nil
}

func (s *memStore) ListRecordings(_ context.Context, _ int) ([]storage.Entry, error) {
	return s.entries, nil
}

func (s *memStore) Close() error { return nil }

var base = time.Date(2026, 8, 25, 10, 0, 0, 0, time.Local)

type clock struct {
	now time.Time
}

func (c *clock) get() time.Time { return c.now }

func window(startOffset, endOffset time.Duration) schedule.Window {
	return schedule.Window{Start: base.Add(startOffset), End: base.Add(endOffset)}
}

func newTestRunner(t *testing.T, jobs []*job.Job, engine capture.Engine, st storage.Store, clk *clock) *Runner {
	t.Helper()
	return New(Config{
		Engine:   engine,
		Store:    st,
		SaveDir:  t.TempDir(),
		Interval: time.Second,
		Log:      logx.Nop(),
		Now:      clk.get,
	}, jobs)
}

func assertStates(t *testing.T, r *Runner) {
	t.Helper()
	for id, j := range r.jobs {
		if j.State != job.Pending && j.State != job.Recording {
			t.Fatalf("job %d held in state %v; finished jobs must be removed", id, j.State)
		}
		if (j.State == job.Recording) != (j.Handle != nil) {
			t.Fatalf("job %d state %v with handle=%v", id, j.State, j.Handle)
		}
	}
}

func TestLifecycle(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{}
	st := &memStore{}
	clk := &clock{now: base}
	jobs := job.Build(
		[]job.Source{{URI: "udp://239.0.0.1:1234", Name: "Cam A"}},
		[]schedule.Window{window(10*time.Second, 30*time.Second)},
	)
	r := newTestRunner(t, jobs, eng, st, clk)

	// Before the window: nothing happens.
	if done := r.tick(context.Background()); done {
		t.Fatal("runner drained with a pending job")
	}
	if len(eng.starts) != 0 {
		t.Fatal("capture started before window")
	}
	assertStates(t, r)

	// Window start arrives.
	clk.now = base.Add(10 * time.Second)
	r.tick(context.Background())
	if len(eng.starts) != 1 {
		t.Fatalf("got %d captures, want 1", len(eng.starts))
	}
	if jobs[0].State != job.Recording {
		t.Fatalf("state = %v, want recording", jobs[0].State)
	}
	assertStates(t, r)

	// Inside the window: still recording.
	clk.now = base.Add(20 * time.Second)
	r.tick(context.Background())
	if eng.starts[0].stopped != 0 {
		t.Fatal("capture stopped while window still open")
	}

	// Window end: stopped and drained.
	clk.now = base.Add(30 * time.Second)
	if done := r.tick(context.Background()); !done {
		t.Fatal("runner should be drained")
	}
	if eng.starts[0].stopped != 1 {
		t.Fatalf("handle stopped %d times, want 1", eng.starts[0].stopped)
	}
	if len(st.entries) != 1 || st.entries[0].Status != storage.StatusRecorded {
		t.Fatalf("history = %+v, want one recorded entry", st.entries)
	}
}

func TestStopOnFirstTickAfterEnd(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{}
	clk := &clock{now: base}
	jobs := job.Build(
		[]job.Source{{URI: "udp://a", Name: "A"}},
		[]schedule.Window{window(0, time.Minute)},
	)
	r := newTestRunner(t, jobs, eng, nil, clk)

	r.tick(context.Background())
	if len(eng.starts) != 1 {
		t.Fatal("capture not started")
	}

	// The loop was delayed well past the window end; the very next tick
	// must stop the capture regardless of how long it has run.
	clk.now = base.Add(3 * time.Hour)
	if done := r.tick(context.Background()); !done {
		t.Fatal("runner should be drained")
	}
	if eng.starts[0].stopped != 1 {
		t.Fatal("capture not stopped on first tick after window end")
	}
}

func TestMissedWindowSkippedWithoutStart(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{}
	st := &memStore{}
	clk := &clock{now: base.Add(time.Hour)}
	jobs := job.Build(
		[]job.Source{{URI: "udp://a", Name: "A"}},
		[]schedule.Window{window(0, 30*time.Second)},
	)
	r := newTestRunner(t, jobs, eng, st, clk)

	if done := r.tick(context.Background()); !done {
		t.Fatal("runner should be drained after dropping the missed job")
	}
	if len(eng.starts) != 0 {
		t.Fatal("missed job must never start a capture")
	}
	if len(st.entries) != 1 || st.entries[0].Status != storage.StatusSkipped {
		t.Fatalf("history = %+v, want one skipped entry", st.entries)
	}
}

func TestStartFailureIsolated(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{failURI: "udp://bad"}
	st := &memStore{}
	clk := &clock{now: base}
	jobs := job.Build(
		[]job.Source{
			{URI: "udp://bad", Name: "Bad"},
			{URI: "udp://good", Name: "Good"},
		},
		[]schedule.Window{window(0, time.Minute)},
	)
	r := newTestRunner(t, jobs, eng, st, clk)

	r.tick(context.Background())
	if len(eng.starts) != 1 || eng.uris[0] != "udp://good" {
		t.Fatalf("good stream not started: %v", eng.uris)
	}
	assertStates(t, r)

	var failed int
	for _, e := range st.entries {
		if e.Status == storage.StatusFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("history = %+v, want one failed entry", st.entries)
	}

	clk.now = base.Add(time.Minute)
	if done := r.tick(context.Background()); !done {
		t.Fatal("runner should be drained")
	}
	if eng.starts[0].stopped != 1 {
		t.Fatal("good capture not stopped")
	}
}

func TestShutdownStopsLiveCaptures(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{}
	st := &memStore{}
	clk := &clock{now: base}
	jobs := job.Build(
		[]job.Source{{URI: "udp://a", Name: "A"}},
		[]schedule.Window{window(0, time.Hour)},
	)
	r := newTestRunner(t, jobs, eng, st, clk)

	r.tick(context.Background())
	if len(eng.starts) != 1 {
		t.Fatal("capture not started")
	}

	r.shutdown(context.Background())
	if eng.starts[0].stopped != 1 {
		t.Fatal("shutdown must stop live captures")
	}
	if len(r.jobs) != 0 {
		t.Fatalf("%d jobs left after shutdown", len(r.jobs))
	}
	if len(st.entries) != 1 || st.entries[0].Error == "" {
		t.Fatalf("history = %+v, want an interrupted entry", st.entries)
	}
}

func TestRunDrains(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{}
	clk := &clock{now: base.Add(time.Hour)}
	jobs := job.Build(
		[]job.Source{{URI: "udp://a", Name: "A"}},
		[]schedule.Window{window(0, time.Second)},
	)
	r := New(Config{
		Engine:   eng,
		SaveDir:  t.TempDir(),
		Interval: time.Millisecond,
		Log:      logx.Nop(),
		Now:      clk.get,
	}, jobs)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
