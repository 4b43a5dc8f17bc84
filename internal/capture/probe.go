package capture

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"streamrec/pkg/logx"
)

// Probe watches the output directory and flags captures that never
// produce a file. Engine starts are fire-and-forget, so an unreachable
// source fails silently inside the engine; the probe turns that into a
// log line without changing the job lifecycle.
type Probe struct {
	dir   string
	grace time.Duration
	log   logx.Logger

	// onMiss is invoked when an expected file has not appeared within the
	// grace period. Overridable for tests.
	onMiss func(stream, path string)

	w      *fsnotify.Watcher
	mu     sync.Mutex
	seen   map[string]bool       // base name -> file observed
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

func NewProbe(dir string, grace time.Duration, log logx.Logger) (*Probe, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	p := &Probe{
		dir:    dir,
		grace:  grace,
		log:    log,
		w:      w,
		seen:   map[string]bool{},
		timers: map[string]*time.Timer{},
	}
	p.onMiss = func(stream, path string) {
		p.log.Warn("capture produced no output within grace period",
			logx.String("stream", stream),
			logx.String("output", path),
			logx.Duration("grace", grace))
	}

	p.wg.Add(1)
	go p.watch()
	return p, nil
}

// Expect arms the probe for one capture's output path.
func (p *Probe) Expect(stream, path string) {
	name := filepath.Base(path)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.seen[name] = false
	p.timers[name] = time.AfterFunc(p.grace, func() {
		p.expire(stream, name, path)
	})
	p.mu.Unlock()

	// The file may have been created before the watch delivered anything.
	if _, err := os.Stat(path); err == nil {
		p.observe(name)
	}
}

func (p *Probe) expire(stream, name, path string) {
	p.mu.Lock()
	appeared, tracked := p.seen[name]
	delete(p.seen, name)
	delete(p.timers, name)
	miss := p.onMiss
	p.mu.Unlock()

	if tracked && !appeared && miss != nil {
		miss(stream, path)
	}
}

func (p *Probe) observe(name string) {
	p.mu.Lock()
	if _, tracked := p.seen[name]; tracked {
		p.seen[name] = true
		if t := p.timers[name]; t != nil {
			t.Stop()
		}
		delete(p.seen, name)
		delete(p.timers, name)
	}
	p.mu.Unlock()
}

func (p *Probe) watch() {
	defer p.wg.Done()
	for {
		select {
		case ev, ok := <-p.w.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				p.observe(filepath.Base(ev.Name))
			}
		case err, ok := <-p.w.Errors:
			if !ok {
				return
			}
			p.log.Debug("output watcher error", logx.Err(err))
		}
	}
}

func (p *Probe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = map[string]*time.Timer{}
	p.seen = map[string]bool{}
	p.mu.Unlock()

	err := p.w.Close()
	p.wg.Wait()
	return err
}
