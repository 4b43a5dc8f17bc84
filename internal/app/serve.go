package app

import (
	"context"
	"errors"
	"sync"

	"github.com/robfig/cron/v3"

	"streamrec/internal/config"
	"streamrec/pkg/logx"
)

const defaultDailySpec = "0 0 * * *"

// serve repeats the full cycle (config re-read, schedule expansion, poll
// loop) on a cron cadence. The first cycle starts immediately; a cycle
// that is still running when the next trigger fires is skipped, not
// overlapped.
func serve(ctx context.Context, opts Options, cfg *config.Config) error {
	log := logx.NewConsole("")

	spec := defaultDailySpec
	if cfg.Daily != nil && cfg.Daily.Spec != "" {
		spec = cfg.Daily.Spec
	}

	var mu sync.Mutex
	cycle := func() {
		if !mu.TryLock() {
			log.Warn("previous cycle still running, skipping this trigger")
			return
		}
		defer mu.Unlock()
		if err := runCycle(ctx, opts); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("cycle failed", logx.Err(err))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, cycle); err != nil {
		return &config.Error{Field: "daily.spec", Reason: err.Error()}
	}

	notifyReady()
	defer notifyStopping()

	c.Start()
	defer func() { <-c.Stop().Done() }()

	log.Info("serving", logx.String("spec", spec))
	cycle()

	<-ctx.Done()
	return ctx.Err()
}
