// Package app wires configuration, logging, storage and the poll loop
// into one recording cycle, and optionally repeats that cycle on a daily
// cron cadence.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"streamrec/internal/capture"
	"streamrec/internal/config"
	"streamrec/internal/job"
	"streamrec/internal/notifier"
	"streamrec/internal/runner"
	"streamrec/internal/storage"
	"streamrec/pkg/logx"
)

type Options struct {
	ConfigPath string
	Template   bool // build schedule from schedule_template instead of schedule_dict
	Serve      bool // keep running, repeating the full cycle daily
}

func (o Options) mode() config.Mode {
	if o.Template {
		return config.ModeTemplate
	}
	return config.ModeExplicit
}

// Run executes one recording cycle, or keeps cycling when serve mode is
// requested (by flag or by config).
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath, opts.mode())
	if err != nil {
		return err
	}
	if opts.Serve || (cfg.Daily != nil && cfg.Daily.Enabled) {
		return serve(ctx, opts, cfg)
	}
	return runCycle(ctx, opts)
}

// runCycle re-reads the config, expands today's schedule and drives the
// poll loop until every job has finished.
func runCycle(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath, opts.mode())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.SavePath, 0o755); err != nil {
		return fmt.Errorf("creating save_path: %w", err)
	}

	// Notifier first: it backs both event messages and the Telegram log
	// sink. Events and log sink are toggled independently.
	var ntf *notifier.Notifier
	var sender logx.Sender
	var eventNotifier *notifier.Notifier
	if tg := cfg.Telegram; tg != nil && (tg.Notify || tg.Log.Enabled) {
		n, err := notifier.New(notifier.Config{Token: tg.Token, ChatID: tg.ChatID}, logx.NewConsole(""))
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		ntf = n
		if tg.Log.Enabled {
			sender = n
		}
		if tg.Notify {
			eventNotifier = n
		}
	}

	logsvc, log := logx.New(buildLogConfig(cfg), sender)
	defer logsvc.Close()

	st, err := storage.Open(storageConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	if st != nil {
		defer st.Close()
	}

	engine := capture.NewFFmpeg(log)
	var probeGrace time.Duration
	if f := cfg.FFmpeg; f != nil {
		engine.Binary = f.Binary
		engine.BufferSize = f.BufferSize
		probeGrace, _ = config.ParseDurationField("ffmpeg.probe_grace", f.ProbeGrace)
	}
	if err := engine.Check(); err != nil {
		return fmt.Errorf("capture engine unavailable: %w", err)
	}

	var probe *capture.Probe
	if probeGrace > 0 {
		p, err := capture.NewProbe(cfg.SavePath, probeGrace, log)
		if err != nil {
			log.Warn("output probe unavailable", logx.Err(err))
		} else {
			probe = p
			defer probe.Close()
		}
	}

	now := time.Now()
	windows, err := cfg.Windows(opts.mode(), now)
	if err != nil {
		return &config.Error{Field: "schedule", Reason: err.Error()}
	}

	sources := make([]job.Source, 0, len(cfg.Streams))
	for _, s := range cfg.Streams {
		sources = append(sources, job.Source{URI: s.URI, Name: s.Name})
	}
	jobs := job.Build(sources, windows)

	log.Info("schedule initialized",
		logx.String("mode", opts.mode().String()),
		logx.Int("streams", len(sources)),
		logx.Int("windows", len(windows)),
		logx.Int("jobs", len(jobs)))
	if len(jobs) == 0 {
		log.Info("nothing left to record today")
		return nil
	}

	if ntf != nil {
		ntf.Start(ctx)
		defer ntf.Close()
	}

	r := runner.New(runner.Config{
		Engine:   engine,
		Store:    st,
		Notify:   eventNotifier,
		Probe:    probe,
		SaveDir:  cfg.SavePath,
		Interval: cfg.PollEvery(),
		Log:      log,
	}, jobs)
	return r.Run(ctx)
}

func buildLogConfig(cfg *config.Config) logx.Config {
	lc := logx.Config{Console: true}
	lc.File.Enabled = true
	lc.File.Path = filepath.Join(cfg.SavePath, "stream.log")

	if l := cfg.Logging; l != nil {
		lc.Level = l.Level
		if l.Console != nil {
			lc.Console = *l.Console
		}
		if l.File.Enabled != nil {
			lc.File.Enabled = *l.File.Enabled
		}
		if l.File.Path != "" {
			lc.File.Path = l.File.Path
		}
	}
	if tg := cfg.Telegram; tg != nil && tg.Log.Enabled {
		lc.Telegram = logx.TelegramConfig{
			Enabled:    true,
			MinLevel:   tg.Log.MinLevel,
			RatePerSec: tg.Log.RatePerSec,
		}
	}
	return lc
}

func storageConfig(cfg *config.Config) storage.Config {
	if cfg.Storage == nil {
		return storage.Config{}
	}
	busy, _ := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}
}
