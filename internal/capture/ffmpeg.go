package capture

import (
	"context"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"streamrec/pkg/logx"
)

const (
	// defaultBufferSize bounds the receive buffer for datagram sources.
	// Large enough to ride out scheduler hiccups, small enough to keep
	// memory per capture predictable.
	defaultBufferSize = 2 << 20

	// stopGrace is how long Stop waits for ffmpeg to finalize the output
	// container after SIGINT before killing it.
	stopGrace = 5 * time.Second
)

// FFmpeg runs one ffmpeg process per capture, remuxing the source into
// an MPEG-TS file with audio disabled.
type FFmpeg struct {
	// Binary overrides the ffmpeg executable path. Empty means "ffmpeg"
	// from PATH.
	Binary string

	// BufferSize is the receive buffer in bytes applied to udp/rtp/rtsp
	// sources. Zero means defaultBufferSize.
	BufferSize int

	log logx.Logger
}

func NewFFmpeg(log logx.Logger) *FFmpeg {
	return &FFmpeg{log: log}
}

// Check verifies the ffmpeg binary is reachable. Called once at startup
// so a missing engine fails before the loop begins.
func (f *FFmpeg) Check() error {
	_, err := exec.LookPath(f.binary())
	return err
}

// Start spawns ffmpeg and returns immediately. The process keeps writing
// to outputPath until the handle is stopped; exit status is collected by
// a reaper goroutine and logged, never returned to the caller.
func (f *FFmpeg) Start(ctx context.Context, uri, outputPath string) (Handle, error) {
	cmd := exec.CommandContext(ctx, f.binary(), f.buildArgs(uri, outputPath)...)

	// Keep ffmpeg's own diagnostics next to the recording.
	var stderr *os.File
	if lf, err := os.Create(outputPath + ".ffmpeg.log"); err == nil {
		cmd.Stderr = lf
		stderr = lf
	}

	if err := cmd.Start(); err != nil {
		if stderr != nil {
			_ = stderr.Close()
		}
		return nil, err
	}

	h := &procHandle{
		cmd:    cmd,
		stderr: stderr,
		log:    f.log.With(logx.String("output", outputPath)),
		done:   make(chan struct{}),
	}
	go h.reap()
	return h, nil
}

func (f *FFmpeg) binary() string {
	if strings.TrimSpace(f.Binary) != "" {
		return f.Binary
	}
	return "ffmpeg"
}

func (f *FFmpeg) buildArgs(uri, outputPath string) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "warning"}

	if bufferedScheme(uri) {
		size := f.BufferSize
		if size <= 0 {
			size = defaultBufferSize
		}
		args = append(args, "-buffer_size", strconv.Itoa(size))
	}

	args = append(args,
		"-i", uri,
		"-an",
		"-c", "copy",
		"-f", "mpegts",
		"-y", outputPath,
	)
	return args
}

// bufferedScheme reports whether the source protocol honours a receive
// buffer option (datagram transports).
func bufferedScheme(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "udp", "rtp", "rtsp":
		return true
	}
	return false
}

type procHandle struct {
	cmd    *exec.Cmd
	stderr *os.File
	log    logx.Logger

	stopOnce sync.Once
	done     chan struct{}
}

func (h *procHandle) reap() {
	err := h.cmd.Wait()
	if h.stderr != nil {
		_ = h.stderr.Close()
	}
	if err != nil {
		// Expected for stopped captures (SIGINT/kill); worth a line for
		// everything else, e.g. an unreachable source exiting early.
		h.log.Debug("capture process exited", logx.Err(err))
	}
	close(h.done)
}

// Stop interrupts ffmpeg so it finalizes the container, then kills it if
// it does not exit within the grace period.
func (h *procHandle) Stop() {
	h.stopOnce.Do(func() {
		if err := h.cmd.Process.Signal(os.Interrupt); err != nil {
			// Already gone, or signalling unsupported; fall through to
			// waiting, the reaper closes done either way.
			h.log.Debug("interrupt failed", logx.Err(err))
		}
		select {
		case <-h.done:
		case <-time.After(stopGrace):
			_ = h.cmd.Process.Kill()
			<-h.done
		}
	})
}
