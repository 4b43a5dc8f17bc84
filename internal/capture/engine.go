// Package capture wraps the external media engine that performs the
// actual stream demuxing and muxing to disk. The engine is a black box:
// Start launches capture asynchronously and Stop tears it down; capture
// failures are not surfaced synchronously (the Probe narrows that gap).
package capture

import "context"

// Handle is an opaque reference to one in-progress capture. Stop requests
// cessation and then releases all resources; it is safe to call more than
// once, only the first call has effect.
type Handle interface {
	Stop()
}

// Engine starts captures. Start must return promptly: the capture runs
// independently until the returned handle is stopped.
type Engine interface {
	Start(ctx context.Context, uri, outputPath string) (Handle, error)
}
