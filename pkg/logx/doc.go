// Package logx configures streamrec's structured logging.
//
// The package builds a zerolog root based on configuration and can emit
// log events to multiple sinks:
//   - Console (human-friendly pretty output)
//   - File (append-only JSON lines, under the recording save path)
//   - Telegram (via a Sender) with rate limiting and minimum level
//
// File writes are best-effort: a log file that cannot be opened degrades
// to console logging instead of failing the scheduler.
package logx
