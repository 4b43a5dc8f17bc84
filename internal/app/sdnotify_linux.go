//go:build linux
// +build linux

package app

import "github.com/coreos/go-systemd/v22/daemon"

// sd_notify integration for running under a systemd unit with
// Type=notify. Both calls are no-ops outside systemd.

func notifyReady() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
}

func notifyStopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}
