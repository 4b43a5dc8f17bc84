//go:build !linux
// +build !linux

package app

func notifyReady()    {}
func notifyStopping() {}
