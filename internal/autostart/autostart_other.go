//go:build !windows && !linux && !darwin

package autostart

import "errors"

var errUnsupported = errors.New("autostart is not supported on this platform")

type stubManager struct{}

func newPlatformManager(string) (Manager, error) {
	return &stubManager{}, nil
}

func (*stubManager) Enable() error          { return errUnsupported }
func (*stubManager) Disable() error         { return nil }
func (*stubManager) Enabled() (bool, error) { return false, nil }
