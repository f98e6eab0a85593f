//go:build !windows && !linux

package keyboard

// newPlatformSource returns the simulated source on platforms without a
// hook implementation. Available reports false so callers can refuse to
// start capture.
func newPlatformSource(_ Config) Source {
	return &stubSource{SimulatedSource: NewSimulated()}
}

type stubSource struct {
	*SimulatedSource
}

// Available reports that no real capture exists on this platform.
func (s *stubSource) Available() (bool, string) {
	return false, "keyboard capture not implemented for this platform"
}
