//go:build !windows && !linux

package clipboard

import (
	"os/exec"
	"runtime"
)

type otherAccessor struct{}

func newPlatformAccessor() Accessor {
	return &otherAccessor{}
}

func (o *otherAccessor) GetText() (string, error) {
	if runtime.GOOS == "darwin" {
		out, err := exec.Command("pbpaste").Output()
		if err == nil {
			return string(out), nil
		}
	}
	return "", nil
}
