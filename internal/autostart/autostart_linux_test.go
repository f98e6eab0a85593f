//go:build linux

package autostart

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinuxManagerLifecycle(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	mgr, err := New("/usr/local/bin/echotyped")
	require.NoError(t, err)

	enabled, err := mgr.Enabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, mgr.Enable())
	enabled, err = mgr.Enabled()
	require.NoError(t, err)
	assert.True(t, enabled)

	lm := mgr.(*linuxManager)
	data, err := os.ReadFile(lm.desktopPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Desktop Entry]")
	assert.Contains(t, string(data), "Exec=/usr/local/bin/echotyped")
	assert.Contains(t, string(data), "Name=EchoType")

	require.NoError(t, mgr.Disable())
	enabled, err = mgr.Enabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	// Disabling again is a no-op.
	require.NoError(t, mgr.Disable())
}
