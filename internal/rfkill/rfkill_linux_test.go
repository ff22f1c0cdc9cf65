//go:build linux

package rfkill

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsHardBlockedMissingInterfaceIsNotAnError(t *testing.T) {
	blocked, err := IsHardBlocked("nonexistent0")
	require.NoError(t, err)
	require.False(t, blocked)
}

func TestIsSoftBlockedMissingInterfaceIsNotAnError(t *testing.T) {
	blocked, err := IsSoftBlocked("nonexistent0")
	require.NoError(t, err)
	require.False(t, blocked)
}

func TestClearSoftMissingInterfaceErrors(t *testing.T) {
	err := ClearSoft("nonexistent0")
	require.Error(t, err)
}
