package nmcoord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilConnCoordinatorIsNoOp(t *testing.T) {
	c := &Coordinator{}
	require.NoError(t, c.Disown("wlan0"))
	require.NoError(t, c.Reown("wlan0"))
	require.NoError(t, c.Close())

	managed, err := c.IsManaged("wlan0")
	require.NoError(t, err)
	require.False(t, managed)
}
