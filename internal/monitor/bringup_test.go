package monitor

import (
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSyntheticUUIDIsDeterministic(t *testing.T) {
	mac := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	require.Equal(t, syntheticUUID(mac), syntheticUUID(mac))
	require.Regexp(t, `^[0-9a-f]{8}-0000-0000-0000-001122334455$`, syntheticUUID(mac))
}

func TestBringupRequiresInterfaceFlag(t *testing.T) {
	_, err := Bringup(SourceDefinition{}, zerolog.Nop())
	require.Error(t, err)
}
