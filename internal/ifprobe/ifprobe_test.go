package ifprobe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListWirelessInterfacesNeverErrors(t *testing.T) {
	_, err := ListWirelessInterfaces()
	require.NoError(t, err)
}

func TestChannelListFallsBackWithoutNetlink(t *testing.T) {
	_, err := ChannelList("nonexistent0", 0, nil, nil)
	require.Error(t, err)
}
