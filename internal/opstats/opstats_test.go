package opstats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionAccumulatesCounters(t *testing.T) {
	s := NewSession("wlan0", "wlan0mon", "nl80211")
	s.RecordFrame(100)
	s.RecordFrame(50)
	s.RecordError()
	s.SetChannelFailures(3)
	s.RecordConfigure("36VHT80")

	snap := s.Snapshot()
	require.EqualValues(t, 2, snap.FramesRx)
	require.EqualValues(t, 150, snap.BytesRx)
	require.EqualValues(t, 1, snap.Errors)
	require.Equal(t, 3, snap.ChannelFailures)
	require.Equal(t, "36VHT80", snap.LastChannel)
	require.EqualValues(t, 1, snap.ConfigureCount)
}
