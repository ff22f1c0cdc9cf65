//go:build linux

package wext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreqRoundTrip(t *testing.T) {
	cases := []uint32{2412, 2437, 5180, 5825, 5955}
	for _, mhz := range cases {
		b := encodeFreqMHz(mhz)
		got := decodeFreq(b[:])
		require.Equal(t, mhz, got)
	}
}

func TestNewIwreqRejectsOverlongName(t *testing.T) {
	_, err := newIwreq("wlan0-way-too-long-an-interface-name")
	require.Error(t, err)
}

func TestNewIwreqCopiesName(t *testing.T) {
	req, err := newIwreq("wlan0")
	require.NoError(t, err)
	require.Equal(t, "wlan0", string(req.name[:5]))
	require.Zero(t, req.name[5])
}
