package wext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModeString(t *testing.T) {
	cases := map[Mode]string{
		ModeAuto:    "auto",
		ModeAdHoc:   "ad-hoc",
		ModeManaged: "managed",
		ModeMaster:  "master",
		ModeRepeat:  "repeater",
		ModeSecond:  "secondary",
		ModeMonitor: "monitor",
		Mode(99):    "auto",
	}
	for mode, want := range cases {
		require.Equal(t, want, mode.String())
	}
}
