package chanmodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"1", "6", "14",
		"5HT40+", "6HT40-",
		"36W5", "36W10",
		"5180VHT80", "5500VHT160",
		"36VHT80-5250", "100VHT160-5600",
	}

	for _, s := range cases {
		s := s
		t.Run(s, func(t *testing.T) {
			p, _, err := Parse(s)
			require.NoError(t, err)
			require.Equal(t, s, Render(p))
		})
	}
}

func TestParseVHTValidation(t *testing.T) {
	p, warnings, err := Parse("36VHT80")
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, ChanWidthVHT80, p.ChanWidth)
	require.EqualValues(t, 5210, p.CenterFreq1)
	require.False(t, p.UnusualCenter1)

	_, _, err = Parse("36VHT160")
	require.Error(t, err)

	p, _, err = Parse("36VHT80-5250")
	require.NoError(t, err)
	require.EqualValues(t, 5250, p.CenterFreq1)
	require.True(t, p.UnusualCenter1)
	require.Equal(t, "36VHT80-5250", Render(p))
}

func TestParseHT40WarnsNotFails(t *testing.T) {
	p, warnings, err := Parse("1HT40+")
	require.NoError(t, err)
	require.Equal(t, ChanTypeHT40Plus, p.ChanType)
	require.Len(t, warnings, 1)
	require.Equal(t, "1HT40+", Render(p))
}

func TestParseUnknownSuffixDegrades(t *testing.T) {
	p, warnings, err := Parse("6FOO")
	require.NoError(t, err)
	require.Equal(t, ChanTypeNoHT, p.ChanType)
	require.Equal(t, ChanWidthDefault20, p.ChanWidth)
	require.EqualValues(t, 6, p.ControlFreq)
	require.Len(t, warnings, 1)
}

func TestParseGarbageIsFatal(t *testing.T) {
	_, _, err := Parse("not-a-channel")
	require.Error(t, err)
}
