package chancontrol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dauie/capture-linux-wifi/internal/chanmodel"
)

type stubSetter struct {
	failures  int
	calls     int
	failUntil int
}

func (s *stubSetter) SetChannel(_ *chanmodel.Parsed) error {
	s.calls++
	if s.calls <= s.failUntil {
		return errors.New("device or resource busy")
	}
	return nil
}

type recordingSink struct {
	errors      []string
	fatals      []string
	configresps []string
}

func (r *recordingSink) Error(msg string)             { r.errors = append(r.errors, msg) }
func (r *recordingSink) Fatal(msg string)              { r.fatals = append(r.fatals, msg) }
func (r *recordingSink) ConfigureResponse(channel string) { r.configresps = append(r.configresps, channel) }

func TestHoppingTolerance(t *testing.T) {
	setter := &stubSetter{failUntil: 10}
	sink := &recordingSink{}
	counter := 0
	ctrl := &Controller{Setter: setter, Sink: sink, Counter: &counter}

	p := &chanmodel.Parsed{ControlFreq: 6}
	for i := 0; i < 11; i++ {
		err := ctrl.Apply(p, 0)
		require.NoError(t, err)
	}
	require.Len(t, sink.errors, 10)
	require.Empty(t, sink.fatals)
	require.Equal(t, 0, counter)
}

func TestHoppingEscalation(t *testing.T) {
	setter := &stubSetter{failUntil: 11}
	sink := &recordingSink{}
	counter := 0
	ctrl := &Controller{Setter: setter, Sink: sink, Counter: &counter}

	p := &chanmodel.Parsed{ControlFreq: 6}
	var lastErr error
	for i := 0; i < 11; i++ {
		lastErr = ctrl.Apply(p, 0)
	}
	require.Error(t, lastErr)
	require.Len(t, sink.fatals, 1)
}

func TestExplicitSetIsStrict(t *testing.T) {
	setter := &stubSetter{failUntil: 1}
	sink := &recordingSink{}
	counter := 0
	ctrl := &Controller{Setter: setter, Sink: sink, Counter: &counter}

	err := ctrl.Apply(&chanmodel.Parsed{ControlFreq: 6}, 42)
	require.Error(t, err)
	require.Len(t, sink.fatals, 1)
	require.Empty(t, sink.errors)
}

func TestExplicitSetSuccessEmitsConfigResp(t *testing.T) {
	setter := &stubSetter{failUntil: 0}
	sink := &recordingSink{}
	counter := 0
	ctrl := &Controller{Setter: setter, Sink: sink, Counter: &counter}

	p, _, err := chanmodel.Parse("36VHT80")
	require.NoError(t, err)

	require.NoError(t, ctrl.Apply(p, 42))
	require.Len(t, sink.configresps, 1)
	require.Equal(t, chanmodel.Render(p), sink.configresps[0])
}
