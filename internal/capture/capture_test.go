package capture

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	frames [][]byte
	idx    int
	err    error
}

func (h *fakeHandle) ReadPacketData() ([]byte, CaptureInfo, error) {
	if h.idx >= len(h.frames) {
		if h.err != nil {
			return nil, CaptureInfo{}, h.err
		}
		return nil, CaptureInfo{}, io.EOF
	}
	f := h.frames[h.idx]
	h.idx++
	return f, CaptureInfo{Timestamp: time.Now(), CaptureLength: len(f)}, nil
}

type fakeSink struct {
	results  []int
	call     int
	waits    int
	sent     [][]byte
}

func (s *fakeSink) SendData(_ time.Time, _ int, _ int, data []byte) int {
	r := s.results[s.call]
	s.call++
	if r > 0 {
		s.sent = append(s.sent, data)
	}
	return r
}

func (s *fakeSink) Wait() { s.waits++ }

func TestBackpressureParksThenDelivers(t *testing.T) {
	handle := &fakeHandle{frames: [][]byte{{0xde, 0xad}}}
	sink := &fakeSink{results: []int{0, 0, 0, 1}}

	err := Loop(handle, 127, sink, nil)
	require.NoError(t, err)
	require.Equal(t, 3, sink.waits)
	require.Len(t, sink.sent, 1)
}

func TestCaptureTeardownHintWhenInterfaceDown(t *testing.T) {
	handle := &fakeHandle{err: errors.New("device removed")}
	sink := &fakeSink{}
	flags := func() (uint32, error) { return 0, nil }

	err := Loop(handle, 127, sink, flags)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no longer up")
}

func TestCaptureTeardownNoHintWhenInterfaceStillUp(t *testing.T) {
	handle := &fakeHandle{err: errors.New("device removed")}
	sink := &fakeSink{}
	flags := func() (uint32, error) { return iffUp, nil }

	err := Loop(handle, 127, sink, flags)
	require.Error(t, err)
	require.NotContains(t, err.Error(), "no longer up")
}
