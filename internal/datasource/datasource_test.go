package datasource

import (
	"bytes"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := frame{Type: frameMessage, Seqno: 7, Payload: []byte("hello")}
	require.NoError(t, writeFrame(&buf, in))

	out, err := readFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestFrameRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{'X', 'X', 'X', 'X', 0, 0, 0, 5, byte(frameMessage), 0, 0, 0, 0})
	_, err := readFrame(buf)
	require.Error(t, err)
}

func newTestHandler(t *testing.T) (*Handler, *os.File) {
	t.Helper()
	inR, inW, err := os.Pipe()
	require.NoError(t, err)
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		inW.Close()
		outR.Close()
	})

	h := &Handler{
		in:    inR,
		out:   outW,
		ring:  make(chan frame, 1),
		space: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go h.drain()
	return h, outR
}

func TestSendDataDeliversDataFrame(t *testing.T) {
	h, outR := newTestHandler(t)

	r1 := h.SendData(time.Now(), 127, 4, []byte{1, 2, 3, 4})
	require.Equal(t, 1, r1)

	f, err := readFrame(outR)
	require.NoError(t, err)
	require.Equal(t, frameData, f.Type)
}

func TestSendMessageEncodesText(t *testing.T) {
	h, outR := newTestHandler(t)
	h.SendMessage("ready")

	f, err := readFrame(outR)
	require.NoError(t, err)
	require.Equal(t, frameMessage, f.Type)
	require.Equal(t, "ready", string(f.Payload))
}

func TestFatalUsesSentinelSeqno(t *testing.T) {
	h, outR := newTestHandler(t)
	h.Fatal("boom")

	f, err := readFrame(outR)
	require.NoError(t, err)
	require.Equal(t, frameError, f.Type)
	require.EqualValues(t, 0xffffffff, f.Seqno)
}

func TestHandleTranslateRespondsWithRenderedChannelAndWarnings(t *testing.T) {
	h, outR := newTestHandler(t)
	h.SetChanTranslateCB(func(chanstr string) (string, []string, error) {
		return "36HT40+", []string{"assumed HT40 above"}, nil
	})

	h.handleTranslate(frame{Seqno: 3, Payload: []byte("36")})

	f, err := readFrame(outR)
	require.NoError(t, err)
	require.Equal(t, frameTranslateResp, f.Type)
	require.EqualValues(t, 3, f.Seqno)
	require.Equal(t, "36HT40+\nassumed HT40 above", string(f.Payload))
}

func TestHandleTranslateErrorSendsErrorFrame(t *testing.T) {
	h, outR := newTestHandler(t)
	h.SetChanTranslateCB(func(chanstr string) (string, []string, error) {
		return "", nil, fmt.Errorf("bad channel string")
	})

	h.handleTranslate(frame{Seqno: 9, Payload: []byte("garbage")})

	f, err := readFrame(outR)
	require.NoError(t, err)
	require.Equal(t, frameError, f.Type)
	require.EqualValues(t, 9, f.Seqno)
}

func TestHandleOpenDrivesRegisteredCaptureCB(t *testing.T) {
	h, outR := newTestHandler(t)
	called := make(chan struct{})
	h.SetOpenCB(func(definition string) (string, int, error) {
		return "wlan0mon", 127, nil
	})
	h.SetCaptureCB(func() error {
		close(called)
		return nil
	})

	h.handleOpen(frame{Payload: []byte("interface=wlan0")})

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("captureCB was never invoked by handleOpen")
	}

	f, err := readFrame(outR)
	require.NoError(t, err)
	require.Equal(t, frameMessage, f.Type)
}

func TestHandleOpenCaptureCBFailureSendsFatalAndSpindown(t *testing.T) {
	h, outR := newTestHandler(t)
	h.SetOpenCB(func(definition string) (string, int, error) {
		return "wlan0mon", 127, nil
	})
	h.SetCaptureCB(func() error {
		return fmt.Errorf("interface disappeared")
	})

	h.handleOpen(frame{Payload: []byte("interface=wlan0")})

	_, err := readFrame(outR) // the "opened" message
	require.NoError(t, err)
	f, err := readFrame(outR) // the fatal error from the failed captureCB
	require.NoError(t, err)
	require.Equal(t, frameError, f.Type)
	require.EqualValues(t, 0xffffffff, f.Seqno)

	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("Spindown was never called after captureCB failed")
	}
}

func TestSendDataAfterSpindownReturnsErrorWithoutPanic(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Spindown()

	require.Equal(t, -1, h.SendData(time.Now(), 127, 4, []byte{1, 2, 3, 4}))
}
