package datasource

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"
)

const ringCapacity = 256

// OpenFunc brings a source definition up and returns the resulting
// capture interface name and datalink type, or an error message.
type OpenFunc func(definition string) (capIface string, dlt int, err error)

// ProbeFunc reports whether a source definition names a usable interface.
type ProbeFunc func(definition string) (usable bool, err error)

// ListFunc answers the LIST command with device_name=flags pairs.
type ListFunc func() ([]string, error)

// ChanTranslateFunc parses a channel string (C1).
type ChanTranslateFunc func(chanstr string) (rendered string, warnings []string, err error)

// ChanControlFunc applies a channel string by seqno (C4); seqno 0 is the
// internal hopper, any other value an explicit parent request.
type ChanControlFunc func(chanstr string, seqno uint32) error

// CaptureFunc runs the capture loop (C5) to completion, blocking until
// the interface goes away or capture is torn down. Its error is fatal.
type CaptureFunc func() error

// Handler is the local stand-in for the out-of-scope capture framework.
// It owns the fd-pair, dispatches inbound frames to registered callbacks,
// and exposes SendData/SendMessage/SendError to the rest of the module.
// It implements both capture.FrameSink and chancontrol.Sink so C4 and C5
// can hand it their output without this package importing either.
type Handler struct {
	in  *os.File
	out *os.File

	openCB          OpenFunc
	probeCB         ProbeFunc
	listCB          ListFunc
	chanTranslateCB ChanTranslateFunc
	chanControlCB   ChanControlFunc
	captureCB       CaptureFunc

	hopShuffleSpacing int

	mu       sync.Mutex
	ring     chan frame
	space    chan struct{}
	writeErr error
	done     chan struct{}
}

// NewHandler wraps the fd pair the parent passed via --in-fd/--out-fd.
func NewHandler(inFD, outFD int) *Handler {
	h := &Handler{
		in:    os.NewFile(uintptr(inFD), "datasource-in"),
		out:   os.NewFile(uintptr(outFD), "datasource-out"),
		ring:  make(chan frame, ringCapacity),
		space: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go h.drain()
	return h
}

func (h *Handler) SetOpenCB(fn OpenFunc)                   { h.openCB = fn }
func (h *Handler) SetProbeCB(fn ProbeFunc)                 { h.probeCB = fn }
func (h *Handler) SetListCB(fn ListFunc)                   { h.listCB = fn }
func (h *Handler) SetChanTranslateCB(fn ChanTranslateFunc) { h.chanTranslateCB = fn }
func (h *Handler) SetChanControlCB(fn ChanControlFunc)     { h.chanControlCB = fn }
func (h *Handler) SetCaptureCB(fn CaptureFunc)             { h.captureCB = fn }

// SetHopShuffleSpacing records the hop scheduler's shuffle spacing. The
// scheduler itself lives in the out-of-scope framework; this is a no-op
// setter kept so C6's wiring step has somewhere to put the value.
func (h *Handler) SetHopShuffleSpacing(n int) { h.hopShuffleSpacing = n }

func (h *Handler) drain() {
	for {
		select {
		case f, ok := <-h.ring:
			if !ok {
				return
			}
			if err := writeFrame(h.out, f); err != nil {
				h.mu.Lock()
				h.writeErr = err
				h.mu.Unlock()
				return
			}
			select {
			case h.space <- struct{}{}:
			default:
			}
		case <-h.done:
			// Deliver whatever was queued before Spindown so a final
			// message or fatal error still reaches the parent.
			for {
				select {
				case f := <-h.ring:
					if err := writeFrame(h.out, f); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// SendData implements capture.FrameSink. Returns <0 on a hard write
// failure, 0 when the ring buffer is full, >0 on success.
func (h *Handler) SendData(ts time.Time, dlt int, caplen int, data []byte) int {
	h.mu.Lock()
	failed := h.writeErr != nil
	h.mu.Unlock()
	if failed {
		return -1
	}

	payload := make([]byte, 8+4+4+len(data))
	binary.BigEndian.PutUint64(payload[0:8], uint64(ts.UnixMicro()))
	binary.BigEndian.PutUint32(payload[8:12], uint32(dlt))
	binary.BigEndian.PutUint32(payload[12:16], uint32(caplen))
	copy(payload[16:], data)

	select {
	case <-h.done:
		return -1
	default:
	}

	select {
	case h.ring <- frame{Type: frameData, Payload: payload}:
		return 1
	default:
		return 0
	}
}

// Wait implements capture.FrameSink: block until the drain goroutine has
// freed at least one ring slot.
func (h *Handler) Wait() { <-h.space }

// SendMessage emits an informational message.
func (h *Handler) SendMessage(msg string) { h.enqueueText(frameMessage, 0, msg) }

// SendError emits an error. seqno 0 is a non-fatal, hopping-tolerated
// error; non-zero echoes the seqno of the request that failed.
func (h *Handler) SendError(msg string, seqno uint32) { h.enqueueText(frameError, seqno, msg) }

// Error implements chancontrol.Sink.
func (h *Handler) Error(msg string) { h.SendError(msg, 0) }

// Fatal implements chancontrol.Sink: a fatal error always carries a
// distinguished seqno of 0xffffffff so the parent can tell it apart from
// a tolerated hopping error.
func (h *Handler) Fatal(msg string) { h.enqueueText(frameError, 0xffffffff, msg) }

// ConfigureResponse implements chancontrol.Sink.
func (h *Handler) ConfigureResponse(channel string) { h.enqueueText(frameConfigResp, 0, channel) }

func (h *Handler) enqueueText(t frameType, seqno uint32, text string) {
	select {
	case h.ring <- frame{Type: t, Seqno: seqno, Payload: []byte(text)}:
	case <-h.done:
	}
}

// Loop reads inbound frames from the control fd and dispatches them to
// registered callbacks until the fd closes or Spindown is called.
func (h *Handler) Loop() error {
	for {
		select {
		case <-h.done:
			return nil
		default:
		}

		f, err := readFrame(h.in)
		if err != nil {
			return fmt.Errorf("read control frame: %w", err)
		}

		switch f.Type {
		case frameOpen:
			h.handleOpen(f)
		case frameProbe:
			h.handleProbe(f)
		case frameList:
			h.handleList(f)
		case frameConfigure:
			h.handleConfigure(f)
		case frameTranslate:
			h.handleTranslate(f)
		}
	}
}

func (h *Handler) handleOpen(f frame) {
	if h.openCB == nil {
		return
	}
	capIface, dlt, err := h.openCB(string(f.Payload))
	if err != nil {
		h.Fatal(err.Error())
		return
	}
	h.enqueueText(frameMessage, f.Seqno, fmt.Sprintf("opened %s (dlt=%d)", capIface, dlt))

	if h.captureCB != nil {
		go func() {
			if err := h.captureCB(); err != nil {
				h.Fatal(err.Error())
			}
			h.Spindown()
		}()
	}
}

func (h *Handler) handleTranslate(f frame) {
	if h.chanTranslateCB == nil {
		return
	}
	rendered, warnings, err := h.chanTranslateCB(string(f.Payload))
	if err != nil {
		h.SendError(err.Error(), f.Seqno)
		return
	}
	payload := rendered
	for _, w := range warnings {
		payload += "\n" + w
	}
	h.enqueueText(frameTranslateResp, f.Seqno, payload)
}

func (h *Handler) handleProbe(f frame) {
	if h.probeCB == nil {
		return
	}
	usable, err := h.probeCB(string(f.Payload))
	if err != nil || !usable {
		h.Fatal("interface not usable")
		return
	}
	h.enqueueText(frameMessage, f.Seqno, "probe ok")
}

func (h *Handler) handleList(f frame) {
	if h.listCB == nil {
		return
	}
	entries, err := h.listCB()
	if err != nil {
		h.Fatal(err.Error())
		return
	}
	payload := ""
	for i, e := range entries {
		if i > 0 {
			payload += "\n"
		}
		payload += e
	}
	h.enqueueText(frameMessage, f.Seqno, payload)
}

func (h *Handler) handleConfigure(f frame) {
	if h.chanControlCB == nil {
		return
	}
	if err := h.chanControlCB(string(f.Payload), f.Seqno); err != nil && f.Seqno != 0 {
		// A failed explicit set has already sent its fatal through the
		// chancontrol.Sink plumbing. Errors raised before the set is
		// attempted (no open yet, unparseable channel string) are not
		// reported to the parent here.
		return
	}
}

// Spindown requests the control loop exit at its next iteration.
func (h *Handler) Spindown() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Close stops the drain goroutine and releases the fd pair. Safe to call
// concurrently with in-flight SendData/SendMessage/etc: those select on
// h.done rather than sending unconditionally, so nothing sends on the
// ring after drain has stopped reading it.
func (h *Handler) Close() error {
	h.Spindown()
	inErr := h.in.Close()
	outErr := h.out.Close()
	if inErr != nil {
		return inErr
	}
	return outErr
}
