// Package capture runs the blocking packet-capture loop: read a frame,
// hand it to the framework's backpressure-aware send primitive with
// bounded retry, and on termination attach an interface-down hint when
// one applies.
package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket/pcap"
)

// PacketHandle is the slice of *pcap.Handle this package depends on; kept
// as an interface so tests can drive the loop with a fake.
type PacketHandle interface {
	ReadPacketData() ([]byte, CaptureInfo, error)
}

// CaptureInfo mirrors the gopacket.CaptureInfo fields this package reads,
// avoiding a hard dependency on gopacket in the dispatch/test path.
type CaptureInfo struct {
	Timestamp     time.Time
	CaptureLength int
}

// pcapHandle adapts *pcap.Handle to PacketHandle: pcap.Handle.ReadPacketData
// returns gopacket.CaptureInfo, a much wider struct than this package needs.
type pcapHandle struct {
	*pcap.Handle
}

func (h pcapHandle) ReadPacketData() ([]byte, CaptureInfo, error) {
	data, ci, err := h.Handle.ReadPacketData()
	return data, CaptureInfo{Timestamp: ci.Timestamp, CaptureLength: ci.CaptureLength}, err
}

// WrapPcapHandle adapts a live *pcap.Handle so it satisfies PacketHandle.
func WrapPcapHandle(h *pcap.Handle) PacketHandle { return pcapHandle{h} }

// FrameSink is the framework's outbound data-plane contract: SendData
// returns <0 on a hard failure (terminate capture), 0 when the ring
// buffer is full (caller should Wait and retry), and >0 on success. Wait
// blocks until the framework signals the ring buffer has space again.
type FrameSink interface {
	SendData(ts time.Time, dlt int, caplen int, data []byte) int
	Wait()
}

// IfaceFlagsFunc reads current IFF_* flags for the capture interface,
// used only to annotate a teardown error with an "interface is down"
// hint; a nil func skips the hint.
type IfaceFlagsFunc func() (uint32, error)

const iffUp = 0x1

// ErrCaptureTerminated is wrapped into every error Loop returns, whether the
// handle failed or dispatch hit a hard send_data failure, so callers can
// recognise with errors.Is that capture has ended.
var ErrCaptureTerminated = errors.New("capture terminated")

// Loop blocks reading frames from handle and dispatching them to sink
// until the handle reports EOF/closed or dispatch hits a hard failure. It
// returns nil only if handle reports a clean EOF; every other exit is an
// error describing why capture ended, suitable for sending to the parent
// as a fatal message before requesting spindown.
func Loop(handle PacketHandle, dlt int, sink FrameSink, flags IfaceFlagsFunc) error {
	for {
		data, ci, err := handle.ReadPacketData()
		if err != nil {
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return teardownError(err, flags)
		}

		if derr := dispatch(sink, ci, dlt, data); derr != nil {
			return fmt.Errorf("%w: %v", ErrCaptureTerminated, derr)
		}
	}
}

// dispatch implements the bounded-retry-with-suspension loop from spec
// §4.5: forever, call send_data; <0 terminates, 0 parks on ring-buffer
// space and retries, >0 returns.
func dispatch(sink FrameSink, ci CaptureInfo, dlt int, data []byte) error {
	for {
		r := sink.SendData(ci.Timestamp, dlt, ci.CaptureLength, data)
		switch {
		case r < 0:
			return fmt.Errorf("send_data failed")
		case r == 0:
			sink.Wait()
		default:
			return nil
		}
	}
}

func teardownError(cause error, flags IfaceFlagsFunc) error {
	if flags == nil {
		return fmt.Errorf("%w: %w", ErrCaptureTerminated, cause)
	}
	f, err := flags()
	if err != nil || f&iffUp != 0 {
		return fmt.Errorf("%w: %w", ErrCaptureTerminated, cause)
	}
	return fmt.Errorf("%w: %w (interface is no longer up; unplugged, or DHCP/NM reclaimed it)", ErrCaptureTerminated, cause)
}
