// Package opstats tracks counters for a capture session and, when the
// operator asks for it, renders them in a small gocui dashboard -
// repurposed from the teacher's deauth-target view into a live
// capture-session status view.
package opstats

import (
	"fmt"
	"sync"
	"time"
)

// Session accumulates counters the rest of the module updates as it
// runs. All methods are safe for concurrent use; in practice only the
// capture goroutine calls RecordFrame/RecordError and only the control
// goroutine calls SetChannelFailures/RecordConfigure, but the dashboard goroutine
// reads from both.
type Session struct {
	mu sync.Mutex

	Interface    string
	CapInterface string
	Strategy     string
	Started      time.Time

	framesRx        uint64
	bytesRx         uint64
	errors          uint64
	channelFailures int
	lastChannel     string
	configureCount  uint64
}

// Snapshot is an immutable copy of a Session's counters for rendering.
type Snapshot struct {
	Interface       string
	CapInterface    string
	Strategy        string
	Uptime          time.Duration
	FramesRx        uint64
	BytesRx         uint64
	Errors          uint64
	ChannelFailures int
	LastChannel     string
	ConfigureCount  uint64
}

func NewSession(iface, capIface, strategy string) *Session {
	return &Session{
		Interface:    iface,
		CapInterface: capIface,
		Strategy:     strategy,
		Started:      time.Now(),
	}
}

func (s *Session) RecordFrame(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framesRx++
	s.bytesRx += uint64(n)
}

func (s *Session) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

func (s *Session) SetChannelFailures(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelFailures = n
}

func (s *Session) RecordConfigure(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastChannel = channel
	s.configureCount++
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Interface:       s.Interface,
		CapInterface:    s.CapInterface,
		Strategy:        s.Strategy,
		Uptime:          time.Since(s.Started),
		FramesRx:        s.framesRx,
		BytesRx:         s.bytesRx,
		Errors:          s.errors,
		ChannelFailures: s.channelFailures,
		LastChannel:     s.lastChannel,
		ConfigureCount:  s.configureCount,
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"interface:    %s\ncapture:      %s (%s)\nuptime:       %s\nframes:       %d (%d bytes)\nerrors:       %d\nhop failures: %d\nlast channel: %s\nconfigures:   %d\n",
		s.Interface, s.CapInterface, s.Strategy, s.Uptime.Truncate(time.Second),
		s.FramesRx, s.BytesRx, s.Errors, s.ChannelFailures, s.LastChannel, s.ConfigureCount)
}
