// Package monitor implements the interface lifecycle: resolving the
// target device, clearing rfkill, disowning it from NetworkManager,
// choosing and creating (or reusing) a monitor-mode capture interface,
// and opening pcap on it. Bringup is the ten-step sequence; everything
// else in this package is a helper it composes.
package monitor

import (
	"net"

	"github.com/google/gopacket/pcap"
	"github.com/mdlayher/genetlink"
)

// Strategy is the control-plane variant selected once at bring-up and
// fanned out at every later control point, per the "tagged variant, not
// nullable handles" guidance: every State carries exactly one live
// strategy, never a pair of optionally-nil handles.
type Strategy int

const (
	StrategyIoctl Strategy = iota
	StrategyNl80211
)

func (s Strategy) String() string {
	if s == StrategyNl80211 {
		return "nl80211"
	}
	return "ioctl"
}

// SourceDefinition is the subset of the colon-prefixed source definition
// this package consumes.
type SourceDefinition struct {
	Interface     string
	Vif           string
	FCSFail       bool
	PLCPFail      bool
	IgnorePrimary bool
	OverrideDLT   *int
}

// State is the per-process interface-state record from spec §3. It is
// written once by Bringup (the control goroutine) and thereafter mutated
// only by chancontrol (SeqChannelFailure) and read by capture
// (CapInterface, DatalinkType) - never both at once, so no lock guards it.
type State struct {
	Interface    string
	CapInterface string
	MAC          net.HardwareAddr
	UUID         string

	UseMac80211 bool
	Strategy    Strategy

	ResetNMOnExit bool

	DatalinkType      int
	OverrideDLT       int
	ChannelList       []uint32
	SeqChannelFailure int

	NLConn  *genetlink.Conn
	Family  *genetlink.Family
	IfIndex uint32

	Handle *pcap.Handle
}

// Close releases every resource Bringup acquired, in the reverse order
// they were acquired. Safe to call on a partially-initialized State.
func (s *State) Close() error {
	if s.Handle != nil {
		s.Handle.Close()
	}
	if s.NLConn != nil {
		return s.NLConn.Close()
	}
	return nil
}
