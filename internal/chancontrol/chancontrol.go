// Package chancontrol applies parsed channels to a live interface,
// selecting between the nl80211 and wireless-extensions control planes
// chosen once at bring-up, and enforcing the asymmetric failure-tolerance
// policy described in spec §4.4: internal hop-scheduler requests tolerate
// transient failures, explicit parent requests do not.
package chancontrol

import (
	"fmt"

	"github.com/dauie/capture-linux-wifi/internal/chanmodel"
)

// MaxToleratedFailures is the named constant resolving the 10-vs-11
// ambiguity in spec §9: up to this many consecutive hop-scheduler
// failures are tolerated before the next one escalates to fatal.
const MaxToleratedFailures = 10

// Setter applies a parsed channel to a specific interface over one
// control plane. The two implementations (Nl80211Setter, WextSetter)
// are the tagged variant spec §9 calls for; Controller holds exactly one
// at a time, selected at bring-up.
type Setter interface {
	SetChannel(p *chanmodel.Parsed) error
}

// Sink is the subset of the framework's message channels chancontrol
// needs: informational/error messages during hopping, a fatal channel
// for unrecoverable conditions, and a configure-response acknowledging
// an explicit channel change.
type Sink interface {
	Error(msg string)
	Fatal(msg string)
	ConfigureResponse(channelString string)
}

// Controller owns the channel-set strategy and the consecutive-failure
// counter for one interface. The counter pointer is expected to alias
// monitor.State.SeqChannelFailure so both packages observe the same
// value without chancontrol importing monitor's whole State type.
type Controller struct {
	Setter  Setter
	Sink    Sink
	Counter *int
}

// Apply implements spec §4.4's failure policy. seqno==0 means the
// internal channel hopper; any other value means an explicit configure
// request from the parent.
func (c *Controller) Apply(p *chanmodel.Parsed, seqno uint32) error {
	err := c.Setter.SetChannel(p)

	if seqno == 0 {
		return c.applyHopped(p, err)
	}
	return c.applyExplicit(p, err)
}

func (c *Controller) applyHopped(p *chanmodel.Parsed, err error) error {
	if err == nil {
		*c.Counter = 0
		return nil
	}

	*c.Counter++
	if *c.Counter > MaxToleratedFailures {
		c.Sink.Fatal(fmt.Sprintf("channel set failed %d consecutive times, giving up: %v", *c.Counter, err))
		return err
	}
	c.Sink.Error(fmt.Sprintf("channel set failed (%d/%d consecutive): %v", *c.Counter, MaxToleratedFailures, err))
	return nil
}

func (c *Controller) applyExplicit(p *chanmodel.Parsed, err error) error {
	if err != nil {
		c.Sink.Fatal(fmt.Sprintf("explicit channel set failed: %v", err))
		return err
	}
	c.Sink.ConfigureResponse(chanmodel.Render(p))
	return nil
}
