package chancontrol

import (
	"fmt"

	"github.com/dauie/go-netlink/nl80211"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"

	"github.com/dauie/capture-linux-wifi/internal/chanmodel"
	"github.com/dauie/capture-linux-wifi/internal/wext"
)

// The in-pack nl80211 wrapper doesn't define these attributes/enum values
// (the teacher's own constants.go carries the same "TODO add these to
// gonetlink/nl80211.h" note for ATTR_CHANNEL_WIDTH/ATTR_CENTER_FREQ); kept
// local here rather than assuming package members that don't exist.
const (
	attrChannelWidth     = 0x9f
	attrCenterFreq1      = 0xa0
	attrCenterFreq2      = 0xa1
	attrWiphyChannelType = 0x27

	chanWidth20 = 0x1
	chanWidth5  = 0x6
	chanWidth10 = 0x7
	chanWidth80 = 0x3
	chanWidth160 = 0x5

	chanTypeNoHT      = 0x0
	chanTypeHT40Minus = 0x2
	chanTypeHT40Plus  = 0x3
)

// Nl80211Setter applies channels via CMD_SET_CHANNEL, carrying width and
// center frequencies for any non-default width (VHT80, VHT160, 5MHz,
// 10MHz) and the HT40+/HT40- channel type otherwise.
type Nl80211Setter struct {
	Conn    *genetlink.Conn
	Family  *genetlink.Family
	IfIndex uint32
}

func chanWidthAttr(w chanmodel.ChanWidth) uint32 {
	switch w {
	case chanmodel.ChanWidthW5:
		return chanWidth5
	case chanmodel.ChanWidthW10:
		return chanWidth10
	case chanmodel.ChanWidthVHT80:
		return chanWidth80
	case chanmodel.ChanWidthVHT160:
		return chanWidth160
	default:
		return chanWidth20
	}
}

func htChanType(t chanmodel.ChanType) uint32 {
	switch t {
	case chanmodel.ChanTypeHT40Minus:
		return chanTypeHT40Minus
	case chanmodel.ChanTypeHT40Plus:
		return chanTypeHT40Plus
	default:
		return chanTypeNoHT
	}
}

// SetChannel implements Setter.
func (s *Nl80211Setter) SetChannel(p *chanmodel.Parsed) error {
	encoder := netlink.NewAttributeEncoder()
	encoder.Uint32(nl80211.ATTR_IFINDEX, s.IfIndex)
	encoder.Uint32(nl80211.ATTR_WIPHY_FREQ, p.ControlFreq)

	if p.ChanWidth != chanmodel.ChanWidthDefault20 {
		encoder.Uint32(attrChannelWidth, chanWidthAttr(p.ChanWidth))
		if p.CenterFreq1 != 0 {
			encoder.Uint32(attrCenterFreq1, p.CenterFreq1)
		}
		if p.CenterFreq2 != 0 {
			encoder.Uint32(attrCenterFreq2, p.CenterFreq2)
		}
	} else {
		encoder.Uint32(attrWiphyChannelType, htChanType(p.ChanType))
	}

	attribs, err := encoder.Encode()
	if err != nil {
		return fmt.Errorf("encode SET_CHANNEL attributes: %w", err)
	}

	req := genetlink.Message{
		Header: genetlink.Header{
			Command: nl80211.CMD_SET_CHANNEL,
			Version: s.Family.Version,
		},
		Data: attribs,
	}
	flags := netlink.HeaderFlagsRequest | netlink.HeaderFlagsAcknowledge
	if _, err := s.Conn.Execute(req, s.Family.ID, flags); err != nil {
		return fmt.Errorf("set channel: %w", err)
	}
	return nil
}

// WextSetter applies channels via the legacy wireless-extensions ioctl
// plane, which can only express a control frequency - width and HT/VHT
// attributes are silently unavailable, matching spec §4.4's legacy path.
type WextSetter struct {
	Interface string
}

// SetChannel implements Setter.
func (s *WextSetter) SetChannel(p *chanmodel.Parsed) error {
	return wext.SetFrequencyMHz(s.Interface, p.ControlFreq)
}
