package monitor

import (
	"fmt"

	"github.com/dauie/go-netlink/nl80211"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
)

func dialNl80211() (*genetlink.Conn, *genetlink.Family, error) {
	conn, err := genetlink.Dial(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("genetlink.Dial: %w", err)
	}
	fam, err := conn.GetFamily("nl80211")
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("resolve nl80211 family: %w", err)
	}
	return conn, &fam, nil
}

// The teacher's own nl80211 calls (jamConn.go's MakeMonIfa) never set
// monitor flags at all, so there's no confirmed package member to point
// at here; these are a documented stand-in for nl80211.h's
// NL80211_ATTR_MNTR_FLAGS (23) and its NL80211_MNTR_FLAG_* enum
// (fcsfail=1, plcpfail=2, control=3, other_bss=4), kept local rather
// than assumed, the same workaround constants.go already uses for the
// channel-width attributes.
const (
	attrMntrFlags    = 23
	mntrFlagFCSFail  = 1
	mntrFlagPLCPFail = 2
	mntrFlagControl  = 3
	mntrFlagOtherBSS = 4
)

func monitorFlags(fcsfail, plcpfail bool) []uint32 {
	flags := []uint32{mntrFlagControl, mntrFlagOtherBSS}
	if fcsfail {
		flags = append(flags, mntrFlagFCSFail)
	}
	if plcpfail {
		flags = append(flags, mntrFlagPLCPFail)
	}
	return flags
}

// createMonitorVif creates a new monitor-type virtual interface named
// vifName atop the physical device identified by ifindex.
func createMonitorVif(conn *genetlink.Conn, fam *genetlink.Family, ifindex uint32, vifName string, fcsfail, plcpfail bool) error {
	encoder := netlink.NewAttributeEncoder()
	encoder.Uint32(nl80211.ATTR_IFINDEX, ifindex)
	encoder.Uint32(nl80211.ATTR_IFTYPE, nl80211.IFTYPE_MONITOR)
	encoder.String(nl80211.ATTR_IFNAME, vifName)
	encoder.Nested(attrMntrFlags, func(nae *netlink.AttributeEncoder) error {
		for _, f := range monitorFlags(fcsfail, plcpfail) {
			nae.Flag(f)
		}
		return nil
	})
	attribs, err := encoder.Encode()
	if err != nil {
		return fmt.Errorf("encode NEW_INTERFACE attributes: %w", err)
	}

	req := genetlink.Message{
		Header: genetlink.Header{
			Command: nl80211.CMD_NEW_INTERFACE,
			Version: fam.Version,
		},
		Data: attribs,
	}
	flags := netlink.HeaderFlagsRequest | netlink.HeaderFlagsAcknowledge
	if _, err := conn.Execute(req, fam.ID, flags); err != nil {
		return fmt.Errorf("create monitor vif %s: %w", vifName, err)
	}
	return nil
}

// setIfaceType performs an in-place nl80211 interface-type switch, used
// when no separate vif is being created (cap_interface == interface).
func setIfaceType(conn *genetlink.Conn, fam *genetlink.Family, ifindex uint32, ifType uint32) error {
	encoder := netlink.NewAttributeEncoder()
	encoder.Uint32(nl80211.ATTR_IFINDEX, ifindex)
	encoder.Uint32(nl80211.ATTR_IFTYPE, ifType)
	attribs, err := encoder.Encode()
	if err != nil {
		return fmt.Errorf("encode SET_INTERFACE attributes: %w", err)
	}
	req := genetlink.Message{
		Header: genetlink.Header{
			Command: nl80211.CMD_SET_INTERFACE,
			Version: fam.Version,
		},
		Data: attribs,
	}
	flags := netlink.HeaderFlagsRequest | netlink.HeaderFlagsAcknowledge
	if _, err := conn.Execute(req, fam.ID, flags); err != nil {
		return fmt.Errorf("set interface type: %w", err)
	}
	return nil
}
