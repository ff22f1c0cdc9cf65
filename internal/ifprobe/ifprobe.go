// Package ifprobe enumerates wireless network interfaces and their
// available channel lists, preferring the nl80211 wiphy description and
// falling back to the legacy wireless-extensions range ioctl.
package ifprobe

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dauie/go-netlink/nl80211"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"

	"github.com/dauie/capture-linux-wifi/internal/wext"
)

// None of the pack's nl80211 call sites ever query wiphy band/frequency
// info (the teacher only ever sets a single ATTR_WIPHY_FREQ), so these
// command/attribute IDs have no confirmed package member to point at.
// Kept local, mirroring real nl80211.h values, the same way the
// channel-width attributes are kept local in chancontrol/setters.go.
const (
	cmdGetWiphy        = 1
	attrSplitWiphyDump = 0xae
	attrWiphyBands     = 22
	bandAttrFreqs      = 1
	freqAttrFreq       = 1
)

// DeviceEntry is a transient listing record: name plus the IFF_* flags the
// kernel reports right now. Unlike the original implementation, this is
// built as a plain slice append - no size-as-pointer allocation trick.
type DeviceEntry struct {
	Name  string
	Flags uint32
}

// ListWirelessInterfaces enumerates /sys/class/net, keeping only entries
// that expose a phy80211 (nl80211) or wireless (wext) directory, i.e. are
// actually wireless devices.
func ListWirelessInterfaces() ([]DeviceEntry, error) {
	entries, err := os.ReadDir("/sys/class/net")
	if err != nil {
		return nil, fmt.Errorf("enumerate /sys/class/net: %w", err)
	}

	devices := make([]DeviceEntry, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !isWireless(name) {
			continue
		}
		flags, err := wext.GetFlags(name)
		if err != nil {
			continue
		}
		devices = append(devices, DeviceEntry{Name: name, Flags: flags})
	}
	return devices, nil
}

func isWireless(iface string) bool {
	base := filepath.Join("/sys/class/net", iface)
	if _, err := os.Stat(filepath.Join(base, "phy80211")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(base, "wireless")); err == nil {
		return true
	}
	return false
}

// ChannelList populates a channel list for capIface. When nlconn/fam are
// non-nil (the interface was brought up on the nl80211 path), the wiphy's
// supported frequencies are queried; otherwise it falls back to
// SIOCGIWRANGE. An empty, nil-error return means the interface is "not
// usable" per spec: the caller decides what that means for probe/open.
func ChannelList(capIface string, ifindex uint32, nlconn *genetlink.Conn, fam *genetlink.Family) ([]uint32, error) {
	if nlconn != nil && fam != nil {
		list, err := nl80211ChannelList(ifindex, nlconn, fam)
		if err == nil && len(list) > 0 {
			return list, nil
		}
	}
	return wext.GetChannelList(capIface)
}

func nl80211ChannelList(ifindex uint32, nlconn *genetlink.Conn, fam *genetlink.Family) ([]uint32, error) {
	encoder := netlink.NewAttributeEncoder()
	encoder.Uint32(nl80211.ATTR_IFINDEX, ifindex)
	encoder.Flag(attrSplitWiphyDump)
	attribs, err := encoder.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode wiphy request: %w", err)
	}

	req := genetlink.Message{
		Header: genetlink.Header{
			Command: cmdGetWiphy,
			Version: fam.Version,
		},
		Data: attribs,
	}
	flags := netlink.HeaderFlagsRequest | netlink.HeaderFlagsDump
	msgs, err := nlconn.Execute(req, fam.ID, flags)
	if err != nil {
		return nil, fmt.Errorf("get wiphy: %w", err)
	}

	var freqs []uint32
	for _, m := range msgs {
		ad, err := netlink.NewAttributeDecoder(m.Data)
		if err != nil {
			continue
		}
		for ad.Next() {
			if ad.Type() != attrWiphyBands {
				continue
			}
			ad.Do(func(b []byte) error {
				freqs = append(freqs, decodeBands(b)...)
				return nil
			})
		}
	}
	return freqs, nil
}

func decodeBands(b []byte) []uint32 {
	var freqs []uint32
	bandsAD, err := netlink.NewAttributeDecoder(b)
	if err != nil {
		return nil
	}
	for bandsAD.Next() {
		bandsAD.Do(func(band []byte) error {
			bandAD, err := netlink.NewAttributeDecoder(band)
			if err != nil {
				return nil
			}
			for bandAD.Next() {
				if bandAD.Type() != bandAttrFreqs {
					continue
				}
				bandAD.Do(func(freqList []byte) error {
					freqs = append(freqs, decodeFreqList(freqList)...)
					return nil
				})
			}
			return nil
		})
	}
	return freqs
}

func decodeFreqList(b []byte) []uint32 {
	var freqs []uint32
	ad, err := netlink.NewAttributeDecoder(b)
	if err != nil {
		return nil
	}
	for ad.Next() {
		ad.Do(func(entry []byte) error {
			entryAD, err := netlink.NewAttributeDecoder(entry)
			if err != nil {
				return nil
			}
			for entryAD.Next() {
				if entryAD.Type() == freqAttrFreq {
					freqs = append(freqs, entryAD.Uint32())
				}
			}
			return nil
		})
	}
	return freqs
}
