package monitor

import (
	"fmt"
	"hash/adler32"
	"net"
	"strings"
	"time"

	"github.com/dauie/go-netlink/nl80211"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/rs/zerolog"

	"github.com/dauie/capture-linux-wifi/internal/ifprobe"
	"github.com/dauie/capture-linux-wifi/internal/nmcoord"
	"github.com/dauie/capture-linux-wifi/internal/rfkill"
	"github.com/dauie/capture-linux-wifi/internal/wext"
)

// uuidBuildConstant stands in for the build-time constant the synthetic
// UUID is salted with; it only needs to be stable across runs of this
// binary, not globally unique.
const uuidBuildConstant = "capture-linux-wifi"

func syntheticUUID(mac net.HardwareAddr) string {
	sum := adler32.Checksum([]byte(uuidBuildConstant))
	macHex := strings.ToLower(strings.ReplaceAll(mac.String(), ":", ""))
	return fmt.Sprintf("%08x-0000-0000-0000-%s", sum, macHex)
}

const (
	pcapSnapLen = 8192
	pcapTimeout = time.Second
)

func dltSupported(supported []layers.LinkType, want layers.LinkType) bool {
	for _, s := range supported {
		if s == want {
			return true
		}
	}
	return false
}

// Bringup implements spec §4.3's ten-step sequence: resolve MAC, clear
// rfkill, mint a synthetic UUID, detect the current ioctl mode, disown
// from NetworkManager, choose a capture interface name, switch to
// monitor mode (vif or in-place, nl80211 or ioctl), sequence link state,
// repopulate the channel list, and open pcap. It stops and returns an
// error on the first fatal step; every non-fatal transition is logged at
// info level.
func Bringup(def SourceDefinition, logger zerolog.Logger) (*State, error) {
	if def.Interface == "" {
		return nil, fmt.Errorf("source definition missing required interface= flag")
	}

	// 1. Resolve MAC.
	mac, err := wext.GetHardwareAddr(def.Interface)
	if err != nil {
		return nil, fmt.Errorf("resolve hardware address of %s: %w", def.Interface, err)
	}

	// 2. Rfkill.
	hard, err := rfkill.IsHardBlocked(def.Interface)
	if err != nil {
		return nil, fmt.Errorf("query hard rfkill state of %s: %w", def.Interface, err)
	}
	if hard {
		return nil, fmt.Errorf("%s is hard rfkilled; flip the physical radio switch and retry", def.Interface)
	}
	soft, err := rfkill.IsSoftBlocked(def.Interface)
	if err != nil {
		return nil, fmt.Errorf("query soft rfkill state of %s: %w", def.Interface, err)
	}
	if soft {
		if err := rfkill.ClearSoft(def.Interface); err != nil {
			return nil, fmt.Errorf("clear soft rfkill on %s: %w", def.Interface, err)
		}
		logger.Info().Str("iface", def.Interface).Msg("cleared soft rfkill")
	}

	// 3. Synthetic UUID.
	uuid := syntheticUUID(mac)

	// 4. Detect current mode.
	if mode, err := wext.GetMode(def.Interface); err == nil {
		logger.Info().Str("iface", def.Interface).Str("mode", mode.String()).Msg("current wireless-extensions mode")
	}

	state := &State{
		Interface:   def.Interface,
		MAC:         mac,
		UUID:        uuid,
		OverrideDLT: -1,
	}
	if def.OverrideDLT != nil {
		state.OverrideDLT = *def.OverrideDLT
	}

	// 5. NetworkManager coordination; client is dialed and dropped within
	// this step so it never accumulates events across the event loop.
	nm := nmcoord.Dial()
	if managed, err := nm.IsManaged(def.Interface); err != nil {
		logger.Info().Err(err).Str("iface", def.Interface).Msg("NetworkManager coordination unavailable")
	} else if managed {
		if err := nm.Disown(def.Interface); err != nil {
			logger.Info().Err(err).Str("iface", def.Interface).Msg("failed to disown interface from NetworkManager")
		} else {
			state.ResetNMOnExit = true
			logger.Info().Str("iface", def.Interface).Msg("disowned interface from NetworkManager")
		}
	}
	nm.Close()

	// 6. Choose capture interface name.
	capIface, err := chooseCapInterfaceName(def.Interface, def.Vif, mac, liveNameResolver())
	if err != nil {
		return nil, fmt.Errorf("choose monitor interface name: %w", err)
	}

	// 7. Bring to monitor.
	creatingVif, err := bringToMonitor(state, def, &capIface, logger)
	if err != nil {
		return nil, err
	}
	state.CapInterface = capIface

	// 8. Link-layer state.
	if creatingVif {
		if !def.IgnorePrimary {
			if err := wext.InterfaceDown(def.Interface); err != nil {
				return nil, fmt.Errorf("bring parent interface %s down: %w", def.Interface, err)
			}
		}
	}
	if err := wext.InterfaceUp(state.CapInterface); err != nil {
		return nil, fmt.Errorf("bring capture interface %s up: %w", state.CapInterface, err)
	}

	// 9. Repopulate channel list.
	if ifa, err := net.InterfaceByName(state.CapInterface); err == nil {
		state.IfIndex = uint32(ifa.Index)
	}
	channels, err := ifprobe.ChannelList(state.CapInterface, state.IfIndex, state.NLConn, state.Family)
	if err != nil || len(channels) == 0 {
		return nil, fmt.Errorf("no channels available on %s", state.CapInterface)
	}
	state.ChannelList = channels

	// 10. Open pcap.
	inactive, err := pcap.NewInactiveHandle(state.CapInterface)
	if err != nil {
		return nil, fmt.Errorf("pcap.NewInactiveHandle(%s): %w", state.CapInterface, err)
	}
	defer inactive.CleanUp()
	if err := inactive.SetSnapLen(pcapSnapLen); err != nil {
		return nil, fmt.Errorf("set snaplen: %w", err)
	}
	if err := inactive.SetPromisc(true); err != nil {
		return nil, fmt.Errorf("set promiscuous mode: %w", err)
	}
	if err := inactive.SetTimeout(pcapTimeout); err != nil {
		return nil, fmt.Errorf("set pcap timeout: %w", err)
	}
	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("activate pcap handle on %s: %w", state.CapInterface, err)
	}
	state.Handle = handle
	state.DatalinkType = int(handle.LinkType())

	if state.OverrideDLT >= 0 {
		wanted := layers.LinkType(state.OverrideDLT)
		supported, err := handle.SupportedDataLinks()
		if err == nil && dltSupported(supported, wanted) {
			if err := handle.SetLinkType(wanted); err != nil {
				logger.Info().Err(err).Int("dlt", state.OverrideDLT).Str("iface", state.CapInterface).
					Msg("dlt= override rejected by driver, falling back to native dlt")
			} else {
				state.DatalinkType = state.OverrideDLT
			}
		} else {
			logger.Info().Int("dlt", state.OverrideDLT).Int("native_dlt", int(handle.LinkType())).
				Str("iface", state.CapInterface).
				Msg("dlt= override not supported on this handle, falling back to native dlt")
		}
	}

	return state, nil
}

// bringToMonitor implements step 7. It returns whether a separate vif was
// created (as opposed to an in-place mode switch on the original
// interface), which step 8 needs to decide whether the parent is brought
// down.
func bringToMonitor(state *State, def SourceDefinition, capIface *string, logger zerolog.Logger) (bool, error) {
	conn, fam, err := dialNl80211()
	if err != nil {
		logger.Info().Err(err).Msg("nl80211 unavailable, falling back to wireless-extensions ioctl")
		state.UseMac80211 = false
		state.Strategy = StrategyIoctl
		*capIface = def.Interface
		if err := wext.SetMode(def.Interface, wext.ModeMonitor); err != nil {
			return false, fmt.Errorf("switch %s to monitor mode via ioctl: %w", def.Interface, err)
		}
		return false, nil
	}

	parentIfa, err := net.InterfaceByName(def.Interface)
	if err != nil {
		conn.Close()
		return false, fmt.Errorf("resolve ifindex of %s: %w", def.Interface, err)
	}

	if *capIface != def.Interface {
		if err := createMonitorVif(conn, fam, uint32(parentIfa.Index), *capIface, def.FCSFail, def.PLCPFail); err != nil {
			logger.Info().Err(err).Str("vif", *capIface).Msg("vif creation failed, falling back to in-place ioctl switch")
			conn.Close()
			state.UseMac80211 = false
			state.Strategy = StrategyIoctl
			*capIface = def.Interface
			if err := wext.SetMode(def.Interface, wext.ModeMonitor); err != nil {
				return false, fmt.Errorf("switch %s to monitor mode via ioctl: %w", def.Interface, err)
			}
			return false, nil
		}
		state.UseMac80211 = true
		state.Strategy = StrategyNl80211
		state.NLConn = conn
		state.Family = fam
		return true, nil
	}

	if err := setIfaceType(conn, fam, uint32(parentIfa.Index), nl80211.IFTYPE_MONITOR); err != nil {
		logger.Info().Err(err).Str("iface", def.Interface).Msg("in-place nl80211 mode switch failed, falling back to ioctl")
		conn.Close()
		state.UseMac80211 = false
		state.Strategy = StrategyIoctl
		if err := wext.SetMode(def.Interface, wext.ModeMonitor); err != nil {
			return false, fmt.Errorf("switch %s to monitor mode via ioctl: %w", def.Interface, err)
		}
		return false, nil
	}
	state.UseMac80211 = true
	state.Strategy = StrategyNl80211
	state.NLConn = conn
	state.Family = fam
	return false, nil
}
