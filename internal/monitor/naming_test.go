package monitor

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dauie/capture-linux-wifi/internal/wext"
)

func fakeResolver(known map[string]net.HardwareAddr, monitorMode map[string]bool) nameResolver {
	return nameResolver{
		interfaceNames: func() ([]string, error) {
			names := make([]string, 0, len(known))
			for name := range known {
				names = append(names, name)
			}
			return names, nil
		},
		hardwareAddr: func(name string) (net.HardwareAddr, error) {
			addr, ok := known[name]
			if !ok {
				return nil, net.UnknownNetworkError("no such interface")
			}
			return addr, nil
		},
		mode: func(name string) (wext.Mode, error) {
			if _, ok := known[name]; !ok {
				return 0, net.UnknownNetworkError("no such interface")
			}
			if monitorMode[name] {
				return wext.ModeMonitor, nil
			}
			return wext.ModeManaged, nil
		},
	}
}

func TestChooseCapInterfaceNameSynthesized(t *testing.T) {
	mac := net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	r := fakeResolver(map[string]net.HardwareAddr{"wlan0": mac}, nil)
	name, err := chooseCapInterfaceName("wlan0", "", mac, r)
	require.NoError(t, err)
	require.Equal(t, "wlan0mon", name)
}

func TestChooseCapInterfaceNameTooLongFallsBackToKismon(t *testing.T) {
	mac := net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x02}
	iface := "verylongwirelessname0"
	r := fakeResolver(map[string]net.HardwareAddr{iface: mac}, nil)
	name, err := chooseCapInterfaceName(iface, "", mac, r)
	require.NoError(t, err)
	require.Equal(t, "kismon0", name)
}

func TestChooseCapInterfaceNameExplicitVif(t *testing.T) {
	mac := net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x03}
	r := fakeResolver(map[string]net.HardwareAddr{"wlan0": mac}, nil)
	name, err := chooseCapInterfaceName("wlan0", "wifimon", mac, r)
	require.NoError(t, err)
	require.Equal(t, "wifimon", name)
}

func TestChooseCapInterfaceNameReusesMonitorSibling(t *testing.T) {
	mac := net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x04}
	known := map[string]net.HardwareAddr{
		"wlan0":     mac,
		"wlan0_mon": mac,
	}
	r := fakeResolver(known, map[string]bool{"wlan0_mon": true})
	name, err := chooseCapInterfaceName("wlan0", "", mac, r)
	require.NoError(t, err)
	require.Equal(t, "wlan0_mon", name)
}

func TestChooseCapInterfaceNameExistingNonMonitorAborts(t *testing.T) {
	mac := net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x05}
	otherMAC := net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x06}
	known := map[string]net.HardwareAddr{
		"wlan0":    mac,
		"wlan0mon": otherMAC,
	}
	r := fakeResolver(known, nil)
	_, err := chooseCapInterfaceName("wlan0", "", mac, r)
	require.Error(t, err)
}
