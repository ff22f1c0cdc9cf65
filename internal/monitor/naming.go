package monitor

import (
	"fmt"
	"net"

	"github.com/dauie/capture-linux-wifi/internal/wext"
)

const ifnamsiz = 16

// nameResolver is the live-system view chooseCapInterfaceName consults;
// tests substitute a fake so the naming algorithm is exercised without a
// real NIC.
type nameResolver struct {
	interfaceNames func() ([]string, error)
	hardwareAddr   func(name string) (net.HardwareAddr, error)
	mode           func(name string) (wext.Mode, error)
}

func liveNameResolver() nameResolver {
	return nameResolver{
		interfaceNames: func() ([]string, error) {
			ifaces, err := net.Interfaces()
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(ifaces))
			for _, ifa := range ifaces {
				names = append(names, ifa.Name)
			}
			return names, nil
		},
		hardwareAddr: wext.GetHardwareAddr,
		mode:         wext.GetMode,
	}
}

func (r nameResolver) exists(name string) bool {
	_, err := r.hardwareAddr(name)
	return err == nil
}

func (r nameResolver) isMonitor(name string) bool {
	m, err := r.mode(name)
	return err == nil && m == wext.ModeMonitor
}

// chooseCapInterfaceName implements spec §4.3 step 6 verbatim.
func chooseCapInterfaceName(iface string, vif string, mac net.HardwareAddr, r nameResolver) (string, error) {
	if vif != "" {
		return vif, nil
	}

	names, err := r.interfaceNames()
	if err != nil {
		return "", fmt.Errorf("enumerate interfaces while choosing monitor name: %w", err)
	}
	for _, name := range names {
		if name == iface {
			continue
		}
		addr, err := r.hardwareAddr(name)
		if err != nil || addr.String() != mac.String() {
			continue
		}
		if r.isMonitor(name) {
			return name, nil
		}
	}

	if len(iface)+3 <= ifnamsiz {
		candidate := iface + "mon"
		if r.exists(candidate) {
			if r.isMonitor(candidate) {
				return candidate, nil
			}
			return "", fmt.Errorf("monitor interface name %s already exists and is not in monitor mode", candidate)
		}
		return candidate, nil
	}

	for n := 0; n < 100; n++ {
		candidate := fmt.Sprintf("kismon%d", n)
		if !r.exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free kismonN name available for %s", iface)
}
