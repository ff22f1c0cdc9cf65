//go:build linux

// Package rfkill resolves and toggles the Linux rfkill switch backing a
// wireless interface: hard (physical switch, never clearable from
// userspace) and soft (driver/userspace block, clearable by writing to
// sysfs).
package rfkill

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// findIndex resolves the rfkill index backing iface by following its
// phy80211 symlink to a phy name (e.g. "phy0") and matching that against
// every /sys/class/rfkill/rfkillN/name.
func findIndex(iface string) (int, error) {
	phyNameBytes, err := os.ReadFile(fmt.Sprintf("/sys/class/net/%s/phy80211/name", iface))
	if err != nil {
		return 0, fmt.Errorf("resolve phy for %s: %w", iface, err)
	}
	phyName := strings.TrimSpace(string(phyNameBytes))

	entries, err := os.ReadDir("/sys/class/rfkill")
	if err != nil {
		return 0, fmt.Errorf("enumerate rfkill devices: %w", err)
	}

	for _, e := range entries {
		nameBytes, err := os.ReadFile(filepath.Join("/sys/class/rfkill", e.Name(), "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(nameBytes)) != phyName {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "rfkill"))
		if err != nil {
			continue
		}
		return idx, nil
	}

	return 0, fmt.Errorf("no rfkill switch found for interface %s (phy %s)", iface, phyName)
}

func readBoolFile(idx int, name string) (bool, error) {
	b, err := os.ReadFile(fmt.Sprintf("/sys/class/rfkill/rfkill%d/%s", idx, name))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(b)) == "1", nil
}

// IsHardBlocked reports whether the interface's physical kill switch is
// engaged. This can never be cleared from software.
func IsHardBlocked(iface string) (bool, error) {
	idx, err := findIndex(iface)
	if err != nil {
		// No rfkill device at all is not an error for interfaces that don't
		// expose one; treat as not blocked.
		return false, nil //nolint:nilerr
	}
	return readBoolFile(idx, "hard")
}

// IsSoftBlocked reports whether the interface is software-blocked.
func IsSoftBlocked(iface string) (bool, error) {
	idx, err := findIndex(iface)
	if err != nil {
		return false, nil //nolint:nilerr
	}
	return readBoolFile(idx, "soft")
}

// ClearSoft unblocks a software rfkill switch.
func ClearSoft(iface string) error {
	idx, err := findIndex(iface)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/sys/class/rfkill/rfkill%d/soft", idx)
	if err := os.WriteFile(path, []byte("0"), 0o200); err != nil {
		return fmt.Errorf("clear soft rfkill on %s: %w", iface, err)
	}
	return nil
}
