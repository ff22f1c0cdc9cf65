// Package wext implements the legacy Linux wireless-extensions ioctl plane:
// SIOCGIWMODE/SIOCSIWMODE, SIOCGIWFREQ/SIOCSIWFREQ, SIOCGIWRANGE, and
// SIOCSIFFLAGS to flip interface up/down. GetFlags reads current IFF_*
// flags through net.InterfaceByName instead of SIOCGIFFLAGS directly, since
// the stdlib already surfaces the same kernel state. This is the fallback
// control plane used when a driver has no nl80211 support, and the only
// plane some very old drivers speak at all.
package wext

// Mode mirrors the wireless-extensions operating-mode enumeration
// (linux/wireless.h IW_MODE_*).
type Mode int

const (
	ModeAuto Mode = iota
	ModeAdHoc
	ModeManaged
	ModeMaster
	ModeRepeat
	ModeSecond
	ModeMonitor
)

func (m Mode) String() string {
	switch m {
	case ModeAdHoc:
		return "ad-hoc"
	case ModeManaged:
		return "managed"
	case ModeMaster:
		return "master"
	case ModeRepeat:
		return "repeater"
	case ModeSecond:
		return "secondary"
	case ModeMonitor:
		return "monitor"
	default:
		return "auto"
	}
}
