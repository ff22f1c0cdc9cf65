//go:build linux

package wext

import (
	"encoding/binary"
	"fmt"
	"net"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request numbers from linux/wireless.h.
const (
	siocsiwfreq  = 0x8B04
	siocgiwfreq  = 0x8B05
	siocsiwmode  = 0x8B06
	siocgiwmode  = 0x8B07
	siocgiwrange = 0x8B0B
)

// struct iwreq is ifr_name[IFNAMSIZ] followed by a 16-byte iwreq_data union;
// we only ever populate the first few bytes of the union (an iw_freq or a
// __u32 mode), but keep the full union size so the kernel never writes past
// what we allocated.
type iwreq struct {
	name [unix.IFNAMSIZ]byte
	data [16]byte
}

func newIwreq(iface string) (iwreq, error) {
	var req iwreq
	if len(iface) >= unix.IFNAMSIZ {
		return req, fmt.Errorf("interface name %q too long", iface)
	}
	copy(req.name[:], iface)
	return req, nil
}

func ioctlSocket() (int, error) {
	return unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
}

func doIoctl(iface string, request uintptr, req *iwreq) error {
	fd, err := ioctlSocket()
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	defer unix.Close(fd)

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), request, uintptr(unsafe.Pointer(req)))
	if errno != 0 {
		return fmt.Errorf("ioctl(%s, 0x%x): %w", iface, request, errno)
	}
	return nil
}

// GetMode returns the interface's current wireless-extensions mode.
func GetMode(iface string) (Mode, error) {
	req, err := newIwreq(iface)
	if err != nil {
		return 0, err
	}
	if err := doIoctl(iface, siocgiwmode, &req); err != nil {
		return 0, err
	}
	return Mode(binary.LittleEndian.Uint32(req.data[:4])), nil
}

// SetMode switches the interface's wireless-extensions mode.
func SetMode(iface string, mode Mode) error {
	req, err := newIwreq(iface)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(req.data[:4], uint32(mode))
	return doIoctl(iface, siocsiwmode, &req)
}

// iw_freq is {__s32 m; __s16 e; __u8 i; __u8 flags;}. When e==0 and m is
// small, m is a channel number rather than a frequency - the convention
// every wireless-extensions driver and tool (iwconfig included) honors.
func encodeFreqMHz(freqMHz uint32) [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint32(b[0:4], freqMHz)
	binary.LittleEndian.PutUint16(b[4:6], 6) // e=6: m * 10^6 Hz
	return b
}

func decodeFreq(b []byte) uint32 {
	m := int32(binary.LittleEndian.Uint32(b[0:4]))
	e := int16(binary.LittleEndian.Uint16(b[4:6]))
	if e == 0 {
		return uint32(m)
	}
	// m * 10^e Hz, normalized to MHz
	v := uint64(uint32(m))
	for i := e; i < 6; i++ {
		v /= 10
	}
	for i := int16(6); i < e; i++ {
		v *= 10
	}
	return uint32(v)
}

// SetFrequencyMHz sets the control frequency, in MHz, on the given
// interface. This is the only channel attribute the legacy ioctl plane can
// express - width, HT, and VHT center frequencies are mac80211/nl80211-only.
func SetFrequencyMHz(iface string, freqMHz uint32) error {
	req, err := newIwreq(iface)
	if err != nil {
		return err
	}
	encoded := encodeFreqMHz(freqMHz)
	copy(req.data[:8], encoded[:])
	return doIoctl(iface, siocsiwfreq, &req)
}

// GetFrequencyMHz reads back the interface's current control frequency.
func GetFrequencyMHz(iface string) (uint32, error) {
	req, err := newIwreq(iface)
	if err != nil {
		return 0, err
	}
	if err := doIoctl(iface, siocgiwfreq, &req); err != nil {
		return 0, err
	}
	return decodeFreq(req.data[:8]), nil
}

// iwQuality is struct iw_quality: {__u8 qual, level, noise, updated}.
type iwQuality struct {
	Qual, Level, Noise, Updated uint8
}

// iwFreq mirrors struct iw_freq for range enumeration.
type iwFreq struct {
	M int32
	E int16
	I uint8
	F uint8
}

// iwRange mirrors the kernel's struct iw_range (linux/wireless.h). Only the
// channel/frequency tail is consumed by GetChannelList; the rest is kept so
// the struct's size (and therefore field offsets) matches what the driver
// expects to write into.
type iwRange struct {
	Throughput                       uint32
	MinNwid, MaxNwid                 uint32
	OldNumChannels                   uint16
	OldNumFrequency, ScanCapa        uint8
	EventCapa                        [6]uint32
	Sensitivity                      int32
	MaxQual, AvgQual                 iwQuality
	NumBitrates                      uint8
	_                                [3]byte
	Bitrate                          [8]int32
	MinRTS, MaxRTS                   int32
	MinFrag, MaxFrag                 int32
	MinPMP, MaxPMP                   int32
	MinPMT, MaxPMT                   int32
	PMPFlags, PMTFlags, PMCapa       uint16
	EncodingSize                     [8]uint16
	NumEncodingSizes                 uint8
	MaxEncodingTokens                uint8
	EncodingLoginIndex               uint8
	TxPowerCapa                      uint16
	NumTxPower                       uint8
	_                                [3]byte
	TxPower                          [8]int32
	WEVersionCompiled, WEVersionSrc  uint8
	RetryCapa, RetryFlags, RTimeFlag uint16
	MinRetry, MaxRetry               int32
	MinRTime, MaxRTime               int32
	NumChannels                      uint16
	NumFrequency                     uint8
	_                                [1]byte
	Freq                             [32]iwFreq
	EncCapa                          uint32
}

// GetChannelList enumerates the channel list via SIOCGIWRANGE, the fallback
// used when nl80211 is unavailable. Returned values are whatever the driver
// reports in its iw_freq entries - channel numbers when e==0, else a
// frequency - matching the legacy ioctl's "integers requiring
// stringification" contract.
func GetChannelList(iface string) ([]uint32, error) {
	var rng iwRange
	req, err := newIwreq(iface)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint32(req.data[:4], uint32(uintptr(unsafe.Pointer(&rng))))
	binary.LittleEndian.PutUint16(req.data[4:6], uint16(unsafe.Sizeof(rng)))

	fd, err := ioctlSocket()
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	defer unix.Close(fd)

	// SIOCGIWRANGE's iw_point carries a pointer + length rather than inline
	// data; lay that out directly instead of going through doIoctl.
	var pointReq struct {
		name    [unix.IFNAMSIZ]byte
		pointer unsafe.Pointer
		length  uint16
		flags   uint16
	}
	copy(pointReq.name[:], iface)
	pointReq.pointer = unsafe.Pointer(&rng)
	pointReq.length = uint16(unsafe.Sizeof(rng))

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), siocgiwrange, uintptr(unsafe.Pointer(&pointReq)))
	if errno != 0 {
		return nil, fmt.Errorf("ioctl(%s, SIOCGIWRANGE): %w", iface, errno)
	}

	n := int(rng.NumFrequency)
	if n > len(rng.Freq) {
		n = len(rng.Freq)
	}
	out := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		f := rng.Freq[i]
		if f.E == 0 {
			out = append(out, uint32(f.M))
			continue
		}
		v := uint64(f.M)
		for j := int16(0); j < f.E; j++ {
			v *= 10
		}
		out = append(out, uint32(v/1_000_000))
	}
	return out, nil
}

// GetFlags returns the interface's current IFF_* flags. Read via
// net.InterfaceByName rather than a raw SIOCGIFFLAGS ioctl, since the
// kernel populates net.Interface.Flags from the same source and the
// stdlib path needs no local socket/ioctl plumbing.
func GetFlags(iface string) (uint32, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return 0, err
	}
	return uint32(ifi.Flags), nil
}

// InterfaceUp/InterfaceDown flip IFF_UP via SIOCSIFFLAGS.
func InterfaceUp(iface string) error   { return setUp(iface, true) }
func InterfaceDown(iface string) error { return setUp(iface, false) }

func setUp(iface string, up bool) error {
	fd, err := ioctlSocket()
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	defer unix.Close(fd)

	var ifr struct {
		name  [unix.IFNAMSIZ]byte
		flags uint16
		_     [22]byte
	}
	copy(ifr.name[:], iface)

	const siocgifflags = 0x8913
	const siocsifflags = 0x8914

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), siocgifflags, uintptr(unsafe.Pointer(&ifr))); errno != 0 {
		return fmt.Errorf("ioctl(%s, SIOCGIFFLAGS): %w", iface, errno)
	}

	const iffUp = 0x1
	if up {
		ifr.flags |= iffUp
	} else {
		ifr.flags &^= iffUp
	}

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), siocsifflags, uintptr(unsafe.Pointer(&ifr))); errno != 0 {
		return fmt.Errorf("ioctl(%s, SIOCSIFFLAGS): %w", iface, errno)
	}
	return nil
}

// GetHardwareAddr resolves the interface's MAC address. Wireless-extensions
// drivers expose this the same way any net device does, via
// net.InterfaceByName, so no custom ioctl is needed.
func GetHardwareAddr(iface string) (net.HardwareAddr, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, err
	}
	return ifi.HardwareAddr, nil
}
