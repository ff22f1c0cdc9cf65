// Package chanmodel implements the channel string grammar and the static
// PHY table used to validate HT40/VHT80/VHT160 requests against what a
// channel can actually carry.
package chanmodel

// phyFlag is a bitset of the widths/extensions a phyEntry supports.
type phyFlag uint32

const (
	flagHT40Minus phyFlag = 1 << iota
	flagHT40Plus
	flagVHT80
	flagVHT160
)

// phyEntry mirrors the original wifi_ht_channels table: a channel number,
// its control frequency, which widths it supports, and the 80/160MHz
// center frequencies it derives to when no explicit center is given.
type phyEntry struct {
	chan_   uint32
	freq    uint32
	flags   phyFlag
	freq80  uint32
	freq160 uint32
}

// phyTable is read-only for the lifetime of the process. Channel 1 is
// deliberately left without HT40+ (too little headroom at the edge of the
// 2.4GHz band in most regdomains); channel 14 is left with no HT flags at
// all (Japan-only, 20MHz). 36-48 supports VHT80 but not VHT160; 100-112
// supports both.
var phyTable = []phyEntry{
	{chan_: 1, freq: 2412, flags: 0},
	{chan_: 2, freq: 2417, flags: flagHT40Plus},
	{chan_: 3, freq: 2422, flags: flagHT40Plus},
	{chan_: 4, freq: 2427, flags: flagHT40Plus},
	{chan_: 5, freq: 2432, flags: flagHT40Plus | flagHT40Minus},
	{chan_: 6, freq: 2437, flags: flagHT40Plus | flagHT40Minus},
	{chan_: 7, freq: 2442, flags: flagHT40Plus | flagHT40Minus},
	{chan_: 8, freq: 2447, flags: flagHT40Plus | flagHT40Minus},
	{chan_: 9, freq: 2452, flags: flagHT40Plus | flagHT40Minus},
	{chan_: 10, freq: 2457, flags: flagHT40Minus},
	{chan_: 11, freq: 2462, flags: flagHT40Minus},
	{chan_: 12, freq: 2467, flags: flagHT40Minus},
	{chan_: 13, freq: 2472, flags: flagHT40Minus},
	{chan_: 14, freq: 2484, flags: 0},

	{chan_: 36, freq: 5180, flags: flagHT40Plus | flagVHT80, freq80: 5210},
	{chan_: 40, freq: 5200, flags: flagHT40Minus | flagVHT80, freq80: 5210},
	{chan_: 44, freq: 5220, flags: flagHT40Plus | flagVHT80, freq80: 5210},
	{chan_: 48, freq: 5240, flags: flagHT40Minus | flagVHT80, freq80: 5210},

	{chan_: 100, freq: 5500, flags: flagHT40Plus | flagVHT80 | flagVHT160, freq80: 5530, freq160: 5570},
	{chan_: 104, freq: 5520, flags: flagHT40Minus | flagVHT80 | flagVHT160, freq80: 5530, freq160: 5570},
	{chan_: 108, freq: 5540, flags: flagHT40Plus | flagVHT80 | flagVHT160, freq80: 5530, freq160: 5570},
	{chan_: 112, freq: 5560, flags: flagHT40Minus | flagVHT80 | flagVHT160, freq80: 5530, freq160: 5570},

	{chan_: 149, freq: 5745, flags: flagHT40Plus | flagVHT80, freq80: 5775},
	{chan_: 153, freq: 5765, flags: flagHT40Minus | flagVHT80, freq80: 5775},
	{chan_: 157, freq: 5785, flags: flagHT40Plus | flagVHT80, freq80: 5775},
	{chan_: 161, freq: 5805, flags: flagHT40Minus | flagVHT80, freq80: 5775},
}

// lookupPHY finds a table entry by channel number or by frequency -
// chantranslate is handed either a channel number or a raw frequency and
// cannot tell which until it checks both columns. It always walks the
// table's true extent (len(phyTable)), never a separately maintained
// sentinel size.
func lookupPHY(chanOrFreq uint32) (phyEntry, bool) {
	for i := 0; i < len(phyTable); i++ {
		if phyTable[i].chan_ == chanOrFreq || phyTable[i].freq == chanOrFreq {
			return phyTable[i], true
		}
	}
	return phyEntry{}, false
}
