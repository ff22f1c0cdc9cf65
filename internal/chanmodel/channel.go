package chanmodel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ChanType distinguishes HT40 extension direction from a plain non-HT channel.
type ChanType int

const (
	ChanTypeNoHT ChanType = iota
	ChanTypeHT40Minus
	ChanTypeHT40Plus
)

// ChanWidth is the channel width a Parsed channel carries; DEFAULT_20 leaves
// chan_width unset (0) the same way the original local_channel_t does.
type ChanWidth int

const (
	ChanWidthDefault20 ChanWidth = iota
	ChanWidthW5
	ChanWidthW10
	ChanWidthVHT80
	ChanWidthVHT160
)

// Parsed is the parsed channel record described in spec §3. CenterFreq1/2 of
// 0 mean "unset"; CenterFreq2 is reserved for 80+80 and never set here.
type Parsed struct {
	ControlFreq    uint32
	ChanType       ChanType
	ChanWidth      ChanWidth
	CenterFreq1    uint32
	CenterFreq2    uint32
	UnusualCenter1 bool
}

// Warning is an informational parse-time message; it never changes the
// return value except when the channel model as a whole rejects the
// request (handled via Parse's error return instead).
type Warning struct {
	Message string
}

var (
	ht40Re    = regexp.MustCompile(`^(\d+)HT40([+-])$`)
	genericRe = regexp.MustCompile(`^(\d+)([A-Za-z0-9]*?)(?:-(\d+))?$`)
)

// Parse converts a channel string into its parsed form. It returns an error
// for the VHT80/VHT160 PHY-table mismatch described in spec §4.1 and for a
// string with no leading channel number to parse - every malformed or
// unrecognized suffix degrades to a basic 20MHz channel plus a warning.
func Parse(chanstr string) (*Parsed, []Warning, error) {
	if m := ht40Re.FindStringSubmatch(chanstr); m != nil {
		return parseHT40(m)
	}

	m := genericRe.FindStringSubmatch(chanstr)
	if m == nil {
		return nil, nil, fmt.Errorf("unable to parse any channel information from channel string %q", chanstr)
	}
	return parseGeneric(m, chanstr)
}

func parseHT40(m []string) (*Parsed, []Warning, error) {
	chanNum, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to parse channel number from %q: %w", m[1], err)
	}

	p := &Parsed{ControlFreq: uint32(chanNum)}
	var warnings []Warning
	entry, found := lookupPHY(p.ControlFreq)

	switch m[2] {
	case "-":
		p.ChanType = ChanTypeHT40Minus
		if found && entry.flags&flagHT40Minus == 0 {
			warnings = append(warnings, Warning{Message: fmt.Sprintf(
				"requested channel %d as a HT40- channel; this does not appear "+
					"to be a valid channel for 40MHz operation.", p.ControlFreq)})
		}
	case "+":
		p.ChanType = ChanTypeHT40Plus
		if found && entry.flags&flagHT40Plus == 0 {
			warnings = append(warnings, Warning{Message: fmt.Sprintf(
				"requested channel %d as a HT40+ channel; this does not appear "+
					"to be a valid channel for 40MHz operation.", p.ControlFreq)})
		}
	}

	return p, warnings, nil
}

func parseGeneric(m []string, original string) (*Parsed, []Warning, error) {
	chanNum, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to parse channel number from %q: %w", m[1], err)
	}

	p := &Parsed{ControlFreq: uint32(chanNum)}
	suffix := m[2]
	centerStr := m[3]

	if suffix == "" {
		return p, nil, nil
	}

	var warnings []Warning

	switch strings.ToLower(suffix) {
	case "w5":
		p.ChanWidth = ChanWidthW5
	case "w10":
		p.ChanWidth = ChanWidthW10
	case "vht80":
		p.ChanWidth = ChanWidthVHT80
		if centerStr != "" {
			center, _ := strconv.ParseUint(centerStr, 10, 32)
			p.CenterFreq1 = uint32(center)
			p.UnusualCenter1 = true
		} else {
			entry, found := lookupPHY(p.ControlFreq)
			if !found || entry.flags&flagVHT80 == 0 {
				return nil, nil, fmt.Errorf("requested channel %d as a VHT80 channel; "+
					"this does not appear to be a valid channel for 80MHz operation, "+
					"skipping channel", p.ControlFreq)
			}
			p.ControlFreq = entry.freq
			p.CenterFreq1 = entry.freq80
		}
	case "vht160":
		p.ChanWidth = ChanWidthVHT160
		if centerStr != "" {
			center, _ := strconv.ParseUint(centerStr, 10, 32)
			p.CenterFreq1 = uint32(center)
			p.UnusualCenter1 = true
		} else {
			entry, found := lookupPHY(p.ControlFreq)
			if !found || entry.flags&flagVHT160 == 0 {
				return nil, nil, fmt.Errorf("requested channel %d as a VHT160 channel; "+
					"this does not appear to be a valid channel for 160MHz operation, "+
					"skipping channel", p.ControlFreq)
			}
			p.ControlFreq = entry.freq
			p.CenterFreq1 = entry.freq160
		}
	default:
		warnings = append(warnings, Warning{Message: fmt.Sprintf(
			"unable to parse attributes on channel %q, treating as standard non-HT channel.",
			original)})
	}

	return p, warnings, nil
}

// Render is the inverse of Parse; for every channel Parse can produce,
// Parse(Render(p)) reconstructs an equivalent Parsed value.
func Render(p *Parsed) string {
	if p.ChanType == ChanTypeNoHT && p.ChanWidth == ChanWidthDefault20 {
		return strconv.FormatUint(uint64(p.ControlFreq), 10)
	}

	switch p.ChanType {
	case ChanTypeHT40Minus:
		return fmt.Sprintf("%dHT40-", p.ControlFreq)
	case ChanTypeHT40Plus:
		return fmt.Sprintf("%dHT40+", p.ControlFreq)
	}

	switch p.ChanWidth {
	case ChanWidthW5:
		return fmt.Sprintf("%dW5", p.ControlFreq)
	case ChanWidthW10:
		return fmt.Sprintf("%dW10", p.ControlFreq)
	case ChanWidthVHT80:
		if p.UnusualCenter1 {
			return fmt.Sprintf("%dVHT80-%d", p.ControlFreq, p.CenterFreq1)
		}
		return fmt.Sprintf("%dVHT80", p.ControlFreq)
	case ChanWidthVHT160:
		if p.UnusualCenter1 {
			return fmt.Sprintf("%dVHT160-%d", p.ControlFreq, p.CenterFreq1)
		}
		return fmt.Sprintf("%dVHT160", p.ControlFreq)
	default:
		return strconv.FormatUint(uint64(p.ControlFreq), 10)
	}
}
