package npx

import (
	"fmt"
	"strings"
)

// Gain is the 3-bit amplifier gain code.
type Gain uint8

const (
	Gain50 Gain = iota
	Gain125
	Gain250
	Gain500
	Gain1000
	Gain1500
	Gain2000
	Gain3000
)

var gainMultipliers = [...]int{50, 125, 250, 500, 1000, 1500, 2000, 3000}

// Multiplier returns the amplifier gain factor.
func (g Gain) Multiplier() int {
	if !g.Valid() {
		return 0
	}
	return gainMultipliers[g]
}

// Valid reports whether g is one of the eight defined gain codes.
func (g Gain) Valid() bool {
	return g <= Gain3000
}

func (g Gain) String() string {
	if !g.Valid() {
		return fmt.Sprintf("Gain(%d)", uint8(g))
	}
	return fmt.Sprintf("x%d", gainMultipliers[g])
}

// ParseGain accepts "x1000", "1000" or "X1000".
func ParseGain(s string) (Gain, error) {
	clean := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "x")
	for i, m := range gainMultipliers {
		if clean == fmt.Sprint(m) {
			return Gain(i), nil
		}
	}
	return 0, fmt.Errorf("npx: unknown gain %q", s)
}

func (g Gain) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("npx: invalid gain code %d", uint8(g))
	}
	return []byte(g.String()), nil
}

func (g *Gain) UnmarshalText(text []byte) error {
	v, err := ParseGain(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// ReferenceSource is the 3-bit one-hot reference selection.
// The zero value means "not set" and inherits the probe default.
type ReferenceSource uint8

const (
	ReferenceExternal ReferenceSource = 0b001
	ReferenceTip      ReferenceSource = 0b010
	ReferenceTest     ReferenceSource = 0b100
)

// Valid reports whether r is a defined reference code.
func (r ReferenceSource) Valid() bool {
	switch r {
	case ReferenceExternal, ReferenceTip, ReferenceTest:
		return true
	}
	return false
}

func (r ReferenceSource) String() string {
	switch r {
	case ReferenceExternal:
		return "ext"
	case ReferenceTip:
		return "tip"
	case ReferenceTest:
		return "test"
	case 0:
		return ""
	}
	return fmt.Sprintf("ReferenceSource(%d)", uint8(r))
}

// ParseReference accepts "ext"/"external", "tip" and "test".
func ParseReference(s string) (ReferenceSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ext", "external":
		return ReferenceExternal, nil
	case "tip":
		return ReferenceTip, nil
	case "test":
		return ReferenceTest, nil
	}
	return 0, fmt.Errorf("npx: unknown reference %q", s)
}

func (r ReferenceSource) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ReferenceSource) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = 0
		return nil
	}
	v, err := ParseReference(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ChannelConfig holds the recording options for one channel.
//
// SpikeFilter engages the 300 Hz spike-band high-pass. The option block
// stores it inverted: bit 7 is 1 for full bandwidth, 0 with the filter on.
type ChannelConfig struct {
	SpikeGain   Gain
	LfpGain     Gain
	Reference   ReferenceSource
	SpikeFilter bool
}

// Validate checks that every code fits its field.
func (c ChannelConfig) Validate() error {
	if !c.SpikeGain.Valid() {
		return fmt.Errorf("npx: invalid spike gain code %d", uint8(c.SpikeGain))
	}
	if !c.LfpGain.Valid() {
		return fmt.Errorf("npx: invalid LFP gain code %d", uint8(c.LfpGain))
	}
	if !c.Reference.Valid() {
		return fmt.Errorf("npx: invalid reference code %d", uint8(c.Reference))
	}
	return nil
}

// Bit widths of the ADC trim fields.
const (
	CompPWidth  = 5
	CompNWidth  = 5
	CfixWidth   = 4
	SlopeWidth  = 3
	CoarseWidth = 2
	FineWidth   = 2
)

// AdcTrim is the per-ADC calibration row. Offset and Threshold are not
// shifted into the probe; they are reported to the data path.
type AdcTrim struct {
	CompP     int
	CompN     int
	Slope     int
	Coarse    int
	Fine      int
	Cfix      int
	Offset    int
	Threshold int
}
