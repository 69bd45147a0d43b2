package sequencer

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/npx"
)

// Family identifies a device family whose register protocol differs.
type Family uint8

const (
	FamilyNeuropixelsV1e Family = iota + 1
	FamilyRhs2116
)

func (f Family) String() string {
	switch f {
	case FamilyNeuropixelsV1e:
		return "neuropixels-v1e"
	case FamilyRhs2116:
		return "rhs2116"
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// ParseFamily accepts the names returned by Family.String.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "neuropixels-v1e", "npx1e":
		return FamilyNeuropixelsV1e, nil
	case "rhs2116":
		return FamilyRhs2116, nil
	}
	return 0, fmt.Errorf("sequencer: unknown device family %q", s)
}

// ErrNoShiftChains is returned for families programmed without shift
// register chains.
var ErrNoShiftChains = errors.New("sequencer: device family has no shift register chains")

// Layout is the shift-chain geometry of a family.
type Layout struct {
	ShankChain uint32
	BaseChains [2]uint32
	LengthLow  uint32
	LengthHigh uint32
	SoftReset  uint32
	Status     uint32
	Success    uint32

	ShankBytes int
	BaseBytes  int
}

// Layout returns the chain geometry of f.
func (f Family) Layout() (Layout, error) {
	switch f {
	case FamilyNeuropixelsV1e:
		return Layout{
			ShankChain: npx.RegSRChain1,
			BaseChains: [2]uint32{npx.RegSRChain2, npx.RegSRChain3},
			LengthLow:  npx.RegSRLength1,
			LengthHigh: npx.RegSRLength2,
			SoftReset:  npx.RegSoftReset,
			Status:     npx.RegStatus,
			Success:    npx.ShiftRegisterSuccess,
			ShankBytes: (npx.ShankConfigBitCount + 7) / 8,
			BaseBytes:  (npx.BaseConfigBitCount + 7) / 8,
		}, nil
	case FamilyRhs2116:
		return Layout{}, fmt.Errorf("%w: %v", ErrNoShiftChains, f)
	}
	return Layout{}, fmt.Errorf("sequencer: unknown device family %d", uint8(f))
}
