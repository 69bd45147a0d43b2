package rhs2116

import (
	"errors"
	"fmt"
)

var (
	// ErrSequenceInvalid marks a sequence with a malformed channel.
	ErrSequenceInvalid = errors.New("rhs2116: stimulus sequence is invalid")
	// ErrSequenceTooComplex marks a sequence needing more memory slots than
	// the device has.
	ErrSequenceTooComplex = errors.New("rhs2116: stimulus sequence is too complex")
)

// Report is the outcome of validating one sequence.
type Report struct {
	Valid           bool  `json:"valid"`
	FitsInHardware  bool  `json:"fits_in_hardware"`
	InvalidChannels []int `json:"invalid_channels,omitempty"`
	SlotsRequired   int   `json:"slots_required"`
	SlotsAvailable  int   `json:"slots_available"`
}

// Err converts the report flags into an error, or nil when the sequence is
// usable.
func (r Report) Err() error {
	switch {
	case !r.Valid:
		return fmt.Errorf("%w: channels %v", ErrSequenceInvalid, r.InvalidChannels)
	case !r.FitsInHardware:
		return fmt.Errorf("%w: %d slots required, %d available", ErrSequenceTooComplex, r.SlotsRequired, r.SlotsAvailable)
	}
	return nil
}

// Validate checks the step size, every channel and the slot count of s. It
// never modifies s. Channels past ChannelsPerDevice are reported invalid.
func (s *Sequence) Validate() Report {
	r := Report{SlotsAvailable: StimMemorySlots}
	for ch, p := range s.Stimuli {
		if ch >= ChannelsPerDevice || !p.Valid() {
			r.InvalidChannels = append(r.InvalidChannels, ch)
		}
	}
	r.Valid = len(r.InvalidChannels) == 0 && s.StepSize.Valid()

	limited := s
	if len(s.Stimuli) > ChannelsPerDevice {
		limited = &Sequence{StepSize: s.StepSize, Stimuli: s.Stimuli[:ChannelsPerDevice]}
	}
	r.SlotsRequired = limited.StimulusSlotsRequired()
	r.FitsInHardware = r.SlotsRequired <= r.SlotsAvailable
	return r
}
