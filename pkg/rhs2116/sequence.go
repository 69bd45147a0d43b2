package rhs2116

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// ChannelsPerDevice is the number of stimulation channels of one RHS2116.
	ChannelsPerDevice = 16
	// StimMemorySlots is the number of delta table entries a device holds.
	StimMemorySlots = 1024
	// MaxAmplitudeSteps is the largest per-phase amplitude.
	MaxAmplitudeSteps = 255
)

// Pulse describes the biphasic pulse train of one channel. Amplitudes are
// DAC steps; times are sample counts.
type Pulse struct {
	DelaySamples                 uint32 `yaml:"delay" json:"delay"`
	AnodicAmplitudeSteps         int    `yaml:"anodic_amplitude" json:"anodic_amplitude"`
	AnodicWidthSamples           uint32 `yaml:"anodic_width" json:"anodic_width"`
	CathodicAmplitudeSteps       int    `yaml:"cathodic_amplitude" json:"cathodic_amplitude"`
	CathodicWidthSamples         uint32 `yaml:"cathodic_width" json:"cathodic_width"`
	DwellSamples                 uint32 `yaml:"dwell" json:"dwell"`
	InterStimulusIntervalSamples uint32 `yaml:"inter_stimulus_interval" json:"inter_stimulus_interval"`
	NumberOfStimuli              uint32 `yaml:"count" json:"count"`
	AnodicFirst                  bool   `yaml:"anodic_first" json:"anodic_first"`
}

// Valid reports whether both amplitudes fit 8 bits and every phase that
// drives current has a nonzero width.
func (p Pulse) Valid() bool {
	if p.AnodicAmplitudeSteps < 0 || p.AnodicAmplitudeSteps > MaxAmplitudeSteps {
		return false
	}
	if p.CathodicAmplitudeSteps < 0 || p.CathodicAmplitudeSteps > MaxAmplitudeSteps {
		return false
	}
	if p.AnodicAmplitudeSteps > 0 && p.AnodicWidthSamples == 0 {
		return false
	}
	if p.CathodicAmplitudeSteps > 0 && p.CathodicWidthSamples == 0 {
		return false
	}
	return p.end() <= math.MaxUint32
}

// LengthSamples is the time at which the channel's last pulse ends. A
// channel without stimuli has length zero. A train ending past the 32-bit
// sample clock reports the clamped maximum; Valid rejects it.
func (p Pulse) LengthSamples() uint32 {
	end := p.end()
	if end > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(end)
}

// end computes LengthSamples without wrapping.
func (p Pulse) end() uint64 {
	n := uint64(p.NumberOfStimuli)
	if n == 0 {
		return 0
	}
	span := uint64(p.AnodicWidthSamples) + uint64(p.DwellSamples) + uint64(p.CathodicWidthSamples)
	return uint64(p.DelaySamples) + n*span + (n-1)*uint64(p.InterStimulusIntervalSamples)
}

// Sequence is the stimulus program of one device.
type Sequence struct {
	StepSize StepSize `yaml:"step_size" json:"step_size"`
	Stimuli  []Pulse  `yaml:"stimuli" json:"stimuli"`
}

// NewSequence returns an idle sequence with ChannelsPerDevice channels.
func NewSequence() *Sequence {
	return &Sequence{
		StepSize: DefaultStepSize,
		Stimuli:  make([]Pulse, ChannelsPerDevice),
	}
}

// Clone returns a deep copy of s.
func (s *Sequence) Clone() *Sequence {
	out := &Sequence{StepSize: s.StepSize}
	if s.Stimuli != nil {
		out.Stimuli = append([]Pulse(nil), s.Stimuli...)
	}
	return out
}

// SequenceLengthSamples is the longest channel length.
func (s *Sequence) SequenceLengthSamples() uint32 {
	var max uint32
	for _, p := range s.Stimuli {
		if l := p.LengthSamples(); l > max {
			max = l
		}
	}
	return max
}

// MaximumPeakToPeakAmplitudeSteps is the largest anodic plus cathodic
// amplitude of any channel.
func (s *Sequence) MaximumPeakToPeakAmplitudeSteps() int {
	max := 0
	for _, p := range s.Stimuli {
		if p2p := p.AnodicAmplitudeSteps + p.CathodicAmplitudeSteps; p2p > max {
			max = p2p
		}
	}
	return max
}

// MaxPossibleAmplitudePerPhaseMicroAmps is the current of a full-scale
// phase at the selected step size.
func (s *Sequence) MaxPossibleAmplitudePerPhaseMicroAmps() float64 {
	return s.StepSize.MicroAmps() * MaxAmplitudeSteps
}

// ErrTooManyChannels is returned when a sequence lists more channels than
// a device has.
var ErrTooManyChannels = errors.New("rhs2116: sequence has more channels than the device")

// ErrTimeOverflow is returned when a pulse train ends past the 32-bit
// sample clock.
var ErrTimeOverflow = errors.New("rhs2116: pulse train exceeds the sample clock range")

// DeltaTable maps sample time to the enable (low 16 bits) and polarity
// (high 16 bits) words of every channel.
type DeltaTable map[uint32]uint32

// Entry is one delta table slot.
type Entry struct {
	Time uint32 `json:"time"`
	Word uint32 `json:"word"`
}

// Entries returns the table in ascending time order.
func (d DeltaTable) Entries() []Entry {
	out := make([]Entry, 0, len(d))
	for t, w := range d {
		out = append(out, Entry{Time: t, Word: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func (d DeltaTable) set(channel int, t uint32, polarity, enable bool) {
	w := d[t]
	enableBit := uint32(1) << uint(channel)
	polarityBit := uint32(1) << uint(channel+ChannelsPerDevice)
	w &^= enableBit | polarityBit
	if enable {
		w |= enableBit
	}
	if polarity {
		w |= polarityBit
	}
	d[t] = w
}

// Compile builds the delta table of s. Each pulse contributes four events:
// phase one on, phase one off, phase two on after the dwell, phase two off.
// A phase is enabled only when its amplitude is nonzero. Events of
// different channels at the same time share one entry.
func (s *Sequence) Compile() (DeltaTable, error) {
	if len(s.Stimuli) > ChannelsPerDevice {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyChannels, len(s.Stimuli), ChannelsPerDevice)
	}

	table := make(DeltaTable)
	for ch, p := range s.Stimuli {
		if p.end() > math.MaxUint32 {
			return nil, fmt.Errorf("%w: channel %d", ErrTimeOverflow, ch)
		}
		firstAmp, secondAmp := p.CathodicAmplitudeSteps, p.AnodicAmplitudeSteps
		firstWidth, secondWidth := p.CathodicWidthSamples, p.AnodicWidthSamples
		if p.AnodicFirst {
			firstAmp, secondAmp = secondAmp, firstAmp
			firstWidth, secondWidth = secondWidth, firstWidth
		}
		d0 := firstWidth
		d1 := d0 + p.DwellSamples
		d2 := d1 + secondWidth

		t0 := p.DelaySamples
		for n := uint32(0); n < p.NumberOfStimuli; n++ {
			table.set(ch, t0, p.AnodicFirst, firstAmp > 0)
			table.set(ch, t0+d0, p.AnodicFirst, false)
			table.set(ch, t0+d1, !p.AnodicFirst, secondAmp > 0)
			table.set(ch, t0+d2, !p.AnodicFirst, false)
			t0 += d2 + p.InterStimulusIntervalSamples
		}
	}
	return table, nil
}

// StimulusSlotsRequired is the number of delta table entries of s.
func (s *Sequence) StimulusSlotsRequired() int {
	table, err := s.Compile()
	if err != nil {
		return 0
	}
	return len(table)
}
