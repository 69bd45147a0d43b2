package rhs2116

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v2"
)

// Headstage holds the sequences of the two RHS2116 devices sharing one
// port.
type Headstage struct {
	A *Sequence `yaml:"a" json:"a"`
	B *Sequence `yaml:"b" json:"b"`
}

// NewHeadstage returns a headstage with two idle sequences.
func NewHeadstage() *Headstage {
	return &Headstage{A: NewSequence(), B: NewSequence()}
}

// Clone returns a deep copy of h.
func (h *Headstage) Clone() *Headstage {
	out := &Headstage{}
	if h.A != nil {
		out.A = h.A.Clone()
	}
	if h.B != nil {
		out.B = h.B.Clone()
	}
	return out
}

// HeadstageReport combines the reports of both devices.
type HeadstageReport struct {
	A Report `json:"a"`
	B Report `json:"b"`
}

// Valid reports whether both sequences are well defined.
func (r HeadstageReport) Valid() bool {
	return r.A.Valid && r.B.Valid
}

// FitsInHardware reports whether both sequences fit their device.
func (r HeadstageReport) FitsInHardware() bool {
	return r.A.FitsInHardware && r.B.FitsInHardware
}

// Err returns the first device error, prefixed with the device name.
func (r HeadstageReport) Err() error {
	if err := r.A.Err(); err != nil {
		return fmt.Errorf("device A: %w", err)
	}
	if err := r.B.Err(); err != nil {
		return fmt.Errorf("device B: %w", err)
	}
	return nil
}

// Validate checks both devices. A missing sequence validates as idle.
func (h *Headstage) Validate() HeadstageReport {
	a, b := h.A, h.B
	if a == nil {
		a = NewSequence()
	}
	if b == nil {
		b = NewSequence()
	}
	return HeadstageReport{A: a.Validate(), B: b.Validate()}
}

// sequenceFile is the on-disk form of a Sequence; absent fields take
// their defaults.
type sequenceFile struct {
	StepSize *StepSize `yaml:"step_size"`
	Stimuli  []Pulse   `yaml:"stimuli"`
}

func (f *sequenceFile) sequence() (*Sequence, error) {
	s := NewSequence()
	if f == nil {
		return s, nil
	}
	if f.StepSize != nil {
		s.StepSize = *f.StepSize
	}
	if len(f.Stimuli) > ChannelsPerDevice {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyChannels, len(f.Stimuli), ChannelsPerDevice)
	}
	copy(s.Stimuli, f.Stimuli)
	return s, nil
}

// LoadSequence decodes a YAML sequence. Missing channels are idle and a
// missing step size selects DefaultStepSize.
func LoadSequence(r io.Reader) (*Sequence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("rhs2116: read sequence: %w", err)
	}
	var f sequenceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("rhs2116: decode sequence: %w", err)
	}
	return f.sequence()
}

// Save encodes s as YAML.
func (s *Sequence) Save(w io.Writer) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("rhs2116: encode sequence: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// LoadHeadstage decodes a YAML headstage file with "a" and "b" sequences.
func LoadHeadstage(r io.Reader) (*Headstage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("rhs2116: read headstage: %w", err)
	}
	var f struct {
		A *sequenceFile `yaml:"a"`
		B *sequenceFile `yaml:"b"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("rhs2116: decode headstage: %w", err)
	}
	h := &Headstage{}
	if h.A, err = f.A.sequence(); err != nil {
		return nil, fmt.Errorf("device A: %w", err)
	}
	if h.B, err = f.B.sequence(); err != nil {
		return nil, fmt.Errorf("device B: %w", err)
	}
	return h, nil
}

// Save encodes h as YAML.
func (h *Headstage) Save(w io.Writer) error {
	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("rhs2116: encode headstage: %w", err)
	}
	_, err = w.Write(data)
	return err
}
