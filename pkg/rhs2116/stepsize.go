package rhs2116

import (
	"fmt"
	"strings"
)

// StepSize is the current DAC step of a device.
type StepSize uint8

const (
	Step10nA StepSize = iota
	Step20nA
	Step50nA
	Step100nA
	Step200nA
	Step500nA
	Step1000nA
	Step2000nA
	Step5000nA
	Step10000nA
)

// DefaultStepSize is selected for new sequences.
const DefaultStepSize = Step5000nA

var stepNanoAmps = [...]int{10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000}

// Valid reports whether s is a defined step size.
func (s StepSize) Valid() bool {
	return int(s) < len(stepNanoAmps)
}

// NanoAmps returns the step in nA.
func (s StepSize) NanoAmps() int {
	if !s.Valid() {
		return 0
	}
	return stepNanoAmps[s]
}

// MicroAmps returns the step in µA.
func (s StepSize) MicroAmps() float64 {
	return float64(s.NanoAmps()) / 1000
}

func (s StepSize) String() string {
	if !s.Valid() {
		return fmt.Sprintf("StepSize(%d)", uint8(s))
	}
	return fmt.Sprintf("%dnA", stepNanoAmps[s])
}

// ParseStepSize accepts "5000nA", "5000" or "5uA".
func ParseStepSize(str string) (StepSize, error) {
	clean := strings.ToLower(strings.TrimSpace(str))
	scale := 1
	switch {
	case strings.HasSuffix(clean, "na"):
		clean = strings.TrimSuffix(clean, "na")
	case strings.HasSuffix(clean, "ua"):
		clean = strings.TrimSuffix(clean, "ua")
		scale = 1000
	}
	for i, na := range stepNanoAmps {
		if fmt.Sprint(na/scale) == clean && na%scale == 0 {
			return StepSize(i), nil
		}
	}
	return 0, fmt.Errorf("rhs2116: unknown step size %q", str)
}

func (s StepSize) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("rhs2116: invalid step size %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *StepSize) UnmarshalText(text []byte) error {
	v, err := ParseStepSize(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s StepSize) MarshalYAML() (interface{}, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("rhs2116: invalid step size %d", uint8(s))
	}
	return s.String(), nil
}

func (s *StepSize) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(str))
}
