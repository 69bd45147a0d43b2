package rhs2116

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGoodSequence(t *testing.T) {
	s := NewSequence()
	s.Stimuli[0] = examplePulse()
	r := s.Validate()
	assert.True(t, r.Valid)
	assert.True(t, r.FitsInHardware)
	assert.Equal(t, 4, r.SlotsRequired)
	assert.Equal(t, StimMemorySlots, r.SlotsAvailable)
	assert.NoError(t, r.Err())
}

func TestValidateInvalidChannels(t *testing.T) {
	s := NewSequence()
	s.Stimuli[1] = examplePulse()
	s.Stimuli[1].AnodicAmplitudeSteps = 256
	s.Stimuli[4] = examplePulse()
	s.Stimuli[4].CathodicWidthSamples = 0
	s.Stimuli[7].AnodicAmplitudeSteps = -1
	// zero width is fine when the phase carries no current
	s.Stimuli[9] = examplePulse()
	s.Stimuli[9].AnodicAmplitudeSteps = 0
	s.Stimuli[9].AnodicWidthSamples = 0

	before := s.Clone()
	r := s.Validate()
	assert.Equal(t, before, s, "Validate must not modify the sequence")

	assert.False(t, r.Valid)
	assert.Equal(t, []int{1, 4, 7}, r.InvalidChannels)
	assert.ErrorIs(t, r.Err(), ErrSequenceInvalid)
}

func TestValidateTooComplex(t *testing.T) {
	s := NewSequence()
	s.Stimuli[0] = Pulse{
		AnodicAmplitudeSteps:         1,
		AnodicWidthSamples:           1,
		CathodicAmplitudeSteps:       1,
		CathodicWidthSamples:         1,
		DwellSamples:                 1,
		InterStimulusIntervalSamples: 1,
		NumberOfStimuli:              300,
		AnodicFirst:                  true,
	}

	r := s.Validate()
	assert.True(t, r.Valid)
	assert.False(t, r.FitsInHardware)
	assert.Equal(t, 1200, r.SlotsRequired)
	assert.ErrorIs(t, r.Err(), ErrSequenceTooComplex)

	// the table is still produced in full
	table, err := s.Compile()
	require.NoError(t, err)
	assert.Len(t, table, 1200)
}

func TestValidateStepSize(t *testing.T) {
	s := NewSequence()
	s.StepSize = StepSize(42)
	r := s.Validate()
	assert.False(t, r.Valid)
	assert.Empty(t, r.InvalidChannels)
}

func TestHeadstageValidate(t *testing.T) {
	h := NewHeadstage()
	h.B.Stimuli[0] = examplePulse()
	h.B.Stimuli[0].AnodicWidthSamples = 0

	r := h.Validate()
	assert.True(t, r.A.Valid)
	assert.False(t, r.B.Valid)
	assert.False(t, r.Valid())
	assert.True(t, r.FitsInHardware())
	err := r.Err()
	assert.ErrorIs(t, err, ErrSequenceInvalid)
	assert.True(t, strings.HasPrefix(err.Error(), "device B:"), err.Error())

	c := h.Clone()
	c.B.Stimuli[0].AnodicWidthSamples = 100
	assert.True(t, c.Validate().Valid())
	assert.False(t, h.Validate().Valid())
}
