package rhs2116

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func examplePulse() Pulse {
	return Pulse{
		DelaySamples:                 0,
		AnodicAmplitudeSteps:         10,
		AnodicWidthSamples:           100,
		CathodicAmplitudeSteps:       10,
		CathodicWidthSamples:         100,
		DwellSamples:                 20,
		InterStimulusIntervalSamples: 50,
		NumberOfStimuli:              1,
		AnodicFirst:                  true,
	}
}

func TestCompileSinglePulse(t *testing.T) {
	s := NewSequence()
	s.Stimuli[0] = examplePulse()

	table, err := s.Compile()
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Time: 0, Word: 0x00010001},
		{Time: 100, Word: 0x00010000},
		{Time: 120, Word: 0x00000001},
		{Time: 220, Word: 0x00000000},
	}, table.Entries())
	assert.Equal(t, uint32(220), s.SequenceLengthSamples())
	assert.Equal(t, 4, s.StimulusSlotsRequired())
}

func TestCompileCathodicFirst(t *testing.T) {
	s := NewSequence()
	p := examplePulse()
	p.AnodicFirst = false
	p.CathodicWidthSamples = 50
	s.Stimuli[3] = p

	table, err := s.Compile()
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Time: 0, Word: 1 << 3},
		{Time: 50, Word: 0},
		{Time: 70, Word: 1<<3 | 1<<19},
		{Time: 170, Word: 1 << 19},
	}, table.Entries())
	assert.Equal(t, uint32(170), s.SequenceLengthSamples())
}

func TestCompileRepeats(t *testing.T) {
	s := NewSequence()
	p := examplePulse()
	p.NumberOfStimuli = 2
	p.DelaySamples = 10
	s.Stimuli[0] = p

	table, err := s.Compile()
	require.NoError(t, err)
	var times []uint32
	for _, e := range table.Entries() {
		times = append(times, e.Time)
	}
	assert.Equal(t, []uint32{10, 110, 130, 230, 280, 380, 400, 500}, times)
	assert.Equal(t, uint32(500), s.SequenceLengthSamples())
}

func TestCompileMergesChannels(t *testing.T) {
	s := NewSequence()
	s.Stimuli[0] = examplePulse()
	s.Stimuli[1] = examplePulse()
	other := examplePulse()
	other.AnodicFirst = false
	other.DelaySamples = 120
	s.Stimuli[15] = other

	table, err := s.Compile()
	require.NoError(t, err)

	// channel 15 starts where channels 0/1 start their cathodic phase
	assert.Len(t, table, 6)
	assert.Equal(t, uint32(0x00030003), table[0])
	assert.Equal(t, uint32(0x00030000), table[100])
	assert.Equal(t, uint32(0x00000003|1<<15), table[120])
	assert.Equal(t, uint32(0), table[220])
	assert.Equal(t, uint32(1<<15|1<<31), table[240])
	assert.Equal(t, uint32(1<<31), table[340])
}

func TestCompileZeroAmplitudePhase(t *testing.T) {
	s := NewSequence()
	p := examplePulse()
	p.CathodicAmplitudeSteps = 0
	s.Stimuli[2] = p

	table, err := s.Compile()
	require.NoError(t, err)
	assert.Equal(t, uint32(1<<2|1<<18), table[0])
	assert.Equal(t, uint32(0), table[120], "cathodic phase must stay disabled")
}

func TestCompileIdleSequence(t *testing.T) {
	s := NewSequence()
	s.Stimuli[5].DelaySamples = 1000
	table, err := s.Compile()
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.Equal(t, uint32(0), s.SequenceLengthSamples())
}

func TestCompileTooManyChannels(t *testing.T) {
	s := &Sequence{StepSize: DefaultStepSize, Stimuli: make([]Pulse, ChannelsPerDevice+1)}
	_, err := s.Compile()
	assert.ErrorIs(t, err, ErrTooManyChannels)

	r := s.Validate()
	assert.False(t, r.Valid)
	assert.Equal(t, []int{ChannelsPerDevice}, r.InvalidChannels)
}

func TestCompileSampleClockOverflow(t *testing.T) {
	p := examplePulse()
	p.DelaySamples = math.MaxUint32 - 100
	assert.False(t, p.Valid())
	assert.Equal(t, uint32(math.MaxUint32), p.LengthSamples())

	s := NewSequence()
	s.Stimuli[3] = p
	_, err := s.Compile()
	assert.ErrorIs(t, err, ErrTimeOverflow)

	r := s.Validate()
	assert.False(t, r.Valid)
	assert.Equal(t, []int{3}, r.InvalidChannels)

	p.DelaySamples = math.MaxUint32 - 220
	assert.True(t, p.Valid())
	assert.Equal(t, uint32(math.MaxUint32), p.LengthSamples())
}

func TestPeakToPeakAndAmplitude(t *testing.T) {
	s := NewSequence()
	s.Stimuli[0].AnodicAmplitudeSteps = 100
	s.Stimuli[0].CathodicAmplitudeSteps = 50
	s.Stimuli[9].AnodicAmplitudeSteps = 200
	assert.Equal(t, 200, s.MaximumPeakToPeakAmplitudeSteps())
	assert.InDelta(t, 1275.0, s.MaxPossibleAmplitudePerPhaseMicroAmps(), 1e-9)

	s.StepSize = Step10nA
	assert.InDelta(t, 2.55, s.MaxPossibleAmplitudePerPhaseMicroAmps(), 1e-9)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSequence()
	s.Stimuli[0] = examplePulse()
	c := s.Clone()
	c.Stimuli[0].AnodicAmplitudeSteps = 99
	c.StepSize = Step10nA
	assert.Equal(t, 10, s.Stimuli[0].AnodicAmplitudeSteps)
	assert.Equal(t, DefaultStepSize, s.StepSize)
}

func TestStepSize(t *testing.T) {
	tests := []struct {
		in   string
		want StepSize
	}{
		{"5000nA", Step5000nA},
		{"10", Step10nA},
		{"10uA", Step10000nA},
		{" 2uA ", Step2000nA},
	}
	for _, tt := range tests {
		got, err := ParseStepSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseStepSize("30nA")
	assert.Error(t, err)
	assert.Equal(t, "200nA", Step200nA.String())
	assert.InDelta(t, 0.5, Step500nA.MicroAmps(), 1e-12)
	assert.False(t, StepSize(10).Valid())
}
