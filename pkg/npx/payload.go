package npx

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/bits"
)

// Settings is the human-level probe configuration.
type Settings struct {
	SpikeGain   Gain
	LfpGain     Gain
	Reference   ReferenceSource
	SpikeFilter bool

	// Channels overrides the probe-wide options per channel. When non-nil
	// it must hold exactly ChannelCount entries.
	Channels []ChannelConfig

	// ChannelMap selects the active contacts; nil enables every channel.
	ChannelMap ChannelMap
}

// DefaultSettings mirrors the acquisition defaults: x1000 spike gain, x50
// LFP gain, external reference and the spike filter engaged.
func DefaultSettings() Settings {
	return Settings{
		SpikeGain:   Gain1000,
		LfpGain:     Gain50,
		Reference:   ReferenceExternal,
		SpikeFilter: true,
	}
}

// ChannelConfigs expands the settings into one ChannelConfig per channel.
func (s Settings) ChannelConfigs() ([]ChannelConfig, error) {
	if s.Channels != nil {
		if len(s.Channels) != ChannelCount {
			return nil, fmt.Errorf("npx: got %d channel configs, want %d", len(s.Channels), ChannelCount)
		}
		out := make([]ChannelConfig, ChannelCount)
		copy(out, s.Channels)
		return out, nil
	}
	out := make([]ChannelConfig, ChannelCount)
	for i := range out {
		out[i] = ChannelConfig{
			SpikeGain:   s.SpikeGain,
			LfpGain:     s.LfpGain,
			Reference:   s.Reference,
			SpikeFilter: s.SpikeFilter,
		}
	}
	return out, nil
}

// Payload is the encoded probe configuration.
type Payload struct {
	SerialNumber uint64

	Shank bits.Vector
	Base  BaseConfig

	ShankBytes []byte
	BaseBytes  [2][]byte

	SpikeGainCorrection float64
	LfpGainCorrection   float64
	AdcOffsets          []uint16
	AdcThresholds       []uint16
}

// Build validates the settings and calibrations and encodes every vector.
// Mismatched calibration serial numbers fail before anything is encoded.
func Build(s Settings, gain *GainCalibration, adc *AdcCalibration) (*Payload, error) {
	if err := CheckSerials(gain, adc); err != nil {
		return nil, err
	}

	spikeCorr, lfpCorr, err := gain.Correction(s.SpikeGain, s.LfpGain)
	if err != nil {
		return nil, err
	}

	channels, err := s.ChannelConfigs()
	if err != nil {
		return nil, err
	}

	shank, err := EncodeShank(s.ChannelMap, s.Reference, ChannelCount)
	if err != nil {
		return nil, err
	}

	base := NewBaseConfig()
	if err := EncodeChannels(base, channels); err != nil {
		return nil, err
	}
	if err := EncodeAdcTrims(base, adc.Adcs); err != nil {
		return nil, err
	}

	p := &Payload{
		SerialNumber:        gain.SerialNumber,
		Shank:               shank,
		Base:                base,
		SpikeGainCorrection: spikeCorr,
		LfpGainCorrection:   lfpCorr,
		AdcOffsets:          adc.Offsets(),
		AdcThresholds:       adc.Thresholds(),
	}
	if p.ShankBytes, err = bits.Pack(shank); err != nil {
		return nil, fmt.Errorf("npx: pack shank: %w", err)
	}
	for i := range base {
		if p.BaseBytes[i], err = bits.Pack(base[i]); err != nil {
			return nil, fmt.Errorf("npx: pack base config %d: %w", i, err)
		}
	}
	return p, nil
}
