package npx

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/bits"
)

// BaseConfig holds the two interleaved base-configuration vectors:
// index 0 for even channels, index 1 for odd channels.
type BaseConfig [2]bits.Vector

// NewBaseConfig allocates two cleared base-configuration vectors.
func NewBaseConfig() BaseConfig {
	return BaseConfig{
		bits.NewVector(BaseConfigBitCount),
		bits.NewVector(BaseConfigBitCount),
	}
}

// EncodeChannels places the reference, gain and filter bits of every channel.
// len(channels) must equal ChannelCount.
func EncodeChannels(base BaseConfig, channels []ChannelConfig) error {
	if len(channels) != ChannelCount {
		return fmt.Errorf("npx: got %d channel configs, want %d", len(channels), ChannelCount)
	}
	for i, c := range channels {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("npx: channel %d: %w", i, err)
		}
	}

	for i, c := range channels {
		v := base[ChainIndex(i)]
		if err := v.Set(ReferenceOffset(i), uint64(c.Reference), 3); err != nil {
			return fmt.Errorf("npx: channel %d reference: %w", i, err)
		}

		opts := ChannelOptionsOffset(i)
		if err := v.Set(opts+optSpikeGain, uint64(c.SpikeGain), 3); err != nil {
			return fmt.Errorf("npx: channel %d spike gain: %w", i, err)
		}
		if err := v.Set(opts+optLfpGain, uint64(c.LfpGain), 3); err != nil {
			return fmt.Errorf("npx: channel %d LFP gain: %w", i, err)
		}
		v[opts+optStandby] = false
		v[opts+optFull] = !c.SpikeFilter
	}
	return nil
}

type trimField struct {
	name  string
	value int
	width int
}

func trimFields(t AdcTrim) []trimField {
	return []trimField{
		{"CompP", t.CompP, CompPWidth},
		{"CompN", t.CompN, CompNWidth},
		{"Cfix", t.Cfix, CfixWidth},
		{"Slope", t.Slope, SlopeWidth},
		{"Coarse", t.Coarse, CoarseWidth},
		{"Fine", t.Fine, FineWidth},
	}
}

// ValidateTrim checks every shifted field of t against its bit width.
func ValidateTrim(adc int, t AdcTrim) error {
	for _, f := range trimFields(t) {
		if f.value < 0 || uint64(f.value) > bits.MaxValue(f.width) {
			return &TrimError{
				Adc:   adc,
				Field: f.name,
				Value: f.value,
				Err:   &bits.RangeError{Value: uint64(f.value), Width: f.width},
			}
		}
	}
	return nil
}

// EncodeAdcTrims places the calibration trims of up to AdcCount ADCs. All
// trims are validated before any bit is written.
func EncodeAdcTrims(base BaseConfig, adcs []AdcTrim) error {
	if len(adcs) > AdcCount {
		return fmt.Errorf("npx: got %d ADC trims, want at most %d", len(adcs), AdcCount)
	}
	for k, t := range adcs {
		if err := ValidateTrim(k, t); err != nil {
			return err
		}
	}

	for k, t := range adcs {
		v := base[AdcChainIndex(k)]
		comp := AdcCompOffset(k)
		slope := AdcSlopeOffset(k)

		fields := []struct {
			offset int
			value  int
			width  int
		}{
			{comp, t.CompP, CompPWidth},
			{comp + CompPWidth, t.CompN, CompNWidth},
			{slope, t.Slope, SlopeWidth},
			{slope + SlopeWidth, t.Fine, FineWidth},
			{slope + SlopeWidth + FineWidth, t.Coarse, CoarseWidth},
			{slope + SlopeWidth + FineWidth + CoarseWidth, t.Cfix, CfixWidth},
		}
		for _, f := range fields {
			if err := v.Set(f.offset, uint64(f.value), f.width); err != nil {
				return fmt.Errorf("npx: ADC %d: %w", k, err)
			}
		}
	}
	return nil
}

// EncodeShank builds the shank vector for channelCount channels. Enabled
// channels carry their reference code (or ref when unset); everything else
// stays zero. A nil map enables every channel.
func EncodeShank(m ChannelMap, ref ReferenceSource, channelCount int) (bits.Vector, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("npx: invalid probe reference code %d", uint8(ref))
	}
	if m == nil {
		m = AllChannels(channelCount)
	}
	if err := m.Validate(channelCount); err != nil {
		return nil, err
	}

	v := bits.NewVector(channelCount * ShankBitsPerChannel)
	for _, a := range m {
		if !a.Enabled {
			continue
		}
		code := a.Reference
		if code == 0 {
			code = ref
		}
		if err := v.Set(ShankOffset(a.Channel, channelCount), uint64(code), ShankBitsPerChannel); err != nil {
			return nil, fmt.Errorf("npx: channel %d: %w", a.Channel, err)
		}
	}
	return v, nil
}
