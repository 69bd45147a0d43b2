package npx

// The formulas below describe the ASIC shift-chain pinout. They are fixed by
// the silicon and are covered by tests pinned to literal offsets.

// ChainIndex returns which base-configuration vector holds channel ch
// (0 = even channels / SR_CHAIN2, 1 = odd channels / SR_CHAIN3).
func ChainIndex(ch int) int {
	return ch % 2
}

// ReferenceOffset returns the first of the three reference bits for ch.
func ReferenceOffset(ch int) int {
	if ch%2 == 0 {
		return (382 - ch) / 2 * 3
	}
	return (383 - ch) / 2 * 3
}

// ChannelOptionsOffset returns the start of the option block for ch.
//
//	MSB [full, standby, LFP gain (2:0), AP gain (2:0)] LSB
func ChannelOptionsOffset(ch int) int {
	return BaseConfigOffset + 4*(ch-ch%2)
}

// Bit positions inside a channel option block.
const (
	optSpikeGain = 0
	optLfpGain   = 3
	optStandby   = 6
	optFull      = 7
)

// AdcChainIndex returns which base-configuration vector holds ADC k.
func AdcChainIndex(k int) int {
	return k % 2
}

// AdcCompOffset returns the start of the CompP/CompN pair for ADC k.
func AdcCompOffset(k int) int {
	d := k / 2
	return 2406 - 42*(d/2) + (d%2)*10
}

// AdcSlopeOffset returns the start of the Slope/Fine/Coarse/Cfix run for ADC k.
func AdcSlopeOffset(k int) int {
	d := k / 2
	return AdcCompOffset(k) + 20 + d%2
}

// ShankOffset returns the first of the three shank bits for ch in a shank
// vector covering channelCount channels. Channel 0 owns the last triplet.
func ShankOffset(ch, channelCount int) int {
	return (channelCount - 1 - ch) * ShankBitsPerChannel
}
