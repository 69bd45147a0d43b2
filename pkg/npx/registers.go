package npx

// I2C address of the probe behind the serializer.
const ProbeAddress = 0x70

// Geometry of a Neuropixels 1.0 probe.
const (
	ChannelCount         = 384
	AdcCount             = 32
	ChannelsPerAdc       = ChannelCount / AdcCount
	FramesPerSuperFrame  = 13
	FramesPerRoundRobin  = 12
	BaseConfigBitCount   = 2448
	BaseConfigOffset     = 576 // start of the per-channel option blocks
	ShankBitsPerChannel  = 3
	ShankConfigBitCount  = ChannelCount * ShankBitsPerChannel
	ShiftRegisterSuccess = 1 << 7
)

// Probe register addresses.
const (
	RegOpMode      uint32 = 0x00
	RegRecMod      uint32 = 0x01
	RegCalMod      uint32 = 0x02
	RegTestConfig1 uint32 = 0x03
	RegTestConfig2 uint32 = 0x04
	RegTestConfig3 uint32 = 0x05
	RegTestConfig4 uint32 = 0x06
	RegTestConfig5 uint32 = 0x07
	RegStatus      uint32 = 0x08
	RegSync        uint32 = 0x09
	RegSRChain3    uint32 = 0x0C // odd channels
	RegSRChain2    uint32 = 0x0D // even channels
	RegSRChain1    uint32 = 0x0E // shank
	RegSRLength2   uint32 = 0x0F
	RegSRLength1   uint32 = 0x10
	RegSoftReset   uint32 = 0x11
)

// CAL_MOD register values.
const (
	CalOff       uint32 = 0
	CalOscActive uint32 = 1 << 4 // activate the external calibration oscillator
	CalAdc       uint32 = 1 << 5
	CalChannel   uint32 = 1 << 6
	CalPixel     uint32 = 1 << 7
)

// REC_MOD register values.
const (
	RecResetAll  uint32 = 1 << 5 // set analog SR chains to default values
	RecDigEnable uint32 = 1 << 6 // 0 resets the MUX, ADC and PSB counter
	RecChEnable  uint32 = 1 << 7 // 0 resets channel pseudo-registers

	RecSRReset    = RecResetAll | RecChEnable | RecDigEnable
	RecDigChReset = 0
	RecActive     = RecDigEnable | RecChEnable
)

// OP_MODE register values.
const (
	OpTest      uint32 = 1 << 3
	OpDigTest   uint32 = 1 << 4
	OpCalibrate uint32 = 1 << 5
	OpRecord    uint32 = 1 << 6
	OpPowerDown uint32 = 1 << 7
)

// Soft reset pulse values.
const (
	SoftResetAssert  uint32 = 0xFF
	SoftResetRelease uint32 = 0x00
)
