// Package npx encodes Neuropixels 1.0e probe configuration into shift-register
// payloads.
//
// The probe exposes three serial shift chains:
//   - SR_CHAIN1 carries the shank vector (per-contact reference selection)
//   - SR_CHAIN2 carries the base configuration for even channels
//   - SR_CHAIN3 carries the base configuration for odd channels
//
// Each base-configuration vector interleaves per-channel reference bits,
// per-channel gain/filter option blocks, and per-ADC calibration trims at
// fixed offsets. The offsets follow the ASIC's shift-chain layout and are
// kept as literal formulas in offsets.go; do not re-derive them.
//
// # Usage
//
//	gainCal, adcCal, err := npx.ParseCalibrations(gainFile, adcFile)
//	settings := npx.DefaultSettings()
//	payload, err := npx.Build(settings, gainCal, adcCal)
//
// Build is pure: it validates everything up front and returns a Payload of
// packed bytes ready for the sequencer package.
package npx
