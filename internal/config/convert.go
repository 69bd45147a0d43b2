package config

import (
	"fmt"
	"os"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/link"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/npx"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/regbus"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/retry"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/sequencer"
)

// Settings decodes the probe section, reading the channel map file when one
// is configured.
func (p Probe) Settings() (npx.Settings, error) {
	s := npx.DefaultSettings()
	var err error
	if s.SpikeGain, err = npx.ParseGain(p.SpikeGain); err != nil {
		return s, fmt.Errorf("config: probe.spike_gain: %w", err)
	}
	if s.LfpGain, err = npx.ParseGain(p.LfpGain); err != nil {
		return s, fmt.Errorf("config: probe.lfp_gain: %w", err)
	}
	if s.Reference, err = npx.ParseReference(p.Reference); err != nil {
		return s, fmt.Errorf("config: probe.reference: %w", err)
	}
	s.SpikeFilter = p.SpikeFilter

	if p.ChannelMap != "" {
		data, err := os.ReadFile(p.ChannelMap)
		if err != nil {
			return s, fmt.Errorf("config: probe.channel_map: %w", err)
		}
		if s.ChannelMap, err = npx.ParseChannelMap(data); err != nil {
			return s, err
		}
	}
	return s, nil
}

// FamilyValue decodes probe.family.
func (p Probe) FamilyValue() (sequencer.Family, error) {
	return sequencer.ParseFamily(p.Family)
}

// Calibrations opens both calibration files. The caller closes them.
func (p Probe) Calibrations() (gain, adc *os.File, err error) {
	if p.GainCalibration == "" || p.AdcCalibration == "" {
		return nil, nil, fmt.Errorf("config: probe.gain_calibration and probe.adc_calibration are required")
	}
	if gain, err = os.Open(p.GainCalibration); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if adc, err = os.Open(p.AdcCalibration); err != nil {
		gain.Close()
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return gain, adc, nil
}

// RegbusConfig converts the bus section.
func (b Bus) RegbusConfig() regbus.Config {
	return regbus.Config{
		Kind:            regbus.Kind(b.Kind),
		VendorID:        b.VendorID,
		ProductID:       b.ProductID,
		Port:            b.Port,
		Baud:            b.Baud,
		Device:          b.Device,
		WritesPerSecond: b.WritesPerSecond,
		Timeout:         b.Timeout,
	}
}

// Policy converts the retry section.
func (r Retry) Policy() retry.Policy {
	return retry.Policy{MaxAttempts: r.Attempts, Delay: r.Delay}
}

// Sweep converts the link section.
func (l Link) Sweep() link.Sweep {
	return link.Sweep{
		MinVoltage: l.MinVoltage,
		MaxVoltage: l.MaxVoltage,
		Step:       l.Step,
		Margin:     l.Margin,
		Settle:     l.Settle,
	}
}
