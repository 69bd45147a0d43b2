package npx

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/bits"
)

func testCalibrations(gainSerial, adcSerial uint64) (*GainCalibration, *AdcCalibration) {
	gain := &GainCalibration{SerialNumber: gainSerial, Channels: []GainCorrection{{
		Spike: [8]float64{1, 1, 1, 1, 1.01, 1, 1, 1},
		Lfp:   [8]float64{0.99, 1, 1, 1, 1, 1, 1, 1},
	}}}
	adc := &AdcCalibration{
		SerialNumber: adcSerial,
		Adcs:         uniformTrims(AdcTrim{CompP: 16, CompN: 16, Slope: 1, Cfix: 3, Offset: 10, Threshold: 20}),
	}
	return gain, adc
}

func TestBuildPayload(t *testing.T) {
	gain, adc := testCalibrations(7, 7)
	p, err := Build(DefaultSettings(), gain, adc)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if p.SerialNumber != 7 {
		t.Fatalf("serial = %d", p.SerialNumber)
	}
	if len(p.ShankBytes) != 144 {
		t.Fatalf("shank bytes = %d, want 144", len(p.ShankBytes))
	}
	for i, b := range p.BaseBytes {
		if len(b) != 306 {
			t.Fatalf("base %d bytes = %d, want 306", i, len(b))
		}
	}
	if p.SpikeGainCorrection != 1.01 || p.LfpGainCorrection != 0.99 {
		t.Fatalf("corrections = %v/%v", p.SpikeGainCorrection, p.LfpGainCorrection)
	}
	if len(p.AdcOffsets) != AdcCount || p.AdcThresholds[0] != 20 {
		t.Fatalf("offsets %v thresholds %v", p.AdcOffsets, p.AdcThresholds)
	}

	// every channel enabled on the external reference
	if p.Shank.OnesCount() != ChannelCount {
		t.Fatalf("shank set bits = %d, want %d", p.Shank.OnesCount(), ChannelCount)
	}
	unpacked, err := bits.Unpack(p.BaseBytes[1], BaseConfigBitCount)
	if err != nil {
		t.Fatalf("Unpack returned error: %v", err)
	}
	for i := range unpacked {
		if unpacked[i] != p.Base[1][i] {
			t.Fatalf("packed base config differs at bit %d", i)
		}
	}
}

func TestBuildPayloadSerialMismatch(t *testing.T) {
	gain, adc := testCalibrations(7, 8)
	p, err := Build(DefaultSettings(), gain, adc)
	if !errors.Is(err, ErrCalibrationMismatch) {
		t.Fatalf("expected ErrCalibrationMismatch, got %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil payload")
	}
}

func TestBuildPayloadInvalidSettings(t *testing.T) {
	gain, adc := testCalibrations(7, 7)

	s := DefaultSettings()
	s.Reference = 0
	if _, err := Build(s, gain, adc); err == nil {
		t.Fatalf("expected error for unset reference")
	}

	s = DefaultSettings()
	s.Channels = make([]ChannelConfig, 3)
	if _, err := Build(s, gain, adc); err == nil {
		t.Fatalf("expected error for short channel override")
	}

	adc.Adcs[4].CompP = 32
	var trimErr *TrimError
	if _, err := Build(DefaultSettings(), gain, adc); !errors.As(err, &trimErr) {
		t.Fatalf("expected TrimError, got %v", err)
	}
}
