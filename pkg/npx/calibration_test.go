package npx

import (
	"errors"
	"strings"
	"testing"
)

func TestParseGainCalibration(t *testing.T) {
	cal, err := ParseGainCalibration(strings.NewReader(gainCalText(18005106831, 384)))
	if err != nil {
		t.Fatalf("ParseGainCalibration returned error: %v", err)
	}
	if cal.SerialNumber != 18005106831 {
		t.Fatalf("serial = %d", cal.SerialNumber)
	}
	if len(cal.Channels) != 384 {
		t.Fatalf("rows = %d, want 384", len(cal.Channels))
	}
	if cal.Channels[383].Channel != 383 {
		t.Fatalf("last row channel = %d", cal.Channels[383].Channel)
	}

	spike, lfp, err := cal.Correction(Gain1000, Gain50)
	if err != nil {
		t.Fatalf("Correction returned error: %v", err)
	}
	if spike != 1.04 || lfp != 2.0 {
		t.Fatalf("correction = %v/%v, want 1.04/2", spike, lfp)
	}
	if _, _, err := cal.Correction(Gain(9), Gain50); err == nil {
		t.Fatalf("expected error for invalid gain")
	}
}

func TestParseGainCalibrationErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "serial only", text: "123\n"},
		{name: "short row", text: "123\n0,1,2,3\n"},
		{name: "bad token", text: "123\n0,abc\n"},
		{name: "negative serial", text: "-5\n" + strings.SplitN(gainCalText(1, 1), "\n", 2)[1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGainCalibration(strings.NewReader(tt.text)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseAdcCalibration(t *testing.T) {
	trims := uniformTrims(AdcTrim{CompP: 16, CompN: 15, Slope: 3, Coarse: 1, Fine: 2, Cfix: 9, Offset: 512, Threshold: 100})
	trims[31].Offset = 700

	cal, err := ParseAdcCalibration(strings.NewReader(adcCalText(42, trims)))
	if err != nil {
		t.Fatalf("ParseAdcCalibration returned error: %v", err)
	}
	if cal.SerialNumber != 42 {
		t.Fatalf("serial = %d", cal.SerialNumber)
	}
	if len(cal.Adcs) != AdcCount {
		t.Fatalf("rows = %d, want %d", len(cal.Adcs), AdcCount)
	}
	if cal.Adcs[0] != trims[0] {
		t.Fatalf("ADC 0 = %+v, want %+v", cal.Adcs[0], trims[0])
	}
	if off := cal.Offsets(); off[31] != 700 || off[0] != 512 {
		t.Fatalf("offsets = %v", off)
	}
	if th := cal.Thresholds(); len(th) != AdcCount || th[5] != 100 {
		t.Fatalf("thresholds = %v", th)
	}
}

func TestParseAdcCalibrationErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "no rows", text: "42\r\n"},
		{name: "eight fields", text: "42\r\n0,1,2,3,4,5,6,7\r\n"},
		{name: "fractional", text: "42\r\n0,1,2,3,4,5,6,7,8.5\r\n"},
		{name: "too many rows", text: adcCalText(42, make([]AdcTrim, AdcCount+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAdcCalibration(strings.NewReader(tt.text)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseCalibrationsSerialMismatch(t *testing.T) {
	_, _, err := ParseCalibrations(
		strings.NewReader(gainCalText(1000, 2)),
		strings.NewReader(adcCalText(1001, make([]AdcTrim, AdcCount))),
	)
	if !errors.Is(err, ErrCalibrationMismatch) {
		t.Fatalf("expected ErrCalibrationMismatch, got %v", err)
	}
	var mismatch *CalibrationMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *CalibrationMismatchError, got %T", err)
	}
	if mismatch.GainSerial != 1000 || mismatch.AdcSerial != 1001 {
		t.Fatalf("mismatch = %+v", mismatch)
	}

	g, a, err := ParseCalibrations(
		strings.NewReader(gainCalText(1000, 2)),
		strings.NewReader(adcCalText(1000, make([]AdcTrim, AdcCount))),
	)
	if err != nil {
		t.Fatalf("ParseCalibrations returned error: %v", err)
	}
	if g.SerialNumber != a.SerialNumber {
		t.Fatalf("serials differ: %d/%d", g.SerialNumber, a.SerialNumber)
	}
}
