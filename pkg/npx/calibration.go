package npx

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// CalibrationLexer tokenizes the comma-separated calibration files shipped
// with each probe.
var CalibrationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "EOL", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Comma", Pattern: `,`},
})

// calibrationText is the shared shape of both files: a serial number line
// followed by rows of numbers.
type calibrationText struct {
	Serial string            `EOL* @Number EOL*`
	Rows   []*calibrationRow `@@*`
}

type calibrationRow struct {
	Pos    lexer.Position
	Fields []string `@Number ( Comma @Number )* EOL*`
}

var calibrationParser = participle.MustBuild[calibrationText](
	participle.Lexer(CalibrationLexer),
	participle.Elide("Whitespace"),
)

func parseCalibrationText(name string, r io.Reader) (uint64, []*calibrationRow, error) {
	text, err := calibrationParser.Parse(name, r)
	if err != nil {
		return 0, nil, fmt.Errorf("npx: parse %s: %w", name, err)
	}
	sn, err := strconv.ParseUint(text.Serial, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("npx: %s: invalid serial number %q: %w", name, text.Serial, err)
	}
	return sn, text.Rows, nil
}

// GainCorrection holds the gain correction factors of one channel, indexed
// by Gain code.
type GainCorrection struct {
	Channel int
	Spike   [8]float64
	Lfp     [8]float64
}

// GainCalibration is the decoded gain calibration file.
type GainCalibration struct {
	SerialNumber uint64
	Channels     []GainCorrection
}

// Correction returns the spike and LFP correction factors for the selected
// gains. The first channel row applies to the whole probe.
func (g *GainCalibration) Correction(spike, lfp Gain) (float64, float64, error) {
	if len(g.Channels) == 0 {
		return 0, 0, fmt.Errorf("npx: gain calibration has no channel rows")
	}
	if !spike.Valid() || !lfp.Valid() {
		return 0, 0, fmt.Errorf("npx: invalid gain selection %v/%v", spike, lfp)
	}
	row := g.Channels[0]
	return row.Spike[spike], row.Lfp[lfp], nil
}

// ParseGainCalibration decodes a gain calibration file:
//
//	<serial>
//	<channel>,<ap x50>..<ap x3000>,<lfp x50>..<lfp x3000>
//	...
func ParseGainCalibration(r io.Reader) (*GainCalibration, error) {
	sn, rows, err := parseCalibrationText("gain calibration", r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("npx: gain calibration has no channel rows")
	}

	cal := &GainCalibration{SerialNumber: sn, Channels: make([]GainCorrection, 0, len(rows))}
	for _, row := range rows {
		if len(row.Fields) != 17 {
			return nil, fmt.Errorf("npx: gain calibration line %d: got %d fields, want 17", row.Pos.Line, len(row.Fields))
		}
		ch, err := strconv.Atoi(row.Fields[0])
		if err != nil {
			return nil, fmt.Errorf("npx: gain calibration line %d: channel: %w", row.Pos.Line, err)
		}
		corr := GainCorrection{Channel: ch}
		for i := 0; i < 8; i++ {
			if corr.Spike[i], err = strconv.ParseFloat(row.Fields[1+i], 64); err != nil {
				return nil, fmt.Errorf("npx: gain calibration line %d: %w", row.Pos.Line, err)
			}
			if corr.Lfp[i], err = strconv.ParseFloat(row.Fields[9+i], 64); err != nil {
				return nil, fmt.Errorf("npx: gain calibration line %d: %w", row.Pos.Line, err)
			}
		}
		cal.Channels = append(cal.Channels, corr)
	}
	return cal, nil
}

// AdcCalibration is the decoded ADC calibration file.
type AdcCalibration struct {
	SerialNumber uint64
	Adcs         []AdcTrim
}

// Offsets returns the per-ADC offsets reported to the data path.
func (a *AdcCalibration) Offsets() []uint16 {
	out := make([]uint16, len(a.Adcs))
	for i, adc := range a.Adcs {
		out[i] = uint16(adc.Offset)
	}
	return out
}

// Thresholds returns the per-ADC thresholds reported to the data path.
func (a *AdcCalibration) Thresholds() []uint16 {
	out := make([]uint16, len(a.Adcs))
	for i, adc := range a.Adcs {
		out[i] = uint16(adc.Threshold)
	}
	return out
}

// ParseAdcCalibration decodes an ADC calibration file:
//
//	<serial>
//	<adc>,<compP>,<compN>,<slope>,<coarse>,<fine>,<cfix>,<offset>,<threshold>
//	...
//
// Rows are assigned to ADCs in file order. Field ranges are checked when the
// trims are encoded, not here.
func ParseAdcCalibration(r io.Reader) (*AdcCalibration, error) {
	sn, rows, err := parseCalibrationText("ADC calibration", r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows) > AdcCount {
		return nil, fmt.Errorf("npx: ADC calibration has %d rows, want 1..%d", len(rows), AdcCount)
	}

	cal := &AdcCalibration{SerialNumber: sn, Adcs: make([]AdcTrim, 0, len(rows))}
	for _, row := range rows {
		if len(row.Fields) != 9 {
			return nil, fmt.Errorf("npx: ADC calibration line %d: got %d fields, want 9", row.Pos.Line, len(row.Fields))
		}
		var v [9]int
		for i, f := range row.Fields {
			if v[i], err = strconv.Atoi(f); err != nil {
				return nil, fmt.Errorf("npx: ADC calibration line %d: %w", row.Pos.Line, err)
			}
		}
		cal.Adcs = append(cal.Adcs, AdcTrim{
			CompP:     v[1],
			CompN:     v[2],
			Slope:     v[3],
			Coarse:    v[4],
			Fine:      v[5],
			Cfix:      v[6],
			Offset:    v[7],
			Threshold: v[8],
		})
	}
	return cal, nil
}

// ParseCalibrations decodes both files and checks they belong to the same
// probe.
func ParseCalibrations(gain, adc io.Reader) (*GainCalibration, *AdcCalibration, error) {
	g, err := ParseGainCalibration(gain)
	if err != nil {
		return nil, nil, err
	}
	a, err := ParseAdcCalibration(adc)
	if err != nil {
		return nil, nil, err
	}
	if err := CheckSerials(g, a); err != nil {
		return nil, nil, err
	}
	return g, a, nil
}

// CheckSerials returns a *CalibrationMismatchError when the serial numbers
// differ.
func CheckSerials(g *GainCalibration, a *AdcCalibration) error {
	if g == nil || a == nil {
		return fmt.Errorf("npx: calibration files must be specified")
	}
	if g.SerialNumber != a.SerialNumber {
		return &CalibrationMismatchError{GainSerial: g.SerialNumber, AdcSerial: a.SerialNumber}
	}
	return nil
}
