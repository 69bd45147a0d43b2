package npx

import (
	"errors"
	"fmt"
)

// ErrCalibrationMismatch is returned when the gain and ADC calibration files
// belong to different probes.
var ErrCalibrationMismatch = errors.New("npx: calibration file serial numbers do not match")

// CalibrationMismatchError carries both serial numbers.
type CalibrationMismatchError struct {
	GainSerial uint64
	AdcSerial  uint64
}

func (e *CalibrationMismatchError) Error() string {
	return fmt.Sprintf("%v (gain %d, adc %d)", ErrCalibrationMismatch, e.GainSerial, e.AdcSerial)
}

func (e *CalibrationMismatchError) Unwrap() error {
	return ErrCalibrationMismatch
}

// TrimError reports an ADC calibration field that does not fit its width.
type TrimError struct {
	Adc   int
	Field string
	Value int
	Err   error
}

func (e *TrimError) Error() string {
	return fmt.Sprintf("npx: ADC %d calibration parameter %s value of %d is invalid: %v", e.Adc, e.Field, e.Value, e.Err)
}

func (e *TrimError) Unwrap() error {
	return e.Err
}
