package sequencer

import "fmt"

// ShiftRegisterFault reports a base-configuration chain whose status
// read-back never matched the success value. The probe state is
// indeterminate afterwards.
type ShiftRegisterFault struct {
	Chain    int
	Address  uint32
	Status   uint32
	Attempts int
}

func (e *ShiftRegisterFault) Error() string {
	return fmt.Sprintf("sequencer: shift register %d (0x%02X) status check failed: read 0x%02X after %d attempts",
		e.Chain, e.Address, e.Status, e.Attempts)
}
