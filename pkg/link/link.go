// Package link negotiates the supply voltage of a serialized headstage
// link.
package link

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/regbus"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/retry"
)

// Link controller registers.
const (
	RegEnable      uint32 = 0
	RegGPOState    uint32 = 1
	RegDesPower    uint32 = 2
	RegPortVoltage uint32 = 3
	RegSaveVoltage uint32 = 4
	RegLinkState   uint32 = 5

	LinkStateLock   uint32 = 0x1 // serializer lock
	LinkStateParity uint32 = 0x2 // parity check pass
)

// ErrLinkNotLocked is returned when no voltage in the sweep gives a stable
// lock.
var ErrLinkNotLocked = errors.New("link: headstage link did not lock")

// Sweep describes the voltage search in units of 0.1 V.
type Sweep struct {
	MinVoltage uint32
	MaxVoltage uint32
	Step       uint32
	// Margin is added to the first locking voltage, which must still lock.
	Margin uint32
	// Settle is waited after each voltage change.
	Settle time.Duration
}

// Rhs2116Sweep is the sweep of the RHS2116 stimulation headstage: 3.3 V to
// 5.0 V in 0.2 V steps with a 2.5 V margin.
var Rhs2116Sweep = Sweep{
	MinVoltage: 33,
	MaxVoltage: 50,
	Step:       2,
	Margin:     25,
	Settle:     500 * time.Millisecond,
}

// Steps is the number of voltages tried.
func (s Sweep) Steps() int {
	if s.Step == 0 || s.MaxVoltage < s.MinVoltage {
		return 0
	}
	return int((s.MaxVoltage-s.MinVoltage)/s.Step) + 1
}

// Negotiator powers a headstage through its link controller.
type Negotiator struct {
	bus   regbus.Bus
	sweep Sweep

	// Reset is run after a successful lock, e.g. to reload the device
	// table. May be nil.
	Reset func() error
	// Logger traces the sweep when non-nil.
	Logger *log.Logger
}

// NewNegotiator returns a Negotiator for the link controller on bus.
func NewNegotiator(bus regbus.Bus, sweep Sweep) *Negotiator {
	return &Negotiator{bus: bus, sweep: sweep}
}

func (n *Negotiator) logf(format string, args ...interface{}) {
	if n.Logger != nil {
		n.Logger.Printf(format, args...)
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SetPortVoltage removes power, waits, applies voltage and waits again.
func (n *Negotiator) SetPortVoltage(ctx context.Context, voltage uint32) error {
	if err := n.bus.WriteRegister(RegPortVoltage, 0); err != nil {
		return fmt.Errorf("link: power off: %w", err)
	}
	if err := wait(ctx, n.sweep.Settle); err != nil {
		return err
	}
	if err := n.bus.WriteRegister(RegPortVoltage, voltage); err != nil {
		return fmt.Errorf("link: set %d.%d V: %w", voltage/10, voltage%10, err)
	}
	return wait(ctx, n.sweep.Settle)
}

// Locked reports whether the serializer is locked.
func (n *Negotiator) Locked() (bool, error) {
	v, err := n.bus.ReadRegister(RegLinkState)
	if err != nil {
		return false, fmt.Errorf("link: read link state: %w", err)
	}
	return v&LinkStateLock != 0, nil
}

// Negotiate sweeps the port voltage upwards until the link locks, then
// confirms the lock holds with the margin added. It returns the final
// voltage. A lock lost at the raised voltage ends the sweep.
func (n *Negotiator) Negotiate(ctx context.Context) (uint32, error) {
	steps := n.sweep.Steps()
	if steps == 0 {
		return 0, fmt.Errorf("link: empty voltage sweep %+v", n.sweep)
	}

	var final uint32
	policy := retry.Policy{MaxAttempts: steps}
	_, err := policy.Do(ctx, func(attempt int) error {
		voltage := n.sweep.MinVoltage + uint32(attempt-1)*n.sweep.Step
		if voltage > n.sweep.MaxVoltage {
			return retry.Permanent(ErrLinkNotLocked)
		}
		n.logf("link: trying %d.%d V", voltage/10, voltage%10)
		if err := n.SetPortVoltage(ctx, voltage); err != nil {
			return retry.Permanent(err)
		}
		locked, err := n.Locked()
		if err != nil {
			return retry.Permanent(err)
		}
		if !locked {
			return ErrLinkNotLocked
		}

		raised := voltage + n.sweep.Margin
		if err := n.SetPortVoltage(ctx, raised); err != nil {
			return retry.Permanent(err)
		}
		if locked, err = n.Locked(); err != nil {
			return retry.Permanent(err)
		}
		if !locked {
			n.logf("link: lock lost at %d.%d V", raised/10, raised%10)
			return retry.Permanent(ErrLinkNotLocked)
		}
		final = raised
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := wait(ctx, n.sweep.Settle); err != nil {
		return 0, err
	}
	if n.Reset != nil {
		if err := n.Reset(); err != nil {
			return final, fmt.Errorf("link: reset after lock: %w", err)
		}
	}
	n.logf("link: locked at %d.%d V", final/10, final%10)
	return final, nil
}
