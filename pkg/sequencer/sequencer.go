// Package sequencer drives the register protocol that loads encoded
// configuration vectors into a probe's shift register chains.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/npx"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/regbus"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/retry"
)

// Programmer issues strictly ordered register operations to one device. It
// is not safe for concurrent use.
type Programmer struct {
	bus    regbus.Bus
	family Family
	layout Layout

	// Retry bounds the soft-reset-and-write attempts of each base chain.
	Retry retry.Policy
	// Logger traces protocol phases when non-nil.
	Logger *log.Logger
}

// New returns a Programmer for family on bus.
func New(bus regbus.Bus, family Family) (*Programmer, error) {
	if bus == nil {
		return nil, fmt.Errorf("sequencer: nil bus")
	}
	layout, err := family.Layout()
	if err != nil {
		return nil, err
	}
	return &Programmer{bus: bus, family: family, layout: layout, Retry: retry.DefaultPolicy}, nil
}

// Family reports the device family being programmed.
func (p *Programmer) Family() Family {
	return p.family
}

func (p *Programmer) logf(format string, args ...interface{}) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}

func (p *Programmer) write(addr, value uint32) error {
	if err := p.bus.WriteRegister(addr, value); err != nil {
		return fmt.Errorf("sequencer: write 0x%02X=0x%02X: %w", addr, value, err)
	}
	return nil
}

func (p *Programmer) writeLength(n int) error {
	if err := p.write(p.layout.LengthLow, uint32(n%0x100)); err != nil {
		return err
	}
	return p.write(p.layout.LengthHigh, uint32(n/0x100))
}

func (p *Programmer) writeBytes(addr uint32, data []byte) error {
	for _, b := range data {
		if err := p.write(addr, uint32(b)); err != nil {
			return err
		}
	}
	return nil
}

// WriteShank loads the packed shank vector. The shank chain's status is
// not read back.
func (p *Programmer) WriteShank(data []byte) error {
	if len(data) != p.layout.ShankBytes {
		return fmt.Errorf("sequencer: shank payload is %d bytes, want %d", len(data), p.layout.ShankBytes)
	}
	p.logf("shank: %d bytes to 0x%02X", len(data), p.layout.ShankChain)
	if err := p.writeLength(len(data)); err != nil {
		return err
	}
	return p.writeBytes(p.layout.ShankChain, data)
}

// WriteBase loads one packed base-configuration vector into chain 0 (even
// channels) or 1 (odd channels). Every attempt starts with a soft reset
// pulse and ends with a status read; a status other than the success value
// is retried under p.Retry and finally reported as a *ShiftRegisterFault.
// Bus errors are not retried.
func (p *Programmer) WriteBase(ctx context.Context, chain int, data []byte) error {
	if chain < 0 || chain >= len(p.layout.BaseChains) {
		return fmt.Errorf("sequencer: base chain %d out of range", chain)
	}
	if len(data) != p.layout.BaseBytes {
		return fmt.Errorf("sequencer: base payload is %d bytes, want %d", len(data), p.layout.BaseBytes)
	}
	addr := p.layout.BaseChains[chain]

	var status uint32
	attempts, err := p.Retry.Do(ctx, func(attempt int) error {
		p.logf("base chain %d: attempt %d, %d bytes to 0x%02X", chain, attempt, len(data), addr)
		if err := p.shiftBase(addr, data); err != nil {
			return retry.Permanent(err)
		}
		v, err := p.bus.ReadRegister(p.layout.Status)
		if err != nil {
			return retry.Permanent(fmt.Errorf("sequencer: read status: %w", err))
		}
		status = v
		if v != p.layout.Success {
			p.logf("base chain %d: status 0x%02X", chain, v)
			return errStatus
		}
		return nil
	})
	if errors.Is(err, errStatus) {
		return &ShiftRegisterFault{Chain: chain, Address: addr, Status: status, Attempts: attempts}
	}
	return err
}

var errStatus = errors.New("sequencer: status mismatch")

func (p *Programmer) shiftBase(addr uint32, data []byte) error {
	if err := p.write(p.layout.SoftReset, npx.SoftResetAssert); err != nil {
		return err
	}
	if err := p.write(p.layout.SoftReset, npx.SoftResetRelease); err != nil {
		return err
	}
	if err := p.writeLength(len(data)); err != nil {
		return err
	}
	return p.writeBytes(addr, data)
}

// Program loads the shank vector and then both base vectors. The first
// failure stops the sequence.
func (p *Programmer) Program(ctx context.Context, payload *npx.Payload) error {
	if payload == nil {
		return fmt.Errorf("sequencer: nil payload")
	}
	if err := p.WriteShank(payload.ShankBytes); err != nil {
		return err
	}
	for i, b := range payload.BaseBytes {
		if err := p.WriteBase(ctx, i, b); err != nil {
			return err
		}
	}
	return nil
}

// InitializeProbe clears calibration and test modes and enables recording.
func (p *Programmer) InitializeProbe() error {
	p.logf("initialize probe")
	for _, w := range []struct{ addr, value uint32 }{
		{npx.RegCalMod, npx.CalOff},
		{npx.RegTestConfig1, 0},
		{npx.RegTestConfig2, 0},
		{npx.RegTestConfig3, 0},
		{npx.RegTestConfig4, 0},
		{npx.RegTestConfig5, 0},
		{npx.RegSync, 0},
		{npx.RegRecMod, npx.RecActive},
		{npx.RegOpMode, npx.OpRecord},
	} {
		if err := p.write(w.addr, w.value); err != nil {
			return err
		}
	}
	return nil
}

// StartAcquisition restores record mode, which the soft resets of the base
// chain writes leave cleared.
func (p *Programmer) StartAcquisition() error {
	p.logf("start acquisition")
	if err := p.write(npx.RegOpMode, npx.OpRecord); err != nil {
		return err
	}
	return p.write(npx.RegRecMod, npx.RecActive)
}

// Bringup initializes the probe, programs payload and starts acquisition.
func (p *Programmer) Bringup(ctx context.Context, payload *npx.Payload) error {
	if err := p.InitializeProbe(); err != nil {
		return err
	}
	if err := p.Program(ctx, payload); err != nil {
		return err
	}
	return p.StartAcquisition()
}

// Configure parses both calibration files, encodes settings and brings the
// probe up. Nothing touches the bus unless parsing and encoding succeed.
func (p *Programmer) Configure(ctx context.Context, s npx.Settings, gainCal, adcCal io.Reader) (*npx.Payload, error) {
	gain, adc, err := npx.ParseCalibrations(gainCal, adcCal)
	if err != nil {
		return nil, err
	}
	payload, err := npx.Build(s, gain, adc)
	if err != nil {
		return nil, err
	}
	if err := p.Bringup(ctx, payload); err != nil {
		return payload, err
	}
	return payload, nil
}
