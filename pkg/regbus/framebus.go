package regbus

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Transactor exchanges one request frame for one reply frame.
type Transactor interface {
	Transact(req []byte) ([]byte, error)
	Close() error
}

// FrameBus speaks the bridge frame protocol to one device behind a
// Transactor.
type FrameBus struct {
	t       Transactor
	device  byte
	limiter *rate.Limiter
}

// NewFrameBus addresses device through t.
func NewFrameBus(t Transactor, device byte) *FrameBus {
	return &FrameBus{t: t, device: device}
}

// SetRateLimit caps register traffic at perSecond requests. Zero or less
// removes the cap.
func (b *FrameBus) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		b.limiter = nil
		return
	}
	b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (b *FrameBus) WriteRegister(addr, value uint32) error {
	if addr > 0xFF || value > 0xFF {
		return fmt.Errorf("regbus: write 0x%X=0x%X does not fit a byte register", addr, value)
	}
	_, err := b.transact(Frame{Cmd: CmdWrite, Device: b.device, Register: byte(addr), Value: byte(value)})
	return err
}

func (b *FrameBus) ReadRegister(addr uint32) (uint32, error) {
	if addr > 0xFF {
		return 0, fmt.Errorf("regbus: register 0x%X does not fit a byte address", addr)
	}
	resp, err := b.transact(Frame{Cmd: CmdRead, Device: b.device, Register: byte(addr)})
	if err != nil {
		return 0, err
	}
	return uint32(resp.Value), nil
}

// Close releases the underlying transport.
func (b *FrameBus) Close() error {
	return b.t.Close()
}

func (b *FrameBus) transact(req Frame) (Frame, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(context.Background()); err != nil {
			return Frame{}, fmt.Errorf("regbus: rate limit: %w", err)
		}
	}
	raw, err := b.t.Transact(req.Encode())
	if err != nil {
		return Frame{}, fmt.Errorf("regbus: transact reg 0x%02X: %w", req.Register, err)
	}
	resp, err := DecodeFrame(raw)
	if err != nil {
		return Frame{}, err
	}
	if err := checkReply(req, resp); err != nil {
		return Frame{}, err
	}
	return resp, nil
}
