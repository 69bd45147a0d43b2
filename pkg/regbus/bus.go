// Package regbus implements the register bus used to program probes and
// headstages: a byte-wide register interface, an in-memory simulator for
// tests, and framed bridge transports over USB or a serial port.
package regbus

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Bus is a byte-wide register interface to one device. Implementations are
// not safe for concurrent use; callers serialize access.
type Bus interface {
	WriteRegister(addr, value uint32) error
	ReadRegister(addr uint32) (uint32, error)
}

// BusCloser is a Bus that owns an underlying connection.
type BusCloser interface {
	Bus
	io.Closer
}

// Kind selects the bus implementation.
type Kind string

const (
	KindSim    Kind = "sim"
	KindUSB    Kind = "usb"
	KindSerial Kind = "serial"
)

// Config describes how to reach a device.
type Config struct {
	Kind      Kind
	VendorID  uint16
	ProductID uint16
	Port      string
	Baud      int
	// Device is the bridge-side address of the target, e.g. the probe's
	// I2C address.
	Device byte
	// WritesPerSecond throttles register traffic; zero disables throttling.
	WritesPerSecond float64
	Timeout         time.Duration
}

// ErrUnknownKind is returned by Open for an unsupported Config.Kind.
var ErrUnknownKind = errors.New("regbus: unknown bus kind")

// Open connects to the bus described by cfg.
func Open(cfg Config) (BusCloser, error) {
	var (
		t   Transactor
		err error
	)
	switch cfg.Kind {
	case KindSim, "":
		return NewSimBus(), nil
	case KindUSB:
		t, err = NewUSBTransport(cfg.VendorID, cfg.ProductID)
		if err == nil && cfg.Timeout > 0 {
			t.(*USBTransport).SetTimeout(cfg.Timeout)
		}
	case KindSerial:
		t, err = OpenSerial(cfg.Port, cfg.Baud, cfg.Timeout)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, cfg.Kind)
	}
	if err != nil {
		return nil, err
	}

	fb := NewFrameBus(t, cfg.Device)
	if cfg.WritesPerSecond > 0 {
		fb.SetRateLimit(cfg.WritesPerSecond)
	}
	return fb, nil
}
