package regbus

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// DefaultBaud is the bridge's UART rate.
const DefaultBaud = 115200

// StreamTransport exchanges bridge frames over a byte stream such as a
// serial port.
type StreamTransport struct {
	rw io.ReadWriteCloser
}

// NewStreamTransport wraps an open stream.
func NewStreamTransport(rw io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{rw: rw}
}

// OpenSerial opens a bridge on a serial port.
func OpenSerial(name string, baud int, timeout time.Duration) (*StreamTransport, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("regbus: open %s: %w", name, err)
	}
	return NewStreamTransport(port), nil
}

// Transact writes req and reads one reply frame, skipping any bytes that
// precede the start delimiter.
func (s *StreamTransport) Transact(req []byte) ([]byte, error) {
	if _, err := s.rw.Write(req); err != nil {
		return nil, fmt.Errorf("serial write failed: %w", err)
	}

	resp := make([]byte, FrameSize)
	for {
		if _, err := io.ReadFull(s.rw, resp[:1]); err != nil {
			return nil, fmt.Errorf("serial read failed: %w", err)
		}
		if resp[0] == FrameStart {
			break
		}
	}
	if _, err := io.ReadFull(s.rw, resp[1:]); err != nil {
		return nil, fmt.Errorf("serial read failed: %w", err)
	}
	return resp, nil
}

// Close closes the stream.
func (s *StreamTransport) Close() error {
	return s.rw.Close()
}
