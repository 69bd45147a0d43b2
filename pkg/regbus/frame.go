package regbus

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/snksoft/crc"
)

// Bridge frame layout: STX cmd dev reg value crcHi crcLo ETX. The CRC is
// CRC-16/XMODEM over cmd, dev, reg and value.
const (
	FrameSize = 8

	FrameStart byte = 0x02
	FrameEnd   byte = 0x03

	CmdWrite byte = 0x01
	CmdRead  byte = 0x02

	// ReplyAck and ReplyNak are OR-ed into the command byte of a reply.
	ReplyAck byte = 0x80
	ReplyNak byte = 0xC0
)

var (
	ErrFrameFormat = errors.New("regbus: malformed frame")
	ErrFrameCRC    = errors.New("regbus: frame CRC mismatch")
	ErrBridgeNak   = errors.New("regbus: bridge rejected request")
)

var crcTable = crc.NewTable(crc.XMODEM)

func frameCRC(buf []byte) uint16 {
	c := crcTable.InitCrc()
	c = crcTable.UpdateCrc(c, buf)
	return crcTable.CRC16(c)
}

// Frame is one bridge request or reply.
type Frame struct {
	Cmd      byte
	Device   byte
	Register byte
	Value    byte
}

// Encode serializes f with its CRC.
func (f Frame) Encode() []byte {
	buf := make([]byte, FrameSize)
	buf[0] = FrameStart
	buf[1] = f.Cmd
	buf[2] = f.Device
	buf[3] = f.Register
	buf[4] = f.Value
	binary.BigEndian.PutUint16(buf[5:7], frameCRC(buf[1:5]))
	buf[7] = FrameEnd
	return buf
}

// DecodeFrame parses one frame and verifies its CRC.
func DecodeFrame(buf []byte) (Frame, error) {
	if len(buf) != FrameSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameFormat, len(buf), FrameSize)
	}
	if buf[0] != FrameStart || buf[7] != FrameEnd {
		return Frame{}, fmt.Errorf("%w: bad delimiters 0x%02X/0x%02X", ErrFrameFormat, buf[0], buf[7])
	}
	want := binary.BigEndian.Uint16(buf[5:7])
	if got := frameCRC(buf[1:5]); got != want {
		return Frame{}, fmt.Errorf("%w: computed 0x%04X, frame carries 0x%04X", ErrFrameCRC, got, want)
	}
	return Frame{Cmd: buf[1], Device: buf[2], Register: buf[3], Value: buf[4]}, nil
}

// NakError carries the bridge error code of a rejected request.
type NakError struct {
	Cmd      byte
	Register byte
	Code     byte
}

func (e *NakError) Error() string {
	return fmt.Sprintf("%v: cmd 0x%02X reg 0x%02X code 0x%02X", ErrBridgeNak, e.Cmd, e.Register, e.Code)
}

func (e *NakError) Unwrap() error {
	return ErrBridgeNak
}

// checkReply matches a reply against its request.
func checkReply(req, resp Frame) error {
	if resp.Device != req.Device || resp.Register != req.Register {
		return fmt.Errorf("%w: reply for dev 0x%02X reg 0x%02X, want dev 0x%02X reg 0x%02X",
			ErrFrameFormat, resp.Device, resp.Register, req.Device, req.Register)
	}
	switch resp.Cmd {
	case req.Cmd | ReplyNak:
		return &NakError{Cmd: req.Cmd, Register: req.Register, Code: resp.Value}
	case req.Cmd | ReplyAck:
		return nil
	}
	return fmt.Errorf("%w: unexpected reply command 0x%02X", ErrFrameFormat, resp.Cmd)
}
