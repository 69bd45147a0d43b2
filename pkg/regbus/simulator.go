package regbus

import "fmt"

// OpKind distinguishes recorded bus operations.
type OpKind uint8

const (
	OpWrite OpKind = iota
	OpRead
)

func (k OpKind) String() string {
	switch k {
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// Op is one recorded bus operation. For reads Value holds the value
// returned.
type Op struct {
	Kind    OpKind
	Address uint32
	Value   uint32
}

func (o Op) String() string {
	return fmt.Sprintf("%s 0x%02X=0x%02X", o.Kind, o.Address, o.Value)
}

// WriteHook lets a test fail or observe individual writes.
type WriteHook func(addr, value uint32) error

// ReadHook lets a test supply device-specific read values.
type ReadHook func(addr uint32) (uint32, error)

// SimBus is an in-memory register file that records every operation. Reads
// return the last value written to the address unless OnRead is set.
type SimBus struct {
	Registers map[uint32]uint32

	OnWrite WriteHook
	OnRead  ReadHook

	ops []Op
}

// NewSimBus returns an empty simulator.
func NewSimBus() *SimBus {
	return &SimBus{Registers: make(map[uint32]uint32)}
}

func (s *SimBus) WriteRegister(addr, value uint32) error {
	s.ops = append(s.ops, Op{Kind: OpWrite, Address: addr, Value: value})
	if s.OnWrite != nil {
		if err := s.OnWrite(addr, value); err != nil {
			return err
		}
	}
	if s.Registers == nil {
		s.Registers = make(map[uint32]uint32)
	}
	s.Registers[addr] = value
	return nil
}

func (s *SimBus) ReadRegister(addr uint32) (uint32, error) {
	var (
		v   uint32
		err error
	)
	if s.OnRead != nil {
		v, err = s.OnRead(addr)
	} else {
		v = s.Registers[addr]
	}
	s.ops = append(s.ops, Op{Kind: OpRead, Address: addr, Value: v})
	return v, err
}

// Close is a no-op so SimBus satisfies BusCloser.
func (s *SimBus) Close() error { return nil }

// Ops returns a copy of the recorded operations.
func (s *SimBus) Ops() []Op {
	return append([]Op(nil), s.ops...)
}

// Writes returns the values written to addr, in order.
func (s *SimBus) Writes(addr uint32) []uint32 {
	var out []uint32
	for _, op := range s.ops {
		if op.Kind == OpWrite && op.Address == addr {
			out = append(out, op.Value)
		}
	}
	return out
}

// ClearOps forgets the recorded operations but keeps register contents.
func (s *SimBus) ClearOps() {
	s.ops = nil
}
