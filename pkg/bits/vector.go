package bits

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a zero-length vector is packed.
var ErrEmptyInput = errors.New("bits: shift register data is empty")

// RangeError reports a field that does not fit its declared width or
// a field that falls outside the vector.
type RangeError struct {
	Value  uint64
	Width  int
	Offset int
	Length int // vector length
}

func (e *RangeError) Error() string {
	if e.Width > 0 && e.Width < 64 && e.Value > MaxValue(e.Width) {
		return fmt.Sprintf("bits: value %d exceeds %d-bit maximum %d", e.Value, e.Width, MaxValue(e.Width))
	}
	return fmt.Sprintf("bits: field [%d,%d) outside vector of length %d", e.Offset, e.Offset+e.Width, e.Length)
}

// MaxValue returns the largest unsigned value representable in width bits.
func MaxValue(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

// Vector is a fixed-length bit vector.
type Vector []bool

// NewVector allocates a cleared vector of n bits.
func NewVector(n int) Vector {
	return make(Vector, n)
}

// Len returns the number of bits in the vector.
func (v Vector) Len() int {
	return len(v)
}

// Set writes the width low bits of value into v[offset:offset+width], bit 0
// of value at offset. The vector is left untouched on error.
func (v Vector) Set(offset int, value uint64, width int) error {
	if width <= 0 || width > 64 {
		return &RangeError{Value: value, Width: width, Offset: offset, Length: len(v)}
	}
	if value > MaxValue(width) {
		return &RangeError{Value: value, Width: width, Offset: offset, Length: len(v)}
	}
	if offset < 0 || offset+width > len(v) {
		return &RangeError{Value: value, Width: width, Offset: offset, Length: len(v)}
	}
	for i := 0; i < width; i++ {
		v[offset+i] = value>>uint(i)&1 == 1
	}
	return nil
}

// Get reads width bits starting at offset, LSB first.
func (v Vector) Get(offset, width int) (uint64, error) {
	if width <= 0 || width > 64 || offset < 0 || offset+width > len(v) {
		return 0, &RangeError{Width: width, Offset: offset, Length: len(v)}
	}
	var val uint64
	for i := 0; i < width; i++ {
		if v[offset+i] {
			val |= 1 << uint(i)
		}
	}
	return val, nil
}

// SetBit sets a single bit.
func (v Vector) SetBit(idx int, bit bool) error {
	if idx < 0 || idx >= len(v) {
		return &RangeError{Width: 1, Offset: idx, Length: len(v)}
	}
	v[idx] = bit
	return nil
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// OnesCount returns the number of set bits.
func (v Vector) OnesCount() int {
	n := 0
	for _, b := range v {
		if b {
			n++
		}
	}
	return n
}
