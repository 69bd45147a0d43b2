package bits

// ReverseByte mirrors the bit order of b (bit 7 <-> bit 0, 6 <-> 1, ...).
//
// This is the 64-bit multiply trick from the Stanford bit hacks page: the
// multiply fans five copies of the byte out, the mask keeps one bit of each
// in reversed position, and the modulus folds them back together.
func ReverseByte(b byte) byte {
	return byte((uint64(b) * 0x0202020202 & 0x010884422010) % 1023)
}

// ToBytes packs v LSB-first: bit i of the vector becomes bit i%8 of byte i/8.
func ToBytes(v Vector) []byte {
	if len(v) == 0 {
		return nil
	}
	out := make([]byte, (len(v)+7)/8)
	for i, bit := range v {
		if bit {
			out[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return out
}

// FromBytes unpacks n bits from buf in the ToBytes layout.
func FromBytes(buf []byte, n int) Vector {
	if n == 0 {
		return nil
	}
	out := make(Vector, n)
	for i := 0; i < n; i++ {
		out[i] = buf[i/8]&(1<<(uint(i)%8)) != 0
	}
	return out
}

// Pack serializes v for an MSB-first shift register: the vector is packed
// into ceil(len/8) bytes and each byte is bit-reversed in place.
func Pack(v Vector) ([]byte, error) {
	if len(v) == 0 {
		return nil, ErrEmptyInput
	}
	out := ToBytes(v)
	for i := range out {
		out[i] = ReverseByte(out[i])
	}
	return out, nil
}

// Unpack inverts Pack for a vector of n bits.
func Unpack(buf []byte, n int) (Vector, error) {
	if n == 0 {
		return nil, ErrEmptyInput
	}
	if len(buf) < (n+7)/8 {
		return nil, &RangeError{Width: n, Length: len(buf) * 8}
	}
	tmp := make([]byte, len(buf))
	for i := range buf {
		tmp[i] = ReverseByte(buf[i])
	}
	return FromBytes(tmp, n), nil
}
