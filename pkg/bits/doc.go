// Package bits provides the bit-vector primitives used to build shift-register
// payloads.
//
// A Vector is a logical bit sequence built LSB-first: bit 0 of a field lands
// at the field's offset. Hardware shift registers are loaded MSB-first, so
// Pack serializes a vector into bytes and then bit-reverses every byte.
//
//	v := bits.NewVector(16)
//	if err := v.Set(3, 0b101, 3); err != nil {
//		return err
//	}
//	payload, err := bits.Pack(v)
package bits
