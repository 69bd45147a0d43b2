package bits

import (
	"bytes"
	"errors"
	"testing"
)

func TestReverseByteCorners(t *testing.T) {
	tests := []struct {
		in   byte
		want byte
	}{
		{0x00, 0x00},
		{0xFF, 0xFF},
		{0x01, 0x80},
		{0x80, 0x01},
		{0xA5, 0xA5},
		{0x0F, 0xF0},
		{0x12, 0x48},
	}

	for _, tt := range tests {
		if got := ReverseByte(tt.in); got != tt.want {
			t.Errorf("ReverseByte(0x%02X) = 0x%02X, want 0x%02X", tt.in, got, tt.want)
		}
	}
}

func TestReverseByteIsInvolution(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		if got := ReverseByte(ReverseByte(b)); got != b {
			t.Fatalf("ReverseByte twice on 0x%02X = 0x%02X", b, got)
		}

		var naive byte
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(bit)) != 0 {
				naive |= 1 << uint(7-bit)
			}
		}
		if got := ReverseByte(b); got != naive {
			t.Fatalf("ReverseByte(0x%02X) = 0x%02X, want 0x%02X", b, got, naive)
		}
	}
}

func TestPackEmpty(t *testing.T) {
	if _, err := Pack(nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := Pack(NewVector(0)); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestPackLayout(t *testing.T) {
	v := NewVector(10)
	v[0] = true // byte 0 bit 0 -> reversed to bit 7
	v[9] = true // byte 1 bit 1 -> reversed to bit 6

	got, err := Pack(v)
	if err != nil {
		t.Fatalf("Pack returned error: %v", err)
	}
	want := []byte{0x80, 0x40}
	if !bytes.Equal(got, want) {
		t.Fatalf("Pack = % X, want % X", got, want)
	}
}

func TestPackSizes(t *testing.T) {
	for _, n := range []int{1, 7, 8, 9, 1152, 2448} {
		got, err := Pack(NewVector(n))
		if err != nil {
			t.Fatalf("Pack(%d bits) returned error: %v", n, err)
		}
		if want := (n + 7) / 8; len(got) != want {
			t.Fatalf("Pack(%d bits) produced %d bytes, want %d", n, len(got), want)
		}
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	v := NewVector(21)
	for _, idx := range []int{0, 3, 8, 13, 20} {
		v[idx] = true
	}
	buf, err := Pack(v)
	if err != nil {
		t.Fatalf("Pack returned error: %v", err)
	}
	back, err := Unpack(buf, v.Len())
	if err != nil {
		t.Fatalf("Unpack returned error: %v", err)
	}
	for i := range v {
		if back[i] != v[i] {
			t.Fatalf("bit %d = %v, want %v", i, back[i], v[i])
		}
	}
	if _, err := Unpack(buf[:1], v.Len()); err == nil {
		t.Fatalf("expected error for short buffer")
	}
}
