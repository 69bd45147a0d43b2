package npx

import "testing"

func TestReferenceOffsets(t *testing.T) {
	tests := []struct {
		ch   int
		want int
	}{
		{0, 573},
		{1, 573},
		{2, 570},
		{3, 570},
		{190, 288},
		{382, 0},
		{383, 0},
	}
	for _, tt := range tests {
		if got := ReferenceOffset(tt.ch); got != tt.want {
			t.Errorf("ReferenceOffset(%d) = %d, want %d", tt.ch, got, tt.want)
		}
	}
}

func TestChannelOptionsOffsets(t *testing.T) {
	tests := []struct {
		ch   int
		want int
	}{
		{0, 576},
		{1, 576},
		{2, 584},
		{3, 584},
		{100, 976},
		{383, 2104},
	}
	for _, tt := range tests {
		if got := ChannelOptionsOffset(tt.ch); got != tt.want {
			t.Errorf("ChannelOptionsOffset(%d) = %d, want %d", tt.ch, got, tt.want)
		}
		if got, want := ChainIndex(tt.ch), tt.ch%2; got != want {
			t.Errorf("ChainIndex(%d) = %d, want %d", tt.ch, got, want)
		}
	}
}

func TestAdcOffsets(t *testing.T) {
	tests := []struct {
		k     int
		chain int
		comp  int
		slope int
	}{
		{0, 0, 2406, 2426},
		{1, 1, 2406, 2426},
		{2, 0, 2416, 2437},
		{3, 1, 2416, 2437},
		{4, 0, 2364, 2384},
		{6, 0, 2374, 2395},
		{30, 0, 2122, 2143},
		{31, 1, 2122, 2143},
	}
	for _, tt := range tests {
		if got := AdcChainIndex(tt.k); got != tt.chain {
			t.Errorf("AdcChainIndex(%d) = %d, want %d", tt.k, got, tt.chain)
		}
		if got := AdcCompOffset(tt.k); got != tt.comp {
			t.Errorf("AdcCompOffset(%d) = %d, want %d", tt.k, got, tt.comp)
		}
		if got := AdcSlopeOffset(tt.k); got != tt.slope {
			t.Errorf("AdcSlopeOffset(%d) = %d, want %d", tt.k, got, tt.slope)
		}
	}
}

func TestShankOffsets(t *testing.T) {
	if got := ShankOffset(0, ChannelCount); got != 1149 {
		t.Fatalf("ShankOffset(0) = %d, want 1149", got)
	}
	if got := ShankOffset(383, ChannelCount); got != 0 {
		t.Fatalf("ShankOffset(383) = %d, want 0", got)
	}
}

func TestRegionsDoNotOverlap(t *testing.T) {
	used := [2][BaseConfigBitCount]int{}
	mark := func(chain, start, n int) {
		for i := start; i < start+n; i++ {
			used[chain][i]++
		}
	}
	for ch := 0; ch < ChannelCount; ch++ {
		mark(ChainIndex(ch), ReferenceOffset(ch), 3)
		mark(ChainIndex(ch), ChannelOptionsOffset(ch), 8)
	}
	for k := 0; k < AdcCount; k++ {
		mark(AdcChainIndex(k), AdcCompOffset(k), 10)
		mark(AdcChainIndex(k), AdcSlopeOffset(k), 11)
	}
	for chain := range used {
		for bit, n := range used[chain] {
			if n > 1 {
				t.Fatalf("chain %d bit %d claimed %d times", chain, bit, n)
			}
		}
	}
}
