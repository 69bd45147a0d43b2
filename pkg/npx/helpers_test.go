package npx

import (
	"fmt"
	"strings"
)

func gainCalText(serial uint64, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", serial)
	for ch := 0; ch < rows; ch++ {
		fmt.Fprintf(&b, "%d", ch)
		for i := 0; i < 8; i++ {
			fmt.Fprintf(&b, ",%.3f", 1.0+float64(i)/100)
		}
		for i := 0; i < 8; i++ {
			fmt.Fprintf(&b, ",%.3f", 2.0+float64(i)/100)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func adcCalText(serial uint64, trims []AdcTrim) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\r\n", serial)
	for i, t := range trims {
		fmt.Fprintf(&b, "%d,%d,%d,%d,%d,%d,%d,%d,%d\r\n",
			i, t.CompP, t.CompN, t.Slope, t.Coarse, t.Fine, t.Cfix, t.Offset, t.Threshold)
	}
	return b.String()
}

func uniformTrims(t AdcTrim) []AdcTrim {
	out := make([]AdcTrim, AdcCount)
	for i := range out {
		out[i] = t
	}
	return out
}
