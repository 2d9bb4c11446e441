package tui

import (
	"fmt"
	"strings"
)

// formatPrice renders an axis label without a currency sign; the quote
// currency is shown in the header.
func formatPrice(v float64) string {
	switch {
	case v >= 1000 || v <= -1000:
		return addCommas(fmt.Sprintf("%.0f", v))
	case v >= 1 || v <= -1:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.4f", v)
	}
}

func addCommas(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	var result strings.Builder
	result.WriteString(sign)
	for i, ch := range s {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(ch)
	}
	return result.String()
}
