package alert

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumber renders an amount for alert text. Values of 1 and above use
// en-US grouping with at most 2 fraction digits; sub-1 values keep enough
// precision to stay legible (at least 4 digits starting at the first
// non-zero decimal); 0 renders as "0.00".
func FormatNumber(value float64) string {
	if value == 0 {
		return "0.00"
	}
	if value < 1 && value > -1 {
		return formatSmall(value)
	}
	return groupThousands(trimFraction(value))
}

func formatSmall(value float64) string {
	fixed := strconv.FormatFloat(value, 'f', 20, 64)
	dot := strings.IndexByte(fixed, '.')
	if dot < 0 {
		return fixed
	}

	firstNonZero := 0
	for i := dot + 1; i < len(fixed); i++ {
		if fixed[i] != '0' {
			firstNonZero = i - dot
			break
		}
	}
	if firstNonZero == 0 {
		return "0.00"
	}

	decimals := firstNonZero + 3
	if decimals > 20 {
		decimals = 20
	}
	return strconv.FormatFloat(value, 'f', decimals, 64)
}

func trimFraction(value float64) string {
	fixed := strconv.FormatFloat(value, 'f', 2, 64)
	fixed = strings.TrimRight(fixed, "0")
	return strings.TrimRight(fixed, ".")
}

func groupThousands(fixed string) string {
	intPart := fixed
	fracPart := ""
	if dot := strings.IndexByte(fixed, '.'); dot >= 0 {
		intPart, fracPart = fixed[:dot], fixed[dot:]
	}

	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := b.String() + fracPart
	if negative {
		out = "-" + out
	}
	return out
}

// ShortenAddress abbreviates an address to its first six and last four
// characters, optionally wrapped in an explorer link.
func ShortenAddress(address string, includeLink bool) string {
	shortened := address
	if len(address) > 10 {
		shortened = address[:6] + "..." + address[len(address)-4:]
	}
	if !includeLink {
		return shortened
	}
	return fmt.Sprintf("[%s](https://basescan.org/address/%s)", shortened, address)
}
