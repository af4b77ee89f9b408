package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IsNonzeroValue reports whether v survives rounding to two decimals.
func IsNonzeroValue(v float32) bool { return math.Abs(float64(v)) > 0.005 }

// IsNonzeroPercent is IsNonzeroValue for fractions.
func IsNonzeroPercent(v float32) bool { return math.Abs(float64(v)) > 0.00001 }

// ExcludeZeroValues drops items whose value rounds to zero.
func ExcludeZeroValues[T any](items []T, value func(T) float32) []T {
	var out []T
	for _, it := range items {
		if IsNonzeroValue(value(it)) {
			out = append(out, it)
		}
	}
	return out
}

func FormatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// FormatList joins items with ", ". A nil format uses fmt.Sprint.
func FormatList[T any](items []T, format func(T) string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		if format == nil {
			parts[i] = fmt.Sprint(it)
		} else {
			parts[i] = format(it)
		}
	}
	return strings.Join(parts, ", ")
}

// FormatSigned renders v with an explicit sign and returns "" for zero.
func FormatSigned(v float32, decimals int) string {
	s := strconv.FormatFloat(float64(v), 'f', decimals, 32)
	switch {
	case strings.Trim(s, "-0.") == "":
		return ""
	case v > 0:
		return "+" + s
	default:
		return s
	}
}

// FormatStockpile renders a stockpile followed by its signed monthly income: "120.0+4.5".
func FormatStockpile(stockpile, income float32) string {
	return strconv.FormatFloat(float64(stockpile), 'f', 1, 32) + FormatSigned(income, 1)
}
