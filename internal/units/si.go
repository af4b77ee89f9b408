package units

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var siPrefixes = []string{"f", "p", "n", "µ", "m", "", "k", "M", "G", "T", "P", "E"}

const siZero = 5 // index of the empty prefix

// siParts splits v into a rounded mantissa (one decimal at most) and an SI prefix.
func siParts(v float64) (string, string) {
	if v == 0 {
		return "0", ""
	}
	mag := math.Abs(v)
	exp := int(math.Floor(math.Log10(mag) / 3))
	idx := exp + siZero
	if idx < 0 {
		exp, idx = -siZero, 0
	} else if idx >= len(siPrefixes) {
		idx = len(siPrefixes) - 1
		exp = idx - siZero
	}
	scaled := math.Round(mag*math.Pow(1000, float64(-exp))*10) / 10
	if scaled >= 1e3 && idx < len(siPrefixes)-1 {
		scaled /= 1e3
		idx++
	}
	num := strconv.FormatFloat(scaled, 'f', -1, 64)
	if v < 0 {
		num = "-" + num
	}
	return num, siPrefixes[idx]
}

// FormatSI renders v with an SI prefix, e.g. 12300 -> "12.3 k", 12 -> "12".
func FormatSI(v float64) string {
	num, prefix := siParts(v)
	if prefix == "" {
		return num
	}
	return num + " " + prefix
}

var siPattern = regexp.MustCompile(`^([+-])?([0-9]+(?:\.[0-9]+)?)\s*([fpnµumkMGTPE]?)$`)

// ParseSI is the inverse of FormatSI. The grammar is a signed numeral followed by an
// optional SI prefix; "u" is accepted for micro.
func ParseSI(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	m := siPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, formatErr("si number", text)
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, formatErr("si number", text)
	}
	if m[1] == "-" {
		v = -v
	}
	return v * siScale(m[3]), nil
}

func siScale(prefix string) float64 {
	if prefix == "u" {
		prefix = "µ"
	}
	for i, p := range siPrefixes {
		if p == prefix {
			return math.Pow(1000, float64(i-siZero))
		}
	}
	return 1
}
