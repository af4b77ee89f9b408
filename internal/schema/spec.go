package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"tirep/internal/units"
)

// Formatter renders a value of any type.
type Formatter func(v any) string

// ParseSpec compiles a shorthand format spec:
//
//	F<n>  fixed point, n decimals (default 2)
//	N<n>  fixed point with thousands separators (default 2)
//	P<n>  fraction as percentage (default 2)
//	D<n>  integer, zero padded to n digits
//	G     shortest representation
//	SI    SI prefixed, e.g. "12.3 k"
//	%...  any fmt verb
//
// Numeric specs applied to a non-numeric value fall back to fmt.Sprint.
func ParseSpec(spec string) (Formatter, error) {
	if strings.HasPrefix(spec, "%") {
		return func(v any) string { return fmt.Sprintf(spec, v) }, nil
	}
	if strings.EqualFold(spec, "SI") {
		return numeric(units.FormatSI), nil
	}
	if spec == "" {
		return nil, fmt.Errorf("empty format spec")
	}
	kind := strings.ToUpper(spec[:1])
	digits := -1
	if len(spec) > 1 {
		n, err := strconv.Atoi(spec[1:])
		if err != nil || n < 0 || n > 15 {
			return nil, fmt.Errorf("invalid precision in format spec %q", spec)
		}
		digits = n
	}
	withDefault := func(d int) int {
		if digits < 0 {
			return d
		}
		return digits
	}
	switch kind {
	case "F":
		n := withDefault(2)
		return numeric(func(f float64) string { return strconv.FormatFloat(f, 'f', n, 64) }), nil
	case "N":
		n := withDefault(2)
		return numeric(func(f float64) string { return grouped(f, n) }), nil
	case "P":
		n := withDefault(2)
		return numeric(func(f float64) string { return strconv.FormatFloat(f*100, 'f', n, 64) + "%" }), nil
	case "D":
		n := withDefault(0)
		return numeric(func(f float64) string { return fmt.Sprintf("%0*d", n, int64(math.Round(f))) }), nil
	case "G":
		return numeric(func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }), nil
	}
	return nil, fmt.Errorf("unknown format spec %q", spec)
}

// MustSpec is ParseSpec for static schema definitions; it panics on a bad spec.
func MustSpec(spec string) Formatter {
	f, err := ParseSpec(spec)
	if err != nil {
		panic("schema: " + err.Error())
	}
	return f
}

func numeric(format func(float64) string) Formatter {
	return func(v any) string {
		f, ok := toFloat(v)
		if !ok {
			return fmt.Sprint(v)
		}
		return format(f)
	}
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

func grouped(f float64, decimals int) string {
	s := strconv.FormatFloat(math.Abs(f), 'f', decimals, 64)
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return strconv.FormatFloat(f, 'f', decimals, 64)
	}
	out := humanize.Comma(n)
	if frac != "" {
		out += "." + frac
	}
	if f < 0 && strings.Trim(s, "0.") != "" {
		out = "-" + out
	}
	return out
}
