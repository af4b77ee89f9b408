package units_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"tirep/internal/units"
)

func TestFormatSI(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{12, "12"},
		{999, "999"},
		{999.96, "1 k"},
		{1000, "1 k"},
		{1234, "1.2 k"},
		{12345, "12.3 k"},
		{999960, "1 M"},
		{-2500000, "-2.5 M"},
		{0.0015, "1.5 m"},
		{1e21, "1000 E"},
	}
	for _, tc := range cases {
		if got := units.FormatSI(tc.in); got != tc.want {
			t.Errorf("FormatSI(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseSI(t *testing.T) {
	cases := map[string]float64{
		"12":      12,
		"12.3 k":  12300,
		"-2.5M":   -2500000,
		"+1 G":    1e9,
		" 1.5 m ": 0.0015,
		"3 u":     3e-6,
	}
	for in, want := range cases {
		got, err := units.ParseSI(in)
		if err != nil {
			t.Fatalf("ParseSI(%q): %v", in, err)
		}
		if math.Abs(got-want) > math.Abs(want)*1e-9 {
			t.Errorf("ParseSI(%q) = %v, want %v", in, got, want)
		}
	}
}

// FormatSI keeps one decimal at the chosen prefix, so a round trip is exact
// up to half a unit in that decimal.
func TestParseSIRoundTrip(t *testing.T) {
	for _, v := range []float64{1, 42.5, 999.96, 1234, 56789, 3.2e9, -7.1e-3} {
		text := units.FormatSI(v)
		back, err := units.ParseSI(text)
		if err != nil {
			t.Fatalf("round trip %v: %v", v, err)
		}
		scale := 1.0
		if fields := strings.Fields(text); len(fields) == 2 {
			if scale, err = units.ParseSI("1 " + fields[1]); err != nil {
				t.Fatalf("prefix of %q: %v", text, err)
			}
		}
		if tol := 0.05 * scale * (1 + 1e-9); math.Abs(back-v) > tol {
			t.Errorf("round trip %v -> %q -> %v, off by more than %v", v, text, back, tol)
		}
	}
}

func TestParseSIRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "k", "12 x", "1.2.3", "--4", "12 kk"} {
		_, err := units.ParseSI(in)
		if err == nil {
			t.Fatalf("ParseSI(%q): expected error", in)
		}
		if !errors.Is(err, units.ErrFormat) {
			t.Fatalf("ParseSI(%q): error %v is not ErrFormat", in, err)
		}
		var fe *units.FormatError
		if !errors.As(err, &fe) || fe.Text != in {
			t.Fatalf("ParseSI(%q): expected FormatError carrying input, got %v", in, err)
		}
	}
}

func TestCapacityAndPercentage(t *testing.T) {
	c, err := units.ParseCapacity(" 3 / 5 ")
	if err != nil {
		t.Fatal(err)
	}
	if c != (units.Capacity{Usage: 3, Capacity: 5}) || c.String() != "3/5" {
		t.Fatalf("unexpected capacity %+v", c)
	}
	if _, err := units.ParseCapacity("3 of 5"); !errors.Is(err, units.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
	p, err := units.ParsePercentage("12.5%")
	if err != nil {
		t.Fatal(err)
	}
	if p.String() != "12.5%" {
		t.Fatalf("percentage = %s", p)
	}
	if _, err := units.ParsePercentage("12.5"); !errors.Is(err, units.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

type loadout struct {
	MC    units.Capacity   `yaml:"mc"`
	Share units.Percentage `yaml:"share"`
}

func TestYAMLConverters(t *testing.T) {
	in := loadout{
		MC:    units.Capacity{Usage: 2, Capacity: 4},
		Share: 0.25,
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mc: 2/4\nshare: 25.0%\n" {
		t.Fatalf("unexpected yaml %q", data)
	}
	var out loadout
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("yaml mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLRejectsBadValues(t *testing.T) {
	for _, doc := range []string{"share: a quarter\n", "mc: three of five\n"} {
		var out loadout
		if err := yaml.Unmarshal([]byte(doc), &out); !errors.Is(err, units.ErrFormat) {
			t.Fatalf("%q: expected format error, got %v", doc, err)
		}
	}
}

func TestFormatters(t *testing.T) {
	if got := units.FormatStockpile(120, 4.5); got != "120.0+4.5" {
		t.Errorf("FormatStockpile = %q", got)
	}
	if got := units.FormatStockpile(10, 0); got != "10.0" {
		t.Errorf("FormatStockpile zero income = %q", got)
	}
	if got := units.FormatStockpile(10, -2); got != "10.0-2.0" {
		t.Errorf("FormatStockpile negative = %q", got)
	}
	if got := units.FormatSigned(0.04, 1); got != "" {
		t.Errorf("FormatSigned rounding to zero = %q", got)
	}
	if got := units.FormatSigned(-1.25, 2); got != "-1.25" {
		t.Errorf("FormatSigned negative = %q", got)
	}
	if units.IsNonzeroPercent(0.000001) || !units.IsNonzeroPercent(0.001) {
		t.Errorf("IsNonzeroPercent threshold")
	}
	if got := units.FormatList([]int{1, 2, 3}, nil); got != "1, 2, 3" {
		t.Errorf("FormatList = %q", got)
	}
	vals := []float32{0, 0.001, 1, -3}
	got := units.ExcludeZeroValues(vals, func(v float32) float32 { return v })
	if diff := cmp.Diff([]float32{1, -3}, got); diff != "" {
		t.Errorf("ExcludeZeroValues (-want +got):\n%s", diff)
	}
}
