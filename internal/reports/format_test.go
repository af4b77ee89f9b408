package reports

import (
	"testing"

	"tirep/internal/snapshot"
	"tirep/internal/techtree"
	"tirep/internal/units"
)

func TestFormatIncomes(t *testing.T) {
	tests := []struct {
		name    string
		incomes map[snapshot.Resource]float32
		want    string
	}{
		{name: "none", want: ""},
		{name: "all negligible", incomes: map[snapshot.Resource]float32{snapshot.Money: 0.04, snapshot.Boost: -0.02}, want: ""},
		{
			name: "resource order",
			incomes: map[snapshot.Resource]float32{
				snapshot.Exotics:    3,
				snapshot.Money:      -1,
				snapshot.Influence:  0.04,
				snapshot.Operations: 0.26,
			},
			want: "-1.0 money, +0.3 operations, +3.0 exotics",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatIncomes(tt.incomes); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCompletion(t *testing.T) {
	tests := []struct {
		p    techtree.Progress
		want units.Percentage
	}{
		{techtree.Progress{Done: 120, Cost: 500}, 0.24},
		{techtree.Progress{Done: 50, Cost: 50}, 1},
		{techtree.Progress{}, 0},
	}
	for _, tt := range tests {
		if got := completion(tt.p); got != tt.want {
			t.Fatalf("%+v: expected %v, got %v", tt.p, tt.want, got)
		}
	}
}
