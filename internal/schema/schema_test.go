package schema_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tirep/internal/schema"
)

type animal interface{ kind() string }

type dog struct {
	Name string
	Legs int
}

func (dog) kind() string { return "dog" }

type cat struct {
	Name     string
	Whiskers int
}

func (cat) kind() string { return "cat" }

type fish struct{}

func (fish) kind() string { return "fish" }

func dogSchema() *schema.Schema[dog] {
	return schema.New[dog]().
		Add(schema.Field("Name", func(d dog) string { return d.Name })).
		Add(schema.Field("Legs", func(d dog) int { return d.Legs }))
}

func catSchema() *schema.Schema[cat] {
	return schema.New[cat]().
		Add(schema.Field("Name", func(c cat) string { return c.Name })).
		Add(schema.Field("Whiskers", func(c cat) int { return c.Whiskers }))
}

func TestSchemaKeepsInsertionOrder(t *testing.T) {
	s := schema.New[dog]().
		Add(schema.Field("Legs", func(d dog) int { return d.Legs })).
		Add(schema.Field("Name", func(d dog) string { return d.Name })).
		Add(schema.FieldSpec("Weight", func(d dog) float64 { return 12.345 }, "F1"))

	if diff := cmp.Diff([]string{"Legs", "Name", "Weight"}, s.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	row := s.Row(dog{Name: "Rex", Legs: 4})
	if diff := cmp.Diff([]string{"4", "Rex", "12.3"}, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != len(row) {
		t.Fatalf("expected %d cells, got %d", s.Len(), len(row))
	}
}

func TestFieldsAreRenderedLazily(t *testing.T) {
	calls := 0
	s := schema.New[dog]().Add(schema.FieldFunc("Name",
		func(d dog) string { calls++; return d.Name },
		strings.ToUpper,
	))
	if calls != 0 {
		t.Fatalf("accessor ran at build time")
	}
	s.Row(dog{Name: "rex"})
	s.Row(dog{Name: "fido"})
	if calls != 2 {
		t.Fatalf("expected one accessor call per record, got %d", calls)
	}
	if got := s.Row(dog{Name: "rex"})[0]; got != "REX" {
		t.Fatalf("expected formatter output REX, got %q", got)
	}
}

func TestAccessorFailurePropagates(t *testing.T) {
	s := schema.New[*dog]().Add(schema.Field("Name", func(d *dog) string { return d.Name }))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected nil dereference to propagate")
		}
	}()
	s.Row(nil)
}

func TestDuplicateFieldNamePanics(t *testing.T) {
	s := dogSchema()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic for duplicate field")
		}
		if !strings.Contains(r.(string), `"Legs"`) {
			t.Fatalf("panic message should name the field, got %v", r)
		}
	}()
	s.Add(schema.Field("Legs", func(d dog) int { return 0 }))
}

func TestMergeDispatchesOnVariant(t *testing.T) {
	merged := schema.Merge[animal](dogSchema(), catSchema())

	if diff := cmp.Diff([]string{"Name", "Legs", "Whiskers"}, merged.Names()); diff != "" {
		t.Fatalf("merged names mismatch (-want +got):\n%s", diff)
	}
	tests := []struct {
		name string
		rec  animal
		want []string
	}{
		{"dog", dog{Name: "Rex", Legs: 4}, []string{"Rex", "4", ""}},
		{"cat", cat{Name: "Tom", Whiskers: 24}, []string{"Tom", "", "24"}},
		{"other", fish{}, []string{"", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, merged.Row(tt.rec)); diff != "" {
				t.Fatalf("row mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeOfEmptySchemas(t *testing.T) {
	merged := schema.Merge[animal](schema.New[dog](), catSchema())
	if diff := cmp.Diff([]string{"Name", "Whiskers"}, merged.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if got := merged.Row(dog{Name: "Rex"}); got[0] != "" {
		t.Fatalf("dog has no Name field in an empty schema, got %q", got[0])
	}
}

func TestFormatSpecs(t *testing.T) {
	tests := []struct {
		spec string
		in   any
		want string
	}{
		{"F0", 12.6, "13"},
		{"F1", float32(2.5), "2.5"},
		{"F", 3, "3.00"},
		{"N0", 1234567.4, "1,234,567"},
		{"N2", -9876.5, "-9,876.50"},
		{"N0", -0.2, "0"},
		{"P0", 0.456, "46%"},
		{"P1", 0.5, "50.0%"},
		{"D", 41.6, "42"},
		{"D3", 7, "007"},
		{"G", 0.5, "0.5"},
		{"SI", 12345.0, "12.3 k"},
		{"%05.1f", 3.14159, "003.1"},
		{"N0", "n/a", "n/a"},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			if got := schema.MustSpec(tt.spec)(tt.in); got != tt.want {
				t.Fatalf("spec %s on %v: expected %q, got %q", tt.spec, tt.in, tt.want, got)
			}
		})
	}
}

func TestUnknownSpec(t *testing.T) {
	for _, spec := range []string{"", "X1", "Fx", "N-1"} {
		if _, err := schema.ParseSpec(spec); err == nil {
			t.Fatalf("expected error for spec %q", spec)
		}
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected FieldSpec to panic on a bad spec")
		}
	}()
	schema.FieldSpec("Bad", func(d dog) int { return d.Legs }, "Q")
}
