// Package schema describes what to extract from a record and how to format it,
// independently of how records are laid out.
//
// A Schema is built once as static configuration:
//
//	techs := schema.New[Tech]().
//		Add(schema.Field("Name", func(t Tech) string { return t.Name })).
//		Add(schema.FieldSpec("Cost", func(t Tech) float32 { return t.Cost }, "N0"))
//
// and then handed to a renderer together with the records.
package schema

import (
	"fmt"
)

// Descriptor is one named extraction and formatting rule over records of type T.
// The accessor's result type is hidden behind Render so descriptors with
// different intermediate types share one schema.
type Descriptor[T any] struct {
	Name   string
	render func(T) string
}

// Render extracts and formats the field for rec. Failures inside the accessor or
// formatter are not recovered.
func (d Descriptor[T]) Render(rec T) string {
	return d.render(rec)
}

// Field builds a descriptor formatted with fmt.Sprint.
func Field[T, U any](name string, accessor func(T) U) Descriptor[T] {
	return FieldFunc(name, accessor, nil)
}

// FieldFunc builds a descriptor with an explicit formatter. A nil format falls back
// to fmt.Sprint.
func FieldFunc[T, U any](name string, accessor func(T) U, format func(U) string) Descriptor[T] {
	if accessor == nil {
		panic(fmt.Sprintf("schema: field %q has no accessor", name))
	}
	if format == nil {
		format = func(v U) string { return fmt.Sprint(v) }
	}
	return Descriptor[T]{
		Name:   name,
		render: func(rec T) string { return format(accessor(rec)) },
	}
}

// FieldSpec builds a descriptor formatted by a shorthand spec such as "F1" or "N0".
// See ParseSpec for the accepted specs; an invalid spec panics.
func FieldSpec[T, U any](name string, accessor func(T) U, spec string) Descriptor[T] {
	format := MustSpec(spec)
	return FieldFunc(name, accessor, func(v U) string { return format(v) })
}

// Schema is an ordered set of descriptors. Field order is column and line order.
type Schema[T any] struct {
	fields []Descriptor[T]
	index  map[string]int
}

func New[T any]() *Schema[T] {
	return &Schema[T]{index: make(map[string]int)}
}

// Add appends d and returns s. Field names are unique within a schema; adding a
// second field with the same name panics, as does a descriptor without a renderer.
func (s *Schema[T]) Add(d Descriptor[T]) *Schema[T] {
	if d.render == nil {
		panic(fmt.Sprintf("schema: field %q has no renderer", d.Name))
	}
	if _, dup := s.index[d.Name]; dup {
		panic(fmt.Sprintf("schema: duplicate field %q", d.Name))
	}
	s.index[d.Name] = len(s.fields)
	s.fields = append(s.fields, d)
	return s
}

func (s *Schema[T]) Len() int { return len(s.fields) }

// Fields returns the descriptors in order.
func (s *Schema[T]) Fields() []Descriptor[T] {
	out := make([]Descriptor[T], len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema[T]) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

func (s *Schema[T]) Lookup(name string) (Descriptor[T], bool) {
	i, ok := s.index[name]
	if !ok {
		return Descriptor[T]{}, false
	}
	return s.fields[i], true
}

// Row renders every field of rec in schema order.
func (s *Schema[T]) Row(rec T) []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Render(rec)
	}
	return out
}
