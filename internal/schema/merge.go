package schema

// Merge combines a schema over variant U and a schema over variant V into a schema
// over their common type T. The result holds a's fields in order followed by b's
// fields whose names a lacks. Each merged field dispatches on the record's dynamic
// type: a U record renders through a's field of that name, a V record through b's,
// and a missing field or a record of any other type renders as "".
//
// When U and V are the same type, records always dispatch to a.
func Merge[T, U, V any](a *Schema[U], b *Schema[V]) *Schema[T] {
	out := New[T]()
	names := a.Names()
	for _, name := range b.Names() {
		if _, ok := a.Lookup(name); !ok {
			names = append(names, name)
		}
	}
	for _, name := range names {
		fa, inA := a.Lookup(name)
		fb, inB := b.Lookup(name)
		out.Add(Descriptor[T]{
			Name: name,
			render: func(rec T) string {
				switch r := any(rec).(type) {
				case U:
					if inA {
						return fa.Render(r)
					}
				case V:
					if inB {
						return fb.Render(r)
					}
				}
				return ""
			},
		})
	}
	return out
}
