package reports

import (
	"io"

	"tirep/internal/render"
	"tirep/internal/schema"
	"tirep/internal/snapshot"
	"tirep/internal/units"
)

func armyStatus(v *snapshot.View, a *snapshot.Army) string {
	op := a.Operation
	if op == nil {
		return "Idle"
	}
	desc := op.Name
	if op.Target != "" {
		desc += " -> " + v.Name(op.Target)
	}
	if op.ETA != "" {
		desc += " (ETA: " + op.ETA + ")"
	}
	return desc
}

func Armies(v *snapshot.View) *schema.Schema[*snapshot.Army] {
	return schema.New[*snapshot.Army]().
		Add(schema.Field("Name", func(a *snapshot.Army) string { return v.DisplayName(a.Named) })).
		Add(schema.Field("Faction", func(a *snapshot.Army) string { return v.Name(a.Faction) })).
		Add(schema.Field("Nation", func(a *snapshot.Army) string { return v.Name(a.Nation) })).
		Add(schema.Field("Location", func(a *snapshot.Army) string { return v.Name(a.Region) })).
		Add(schema.FieldSpec("Tech", func(a *snapshot.Army) float32 { return a.TechLevel }, "F2")).
		Add(schema.FieldSpec("Strength", func(a *snapshot.Army) float32 { return a.Strength }, "P0")).
		Add(schema.FieldFunc("Navy", func(a *snapshot.Army) bool { return a.Navy }, units.FormatBool)).
		Add(schema.Field("Status", func(a *snapshot.Army) string { return armyStatus(v, a) }))
}

// ActiveArmies drops destroyed armies.
func ActiveArmies(v *snapshot.View) []*snapshot.Army {
	var out []*snapshot.Army
	for i := range v.Snap.Armies {
		if a := &v.Snap.Armies[i]; !a.Destroyed {
			out = append(out, a)
		}
	}
	return out
}

func writeArmies(w io.Writer, v *snapshot.View) {
	io.WriteString(w, render.Table(Armies(v), ActiveArmies(v)))
}
