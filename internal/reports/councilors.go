package reports

import (
	"io"

	"tirep/internal/render"
	"tirep/internal/schema"
	"tirep/internal/snapshot"
	"tirep/internal/units"
)

const unknown = "Unknown"

func Councilor(v *snapshot.View) *schema.Schema[*snapshot.Councilor] {
	return schema.New[*snapshot.Councilor]().
		Add(schema.Field("Name", func(c *snapshot.Councilor) string { return v.DisplayName(c.Named) })).
		Add(schema.Field("Faction", func(c *snapshot.Councilor) string { return v.Name(c.Faction) })).
		Add(schema.Field("Background", func(c *snapshot.Councilor) string { return c.Background })).
		Add(schema.FieldSpec("Age", func(c *snapshot.Councilor) int { return c.Age }, "N0")).
		Add(schema.FieldSpec("XP", func(c *snapshot.Councilor) int { return c.XP }, "N0")).
		Add(schema.Field("Location", func(c *snapshot.Councilor) string {
			if !v.KnowsLocation(c) {
				return unknown
			}
			return v.Name(c.Location)
		})).
		Add(schema.Field("Home Region", func(c *snapshot.Councilor) string { return v.Name(c.HomeRegion) })).
		Add(schema.Field("Current Mission", func(c *snapshot.Councilor) string {
			switch {
			case !v.KnowsMission(c):
				return unknown
			case c.Mission == "":
				return "None"
			}
			return c.Mission
		})).
		Add(schema.FieldFunc("Income", func(c *snapshot.Councilor) map[snapshot.Resource]float32 { return c.Income }, formatIncomes)).
		Add(schema.Field("Intel", func(c *snapshot.Councilor) string { return intelLevel(v, c) }))
}

// intelLevel is the observer's intel on c: "Full" for its own councilors,
// "None" when nothing is known.
func intelLevel(v *snapshot.View, c *snapshot.Councilor) string {
	if c.Faction == v.Observer {
		return "Full"
	}
	intel := v.Player().Intel[c.ID]
	if !units.IsNonzeroPercent(intel) {
		return "None"
	}
	return units.Percentage(intel).String()
}

// AttributeRow is one line of a councilor's stats table.
type AttributeRow struct {
	Name string
	snapshot.Attribute
}

var CouncilorStats = schema.New[AttributeRow]().
	Add(schema.Field("Attribute", func(a AttributeRow) string { return a.Name })).
	Add(schema.FieldSpec("Total", func(a AttributeRow) float32 { return a.Total() }, "N0")).
	Add(schema.FieldSpec("Base", func(a AttributeRow) float32 { return a.Base }, "N0")).
	Add(schema.FieldSpec("From Traits", func(a AttributeRow) float32 { return a.FromTraits }, "N0")).
	Add(schema.FieldSpec("From Orgs", func(a AttributeRow) float32 { return a.FromOrgs }, "N0")).
	Add(schema.FieldSpec("Cap", func(a AttributeRow) float32 { return a.Cap }, "N0"))

var Traits = schema.New[snapshot.Trait]().
	Add(schema.Field("Name", func(t snapshot.Trait) string { return t.Name })).
	Add(schema.Field("Effect", func(t snapshot.Trait) string { return t.Effect }))

func attributeRows(c *snapshot.Councilor) []AttributeRow {
	rows := make([]AttributeRow, 0, len(snapshot.CouncilorAttributes))
	for _, name := range snapshot.CouncilorAttributes {
		rows = append(rows, AttributeRow{Name: name, Attribute: c.Attributes[name]})
	}
	return rows
}

// VisibleCouncilors lists councilors that belong to a human faction.
func VisibleCouncilors(v *snapshot.View) []*snapshot.Councilor {
	var out []*snapshot.Councilor
	for i := range v.Snap.Councilors {
		c := &v.Snap.Councilors[i]
		if f := v.Faction(c.Faction); f != nil && !f.Alien {
			out = append(out, c)
		}
	}
	return out
}

func writeCouncilors(w io.Writer, v *snapshot.View) {
	s := Councilor(v)
	for _, c := range VisibleCouncilors(v) {
		io.WriteString(w, render.Description(s, c))
		io.WriteString(w, "\n")
		io.WriteString(w, render.Table(CouncilorStats, attributeRows(c)))
		io.WriteString(w, "\nTraits:\n")
		io.WriteString(w, render.List(Traits, c.Traits))
		io.WriteString(w, "\n")
	}
}
