package reports

import (
	"io"

	"tirep/internal/render"
	"tirep/internal/schema"
	"tirep/internal/snapshot"
	"tirep/internal/units"
)

func stockpile(r snapshot.Resource) func(*snapshot.Faction) snapshot.Stockpile {
	return func(f *snapshot.Faction) snapshot.Stockpile { return f.Resources[r] }
}

func formatStockpile(s snapshot.Stockpile) string {
	return units.FormatStockpile(s.Amount, s.Income)
}

func income(r snapshot.Resource) func(*snapshot.Faction) float32 {
	return func(f *snapshot.Faction) float32 { return f.Resources[r].Income }
}

// FactionResources describes a faction's stockpiles and capacities.
func FactionResources(v *snapshot.View) *schema.Schema[*snapshot.Faction] {
	return schema.New[*snapshot.Faction]().
		Add(schema.Field("Name", func(f *snapshot.Faction) string { return v.DisplayName(f.Named) })).
		Add(schema.FieldFunc("Money", stockpile(snapshot.Money), formatStockpile)).
		Add(schema.FieldFunc("Influence", stockpile(snapshot.Influence), formatStockpile)).
		Add(schema.FieldFunc("Ops", stockpile(snapshot.Operations), formatStockpile)).
		Add(schema.FieldFunc("Boost", stockpile(snapshot.Boost), formatStockpile)).
		Add(schema.Field("MC", func(f *snapshot.Faction) units.Capacity { return f.MissionControl })).
		Add(schema.FieldSpec("Research", income(snapshot.ResearchPoints), "F0")).
		Add(schema.FieldSpec("Projects", income(snapshot.ProjectPoints), "F0")).
		Add(schema.Field("CP", func(f *snapshot.Faction) units.Capacity { return f.ControlPoints })).
		Add(schema.FieldFunc("Water", stockpile(snapshot.Water), formatStockpile)).
		Add(schema.FieldFunc("Volatiles", stockpile(snapshot.Volatiles), formatStockpile)).
		Add(schema.FieldFunc("Metals", stockpile(snapshot.Metals), formatStockpile)).
		Add(schema.FieldFunc("Nobles", stockpile(snapshot.NobleMetals), formatStockpile)).
		Add(schema.FieldFunc("Fissiles", stockpile(snapshot.Fissiles), formatStockpile)).
		Add(schema.FieldFunc("Antimatter", stockpile(snapshot.Antimatter), formatStockpile)).
		Add(schema.FieldFunc("Exotics", stockpile(snapshot.Exotics), formatStockpile))
}

func writeResources(w io.Writer, v *snapshot.View) {
	s := FactionResources(v)
	for i := range v.Snap.Factions {
		f := &v.Snap.Factions[i]
		if f.Alien {
			continue
		}
		io.WriteString(w, render.Description(s, f))
		io.WriteString(w, "\n")
	}
}
