package reports

import (
	"cmp"
	"io"
	"slices"
	"strconv"

	"tirep/internal/render"
	"tirep/internal/schema"
	"tirep/internal/snapshot"
	"tirep/internal/techtree"
	"tirep/internal/units"
)

// ResearchItem is a tech or project with its derived research state.
type ResearchItem struct {
	ID        string
	Name      string
	Status    techtree.Status
	Cost      float32
	Remaining float32
	TreeCost  float32
	Progress  techtree.Progress
}

func newResearchItem(v *snapshot.View, n snapshot.Named, status techtree.StatusInput) ResearchItem {
	st := techtree.Classify(status)
	return ResearchItem{
		ID:        n.ID,
		Name:      v.DisplayName(n),
		Status:    st,
		Cost:      v.BaseCost(n.ID),
		Remaining: techtree.Remaining[string](v, n.ID),
		TreeCost:  techtree.RemainingTreeCost[string](v, n.ID),
		Progress:  techtree.ResearchProgress[string](v, n.ID, st),
	}
}

// Techs lists every global tech ordered by status, remaining tree cost and name.
func Techs(v *snapshot.View) []ResearchItem {
	items := make([]ResearchItem, 0, len(v.Snap.Techs))
	for _, t := range v.Snap.Techs {
		items = append(items, newResearchItem(v, t.Named, v.TechStatus(t.ID)))
	}
	sortResearch(items)
	return items
}

// Projects lists the projects open to the observer, dropping alien-only ones,
// in the same order as Techs.
func Projects(v *snapshot.View) []ResearchItem {
	items := make([]ResearchItem, 0, len(v.Snap.Projects))
	for i := range v.Snap.Projects {
		p := &v.Snap.Projects[i]
		if v.AlienOnly(p) {
			continue
		}
		items = append(items, newResearchItem(v, p.Named, v.ProjectStatus(p.ID)))
	}
	sortResearch(items)
	return items
}

func sortResearch(items []ResearchItem) {
	slices.SortStableFunc(items, func(a, b ResearchItem) int {
		return cmp.Or(
			cmp.Compare(b.Status, a.Status),
			cmp.Compare(a.TreeCost, b.TreeCost),
			cmp.Compare(a.Name, b.Name),
		)
	})
}

// formatResearchCost renders "remaining / cost" while in progress, else "cost".
func formatResearchCost(it ResearchItem) string {
	cost := strconv.FormatFloat(float64(it.Cost), 'f', 0, 32)
	if it.Status != techtree.Active {
		return cost
	}
	return strconv.FormatFloat(float64(it.Remaining), 'f', 0, 32) + " / " + cost
}

func researchFields(s *schema.Schema[ResearchItem]) *schema.Schema[ResearchItem] {
	return s.
		Add(schema.Field("Status", func(it ResearchItem) techtree.Status { return it.Status })).
		Add(schema.Field("Cost", formatResearchCost)).
		Add(schema.FieldSpec("Remaining Tree Cost", func(it ResearchItem) float32 { return it.TreeCost }, "SI"))
}

// GlobalTechs is the technology table.
func GlobalTechs(v *snapshot.View) *schema.Schema[ResearchItem] {
	s := schema.New[ResearchItem]().
		Add(schema.Field("Name", func(it ResearchItem) string { return it.Name }))
	return researchFields(s).
		Add(schema.Field("Largest Contribution", func(it ResearchItem) string { return v.LargestContributor(it.ID) }))
}

// FactionProjects is the project table. Restricted projects carry the allowed
// factions after their name.
func FactionProjects(v *snapshot.View) *schema.Schema[ResearchItem] {
	s := schema.New[ResearchItem]().
		Add(schema.Field("Name", func(it ResearchItem) string { return projectName(v, it) }))
	return researchFields(s).
		Add(schema.FieldFunc("Completed By",
			func(it ResearchItem) []*snapshot.Faction { return completedBy(v, it.ID) },
			func(fs []*snapshot.Faction) string { return formatFactions(v, fs) },
		))
}

func projectName(v *snapshot.View, it ResearchItem) string {
	p := v.Project(it.ID)
	if p == nil || len(p.FactionPrereqs) == 0 {
		return it.Name
	}
	return it.Name + " (" + units.FormatList(p.FactionPrereqs, v.Name) + ")"
}

func completedBy(v *snapshot.View, id string) []*snapshot.Faction {
	var out []*snapshot.Faction
	for i := range v.Snap.Factions {
		if f := &v.Snap.Factions[i]; slices.Contains(f.CompletedProjects, id) {
			out = append(out, f)
		}
	}
	return out
}

// formatFactions collapses the list to "Everyone" when it covers every human
// faction.
func formatFactions(v *snapshot.View, fs []*snapshot.Faction) string {
	humans := v.HumanFactions()
	everyone := len(humans) > 0
	for _, h := range humans {
		if !slices.Contains(fs, h) {
			everyone = false
			break
		}
	}
	if everyone {
		return "Everyone"
	}
	return units.FormatList(fs, func(f *snapshot.Faction) string { return v.DisplayName(f.Named) })
}

const techLegend = `Status Legend:
 * Completed: You have finished this technology or project.
 * Active: This technology or project is being researched.
 * Available: Technology or project is ready to research.
 * Locked: Prerequisites met, but project not yet rolled/unlocked by your faction.
 * Blocked: Research prerequisites not met.
`

func writeTechnology(w io.Writer, v *snapshot.View) {
	io.WriteString(w, techLegend)
	io.WriteString(w, "## Global Technologies\n")
	io.WriteString(w, render.Table(GlobalTechs(v), Techs(v)))
	io.WriteString(w, "\n## Player Faction Projects\n")
	io.WriteString(w, render.Table(FactionProjects(v), Projects(v)))
}
