package reports

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"tirep/internal/snapshot"
	"tirep/internal/techtree"
	"tirep/internal/units"
)

// AllTechsData is the machine-readable technology report.
type AllTechsData struct {
	Date            string        `yaml:"date" json:"date"`
	Observer        string        `yaml:"observer" json:"observer"`
	GlobalTechs     []TechData    `yaml:"global_techs" json:"global_techs"`
	FactionProjects []ProjectData `yaml:"faction_projects" json:"faction_projects"`
}

type TechData struct {
	Name                string            `yaml:"name" json:"name"`
	Status              techtree.Status   `yaml:"status" json:"status"`
	Progress            techtree.Progress `yaml:"progress" json:"progress"`
	Completion          units.Percentage  `yaml:"completion" json:"completion"`
	RemainingTreeCost   float32           `yaml:"remaining_tree_cost" json:"remaining_tree_cost"`
	LargestContribution string            `yaml:"largest_contribution" json:"largest_contribution"`
}

type ProjectData struct {
	Name               string            `yaml:"name" json:"name"`
	Status             techtree.Status   `yaml:"status" json:"status"`
	Progress           techtree.Progress `yaml:"progress" json:"progress"`
	Completion         units.Percentage  `yaml:"completion" json:"completion"`
	RemainingTreeCost  float32           `yaml:"remaining_tree_cost" json:"remaining_tree_cost"`
	CompletedByFaction []string          `yaml:"completed_by_factions" json:"completed_by_factions"`
	AllowedForFactions []string          `yaml:"allowed_for_factions" json:"allowed_for_factions"`
}

// ExtractAllTechs builds the structured technology export for the observer.
func ExtractAllTechs(v *snapshot.View) AllTechsData {
	data := AllTechsData{
		Date:            v.Snap.Date,
		Observer:        v.DisplayName(v.Player().Named),
		GlobalTechs:     []TechData{},
		FactionProjects: []ProjectData{},
	}
	for _, it := range Techs(v) {
		data.GlobalTechs = append(data.GlobalTechs, TechData{
			Name:                it.Name,
			Status:              it.Status,
			Progress:            it.Progress,
			Completion:          completion(it.Progress),
			RemainingTreeCost:   it.TreeCost,
			LargestContribution: v.LargestContributor(it.ID),
		})
	}
	for _, it := range Projects(v) {
		data.FactionProjects = append(data.FactionProjects, ProjectData{
			Name:               it.Name,
			Status:             it.Status,
			Progress:           it.Progress,
			Completion:         completion(it.Progress),
			RemainingTreeCost:  it.TreeCost,
			CompletedByFaction: factionNames(v, completedBy(v, it.ID)),
			AllowedForFactions: allowedFor(v, v.Project(it.ID)),
		})
	}
	return data
}

// completion is the finished share of p, zero for items without a cost.
func completion(p techtree.Progress) units.Percentage {
	if p.Cost <= 0 {
		return 0
	}
	return units.Percentage(p.Done / p.Cost)
}

func factionNames(v *snapshot.View, fs []*snapshot.Faction) []string {
	out := []string{}
	for _, f := range fs {
		out = append(out, v.DisplayName(f.Named))
	}
	return out
}

// allowedFor lists the factions that may research p; unrestricted projects are
// open to every human faction.
func allowedFor(v *snapshot.View, p *snapshot.Project) []string {
	if len(p.FactionPrereqs) == 0 {
		return factionNames(v, v.HumanFactions())
	}
	out := make([]string, 0, len(p.FactionPrereqs))
	for _, id := range p.FactionPrereqs {
		out = append(out, v.Name(id))
	}
	return out
}

// WriteExport encodes the export as "yaml" or "json".
func WriteExport(w io.Writer, v *snapshot.View, format string) error {
	data := ExtractAllTechs(v)
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}
