package reports_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"tirep/internal/reports"
	"tirep/internal/snapshot"
	"tirep/internal/techtree"
)

const campaign = "../snapshot/testdata/campaign.yaml"

func newView(t *testing.T) *snapshot.View {
	t.Helper()
	s, err := snapshot.Load(campaign)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, err := snapshot.NewView(s, "")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return v
}

func generate(t *testing.T, name string) string {
	t.Helper()
	r, ok := reports.Lookup(name)
	if !ok {
		t.Fatalf("report %s not found", name)
	}
	var buf bytes.Buffer
	if err := r.Generate(&buf, newView(t)); err != nil {
		t.Fatalf("generate %s: %v", name, err)
	}
	return buf.String()
}

// tableRows returns the data rows of every Markdown table in out.
func tableRows(out string) []string {
	var rows []string
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		if !strings.HasPrefix(l, "|") || strings.Contains(l, "---") {
			continue
		}
		if i+1 < len(lines) && strings.Contains(lines[i+1], "---") {
			continue // header
		}
		rows = append(rows, l)
	}
	return rows
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("expected %q in:\n%s", w, out)
		}
	}
}

func TestCatalogue(t *testing.T) {
	want := []string{"faction_resources", "technology", "prospecting", "armies", "relations", "councilors"}
	if diff := cmp.Diff(want, reports.Names()); diff != "" {
		t.Fatalf("catalogue mismatch (-want +got):\n%s", diff)
	}
	if _, ok := reports.Lookup("fleets"); ok {
		t.Fatalf("unexpected report fleets")
	}
}

func TestTechnologyReport(t *testing.T) {
	out := generate(t, "technology")
	if !strings.HasPrefix(out, "# Tech Report as of 2031-04-12\nStatus Legend:\n") {
		t.Fatalf("unexpected heading:\n%s", out)
	}
	want := []string{
		"| Basic Science | Completed | 100 | 0 | none |",
		"| Fusion Power | Active | 380 / 500 | 380 | The Resistance |",
		"| Lasers | Available | 200 | 200 | none |",
		"| Shields | Blocked | 1000 | 1.6 k | none |",
		"| Headquarters | Completed | 50 | 0 | The Resistance, The Initiative |",
		"| Lunar Mine | Active | 250 / 400 | 630 |  |",
		"| Orbital Lab | Available | 300 | 500 |  |",
		"| Elite Cadre (The Resistance) | Locked | 250 | 250 |  |",
		"| Ark | Blocked | 800 | 2.4 k |  |",
	}
	if diff := cmp.Diff(want, tableRows(out)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(out, "Hive Mind") {
		t.Fatalf("alien-only project should be filtered")
	}
}

func TestCompletedByEveryone(t *testing.T) {
	v := newView(t)
	for i := range v.Snap.Factions {
		f := &v.Snap.Factions[i]
		if f.ID == "servants" {
			f.CompletedProjects = append(f.CompletedProjects, "proj_hq")
		}
	}
	var buf bytes.Buffer
	r, _ := reports.Lookup("technology")
	if err := r.Generate(&buf, v); err != nil {
		t.Fatalf("generate: %v", err)
	}
	assertContains(t, buf.String(), "| Headquarters | Completed | 50 | 0 | Everyone |")
}

func TestProspectingReport(t *testing.T) {
	out := generate(t, "prospecting")
	assertContains(t, out, "| Name | Status | Water | Volatiles | Metals | Noble Metals | Fissiles |")
	want := []string{
		"| **Luna** |  |  |  |  |  |  |",
		"| Luna Site A | Available | 12.5 (Excellent) |  | 3.0 (Fair) |  |  |",
		"| Luna Site B | Occupied (The Initiative) | Fair |  |  |  |  |",
		"| **Mars** |  |  |  |  |  |  |",
		"| Mars Site A | Not Prospected |  |  | Rich |  |  |",
	}
	if diff := cmp.Diff(want, tableRows(out)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestArmiesReport(t *testing.T) {
	want := []string{
		"| 1st Army | The Resistance | United States | New York | 3.25 | 85% | yes | Defend -> New York (ETA: 2031-05-01) |",
		"| Red Guard | The Servants | China | Beijing | 2.50 | 50% | no | Idle |",
	}
	if diff := cmp.Diff(want, tableRows(generate(t, "armies"))); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRelationsReport(t *testing.T) {
	want := []string{
		"| The Resistance | The Initiative | no | Wary | Non-Aggression Pact, Intel Sharing |",
		"| The Resistance | The Servants | yes | Angry |  |",
		"| The Initiative | The Resistance | no | Pleased | Non-Aggression Pact, Intel Sharing |",
		"| The Initiative | The Servants | no | Annoyed |  |",
		"| The Servants | The Resistance | yes | Hate |  |",
		"| The Servants | The Initiative | no | Tolerant |  |",
	}
	if diff := cmp.Diff(want, tableRows(generate(t, "relations"))); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestCategorizeHate(t *testing.T) {
	tests := []struct {
		hate float32
		want reports.Opinion
	}{
		{100, reports.Hate},
		{70, reports.Outraged},
		{10.5, reports.Annoyed},
		{0, reports.Tolerant},
		{-1.5, reports.Pleased},
		{-40, reports.Pleased},
	}
	for _, tt := range tests {
		if got := reports.CategorizeHate(tt.hate); got != tt.want {
			t.Fatalf("hate %v: expected %s, got %s", tt.hate, tt.want, got)
		}
	}
}

func TestCouncilorReport(t *testing.T) {
	out := generate(t, "councilors")
	assertContains(t, out,
		"* Name: Ada Park\n  Faction: The Resistance\n  Background: Journalist\n  Age: 41\n  XP: 120\n"+
			"  Location: New York\n  Home Region: New York\n  Current Mission: Investigate\n  Income: +2.5 money\n  Intel: Full\n",
		"| Persuasion | 6 | 5 | 1 | 0 | 20 |",
		"| Investigation | 8 | 6 | 0 | 2 | 20 |",
		"Traits:\n* Tough, +1 Security\n* Charismatic, \n",
		"* Name: The Diplomat\n  Faction: The Servants\n",
		"  Location: Beijing\n  Home Region: Beijing\n  Current Mission: Unknown\n  Income: \n  Intel: 30.0%\n",
		"* Name: Mei Lin\n",
	)
	if strings.Contains(out, "Agent X") {
		t.Fatalf("alien councilors should not be listed")
	}
	mei := out[strings.Index(out, "* Name: Mei Lin"):]
	assertContains(t, mei, "  Location: Unknown\n", "  Current Mission: Unknown\n", "  Intel: None\n")
}

func TestFactionResourcesReport(t *testing.T) {
	out := generate(t, "faction_resources")
	assertContains(t, out,
		"* Name: The Resistance\n  Money: 120.0+4.5\n",
		"  MC: 3/5\n",
		"  Research: 120\n",
		"  CP: 4/6\n",
		"* Name: The Servants\n  Money: 0.0\n",
	)
	if strings.Contains(out, "Aliens") {
		t.Fatalf("alien faction should not be listed")
	}
}

func TestExportYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := reports.WriteExport(&buf, newView(t), "yaml"); err != nil {
		t.Fatalf("export: %v", err)
	}
	var data reports.AllTechsData
	if err := yaml.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	assertContains(t, buf.String(), "progress: 120/500", "completion: 24.0%", "status: Active")
	if len(data.GlobalTechs) != 4 || len(data.FactionProjects) != 5 {
		t.Fatalf("unexpected sizes %d/%d", len(data.GlobalTechs), len(data.FactionProjects))
	}
	fusion := data.GlobalTechs[1]
	want := reports.TechData{
		Name:                "Fusion Power",
		Status:              techtree.Active,
		Progress:            techtree.Progress{Done: 120, Cost: 500},
		Completion:          0.24,
		RemainingTreeCost:   380,
		LargestContribution: "The Resistance",
	}
	if diff := cmp.Diff(want, fusion); diff != "" {
		t.Fatalf("fusion mismatch (-want +got):\n%s", diff)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := reports.WriteExport(&buf, newView(t), "json"); err != nil {
		t.Fatalf("export: %v", err)
	}
	var data reports.AllTechsData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	hq := data.FactionProjects[0]
	if hq.Name != "Headquarters" || hq.Status != techtree.Completed || hq.Completion != 1 {
		t.Fatalf("unexpected first project %+v", hq)
	}
	if diff := cmp.Diff([]string{"The Resistance", "The Initiative"}, hq.CompletedByFaction); diff != "" {
		t.Fatalf("completed by mismatch (-want +got):\n%s", diff)
	}
	elite := data.FactionProjects[3]
	if diff := cmp.Diff([]string{"The Resistance"}, elite.AllowedForFactions); diff != "" {
		t.Fatalf("allowed mismatch (-want +got):\n%s", diff)
	}
}
