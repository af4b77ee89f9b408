// Package reports defines the report catalogue: the schemas describing each
// report and the generators laying them out over a snapshot view.
package reports

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"tirep/internal/snapshot"
	"tirep/internal/units"
)

// Report renders one Markdown document from a view.
type Report struct {
	Name  string // file stem, e.g. "technology"
	Title string
	body  func(w io.Writer, v *snapshot.View)
}

// New builds a report outside the catalogue.
func New(name, title string, body func(w io.Writer, v *snapshot.View)) Report {
	return Report{Name: name, Title: title, body: body}
}

// Generate writes the report to w. Schema accessors are not guarded: a panic
// while rendering escapes to the caller.
func (r Report) Generate(w io.Writer, v *snapshot.View) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s as of %s\n", r.Title, v.Snap.Date)
	r.body(bw, v)
	return bw.Flush()
}

var catalogue = []Report{
	{Name: "faction_resources", Title: "Faction Resource Report", body: writeResources},
	{Name: "technology", Title: "Tech Report", body: writeTechnology},
	{Name: "prospecting", Title: "Prospect Hab Site Report", body: writeProspecting},
	{Name: "armies", Title: "World Armies Report", body: writeArmies},
	{Name: "relations", Title: "Faction Relations Report", body: writeRelations},
	{Name: "councilors", Title: "Councilor Report", body: writeCouncilors},
}

// All returns the catalogue in generation order.
func All() []Report {
	out := make([]Report, len(catalogue))
	copy(out, catalogue)
	return out
}

func Names() []string {
	out := make([]string, len(catalogue))
	for i, r := range catalogue {
		out[i] = r.Name
	}
	return out
}

func Lookup(name string) (Report, bool) {
	for _, r := range catalogue {
		if r.Name == name {
			return r, true
		}
	}
	return Report{}, false
}

// formatIncomes renders incomes as "+2.5 money, -1.0 influence" in resource
// order, skipping those that print as zero.
func formatIncomes(incomes map[snapshot.Resource]float32) string {
	shown := units.ExcludeZeroValues(snapshot.AllResources, func(r snapshot.Resource) float32 {
		return float32(math.Round(float64(incomes[r])*10) / 10)
	})
	return units.FormatList(shown, func(r snapshot.Resource) string {
		return units.FormatSigned(incomes[r], 1) + " " + string(r)
	})
}
