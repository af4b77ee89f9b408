package reports

import (
	"fmt"
	"io"

	"tirep/internal/render"
	"tirep/internal/schema"
	"tirep/internal/snapshot"
)

type siteStatus struct {
	occupied   bool
	prospected bool
	owner      string
}

func (s siteStatus) String() string {
	switch {
	case s.occupied:
		return "Occupied (" + s.owner + ")"
	case s.prospected:
		return "Available"
	}
	return "Not Prospected"
}

// HabSites describes a hab site. Prospected sites show their monthly output and
// actual grade; others only the survey estimate.
func HabSites(v *snapshot.View) *schema.Schema[*snapshot.HabSite] {
	grade := func(r snapshot.Resource) func(*snapshot.HabSite) string {
		return func(site *snapshot.HabSite) string {
			y, ok := site.Yields[r]
			if !ok {
				return ""
			}
			if v.Prospected(site.ID) {
				return fmt.Sprintf("%.1f (%s)", y.Monthly, y.Actual)
			}
			return y.Expected
		}
	}
	return schema.New[*snapshot.HabSite]().
		Add(schema.Field("Name", func(site *snapshot.HabSite) string { return v.DisplayName(site.Named) })).
		Add(schema.Field("Status", func(site *snapshot.HabSite) siteStatus {
			return siteStatus{
				occupied:   site.Owner != "",
				prospected: v.Prospected(site.ID),
				owner:      v.Name(site.Owner),
			}
		})).
		Add(schema.Field("Water", grade(snapshot.Water))).
		Add(schema.Field("Volatiles", grade(snapshot.Volatiles))).
		Add(schema.Field("Metals", grade(snapshot.Metals))).
		Add(schema.Field("Noble Metals", grade(snapshot.NobleMetals))).
		Add(schema.Field("Fissiles", grade(snapshot.Fissiles)))
}

// Bodies is the heading row printed above a body's sites.
func Bodies(v *snapshot.View) *schema.Schema[*snapshot.Body] {
	return schema.New[*snapshot.Body]().
		Add(schema.Field("Name", func(b *snapshot.Body) string { return "**" + v.DisplayName(b.Named) + "**" }))
}

// HabSitesAndBodies lays bodies and their sites out in one table.
func HabSitesAndBodies(v *snapshot.View) *schema.Schema[snapshot.Entity] {
	return schema.Merge[snapshot.Entity](HabSites(v), Bodies(v))
}

// ProspectingRows lists each body with sites followed by its sites.
func ProspectingRows(v *snapshot.View) []snapshot.Entity {
	var rows []snapshot.Entity
	for i := range v.Snap.Bodies {
		b := &v.Snap.Bodies[i]
		if len(b.Sites) == 0 {
			continue
		}
		rows = append(rows, b)
		for j := range b.Sites {
			rows = append(rows, &b.Sites[j])
		}
	}
	return rows
}

func writeProspecting(w io.Writer, v *snapshot.View) {
	io.WriteString(w, render.Table(HabSitesAndBodies(v), ProspectingRows(v)))
}
