package snapshot

import (
	"errors"
	"fmt"
)

type kind string

const (
	kindFaction   kind = "faction"
	kindNation    kind = "nation"
	kindRegion    kind = "region"
	kindTech      kind = "tech"
	kindProject   kind = "project"
	kindBody      kind = "body"
	kindSite      kind = "hab site"
	kindArmy      kind = "army"
	kindCouncilor kind = "councilor"
)

// Validate checks that ids are unique across all entities and that every
// reference resolves to an entity of the expected kind. All problems are
// reported together; each wraps ErrInvalid.
func (s *Snapshot) Validate() error {
	v := validator{kinds: map[string]kind{}}
	v.index(s)
	if len(v.errs) > 0 {
		return errors.Join(v.errs...)
	}

	v.ref("snapshot", "observer", s.Observer, kindFaction)
	for _, f := range s.Factions {
		from := "faction " + f.ID
		v.refs(from, "completed_projects", f.CompletedProjects, kindProject)
		v.refs(from, "available_projects", f.AvailableProjects, kindProject)
		v.refs(from, "active_projects", f.ActiveProjects, kindProject)
		v.keys(from, "project_progress", f.ProjectProgress, kindProject)
		v.keys(from, "tech_contributions", f.TechContributions, kindTech)
		v.refs(from, "prospected", f.Prospected, kindSite)
		v.keys(from, "intel", f.Intel, kindCouncilor)
		v.keys(from, "hate", f.Hate, kindFaction)
		v.refs(from, "permanent_allies", f.PermanentAllies, kindFaction)
		v.refs(from, "truces", f.Truces, kindFaction)
		v.refs(from, "naps", f.NAPs, kindFaction)
		v.refs(from, "intel_sharing", f.IntelSharing, kindFaction)
		v.refs(from, "at_war", f.AtWar, kindFaction)
	}
	for _, t := range s.Techs {
		v.refs("tech "+t.ID, "prereqs", t.Prereqs, kindTech)
	}
	for _, p := range s.Projects {
		v.refs("project "+p.ID, "prereqs", p.Prereqs, kindTech, kindProject)
		v.refs("project "+p.ID, "faction_prereqs", p.FactionPrereqs, kindFaction)
	}
	v.refs("research", "finished", s.Research.Finished, kindTech)
	v.refs("research", "available", s.Research.Available, kindTech)
	for i, slot := range s.Research.Slots {
		from := fmt.Sprintf("research slot %d", i)
		v.ref(from, "tech", slot.Tech, kindTech)
		v.keys(from, "contributions", slot.Contributions, kindFaction)
	}
	for _, b := range s.Bodies {
		for _, site := range b.Sites {
			v.optional("hab site "+site.ID, "owner", site.Owner, kindFaction)
		}
	}
	for _, a := range s.Armies {
		from := "army " + a.ID
		v.optional(from, "faction", a.Faction, kindFaction)
		v.optional(from, "nation", a.Nation, kindNation)
		v.optional(from, "region", a.Region, kindRegion)
	}
	for _, c := range s.Councilors {
		from := "councilor " + c.ID
		v.optional(from, "faction", c.Faction, kindFaction)
		v.optional(from, "location", c.Location, kindRegion)
		v.optional(from, "home_region", c.HomeRegion, kindRegion)
	}
	return errors.Join(v.errs...)
}

type validator struct {
	kinds map[string]kind
	errs  []error
}

func (v *validator) index(s *Snapshot) {
	for _, f := range s.Factions {
		v.add(f.Named, kindFaction)
	}
	for _, n := range s.Nations {
		v.add(n, kindNation)
	}
	for _, r := range s.Regions {
		v.add(r, kindRegion)
	}
	for _, t := range s.Techs {
		v.add(t.Named, kindTech)
	}
	for _, p := range s.Projects {
		v.add(p.Named, kindProject)
	}
	for _, b := range s.Bodies {
		v.add(b.Named, kindBody)
		for _, site := range b.Sites {
			v.add(site.Named, kindSite)
		}
	}
	for _, a := range s.Armies {
		v.add(a.Named, kindArmy)
	}
	for _, c := range s.Councilors {
		v.add(c.Named, kindCouncilor)
	}
}

func (v *validator) add(n Named, k kind) {
	if n.ID == "" {
		v.errs = append(v.errs, fmt.Errorf("%w: %s %q has no id", ErrInvalid, k, n.Name))
		return
	}
	if prev, dup := v.kinds[n.ID]; dup {
		v.errs = append(v.errs, fmt.Errorf("%w: duplicate id %q (%s and %s)", ErrInvalid, n.ID, prev, k))
		return
	}
	v.kinds[n.ID] = k
}

func (v *validator) ref(from, field, id string, allowed ...kind) {
	got, ok := v.kinds[id]
	if ok {
		for _, k := range allowed {
			if got == k {
				return
			}
		}
		v.errs = append(v.errs, fmt.Errorf("%w: %s %s: %q is a %s, want %s", ErrInvalid, from, field, id, got, allowed[0]))
		return
	}
	v.errs = append(v.errs, fmt.Errorf("%w: %s %s: unknown %s %q", ErrInvalid, from, field, allowed[0], id))
}

func (v *validator) optional(from, field, id string, allowed ...kind) {
	if id != "" {
		v.ref(from, field, id, allowed...)
	}
}

func (v *validator) refs(from, field string, ids []string, allowed ...kind) {
	for _, id := range ids {
		v.ref(from, field, id, allowed...)
	}
}

func (v *validator) keys(from, field string, m map[string]float32, allowed ...kind) {
	for id := range m {
		v.ref(from, field, id, allowed...)
	}
}
