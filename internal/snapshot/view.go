package snapshot

import (
	"fmt"
	"slices"

	"tirep/internal/techtree"
)

// Intel thresholds for seeing another faction's councilors.
const (
	IntelLocation = 0.25
	IntelMission  = 0.5
)

// NullName is shown for a missing entity.
const NullName = "<null>"

// View is a snapshot seen by one observing faction. Display names, fog of war
// and project state all resolve relative to the observer. A View is read-only
// and safe to share between reports of one pass.
type View struct {
	Snap     *Snapshot
	Observer string

	player    *Faction
	names     map[string]Named
	factions  map[string]*Faction
	techs     map[string]*Tech
	projects  map[string]*Project
	finished  map[string]bool
	available map[string]bool
	slots     map[string]int
}

// NewView binds s to observer. An empty observer uses the snapshot's own.
func NewView(s *Snapshot, observer string) (*View, error) {
	if observer == "" {
		observer = s.Observer
	}
	v := &View{
		Snap:      s,
		Observer:  observer,
		names:     map[string]Named{},
		factions:  map[string]*Faction{},
		techs:     map[string]*Tech{},
		projects:  map[string]*Project{},
		finished:  toSet(s.Research.Finished),
		available: toSet(s.Research.Available),
		slots:     map[string]int{},
	}
	for i := range s.Factions {
		f := &s.Factions[i]
		v.factions[f.ID] = f
		v.names[f.ID] = f.Named
	}
	for _, n := range s.Nations {
		v.names[n.ID] = n
	}
	for _, r := range s.Regions {
		v.names[r.ID] = r
	}
	for i := range s.Techs {
		t := &s.Techs[i]
		v.techs[t.ID] = t
		v.names[t.ID] = t.Named
	}
	for i := range s.Projects {
		p := &s.Projects[i]
		v.projects[p.ID] = p
		v.names[p.ID] = p.Named
	}
	for _, b := range s.Bodies {
		v.names[b.ID] = b.Named
		for _, site := range b.Sites {
			v.names[site.ID] = site.Named
		}
	}
	for _, a := range s.Armies {
		v.names[a.ID] = a.Named
	}
	for _, c := range s.Councilors {
		v.names[c.ID] = c.Named
	}
	for i, slot := range s.Research.Slots {
		if i == techtree.ResearchSlots {
			break
		}
		if _, dup := v.slots[slot.Tech]; !dup {
			v.slots[slot.Tech] = i
		}
	}
	v.player = v.factions[observer]
	if v.player == nil {
		return nil, fmt.Errorf("%w: observer %q is not a faction", ErrInvalid, observer)
	}
	return v, nil
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// Player is the observing faction.
func (v *View) Player() *Faction { return v.player }

// DisplayName is n's name as known to the observer.
func (v *View) DisplayName(n Named) string {
	if alias, ok := n.KnownAs[v.Observer]; ok {
		return alias
	}
	return n.Name
}

// Name resolves an entity id to its display name. An empty id is NullName.
func (v *View) Name(id string) string {
	if id == "" {
		return NullName
	}
	n, ok := v.names[id]
	if !ok {
		return id
	}
	return v.DisplayName(n)
}

func (v *View) Faction(id string) *Faction { return v.factions[id] }
func (v *View) Tech(id string) *Tech       { return v.techs[id] }
func (v *View) Project(id string) *Project { return v.projects[id] }

// HumanFactions lists factions played by humans or their AI stand-ins, in
// snapshot order.
func (v *View) HumanFactions() []*Faction {
	var out []*Faction
	for i := range v.Snap.Factions {
		if f := &v.Snap.Factions[i]; f.Human {
			out = append(out, f)
		}
	}
	return out
}

// AlienFaction is the non-human faction, or nil.
func (v *View) AlienFaction() *Faction {
	for i := range v.Snap.Factions {
		if f := &v.Snap.Factions[i]; f.Alien {
			return f
		}
	}
	return nil
}

// BaseCost implements techtree.CostModel.
func (v *View) BaseCost(id string) float32 {
	if t := v.techs[id]; t != nil {
		return t.Cost
	}
	if p := v.projects[id]; p != nil {
		return p.Cost
	}
	return 0
}

// Progress is the research accumulated on id. Techs only progress while they
// occupy a research slot; projects track the observer's own progress.
func (v *View) Progress(id string) float32 {
	if v.techs[id] != nil {
		if i, ok := v.slots[id]; ok {
			return v.Snap.Research.Slots[i].Accumulated
		}
		return 0
	}
	return v.player.ProjectProgress[id]
}

func (v *View) Finished(id string) bool {
	if v.techs[id] != nil {
		return v.finished[id]
	}
	return slices.Contains(v.player.CompletedProjects, id)
}

func (v *View) Prereqs(id string) []string {
	if t := v.techs[id]; t != nil {
		return t.Prereqs
	}
	if p := v.projects[id]; p != nil {
		return p.Prereqs
	}
	return nil
}

// TechStatus derives the status inputs of a global tech. Techs are never
// Locked: an available tech is unlocked for everyone at once.
func (v *View) TechStatus(id string) techtree.StatusInput {
	_, active := v.slots[id]
	return techtree.StatusInput{
		Completed:  v.finished[id],
		InProgress: active,
		Unlocked:   v.available[id],
	}
}

// ProjectStatus derives the status inputs of a project for the observer.
func (v *View) ProjectStatus(id string) techtree.StatusInput {
	f := v.player
	return techtree.StatusInput{
		Completed:        slices.Contains(f.CompletedProjects, id),
		InProgress:       slices.Contains(f.ActiveProjects, id),
		Unlocked:         slices.Contains(f.AvailableProjects, id),
		PrereqsSatisfied: v.projectPrereqsMet(id, f),
	}
}

func (v *View) projectPrereqsMet(id string, f *Faction) bool {
	p := v.projects[id]
	if p == nil || !FactionAllowed(p, f.ID) {
		return false
	}
	for _, pre := range p.Prereqs {
		if v.techs[pre] != nil {
			if !v.finished[pre] {
				return false
			}
		} else if !slices.Contains(f.CompletedProjects, pre) {
			return false
		}
	}
	return true
}

// FactionAllowed reports whether faction may research p.
func FactionAllowed(p *Project, faction string) bool {
	return len(p.FactionPrereqs) == 0 || slices.Contains(p.FactionPrereqs, faction)
}

// AlienOnly reports whether p is reserved to the alien faction and closed to the
// observer.
func (v *View) AlienOnly(p *Project) bool {
	alien := v.AlienFaction()
	return alien != nil && len(p.FactionPrereqs) == 1 &&
		FactionAllowed(p, alien.ID) && !FactionAllowed(p, v.Observer)
}

// LargestContributor names the faction that contributed most to a tech, by
// display name. See techtree.LargestContributor.
func (v *View) LargestContributor(id string) string {
	_, active := v.slots[id]
	slots := make([]techtree.Slot[string], 0, len(v.Snap.Research.Slots))
	for _, s := range v.Snap.Research.Slots {
		slots = append(slots, techtree.Slot[string]{Node: s.Tech, Contributions: v.byName(s.Contributions)})
	}
	history := map[string]float32{}
	for _, f := range v.Snap.Factions {
		history[v.DisplayName(f.Named)] = f.TechContributions[id]
	}
	return techtree.LargestContributor(id, active, slots, history)
}

func (v *View) byName(byID map[string]float32) map[string]float32 {
	out := make(map[string]float32, len(byID))
	for id, amount := range byID {
		out[v.Name(id)] = amount
	}
	return out
}

// Prospected reports whether the observer has prospected a hab site.
func (v *View) Prospected(siteID string) bool {
	return slices.Contains(v.player.Prospected, siteID)
}

// KnowsLocation reports whether the observer can see where c is.
func (v *View) KnowsLocation(c *Councilor) bool {
	return c.Faction == v.Observer || v.player.Intel[c.ID] >= IntelLocation
}

// KnowsMission reports whether the observer can see c's current mission.
func (v *View) KnowsMission(c *Councilor) bool {
	return c.Faction == v.Observer || v.player.Intel[c.ID] >= IntelMission
}

var _ techtree.CostModel[string] = (*View)(nil)
