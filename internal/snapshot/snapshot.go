// Package snapshot holds the immutable game state that reports are rendered from.
// A snapshot is exported by the host game as YAML or JSON; all cross references
// are by entity id.
package snapshot

import "tirep/internal/units"

// Entity is anything with a stable id.
type Entity interface {
	EntityID() string
}

// Named is the identity shared by every entity. KnownAs overrides the name for
// specific observing factions, e.g. a councilor known under a cover identity.
type Named struct {
	ID      string            `yaml:"id" json:"id"`
	Name    string            `yaml:"name" json:"name"`
	KnownAs map[string]string `yaml:"known_as,omitempty" json:"known_as,omitempty"`
}

func (n Named) EntityID() string { return n.ID }

type Resource string

const (
	Money          Resource = "money"
	Influence      Resource = "influence"
	Operations     Resource = "operations"
	Boost          Resource = "boost"
	ResearchPoints Resource = "research"
	ProjectPoints  Resource = "projects"
	Water          Resource = "water"
	Volatiles      Resource = "volatiles"
	Metals         Resource = "metals"
	NobleMetals    Resource = "nobles"
	Fissiles       Resource = "fissiles"
	Antimatter     Resource = "antimatter"
	Exotics        Resource = "exotics"
)

// AllResources lists every faction resource in display order.
var AllResources = []Resource{
	Money, Influence, Operations, Boost, ResearchPoints, ProjectPoints,
	Water, Volatiles, Metals, NobleMetals, Fissiles, Antimatter, Exotics,
}

// SpaceResources are the resources mined at hab sites, in display order.
var SpaceResources = []Resource{Water, Volatiles, Metals, NobleMetals, Fissiles}

// Stockpile is a resource amount with its monthly income.
type Stockpile struct {
	Amount float32 `yaml:"amount" json:"amount"`
	Income float32 `yaml:"income" json:"income"`
}

type Snapshot struct {
	Date       string      `yaml:"date" json:"date"`
	Observer   string      `yaml:"observer" json:"observer"`
	Factions   []Faction   `yaml:"factions" json:"factions"`
	Nations    []Named     `yaml:"nations,omitempty" json:"nations,omitempty"`
	Regions    []Named     `yaml:"regions,omitempty" json:"regions,omitempty"`
	Techs      []Tech      `yaml:"techs" json:"techs"`
	Projects   []Project   `yaml:"projects,omitempty" json:"projects,omitempty"`
	Research   Research    `yaml:"research" json:"research"`
	Bodies     []Body      `yaml:"bodies,omitempty" json:"bodies,omitempty"`
	Armies     []Army      `yaml:"armies,omitempty" json:"armies,omitempty"`
	Councilors []Councilor `yaml:"councilors,omitempty" json:"councilors,omitempty"`
}

type Faction struct {
	Named `yaml:",inline"`

	Human bool `yaml:"human,omitempty" json:"human,omitempty"`
	Alien bool `yaml:"alien,omitempty" json:"alien,omitempty"`

	Resources      map[Resource]Stockpile `yaml:"resources,omitempty" json:"resources,omitempty"`
	MissionControl units.Capacity         `yaml:"mission_control" json:"mission_control"`
	ControlPoints  units.Capacity         `yaml:"control_points" json:"control_points"`

	CompletedProjects []string           `yaml:"completed_projects,omitempty" json:"completed_projects,omitempty"`
	AvailableProjects []string           `yaml:"available_projects,omitempty" json:"available_projects,omitempty"`
	ActiveProjects    []string           `yaml:"active_projects,omitempty" json:"active_projects,omitempty"`
	ProjectProgress   map[string]float32 `yaml:"project_progress,omitempty" json:"project_progress,omitempty"`

	// TechContributions is the historical research contributed per tech id.
	TechContributions map[string]float32 `yaml:"tech_contributions,omitempty" json:"tech_contributions,omitempty"`

	Prospected []string `yaml:"prospected,omitempty" json:"prospected,omitempty"`

	// Intel is the intel level held per councilor id, 0 to 1.
	Intel map[string]float32 `yaml:"intel,omitempty" json:"intel,omitempty"`

	Hate            map[string]float32 `yaml:"hate,omitempty" json:"hate,omitempty"`
	PermanentAllies []string           `yaml:"permanent_allies,omitempty" json:"permanent_allies,omitempty"`
	Truces          []string           `yaml:"truces,omitempty" json:"truces,omitempty"`
	NAPs            []string           `yaml:"naps,omitempty" json:"naps,omitempty"`
	IntelSharing    []string           `yaml:"intel_sharing,omitempty" json:"intel_sharing,omitempty"`
	AtWar           []string           `yaml:"at_war,omitempty" json:"at_war,omitempty"`
}

type Tech struct {
	Named    `yaml:",inline"`
	Category string   `yaml:"category,omitempty" json:"category,omitempty"`
	Cost     float32  `yaml:"cost" json:"cost"`
	Prereqs  []string `yaml:"prereqs,omitempty" json:"prereqs,omitempty"`
}

// Project is a faction-level research item. Prereqs may name techs or projects;
// FactionPrereqs restricts the project to the listed factions.
type Project struct {
	Named          `yaml:",inline"`
	Category       string   `yaml:"category,omitempty" json:"category,omitempty"`
	Cost           float32  `yaml:"cost" json:"cost"`
	Prereqs        []string `yaml:"prereqs,omitempty" json:"prereqs,omitempty"`
	FactionPrereqs []string `yaml:"faction_prereqs,omitempty" json:"faction_prereqs,omitempty"`
}

// Research is the global research state shared by all factions.
type Research struct {
	Finished  []string       `yaml:"finished,omitempty" json:"finished,omitempty"`
	Available []string       `yaml:"available,omitempty" json:"available,omitempty"`
	Slots     []ResearchSlot `yaml:"slots,omitempty" json:"slots,omitempty"`
}

type ResearchSlot struct {
	Tech          string             `yaml:"tech" json:"tech"`
	Accumulated   float32            `yaml:"accumulated" json:"accumulated"`
	Contributions map[string]float32 `yaml:"contributions,omitempty" json:"contributions,omitempty"`
}

type Body struct {
	Named `yaml:",inline"`
	Kind  string    `yaml:"kind,omitempty" json:"kind,omitempty"`
	Sites []HabSite `yaml:"sites,omitempty" json:"sites,omitempty"`
}

type HabSite struct {
	Named  `yaml:",inline"`
	Owner  string             `yaml:"owner,omitempty" json:"owner,omitempty"`
	Yields map[Resource]Yield `yaml:"yields,omitempty" json:"yields,omitempty"`
}

// Yield is a site's output of one resource. Expected is the survey grade visible
// to everyone; Actual and Monthly are only known once prospected.
type Yield struct {
	Expected string  `yaml:"expected" json:"expected"`
	Actual   string  `yaml:"actual,omitempty" json:"actual,omitempty"`
	Monthly  float32 `yaml:"monthly,omitempty" json:"monthly,omitempty"`
}

type Army struct {
	Named     `yaml:",inline"`
	Faction   string         `yaml:"faction,omitempty" json:"faction,omitempty"`
	Nation    string         `yaml:"nation,omitempty" json:"nation,omitempty"`
	Region    string         `yaml:"region,omitempty" json:"region,omitempty"`
	TechLevel float32        `yaml:"tech_level" json:"tech_level"`
	Strength  float32        `yaml:"strength" json:"strength"`
	Navy      bool           `yaml:"navy,omitempty" json:"navy,omitempty"`
	Destroyed bool           `yaml:"destroyed,omitempty" json:"destroyed,omitempty"`
	Operation *ArmyOperation `yaml:"operation,omitempty" json:"operation,omitempty"`
}

type ArmyOperation struct {
	Name   string `yaml:"name" json:"name"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
	ETA    string `yaml:"eta,omitempty" json:"eta,omitempty"`
}

type Councilor struct {
	Named      `yaml:",inline"`
	Faction    string               `yaml:"faction,omitempty" json:"faction,omitempty"`
	Background string               `yaml:"background,omitempty" json:"background,omitempty"`
	Age        int                  `yaml:"age" json:"age"`
	XP         int                  `yaml:"xp" json:"xp"`
	Location   string               `yaml:"location,omitempty" json:"location,omitempty"`
	HomeRegion string               `yaml:"home_region,omitempty" json:"home_region,omitempty"`
	Mission    string               `yaml:"mission,omitempty" json:"mission,omitempty"`
	Income     map[Resource]float32 `yaml:"income,omitempty" json:"income,omitempty"`
	Attributes map[string]Attribute `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Traits     []Trait              `yaml:"traits,omitempty" json:"traits,omitempty"`
}

// CouncilorAttributes lists the displayed attributes in order.
var CouncilorAttributes = []string{
	"Persuasion", "Investigation", "Espionage", "Command",
	"Administration", "Science", "Security", "Apparent Loyalty",
}

// Attribute is one councilor stat split by source.
type Attribute struct {
	Base       float32 `yaml:"base" json:"base"`
	FromTraits float32 `yaml:"from_traits,omitempty" json:"from_traits,omitempty"`
	FromOrgs   float32 `yaml:"from_orgs,omitempty" json:"from_orgs,omitempty"`
	Cap        float32 `yaml:"cap" json:"cap"`
}

func (a Attribute) Total() float32 { return a.Base + a.FromTraits + a.FromOrgs }

type Trait struct {
	Name   string `yaml:"name" json:"name"`
	Effect string `yaml:"effect,omitempty" json:"effect,omitempty"`
}
