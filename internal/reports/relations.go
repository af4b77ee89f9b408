package reports

import (
	"io"
	"slices"
	"strconv"

	"tirep/internal/render"
	"tirep/internal/schema"
	"tirep/internal/snapshot"
	"tirep/internal/units"
)

// Opinion is an informal relationship category derived from hate.
type Opinion int

const (
	Pleased    Opinion = -2
	Tolerant   Opinion = -1
	Wary       Opinion = 0
	Annoyed    Opinion = 10
	Displeased Opinion = 20
	Aggrieved  Opinion = 30
	Angry      Opinion = 40
	Furious    Opinion = 50
	Outraged   Opinion = 60
	Hate       Opinion = 70
)

// opinions is ordered from the highest threshold down.
var opinions = []struct {
	o    Opinion
	name string
}{
	{Hate, "Hate"},
	{Outraged, "Outraged"},
	{Furious, "Furious"},
	{Angry, "Angry"},
	{Aggrieved, "Aggrieved"},
	{Displeased, "Displeased"},
	{Annoyed, "Annoyed"},
	{Wary, "Wary"},
	{Tolerant, "Tolerant"},
	{Pleased, "Pleased"},
}

// CategorizeHate returns the highest category whose threshold hate exceeds.
// Hate at or below the lowest threshold is Pleased.
func CategorizeHate(hate float32) Opinion {
	for _, o := range opinions {
		if hate > float32(o.o) {
			return o.o
		}
	}
	return Pleased
}

func (o Opinion) String() string {
	for _, e := range opinions {
		if e.o == o {
			return e.name
		}
	}
	return "Opinion(" + strconv.Itoa(int(o)) + ")"
}

type Treaty int

const (
	Truce Treaty = iota
	NAP
	IntelSharing
)

func (t Treaty) String() string {
	switch t {
	case Truce:
		return "Truce"
	case NAP:
		return "Non-Aggression Pact"
	case IntelSharing:
		return "Intel Sharing"
	}
	return "Treaty(" + strconv.Itoa(int(t)) + ")"
}

// Relation is one faction's stance toward another.
type Relation struct {
	From, To *snapshot.Faction
	Opinion  Opinion
	AtWar    bool
	Treaties []Treaty
}

func newRelation(from, to *snapshot.Faction) Relation {
	r := Relation{From: from, To: to}
	if slices.Contains(from.PermanentAllies, to.ID) {
		r.Opinion = Pleased
	} else {
		r.Opinion = CategorizeHate(from.Hate[to.ID])
		r.AtWar = slices.Contains(from.AtWar, to.ID)
	}
	if slices.Contains(from.Truces, to.ID) {
		r.Treaties = append(r.Treaties, Truce)
	}
	if slices.Contains(from.NAPs, to.ID) {
		r.Treaties = append(r.Treaties, NAP)
	}
	if slices.Contains(from.IntelSharing, to.ID) {
		r.Treaties = append(r.Treaties, IntelSharing)
	}
	return r
}

// Relations pairs every human faction with every other one.
func Relations(v *snapshot.View) []Relation {
	humans := v.HumanFactions()
	var out []Relation
	for _, from := range humans {
		for _, to := range humans {
			if from != to {
				out = append(out, newRelation(from, to))
			}
		}
	}
	return out
}

func FactionRelations(v *snapshot.View) *schema.Schema[Relation] {
	return schema.New[Relation]().
		Add(schema.Field("Faction", func(r Relation) string { return v.DisplayName(r.From.Named) })).
		Add(schema.Field("Other Faction", func(r Relation) string { return v.DisplayName(r.To.Named) })).
		Add(schema.FieldFunc("War", func(r Relation) bool { return r.AtWar }, units.FormatBool)).
		Add(schema.Field("Opinion", func(r Relation) Opinion { return r.Opinion })).
		Add(schema.FieldFunc("Treaties", func(r Relation) []Treaty { return r.Treaties },
			func(ts []Treaty) string { return units.FormatList(ts, nil) }))
}

func writeRelations(w io.Writer, v *snapshot.View) {
	io.WriteString(w, render.Table(FactionRelations(v), Relations(v)))
}
