package techtree_test

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	"tirep/internal/techtree"
)

type node struct {
	cost     float32
	progress float32
	finished bool
	prereqs  []string
}

// graph is a map-backed cost model that counts BaseCost lookups per node.
type graph struct {
	nodes  map[string]node
	lookup map[string]int
}

func newGraph(nodes map[string]node) *graph {
	return &graph{nodes: nodes, lookup: map[string]int{}}
}

func (g *graph) BaseCost(n string) float32 {
	g.lookup[n]++
	return g.nodes[n].cost
}
func (g *graph) Progress(n string) float32 { return g.nodes[n].progress }
func (g *graph) Finished(n string) bool    { return g.nodes[n].finished }
func (g *graph) Prereqs(n string) []string { return g.nodes[n].prereqs }

func TestRemainingTreeCostSkipsFinishedPrereqs(t *testing.T) {
	g := newGraph(map[string]node{
		"A": {cost: 100, finished: true},
		"B": {cost: 50, progress: 20, prereqs: []string{"A"}},
		"C": {cost: 80, prereqs: []string{"B"}},
	})
	if got := techtree.RemainingTreeCost[string](g, "C"); got != 110 {
		t.Fatalf("expected 110, got %v", got)
	}
}

func TestRemainingTreeCostCountsDiamondOnce(t *testing.T) {
	g := newGraph(map[string]node{
		"D": {cost: 10},
		"B": {cost: 5, prereqs: []string{"D"}},
		"C": {cost: 7, prereqs: []string{"D"}},
		"E": {cost: 3, prereqs: []string{"B", "C"}},
	})
	if got := techtree.RemainingTreeCost[string](g, "E"); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
	if g.lookup["D"] != 1 {
		t.Fatalf("expected D to be costed once, got %d", g.lookup["D"])
	}
}

func TestRemainingTreeCostWithoutPrereqs(t *testing.T) {
	g := newGraph(map[string]node{"A": {cost: 40, progress: 15}})
	if got, own := techtree.RemainingTreeCost[string](g, "A"), techtree.Remaining[string](g, "A"); got != own || got != 25 {
		t.Fatalf("expected tree cost %v to equal own remaining 25, got %v", own, got)
	}
}

func TestRemainingTreeCostPrunesAtCompletedNode(t *testing.T) {
	g := newGraph(map[string]node{
		"X": {cost: 30, finished: true, prereqs: []string{"Y"}},
		"Y": {cost: 12},
		"Z": {cost: 4, prereqs: []string{"X"}},
	})
	if got := techtree.RemainingTreeCost[string](g, "X"); got != 0 {
		t.Fatalf("expected 0 for completed node, got %v", got)
	}
	if got := techtree.RemainingTreeCost[string](g, "Z"); got != 4 {
		t.Fatalf("expected Y to be excluded behind X, got %v", got)
	}
	if g.lookup["Y"] != 0 {
		t.Fatalf("Y should never be visited")
	}
}

func TestRemainingTreeCostPrunesFullyProgressedNode(t *testing.T) {
	g := newGraph(map[string]node{
		"P": {cost: 20, progress: 20, prereqs: []string{"Q"}},
		"Q": {cost: 9},
		"R": {cost: 1, prereqs: []string{"P", "Q"}},
	})
	if got := techtree.RemainingTreeCost[string](g, "R"); got != 10 {
		t.Fatalf("expected Q to count through R only, got %v", got)
	}
}

func TestRemainingTreeCostTerminatesOnCycle(t *testing.T) {
	g := newGraph(map[string]node{
		"A": {cost: 1, prereqs: []string{"B"}},
		"B": {cost: 2, prereqs: []string{"C"}},
		"C": {cost: 4, prereqs: []string{"A"}},
	})
	if got := techtree.RemainingTreeCost[string](g, "A"); got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestRemainingTreeCostSumsInDoublePrecision(t *testing.T) {
	// 2^24 + 1 is not a float32, so adding the unit prereqs one at a time in
	// float32 would lose both of them.
	g := newGraph(map[string]node{
		"big": {cost: 1 << 24, prereqs: []string{"a", "b"}},
		"a":   {cost: 1},
		"b":   {cost: 1},
	})
	if got := techtree.RemainingTreeCost[string](g, "big"); got != 1<<24+2 {
		t.Fatalf("expected %d, got %v", 1<<24+2, got)
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name string
		in   techtree.StatusInput
		want techtree.Status
	}{
		{"everything", techtree.StatusInput{Completed: true, InProgress: true, Unlocked: true, PrereqsSatisfied: true}, techtree.Completed},
		{"active beats available", techtree.StatusInput{InProgress: true, Unlocked: true}, techtree.Active},
		{"available beats locked", techtree.StatusInput{Unlocked: true, PrereqsSatisfied: true}, techtree.Available},
		{"locked", techtree.StatusInput{PrereqsSatisfied: true}, techtree.Locked},
		{"blocked", techtree.StatusInput{}, techtree.Blocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := techtree.Classify(tt.in); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStatusOrderingAndMarshalling(t *testing.T) {
	if !(techtree.Completed > techtree.Active && techtree.Active > techtree.Available &&
		techtree.Available > techtree.Locked && techtree.Locked > techtree.Blocked) {
		t.Fatalf("status constants must sort by priority")
	}
	b, err := json.Marshal(map[string]techtree.Status{"s": techtree.Available})
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if string(b) != `{"s":"Available"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var out struct {
		S techtree.Status `yaml:"s"`
	}
	if err := yaml.Unmarshal([]byte("s: locked\n"), &out); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if out.S != techtree.Locked {
		t.Fatalf("expected Locked, got %s", out.S)
	}
	if err := yaml.Unmarshal([]byte("s: Pending\n"), &out); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestLargestContributor(t *testing.T) {
	slots := []techtree.Slot[string]{
		{Node: "lasers", Contributions: map[string]float32{"Red": 5, "Blue": 9}},
		{Node: "fusion", Contributions: map[string]float32{"Red": 3, "Blue": 3}},
		{Node: "armor", Contributions: map[string]float32{"Red": 0}},
		{Node: "shields", Contributions: map[string]float32{"Red": 50}},
	}
	tests := []struct {
		name    string
		node    string
		active  bool
		history map[string]float32
		want    string
	}{
		{"active max", "lasers", true, nil, "Blue"},
		{"tie goes to larger name", "fusion", true, nil, "Red"},
		{"all zero", "armor", true, nil, techtree.NoContributor},
		{"beyond slot limit", "shields", true, nil, techtree.NoContributor},
		{"history", "mining", false, map[string]float32{"Red": 1, "Green": 7}, "Green"},
		{"history zero", "mining", false, map[string]float32{"Red": 0, "Green": 0}, techtree.NoContributor},
		{"history negative", "mining", false, map[string]float32{"Red": -2}, techtree.NoContributor},
		{"no history", "mining", false, nil, techtree.NoContributor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := techtree.LargestContributor(tt.node, tt.active, slots, tt.history); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResearchProgress(t *testing.T) {
	g := newGraph(map[string]node{
		"A": {cost: 100, progress: 30},
		"B": {cost: 60, finished: true},
	})
	tests := []struct {
		node   string
		status techtree.Status
		want   techtree.Progress
	}{
		{"A", techtree.Active, techtree.Progress{Done: 30, Cost: 100}},
		{"A", techtree.Available, techtree.Progress{Done: 30, Cost: 100}},
		{"A", techtree.Locked, techtree.Progress{Cost: 100}},
		{"B", techtree.Completed, techtree.Progress{Done: 60, Cost: 60}},
	}
	for _, tt := range tests {
		if got := techtree.ResearchProgress[string](g, tt.node, tt.status); got != tt.want {
			t.Fatalf("%s/%s: expected %+v, got %+v", tt.node, tt.status, tt.want, got)
		}
	}
}

func TestProgressYAML(t *testing.T) {
	p := techtree.Progress{Done: 12300, Cost: 45000}
	b, err := yaml.Marshal(map[string]techtree.Progress{"progress": p})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "progress: 12.3 k/45 k\n" {
		t.Fatalf("unexpected yaml %q", b)
	}
	var back map[string]techtree.Progress
	if err := yaml.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["progress"] != p {
		t.Fatalf("expected %+v, got %+v", p, back["progress"])
	}
	if _, err := techtree.ParseProgress("12 k of 45 k"); err == nil {
		t.Fatalf("expected error for malformed progress")
	}
}
