// Package techtree computes costs, statuses and contributions over a
// prerequisite graph of technologies or projects.
package techtree

// CostModel exposes the cost facts of a prerequisite graph as seen by one observer.
// N identifies a node.
type CostModel[N comparable] interface {
	BaseCost(n N) float32
	Progress(n N) float32
	Finished(n N) bool
	Prereqs(n N) []N
}

// Remaining is the unmet cost of n alone: zero once finished, otherwise base cost
// minus progress. Progress beyond the base cost yields a negative value.
func Remaining[N comparable](m CostModel[N], n N) float32 {
	if m.Finished(n) {
		return 0
	}
	return m.BaseCost(n) - m.Progress(n)
}

// RemainingTreeCost sums the remaining cost of root and its transitive
// prerequisites, counting every node once. Traversal stops at nodes whose own
// remaining cost is zero: their prerequisites are not visited and only count if
// reached through another path. Cycles terminate because a node is expanded at
// most once.
func RemainingTreeCost[N comparable](m CostModel[N], root N) float32 {
	counted := newAccumulator[N]()
	stack := []N{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if counted.has(n) {
			continue
		}
		own := Remaining(m, n)
		if own == 0 {
			continue
		}
		counted.add(n, own)
		stack = append(stack, m.Prereqs(n)...)
	}
	return counted.total()
}

// accumulator sums the remaining cost of each node at most once, in visit order.
type accumulator[N comparable] struct {
	seen map[N]struct{}
	sum  float64
}

func newAccumulator[N comparable]() *accumulator[N] {
	return &accumulator[N]{seen: make(map[N]struct{})}
}

func (a *accumulator[N]) has(n N) bool {
	_, ok := a.seen[n]
	return ok
}

func (a *accumulator[N]) add(n N, cost float32) {
	a.seen[n] = struct{}{}
	a.sum += float64(cost)
}

func (a *accumulator[N]) total() float32 { return float32(a.sum) }

// Progress is the research done on a node out of its cost.
type Progress struct {
	Done float32 `json:"done" yaml:"done"`
	Cost float32 `json:"cost" yaml:"cost"`
}

// ResearchProgress reports the progress of n given its status. Completed nodes are
// fully done, active or available ones have done cost minus remaining, everything
// else shows no progress.
func ResearchProgress[N comparable](m CostModel[N], n N, status Status) Progress {
	cost := m.BaseCost(n)
	switch status {
	case Completed:
		return Progress{Done: cost, Cost: cost}
	case Active, Available:
		return Progress{Done: cost - Remaining(m, n), Cost: cost}
	}
	return Progress{Cost: cost}
}
