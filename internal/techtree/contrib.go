package techtree

// ResearchSlots is how many research projects may progress at once.
const ResearchSlots = 3

// NoContributor is reported when nobody has contributed anything.
const NoContributor = "none"

// Slot is one concurrently progressing research slot.
type Slot[N comparable] struct {
	Node          N
	Contributions map[string]float32
}

// LargestContributor names the contributor with the largest contribution to node.
// Active nodes are looked up in the first ResearchSlots slots; other nodes in the
// historical contributions. The best amount must be positive, otherwise
// NoContributor is returned. Equal amounts go to the lexically larger name.
func LargestContributor[N comparable](node N, active bool, slots []Slot[N], history map[string]float32) string {
	if !active {
		return largest(history)
	}
	for i, slot := range slots {
		if i == ResearchSlots {
			break
		}
		if slot.Node == node {
			return largest(slot.Contributions)
		}
	}
	return NoContributor
}

func largest(contributions map[string]float32) string {
	best, bestName := float32(0), ""
	found := false
	for name, amount := range contributions {
		if !found || amount > best || (amount == best && name > bestName) {
			best, bestName, found = amount, name, true
		}
	}
	if !found || best <= 0 {
		return NoContributor
	}
	return bestName
}
