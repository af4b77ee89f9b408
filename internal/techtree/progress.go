package techtree

import (
	"strings"

	"gopkg.in/yaml.v3"

	"tirep/internal/units"
)

// String renders progress with SI prefixes: "12.3 k/45 k".
func (p Progress) String() string {
	return units.FormatSI(float64(p.Done)) + "/" + units.FormatSI(float64(p.Cost))
}

func ParseProgress(text string) (Progress, error) {
	done, cost, ok := strings.Cut(text, "/")
	if !ok {
		return Progress{}, &units.FormatError{What: "research progress", Text: text}
	}
	d, err := units.ParseSI(done)
	if err != nil {
		return Progress{}, err
	}
	c, err := units.ParseSI(cost)
	if err != nil {
		return Progress{}, err
	}
	return Progress{Done: float32(d), Cost: float32(c)}, nil
}

func (p Progress) MarshalYAML() (any, error) { return p.String(), nil }

func (p *Progress) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseProgress(node.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
