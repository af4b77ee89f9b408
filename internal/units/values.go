package units

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Capacity is a used/available pair such as mission control "3/5".
type Capacity struct {
	Usage    uint32 `json:"usage"`
	Capacity uint32 `json:"capacity"`
}

func (c Capacity) String() string { return fmt.Sprintf("%d/%d", c.Usage, c.Capacity) }

var capacityPattern = regexp.MustCompile(`^([0-9]+)\s*/\s*([0-9]+)$`)

func ParseCapacity(text string) (Capacity, error) {
	m := capacityPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Capacity{}, formatErr("capacity", text)
	}
	use, err1 := strconv.ParseUint(m[1], 10, 32)
	limit, err2 := strconv.ParseUint(m[2], 10, 32)
	if err1 != nil || err2 != nil {
		return Capacity{}, formatErr("capacity", text)
	}
	return Capacity{Usage: uint32(use), Capacity: uint32(limit)}, nil
}

func (c Capacity) MarshalYAML() (any, error) { return c.String(), nil }

func (c *Capacity) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseCapacity(node.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Percentage holds a fraction; 0.125 renders as "12.5%".
type Percentage float32

func (p Percentage) String() string {
	return strconv.FormatFloat(float64(p)*100, 'f', 1, 32) + "%"
}

var percentPattern = regexp.MustCompile(`^([+-]?[0-9]+(?:\.[0-9]+)?)\s*%$`)

func ParsePercentage(text string) (Percentage, error) {
	m := percentPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, formatErr("percentage", text)
	}
	v, err := strconv.ParseFloat(m[1], 32)
	if err != nil {
		return 0, formatErr("percentage", text)
	}
	return Percentage(v / 100), nil
}

func (p Percentage) MarshalYAML() (any, error) { return p.String(), nil }

func (p *Percentage) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParsePercentage(node.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
