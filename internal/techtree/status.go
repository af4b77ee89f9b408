package techtree

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type Status int

const (
	Blocked Status = iota
	Locked
	Available
	Active
	Completed
)

var statusNames = []string{"Blocked", "Locked", "Available", "Active", "Completed"}

// StatusInput carries the externally supplied predicates for one node.
type StatusInput struct {
	Completed        bool
	InProgress       bool
	Unlocked         bool
	PrereqsSatisfied bool
}

// Classify picks the first matching status in priority order:
// Completed, Active, Available, Locked, Blocked.
func Classify(in StatusInput) Status {
	switch {
	case in.Completed:
		return Completed
	case in.InProgress:
		return Active
	case in.Unlocked:
		return Available
	case in.PrereqsSatisfied:
		return Locked
	}
	return Blocked
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

func ParseStatus(text string) (Status, error) {
	for i, name := range statusNames {
		if strings.EqualFold(name, text) {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", text)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Status) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s *Status) UnmarshalYAML(node *yaml.Node) error {
	return s.UnmarshalText([]byte(node.Value))
}
