package model

import (
	"encoding/json"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// DependencyType classifies a recorded dependency.
type DependencyType string

const (
	// DependencyNormal is a plain node-to-node dependency.
	DependencyNormal DependencyType = "normal"

	// DependencySplit documents that a timeline was forked from a node.
	DependencySplit DependencyType = "split"

	// DependencyTimeline records that a node waits on whole timelines.
	DependencyTimeline DependencyType = "timeline"
)

// Dependency is cross-node or cross-timeline metadata recorded on the
// owning timeline. Only depends_on_timeline on a node affects status;
// dependencies themselves are documentation.
type Dependency struct {
	ID          string         `json:"id" yaml:"id"`
	Type        DependencyType `json:"type" yaml:"type"`
	From        IDList         `json:"from" yaml:"from"`
	To          IDList         `json:"to" yaml:"to"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
}

// Clone returns a deep copy of the dependency.
func (d Dependency) Clone() Dependency {
	c := d
	c.From = slices.Clone(d.From)
	c.To = slices.Clone(d.To)
	return c
}

// IDList is one or more ids. It is encoded as a bare string when it holds
// exactly one id and as a list otherwise, and decodes either form.
type IDList []string

// MarshalJSON implements json.Marshaler.
func (l IDList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *IDList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = IDList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("id list must be a string or list of strings: %w", err)
	}
	*l = IDList(many)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (l IDList) MarshalYAML() (interface{}, error) {
	if len(l) == 1 {
		return l[0], nil
	}
	return []string(l), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *IDList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = IDList{value.Value}
		return nil
	}
	var many []string
	if err := value.Decode(&many); err != nil {
		return err
	}
	*l = IDList(many)
	return nil
}

// Contains reports whether id is in the list.
func (l IDList) Contains(id string) bool {
	return slices.Contains(l, id)
}
