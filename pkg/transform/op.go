// Package transform turns an ordered list of scene operations into the
// single 4x4 matrix applied to every mesh position of a frame.
package transform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind selects what an Op does with its vector.
type Kind int

const (
	Rotate    Kind = iota // Single-axis rotation, angle in radians
	Translate             // Affine translation
	Scale                 // Per-axis scale
	Project               // Minimal perspective, V[2] is the distance
)

var kindNames = [...]string{"rotate", "translate", "scale", "project"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts a kind name (case-insensitive) or its number.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if s == name {
			return Kind(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Kind(n), nil
	}
	return 0, fmt.Errorf("unknown transform kind %q", s)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	kind, err := ParseKind(value.Value)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// UnmarshalJSON accepts either a number or a name.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*k = Kind(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("transform kind: %w", err)
	}
	kind, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Op is one scene operation. Ops are values and may be shared freely.
type Op struct {
	Kind Kind       `yaml:"kind" json:"kind"`
	V    [3]float64 `yaml:"v" json:"v"`
}

// NewOp builds an Op from its components.
func NewOp(kind Kind, x, y, z float64) Op {
	return Op{Kind: kind, V: [3]float64{x, y, z}}
}

func (o Op) String() string {
	return fmt.Sprintf("%s(%g, %g, %g)", o.Kind, o.V[0], o.V[1], o.V[2])
}
