package structure

import (
	"fmt"
	"strings"
)

// Kind is the closed set of block node kinds.
type Kind int

const (
	Sequence Kind = iota
	IfCondition
	Loop
	Method
	SwitchCase
)

func (k Kind) String() string {
	switch k {
	case IfCondition:
		return "IF_CONDITION"
	case Loop:
		return "LOOP"
	case Method:
		return "METHOD"
	case SwitchCase:
		return "SWITCH_CASE"
	default:
		return "SEQUENCE"
	}
}

// DisplayName is the human label of the kind.
func (k Kind) DisplayName() string {
	switch k {
	case IfCondition:
		return "If Condition"
	case Loop:
		return "Loop"
	case Method:
		return "Method"
	case SwitchCase:
		return "Switch Case"
	default:
		return "Sequence"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for _, candidate := range []Kind{Sequence, IfCondition, Loop, Method, SwitchCase} {
		if candidate.String() == name {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown block kind %q", string(text))
}

// Node is one reconstructed block. Line indices are 0-based and inclusive.
// Children are ordered by line and lie within [StartLine, EndLine].
type Node struct {
	Label      string  `json:"label" yaml:"label"`
	StartLine  int     `json:"startLine" yaml:"start_line"`
	EndLine    int     `json:"endLine" yaml:"end_line"`
	Kind       Kind    `json:"type" yaml:"type"`
	Children   []*Node `json:"children" yaml:"children,omitempty"`
	Code       string  `json:"code" yaml:"code"`
	Complexity int     `json:"complexity" yaml:"complexity"`
}

func (n *Node) detail() string {
	return fmt.Sprintf("%s (lines %d-%d): complexity %d", n.Label, n.StartLine+1, n.EndLine+1, n.Complexity)
}

// Walk visits n and its descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}
