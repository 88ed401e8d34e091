// Package familytree turns a breeding family tree into the node layout used by
// the tree visualization.
package familytree

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Value is a node attribute that generators emit either as a string or a number
type Value string

// UnmarshalJSON accepts strings, numbers and null
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "attribute must be a string or a number")
	}
	*v = Value(n.String())
	return nil
}

// Node is one animal of the generated family tree
type Node struct {
	Name       string  `json:"name"`
	Born       Value   `json:"born"`
	MilkStarts Value   `json:"milkStarts"`
	Children   []*Node `json:"children,omitempty"`
}

// Attributes is the metadata shown next to a node
type Attributes struct {
	Born          Value `json:"born"`
	MilkStarts    Value `json:"milkStarts"`
	TotalChildren int   `json:"totalChildren"`
}

// DisplayNode is a node in the layout the tree renderer consumes
type DisplayNode struct {
	Name       string         `json:"name"`
	Attributes Attributes     `json:"attributes"`
	Children   []*DisplayNode `json:"children"`
}

// Convert maps n and its descendants to display nodes. The input is assumed to
// be acyclic. A nil node converts to nil.
func Convert(n *Node) *DisplayNode {
	if n == nil {
		return nil
	}

	out := &DisplayNode{
		Name: n.Name,
		Attributes: Attributes{
			Born:          n.Born,
			MilkStarts:    n.MilkStarts,
			TotalChildren: len(n.Children),
		},
		Children: make([]*DisplayNode, 0, len(n.Children)),
	}
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		out.Children = append(out.Children, Convert(c))
	}
	out.Attributes.TotalChildren = len(out.Children)
	return out
}

// Size returns the number of nodes in the tree rooted at n
func Size(n *DisplayNode) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += Size(c)
	}
	return total
}

// Depth returns the number of generations in the tree rooted at n
func Depth(n *DisplayNode) int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range n.Children {
		if d := Depth(c); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Decode reads a root node from r
func Decode(r io.Reader) (*Node, error) {
	var root Node
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, errors.Wrap(err, "failed to decode family tree")
	}
	return &root, nil
}

// LoadFile reads a root node from a JSON file
func LoadFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open family tree %s", path)
	}
	defer f.Close()
	return Decode(f)
}
