package jsondoc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ilikebug/VeloxClip-sub001/internal/errors"
)

// NodeKind classifies a tree node.
type NodeKind int

const (
	NodeObject NodeKind = iota
	NodeArray
	NodeString
	NodeNumber
	NodeBool
	NodeNull
)

// Node is one element of the expandable tree projection. Containers
// (objects, arrays) carry children and an expand state; leaves carry
// their rendered value. The tree is read-only apart from expansion.
type Node struct {
	Key      string // object key or array index label, empty at the root
	Kind     NodeKind
	Value    string // leaf text, empty for containers
	Children []*Node
	Expanded bool
}

// NewTree builds the tree projection from a validated result. Invalid
// results produce an error, never a partial tree.
func NewTree(res Result) (*Node, error) {
	if !res.Valid {
		return nil, errors.NewInvalidRequest("document is not valid structured data: " + res.Err)
	}
	return buildNode("", res.value), nil
}

func buildNode(key string, value any) *Node {
	switch v := value.(type) {
	case map[string]any:
		n := &Node{Key: key, Kind: NodeObject}
		for _, k := range sortedKeys(v) {
			n.Children = append(n.Children, buildNode(k, v[k]))
		}
		return n
	case []any:
		n := &Node{Key: key, Kind: NodeArray}
		for i, elem := range v {
			n.Children = append(n.Children, buildNode(fmt.Sprintf("%d", i), elem))
		}
		return n
	case string:
		var b bytes.Buffer
		writeString(&b, v)
		return &Node{Key: key, Kind: NodeString, Value: b.String()}
	case json.Number:
		return &Node{Key: key, Kind: NodeNumber, Value: v.String()}
	case bool:
		if v {
			return &Node{Key: key, Kind: NodeBool, Value: "true"}
		}
		return &Node{Key: key, Kind: NodeBool, Value: "false"}
	default:
		return &Node{Key: key, Kind: NodeNull, Value: "null"}
	}
}

// Container reports whether the node has expandable children.
func (n *Node) Container() bool {
	return n.Kind == NodeObject || n.Kind == NodeArray
}

// Toggle flips a container's expand state; leaves ignore it.
func (n *Node) Toggle() {
	if n.Container() {
		n.Expanded = !n.Expanded
	}
}

// ExpandAll opens the node and every container beneath it.
func (n *Node) ExpandAll() {
	if !n.Container() {
		return
	}
	n.Expanded = true
	for _, c := range n.Children {
		c.ExpandAll()
	}
}

// Label renders the node's display text. Collapsed containers show an
// element count summary in place of children.
func (n *Node) Label() string {
	prefix := ""
	if n.Key != "" {
		prefix = n.Key + ": "
	}
	switch {
	case !n.Container():
		return prefix + n.Value
	case n.Kind == NodeObject && n.Expanded:
		return prefix + "{"
	case n.Kind == NodeArray && n.Expanded:
		return prefix + "["
	case n.Kind == NodeObject:
		return prefix + fmt.Sprintf("{… %d %s}", len(n.Children), plural(len(n.Children)))
	default:
		return prefix + fmt.Sprintf("[… %d %s]", len(n.Children), plural(len(n.Children)))
	}
}

func plural(n int) string {
	if n == 1 {
		return "item"
	}
	return "items"
}

// Row is one visible line of the flattened tree.
type Row struct {
	Depth int
	Node  *Node
}

// Flatten walks the tree in display order, descending only into
// expanded containers.
func Flatten(root *Node) []Row {
	var rows []Row
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		rows = append(rows, Row{Depth: depth, Node: n})
		if n.Container() && n.Expanded {
			for _, c := range n.Children {
				walk(c, depth+1)
			}
		}
	}
	walk(root, 0)
	return rows
}
