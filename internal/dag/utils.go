package dag

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// formatTraversal renders an hcl.Traversal the way it appears in grid
// source, for debug logs.
func formatTraversal(t hcl.Traversal) string {
	var sb strings.Builder
	for _, part := range t {
		switch p := part.(type) {
		case hcl.TraverseRoot:
			sb.WriteString(p.Name)
		case hcl.TraverseAttr:
			sb.WriteString("." + p.Name)
		case hcl.TraverseIndex:
			sb.WriteString("[" + formatIndexKey(p.Key) + "]")
		default:
			sb.WriteString(".?")
		}
	}
	return sb.String()
}

func formatIndexKey(key cty.Value) string {
	switch key.Type() {
	case cty.String:
		return fmt.Sprintf("%q", key.AsString())
	case cty.Number:
		return key.AsBigFloat().Text('f', -1)
	default:
		return "..."
	}
}

// detectCycles walks the dependency edges depth-first, marking nodes while
// they are on the stack; meeting a stacked node again means the graph loops.
func (g *Graph) detectCycles() error {
	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[string]int, len(g.Nodes))

	var visit func(n *Node) error
	visit = func(n *Node) error {
		state[n.ID] = inStack
		for _, dep := range n.Deps {
			switch state[dep.ID] {
			case inStack:
				return fmt.Errorf("cycle detected involving '%s'", dep.ID)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		state[n.ID] = done
		return nil
	}

	for _, n := range g.Nodes {
		if state[n.ID] == unvisited {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
