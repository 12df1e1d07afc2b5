package pipeline

import (
	"fmt"
	"sort"

	"github.com/smallnest/ragpipe"
)

// Validation is the outcome of checking a graph. Errors block admission;
// warnings do not. All problems are accumulated rather than short-circuited
// so a caller can surface every one of them at once.
type Validation struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the graph may be admitted.
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the accumulated errors into a single invalid-graph error, or
// nil when validation passed.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	msg := v.Errors[0]
	if n := len(v.Errors); n > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, n-1)
	}
	return ragpipe.Errorf(ragpipe.KindInvalidGraph, "%s", msg)
}

// Validate checks g for structural problems: emptiness, unknown kinds,
// inconsistent node IDs, dangling or duplicate edges, self-loops, cycles,
// and disconnected nodes (a warning).
func Validate(g *Graph) Validation {
	var v Validation
	if g == nil || len(g.Nodes) == 0 {
		v.Errors = append(v.Errors, "graph has no nodes")
		return v
	}

	ids := sortedNodeIDs(g)
	for _, id := range ids {
		node := g.Nodes[id]
		if id == "" {
			v.Errors = append(v.Errors, "node with empty ID")
		}
		if node.ID != "" && node.ID != id {
			v.Errors = append(v.Errors, fmt.Sprintf("node keyed %q declares ID %q", id, node.ID))
		}
		if !node.Kind.Valid() {
			v.Errors = append(v.Errors, fmt.Sprintf("node %q has unknown kind %q", id, node.Kind))
		}
	}

	seen := make(map[Edge]bool, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.Source]; !ok {
			v.Errors = append(v.Errors, fmt.Sprintf("edge %s->%s: source does not exist", e.Source, e.Target))
		}
		if _, ok := g.Nodes[e.Target]; !ok {
			v.Errors = append(v.Errors, fmt.Sprintf("edge %s->%s: target does not exist", e.Source, e.Target))
		}
		if e.Source == e.Target {
			v.Errors = append(v.Errors, fmt.Sprintf("edge %s->%s: self-loop", e.Source, e.Target))
			continue
		}
		if seen[e] {
			v.Errors = append(v.Errors, fmt.Sprintf("edge %s->%s: duplicate", e.Source, e.Target))
		}
		seen[e] = true
	}

	for _, cycle := range findCycles(g, ids) {
		v.Errors = append(v.Errors, "cycle detected: "+cycle)
	}

	if len(g.Nodes) > 1 {
		connected := make(map[string]bool, len(g.Nodes))
		for _, e := range g.Edges {
			connected[e.Source] = true
			connected[e.Target] = true
		}
		for _, id := range ids {
			if !connected[id] {
				v.Warnings = append(v.Warnings, fmt.Sprintf("node %q is orphaned (no edges)", id))
			}
		}
	}
	return v
}

// InDegrees returns the number of incoming edges per node. Every node is
// present in the result, sources included with degree zero.
func InDegrees(g *Graph) map[string]int {
	out := make(map[string]int, len(g.Nodes))
	for id := range g.Nodes {
		out[id] = 0
	}
	for _, e := range g.Edges {
		if _, ok := out[e.Target]; ok {
			out[e.Target]++
		}
	}
	return out
}

const (
	colorWhite = iota // unvisited
	colorGray         // on the current DFS path
	colorBlack        // fully explored
)

type dfsFrame struct {
	id   string
	next int
}

// findCycles runs an iterative three-color DFS from every node and reports
// one representative path per back edge found.
func findCycles(g *Graph, ids []string) []string {
	succ := g.Successors()
	for _, targets := range succ {
		sort.Strings(targets)
	}
	color := make(map[string]int, len(g.Nodes))

	var cycles []string
	for _, root := range ids {
		if color[root] != colorWhite {
			continue
		}
		stack := []dfsFrame{{id: root}}
		color[root] = colorGray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			targets := succ[top.id]
			if top.next >= len(targets) {
				color[top.id] = colorBlack
				stack = stack[:len(stack)-1]
				continue
			}
			next := targets[top.next]
			top.next++
			switch color[next] {
			case colorWhite:
				color[next] = colorGray
				stack = append(stack, dfsFrame{id: next})
			case colorGray:
				cycles = append(cycles, cyclePath(stack, next))
			}
		}
	}
	return cycles
}

// cyclePath renders the gray-stack suffix from the reentered node onward.
func cyclePath(stack []dfsFrame, reentered string) string {
	start := 0
	for i, f := range stack {
		if f.id == reentered {
			start = i
			break
		}
	}
	path := ""
	for _, f := range stack[start:] {
		path += f.id + " -> "
	}
	return path + reentered
}

func sortedNodeIDs(g *Graph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
