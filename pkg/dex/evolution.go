package dex

import (
	"github.com/cpunion/dexbot/pkg/types"
)

// EvolutionLine returns every species in the evolution graph of ev, roots
// first, in breadth-first order. Edges are walked once each, so cyclic or
// repeated data cannot loop.
func EvolutionLine(ev types.Evolution) []string {
	children := map[string][]string{}
	hasParent := map[string]bool{}
	var order []string
	seen := map[string]bool{}
	note := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, e := range ev.Paths {
		children[e.From] = append(children[e.From], e.To)
		hasParent[e.To] = true
		note(e.From)
		note(e.To)
	}

	var queue []string
	for _, name := range order {
		if !hasParent[name] {
			queue = append(queue, name)
		}
	}
	if len(queue) == 0 && len(order) > 0 {
		queue = append(queue, order[0])
	}

	var line []string
	visited := map[string]bool{}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true
		line = append(line, name)
		queue = append(queue, children[name]...)
	}
	return line
}

// NextEvolutions returns the edges leaving name.
func NextEvolutions(ev types.Evolution, name string) []types.EvolutionEdge {
	name = types.NormalizeName(name)
	var out []types.EvolutionEdge
	for _, e := range ev.Paths {
		if e.From == name {
			out = append(out, e)
		}
	}
	return out
}
