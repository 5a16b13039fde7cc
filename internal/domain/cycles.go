package domain

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"refmove.dev/pkg/refmove/internal/adapter"
	m "refmove.dev/pkg/refmove/internal/model"
)

// Cycle is a closed import chain; the first path is repeated at the end.
type Cycle []m.Path

func (c Cycle) String() string {
	parts := make([]string, 0, len(c))
	for _, p := range c {
		parts = append(parts, string(p))
	}

	return strings.Join(parts, " -> ")
}

// FindCycles searches the import graph of the loaded files for the shortest
// cycle through each seed. Only edges between loaded files are followed, so
// the answer is exact for the scope and silent about the rest of the tree.
func FindCycles(ctx context.Context, project adapter.Project, seeds []m.Path) []Cycle {
	files := project.Files()
	loaded := make(map[m.Path]struct{}, len(files))

	for _, f := range files {
		loaded[f] = struct{}{}
	}

	graph := make(map[m.Path][]m.Path, len(files))

	for _, f := range files {
		targets, err := project.Imports(ctx, f)
		if err != nil {
			slog.Debug("Cannot list imports", "path", f, "error", err)
			continue
		}

		for _, t := range targets {
			if _, ok := loaded[t]; ok {
				graph[f] = append(graph[f], t)
			}
		}
	}

	var (
		cycles []Cycle
		seen   = make(map[string]struct{})
	)

	for _, seed := range seeds {
		cycle := shortestCycle(graph, seed)
		if cycle == nil {
			continue
		}

		key := canonicalKey(cycle)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		cycles = append(cycles, cycle)
	}

	return cycles
}

// shortestCycle runs a breadth-first search from start back to start.
func shortestCycle(graph map[m.Path][]m.Path, start m.Path) Cycle {
	parent := map[m.Path]m.Path{}
	queue := []m.Path{start}
	visited := map[m.Path]bool{start: true}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, next := range graph[node] {
			if next == start {
				cycle := Cycle{start}
				for n := node; n != start; n = parent[n] {
					cycle = append(cycle, n)
				}

				slices.Reverse(cycle[1:])

				return append(cycle, start)
			}

			if visited[next] {
				continue
			}

			visited[next] = true
			parent[next] = node
			queue = append(queue, next)
		}
	}

	return nil
}

// canonicalKey identifies a cycle regardless of where it starts.
func canonicalKey(c Cycle) string {
	nodes := c[:len(c)-1]
	minIdx := 0

	for i, n := range nodes {
		if n < nodes[minIdx] {
			minIdx = i
		}
	}

	rotated := append(slices.Clone(nodes[minIdx:]), nodes[:minIdx]...)

	return Cycle(rotated).String()
}
