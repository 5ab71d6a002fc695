package history

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ridoystarlord/automigrate/diff"
	"github.com/ridoystarlord/automigrate/schema"
)

// ErrConflict is returned when history has more than one leaf.
var ErrConflict = errors.New("conflicting migrations detected")

// Graph holds migrations and their dependency edges.
type Graph struct {
	nodes    map[string]*Migration
	children map[string][]string // migration -> migrations that depend on it
	parents  map[string][]string // migration -> its dependencies
}

// NewGraph builds the graph, failing on duplicate names, unknown
// dependencies and cycles.
func NewGraph(migrations []*Migration) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[string]*Migration),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
	for _, m := range migrations {
		if _, exists := g.nodes[m.Name]; exists {
			return nil, fmt.Errorf("duplicate migration %s", m.Name)
		}
		g.nodes[m.Name] = m
	}
	for _, m := range migrations {
		for _, dep := range m.Dependencies {
			if _, exists := g.nodes[dep]; !exists {
				return nil, fmt.Errorf("migration %s depends on unknown migration %s", m.Name, dep)
			}
			if dep == m.Name {
				return nil, fmt.Errorf("migration %s depends on itself", m.Name)
			}
			g.children[dep] = append(g.children[dep], m.Name)
			g.parents[m.Name] = append(g.parents[m.Name], dep)
		}
	}
	if cycle := g.cycle(); cycle != nil {
		return nil, fmt.Errorf("migration dependency cycle: %v", cycle)
	}
	return g, nil
}

// Len returns the number of migrations.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Migration returns a migration by name.
func (g *Graph) Migration(name string) (*Migration, bool) {
	m, ok := g.nodes[name]
	return m, ok
}

// LeafNodes returns the sorted names of migrations nothing depends on.
func (g *Graph) LeafNodes() []string {
	var leaves []string
	for name := range g.nodes {
		if len(g.children[name]) == 0 {
			leaves = append(leaves, name)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Order returns migrations with dependencies first. Ties break by name.
func (g *Graph) Order() []*Migration {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	visited := make(map[string]bool)
	var out []*Migration
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		parents := append([]string(nil), g.parents[name]...)
		sort.Strings(parents)
		for _, p := range parents {
			visit(p)
		}
		out = append(out, g.nodes[name])
	}
	for _, name := range names {
		visit(name)
	}
	return out
}

// ProjectState replays every migration in order on an empty state.
func (g *Graph) ProjectState() (*schema.ProjectState, error) {
	state := schema.NewProjectState()
	for _, m := range g.Order() {
		for i, op := range m.Operations {
			if err := op.Apply(state); err != nil {
				return nil, fmt.Errorf("migration %s operation %d: %w", m.Name, i, err)
			}
		}
	}
	return state, nil
}

func (g *Graph) cycle() []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string
	var found []string

	var dfs func(name string) bool
	dfs = func(name string) bool {
		visited[name] = true
		onStack[name] = true
		stack = append(stack, name)
		for _, child := range g.children[name] {
			if onStack[child] {
				for i, n := range stack {
					if n == child {
						found = append(append([]string(nil), stack[i:]...), child)
						break
					}
				}
				return true
			}
			if !visited[child] && dfs(child) {
				return true
			}
		}
		onStack[name] = false
		stack = stack[:len(stack)-1]
		return false
	}

	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !visited[name] && dfs(name) {
			return found
		}
	}
	return nil
}

// Arrange turns detected operations into the next migration: it follows
// the current leaf and is numbered after it. No operations means nil.
func Arrange(g *Graph, ops []*diff.Operation, now time.Time) (*Migration, error) {
	if len(ops) == 0 {
		return nil, nil
	}
	leaves := g.LeafNodes()
	switch len(leaves) {
	case 0:
		return &Migration{Name: diff.SuggestName(ops, 1, now), Operations: ops}, nil
	case 1:
		number, err := diff.MigrationNumber(leaves[0])
		if err != nil {
			return nil, err
		}
		return &Migration{
			Name:         diff.SuggestName(ops, number+1, now),
			Dependencies: []string{leaves[0]},
			Operations:   ops,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrConflict, leaves)
	}
}
