package resolver

import (
	"fmt"
)

// DependencyGraph is a directed graph of string nodes. Nodes and edges are
// kept in insertion order so cycle reports and sort order are stable.
type DependencyGraph struct {
	// adjacency list: node -> nodes it depends on
	dependencies map[string][]string
	// reverse lookup: node -> nodes that depend on it
	dependents map[string][]string
	nodes      []string
	known      map[string]bool
}

// NewDependencyGraph creates an empty graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		dependencies: make(map[string][]string),
		dependents:   make(map[string][]string),
		known:        make(map[string]bool),
	}
}

// AddNode registers a node with no edges
func (g *DependencyGraph) AddNode(name string) {
	if g.known[name] {
		return
	}
	g.known[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that from depends on to. Duplicate edges are ignored.
func (g *DependencyGraph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	for _, dep := range g.dependencies[from] {
		if dep == to {
			return
		}
	}
	g.dependencies[from] = append(g.dependencies[from], to)
	g.dependents[to] = append(g.dependents[to], from)
}

// Nodes returns every node in insertion order
func (g *DependencyGraph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// GetDependents returns the nodes that depend on the given node
func (g *DependencyGraph) GetDependents(name string) []string {
	if deps, ok := g.dependents[name]; ok {
		return deps
	}
	return []string{}
}

// FindCycle returns the cycle path if one exists, or nil if no cycle.
// The path starts and ends with the same node.
func (g *DependencyGraph) FindCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, node := range g.nodes {
		if cycle := g.findCycleDFS(node, visited, recStack, nil); cycle != nil {
			return cycle
		}
	}

	return nil
}

// findCycleDFS finds a cycle and returns the path
func (g *DependencyGraph) findCycleDFS(node string, visited, recStack map[string]bool, path []string) []string {
	if recStack[node] {
		// node was appended to path when it entered recStack
		cycleStart := -1
		for i, n := range path {
			if n == node {
				cycleStart = i
				break
			}
		}
		if cycleStart == -1 {
			panic(fmt.Sprintf("cycle detection invariant violated: node %q in recStack but not in path %v", node, path))
		}
		cycle := append([]string(nil), path[cycleStart:]...)
		return append(cycle, node)
	}
	if visited[node] {
		return nil
	}

	visited[node] = true
	recStack[node] = true
	path = append(path, node)

	for _, dep := range g.dependencies[node] {
		if cycle := g.findCycleDFS(dep, visited, recStack, path); cycle != nil {
			return cycle
		}
	}

	recStack[node] = false
	return nil
}

// ErrCycle is returned by TopologicalSort with the offending path
type ErrCycle struct {
	Cycle []string
}

func (e *ErrCycle) Error() string {
	return fmt.Sprintf("dependency cycle: %v", e.Cycle)
}

// TopologicalSort returns nodes in dependency order (dependencies first)
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, &ErrCycle{Cycle: cycle}
	}

	visited := make(map[string]bool)
	result := make([]string, 0, len(g.nodes))

	for _, node := range g.nodes {
		if !visited[node] {
			g.topologicalSortDFS(node, visited, &result)
		}
	}

	return result, nil
}

// topologicalSortDFS pushes a node after all of its dependencies
func (g *DependencyGraph) topologicalSortDFS(node string, visited map[string]bool, stack *[]string) {
	visited[node] = true

	for _, dep := range g.dependencies[node] {
		if !visited[dep] {
			g.topologicalSortDFS(dep, visited, stack)
		}
	}

	*stack = append(*stack, node)
}
