package dag

import (
	"fmt"
	"sync"
)

// Edge is a dependency relation: To consumes the result of From.
type Edge struct {
	From string
	To   string
}

// Graph is a registry of TaskNodes keyed by unique name. Registration order
// is kept and drives every traversal, so orderings and exports are
// deterministic for a given sequence of AddNode calls.
//
// A Graph is built once and then read; it is safe to order, export and run
// it from several goroutines once construction is finished.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*TaskNode
	order []string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*TaskNode)}
}

// AddNode registers a computation under name. Dependencies are not required
// to exist yet; they are checked when the graph is ordered or run.
//
// It fails without modifying the graph when name is empty or already taken,
// when compute is the zero Compute, or when a fixed-arity computation does
// not take exactly one input per dependency.
func (g *Graph) AddNode(name string, compute Compute, deps ...string) error {
	if name == "" {
		return errInvalidNode(name, "name", "node name must not be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[name]; exists {
		return errDuplicateName(name)
	}
	if compute.IsZero() {
		return errInvalidNode(name, "compute", fmt.Sprintf("node %q has no computation", name))
	}
	for _, dep := range deps {
		if dep == "" {
			return errInvalidNode(name, "dependencies", fmt.Sprintf("node %q declares an empty dependency name", name))
		}
	}
	if a := compute.Arity(); a != variadic && a != len(deps) {
		return errInvalidNode(name, "compute",
			fmt.Sprintf("node %q computation takes %d inputs but declares %d dependencies", name, a, len(deps))).
			WithDetail("arity", a).
			WithDetail("dependencies", len(deps))
	}

	g.nodes[name] = &TaskNode{
		name:    name,
		deps:    append([]string(nil), deps...),
		compute: compute,
	}
	g.order = append(g.order, name)
	return nil
}

// Node returns the node registered under name.
func (g *Graph) Node(name string) (*TaskNode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[name]
	if !ok {
		return nil, errNodeNotFound(name)
	}
	return n, nil
}

// Nodes returns every node in registration order.
func (g *Graph) Nodes() []*TaskNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*TaskNode, len(g.order))
	for i, name := range g.order {
		out[i] = g.nodes[name]
	}
	return out
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// Edges returns one edge per declared dependency, ordered by the dependent's
// registration and then by declaration.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var edges []Edge
	for _, name := range g.order {
		for _, dep := range g.nodes[name].deps {
			edges = append(edges, Edge{From: dep, To: name})
		}
	}
	return edges
}

const (
	unvisited = iota
	inProgress
	visited
)

// TopologicalOrder returns every node such that each appears after all of
// its dependencies. Nodes are visited depth-first in registration order and
// appended once all their dependencies are placed, so shared dependencies
// appear once and repeated calls return the same order.
//
// It fails with a NOT_FOUND error for a dependency that names no node and a
// CYCLE_DETECTED error naming the node at which the cycle closed.
func (g *Graph) TopologicalOrder() ([]*TaskNode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	marks := make(map[string]int, len(g.nodes))
	order := make([]*TaskNode, 0, len(g.nodes))

	var visit func(n *TaskNode) error
	visit = func(n *TaskNode) error {
		switch marks[n.name] {
		case visited:
			return nil
		case inProgress:
			return errCycle(n.name)
		}
		marks[n.name] = inProgress
		for _, dep := range n.deps {
			d, ok := g.nodes[dep]
			if !ok {
				return errMissingDependency(n.name, dep)
			}
			if err := visit(d); err != nil {
				return err
			}
		}
		marks[n.name] = visited
		order = append(order, n)
		return nil
	}

	for _, name := range g.order {
		if err := visit(g.nodes[name]); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Levels groups node names into dependency levels: level 0 holds nodes
// without dependencies and every other node sits one level past its deepest
// dependency. Nodes of a level never depend on each other and keep
// registration order. Errors are those of TopologicalOrder.
func (g *Graph) Levels() ([][]string, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	depth := make(map[string]int, len(order))
	maxDepth := -1
	for _, n := range order {
		d := 0
		for _, dep := range n.deps {
			if depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		depth[n.name] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	levels := make([][]string, maxDepth+1)
	for _, n := range g.Nodes() {
		d := depth[n.name]
		levels[d] = append(levels[d], n.name)
	}
	return levels, nil
}
