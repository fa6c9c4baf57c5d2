package visualize

import (
	"io"

	"github.com/emicklei/dot"

	"github.com/kbukum/flowpipe/dag"
)

// DOT renders g as a left-to-right Graphviz digraph with one box per node
// and an edge from each dependency to its dependent.
func DOT(g *dag.Graph) string {
	return build(g).String()
}

// WriteDOT writes the DOT rendering of g to w.
func WriteDOT(w io.Writer, g *dag.Graph) error {
	_, err := io.WriteString(w, DOT(g))
	return err
}

func build(g *dag.Graph) *dot.Graph {
	out := dot.NewGraph(dot.Directed)
	out.Attr("rankdir", "LR")

	nodes := make(map[string]dot.Node, g.Len())
	node := func(name string) dot.Node {
		if n, ok := nodes[name]; ok {
			return n
		}
		n := out.Node(name).Attr("shape", "box")
		nodes[name] = n
		return n
	}

	for _, n := range g.Nodes() {
		node(n.Name())
	}
	// Dependencies that were never registered still get a node so the
	// rendering shows what is missing.
	for _, e := range g.Edges() {
		out.Edge(node(e.From), node(e.To))
	}
	return out
}
