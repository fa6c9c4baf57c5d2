package visualize

import (
	"encoding/json"
	"io"

	"github.com/kbukum/flowpipe/dag"
)

// Document is the D3 force-layout representation of a graph.
type Document struct {
	Nodes []NodeDoc `json:"nodes"`
	Links []Link    `json:"links"`
}

// NodeDoc is a single graph node.
type NodeDoc struct {
	ID string `json:"id"`
}

// Link points from a dependency to the node that consumes it.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Export builds the document for g.
func Export(g *dag.Graph) Document {
	doc := Document{
		Nodes: []NodeDoc{},
		Links: []Link{},
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeDoc{ID: n.Name()})
	}
	for _, e := range g.Edges() {
		doc.Links = append(doc.Links, Link{Source: e.From, Target: e.To})
	}
	return doc
}

// WriteJSON writes the document for g, indented by two spaces.
func WriteJSON(w io.Writer, g *dag.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export(g))
}
