// Package visualize exports a dag.Graph for inspection: a D3-style JSON
// document of nodes and links, and Graphviz DOT text.
//
// Both exports follow the graph's registration order, so the same graph
// always renders the same output.
package visualize
