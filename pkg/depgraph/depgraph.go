// Package depgraph builds a renderable graph from resolver results.
//
// # Overview
//
// Every inspected package version becomes a node identified by
// "name==version" (PEP 503-normalized name). Edges run from a package to
// the concrete versions its dependency ranges resolve to. A version that
// only ever appears as a resolution target, without an inspection of its
// own, stays in the graph as an unprobed node so gaps in the traversal
// remain visible.
//
// # Usage
//
//	g := depgraph.FromResults(doc.Result)
//	dot := depgraph.ToDOT(g, depgraph.Options{Detailed: true})
//	svg, err := depgraph.RenderSVG(dot)
package depgraph

import (
	"fmt"

	"github.com/matzehuels/solvent/pkg/requirement"
	"github.com/matzehuels/solvent/pkg/solver"
)

// Node is one package version in the graph.
type Node struct {
	// ID is "name==version" with the name normalized.
	ID string

	// Name is the package name as first encountered.
	Name string

	// Version is the concrete version.
	Version string

	// Index is the index the package was installed from. Empty for
	// unprobed nodes.
	Index string

	// Probed reports whether the version was actually inspected.
	Probed bool
}

// Edge is one dependency link between two nodes.
type Edge struct {
	From string
	To   string
}

// Graph is a deduplicated dependency graph over all passes of a run.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	edgeSeen map[Edge]bool
}

// FromResults merges the trees of all passes into one graph. Probed nodes
// win over unprobed ones when the same version appears both ways.
func FromResults(results []solver.PassResult) *Graph {
	g := &Graph{
		nodes:    make(map[string]*Node),
		edgeSeen: make(map[Edge]bool),
	}

	for _, result := range results {
		for _, entry := range result.Tree {
			from := g.addProbed(entry)
			for _, dep := range entry.Dependencies {
				for _, resolved := range dep.ResolvedVersions {
					for _, version := range resolved.Versions {
						to := g.addResolved(dep.Name, version)
						g.addEdge(from, to)
					}
				}
			}
		}
	}

	return g
}

// Nodes returns the graph's nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns the deduplicated edges in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

func nodeID(name, version string) string {
	return fmt.Sprintf("%s==%s", requirement.NormalizeName(name), version)
}

func (g *Graph) addProbed(entry solver.DependencyEntry) string {
	id := nodeID(entry.Name, entry.Version)
	if node, ok := g.nodes[id]; ok {
		if !node.Probed {
			node.Probed = true
			node.Index = entry.IndexURL
		}
		return id
	}

	g.nodes[id] = &Node{
		ID:      id,
		Name:    entry.Name,
		Version: entry.Version,
		Index:   entry.IndexURL,
		Probed:  true,
	}
	g.order = append(g.order, id)
	return id
}

func (g *Graph) addResolved(name, version string) string {
	id := nodeID(name, version)
	if _, ok := g.nodes[id]; ok {
		return id
	}

	g.nodes[id] = &Node{
		ID:      id,
		Name:    name,
		Version: version,
	}
	g.order = append(g.order, id)
	return id
}

func (g *Graph) addEdge(from, to string) {
	edge := Edge{From: from, To: to}
	if g.edgeSeen[edge] {
		return
	}
	g.edgeSeen[edge] = true
	g.edges = append(g.edges, edge)
}
