package bundle

import (
	"errors"
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// Vertex kinds recorded in the "kind" attribute of import graph vertices.
const (
	KindFile    = "file"
	KindMissing = "missing"
	KindPackage = "package"
)

const kindAttribute = "kind"

// ImportGraph maps bundle-relative file paths and requirement names to the
// modules they import.
type ImportGraph = graphlib.Graph[string, string]

// Copy is one first-party file and where it lands inside the bundle.
type Copy struct {
	// Source is the absolute path of the file in the project.
	Source string `json:"source"`
	// Dest is relative to the function's bundle directory, slash-separated.
	Dest string `json:"dest"`
	// Missing is set when the module fell back to first-party but no file exists.
	Missing bool `json:"missing,omitempty"`
}

// Plan is everything needed to write one function's bundle.
type Plan struct {
	Function     string      `json:"function"`
	EntryFile    string      `json:"entry"`
	Copies       []Copy      `json:"files"`
	Requirements []string    `json:"requirements"`
	Unresolved   []string    `json:"unresolved,omitempty"`
	Graph        ImportGraph `json:"-"`
}

// EntryVertex is the graph vertex of the entry file.
func (p *Plan) EntryVertex() string {
	for _, c := range p.Copies {
		if c.Source == p.EntryFile {
			return c.Dest
		}
	}
	return ""
}

// VertexKind returns the kind attribute of a graph vertex.
func (p *Plan) VertexKind(vertex string) string {
	_, props, err := p.Graph.VertexWithProperties(vertex)
	if err != nil {
		return ""
	}
	return props.Attributes[kindAttribute]
}

// Edges returns the graph's adjacency as sorted lists.
func (p *Plan) Edges() (map[string][]string, error) {
	adjacency, err := p.Graph.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	edges := make(map[string][]string, len(adjacency))
	for source, targets := range adjacency {
		deps := make([]string, 0, len(targets))
		for target := range targets {
			deps = append(deps, target)
		}
		sort.Strings(deps)
		edges[source] = deps
	}
	return edges, nil
}

// ImportChain returns a path of imports from the entry file to vertex.
func (p *Plan) ImportChain(vertex string) ([]string, error) {
	return graphlib.ShortestPath(p.Graph, p.EntryVertex(), vertex)
}

func newImportGraph() ImportGraph {
	return graphlib.New(graphlib.StringHash, graphlib.Directed())
}

func addVertex(g ImportGraph, vertex, kind string) error {
	err := g.AddVertex(vertex, graphlib.VertexAttribute(kindAttribute, kind))
	if errors.Is(err, graphlib.ErrVertexAlreadyExists) {
		return nil
	}
	return err
}

func addEdge(g ImportGraph, from, to string) error {
	err := g.AddEdge(from, to)
	if errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
		return nil
	}
	return err
}
