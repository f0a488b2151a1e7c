// Package serialization persists a built Unified Semantic Graph to JSON
// so a host application can cache one across process restarts instead of
// rerunning Build against source and relationship/stats input every time.
package serialization

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/druarnfield/mantis-core-sub000/internal/semgraph"
)

type serializedNode struct {
	ID   string            `json:"id"`
	Kind string            `json:"kind"`
	Node semgraph.Node     `json:"node"`
}

type serializedEdge struct {
	ID   string       `json:"id"`
	Kind string       `json:"kind"`
	Edge semgraph.Edge `json:"edge"`
}

type serializedGraph struct {
	Nodes []serializedNode `json:"nodes"`
	Edges []serializedEdge `json:"edges"`
}

var nodeKindNames = map[semgraph.NodeKind]string{
	semgraph.NodeEntity:   "entity",
	semgraph.NodeColumn:   "column",
	semgraph.NodeMeasure:  "measure",
	semgraph.NodeCalendar: "calendar",
}

var edgeKindNames = map[semgraph.EdgeKind]string{
	semgraph.EdgeBelongsTo:   "belongs_to",
	semgraph.EdgeReferences:  "references",
	semgraph.EdgeDerivedFrom: "derived_from",
	semgraph.EdgeDependsOn:   "depends_on",
	semgraph.EdgeJoinsTo:     "joins_to",
}

// WriteJSON encodes g to w as a flat node/edge list.
func WriteJSON(g *semgraph.Graph, w io.Writer) error {
	sg := serializedGraph{}
	for _, n := range g.Nodes() {
		sg.Nodes = append(sg.Nodes, serializedNode{ID: string(n.ID), Kind: nodeKindNames[n.Kind], Node: *n})
	}
	for _, e := range g.Edges() {
		sg.Edges = append(sg.Edges, serializedEdge{ID: string(e.ID), Kind: edgeKindNames[e.Kind], Edge: *e})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sg)
}

// ReadJSON decodes a graph previously written by WriteJSON. ast.Expr
// pointers on measure nodes round-trip through encoding/json's default
// struct marshaling since Expr carries only exported, pointer-based data.
func ReadJSON(r io.Reader) (*semgraph.Graph, error) {
	var sg serializedGraph
	if err := json.NewDecoder(r).Decode(&sg); err != nil {
		return nil, fmt.Errorf("decoding graph JSON: %w", err)
	}

	nodes := make([]*semgraph.Node, 0, len(sg.Nodes))
	for _, sn := range sg.Nodes {
		n := sn.Node
		n.ID = semgraph.NodeID(sn.ID)
		nodes = append(nodes, &n)
	}

	edges := make([]*semgraph.Edge, 0, len(sg.Edges))
	for _, se := range sg.Edges {
		e := se.Edge
		e.ID = semgraph.EdgeID(se.ID)
		edges = append(edges, &e)
	}

	return semgraph.FromParts(nodes, edges), nil
}

// SaveJSON writes a graph to a JSON file at path.
func SaveJSON(g *semgraph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}

// LoadJSON reads a graph from a JSON file at path.
func LoadJSON(path string) (*semgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
