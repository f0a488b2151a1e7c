package semgraph

import "strings"

// Graph is an adjacency-list directed multigraph keyed by qualified
// NodeID and carrying typed edges. Outgoing and incoming edges are kept
// as insertion-ordered slices rather than maps so
// that BFS over them (internal/graphquery) is deterministic: the first
// path discovered in insertion order is the one the query interface's
// contract promises to return.
type Graph struct {
	nodes map[NodeID]*Node
	edges map[EdgeID]*Edge
	out   map[NodeID][]*Edge
	in    map[NodeID][]*Edge

	entityIndex   map[string]NodeID
	columnIndex   map[string]NodeID
	measureIndex  map[string]NodeID
	calendarIndex map[string]NodeID
}

func newGraph() *Graph {
	return &Graph{
		nodes:         map[NodeID]*Node{},
		edges:         map[EdgeID]*Edge{},
		out:           map[NodeID][]*Edge{},
		in:            map[NodeID][]*Edge{},
		entityIndex:   map[string]NodeID{},
		columnIndex:   map[string]NodeID{},
		measureIndex:  map[string]NodeID{},
		calendarIndex: map[string]NodeID{},
	}
}

func (g *Graph) addNode(n *Node) {
	g.nodes[n.ID] = n
	if _, ok := g.out[n.ID]; !ok {
		g.out[n.ID] = nil
		g.in[n.ID] = nil
	}
}

func (g *Graph) addEdge(e *Edge) {
	g.edges[e.ID] = e
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
}

// Node looks up a node by its raw NodeID.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Entity resolves a logical entity name through the entity index.
func (g *Graph) Entity(name string) (*Node, bool) {
	id, ok := g.entityIndex[name]
	if !ok {
		return nil, false
	}
	return g.Node(id)
}

// Column resolves "<entity>.<column>" through the column index.
func (g *Graph) Column(qname string) (*Node, bool) {
	id, ok := g.columnIndex[qname]
	if !ok {
		return nil, false
	}
	return g.Node(id)
}

// Measure resolves "<table>.<measure>" through the measure index.
func (g *Graph) Measure(qname string) (*Node, bool) {
	id, ok := g.measureIndex[qname]
	if !ok {
		return nil, false
	}
	return g.Node(id)
}

// Calendar resolves a calendar name through the calendar index.
func (g *Graph) Calendar(name string) (*Node, bool) {
	id, ok := g.calendarIndex[name]
	if !ok {
		return nil, false
	}
	return g.Node(id)
}

// Out returns the outgoing edges of id in insertion order. The returned
// slice must not be mutated by callers.
func (g *Graph) Out(id NodeID) []*Edge { return g.out[id] }

// In returns the incoming edges of id in insertion order.
func (g *Graph) In(id NodeID) []*Edge { return g.in[id] }

// OutKind filters Out by edge kind.
func (g *Graph) OutKind(id NodeID, kind EdgeKind) []*Edge {
	var result []*Edge
	for _, e := range g.out[id] {
		if e.Kind == kind {
			result = append(result, e)
		}
	}
	return result
}

// EdgeBetween returns the first edge of the given kind from a direct
// adjacency, if any.
func (g *Graph) EdgeBetween(from, to NodeID, kind EdgeKind) (*Edge, bool) {
	for _, e := range g.out[from] {
		if e.Kind == kind && e.To == to {
			return e, true
		}
	}
	return nil, false
}

// Nodes returns every node in the graph, in unspecified order. Used by
// internal/serialization to flatten a graph for encoding.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Edges returns every edge in the graph, in unspecified order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	return out
}

// FromParts reconstructs a Graph from a flat node/edge list, rebuilding
// the per-kind qualified-name indices from each node's kind-prefixed ID.
// This is the inverse of Nodes/Edges, used to load a previously saved
// graph without rerunning Build.
func FromParts(nodes []*Node, edges []*Edge) *Graph {
	g := newGraph()
	for _, n := range nodes {
		g.addNode(n)
		switch n.Kind {
		case NodeEntity:
			g.entityIndex[strings.TrimPrefix(string(n.ID), "entity:")] = n.ID
		case NodeColumn:
			g.columnIndex[strings.TrimPrefix(string(n.ID), "column:")] = n.ID
		case NodeMeasure:
			g.measureIndex[strings.TrimPrefix(string(n.ID), "measure:")] = n.ID
		case NodeCalendar:
			g.calendarIndex[strings.TrimPrefix(string(n.ID), "calendar:")] = n.ID
		}
	}
	for _, e := range edges {
		g.addEdge(e)
	}
	return g
}
