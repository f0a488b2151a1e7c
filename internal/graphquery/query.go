package graphquery

import (
	"strings"

	"github.com/druarnfield/mantis-core-sub000/internal/semgraph"
)

// Engine wraps a built graph with the read-only query surface. It holds no
// state of its own beyond the graph reference, so it is safe to share
// across goroutines as long as the underlying graph is no longer being
// built.
type Engine struct {
	g *semgraph.Graph
}

func New(g *semgraph.Graph) *Engine { return &Engine{g: g} }

func entityName(id semgraph.NodeID) string { return strings.TrimPrefix(string(id), "entity:") }
func columnName(id semgraph.NodeID) string { return strings.TrimPrefix(string(id), "column:") }

// pathFrame records, for one node reached during a path BFS, the node it
// was reached from and the edge that reached it.
type pathFrame struct {
	id   semgraph.NodeID
	edge *semgraph.Edge
}

// FindPath runs a breadth-first search over JOINS_TO edges from "from" to
// "to". Because the underlying adjacency is insertion-ordered, the walk
// below always expands a node's edges in construction order, so among
// equally short paths the first one discovered is returned, matching the
// stability guarantee.
func (e *Engine) FindPath(from, to string) (JoinPath, error) {
	fromNode, ok := e.g.Entity(from)
	if !ok {
		return JoinPath{}, entityNotFound(from)
	}
	toNode, ok := e.g.Entity(to)
	if !ok {
		return JoinPath{}, entityNotFound(to)
	}
	if fromNode.ID == toNode.ID {
		return JoinPath{}, nil
	}

	visited := map[semgraph.NodeID]bool{fromNode.ID: true}
	prev := map[semgraph.NodeID]pathFrame{}
	queue := []semgraph.NodeID{fromNode.ID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == toNode.ID {
			return reconstructPath(prev, fromNode.ID, toNode.ID), nil
		}
		for _, edge := range e.g.OutKind(cur, semgraph.EdgeJoinsTo) {
			if visited[edge.To] {
				continue
			}
			visited[edge.To] = true
			prev[edge.To] = pathFrame{id: cur, edge: edge}
			queue = append(queue, edge.To)
		}
	}
	return JoinPath{}, noPathFound(from, to)
}

func reconstructPath(prev map[semgraph.NodeID]pathFrame, from, to semgraph.NodeID) JoinPath {
	var steps []Step
	cur := to
	for cur != from {
		f := prev[cur]
		steps = append([]Step{{From: entityName(f.id), To: entityName(cur), Cardinality: f.edge.Cardinality}}, steps...)
		cur = f.id
	}
	return JoinPath{Steps: steps}
}

// ValidateSafePath finds the path between from and to, then rejects any
// step whose cardinality is OneToMany: that step would fan out rows if
// naively joined.
func (e *Engine) ValidateSafePath(from, to string) (JoinPath, error) {
	path, err := e.FindPath(from, to)
	if err != nil {
		return JoinPath{}, err
	}
	for _, s := range path.Steps {
		if s.Cardinality == semgraph.OneToMany {
			return JoinPath{}, UnsafeJoinPath{From: s.From, To: s.To, Reason: "cardinality is 1:N, join would fan out"}
		}
	}
	return path, nil
}

// InferGrain returns the entity with the largest estimated_rows among
// entities, breaking ties by the order entities was given in. An entity
// missing a row estimate sorts as zero.
func (e *Engine) InferGrain(entities []string) (string, error) {
	if len(entities) == 0 {
		return "", QueryError{Kind: "InvalidArgument", Message: "infer_grain requires at least one entity"}
	}
	best := entities[0]
	var bestRows int64
	for i, name := range entities {
		n, ok := e.g.Entity(name)
		if !ok {
			return "", entityNotFound(name)
		}
		rows := int64(0)
		if n.HasEstimatedRows {
			rows = n.EstimatedRows
		}
		if i == 0 || rows > bestRows {
			best, bestRows = name, rows
		}
	}
	return best, nil
}

// RequiredColumns walks outgoing DEPENDS_ON edges from a measure, then
// continues transitively through any DERIVED_FROM edges hanging off a
// reached column, returning the deduplicated set of columns touched.
func (e *Engine) RequiredColumns(measureQName string) ([]ColumnRef, error) {
	m, ok := e.g.Measure(measureQName)
	if !ok {
		return nil, measureNotFound(measureQName)
	}

	seen := map[semgraph.NodeID]bool{}
	var result []ColumnRef
	queue := []semgraph.NodeID{m.ID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		node, ok := e.g.Node(cur)
		if !ok {
			continue
		}
		var next []*semgraph.Edge
		switch node.Kind {
		case semgraph.NodeMeasure:
			next = e.g.OutKind(cur, semgraph.EdgeDependsOn)
		case semgraph.NodeColumn:
			next = e.g.OutKind(cur, semgraph.EdgeDerivedFrom)
		}
		for _, edge := range next {
			if seen[edge.To] {
				continue
			}
			seen[edge.To] = true
			queue = append(queue, edge.To)
			qname := columnName(edge.To)
			parts := strings.SplitN(qname, ".", 2)
			if len(parts) == 2 {
				result = append(result, ColumnRef{Entity: parts[0], Column: parts[1]})
			}
		}
	}
	return result, nil
}

// ColumnLineage walks DERIVED_FROM edges from a column, returning upstream
// sources in discovery order. Calculated slicers currently never produce
// DERIVED_FROM edges, so this returns empty for every column today; the
// traversal stays general for when that extension point is filled in.
func (e *Engine) ColumnLineage(columnQName string) ([]ColumnRef, error) {
	col, ok := e.g.Column(columnQName)
	if !ok {
		return nil, columnNotFound(columnQName)
	}

	seen := map[semgraph.NodeID]bool{col.ID: true}
	var result []ColumnRef
	queue := []semgraph.NodeID{col.ID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, edge := range e.g.OutKind(cur, semgraph.EdgeDerivedFrom) {
			if seen[edge.To] {
				continue
			}
			seen[edge.To] = true
			queue = append(queue, edge.To)
			qname := columnName(edge.To)
			parts := strings.SplitN(qname, ".", 2)
			if len(parts) == 2 {
				result = append(result, ColumnRef{Entity: parts[0], Column: parts[1]})
			}
		}
	}
	return result, nil
}

func (e *Engine) IsColumnUnique(columnQName string) (bool, error) {
	col, ok := e.g.Column(columnQName)
	if !ok {
		return false, columnNotFound(columnQName)
	}
	return col.IsUnique || col.IsPrimaryKey, nil
}

func (e *Engine) IsHighCardinality(columnQName string) (bool, error) {
	col, ok := e.g.Column(columnQName)
	if !ok {
		return false, columnNotFound(columnQName)
	}
	return col.HighCardinality, nil
}

// FindPathWithRequiredColumns composes FindPath and RequiredColumns in one
// call so a caller needing both doesn't pay for two separate index
// round-trips.
func (e *Engine) FindPathWithRequiredColumns(from, to, measureQName string) (JoinPath, []ColumnRef, error) {
	path, err := e.FindPath(from, to)
	if err != nil {
		return JoinPath{}, nil, err
	}
	cols, err := e.RequiredColumns(measureQName)
	if err != nil {
		return JoinPath{}, nil, err
	}
	return path, cols, nil
}
