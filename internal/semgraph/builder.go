package semgraph

import (
	"fmt"

	"github.com/druarnfield/mantis-core-sub000/internal/ast"
	"github.com/druarnfield/mantis-core-sub000/internal/model"
	"github.com/druarnfield/mantis-core-sub000/internal/validate"
)

func entityID(name string) NodeID    { return NodeID("entity:" + name) }
func columnID(qname string) NodeID   { return NodeID("column:" + qname) }
func measureID(qname string) NodeID  { return NodeID("measure:" + qname) }
func calendarID(name string) NodeID  { return NodeID("calendar:" + name) }

// Build constructs a Graph from a validated model plus externally
// inferred relationships and column statistics, per the two-phase
// construction contract: every node first, then every edge, so that
// phase 2 can always resolve an endpoint added in phase 1. Unlike
// parsing and validation, build errors are fatal: build is the first
// stage downstream of a pass that has already accumulated and reported
// its own errors, so there is nothing left to recover into.
func Build(m *model.Model, relationships []Relationship, stats map[ColumnKey]ColumnStats) (*Graph, error) {
	g := newGraph()

	if err := addEntities(g, m); err != nil {
		return nil, err
	}
	if err := addColumns(g, m, stats); err != nil {
		return nil, err
	}
	sizeEntities(g, stats)
	if err := addMeasures(g, m); err != nil {
		return nil, err
	}
	if err := addCalendars(g, m); err != nil {
		return nil, err
	}

	if err := addReferences(g, relationships); err != nil {
		return nil, err
	}
	addJoinsTo(g)
	if err := addDependsOn(g, m); err != nil {
		return nil, err
	}

	return g, nil
}

func addEntities(g *Graph, m *model.Model) error {
	for name, t := range m.Tables {
		if _, dup := g.entityIndex[name]; dup {
			return duplicateEntity(name)
		}
		id := entityID(name)
		g.addNode(&Node{ID: id, Kind: NodeEntity, PhysicalName: t.Source})
		g.entityIndex[name] = id
	}
	for name, d := range m.Dimensions {
		if _, dup := g.entityIndex[name]; dup {
			return duplicateEntity(name)
		}
		id := entityID(name)
		g.addNode(&Node{ID: id, Kind: NodeEntity, PhysicalName: d.Source})
		g.entityIndex[name] = id
	}
	return nil
}

func addColumns(g *Graph, m *model.Model, stats map[ColumnKey]ColumnStats) error {
	addColumn := func(entity, col string, dt ast.DataType, isPK bool) error {
		qname := entity + "." + col
		if _, dup := g.columnIndex[qname]; dup {
			return duplicateColumn(qname)
		}
		id := columnID(qname)
		n := &Node{ID: id, Kind: NodeColumn, OwnerEntity: entityID(entity), DataType: dt, IsPrimaryKey: isPK}
		if st, ok := stats[ColumnKey{Table: entity, Column: col}]; ok {
			n.IsUnique = st.IsUnique
			n.HighCardinality = st.TotalCount > 0 && float64(st.DistinctCount)/float64(st.TotalCount) > 0.8
			n.Nullable = st.NullCount > 0
		}
		g.addNode(n)
		g.columnIndex[qname] = id
		g.addEdge(&Edge{ID: EdgeID("belongs_to:" + qname), From: id, To: entityID(entity), Kind: EdgeBelongsTo})
		return nil
	}

	for tname, t := range m.Tables {
		for atom, dt := range t.Atoms {
			if err := addColumn(tname, atom, dt, false); err != nil {
				return err
			}
		}
		for sname, s := range t.Slicers {
			if s.Kind == ast.SlicerVia {
				continue
			}
			if err := addColumn(tname, sname, s.DataType, false); err != nil {
				return err
			}
		}
	}
	for dname, d := range m.Dimensions {
		if err := addColumn(dname, d.Key, ast.TypeString, true); err != nil {
			return err
		}
		for attr, dt := range d.Attributes {
			if err := addColumn(dname, attr, dt, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// sizeEntities picks any stat-bearing column belonging to each entity as
// its representative and copies total_count into estimated_rows.
func sizeEntities(g *Graph, stats map[ColumnKey]ColumnStats) {
	for entityName, id := range g.entityIndex {
		for key, st := range stats {
			if key.Table != entityName {
				continue
			}
			n := g.nodes[id]
			n.EstimatedRows, n.HasEstimatedRows = st.TotalCount, true
			n.SizeCategory = SizeCategoryOf(st.TotalCount)
			break
		}
	}
}

func aggregationLabel(e *ast.Expr) string {
	if e != nil && e.Kind == ast.ExprFunction && e.FuncKind == ast.FuncAggregate {
		return e.FuncName
	}
	return "CUSTOM"
}

func addMeasures(g *Graph, m *model.Model) error {
	for tname, measures := range m.Measures {
		for _, name := range m.MeasureOrder[tname] {
			meas := measures[name]
			qname := tname + "." + name
			if _, dup := g.measureIndex[qname]; dup {
				return duplicateMeasure(qname)
			}
			id := measureID(qname)
			g.addNode(&Node{ID: id, Kind: NodeMeasure, Aggregation: aggregationLabel(meas.Expr), Expr: meas.Expr})
			g.measureIndex[qname] = id
		}
	}
	return nil
}

func addCalendars(g *Graph, m *model.Model) error {
	for name, c := range m.Calendars {
		if _, dup := g.calendarIndex[name]; dup {
			return duplicateCalendar(name)
		}
		id := calendarID(name)
		g.addNode(&Node{ID: id, Kind: NodeCalendar, Grains: validate.SupportedGrains(c)})
		g.calendarIndex[name] = id
	}
	return nil
}

func addReferences(g *Graph, relationships []Relationship) error {
	for i, r := range relationships {
		fromQ := r.FromTable + "." + r.FromColumn
		toQ := r.ToTable + "." + r.ToColumn
		fromID, ok := g.columnIndex[fromQ]
		if !ok {
			return invalidReference(fmt.Sprintf("relationship %d: unknown column %q", i, fromQ))
		}
		toID, ok := g.columnIndex[toQ]
		if !ok {
			return invalidReference(fmt.Sprintf("relationship %d: unknown column %q", i, toQ))
		}
		g.addEdge(&Edge{
			ID:             EdgeID(fmt.Sprintf("references:%d:%s->%s", i, fromQ, toQ)),
			From:           fromID,
			To:             toID,
			Kind:           EdgeReferences,
			Cardinality:    r.Cardinality,
			Selectivity:    r.Selectivity,
			HasSelectivity: r.HasSelectivity,
			Enforced:       r.Source == SourceForeignKey,
			Confidence:     r.Confidence,
			Source:         r.Source,
		})
	}
	return nil
}

// addJoinsTo groups REFERENCES edges by (from entity, to entity) and adds
// one aggregated edge per pair, carrying the highest-confidence member's
// cardinality, selectivity, confidence, and representative column pair.
func addJoinsTo(g *Graph) {
	type pairKey struct{ from, to NodeID }
	best := map[pairKey]*Edge{}
	order := []pairKey{}

	for _, e := range g.edges {
		if e.Kind != EdgeReferences {
			continue
		}
		fromCol, ok1 := g.nodes[e.From]
		toCol, ok2 := g.nodes[e.To]
		if !ok1 || !ok2 {
			continue
		}
		key := pairKey{from: fromCol.OwnerEntity, to: toCol.OwnerEntity}
		if _, seen := best[key]; !seen {
			order = append(order, key)
		}
		if cur, ok := best[key]; !ok || e.Confidence > cur.Confidence {
			best[key] = e
		}
	}

	for _, key := range order {
		rep := best[key]
		g.addEdge(&Edge{
			ID:             EdgeID(fmt.Sprintf("joins_to:%s->%s", key.from, key.to)),
			From:           key.from,
			To:             key.to,
			Kind:           EdgeJoinsTo,
			Cardinality:    rep.Cardinality,
			Selectivity:    rep.Selectivity,
			HasSelectivity: rep.HasSelectivity,
			Confidence:     rep.Confidence,
			Source:         rep.Source,
			RepFromColumn:  rep.From,
			RepToColumn:    rep.To,
		})
	}
}

// addDependsOn adds a Measure -> Column edge for every atom a measure's
// expression or filter references. Validation already guarantees every
// atom_ref resolves to an atom of the owning table, so a miss here would
// indicate a validator bug rather than a user error; it is still surfaced
// as InvalidReference rather than panicking.
func addDependsOn(g *Graph, m *model.Model) error {
	for tname, measures := range m.Measures {
		for _, name := range m.MeasureOrder[tname] {
			meas := measures[name]
			mid := measureID(tname + "." + name)
			seen := map[string]bool{}
			addRefs := func(e *ast.Expr) error {
				if e == nil {
					return nil
				}
				for _, atom := range e.AtomRefs() {
					qname := tname + "." + atom
					if seen[qname] {
						continue
					}
					seen[qname] = true
					colID, ok := g.columnIndex[qname]
					if !ok {
						return invalidReference(fmt.Sprintf("measure %s.%s depends on unresolved column %q", tname, name, qname))
					}
					g.addEdge(&Edge{ID: EdgeID(fmt.Sprintf("depends_on:%s.%s->%s", tname, name, qname)), From: mid, To: colID, Kind: EdgeDependsOn})
				}
				return nil
			}
			if err := addRefs(meas.Expr); err != nil {
				return err
			}
			if err := addRefs(meas.Filter); err != nil {
				return err
			}
		}
	}
	return nil
}
