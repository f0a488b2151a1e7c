package serialization

import (
	"bytes"
	"testing"

	"github.com/druarnfield/mantis-core-sub000/internal/semgraph"
)

func smallGraph() *semgraph.Graph {
	return semgraph.FromParts(
		[]*semgraph.Node{
			{ID: "entity:sales", Kind: semgraph.NodeEntity, PhysicalName: "fact_sales", HasEstimatedRows: true, EstimatedRows: 5_000_000, SizeCategory: semgraph.SizeLarge},
			{ID: "entity:customers", Kind: semgraph.NodeEntity, PhysicalName: "dim_customers", HasEstimatedRows: true, EstimatedRows: 50_000, SizeCategory: semgraph.SizeSmall},
			{ID: "column:sales.customer_id", Kind: semgraph.NodeColumn, OwnerEntity: "entity:sales"},
			{ID: "column:customers.id", Kind: semgraph.NodeColumn, OwnerEntity: "entity:customers", IsPrimaryKey: true, IsUnique: true},
			{ID: "measure:sales.total_revenue", Kind: semgraph.NodeMeasure, Aggregation: "SUM"},
		},
		[]*semgraph.Edge{
			{ID: "belongs_to:sales.customer_id", From: "column:sales.customer_id", To: "entity:sales", Kind: semgraph.EdgeBelongsTo},
			{ID: "belongs_to:customers.id", From: "column:customers.id", To: "entity:customers", Kind: semgraph.EdgeBelongsTo},
			{ID: "joins_to:sales->customers", From: "entity:sales", To: "entity:customers", Kind: semgraph.EdgeJoinsTo, Cardinality: semgraph.ManyToOne, Confidence: 0.95, RepFromColumn: "column:sales.customer_id", RepToColumn: "column:customers.id"},
			{ID: "depends_on:sales.total_revenue->sales.customer_id", From: "measure:sales.total_revenue", To: "column:sales.customer_id", Kind: semgraph.EdgeDependsOn},
		},
	)
}

func roundTrip(t *testing.T, g *semgraph.Graph) *semgraph.Graph {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return got
}

func TestRoundTripPreservesNodes(t *testing.T) {
	got := roundTrip(t, smallGraph())

	n, ok := got.Entity("sales")
	if !ok {
		t.Fatalf("entity %q missing after round trip", "sales")
	}
	if n.PhysicalName != "fact_sales" {
		t.Errorf("PhysicalName = %q, want %q", n.PhysicalName, "fact_sales")
	}
	if n.SizeCategory != semgraph.SizeLarge {
		t.Errorf("SizeCategory = %v, want %v", n.SizeCategory, semgraph.SizeLarge)
	}

	col, ok := got.Column("customers.id")
	if !ok {
		t.Fatalf("column %q missing after round trip", "customers.id")
	}
	if !col.IsPrimaryKey || !col.IsUnique {
		t.Errorf("column %q lost IsPrimaryKey/IsUnique flags", "customers.id")
	}
}

func TestRoundTripPreservesEdges(t *testing.T) {
	got := roundTrip(t, smallGraph())

	edge, ok := got.EdgeBetween("entity:sales", "entity:customers", semgraph.EdgeJoinsTo)
	if !ok {
		t.Fatalf("JOINS_TO edge missing after round trip")
	}
	if edge.Cardinality != semgraph.ManyToOne {
		t.Errorf("Cardinality = %v, want %v", edge.Cardinality, semgraph.ManyToOne)
	}
	if edge.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", edge.Confidence)
	}
	if edge.RepFromColumn != "column:sales.customer_id" || edge.RepToColumn != "column:customers.id" {
		t.Errorf("representative column pair not preserved: %v -> %v", edge.RepFromColumn, edge.RepToColumn)
	}

	m, ok := got.Measure("sales.total_revenue")
	if !ok {
		t.Fatalf("measure missing after round trip")
	}
	deps := got.OutKind(m.ID, semgraph.EdgeDependsOn)
	if len(deps) != 1 || deps[0].To != "column:sales.customer_id" {
		t.Errorf("DEPENDS_ON edges = %v, want one edge to column:sales.customer_id", deps)
	}
}

func TestSaveLoadFileRoundTrip(t *testing.T) {
	path := t.TempDir() + "/graph.json"
	g := smallGraph()
	if err := SaveJSON(g, path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if _, ok := got.Entity("sales"); !ok {
		t.Fatalf("entity %q missing after file round trip", "sales")
	}
}
