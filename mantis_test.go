package mantis

import (
	"bytes"
	"path/filepath"
	"testing"
)

const revenueModel = `
defaults {
  calendar dates;
}

calendar dates "dim_dates" {
  day = date_key;
  month = month_key;
}

dimension customers {
  source "dim_customers";
  key id;
  attributes {
    region string;
  }
}

table sales {
  source "fact_sales";
  atoms {
    revenue decimal;
  }
  times {
    order_date -> dates.day;
  }
  slicers {
    customer -> customers.id;
  }
}

measures sales {
  total_revenue = { SUM(@revenue) };
}

report revenue_by_customer {
  from sales;
  use_date order_date;
  show {
    total_revenue;
  }
}
`

func TestParse_EndToEnd(t *testing.T) {
	result := Parse(revenueModel)
	for _, d := range result.Diagnostics {
		t.Errorf("unexpected diagnostic: %v", d)
	}
	if result.Model == nil {
		t.Fatalf("expected a non-nil Model")
	}
	if _, ok := result.Model.Tables["sales"]; !ok {
		t.Errorf("expected table %q in the validated model", "sales")
	}
	if _, ok := result.Model.Measures["sales"]["total_revenue"]; !ok {
		t.Errorf("expected measure sales.total_revenue in the validated model")
	}
}

func TestParse_InvalidSourceStillReturnsPartialModel(t *testing.T) {
	result := Parse(`table sales { atoms { revenue unknown_type; } }`)
	if result.Model == nil {
		t.Fatalf("expected a non-nil Model even when a block fails to parse")
	}
	if len(result.Diagnostics) == 0 {
		t.Errorf("expected at least one diagnostic")
	}
	if _, ok := result.Model.Tables["sales"]; ok {
		t.Errorf("expected the malformed table to be dropped from the recovered model")
	}
}

func TestBuildGraphAndEngine_EndToEnd(t *testing.T) {
	result := Parse(revenueModel)
	if result.Model == nil {
		t.Fatalf("Parse failed: %v", result.Diagnostics)
	}

	rels := []Relationship{
		{FromTable: "sales", FromColumn: "customer", ToTable: "customers", ToColumn: "id", Cardinality: ManyToOne, Confidence: 0.95},
	}
	stats := map[ColumnKey]ColumnStats{
		{Table: "sales", Column: "customer"}:  {TotalCount: 10_000, DistinctCount: 9_500},
		{Table: "customers", Column: "id"}:    {TotalCount: 500, DistinctCount: 500, IsUnique: true},
	}

	g, err := BuildGraph(result.Model, rels, stats)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	engine := NewEngine(g)
	path, err := engine.FindPath("sales", "customers")
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if len(path.Steps) != 1 {
		t.Fatalf("path.Steps = %v, want 1 hop", path.Steps)
	}

	cols, err := engine.RequiredColumns("sales.total_revenue")
	if err != nil {
		t.Fatalf("RequiredColumns: %v", err)
	}
	if len(cols) != 1 || cols[0].Column != "revenue" {
		t.Errorf("RequiredColumns = %v, want [{sales revenue}]", cols)
	}
}

func buildRevenueGraph(t *testing.T) *Graph {
	t.Helper()
	result := Parse(revenueModel)
	if result.Model == nil {
		t.Fatalf("Parse failed: %v", result.Diagnostics)
	}
	rels := []Relationship{
		{FromTable: "sales", FromColumn: "customer", ToTable: "customers", ToColumn: "id", Cardinality: ManyToOne, Confidence: 0.95},
	}
	g, err := BuildGraph(result.Model, rels, nil)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	return g
}

func TestSaveGraphAndLoadGraph_RoundTrip(t *testing.T) {
	g := buildRevenueGraph(t)

	var buf bytes.Buffer
	if err := SaveGraph(g, &buf); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}

	got, err := LoadGraph(&buf)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}

	engine := NewEngine(got)
	path, err := engine.FindPath("sales", "customers")
	if err != nil {
		t.Fatalf("FindPath on reloaded graph: %v", err)
	}
	if len(path.Steps) != 1 {
		t.Errorf("path.Steps = %v, want 1 hop", path.Steps)
	}
}

func TestSaveGraphFileAndLoadGraphFile_RoundTrip(t *testing.T) {
	g := buildRevenueGraph(t)
	path := filepath.Join(t.TempDir(), "graph.json")

	if err := SaveGraphFile(g, path); err != nil {
		t.Fatalf("SaveGraphFile: %v", err)
	}
	got, err := LoadGraphFile(path)
	if err != nil {
		t.Fatalf("LoadGraphFile: %v", err)
	}

	engine := NewEngine(got)
	if _, err := engine.RequiredColumns("sales.total_revenue"); err != nil {
		t.Errorf("RequiredColumns on reloaded graph: %v", err)
	}
}
