package validate

import (
	"testing"

	"github.com/druarnfield/mantis-core-sub000/internal/ast"
	"github.com/druarnfield/mantis-core-sub000/internal/diag"
	"github.com/druarnfield/mantis-core-sub000/internal/model"
)

func baseTable(name string) ast.Table {
	return ast.Table{
		Name:    name,
		Source:  "fact_" + name,
		Atoms:   map[string]ast.AtomType{"revenue": ast.TypeDecimal},
		Times:   map[string]ast.TimeBinding{},
		Slicers: map[string]ast.Slicer{},
	}
}

func measureRef(name string) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprColumn, ColumnName: name}
}

func atomRef(name string) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprAtomRef, AtomName: name}
}

func TestValidate_DuplicateEntityAcrossTableAndDimension(t *testing.T) {
	raw := &model.RawModel{
		Dimensions: []ast.Dimension{{Name: "sales", Key: "id", Attributes: map[string]ast.DataType{}}},
		Tables:     []ast.Table{baseTable("sales")},
	}
	bag := &diag.Bag{}
	Validate(raw, bag)

	if !hasDiagnosticKind(bag, "DuplicateEntity") {
		t.Errorf("diagnostics = %v, want a DuplicateEntity entry", bag.Diagnostics())
	}
}

func TestValidate_UnknownAtomInMeasure(t *testing.T) {
	raw := &model.RawModel{
		Tables: []ast.Table{baseTable("sales")},
		MeasureBlocks: []ast.MeasureBlock{{
			TableName: "sales",
			Measures: map[string]ast.Measure{
				"bad": {Name: "bad", Expr: atomRef("nonexistent")},
			},
			Order: []string{"bad"},
		}},
	}
	bag := &diag.Bag{}
	Validate(raw, bag)

	if !hasDiagnosticKind(bag, "UnknownAtom") {
		t.Errorf("diagnostics = %v, want an UnknownAtom entry", bag.Diagnostics())
	}
}

func TestValidate_UnknownAtomReportsAtomSpanNotMeasureSpan(t *testing.T) {
	atomSpan := diag.Span{Start: 100, End: 110}
	raw := &model.RawModel{
		Tables: []ast.Table{baseTable("sales")},
		MeasureBlocks: []ast.MeasureBlock{{
			TableName: "sales",
			Measures: map[string]ast.Measure{
				"bad": {
					Name: "bad",
					Span: diag.Span{Start: 0, End: 9999}, // the whole measures block
					Expr: &ast.Expr{Span: atomSpan, Kind: ast.ExprAtomRef, AtomName: "nonexistent"},
				},
			},
			Order: []string{"bad"},
		}},
	}
	bag := &diag.Bag{}
	Validate(raw, bag)

	var found bool
	for _, d := range bag.Diagnostics() {
		if d.Kind == "UnknownAtom" {
			found = true
			if d.Span != atomSpan {
				t.Errorf("UnknownAtom span = %+v, want the atom reference's own span %+v", d.Span, atomSpan)
			}
		}
	}
	if !found {
		t.Fatalf("expected an UnknownAtom diagnostic")
	}
}

func TestValidate_CircularMeasureReferenceDetected(t *testing.T) {
	raw := &model.RawModel{
		Tables: []ast.Table{baseTable("sales")},
		MeasureBlocks: []ast.MeasureBlock{{
			TableName: "sales",
			Measures: map[string]ast.Measure{
				"a": {Name: "a", Expr: measureRef("b")},
				"b": {Name: "b", Expr: measureRef("a")},
			},
			Order: []string{"a", "b"},
		}},
	}
	bag := &diag.Bag{}
	Validate(raw, bag)

	if !hasDiagnosticKind(bag, "CircularMeasureReference") {
		t.Errorf("diagnostics = %v, want a CircularMeasureReference entry", bag.Diagnostics())
	}
}

func TestValidate_ValidModelProducesNoDiagnostics(t *testing.T) {
	raw := &model.RawModel{
		Calendars: []ast.Calendar{{
			Name:          "dates",
			Body:          ast.CalendarPhysical,
			GrainMappings: map[string]string{"day": "date_key"},
			GrainSpans:    map[string]diag.Span{},
		}},
		Tables: []ast.Table{{
			Name:    "sales",
			Source:  "fact_sales",
			Atoms:   map[string]ast.AtomType{"revenue": ast.TypeDecimal},
			Times:   map[string]ast.TimeBinding{"order_date": {Calendar: "dates", Grain: "day"}},
			Slicers: map[string]ast.Slicer{},
		}},
		MeasureBlocks: []ast.MeasureBlock{{
			TableName: "sales",
			Measures: map[string]ast.Measure{
				"total_revenue": {Name: "total_revenue", Expr: &ast.Expr{
					Kind: ast.ExprFunction, FuncKind: ast.FuncAggregate, FuncName: "SUM",
					Args: []*ast.Expr{atomRef("revenue")},
				}},
			},
			Order: []string{"total_revenue"},
		}},
	}
	bag := &diag.Bag{}
	m := Validate(raw, bag)

	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Diagnostics())
	}
	if _, ok := m.Measures["sales"]["total_revenue"]; !ok {
		t.Errorf("expected total_revenue to survive validation")
	}
}

func TestSupportedGrains_GeneratedCalendarWithFiscal(t *testing.T) {
	c := ast.Calendar{
		Body:             ast.CalendarGenerated,
		BaseGrain:        "day",
		HasIncludeFiscal: true,
	}
	supported := SupportedGrains(c)
	for _, want := range []string{"day", "week", "month", "quarter", "year", "fiscal_month", "fiscal_quarter", "fiscal_year"} {
		if !supported[want] {
			t.Errorf("SupportedGrains missing %q: %v", want, supported)
		}
	}
	if supported["minute"] || supported["hour"] {
		t.Errorf("SupportedGrains should not include grains finer than the base grain: %v", supported)
	}
}

func TestSupportedGrains_PhysicalCalendarExactMappings(t *testing.T) {
	c := ast.Calendar{
		Body:          ast.CalendarPhysical,
		GrainMappings: map[string]string{"day": "d", "month": "m"},
	}
	supported := SupportedGrains(c)
	if len(supported) != 2 || !supported["day"] || !supported["month"] {
		t.Errorf("SupportedGrains = %v, want exactly {day, month}", supported)
	}
}

func TestValidateGroupItem_UnknownDrillPathNameReported(t *testing.T) {
	raw := &model.RawModel{
		Calendars: []ast.Calendar{{
			Name:          "dates",
			Body:          ast.CalendarPhysical,
			GrainMappings: map[string]string{"day": "date_key", "month": "month_key"},
			GrainSpans:    map[string]diag.Span{},
			DrillPaths:    []ast.DrillPath{{Name: "standard", Levels: []string{"day", "month"}}},
		}},
		Tables: []ast.Table{{
			Name:    "sales",
			Source:  "fact_sales",
			Atoms:   map[string]ast.AtomType{"revenue": ast.TypeDecimal},
			Times:   map[string]ast.TimeBinding{"order_date": {Calendar: "dates", Grain: "day"}},
			Slicers: map[string]ast.Slicer{},
		}},
		Reports: []ast.Report{{
			Name:    "bad_report",
			From:    []string{"sales"},
			UseDate: []string{"order_date"},
			Group:   []ast.GroupItem{{Span: diag.Span{Start: 10, End: 20}, Source: "dates", Path: "nonexistent", Level: "day"}},
		}},
	}
	bag := &diag.Bag{}
	Validate(raw, bag)

	if !hasDiagnosticKind(bag, "InvalidDrillPath") {
		t.Errorf("diagnostics = %v, want an InvalidDrillPath entry for an unmatched drill-path name", bag.Diagnostics())
	}
}

func TestValidateGroupItem_UsesGroupItemSpanNotZero(t *testing.T) {
	raw := &model.RawModel{
		Reports: []ast.Report{{
			Name:  "bad_report",
			From:  []string{"sales"},
			Group: []ast.GroupItem{{Span: diag.Span{Start: 42, End: 50}, Source: "nonexistent_source", Path: "p", Level: "l"}},
		}},
	}
	bag := &diag.Bag{}
	Validate(raw, bag)

	var found bool
	for _, d := range bag.Diagnostics() {
		if d.Kind == "InvalidDrillPath" {
			found = true
			if d.Span.Start != 42 || d.Span.End != 50 {
				t.Errorf("diagnostic span = %+v, want the GroupItem's own span {42 50}", d.Span)
			}
		}
	}
	if !found {
		t.Errorf("expected an InvalidDrillPath diagnostic for an unknown group source")
	}
}

func hasDiagnosticKind(bag *diag.Bag, kind string) bool {
	for _, d := range bag.Diagnostics() {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
