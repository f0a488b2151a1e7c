package lowering

import (
	"testing"

	"github.com/druarnfield/mantis-core-sub000/internal/ast"
)

func TestLower_BucketsItemsByKind(t *testing.T) {
	m := &ast.Model{Items: []ast.Item{
		{Kind: ast.ItemDefaults, Defaults: &ast.Defaults{HasCalendar: true, Calendar: "dates"}},
		{Kind: ast.ItemCalendar, Calendar: &ast.Calendar{Name: "dates"}},
		{Kind: ast.ItemDimension, Dimension: &ast.Dimension{Name: "customers"}},
		{Kind: ast.ItemTable, Table: &ast.Table{Name: "sales"}},
		{Kind: ast.ItemMeasureBlock, MeasureBlock: &ast.MeasureBlock{TableName: "sales"}},
		{Kind: ast.ItemReport, Report: &ast.Report{Name: "rev"}},
	}}

	raw := Lower(m)

	if len(raw.Defaults) != 1 || raw.Defaults[0].Calendar != "dates" {
		t.Errorf("Defaults = %v", raw.Defaults)
	}
	if len(raw.Calendars) != 1 || raw.Calendars[0].Name != "dates" {
		t.Errorf("Calendars = %v", raw.Calendars)
	}
	if len(raw.Dimensions) != 1 || raw.Dimensions[0].Name != "customers" {
		t.Errorf("Dimensions = %v", raw.Dimensions)
	}
	if len(raw.Tables) != 1 || raw.Tables[0].Name != "sales" {
		t.Errorf("Tables = %v", raw.Tables)
	}
	if len(raw.MeasureBlocks) != 1 || raw.MeasureBlocks[0].TableName != "sales" {
		t.Errorf("MeasureBlocks = %v", raw.MeasureBlocks)
	}
	if len(raw.Reports) != 1 || raw.Reports[0].Name != "rev" {
		t.Errorf("Reports = %v", raw.Reports)
	}
}

func TestLower_NilItemsAreSkipped(t *testing.T) {
	m := &ast.Model{Items: []ast.Item{
		{Kind: ast.ItemTable, Table: nil},
	}}
	raw := Lower(m)
	if len(raw.Tables) != 0 {
		t.Errorf("Tables = %v, want empty since the item carried a nil payload", raw.Tables)
	}
}

func TestLower_EmptyModelProducesEmptyRawModel(t *testing.T) {
	raw := Lower(&ast.Model{})
	if len(raw.Defaults)+len(raw.Calendars)+len(raw.Dimensions)+len(raw.Tables)+len(raw.MeasureBlocks)+len(raw.Reports) != 0 {
		t.Errorf("expected an empty RawModel, got %+v", raw)
	}
}
