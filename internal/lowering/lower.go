// Package lowering performs the mechanical AST-to-RawModel translation:
// grouping items by kind in source order. It never renames, resolves, or
// inspects an expression; that is the validator's job. A malformed item
// that convert.go already reported a diagnostic for and dropped simply
// contributes nothing here — lowering itself never fails.
package lowering

import (
	"github.com/druarnfield/mantis-core-sub000/internal/ast"
	"github.com/druarnfield/mantis-core-sub000/internal/model"
)

// Lower buckets every item in m by kind into a RawModel. It is a pure,
// total function: every well-formed ast.Model produces a RawModel, and
// there is nothing in the translation itself that can fail.
func Lower(m *ast.Model) *model.RawModel {
	raw := &model.RawModel{}
	for _, it := range m.Items {
		switch it.Kind {
		case ast.ItemDefaults:
			if it.Defaults != nil {
				raw.Defaults = append(raw.Defaults, *it.Defaults)
			}
		case ast.ItemCalendar:
			if it.Calendar != nil {
				raw.Calendars = append(raw.Calendars, *it.Calendar)
			}
		case ast.ItemDimension:
			if it.Dimension != nil {
				raw.Dimensions = append(raw.Dimensions, *it.Dimension)
			}
		case ast.ItemTable:
			if it.Table != nil {
				raw.Tables = append(raw.Tables, *it.Table)
			}
		case ast.ItemMeasureBlock:
			if it.MeasureBlock != nil {
				raw.MeasureBlocks = append(raw.MeasureBlocks, *it.MeasureBlock)
			}
		case ast.ItemReport:
			if it.Report != nil {
				raw.Reports = append(raw.Reports, *it.Report)
			}
		}
	}
	return raw
}
