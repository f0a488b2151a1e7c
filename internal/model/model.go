// Package model holds the two shapes a parsed source passes through on
// its way to a validated semantic model: RawModel groups the AST's items
// by kind without touching names (lowering's output), and Model holds the
// deduplicated, name-resolved result (the validator's output).
package model

import "github.com/druarnfield/mantis-core-sub000/internal/ast"

// RawModel is lowering's output: items bucketed by kind, in source order,
// with no deduplication and no name resolution. Duplicate names, dangling
// references, and cycles are all still possible here; the validator is
// the only pass that rejects them.
type RawModel struct {
	Defaults     []ast.Defaults
	Calendars    []ast.Calendar
	Dimensions   []ast.Dimension
	Tables       []ast.Table
	MeasureBlocks []ast.MeasureBlock
	Reports      []ast.Report
}

// Model is the validator's output: deduplicated maps keyed by name, with
// every naming, grain, and dependency invariant already enforced. It is
// immutable once returned; nothing in the package ever mutates a Model
// in place.
type Model struct {
	Defaults ast.Defaults

	Calendars  map[string]ast.Calendar
	Dimensions map[string]ast.Dimension
	Tables     map[string]ast.Table

	// Measures is keyed first by owning table, then by measure name. Order
	// preserves source order within each table, since cycle diagnostics
	// name measures in the order they were declared.
	Measures      map[string]map[string]ast.Measure
	MeasureOrder  map[string][]string
	Reports       map[string]ast.Report
}
