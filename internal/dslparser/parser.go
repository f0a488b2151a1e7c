// Package dslparser turns model source text into the span-tracked
// internal/ast tree. It splits the source into top-level blocks itself
// (see split.go) so that one malformed block produces a diagnostic and
// gets skipped while the rest of the file still parses; a participle
// grammar (grammar.go) then parses each block in isolation, and convert.go
// lifts the result into internal/ast, invoking the SQL-expression
// sublanguage parser for every embedded fragment.
package dslparser

import (
	"github.com/alecthomas/participle/v2"

	"github.com/druarnfield/mantis-core-sub000/internal/ast"
	"github.com/druarnfield/mantis-core-sub000/internal/diag"
)

// ParseModel parses src into a Model, accumulating every diagnostic along
// the way in bag rather than stopping at the first one. The returned
// Model is always non-nil, but may be missing items whose block failed to
// parse; callers should check bag.HasErrors() before trusting it.
func ParseModel(src string, bag *diag.Bag) *ast.Model {
	model := &ast.Model{}

	for _, it := range splitItems(src, bag) {
		parsed, err := itemParser.ParseString("", it.Text)
		if err != nil {
			span := it.Span
			if perr, ok := err.(participle.Error); ok {
				pos := perr.Position()
				start := it.Span.Start + pos.Offset
				span = diag.Span{Start: start, End: start + 1}
			}
			bag.Errorf(span, "GrammarError", "%s", err.Error())
			continue
		}

		c := &converter{src: src, offset: it.Span.Start, bag: bag}
		if node := c.convertItem(it.Span, parsed); node != nil {
			model.Items = append(model.Items, *node)
		}
	}

	return model
}
