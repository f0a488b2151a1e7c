package dslparser

import (
	"github.com/druarnfield/mantis-core-sub000/internal/diag"
	"github.com/druarnfield/mantis-core-sub000/internal/lexer"
)

// item is one top-level block of source, isolated by brace-depth counting
// over the canonical lexer's token stream. Splitting items out before
// handing anything to the combinator grammar is what lets one malformed
// block get a diagnostic and get skipped while every other block still
// parses: participle itself aborts a whole repeated construct on its
// first error, so the repetition has to happen here instead of inside the
// grammar.
type item struct {
	Span diag.Span
	Text string
}

var topLevelKeywords = map[string]bool{
	"defaults": true, "calendar": true, "dimension": true,
	"table": true, "measures": true, "report": true,
}

// splitItems scans src with the canonical lexer and returns the span of
// each top-level block. Anything at depth zero that is not the start of a
// recognized block is reported as a diagnostic and skipped; a block whose
// closing brace is never found is reported and the scan stops, since
// there is no reliable resync point past an unterminated block.
func splitItems(src string, bag *diag.Bag) []item {
	// Lexical errors are not collected here: embedded SQL bodies contain
	// characters such as @ and - that the model lexer has no token for.
	// A stray character at depth zero is still reported below as an
	// UnexpectedToken, and one inside a block fails that block's grammar.
	toks := lexer.All(src, nil)

	var items []item
	i := 0
	for i < len(toks) {
		t := toks[i]
		if t.Kind == lexer.EOF {
			break
		}
		if t.Kind != lexer.Keyword || !topLevelKeywords[t.Value] {
			bag.Errorf(t.Span, "UnexpectedToken", "expected one of defaults, calendar, dimension, table, measures, report; got %q", t.Value)
			i++
			continue
		}

		start := t.Span.Start
		depth := 0
		opened := false
		j := i
		end := -1
		for ; j < len(toks); j++ {
			switch {
			case toks[j].Kind == lexer.Symbol && toks[j].Value == "{":
				depth++
				opened = true
			case toks[j].Kind == lexer.Symbol && toks[j].Value == "}":
				depth--
				if opened && depth == 0 {
					end = toks[j].Span.End
					j++
					goto found
				}
			case toks[j].Kind == lexer.EOF:
				goto notFound
			}
		}
	notFound:
		bag.Errorf(diag.Span{Start: start, End: len(src)}, "UnterminatedItem", "block starting at byte %d is never closed", start)
		return items
	found:
		items = append(items, item{Span: diag.Span{Start: start, End: end}, Text: src[start:end]})
		i = j
	}
	return items
}
