package dslparser

import (
	plex "github.com/alecthomas/participle/v2/lexer"
)

// itemLexer tokenizes the isolated text of a single top-level item (the
// span the splitter already carved out of the source) for participle's
// combinator grammar below. It mirrors the canonical keyword lexicon from
// internal/lexer but splits a few semantic classes (Grain, Type, NullH,
// SortDir) into their own token categories so that grammar productions can
// reference them directly (@Grain) instead of spelling out a ten-way
// alternation at every use site.
var itemLexer = plex.MustSimple([]plex.SimpleRule{
	{Name: "Grain", Pattern: `\b(minute|hour|day|week|month|quarter|year|fiscal_month|fiscal_quarter|fiscal_year)\b`},
	{Name: "Type", Pattern: `\b(int|decimal|float|string|bool|date|timestamp)\b`},
	{Name: "NullH", Pattern: `\b(coalesce_zero|null_on_zero|error_on_zero)\b`},
	{Name: "SortDir", Pattern: `\b(asc|desc)\b`},
	{Name: "Keyword", Pattern: `\b(defaults|calendar|dimension|table|measures|report|source|key|atoms|times|slicers|attributes|drill_path|generate|include|fiscal|range|infer|min|max|from|use_date|period|group|show|filter|sort|limit|where|as|via|to|null|null_handling|fiscal_year_start|week_start|decimal_places)\b`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Punct", Pattern: `[{}()\[\];,.=+]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "BlockComment", Pattern: `/\*([^*]|\*[^/])*\*/`},
	{Name: "Op", Pattern: `[@\-*/%<>!']`},
})
