package lexer

import "github.com/druarnfield/mantis-core-sub000/internal/diag"

type Kind int

const (
	EOF Kind = iota
	Ident
	Keyword
	Int
	Float
	String
	Symbol
	Illegal
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "Ident"
	case Keyword:
		return "Keyword"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Symbol:
		return "Symbol"
	case Illegal:
		return "Illegal"
	default:
		return "Unknown"
	}
}

// Token is a single lexeme together with the byte span it occupies in the
// source. For String tokens Value holds the text between the quotes,
// verbatim, with no escape processing.
type Token struct {
	Kind  Kind
	Value string
	Span  diag.Span
}

// keywords is the closed lexicon from the language reference. Anything not
// in this set that matches the identifier pattern becomes an Ident.
var keywords = buildKeywordSet(
	// top-level
	"defaults", "calendar", "dimension", "table", "measures", "report",
	// structural
	"source", "key", "atoms", "times", "slicers", "attributes", "drill_path",
	"generate", "include", "fiscal", "range", "infer", "min", "max", "from",
	"use_date", "period", "group", "show", "filter", "sort", "limit", "where",
	"as", "via", "to", "null", "null_handling", "fiscal_year_start",
	"week_start", "decimal_places",
	// types
	"int", "decimal", "float", "string", "bool", "date", "timestamp",
	// grains
	"minute", "hour", "day", "week", "month", "quarter", "year",
	"fiscal_month", "fiscal_quarter", "fiscal_year",
	// null handling
	"coalesce_zero", "null_on_zero", "error_on_zero",
	// days
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	// months
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	// period words
	"today", "yesterday", "this_week", "last_week", "this_month", "last_month",
	"this_quarter", "last_quarter", "this_year", "last_year", "ytd", "qtd",
	"mtd", "wtd", "this_fiscal_year", "last_fiscal_year", "this_fiscal_quarter",
	"last_fiscal_quarter", "fiscal_ytd", "fiscal_qtd",
	// time suffixes
	"prior_year", "prior_quarter", "prior_month", "prior_week", "yoy_growth",
	"qoq_growth", "mom_growth", "wow_growth", "yoy_delta", "qoq_delta",
	"mom_delta", "wow_delta", "rolling_3m", "rolling_6m", "rolling_12m",
	"rolling_3m_avg", "rolling_6m_avg", "rolling_12m_avg",
	// sort
	"asc", "desc",
)

func buildKeywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsKeyword reports whether word (already lowercase) belongs to the closed
// keyword lexicon.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}
