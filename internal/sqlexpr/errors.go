package sqlexpr

import (
	"fmt"

	"github.com/druarnfield/mantis-core-sub000/internal/diag"
)

// Context tells the parser (and, after parsing, the aggregate check) which
// surface a fragment came from: measure bodies may aggregate, filters and
// calculated slicers may not.
type Context int

const (
	Measure Context = iota
	Filter
	CalculatedSlicer
)

type ExprError struct {
	Kind    string
	Message string
	Span    diag.Span
}

func (e ExprError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func sqlParseError(span diag.Span, msg string) error {
	return ExprError{Kind: "SqlParseError", Message: msg, Span: span}
}

func unsupportedFeature(span diag.Span, feature string) error {
	return ExprError{Kind: "UnsupportedFeature", Message: fmt.Sprintf("unsupported feature: %s", feature), Span: span}
}

func invalidNumber(span diag.Span, text string) error {
	return ExprError{Kind: "InvalidNumber", Message: fmt.Sprintf("invalid numeric literal %q", text), Span: span}
}

func invalidDataType(span diag.Span, name string) error {
	return ExprError{Kind: "InvalidDataType", Message: fmt.Sprintf("invalid data type %q", name), Span: span}
}

func aggregateNotAllowed(span diag.Span, ctx Context) error {
	return ExprError{
		Kind:    "AggregateNotAllowed",
		Message: fmt.Sprintf("aggregate functions are not allowed in %s expressions", ctx),
		Span:    span,
	}
}

func (c Context) String() string {
	switch c {
	case Measure:
		return "measure"
	case Filter:
		return "filter"
	case CalculatedSlicer:
		return "calculated-slicer"
	default:
		return "unknown"
	}
}
