package graphquery

import "fmt"

type QueryError struct {
	Kind    string
	Message string
}

func (e QueryError) Error() string {
	return fmt.Sprintf("query error (%v): %v", e.Kind, e.Message)
}

func entityNotFound(name string) error {
	return QueryError{Kind: "EntityNotFound", Message: fmt.Sprintf("entity %q does not exist", name)}
}

func columnNotFound(qname string) error {
	return QueryError{Kind: "ColumnNotFound", Message: fmt.Sprintf("column %q does not exist", qname)}
}

func measureNotFound(qname string) error {
	return QueryError{Kind: "MeasureNotFound", Message: fmt.Sprintf("measure %q does not exist", qname)}
}

func noPathFound(from, to string) error {
	return QueryError{Kind: "NoPathFound", Message: fmt.Sprintf("no join path from %q to %q", from, to)}
}

// UnsafeJoinPath names the offending step of an otherwise-found path.
type UnsafeJoinPath struct {
	From, To string
	Reason   string
}

func (e UnsafeJoinPath) Error() string {
	return fmt.Sprintf("query error (UnsafeJoinPath): %v -> %v: %v", e.From, e.To, e.Reason)
}

func invalidNodeType(expected, actual string) error {
	return QueryError{Kind: "InvalidNodeType", Message: fmt.Sprintf("expected %v node, got %v", expected, actual)}
}
