package semgraph

import "fmt"

type BuildError struct {
	Kind    string
	Message string
}

func (e BuildError) Error() string {
	return fmt.Sprintf("graph build error (%v): %v", e.Kind, e.Message)
}

func duplicateEntity(name string) error {
	return BuildError{Kind: "DuplicateEntity", Message: fmt.Sprintf("entity %q already exists", name)}
}

func duplicateColumn(qname string) error {
	return BuildError{Kind: "DuplicateColumn", Message: fmt.Sprintf("column %q already exists", qname)}
}

func duplicateMeasure(qname string) error {
	return BuildError{Kind: "DuplicateMeasure", Message: fmt.Sprintf("measure %q already exists", qname)}
}

func duplicateCalendar(name string) error {
	return BuildError{Kind: "DuplicateCalendar", Message: fmt.Sprintf("calendar %q already exists", name)}
}

func invalidReference(msg string) error {
	return BuildError{Kind: "InvalidReference", Message: msg}
}
