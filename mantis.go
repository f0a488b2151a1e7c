// Package mantis compiles the semantic-modeling DSL into a validated
// Model and, from there, a queryable Unified Semantic Graph. It is the
// single entry point a host application imports; everything under
// internal/ is implementation detail reached only through here.
package mantis

import (
	"io"

	"github.com/druarnfield/mantis-core-sub000/internal/diag"
	"github.com/druarnfield/mantis-core-sub000/internal/dslparser"
	"github.com/druarnfield/mantis-core-sub000/internal/graphquery"
	"github.com/druarnfield/mantis-core-sub000/internal/lowering"
	"github.com/druarnfield/mantis-core-sub000/internal/model"
	"github.com/druarnfield/mantis-core-sub000/internal/semgraph"
	"github.com/druarnfield/mantis-core-sub000/internal/serialization"
	"github.com/druarnfield/mantis-core-sub000/internal/validate"
)

type (
	Diagnostic   = diag.Diagnostic
	Model        = model.Model
	Relationship = semgraph.Relationship
	Cardinality  = semgraph.Cardinality
	ColumnStats  = semgraph.ColumnStats
	ColumnKey    = semgraph.ColumnKey
	Graph        = semgraph.Graph
	Engine       = graphquery.Engine
	JoinPath     = graphquery.JoinPath
	Step         = graphquery.Step
	ColumnRef    = graphquery.ColumnRef
	JoinStrategy = graphquery.JoinStrategy
)

// Cardinality values, re-exported so callers building Relationship values
// don't need to import internal/semgraph directly.
const (
	OneToOne   = semgraph.OneToOne
	OneToMany  = semgraph.OneToMany
	ManyToOne  = semgraph.ManyToOne
	ManyToMany = semgraph.ManyToMany
)

// ParseResult is the outcome of compiling one source document: the model
// (never nil; a partial one when errors were raised) plus every
// diagnostic collected along the way.
type ParseResult struct {
	Model       *Model
	Diagnostics []Diagnostic
}

// Parse runs the full front end: lexing, item splitting, grammar parsing,
// embedded-SQL-expression parsing, lowering, and validation. It never
// fails fast; a malformed item or an invalid reference is recorded as a
// diagnostic and compilation continues past it, so a caller always gets
// back everything that could be recovered.
func Parse(source string) ParseResult {
	bag := &diag.Bag{}
	astModel := dslparser.ParseModel(source, bag)
	raw := lowering.Lower(astModel)
	validated := validate.Validate(raw, bag)

	// ParseModel, Lower, and Validate are all total: astModel, raw, and
	// validated are never nil, even when every item failed to parse. The
	// model is always returned so a caller can inspect whatever survived
	// recovery; bag.HasErrors() is how a caller distinguishes a clean
	// compile from a partial one.
	return ParseResult{Model: validated, Diagnostics: bag.Diagnostics()}
}

// BuildGraph constructs the Unified Semantic Graph from a validated model
// plus externally supplied relationship inference and column statistics.
// Unlike Parse, a build failure is a hard error: nothing downstream of a
// validated model is allowed to partially succeed.
func BuildGraph(m *Model, relationships []Relationship, stats map[ColumnKey]ColumnStats) (*Graph, error) {
	return semgraph.Build(m, relationships, stats)
}

// NewEngine wraps a built graph with the read-only query interface.
func NewEngine(g *Graph) *Engine {
	return graphquery.New(g)
}

// SaveGraph writes a built graph to w so a host application can cache it
// across process restarts instead of rerunning BuildGraph.
func SaveGraph(g *Graph, w io.Writer) error {
	return serialization.WriteJSON(g, w)
}

// SaveGraphFile writes a built graph to a JSON file at path.
func SaveGraphFile(g *Graph, path string) error {
	return serialization.SaveJSON(g, path)
}

// LoadGraph reads a graph previously written by SaveGraph.
func LoadGraph(r io.Reader) (*Graph, error) {
	return serialization.ReadJSON(r)
}

// LoadGraphFile reads a graph previously written by SaveGraphFile.
func LoadGraphFile(path string) (*Graph, error) {
	return serialization.LoadJSON(path)
}
