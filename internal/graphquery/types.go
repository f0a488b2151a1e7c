// Package graphquery is the read-only interface over a built semgraph.Graph:
// path-finding, lineage, and join-strategy hints for a downstream planner.
// Nothing here mutates the graph; every operation is a traversal.
package graphquery

import "github.com/druarnfield/mantis-core-sub000/internal/semgraph"

// Step is one hop of a JoinPath.
type Step struct {
	From        string
	To          string
	Cardinality semgraph.Cardinality
}

// JoinPath is an ordered sequence of entity-to-entity hops. A zero-step
// path (From == To, no Steps) represents a query asking for a path from
// an entity to itself.
type JoinPath struct {
	Steps []Step
}

// ColumnRef is a qualified "<entity>.<column>" reference returned by the
// column-level queries.
type ColumnRef struct {
	Entity string
	Column string
}

// JoinStrategy annotates each step of a JoinPath with a build/probe hint.
type JoinStrategy struct {
	Steps []JoinStrategyStep
}

type JoinStrategyStep struct {
	Step       Step
	LeftHint   string // "build", "probe", or "either"
	RightHint  string
	UseHashJoin bool
	Reason     string
}
