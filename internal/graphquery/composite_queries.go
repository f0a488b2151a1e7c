package graphquery

import (
	"fmt"
	"strings"

	"github.com/druarnfield/mantis-core-sub000/internal/semgraph"
)

// FindBestJoinStrategy annotates each step of a path with a build/probe
// hint: the smaller side builds the hash table, the larger side probes.
// Two small sides may as well use a nested loop; two large sides use a
// hash join with the left side building, an arbitrary but stable choice.
func (e *Engine) FindBestJoinStrategy(path JoinPath) (JoinStrategy, error) {
	var strategy JoinStrategy
	for _, step := range path.Steps {
		fromNode, ok := e.g.Entity(step.From)
		if !ok {
			return JoinStrategy{}, entityNotFound(step.From)
		}
		toNode, ok := e.g.Entity(step.To)
		if !ok {
			return JoinStrategy{}, entityNotFound(step.To)
		}

		s := JoinStrategyStep{Step: step}
		fromSmall := fromNode.SizeCategory <= semgraph.SizeSmall
		toSmall := toNode.SizeCategory <= semgraph.SizeSmall

		switch {
		case fromSmall && toSmall:
			s.UseHashJoin = false
			s.Reason = fmt.Sprintf("both sides are %v, nested loop is acceptable", fromNode.SizeCategory)
		case fromNode.SizeCategory <= toNode.SizeCategory:
			s.UseHashJoin = true
			s.LeftHint, s.RightHint = "build", "probe"
			s.Reason = fmt.Sprintf("%v (%v) builds, %v (%v) probes", step.From, fromNode.SizeCategory, step.To, toNode.SizeCategory)
		default:
			s.UseHashJoin = true
			s.LeftHint, s.RightHint = "probe", "build"
			s.Reason = fmt.Sprintf("%v (%v) builds, %v (%v) probes", step.To, toNode.SizeCategory, step.From, fromNode.SizeCategory)
		}
		if s.LeftHint == "" && !s.UseHashJoin {
			s.LeftHint, s.RightHint = "either", "either"
		}
		strategy.Steps = append(strategy.Steps, s)
	}
	return strategy, nil
}

// ShouldAggregateBeforeJoin is true iff the measure's home entity is a
// strictly larger size tier than target_entity. Huge is treated as one
// tier above Large for this comparison.
func (e *Engine) ShouldAggregateBeforeJoin(measureQName, targetEntity string) (bool, error) {
	m, ok := e.g.Measure(measureQName)
	if !ok {
		return false, measureNotFound(measureQName)
	}
	home := homeEntity(measureQName)
	homeNode, ok := e.g.Entity(home)
	if !ok {
		return false, entityNotFound(home)
	}
	targetNode, ok := e.g.Entity(targetEntity)
	if !ok {
		return false, entityNotFound(targetEntity)
	}
	_ = m
	return homeNode.SizeCategory > targetNode.SizeCategory, nil
}

func homeEntity(measureQName string) string {
	parts := strings.SplitN(measureQName, ".", 2)
	return parts[0]
}
