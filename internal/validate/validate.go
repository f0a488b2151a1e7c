// Package validate runs the single post-lowering pass that turns a
// RawModel into a validated Model: name resolution, grain compatibility,
// measure-dependency cycle detection, and report field resolution. Every
// failure is collected in the caller's diag.Bag rather than aborting;
// the returned Model reflects whatever could still be resolved around
// the failures.
package validate

import (
	"fmt"
	"sort"

	"github.com/druarnfield/mantis-core-sub000/internal/ast"
	"github.com/druarnfield/mantis-core-sub000/internal/diag"
	"github.com/druarnfield/mantis-core-sub000/internal/model"
)

// Validate enforces every naming, grain, and dependency invariant over
// raw and returns the deduplicated Model.
func Validate(raw *model.RawModel, bag *diag.Bag) *model.Model {
	m := &model.Model{
		Calendars:    map[string]ast.Calendar{},
		Dimensions:   map[string]ast.Dimension{},
		Tables:       map[string]ast.Table{},
		Measures:     map[string]map[string]ast.Measure{},
		MeasureOrder: map[string][]string{},
		Reports:      map[string]ast.Report{},
	}

	mergeDefaults(m, raw.Defaults)

	entityNames := map[string]bool{}

	for _, c := range raw.Calendars {
		if _, dup := m.Calendars[c.Name]; dup {
			bag.Errorf(c.Span, "DuplicateCalendar", "duplicate calendar %q", c.Name)
			continue
		}
		m.Calendars[c.Name] = c
	}

	for _, d := range raw.Dimensions {
		if entityNames[d.Name] {
			bag.Errorf(d.Span, "DuplicateEntity", "duplicate entity %q", d.Name)
			continue
		}
		entityNames[d.Name] = true
		m.Dimensions[d.Name] = d
	}

	for _, t := range raw.Tables {
		if entityNames[t.Name] {
			bag.Errorf(t.Span, "DuplicateEntity", "duplicate entity %q", t.Name)
			continue
		}
		entityNames[t.Name] = true
		m.Tables[t.Name] = t
	}

	for _, mb := range raw.MeasureBlocks {
		if _, ok := m.Tables[mb.TableName]; !ok {
			bag.Errorf(mb.Span, "UnknownTable", "measures block references unknown table %q", mb.TableName)
			continue
		}
		target := m.Measures[mb.TableName]
		if target == nil {
			target = map[string]ast.Measure{}
			m.Measures[mb.TableName] = target
		}
		for _, name := range mb.Order {
			meas := mb.Measures[name]
			if _, dup := target[name]; dup {
				bag.Errorf(meas.Span, "DuplicateMeasure", "duplicate measure %q on table %q", name, mb.TableName)
				continue
			}
			target[name] = meas
			m.MeasureOrder[mb.TableName] = append(m.MeasureOrder[mb.TableName], name)
		}
	}

	for _, r := range raw.Reports {
		if _, dup := m.Reports[r.Name]; dup {
			bag.Errorf(r.Span, "DuplicateEntity", "duplicate report %q", r.Name)
			continue
		}
		m.Reports[r.Name] = r
	}

	validateCalendars(m, bag)
	validateTables(m, bag)
	validateMeasures(m, bag)
	validateReports(m, bag)

	return m
}

func mergeDefaults(m *model.Model, all []ast.Defaults) {
	for _, d := range all {
		if d.HasCalendar {
			m.Defaults.Calendar, m.Defaults.HasCalendar = d.Calendar, true
		}
		if d.HasFiscalYear {
			m.Defaults.FiscalYearStart, m.Defaults.HasFiscalYear = d.FiscalYearStart, true
		}
		if d.HasWeekStart {
			m.Defaults.WeekStart, m.Defaults.HasWeekStart = d.WeekStart, true
		}
		if d.HasNullHandling {
			m.Defaults.NullHandling, m.Defaults.HasNullHandling = d.NullHandling, true
		}
		if d.HasDecimalPlaces {
			m.Defaults.DecimalPlaces, m.Defaults.HasDecimalPlaces = d.DecimalPlaces, true
		}
	}
}

// SupportedGrains returns the set of grain names a calendar exposes: a
// physical calendar supports exactly its grain_mappings keys; a
// generated calendar supports its base grain and everything coarser in
// the same family, plus the three fiscal grains when include_fiscal is
// set.
func SupportedGrains(c ast.Calendar) map[string]bool {
	supported := map[string]bool{}
	if c.Body == ast.CalendarPhysical {
		for g := range c.GrainMappings {
			supported[g] = true
		}
		return supported
	}

	base, ok := ast.ParseGrainLevel(c.BaseGrain)
	if !ok {
		return supported
	}

	nonFiscal := []ast.GrainLevel{ast.GrainMinute, ast.GrainHour, ast.GrainDay, ast.GrainWeek, ast.GrainMonth, ast.GrainQuarter, ast.GrainYear}
	fiscal := []ast.GrainLevel{ast.GrainFiscalMonth, ast.GrainFiscalQuarter, ast.GrainFiscalYear}

	if isFiscalGrain(base) {
		for _, g := range fiscal {
			if g >= base {
				supported[g.String()] = true
			}
		}
		return supported
	}

	for _, g := range nonFiscal {
		if g >= base {
			supported[g.String()] = true
		}
	}
	if c.HasIncludeFiscal {
		for _, g := range fiscal {
			supported[g.String()] = true
		}
	}
	return supported
}

func isFiscalGrain(g ast.GrainLevel) bool {
	return g == ast.GrainFiscalMonth || g == ast.GrainFiscalQuarter || g == ast.GrainFiscalYear
}

func validateCalendars(m *model.Model, bag *diag.Bag) {
	for name, c := range m.Calendars {
		if c.Body == ast.CalendarGenerated {
			if _, ok := ast.ParseGrainLevel(c.BaseGrain); !ok {
				bag.Errorf(c.Span, "InvalidGrainLevel", "calendar %q: invalid base grain %q", name, c.BaseGrain)
			}
		}
		for _, dp := range c.DrillPaths {
			supported := SupportedGrains(c)
			for _, lvl := range dp.Levels {
				if !supported[lvl] {
					bag.Errorf(dp.Span, "InvalidDrillPath", "calendar %q: drill path %q references grain %q not supported by this calendar", name, dp.Name, lvl)
				}
			}
		}
	}
}

func validateTables(m *model.Model, bag *diag.Bag) {
	for tname, t := range m.Tables {
		for bindingName, tb := range t.Times {
			cal, ok := m.Calendars[tb.Calendar]
			if !ok {
				bag.Errorf(tb.Span, "UnknownCalendar", "table %q: time binding %q references unknown calendar %q", tname, bindingName, tb.Calendar)
				continue
			}
			if !SupportedGrains(cal)[tb.Grain] {
				bag.Errorf(tb.Span, "InvalidGrainLevel", "table %q: time binding %q uses grain %q not supported by calendar %q", tname, bindingName, tb.Grain, tb.Calendar)
			}
		}

		for sname, s := range t.Slicers {
			switch s.Kind {
			case ast.SlicerForeignKey:
				dim, ok := m.Dimensions[s.Dimension]
				if !ok {
					bag.Errorf(s.Span, "UnknownDimension", "table %q: slicer %q references unknown dimension %q", tname, sname, s.Dimension)
					continue
				}
				if s.Key != dim.Key {
					if _, ok := dim.Attributes[s.Key]; !ok {
						bag.Errorf(s.Span, "UnknownAtom", "table %q: slicer %q key %q not found on dimension %q", tname, sname, s.Key, s.Dimension)
					}
				}
			case ast.SlicerVia:
				through, ok := t.Slicers[s.Through]
				if !ok {
					bag.Errorf(s.Span, "UnknownSlicer", "table %q: slicer %q references unknown slicer %q", tname, sname, s.Through)
					continue
				}
				if through.Kind == ast.SlicerVia {
					bag.Errorf(s.Span, "UnknownSlicer", "table %q: slicer %q cannot route via another via-slicer %q", tname, sname, s.Through)
				}
			case ast.SlicerCalculated:
				if s.Expr != nil && s.Expr.ContainsAggregate() {
					bag.Errorf(s.Span, "AggregateNotAllowed", "table %q: calculated slicer %q may not use an aggregate function", tname, sname)
				}
			}
		}
	}
}

// siblingMeasureRefs returns the sibling measures in the same table that
// meas references, discovered via bare, unqualified column references
// whose name matches a sibling measure.
func siblingMeasureRefs(t string, meas ast.Measure, measures map[string]ast.Measure) []string {
	var refs []string
	seen := map[string]bool{}
	collect := func(e *ast.Expr) {
		if e == nil {
			return
		}
		for _, ref := range e.ColumnRefs() {
			if ref.Entity != nil {
				continue
			}
			if _, ok := measures[ref.Name]; ok && !seen[ref.Name] {
				seen[ref.Name] = true
				refs = append(refs, ref.Name)
			}
		}
	}
	collect(meas.Expr)
	collect(meas.Filter)
	return refs
}

func validateMeasures(m *model.Model, bag *diag.Bag) {
	for tname, measures := range m.Measures {
		table := m.Tables[tname]

		for _, name := range m.MeasureOrder[tname] {
			meas := measures[name]
			checkAtomRefs(bag, tname, table, meas)
		}

		detectMeasureCycles(bag, tname, measures, m.MeasureOrder[tname])
	}
}

func checkAtomRefs(bag *diag.Bag, tname string, table ast.Table, meas ast.Measure) {
	check := func(e *ast.Expr) {
		if e == nil {
			return
		}
		e.Walk(func(n *ast.Expr) {
			if n.Kind != ast.ExprAtomRef {
				return
			}
			if _, ok := table.Atoms[n.AtomName]; !ok {
				bag.Errorf(n.Span, "UnknownAtom", "measure %q.%q references undefined atom %q", tname, meas.Name, n.AtomName)
			}
		})
	}
	check(meas.Expr)
	check(meas.Filter)
	if meas.Expr != nil && meas.Filter != nil && meas.Filter.ContainsAggregate() {
		bag.Errorf(meas.Filter.Span, "AggregateNotAllowed", "measure %q.%q: where clause may not use an aggregate function", tname, meas.Name)
	}
}

// detectMeasureCycles runs a three-colour DFS over the measure-to-measure
// reference graph rooted at each measure in declaration order, so the
// first cycle found is deterministic across runs.
func detectMeasureCycles(bag *diag.Bag, tname string, measures map[string]ast.Measure, order []string) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var stack []string
	reported := map[string]bool{}

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)

		for _, dep := range siblingMeasureRefs(tname, measures[name], measures) {
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				cycle := cycleFrom(stack, dep)
				if !reported[cycleKey(cycle)] {
					reported[cycleKey(cycle)] = true
					qualified := make([]string, len(cycle))
					for i, n := range cycle {
						qualified[i] = fmt.Sprintf("%s.%s", tname, n)
					}
					bag.Errorf(measures[name].Span, "CircularMeasureReference", "circular measure reference: %v", qualified)
				}
				return true
			}
		}

		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}

	for _, name := range order {
		if color[name] == white {
			visit(name)
		}
	}
}

func cycleFrom(stack []string, target string) []string {
	for i, n := range stack {
		if n == target {
			cycle := append([]string{}, stack[i:]...)
			return append(cycle, target)
		}
	}
	return append(append([]string{}, stack...), target)
}

func cycleKey(cycle []string) string {
	sorted := append([]string{}, cycle...)
	sort.Strings(sorted)
	return fmt.Sprint(sorted)
}

func validateReports(m *model.Model, bag *diag.Bag) {
	for rname, r := range m.Reports {
		for i, tname := range r.From {
			table, ok := m.Tables[tname]
			if !ok {
				bag.Errorf(r.Span, "UnknownTable", "report %q: unknown table %q in from", rname, tname)
				continue
			}
			if i < len(r.UseDate) {
				udName := r.UseDate[i]
				if _, ok := table.Times[udName]; !ok {
					bag.Errorf(r.Span, "UnknownAtom", "report %q: use_date %q is not a time binding on table %q", rname, udName, tname)
				}
			}
		}

		for _, g := range r.Group {
			validateGroupItem(m, bag, rname, g)
		}

		for _, s := range r.Show {
			if s.Kind != ast.ShowMeasure {
				continue
			}
			if !reportHasMeasure(m, r, s.Name) {
				bag.Errorf(r.Span, "UnknownMeasure", "report %q: show references unknown measure %q", rname, s.Name)
			}
		}

		if r.HasFilter && r.Filter != nil && r.Filter.ContainsAggregate() {
			bag.Errorf(r.Filter.Span, "AggregateNotAllowed", "report %q: filter may not use an aggregate function", rname)
		}
	}
}

func reportHasMeasure(m *model.Model, r ast.Report, name string) bool {
	for _, tname := range r.From {
		if _, ok := m.Measures[tname][name]; ok {
			return true
		}
	}
	return false
}

func validateGroupItem(m *model.Model, bag *diag.Bag, rname string, g ast.GroupItem) {
	if cal, ok := m.Calendars[g.Source]; ok {
		if !SupportedGrains(cal)[g.Level] {
			bag.Errorf(g.Span, "InvalidDrillPath", "report %q: group %s.%s.%s: level %q not supported by calendar %q", rname, g.Source, g.Path, g.Level, g.Level, g.Source)
			return
		}
		for _, dp := range cal.DrillPaths {
			if dp.Name == g.Path {
				if !containsLevel(dp.Levels, g.Level) {
					bag.Errorf(g.Span, "InvalidDrillPath", "report %q: level %q not in path %q on calendar %q", rname, g.Level, g.Path, g.Source)
				}
				return
			}
		}
		bag.Errorf(g.Span, "InvalidDrillPath", "report %q: group %s.%s.%s: no drill path named %q on calendar %q", rname, g.Source, g.Path, g.Level, g.Path, g.Source)
		return
	}
	if dim, ok := m.Dimensions[g.Source]; ok {
		if _, ok := dim.Attributes[g.Level]; !ok && g.Level != dim.Key {
			bag.Errorf(g.Span, "InvalidDrillPath", "report %q: group %s.%s.%s: %q is not an attribute of dimension %q", rname, g.Source, g.Path, g.Level, g.Level, g.Source)
		}
		return
	}
	bag.Errorf(g.Span, "InvalidDrillPath", "report %q: group references unknown source %q", rname, g.Source)
}

func containsLevel(levels []string, level string) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
