package dslparser

import (
	"regexp"
	"strconv"

	"github.com/druarnfield/mantis-core-sub000/internal/ast"
	"github.com/druarnfield/mantis-core-sub000/internal/diag"
	"github.com/druarnfield/mantis-core-sub000/internal/sqlexpr"
)

// converter turns one item's combinator-parser AST into the span-tracked
// ast.Item, resolving every embedded SQL fragment along the way. offset is
// the byte position of the item's own text within the original full
// source: every position participle reports is relative to that
// substring and has to be shifted by offset before it means anything to a
// caller holding the original file.
type converter struct {
	src    string // full original source
	offset int
	bag    *diag.Bag
}

func (c *converter) abs(relOffset int) int { return c.offset + relOffset }

// fragment recovers the verbatim source text and absolute span of a
// rawSQL capture, then runs it through the SQL-expression sublanguage.
func (c *converter) fragment(r rawSQL, ctx sqlexpr.Context) (*ast.Expr, bool) {
	if len(r.Tokens) == 0 {
		span := diag.Span{Start: c.offset, End: c.offset}
		c.bag.Errorf(span, "SqlParseError", "empty expression")
		return nil, false
	}
	first := r.Tokens[0]
	last := r.Tokens[len(r.Tokens)-1]
	start := c.abs(first.Pos.Offset)
	end := c.abs(last.Pos.Offset) + len(last.Value)
	span := diag.Span{Start: start, End: end}

	expr, err := sqlexpr.Parse(c.src[start:end], span, ctx)
	if err != nil {
		if ee, ok := err.(sqlexpr.ExprError); ok {
			c.bag.Errorf(ee.Span, ee.Kind, "%s", ee.Message)
		} else {
			c.bag.Errorf(span, "SqlParseError", "%s", err.Error())
		}
		return nil, false
	}
	return expr, true
}

func (c *converter) grain(s string) string { return s }

func (c *converter) month(s string, span diag.Span) (ast.Month, bool) {
	m, ok := ast.ParseMonth(s)
	if !ok {
		c.bag.Errorf(span, "InvalidMonth", "%q is not a valid month", s)
	}
	return m, ok
}

func (c *converter) weekday(s string, span diag.Span) (ast.Weekday, bool) {
	w, ok := ast.ParseWeekday(s)
	if !ok {
		c.bag.Errorf(span, "InvalidWeekday", "%q is not a valid weekday", s)
	}
	return w, ok
}

func (c *converter) dataType(s string) ast.DataType {
	switch s {
	case "int":
		return ast.TypeInt
	case "decimal":
		return ast.TypeDecimal
	case "float":
		return ast.TypeFloat
	case "string":
		return ast.TypeString
	case "bool":
		return ast.TypeBool
	case "date":
		return ast.TypeDate
	case "timestamp":
		return ast.TypeTimestamp
	default:
		return ast.TypeString
	}
}

func (c *converter) nullHandling(s string) ast.NullHandling {
	n, _ := ast.ParseNullHandling(s)
	return n
}

func (c *converter) convertItem(span diag.Span, a *itemAST) *ast.Item {
	switch {
	case a.Defaults != nil:
		return &ast.Item{Span: span, Kind: ast.ItemDefaults, Defaults: c.convertDefaults(span, a.Defaults)}
	case a.Calendar != nil:
		return &ast.Item{Span: span, Kind: ast.ItemCalendar, Calendar: c.convertCalendar(span, a.Calendar)}
	case a.Dimension != nil:
		return &ast.Item{Span: span, Kind: ast.ItemDimension, Dimension: c.convertDimension(span, a.Dimension)}
	case a.Table != nil:
		return &ast.Item{Span: span, Kind: ast.ItemTable, Table: c.convertTable(span, a.Table)}
	case a.Measures != nil:
		return &ast.Item{Span: span, Kind: ast.ItemMeasureBlock, MeasureBlock: c.convertMeasures(span, a.Measures)}
	case a.Report != nil:
		return &ast.Item{Span: span, Kind: ast.ItemReport, Report: c.convertReport(span, a.Report)}
	default:
		c.bag.Errorf(span, "InvalidSyntax", "empty item")
		return nil
	}
}

func (c *converter) convertDefaults(span diag.Span, a *defaultsAST) *ast.Defaults {
	d := &ast.Defaults{Span: span}
	for _, s := range a.Settings {
		switch {
		case s.Calendar != "":
			d.Calendar, d.HasCalendar = s.Calendar, true
		case s.FiscalYearStart != "":
			if m, ok := c.month(s.FiscalYearStart, span); ok {
				d.FiscalYearStart, d.HasFiscalYear = m, true
			}
		case s.WeekStart != "":
			if w, ok := c.weekday(s.WeekStart, span); ok {
				d.WeekStart, d.HasWeekStart = w, true
			}
		case s.NullHandling != "":
			d.NullHandling, d.HasNullHandling = c.nullHandling(s.NullHandling), true
		case s.DecimalPlaces != "":
			if n, err := strconv.Atoi(s.DecimalPlaces); err == nil {
				d.DecimalPlaces, d.HasDecimalPlaces = n, true
			}
		}
	}
	return d
}

func (c *converter) convertRange(a *rangeAST) ast.Range {
	if a.Explicit != nil {
		return ast.Range{Kind: ast.RangeExplicit, Start: a.Explicit.Start, End: a.Explicit.End}
	}
	r := ast.Range{Kind: ast.RangeInfer}
	if a.Infer.Min != "" {
		r.Min, r.HasMin = a.Infer.Min, true
	}
	if a.Infer.Max != "" {
		r.Max, r.HasMax = a.Infer.Max, true
	}
	return r
}

func (c *converter) convertDrillPath(a *drillPathAST) ast.DrillPath {
	return ast.DrillPath{Name: a.Name, Levels: a.Levels}
}

func (c *converter) convertCalendar(span diag.Span, a *calendarAST) *ast.Calendar {
	cal := &ast.Calendar{
		Span:          span,
		Name:          a.Name,
		GrainMappings: map[string]string{},
		GrainSpans:    map[string]diag.Span{},
	}
	if a.Source != nil {
		cal.Source, cal.HasSource = *a.Source, true
	}

	for _, s := range a.Settings {
		switch {
		case s.GrainMapping != nil:
			cal.Body = ast.CalendarPhysical
			cal.GrainMappings[s.GrainMapping.Grain] = s.GrainMapping.Column
			cal.GrainSpans[s.GrainMapping.Grain] = span
		case s.DrillPath != nil:
			cal.DrillPaths = append(cal.DrillPaths, c.convertDrillPath(s.DrillPath))
		case s.Generate != nil:
			cal.Body = ast.CalendarGenerated
			cal.BaseGrain = s.Generate.BaseGrain
			if s.Generate.IncludeFiscal != "" {
				if m, ok := c.month(s.Generate.IncludeFiscal, span); ok {
					cal.IncludeFiscal, cal.HasIncludeFiscal = m, true
				}
			} else if s.Generate.IncludeFiscal == "" && s.Generate.End != "" {
				// No fiscal month was captured: HasIncludeFiscal stays false
				// and the calendar exposes no fiscal grains.
			}
		case s.Range != nil:
			cal.RangeSpec = c.convertRange(s.Range)
		case s.FiscalYearStart != "":
			if m, ok := c.month(s.FiscalYearStart, span); ok {
				cal.FiscalYearStart, cal.HasFiscalYearStart = m, true
			}
		case s.WeekStart != "":
			if w, ok := c.weekday(s.WeekStart, span); ok {
				cal.WeekStart, cal.HasWeekStart = w, true
			}
		}
	}
	return cal
}

func (c *converter) convertDimension(span diag.Span, a *dimensionAST) *ast.Dimension {
	dim := &ast.Dimension{
		Span:       span,
		Name:       a.Name,
		Source:     a.Source,
		Key:        a.Key,
		Attributes: map[string]ast.DataType{},
		AttrSpans:  map[string]diag.Span{},
	}
	for _, at := range a.Attributes {
		if _, dup := dim.Attributes[at.Name]; dup {
			c.bag.Errorf(span, "DuplicateColumn", "duplicate attribute %q on dimension %q", at.Name, a.Name)
			continue
		}
		dim.Attributes[at.Name] = c.dataType(at.Type)
		dim.AttrSpans[at.Name] = span
	}
	for _, dp := range a.DrillPaths {
		dim.DrillPaths = append(dim.DrillPaths, c.convertDrillPath(dp))
	}
	return dim
}

func (c *converter) convertTable(span diag.Span, a *tableAST) *ast.Table {
	t := &ast.Table{
		Span:      span,
		Name:      a.Name,
		Source:    a.Source,
		Atoms:     map[string]ast.AtomType{},
		AtomSpans: map[string]diag.Span{},
		Times:     map[string]ast.TimeBinding{},
		Slicers:   map[string]ast.Slicer{},
	}
	for _, at := range a.Atoms {
		if _, dup := t.Atoms[at.Name]; dup {
			c.bag.Errorf(span, "DuplicateColumn", "duplicate atom %q on table %q", at.Name, a.Name)
			continue
		}
		t.Atoms[at.Name] = c.dataType(at.Type)
		t.AtomSpans[at.Name] = span
	}
	for _, tb := range a.Times {
		if _, dup := t.Times[tb.Name]; dup {
			c.bag.Errorf(span, "DuplicateColumn", "duplicate time binding %q on table %q", tb.Name, a.Name)
			continue
		}
		t.Times[tb.Name] = ast.TimeBinding{Span: span, Calendar: tb.Calendar, Grain: tb.Grain}
	}
	for _, sl := range a.Slicers {
		if _, dup := t.Slicers[sl.Name]; dup {
			c.bag.Errorf(span, "DuplicateColumn", "duplicate slicer %q on table %q", sl.Name, a.Name)
			continue
		}
		t.Slicers[sl.Name] = c.convertSlicer(span, sl)
	}
	return t
}

func (c *converter) convertSlicer(span diag.Span, a *slicerAST) ast.Slicer {
	s := ast.Slicer{Span: span, Name: a.Name}
	switch {
	case a.Calculated != nil:
		s.Kind = ast.SlicerCalculated
		s.DataType = c.dataType(a.Calculated.Type)
		if expr, ok := c.fragment(a.Calculated.SQL, sqlexpr.CalculatedSlicer); ok {
			s.Expr = expr
		}
	case a.Via != nil:
		s.Kind = ast.SlicerVia
		s.Through = a.Via.Through
	case a.ForeignKey != nil:
		s.Kind = ast.SlicerForeignKey
		s.Dimension = a.ForeignKey.Dimension
		s.Key = a.ForeignKey.Key
	case a.Inline != nil:
		s.Kind = ast.SlicerInline
		s.DataType = c.dataType(a.Inline.Type)
	}
	return s
}

func (c *converter) convertMeasures(span diag.Span, a *measuresAST) *ast.MeasureBlock {
	mb := &ast.MeasureBlock{Span: span, TableName: a.TableName, Measures: map[string]ast.Measure{}}
	for _, m := range a.Measures {
		measure := ast.Measure{Span: span, Name: m.Name}
		if expr, ok := c.fragment(m.Expr, sqlexpr.Measure); ok {
			measure.Expr = expr
		}
		if m.Where != nil {
			if expr, ok := c.fragment(m.Where.Filter, sqlexpr.Filter); ok {
				measure.Filter, measure.HasFilter = expr, true
			}
		}
		if m.Null != nil {
			measure.NullHandling, measure.HasNullHandling = c.nullHandling(m.Null.Handling), true
		}
		mb.Measures[m.Name] = measure
		mb.Order = append(mb.Order, m.Name)
	}
	return mb
}

func (c *converter) convertGroupItem(a *groupItemAST) ast.GroupItem {
	g := ast.GroupItem{Source: a.Source, Path: a.Path, Level: a.Level}
	if len(a.Tokens) > 0 {
		first := a.Tokens[0]
		last := a.Tokens[len(a.Tokens)-1]
		start := c.abs(first.Pos.Offset)
		end := c.abs(last.Pos.Offset) + len(last.Value)
		g.Span = diag.Span{Start: start, End: end}
	}
	if a.Alias != nil {
		g.Alias, g.HasAlias = *a.Alias, true
	}
	return g
}

func (c *converter) convertShowItem(span diag.Span, a *showItemAST) ast.ShowItem {
	if a.Inline != nil {
		item := ast.ShowItem{Kind: ast.ShowInline, Name: a.Inline.Name}
		if expr, ok := c.fragment(a.Inline.Expr, sqlexpr.Filter); ok {
			item.Expr = expr
		}
		if a.Inline.Alias != nil {
			item.Alias, item.HasAlias = *a.Inline.Alias, true
		}
		return item
	}
	m := a.Measure
	item := ast.ShowItem{Kind: ast.ShowMeasure, Name: m.Name}
	if m.Suffix != nil {
		item.Suffix, item.HasSuffix = *m.Suffix, true
	}
	if m.Alias != nil {
		item.Alias, item.HasAlias = *m.Alias, true
	}
	return item
}

func (c *converter) convertSortItem(a *sortItemAST) ast.SortItem {
	return ast.SortItem{Name: a.Name, Desc: a.Dir == "desc"}
}

var lastNPeriod = regexp.MustCompile(`^last_(\d+)_([a-z]+)$`)

func (c *converter) convertPeriod(span diag.Span, word string) *ast.PeriodExpr {
	if word == "" {
		return nil
	}
	if m := lastNPeriod.FindStringSubmatch(word); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return &ast.PeriodExpr{Span: span, Kind: ast.PeriodLastN, N: n, Unit: m[2]}
		}
	}
	return &ast.PeriodExpr{Span: span, Kind: ast.PeriodRelative, Relative: word}
}

func (c *converter) convertReport(span diag.Span, a *reportAST) *ast.Report {
	r := &ast.Report{Span: span, Name: a.Name, From: a.From, UseDate: a.UseDate}
	if a.Period != nil {
		r.Period = c.convertPeriod(span, *a.Period)
	}
	for _, g := range a.Group {
		r.Group = append(r.Group, c.convertGroupItem(g))
	}
	for _, s := range a.Show {
		r.Show = append(r.Show, c.convertShowItem(span, s))
	}
	if a.Filter != nil {
		if expr, ok := c.fragment(a.Filter.Expr, sqlexpr.Filter); ok {
			r.Filter, r.HasFilter = expr, true
		}
	}
	for _, s := range a.Sort {
		r.Sort = append(r.Sort, c.convertSortItem(s))
	}
	if a.Limit != nil {
		if n, err := strconv.Atoi(*a.Limit); err == nil {
			r.Limit, r.HasLimit = n, true
		}
	}
	return r
}
