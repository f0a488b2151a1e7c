package dslparser

import (
	"github.com/alecthomas/participle/v2"
	plex "github.com/alecthomas/participle/v2/lexer"
)

// rawSQL captures the verbatim tokens of a brace-delimited SQL fragment
// without the grammar needing to understand SQL at all. Tokens is a
// participle sentinel name: fields of type []lexer.Token with no parser
// tag are auto-populated with every token consumed while matching the
// surrounding struct, positions included. The source slice between the
// first and last captured token's offsets is handed to sqlexpr.Parse
// unchanged, which is what lets the sublanguage reuse a different,
// generic SQL grammar instead of being specified here.
type rawSQL struct {
	Tokens []plex.Token
	Body   []string `parser:"@~(\"}\")*"`
}

type itemAST struct {
	Defaults  *defaultsAST  `parser:"  \"defaults\" @@"`
	Calendar  *calendarAST  `parser:"| \"calendar\" @@"`
	Dimension *dimensionAST `parser:"| \"dimension\" @@"`
	Table     *tableAST     `parser:"| \"table\" @@"`
	Measures  *measuresAST  `parser:"| \"measures\" @@"`
	Report    *reportAST    `parser:"| \"report\" @@"`
}

type defaultsAST struct {
	Settings []*defaultSettingAST `parser:"\"{\" @@* \"}\""`
}

type defaultSettingAST struct {
	Calendar        string `parser:"  \"calendar\" @Ident \";\""`
	FiscalYearStart string `parser:"| \"fiscal_year_start\" @Ident \";\""`
	WeekStart       string `parser:"| \"week_start\" @Ident \";\""`
	NullHandling    string `parser:"| \"null_handling\" @NullH \";\""`
	DecimalPlaces   string `parser:"| \"decimal_places\" @Int \";\""`
}

type grainMappingAST struct {
	Grain  string `parser:"@Grain \"=\""`
	Column string `parser:"@Ident \";\""`
}

type drillPathAST struct {
	Name   string   `parser:"@Ident \"{\""`
	Levels []string `parser:"@(Grain|Ident) (\"->\" @(Grain|Ident))* \"}\" \";\""`
}

type rangeExplicitAST struct {
	Start string `parser:"@Ident \"to\""`
	End   string `parser:"@Ident"`
}

type rangeInferAST struct {
	Min string `parser:"\"infer\" (\"min\" @Ident)?"`
	Max string `parser:"(\"max\" @Ident)?"`
}

type rangeAST struct {
	Explicit *rangeExplicitAST `parser:"  @@"`
	Infer    *rangeInferAST    `parser:"| @@"`
}

type generateAST struct {
	BaseGrain     string `parser:"@Grain \"+\""`
	IncludeFiscal string `parser:"(\"include\" \"fiscal\" \"[\" @Ident \"]\")?"`
	End           string `parser:"\";\""`
}

type calendarSettingAST struct {
	GrainMapping    *grainMappingAST `parser:"  @@"`
	DrillPath       *drillPathAST    `parser:"| \"drill_path\" @@"`
	Generate        *generateAST     `parser:"| \"generate\" @@"`
	Range           *rangeAST        `parser:"| \"range\" @@ \";\""`
	FiscalYearStart string           `parser:"| \"fiscal_year_start\" @Ident \";\""`
	WeekStart       string           `parser:"| \"week_start\" @Ident \";\""`
}

type calendarAST struct {
	Name     string                `parser:"@Ident"`
	Source   *string               `parser:"@String?"`
	Settings []*calendarSettingAST `parser:"\"{\" @@* \"}\""`
}

type attributeAST struct {
	Name string `parser:"@Ident"`
	Type string `parser:"@Type \";\""`
}

type dimensionAST struct {
	Name       string          `parser:"@Ident \"{\""`
	Source     string          `parser:"\"source\" @String \";\""`
	Key        string          `parser:"\"key\" @Ident \";\""`
	Attributes []*attributeAST `parser:"(\"attributes\" \"{\" @@* \"}\")?"`
	DrillPaths []*drillPathAST `parser:"(\"drill_path\" @@)*"`
	End        string          `parser:"\"}\""`
}

type atomAST struct {
	Name string `parser:"@Ident"`
	Type string `parser:"@Type \";\""`
}

type timeBindingAST struct {
	Name     string `parser:"@Ident \"->\""`
	Calendar string `parser:"@Ident \".\""`
	Grain    string `parser:"@Grain \";\""`
}

type calcSlicerAST struct {
	Type string `parser:"@Type \"=\" \"{\""`
	SQL  rawSQL `parser:"@@ \"}\" \";\""`
}

type viaSlicerAST struct {
	Through string `parser:"\"via\" @Ident \";\""`
}

type fkSlicerAST struct {
	Dimension string `parser:"\"->\" @Ident \".\""`
	Key       string `parser:"@Ident \";\""`
}

type inlineSlicerAST struct {
	Type string `parser:"@Type \";\""`
}

// slicerAST covers all four slicer shapes in one production. Alternatives
// are ordered from most to least specific (Calculated > Via > ForeignKey >
// Inline) per the grammar's documented disambiguation rule: they all
// start with IDENT, so the more specific continuations must be tried
// first or the parser would commit to the wrong shape on the shared
// prefix.
type slicerAST struct {
	Name       string           `parser:"@Ident"`
	Calculated *calcSlicerAST   `parser:"  @@"`
	Via        *viaSlicerAST    `parser:"| @@"`
	ForeignKey *fkSlicerAST     `parser:"| @@"`
	Inline     *inlineSlicerAST `parser:"| @@"`
}

type tableAST struct {
	Name    string            `parser:"@Ident \"{\""`
	Source  string            `parser:"\"source\" @String \";\""`
	Atoms   []*atomAST        `parser:"(\"atoms\" \"{\" @@* \"}\")?"`
	Times   []*timeBindingAST `parser:"(\"times\" \"{\" @@* \"}\")?"`
	Slicers []*slicerAST      `parser:"(\"slicers\" \"{\" @@* \"}\")?"`
	End     string            `parser:"\"}\""`
}

type whereClauseAST struct {
	Filter rawSQL `parser:"\"where\" \"{\" @@ \"}\""`
}

type nullClauseAST struct {
	Handling string `parser:"\"null\" @NullH"`
}

type measureAST struct {
	Name  string          `parser:"@Ident \"=\" \"{\""`
	Expr  rawSQL          `parser:"@@ \"}\""`
	Where *whereClauseAST `parser:"@@?"`
	Null  *nullClauseAST  `parser:"@@?"`
	End   string          `parser:"\";\""`
}

type measuresAST struct {
	TableName string        `parser:"@Ident \"{\""`
	Measures  []*measureAST `parser:"@@* \"}\""`
}

type groupItemAST struct {
	Tokens []plex.Token
	Source string  `parser:"@Ident \".\""`
	Path   string  `parser:"@Ident \".\""`
	Level  string  `parser:"@(Grain|Ident)"`
	Alias  *string `parser:"(\"as\" @String)? \";\""`
}

type inlineShowAST struct {
	Name  string  `parser:"@Ident \"=\" \"{\""`
	Expr  rawSQL  `parser:"@@ \"}\""`
	Alias *string `parser:"(\"as\" @String)? \";\""`
}

type measureShowAST struct {
	Name   string  `parser:"@Ident"`
	Suffix *string `parser:"(\".\" @Ident)?"`
	Alias  *string `parser:"(\"as\" @String)? \";\""`
}

// showItemAST tries the inline form (distinguished by the trailing "=")
// first, since it shares the leading IDENT with the measure form.
type showItemAST struct {
	Inline  *inlineShowAST  `parser:"  @@"`
	Measure *measureShowAST `parser:"| @@"`
}

type sortItemAST struct {
	Name string `parser:"@Ident \".\""`
	Dir  string `parser:"@SortDir"`
}

type reportFilterAST struct {
	Expr rawSQL `parser:"\"filter\" \"{\" @@ \"}\" \";\"?"`
}

type reportAST struct {
	Name    string           `parser:"@Ident \"{\""`
	From    []string         `parser:"\"from\" @Ident (\",\" @Ident)* \";\""`
	UseDate []string         `parser:"\"use_date\" @Ident (\",\" @Ident)* \";\""`
	Period  *string          `parser:"(\"period\" @Ident \";\")?"`
	Group   []*groupItemAST  `parser:"(\"group\" \"{\" @@* \"}\")?"`
	Show    []*showItemAST   `parser:"(\"show\" \"{\" @@* \"}\")?"`
	Filter  *reportFilterAST `parser:"@@?"`
	Sort    []*sortItemAST   `parser:"(\"sort\" @@ (\",\" @@)* \";\")?"`
	Limit   *string          `parser:"(\"limit\" @Int \";\")?"`
	End     string           `parser:"\"}\""`
}

var itemParser = participle.MustBuild[itemAST](
	participle.Lexer(itemLexer),
	participle.Elide("Whitespace", "LineComment", "BlockComment"),
	participle.UseLookahead(2),
)
