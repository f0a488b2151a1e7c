package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	flags "github.com/jessevdk/go-flags"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	mantis "github.com/druarnfield/mantis-core-sub000"
	"github.com/druarnfield/mantis-core-sub000/internal/semgraph"
)

const helpText = `mantis interactive shell

Commands:
  load <file>            Parse a model file, replacing the active model
  diagnostics            Show diagnostics from the last parse
  rels <file>            Load relationships + column stats (YAML) and build the graph
  path <from> <to>       find_path between two entities
  safepath <from> <to>   validate_safe_path between two entities
  grain <e1,e2,...>      infer_grain across a set of entities
  required <measure>     required_columns for a measure, e.g. sales.total_revenue
  lineage <column>       column_lineage for a column, e.g. sales.revenue
  strategy <from> <to>   find_best_join_strategy for the path between two entities
  save <file>            Write the built graph to a JSON file
  loadgraph <file>       Load a graph previously written by 'save', skipping rels
  help                   Show this help message
  exit / quit            Exit the shell
`

type options struct {
	Model         string `short:"m" long:"model" description:"model file to parse on startup"`
	Relationships string `short:"r" long:"relationships" description:"relationships/stats YAML to build the graph with on startup"`
}

type sidecar struct {
	Relationships []sidecarRelationship `yaml:"relationships"`
	Stats         []sidecarStat         `yaml:"stats"`
}

type sidecarRelationship struct {
	FromTable      string   `yaml:"from_table"`
	FromColumn     string   `yaml:"from_column"`
	ToTable        string   `yaml:"to_table"`
	ToColumn       string   `yaml:"to_column"`
	Cardinality    string   `yaml:"cardinality"`
	Confidence     float64  `yaml:"confidence"`
	Source         string   `yaml:"source"`
	Selectivity    *float64 `yaml:"selectivity"`
}

type sidecarStat struct {
	Table         string `yaml:"table"`
	Column        string `yaml:"column"`
	TotalCount    int64  `yaml:"total_count"`
	DistinctCount int64  `yaml:"distinct_count"`
	NullCount     int64  `yaml:"null_count"`
	IsUnique      bool   `yaml:"is_unique"`
}

func parseCardinality(s string) (semgraph.Cardinality, error) {
	switch s {
	case "1:1":
		return semgraph.OneToOne, nil
	case "1:N":
		return semgraph.OneToMany, nil
	case "N:1":
		return semgraph.ManyToOne, nil
	case "N:M":
		return semgraph.ManyToMany, nil
	default:
		return 0, errors.Errorf("unknown cardinality %q", s)
	}
}

func parseSource(s string) (semgraph.RelationshipSource, error) {
	switch s {
	case "foreign_key":
		return semgraph.SourceForeignKey, nil
	case "explicit":
		return semgraph.SourceExplicit, nil
	case "statistical":
		return semgraph.SourceStatistical, nil
	default:
		return 0, errors.Errorf("unknown relationship source %q", s)
	}
}

func loadSidecar(path string) ([]mantis.Relationship, map[mantis.ColumnKey]mantis.ColumnStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading relationships file")
	}
	var sc sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, nil, errors.Wrap(err, "parsing relationships yaml")
	}

	rels := make([]mantis.Relationship, 0, len(sc.Relationships))
	for i, r := range sc.Relationships {
		card, err := parseCardinality(r.Cardinality)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "relationship %d", i)
		}
		src, err := parseSource(r.Source)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "relationship %d", i)
		}
		rel := mantis.Relationship{
			FromTable: r.FromTable, FromColumn: r.FromColumn,
			ToTable: r.ToTable, ToColumn: r.ToColumn,
			Cardinality: card, Confidence: r.Confidence, Source: src,
		}
		if r.Selectivity != nil {
			rel.Selectivity, rel.HasSelectivity = *r.Selectivity, true
		}
		rels = append(rels, rel)
	}

	stats := make(map[mantis.ColumnKey]mantis.ColumnStats, len(sc.Stats))
	for _, s := range sc.Stats {
		stats[mantis.ColumnKey{Table: s.Table, Column: s.Column}] = mantis.ColumnStats{
			TotalCount: s.TotalCount, DistinctCount: s.DistinctCount,
			NullCount: s.NullCount, IsUnique: s.IsUnique,
		}
	}
	return rels, stats, nil
}

type shell struct {
	result mantis.ParseResult
	graph  *mantis.Graph
	engine *mantis.Engine
}

func (sh *shell) printDiagnostics() {
	if sh.result.Model == nil && len(sh.result.Diagnostics) == 0 {
		fmt.Println("(no model loaded)")
		return
	}
	if len(sh.result.Diagnostics) == 0 {
		color.Green("no diagnostics")
		return
	}
	for _, d := range sh.result.Diagnostics {
		line := fmt.Sprintf("[%d,%d) %s: %s", d.Span.Start, d.Span.End, d.Kind, d.Message)
		if d.Severity == 0 {
			color.Red(line)
		} else {
			color.Yellow(line)
		}
	}
}

func (sh *shell) load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "reading model file"))
		return
	}
	sh.result = mantis.Parse(string(data))
	sh.engine = nil
	sh.printDiagnostics()
	if sh.result.Model != nil {
		color.Green("model loaded: %d table(s), %d dimension(s), %d report(s)",
			len(sh.result.Model.Tables), len(sh.result.Model.Dimensions), len(sh.result.Model.Reports))
	}
}

func (sh *shell) buildGraph(path string) {
	if sh.result.Model == nil {
		fmt.Fprintln(os.Stderr, "no valid model loaded — run 'load' first")
		return
	}
	rels, stats, err := loadSidecar(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	g, err := mantis.BuildGraph(sh.result.Model, rels, stats)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "building graph"))
		return
	}
	sh.graph = g
	sh.engine = mantis.NewEngine(g)
	color.Green("graph built from %d relationship(s)", len(rels))
}

func (sh *shell) saveGraph(path string) {
	if sh.graph == nil {
		fmt.Fprintln(os.Stderr, "no graph built — run 'rels <file>' first")
		return
	}
	if err := mantis.SaveGraphFile(sh.graph, path); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "saving graph"))
		return
	}
	color.Green("graph written to %s", path)
}

func (sh *shell) loadGraph(path string) {
	g, err := mantis.LoadGraphFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "loading graph"))
		return
	}
	sh.graph = g
	sh.engine = mantis.NewEngine(g)
	color.Green("graph loaded from %s", path)
}

func printPathTable(froms, tos, cardinalities []string) {
	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"From", "To", "Cardinality"})
	for i := range froms {
		_ = table.Append([]string{froms[i], tos[i], cardinalities[i]})
	}
	_ = table.Render()
}

func (sh *shell) requireEngine() bool {
	if sh.engine == nil {
		fmt.Fprintln(os.Stderr, "no graph built — run 'rels <file>' first")
		return false
	}
	return true
}

func main() {
	var opts options
	args, err := flags.ParseArgs(&opts, os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
	_ = args

	sh := &shell{}
	if opts.Model != "" {
		sh.load(opts.Model)
	}
	if opts.Relationships != "" {
		sh.buildGraph(opts.Relationships)
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("mantis — semantic model compiler and query planner")
	fmt.Println(`Type "help" for available commands.`)
	fmt.Println()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "exit", "quit":
			return

		case "help":
			fmt.Print(helpText)

		case "load":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: load <file>")
				continue
			}
			sh.load(parts[1])

		case "diagnostics":
			sh.printDiagnostics()

		case "rels":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: rels <file>")
				continue
			}
			sh.buildGraph(parts[1])

		case "path", "safepath":
			if len(parts) < 3 || !sh.requireEngine() {
				fmt.Fprintf(os.Stderr, "usage: %s <from> <to>\n", cmd)
				continue
			}
			var path mantis.JoinPath
			var err error
			if cmd == "path" {
				path, err = sh.engine.FindPath(parts[1], parts[2])
			} else {
				path, err = sh.engine.ValidateSafePath(parts[1], parts[2])
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if len(path.Steps) == 0 {
				color.Green("same entity, zero-step path")
				continue
			}
			var froms, tos, cards []string
			for _, s := range path.Steps {
				froms = append(froms, s.From)
				tos = append(tos, s.To)
				cards = append(cards, s.Cardinality.String())
			}
			printPathTable(froms, tos, cards)

		case "grain":
			if len(parts) < 2 || !sh.requireEngine() {
				fmt.Fprintln(os.Stderr, "usage: grain <e1,e2,...>")
				continue
			}
			entities := strings.Split(parts[1], ",")
			best, err := sh.engine.InferGrain(entities)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Println(best)

		case "required":
			if len(parts) < 2 || !sh.requireEngine() {
				fmt.Fprintln(os.Stderr, "usage: required <table.measure>")
				continue
			}
			cols, err := sh.engine.RequiredColumns(parts[1])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			for _, c := range cols {
				fmt.Printf("  %s.%s\n", c.Entity, c.Column)
			}

		case "lineage":
			if len(parts) < 2 || !sh.requireEngine() {
				fmt.Fprintln(os.Stderr, "usage: lineage <table.column>")
				continue
			}
			cols, err := sh.engine.ColumnLineage(parts[1])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if len(cols) == 0 {
				fmt.Println("(no upstream lineage)")
			}
			for _, c := range cols {
				fmt.Printf("  %s.%s\n", c.Entity, c.Column)
			}

		case "save":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: save <file>")
				continue
			}
			sh.saveGraph(parts[1])

		case "loadgraph":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: loadgraph <file>")
				continue
			}
			sh.loadGraph(parts[1])

		case "strategy":
			if len(parts) < 3 || !sh.requireEngine() {
				fmt.Fprintln(os.Stderr, "usage: strategy <from> <to>")
				continue
			}
			path, err := sh.engine.FindPath(parts[1], parts[2])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			strat, err := sh.engine.FindBestJoinStrategy(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			for _, s := range strat.Steps {
				fmt.Printf("  %s -> %s: %s\n", s.Step.From, s.Step.To, s.Reason)
			}

		default:
			fmt.Fprintf(os.Stderr, "unrecognized command %q, type 'help'\n", cmd)
		}
	}
}
