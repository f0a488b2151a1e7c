// Package sqlexpr lifts the brace-delimited SQL-expression sublanguage
// into the typed ast.Expr tree. It never hand-rolls SQL grammar: the
// fragment is rewritten so that @atom sigils become ordinary identifiers,
// wrapped as a SELECT list, and handed to a generic off-the-shelf SQL
// expression grammar. Translating the library's parse tree into ast.Expr
// is the only place that understands SQL syntax; every later pass goes
// through ast.Expr's Walk/AtomRefs/ColumnRefs/ContainsAggregate instead of
// looking at SQL text again.
package sqlexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/druarnfield/mantis-core-sub000/internal/ast"
	"github.com/druarnfield/mantis-core-sub000/internal/diag"
)

const atomPrefix = "__ATOM__"

var atomSigil = regexp.MustCompile(`@([a-zA-Z_][a-zA-Z0-9_]*)`)

// Parse parses the raw text of a brace-delimited fragment (the characters
// between { and }, not including the braces) in the given context. span is
// the span of that same fragment in the original source; since the
// underlying grammar does not expose per-token positions, every node of
// the resulting tree is stamped with span as a whole (expression-body
// granularity, which is the minimum the language guarantees).
func Parse(fragment string, span diag.Span, ctx Context) (*ast.Expr, error) {
	rewritten := atomSigil.ReplaceAllString(fragment, atomPrefix+"$1")

	stmt, err := sqlparser.Parse("SELECT " + rewritten)
	if err != nil {
		return nil, sqlParseError(span, err.Error())
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok || len(sel.SelectExprs) != 1 {
		return nil, sqlParseError(span, "expected a single expression")
	}

	aliased, ok := sel.SelectExprs[0].(*sqlparser.AliasedExpr)
	if !ok {
		return nil, sqlParseError(span, "expected a single scalar expression, not *")
	}

	expr, err := convert(aliased.Expr, span)
	if err != nil {
		return nil, err
	}

	if ctx != Measure && expr.ContainsAggregate() {
		return nil, aggregateNotAllowed(span, ctx)
	}

	return expr, nil
}

func convert(e sqlparser.Expr, span diag.Span) (*ast.Expr, error) {
	switch n := e.(type) {
	case *sqlparser.ParenExpr:
		return convert(n.Expr, span)

	case *sqlparser.ColName:
		return convertColName(n, span)

	case *sqlparser.SQLVal:
		return convertSQLVal(n, span)

	case *sqlparser.NullVal:
		return &ast.Expr{Span: span, Kind: ast.ExprLiteral, Literal: ast.LitNull}, nil

	case *sqlparser.AndExpr:
		return binary(span, ast.OpAnd, n.Left, n.Right)

	case *sqlparser.OrExpr:
		return binary(span, ast.OpOr, n.Left, n.Right)

	case *sqlparser.NotExpr:
		return unary(span, ast.OpNot, n.Expr)

	case *sqlparser.ComparisonExpr:
		return convertComparison(n, span)

	case *sqlparser.BinaryExpr:
		return convertBinaryExpr(n, span)

	case *sqlparser.UnaryExpr:
		return convertUnaryExpr(n, span)

	case *sqlparser.IsExpr:
		return convertIsExpr(n, span)

	case *sqlparser.FuncExpr:
		return convertFuncExpr(n, span)

	case *sqlparser.CaseExpr:
		return convertCaseExpr(n, span)

	case *sqlparser.ConvertExpr:
		return convertConvertExpr(n, span)

	default:
		return nil, unsupportedFeature(span, fmt.Sprintf("expression of type %T", e))
	}
}

func convertColName(n *sqlparser.ColName, span diag.Span) (*ast.Expr, error) {
	name := n.Name.String()

	if strings.HasPrefix(name, atomPrefix) {
		return &ast.Expr{Span: span, Kind: ast.ExprAtomRef, AtomName: strings.TrimPrefix(name, atomPrefix)}, nil
	}

	switch strings.ToLower(name) {
	case "true":
		return &ast.Expr{Span: span, Kind: ast.ExprLiteral, Literal: ast.LitBool, LitBool: true}, nil
	case "false":
		return &ast.Expr{Span: span, Kind: ast.ExprLiteral, Literal: ast.LitBool, LitBool: false}, nil
	}

	qualifier := n.Qualifier.Name.String()
	if qualifier == "" {
		return &ast.Expr{Span: span, Kind: ast.ExprColumn, ColumnName: name}, nil
	}
	q := qualifier
	return &ast.Expr{Span: span, Kind: ast.ExprColumn, ColumnEntity: &q, ColumnName: name}, nil
}

func convertSQLVal(n *sqlparser.SQLVal, span diag.Span) (*ast.Expr, error) {
	switch n.Type {
	case sqlparser.StrVal:
		return &ast.Expr{Span: span, Kind: ast.ExprLiteral, Literal: ast.LitString, LitString: string(n.Val)}, nil
	case sqlparser.IntVal:
		v, err := strconv.ParseInt(string(n.Val), 10, 64)
		if err != nil {
			return nil, invalidNumber(span, string(n.Val))
		}
		return &ast.Expr{Span: span, Kind: ast.ExprLiteral, Literal: ast.LitInt, LitInt: v}, nil
	case sqlparser.FloatVal:
		v, err := strconv.ParseFloat(string(n.Val), 64)
		if err != nil {
			return nil, invalidNumber(span, string(n.Val))
		}
		return &ast.Expr{Span: span, Kind: ast.ExprLiteral, Literal: ast.LitFloat, LitFloat: v}, nil
	default:
		return nil, unsupportedFeature(span, "non-decimal numeric literal")
	}
}

func binary(span diag.Span, op ast.BinaryOp, l, r sqlparser.Expr) (*ast.Expr, error) {
	left, err := convert(l, span)
	if err != nil {
		return nil, err
	}
	right, err := convert(r, span)
	if err != nil {
		return nil, err
	}
	return &ast.Expr{Span: span, Kind: ast.ExprBinaryOp, Op: op, Left: left, Right: right}, nil
}

func unary(span diag.Span, op ast.UnaryOp, operand sqlparser.Expr) (*ast.Expr, error) {
	inner, err := convert(operand, span)
	if err != nil {
		return nil, err
	}
	return &ast.Expr{Span: span, Kind: ast.ExprUnaryOp, Unary: op, Operand: inner}, nil
}

var comparisonOps = map[string]ast.BinaryOp{
	"=":        ast.OpEq,
	"!=":       ast.OpNeq,
	"<>":       ast.OpNeq,
	"<":        ast.OpLt,
	"<=":       ast.OpLte,
	">":        ast.OpGt,
	">=":       ast.OpGte,
	"like":     ast.OpLike,
	"not like": ast.OpNotLike,
}

func convertComparison(n *sqlparser.ComparisonExpr, span diag.Span) (*ast.Expr, error) {
	op, ok := comparisonOps[strings.ToLower(n.Operator)]
	if !ok {
		return nil, unsupportedFeature(span, fmt.Sprintf("comparison operator %q", n.Operator))
	}
	return binary(span, op, n.Left, n.Right)
}

var arithmeticOps = map[string]ast.BinaryOp{
	"+": ast.OpAdd,
	"-": ast.OpSub,
	"*": ast.OpMul,
	"/": ast.OpDiv,
	"%": ast.OpMod,
}

func convertBinaryExpr(n *sqlparser.BinaryExpr, span diag.Span) (*ast.Expr, error) {
	op, ok := arithmeticOps[n.Operator]
	if !ok {
		return nil, unsupportedFeature(span, fmt.Sprintf("binary operator %q", n.Operator))
	}
	return binary(span, op, n.Left, n.Right)
}

func convertUnaryExpr(n *sqlparser.UnaryExpr, span diag.Span) (*ast.Expr, error) {
	switch n.Operator {
	case "-":
		return unary(span, ast.OpNeg, n.Expr)
	case "+":
		return convert(n.Expr, span)
	default:
		return nil, unsupportedFeature(span, fmt.Sprintf("unary operator %q", n.Operator))
	}
}

func convertIsExpr(n *sqlparser.IsExpr, span diag.Span) (*ast.Expr, error) {
	switch strings.ToLower(n.Operator) {
	case "is null":
		return unary(span, ast.OpIsNull, n.Expr)
	case "is not null":
		return unary(span, ast.OpIsNotNull, n.Expr)
	default:
		return nil, unsupportedFeature(span, fmt.Sprintf("IS predicate %q", n.Operator))
	}
}

func convertFuncExpr(n *sqlparser.FuncExpr, span diag.Span) (*ast.Expr, error) {
	name := strings.ToUpper(n.Name.String())

	if name == "COUNT" && len(n.Exprs) == 1 {
		if _, ok := n.Exprs[0].(*sqlparser.StarExpr); ok {
			return &ast.Expr{Span: span, Kind: ast.ExprFunction, FuncKind: ast.FuncAggregate, FuncName: name}, nil
		}
	}
	if name == "COUNT" && n.Distinct {
		name = "COUNT_DISTINCT"
	}

	var kind ast.FunctionKind
	switch {
	case ast.AggregateFunctions[name]:
		kind = ast.FuncAggregate
	case ast.ScalarFunctions[name]:
		kind = ast.FuncScalar
	default:
		return nil, unsupportedFeature(span, fmt.Sprintf("function %s", name))
	}

	args := make([]*ast.Expr, 0, len(n.Exprs))
	for _, se := range n.Exprs {
		aliased, ok := se.(*sqlparser.AliasedExpr)
		if !ok {
			return nil, unsupportedFeature(span, "* argument outside COUNT(*)")
		}
		a, err := convert(aliased.Expr, span)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}

	return &ast.Expr{Span: span, Kind: ast.ExprFunction, FuncKind: kind, FuncName: name, Args: args}, nil
}

func convertCaseExpr(n *sqlparser.CaseExpr, span diag.Span) (*ast.Expr, error) {
	result := &ast.Expr{Span: span, Kind: ast.ExprCase}

	if n.Expr != nil {
		operand, err := convert(n.Expr, span)
		if err != nil {
			return nil, err
		}
		result.CaseOperand = operand
	}

	for _, w := range n.Whens {
		when, err := convert(w.Cond, span)
		if err != nil {
			return nil, err
		}
		then, err := convert(w.Val, span)
		if err != nil {
			return nil, err
		}
		result.WhenClauses = append(result.WhenClauses, ast.CaseWhen{When: when, Then: then})
	}

	if n.Else != nil {
		elseExpr, err := convert(n.Else, span)
		if err != nil {
			return nil, err
		}
		result.Else = elseExpr
	}

	return result, nil
}

var castTypes = map[string]ast.DataType{
	"int": ast.TypeInt, "signed": ast.TypeInt, "integer": ast.TypeInt,
	"float": ast.TypeFloat, "double": ast.TypeFloat, "decimal": ast.TypeFloat,
	"char": ast.TypeString, "varchar": ast.TypeString, "string": ast.TypeString,
	"bool": ast.TypeBool, "boolean": ast.TypeBool,
	"date": ast.TypeDate,
	"datetime": ast.TypeTimestamp, "timestamp": ast.TypeTimestamp,
}

func convertConvertExpr(n *sqlparser.ConvertExpr, span diag.Span) (*ast.Expr, error) {
	inner, err := convert(n.Expr, span)
	if err != nil {
		return nil, err
	}

	target, ok := castTypes[strings.ToLower(n.Type.Type)]
	if !ok {
		return nil, invalidDataType(span, n.Type.Type)
	}

	return &ast.Expr{Span: span, Kind: ast.ExprCast, CastExpr: inner, CastTarget: target}, nil
}
