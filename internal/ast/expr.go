// Package ast holds the span-tracked syntax tree produced by the grammar
// and SQL-expression parser: the raw shape of a model file before
// lowering resolves any names.
package ast

import "github.com/druarnfield/mantis-core-sub000/internal/diag"

// DataType is the bounded set of value types usable for atoms, slicer
// attributes, and CAST targets. Not every member is legal in every
// position; callers enforce the narrower allow-lists (e.g. CAST excludes
// Decimal).
type DataType int

const (
	TypeInt DataType = iota
	TypeDecimal
	TypeFloat
	TypeString
	TypeBool
	TypeDate
	TypeTimestamp
)

func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeDecimal:
		return "decimal"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// ExprKind discriminates the variants of Expr. Expr is a flat tagged union
// rather than an interface hierarchy so that a single recursive Walk can
// visit every shape without a type switch at each call site.
type ExprKind int

const (
	ExprAtomRef ExprKind = iota
	ExprColumn
	ExprLiteral
	ExprBinaryOp
	ExprUnaryOp
	ExprFunction
	ExprCase
	ExprCast
)

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	OpLike
	OpNotLike
)

type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
	OpIsNull
	OpIsNotNull
)

type FunctionKind int

const (
	FuncAggregate FunctionKind = iota
	FuncScalar
)

type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
	LitNull
)

// AggregateFunctions is the closed allow-list of aggregate heads.
var AggregateFunctions = map[string]bool{
	"SUM": true, "COUNT": true, "AVG": true, "MIN": true, "MAX": true,
	"COUNT_DISTINCT": true,
}

// ScalarFunctions is the closed allow-list of scalar heads. Anything else
// is rejected with UnsupportedFeature by the SQL-expression parser.
var ScalarFunctions = map[string]bool{
	"COALESCE": true, "NULLIF": true, "UPPER": true, "LOWER": true,
	"SUBSTRING": true, "ABS": true, "ROUND": true, "FLOOR": true, "CEIL": true,
}

// ColumnRef is a resolved-or-not (entity, name) pair as produced by
// ColumnRefs; Entity is nil for a bare, unqualified reference.
type ColumnRef struct {
	Entity *string
	Name   string
}

// CaseWhen is one WHEN/THEN arm of a Case expression.
type CaseWhen struct {
	When *Expr
	Then *Expr
}

// Expr is the typed expression AST produced by the SQL-expression parser.
// Only the fields relevant to Kind are populated; see the ExprKind
// constants for which.
type Expr struct {
	Span diag.Span
	Kind ExprKind

	// ExprAtomRef
	AtomName string

	// ExprColumn
	ColumnEntity *string
	ColumnName   string

	// ExprLiteral
	Literal   LiteralKind
	LitInt    int64
	LitFloat  float64
	LitString string
	LitBool   bool

	// ExprBinaryOp
	Op          BinaryOp
	Left, Right *Expr

	// ExprUnaryOp (Operand also doubles as the Cast source expr is NOT
	// reused here; Cast has its own field below)
	Unary   UnaryOp
	Operand *Expr

	// ExprFunction
	FuncKind FunctionKind
	FuncName string
	Args     []*Expr

	// ExprCase
	CaseOperand *Expr
	WhenClauses []CaseWhen
	Else        *Expr

	// ExprCast
	CastExpr   *Expr
	CastTarget DataType
}

// Walk performs a depth-first traversal of e and every descendant,
// invoking visit on each node including e itself. It is the sole sanctioned
// way to inspect an Expr tree; no pass downstream of the SQL-expression
// parser may pattern-match on SQL text.
func (e *Expr) Walk(visit func(*Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch e.Kind {
	case ExprBinaryOp:
		e.Left.Walk(visit)
		e.Right.Walk(visit)
	case ExprUnaryOp:
		e.Operand.Walk(visit)
	case ExprFunction:
		for _, a := range e.Args {
			a.Walk(visit)
		}
	case ExprCase:
		e.CaseOperand.Walk(visit)
		for _, w := range e.WhenClauses {
			w.When.Walk(visit)
			w.Then.Walk(visit)
		}
		e.Else.Walk(visit)
	case ExprCast:
		e.CastExpr.Walk(visit)
	}
}

// AtomRefs returns the distinct @name references in e, in first-seen order.
func (e *Expr) AtomRefs() []string {
	seen := make(map[string]bool)
	var names []string
	e.Walk(func(n *Expr) {
		if n.Kind == ExprAtomRef && !seen[n.AtomName] {
			seen[n.AtomName] = true
			names = append(names, n.AtomName)
		}
	})
	return names
}

// ColumnRefs returns every bare or qualified column reference in e.
func (e *Expr) ColumnRefs() []ColumnRef {
	var refs []ColumnRef
	e.Walk(func(n *Expr) {
		if n.Kind == ExprColumn {
			refs = append(refs, ColumnRef{Entity: n.ColumnEntity, Name: n.ColumnName})
		}
	})
	return refs
}

// ContainsAggregate reports whether e or any descendant is an aggregate
// function call.
func (e *Expr) ContainsAggregate() bool {
	found := false
	e.Walk(func(n *Expr) {
		if n.Kind == ExprFunction && n.FuncKind == FuncAggregate {
			found = true
		}
	})
	return found
}
