package ast

import (
	"reflect"
	"testing"
)

func atomRef(name string) *Expr { return &Expr{Kind: ExprAtomRef, AtomName: name} }

func TestExpr_AtomRefs_Deduplicated(t *testing.T) {
	e := &Expr{
		Kind: ExprBinaryOp,
		Op:   OpAdd,
		Left: atomRef("revenue"),
		Right: &Expr{
			Kind: ExprBinaryOp,
			Op:   OpSub,
			Left: atomRef("cost"),
			Right: atomRef("revenue"),
		},
	}

	got := e.AtomRefs()
	want := []string{"revenue", "cost"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AtomRefs() = %v, want %v", got, want)
	}
}

func TestExpr_ColumnRefs(t *testing.T) {
	entity := "sales"
	e := &Expr{
		Kind: ExprFunction,
		FuncKind: FuncAggregate,
		FuncName: "SUM",
		Args: []*Expr{
			{Kind: ExprColumn, ColumnEntity: &entity, ColumnName: "amount"},
			{Kind: ExprColumn, ColumnName: "discount"},
		},
	}

	refs := e.ColumnRefs()
	if len(refs) != 2 {
		t.Fatalf("ColumnRefs() = %v, want 2 entries", refs)
	}
	if refs[0].Entity == nil || *refs[0].Entity != "sales" || refs[0].Name != "amount" {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].Entity != nil || refs[1].Name != "discount" {
		t.Errorf("refs[1] = %+v", refs[1])
	}
}

func TestExpr_ContainsAggregate(t *testing.T) {
	agg := &Expr{Kind: ExprFunction, FuncKind: FuncAggregate, FuncName: "SUM", Args: []*Expr{atomRef("x")}}
	if !agg.ContainsAggregate() {
		t.Errorf("expected ContainsAggregate true for a SUM() call")
	}

	scalar := &Expr{Kind: ExprFunction, FuncKind: FuncScalar, FuncName: "UPPER", Args: []*Expr{atomRef("x")}}
	if scalar.ContainsAggregate() {
		t.Errorf("expected ContainsAggregate false for a scalar-only expression")
	}

	nested := &Expr{Kind: ExprCase, CaseOperand: atomRef("x"), WhenClauses: []CaseWhen{
		{When: atomRef("y"), Then: agg},
	}, Else: atomRef("z")}
	if !nested.ContainsAggregate() {
		t.Errorf("expected ContainsAggregate true when an aggregate is nested in a CASE arm")
	}
}

func TestExpr_Walk_NilIsNoOp(t *testing.T) {
	var e *Expr
	calls := 0
	e.Walk(func(*Expr) { calls++ })
	if calls != 0 {
		t.Errorf("Walk on nil Expr invoked visit %d times, want 0", calls)
	}
}

func TestDataType_String(t *testing.T) {
	cases := map[DataType]string{
		TypeInt: "int", TypeDecimal: "decimal", TypeFloat: "float",
		TypeString: "string", TypeBool: "bool", TypeDate: "date", TypeTimestamp: "timestamp",
	}
	for dt, want := range cases {
		if got := dt.String(); got != want {
			t.Errorf("DataType(%d).String() = %q, want %q", dt, got, want)
		}
	}
}
