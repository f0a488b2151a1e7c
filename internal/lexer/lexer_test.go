package lexer

import (
	"testing"

	"github.com/druarnfield/mantis-core-sub000/internal/diag"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestAll_BasicTokens(t *testing.T) {
	toks := All(`table sales { source "fact_sales"; }`, nil)

	want := []Kind{Keyword, Ident, Symbol, Keyword, String, Symbol, Symbol, EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAll_KeywordCaseFolding(t *testing.T) {
	toks := All("TABLE Table table", nil)
	for i, tok := range toks[:3] {
		if tok.Kind != Keyword {
			t.Errorf("token %d kind = %v, want Keyword", i, tok.Kind)
		}
		if tok.Value != "table" {
			t.Errorf("token %d value = %q, want %q", i, tok.Value, "table")
		}
	}
}

func TestAll_ArrowIsSingleSymbol(t *testing.T) {
	toks := All("order_date -> dates.day", nil)
	if toks[1].Kind != Symbol || toks[1].Value != "->" {
		t.Errorf("token 1 = %+v, want Symbol \"->\"", toks[1])
	}
}

func TestAll_FloatVsIntVsDotSymbol(t *testing.T) {
	toks := All("3.14 7 a.b", nil)
	if toks[0].Kind != Float || toks[0].Value != "3.14" {
		t.Errorf("token 0 = %+v, want Float 3.14", toks[0])
	}
	if toks[1].Kind != Int || toks[1].Value != "7" {
		t.Errorf("token 1 = %+v, want Int 7", toks[1])
	}
	// a.b: Ident "a", Symbol ".", Ident "b" -- the dot does not join a
	// trailing identifier into a float.
	if toks[2].Kind != Ident || toks[3].Kind != Symbol || toks[3].Value != "." || toks[4].Kind != Ident {
		t.Errorf("a.b tokens = %+v", toks[2:5])
	}
}

func TestAll_CommentsAreSkipped(t *testing.T) {
	toks := All("a // line comment\nb /* block\ncomment */ c", nil)
	var values []string
	for _, tok := range toks {
		if tok.Kind == Ident {
			values = append(values, tok.Value)
		}
	}
	want := []string{"a", "b", "c"}
	if len(values) != len(want) {
		t.Fatalf("idents = %v, want %v", values, want)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("ident %d = %q, want %q", i, values[i], want[i])
		}
	}
}

func TestAll_UnterminatedStringReportsAndRecovers(t *testing.T) {
	bag := &diag.Bag{}
	toks := All(`"unterminated`, bag)
	if !bag.HasErrors() {
		t.Fatalf("expected an error diagnostic for unterminated string")
	}
	if toks[0].Kind != String {
		t.Errorf("token 0 kind = %v, want String", toks[0].Kind)
	}
	if toks[len(toks)-1].Kind != EOF {
		t.Errorf("last token kind = %v, want EOF", toks[len(toks)-1].Kind)
	}
}

func TestAll_IllegalCharacterReportsAndContinues(t *testing.T) {
	bag := &diag.Bag{}
	toks := All("a # b", bag)
	if !bag.HasErrors() {
		t.Fatalf("expected an error diagnostic for illegal character")
	}
	var identValues []string
	for _, tok := range toks {
		if tok.Kind == Ident {
			identValues = append(identValues, tok.Value)
		}
	}
	if len(identValues) != 2 || identValues[0] != "a" || identValues[1] != "b" {
		t.Errorf("idents after recovery = %v, want [a b]", identValues)
	}
}

func TestAll_LeadingBOMStripped(t *testing.T) {
	toks := All("\xef\xbb\xbftable", nil)
	if toks[0].Kind != Keyword || toks[0].Span.Start != 3 {
		t.Errorf("token 0 = %+v, want Keyword \"table\" starting at 3, its offset in the original source", toks[0])
	}
}

func TestIsKeyword(t *testing.T) {
	cases := []struct {
		word string
		want bool
	}{
		{"table", true},
		{"fiscal_quarter", true},
		{"rolling_3m_avg", true},
		{"revenue", false},
		{"Table", false}, // IsKeyword expects already-lowercased input
	}
	for _, c := range cases {
		if got := IsKeyword(c.word); got != c.want {
			t.Errorf("IsKeyword(%q) = %v, want %v", c.word, got, c.want)
		}
	}
}
