package peg

import (
	"errors"
	"strings"
	"testing"
)

func newReader(s string) Reader { return strings.NewReader(s) }

func TestLiteralSequenceChoice(t *testing.T) {
	g := Grammar{
		{Name: "start", Expression: Sequence(Literal("foo"), Choice(Literal("bar"), Literal("baz")))},
	}
	p := NewParser(g)
	if _, err := p.Parse("t", newReader("foobaz")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Parse("t", newReader("foobar")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Parse("t", newReader("foobad")); err != NotMatched {
		t.Fatalf("got %v, want NotMatched", err)
	}
}

func TestOptionalAndRepetition(t *testing.T) {
	g := Grammar{
		{Name: "start", Expression: Sequence(OneOrMore(Literal("a")), Optional(Literal("b")), EOF)},
	}
	p := NewParser(g)
	for _, in := range []string{"aaa", "aaab"} {
		if _, err := p.Parse("t", newReader(in)); err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", in, err)
		}
	}
	if _, err := p.Parse("t", newReader("")); err != NotMatched {
		t.Errorf("Parse(\"\"): got %v, want NotMatched", err)
	}
}

func TestPredicates(t *testing.T) {
	g := Grammar{
		{Name: "start", Expression: Sequence(AndPredicate(Literal("a")), Literal("a"), NotPredicate(Literal("b")), Literal("c"))},
	}
	p := NewParser(g)
	if _, err := p.Parse("t", newReader("ac")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Parse("t", newReader("ab")); err != NotMatched {
		t.Fatalf("got %v, want NotMatched", err)
	}
}

func TestExpectProducesExpectError(t *testing.T) {
	g := Grammar{
		{Name: "start", Expression: Sequence(Literal("if"), Expect(Literal("then")))},
	}
	p := NewParser(g)
	_, err := p.Parse("t", newReader("ifwhen"))
	var expectErr *ExpectError
	if !errors.As(err, &expectErr) {
		t.Fatalf("got %v (%T), want *ExpectError", err, err)
	}
}

func TestLookupAndProcessorBottomUp(t *testing.T) {
	var order []string
	g := Grammar{
		{Name: "start", Expression: Lookup("digits")},
		{Name: "digits", Expression: mustPattern(`([0-9]+)`)},
	}
	p := NewParser(g)
	p.Process("digits", func(args ...interface{}) (interface{}, error) {
		order = append(order, "digits")
		return args[0], nil
	})
	p.Process("start", func(args ...interface{}) (interface{}, error) {
		order = append(order, "start")
		return args[0], nil
	})
	v, err := p.Parse("t", newReader("42"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "42" {
		t.Fatalf("value = %v, want 42", v)
	}
	if len(order) != 2 || order[0] != "digits" || order[1] != "start" {
		t.Fatalf("processor order = %v, want [digits start]", order)
	}
}

func TestPatternCaptureGroups(t *testing.T) {
	g := Grammar{
		{Name: "start", Expression: mustPattern(`([a-z]+)=([0-9]+)`)},
	}
	p := NewParser(g)
	v, err := p.Parse("t", newReader("x=10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := v.([]interface{})
	if got[0] != "x" || got[1] != "10" {
		t.Fatalf("captures = %v, want [x 10]", got)
	}
}

func TestUndeclaredRuleFailsPrepare(t *testing.T) {
	g := Grammar{
		{Name: "start", Expression: Lookup("missing")},
	}
	p := NewParser(g)
	if err := p.Prepare(); err == nil {
		t.Fatalf("expected error for undeclared rule")
	}
}
