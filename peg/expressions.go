package peg

import (
	"fmt"
	"io"
	"regexp"
)

type lookupExpression struct {
	name     string
	resolved int
}

type sequenceExpression []Expression
type choiceExpression []Expression
type zeroOrMoreExpression struct{ child Expression }
type oneOrMoreExpression struct{ child Expression }
type optionalExpression struct{ child Expression }
type expectExpression struct{ child Expression }
type andPredicateExpression struct{ child Expression }
type notPredicateExpression struct{ child Expression }
type eofExpression struct{}

type patternExpression struct {
	literal  bool
	raw      string
	compiled *regexp.Regexp
}

// Lookup returns an expression that invokes the named rule of the owning
// Grammar. The name is resolved to a rule index by Parser.Prepare.
func Lookup(name string) Expression {
	return &lookupExpression{name: name, resolved: -1}
}

func (l *lookupExpression) Scan(state *State) (interface{}, error) {
	return state.Parser.rules[l.resolved].Scan(state)
}

func (l *lookupExpression) Children() []Expression { return nil }

func (l *lookupExpression) String() string { return l.name }

// Sequence returns an expression that matches expressions in order, failing
// (and propagating) as soon as one of them does not match.
func Sequence(expressions ...Expression) Expression {
	list := flatten[sequenceExpression](expressions)
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	default:
		return sequenceExpression(list)
	}
}

func (s sequenceExpression) Scan(state *State) (interface{}, error) {
	var values []interface{}
	for _, e := range s {
		v, err := e.Scan(state)
		if err != nil {
			return values, err
		}
		values = appendResult(values, v)
	}
	return values, nil
}

func (s sequenceExpression) Children() []Expression { return s }

func (s sequenceExpression) String() string {
	out := ""
	for i, c := range s {
		if i > 0 {
			out += " "
		}
		out += formatChild(s, c)
	}
	return out
}

// Choice returns an expression that tries each expression in order and
// succeeds with the first match. A failure that is not NotMatched (e.g. from
// an Expect deeper in one alternative) propagates instead of trying the next
// alternative.
func Choice(expressions ...Expression) Expression {
	list := flatten[choiceExpression](expressions)
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	default:
		return choiceExpression(list)
	}
}

func (c choiceExpression) Scan(state *State) (interface{}, error) {
	for _, e := range c {
		pos := state.position()
		v, err := e.Scan(state)
		if err == nil || err != NotMatched {
			return v, err
		}
		state.seek(pos)
	}
	return nil, NotMatched
}

func (c choiceExpression) Children() []Expression { return c }

func (c choiceExpression) String() string {
	out := ""
	for i, child := range c {
		if i > 0 {
			out += " / "
		}
		out += formatChild(c, child)
	}
	return out
}

// ZeroOrMore returns an expression that greedily matches expression zero or
// more times, never failing itself.
func ZeroOrMore(expression Expression) Expression {
	switch e := expression.(type) {
	case zeroOrMoreExpression:
		return e
	case oneOrMoreExpression:
		return zeroOrMoreExpression(e)
	case optionalExpression:
		return zeroOrMoreExpression(e)
	default:
		return zeroOrMoreExpression{child: expression}
	}
}

func (z zeroOrMoreExpression) Scan(state *State) (interface{}, error) {
	return consumeAll(state, z.child, nil)
}

func (z zeroOrMoreExpression) Children() []Expression { return []Expression{z.child} }

func (z zeroOrMoreExpression) String() string { return formatChild(z, z.child) + "*" }

// OneOrMore returns an expression that matches expression one or more
// times, failing if it does not match at least once.
func OneOrMore(expression Expression) Expression {
	switch e := expression.(type) {
	case zeroOrMoreExpression:
		return e
	case oneOrMoreExpression:
		return e
	case optionalExpression:
		return zeroOrMoreExpression(e)
	default:
		return oneOrMoreExpression{child: expression}
	}
}

func (o oneOrMoreExpression) Scan(state *State) (interface{}, error) {
	v, err := o.child.Scan(state)
	if err != nil {
		return nil, err
	}
	return consumeAll(state, o.child, appendResult(nil, v))
}

func (o oneOrMoreExpression) Children() []Expression { return []Expression{o.child} }

func (o oneOrMoreExpression) String() string { return formatChild(o, o.child) + "+" }

// Optional returns an expression that matches expression zero or one times.
func Optional(expression Expression) Expression {
	switch e := expression.(type) {
	case zeroOrMoreExpression:
		return e
	case oneOrMoreExpression:
		return zeroOrMoreExpression(e)
	case optionalExpression:
		return e
	default:
		return optionalExpression{child: expression}
	}
}

func (o optionalExpression) Scan(state *State) (interface{}, error) {
	pos := state.position()
	v, err := o.child.Scan(state)
	if err == NotMatched {
		state.seek(pos)
		return nil, nil
	}
	return v, err
}

func (o optionalExpression) Children() []Expression { return []Expression{o.child} }

func (o optionalExpression) String() string { return formatChild(o, o.child) + "?" }

// Expect returns an expression that turns a NotMatched from expression into
// a hard *ExpectError, preventing an enclosing Choice from trying further
// alternatives. Used at points in a grammar where the match is certain once
// a leading token is seen, so backtracking would only waste work and hide
// the real error.
func Expect(expression Expression) Expression {
	return expectExpression{child: expression}
}

func (e expectExpression) Scan(state *State) (interface{}, error) {
	start := state.position()
	v, err := e.child.Scan(state)
	if err == NotMatched {
		err = &ExpectError{State: state, Expression: e.child, Start: start, End: state.position()}
	}
	return v, err
}

func (e expectExpression) Children() []Expression { return []Expression{e.child} }

func (e expectExpression) String() string { return ":" + formatChild(e, e.child) }

// AndPredicate returns a non-consuming expression that succeeds if
// expression matches, without advancing the reader.
func AndPredicate(expression Expression) Expression {
	switch e := expression.(type) {
	case andPredicateExpression:
		return e
	case notPredicateExpression:
		return e
	default:
		return andPredicateExpression{child: expression}
	}
}

func (a andPredicateExpression) Scan(state *State) (interface{}, error) {
	pos := state.position()
	_, err := a.child.Scan(state)
	state.seek(pos)
	return nil, err
}

func (a andPredicateExpression) Children() []Expression { return []Expression{a.child} }

func (a andPredicateExpression) String() string { return "&" + formatChild(a, a.child) }

// NotPredicate returns a non-consuming expression that succeeds (with an
// empty match) if expression does not match.
func NotPredicate(expression Expression) Expression {
	switch e := expression.(type) {
	case andPredicateExpression:
		return notPredicateExpression(e)
	case notPredicateExpression:
		return andPredicateExpression(e)
	default:
		return notPredicateExpression{child: expression}
	}
}

func (n notPredicateExpression) Scan(state *State) (interface{}, error) {
	pos := state.position()
	_, err := n.child.Scan(state)
	state.seek(pos)
	switch err {
	case nil:
		return nil, NotMatched
	case NotMatched:
		return nil, nil
	default:
		return nil, err
	}
}

func (n notPredicateExpression) Children() []Expression { return []Expression{n.child} }

func (n notPredicateExpression) String() string { return "!" + formatChild(n, n.child) }

// EOF matches only at the end of input, consuming nothing.
var EOF Expression = eofExpression{}

func (eofExpression) Scan(state *State) (interface{}, error) {
	start := state.position()
	_, _, err := state.Reader.ReadRune()
	if err != io.EOF {
		state.seek(start)
		return nil, NotMatched
	}
	return nil, nil
}

func (eofExpression) Children() []Expression { return nil }

func (eofExpression) String() string { return "$" }

// Literal returns an expression matching the exact string s.
func Literal(s string) Expression {
	p, err := pattern(s, true)
	if err != nil {
		panic(err)
	}
	return p
}

// Pattern returns an expression matching the regular expression s, anchored
// at the current position. Capture groups in s become the expression's
// matched values.
func Pattern(s string) (Expression, error) {
	return pattern(s, false)
}

func mustPattern(s string) Expression {
	p, err := pattern(s, false)
	if err != nil {
		panic(err)
	}
	return p
}

func pattern(s string, literal bool) (*patternExpression, error) {
	p := s
	if literal {
		p = regexp.QuoteMeta(s)
	}
	r, err := regexp.Compile("^(?:" + p + ")")
	if err != nil {
		return nil, err
	}
	r.Longest()
	return &patternExpression{literal: literal, raw: s, compiled: r}, nil
}

func (p *patternExpression) Scan(state *State) (interface{}, error) {
	pos := state.position()
	match := p.compiled.FindReaderSubmatchIndex(state.Reader)
	if len(match) < 2 || match[0] == match[1] {
		state.seek(pos)
		return nil, NotMatched
	}
	var result []interface{}
	if len(match) > 2 {
		count := (len(match) / 2) - 1
		result = make([]interface{}, count)
		for i := range result {
			start := match[i*2+2]
			end := match[i*2+3]
			if start < 0 {
				continue
			}
			var err error
			result[i], err = state.readString(pos+int64(start), end-start)
			if err != nil {
				return nil, err
			}
		}
	}
	state.seek(pos + int64(match[1]))
	return result, nil
}

func (p *patternExpression) Children() []Expression { return nil }

func (p *patternExpression) String() string {
	if p.literal {
		return fmt.Sprintf("%q", p.raw)
	}
	return fmt.Sprintf("'%s'", p.raw)
}

func consumeAll(state *State, expression Expression, values []interface{}) (interface{}, error) {
	for {
		pos := state.position()
		v, err := expression.Scan(state)
		if err != nil {
			if err == NotMatched {
				state.seek(pos)
				return values, nil
			}
			return values, err
		}
		if state.position() == pos {
			return values, fmt.Errorf("peg: match without progress in %v at %q", expression, state.debugPrefix())
		}
		values = appendResult(values, v)
	}
}

func appendResult(values []interface{}, value interface{}) []interface{} {
	switch value := value.(type) {
	case nil:
		return values
	case []interface{}:
		return append(values, value...)
	default:
		return append(values, value)
	}
}

func flatten[T ~[]Expression](expressions []Expression) []Expression {
	list := make([]Expression, 0, len(expressions))
	for _, child := range expressions {
		if child == nil {
			continue
		}
		if l, ok := child.(T); ok {
			list = append(list, l...)
		} else {
			list = append(list, child)
		}
	}
	return list
}

func formatChild(parent, child Expression) string {
	switch child.(type) {
	case sequenceExpression:
		if _, isChoice := parent.(choiceExpression); !isChoice {
			return fmt.Sprintf("(%v)", child)
		}
	case choiceExpression:
		return fmt.Sprintf("(%v)", child)
	}
	return fmt.Sprintf("%v", child)
}
