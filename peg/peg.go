// Package peg implements a small recursive-descent PEG evaluator.
//
// A Grammar is an ordered list of named Rules built from the combinators in
// expressions.go (Literal, Pattern, Sequence, Choice, Optional, ZeroOrMore,
// OneOrMore, AndPredicate, NotPredicate, Lookup, Expect, EOF). A Parser binds
// a Grammar together with, per rule name, an optional Processor that lowers
// the raw match into caller-defined values. Processors run bottom-up: a
// rule's Processor only sees already-processed child values, because Scan
// always finishes matching (and processing) children before a parent rule
// returns.
package peg

import (
	"fmt"
	"io"
	"strings"
)

// Reader is the input a Parser scans. Both random access (for backtracking)
// and rune-at-a-time reads (for regex terminals) are required.
type Reader interface {
	io.RuneReader
	io.Seeker
}

// Logger receives trace events when a Parser's Trace field is set. It is
// satisfied by diag.Logger so that callers can route parse tracing through
// whatever structured-logging sink they configured, without this package
// importing a logging backend itself.
type Logger interface {
	Tracef(format string, args ...interface{})
}

// Parser is a complete recursive descent parser bound to a Grammar.
type Parser struct {
	// Grammar is the syntax being parsed. It must not be modified after the
	// first call to Prepare or Parse.
	Grammar Grammar

	// Trace, if non-nil, receives rule entry/exit events as the parser runs.
	// Nil disables tracing.
	Trace Logger

	// Root, if set, names the rule to use as the entry point. Empty means
	// the grammar's first rule.
	Root string

	processors []namedProcessor
	rules      []preparedRule
}

// Grammar holds a compiled grammar ready to use.
type Grammar []Rule

// Rule is a named expression in a Grammar.
type Rule struct {
	Name       string
	Expression Expression
}

// Expression represents a node in the grammar expression tree.
type Expression interface {
	// Scan attempts to match this node starting at the current read
	// position of state. On failure the reader is left at the furthest
	// point reached. Scan returns NotMatched for an ordinary mismatch that
	// a surrounding Choice may still recover from, or any other error for a
	// failure that should propagate.
	Scan(state *State) (interface{}, error)

	// Children returns this node's child expressions, if any. Used when
	// walking an expression tree (see Walk).
	Children() []Expression
}

// NotMatched is returned by Scan for an ordinary (recoverable) mismatch.
var NotMatched error = matchError{}

// Processor lowers a rule's matched values into a caller-defined value. It
// is invoked once per successful match of the rule it is bound to, after
// all child rules have already been processed.
type Processor func(args ...interface{}) (interface{}, error)

// State carries per-parse mutable state between Scan calls.
type State struct {
	Parser *Parser
	Name   string
	Reader Reader

	depth int
}

// ExpectError is produced when an Expect-wrapped expression fails to match.
// Expect marks points in the grammar where backtracking would waste work and
// degrade error quality, so its failure is reported with source position
// instead of being retried by an enclosing Choice.
type ExpectError struct {
	State      *State
	Expression Expression
	Start, End int64
}

type namedProcessor struct {
	name    string
	process Processor
}

// preparedRule is a Rule bound to a Parser: its Lookup children have been
// resolved to indices and its Processor, if any, has been attached.
type preparedRule struct {
	index      int
	name       string
	expression Expression
	process    Processor
}

type matchError struct{}

func (matchError) Error() string { return "no match" }

func (err *ExpectError) Error() string {
	err.State.seek(err.Start)
	return fmt.Sprintf("%s:%d:%d: expected %v, got %q",
		err.State.Name, err.Start, err.End, err.Expression,
		err.State.debugPrefix())
}

// Rule returns the rule named name, or nil.
func (g Grammar) Rule(name string) *Rule {
	for i := range g {
		if g[i].Name == name {
			return &g[i]
		}
	}
	return nil
}

// Children returns the expressions of every rule, used when walking an
// entire Grammar with Walk.
func (g Grammar) Children() []Expression {
	c := make([]Expression, 0, len(g))
	for _, r := range g {
		if r.Expression != nil {
			c = append(c, r.Expression)
		}
	}
	return c
}

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithTrace routes rule entry/exit events to logger.
func WithTrace(logger Logger) Option {
	return func(p *Parser) { p.Trace = logger }
}

// WithRoot selects name as the entry rule instead of the grammar's first
// rule.
func WithRoot(name string) Option {
	return func(p *Parser) { p.Root = name }
}

// NewParser builds a new parser for g. Call Process to bind rule processors,
// then Parse (which calls Prepare automatically).
func NewParser(g Grammar, opts ...Option) *Parser {
	p := &Parser{Grammar: g}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepare readies a parser for use: it resolves every Lookup expression to
// its rule index and binds processors to their rules. It is called
// automatically by Parse but can be invoked earlier to validate a grammar.
// Once Prepare has run, the Grammar and processors must not change.
func (p *Parser) Prepare() error {
	if p.rules != nil {
		return nil
	}
	if len(p.Grammar) == 0 {
		return fmt.Errorf("peg: grammar has no rules")
	}
	p.rules = make([]preparedRule, 0, len(p.Grammar))
	for _, r := range p.Grammar {
		if r.Name == "" {
			continue
		}
		p.rules = append(p.rules, preparedRule{
			index:      len(p.rules),
			name:       r.Name,
			expression: r.Expression,
		})
	}
	resolve := func(e Expression) error {
		l, ok := e.(*lookupExpression)
		if !ok {
			return nil
		}
		rule := p.lookup(l.name)
		if rule == nil {
			return fmt.Errorf("peg: rule %q not declared", l.name)
		}
		l.resolved = rule.index
		return nil
	}
	for _, root := range p.Grammar.Children() {
		if err := Walk(root, resolve); err != nil {
			return err
		}
	}
	for _, entry := range p.processors {
		rule := p.lookup(entry.name)
		if rule == nil {
			return fmt.Errorf("peg: no rule %q for processor", entry.name)
		}
		rule.process = entry.process
	}
	return nil
}

func (p *Parser) lookup(name string) *preparedRule {
	for i := range p.rules {
		if p.rules[i].name == name {
			return &p.rules[i]
		}
	}
	return nil
}

// Process binds a Processor to the rule named name. It must be called
// before Prepare/Parse.
func (p *Parser) Process(name string, f Processor) {
	if p.rules != nil {
		panic("peg: Process called after Prepare")
	}
	p.processors = append(p.processors, namedProcessor{name: name, process: f})
}

// Parse runs the parser over r. name identifies the input in error
// messages.
func (p *Parser) Parse(name string, r Reader) (interface{}, error) {
	if err := p.Prepare(); err != nil {
		return nil, err
	}
	state := State{Parser: p, Name: name, Reader: r}
	var rule *preparedRule
	if p.Root == "" {
		rule = &p.rules[0]
	} else {
		rule = p.lookup(p.Root)
		if rule == nil {
			return nil, fmt.Errorf("peg: invalid root rule %q", p.Root)
		}
	}
	return rule.Scan(&state)
}

func (r *preparedRule) Scan(state *State) (interface{}, error) {
	state.depth++
	defer func() { state.depth-- }()
	if r.expression == nil {
		return nil, fmt.Errorf("peg: rule %q not defined", r.name)
	}
	state.debugTrace(">", r.name)
	value, err := r.expression.Scan(state)
	if err == nil && r.process != nil {
		switch v := value.(type) {
		case []interface{}:
			value, err = r.process(v...)
		default:
			value, err = r.process(v)
		}
	}
	state.debugTrace("<", r.name)
	return value, err
}

// Walk invokes callback for root and then, depth-first, for every
// expression reachable through Children.
func Walk(root Expression, callback func(e Expression) error) error {
	if err := callback(root); err != nil {
		return err
	}
	for _, c := range root.Children() {
		if err := Walk(c, callback); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) position() int64 {
	pos, err := s.Reader.Seek(0, io.SeekCurrent)
	if err != nil {
		panic(err)
	}
	return pos
}

func (s *State) seek(pos int64) {
	if _, err := s.Reader.Seek(pos, io.SeekStart); err != nil {
		panic(err)
	}
}

func (s *State) readString(at int64, size int) (string, error) {
	pos := s.position()
	defer s.seek(pos)
	s.seek(at)
	b := strings.Builder{}
	remaining := size
	for remaining > 0 {
		r, w, err := s.Reader.ReadRune()
		if err != nil {
			return b.String(), err
		}
		remaining -= w
		if _, err := b.WriteRune(r); err != nil {
			return b.String(), err
		}
	}
	return b.String(), nil
}

func (s *State) debugPrefix() string {
	const size = 20
	pos := s.position()
	defer s.seek(pos)
	b := strings.Builder{}
	remaining := size
	for remaining > 0 {
		r, w, err := s.Reader.ReadRune()
		if err != nil {
			break
		}
		remaining -= w
		b.WriteRune(r)
	}
	return b.String()
}

func (s *State) debugTrace(direction string, name string) {
	if s.Parser.Trace == nil {
		return
	}
	const indent = "......................................................................"
	prefix := ""
	if s.depth <= len(indent) {
		prefix = indent[:s.depth]
	}
	p := s.debugPrefix()
	if p != "" {
		s.Parser.Trace.Tracef("%s%s%s [%d] %q", prefix, direction, name, s.position(), p)
		return
	}
	s.Parser.Trace.Tracef("%s%s%s [%d]", prefix, direction, name, s.position())
}
