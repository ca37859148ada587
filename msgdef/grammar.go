package msgdef

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ternaris-go/typesys/peg"
)

// rawItemKind discriminates a definition line inside a message body before
// normalization.
type rawItemKind int

const (
	rawConst rawItemKind = iota + 1
	rawField
)

type rawItem struct {
	kind  rawItemKind
	name  string
	base  BaseName // rawConst only
	cKind ConstKind
	cInt  int64
	cFlt  float64
	cBool bool
	cStr  string
	field Field // rawField only
}

type rawMsgDef struct {
	name  string
	items []rawItem
}

func mustPattern(s string) peg.Expression {
	e, err := peg.Pattern(s)
	if err != nil {
		panic(err)
	}
	return e
}

// tok wraps expr with leading whitespace/comment skipping. The grammar engine
// never skips anything implicitly, so the MSG grammar places the "_" rule in
// front of every token itself.
func tok(expr peg.Expression) peg.Expression {
	return peg.Sequence(peg.Lookup("_"), expr)
}

func seq(exprs ...peg.Expression) peg.Expression {
	wrapped := make([]peg.Expression, len(exprs))
	for i, e := range exprs {
		wrapped[i] = tok(e)
	}
	return peg.Sequence(wrapped...)
}

func identity(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return args[0], nil
}

func discard(args ...interface{}) (interface{}, error) { return nil, nil }

func buildGrammar() peg.Grammar {
	g := peg.Grammar{
		{Name: "_", Expression: peg.Optional(mustPattern(`(?:[ \t\r\n]|#[^\n]*)+`))},

		{Name: "specification", Expression: seq(
			peg.Lookup("msgdef"),
			peg.ZeroOrMore(seq(peg.Lookup("msgsep"), peg.Lookup("msgdef"))),
			peg.EOF,
		)},

		{Name: "msgdef", Expression: seq(
			mustPattern(`MSG:\s`),
			peg.Expect(peg.Lookup("scoped_name")),
			peg.ZeroOrMore(peg.Lookup("definition")),
		)},

		{Name: "msgsep", Expression: peg.Literal(strings.Repeat("=", 80))},

		{Name: "definition", Expression: peg.Choice(
			peg.Lookup("const_dcl"),
			peg.Lookup("field_dcl"),
		)},

		{Name: "const_dcl", Expression: peg.Choice(
			seq(
				peg.Literal("string"),
				peg.Lookup("identifier"),
				peg.Literal("="),
				peg.Sequence(peg.NotPredicate(mustPattern(strings.Repeat("=", 79)+`\n`)), tok(mustPattern(`([^\n]+)`))),
			),
			seq(peg.Lookup("type_spec"), peg.Lookup("identifier"), peg.Literal("="), peg.Lookup("float_literal")),
			seq(peg.Lookup("type_spec"), peg.Lookup("identifier"), peg.Literal("="), peg.Lookup("integer_literal")),
			seq(peg.Lookup("type_spec"), peg.Lookup("identifier"), peg.Literal("="), peg.Lookup("boolean_literal")),
		)},

		{Name: "field_dcl", Expression: seq(
			peg.Lookup("type_spec"),
			peg.Lookup("identifier"),
			peg.Optional(peg.Lookup("default_value")),
		)},

		{Name: "type_spec", Expression: peg.Choice(
			peg.Lookup("array_type_spec"),
			peg.Lookup("bounded_array_type_spec"),
			peg.Lookup("simple_type_spec"),
		)},

		{Name: "array_type_spec", Expression: seq(peg.Lookup("simple_type_spec"), peg.Lookup("array_size"))},
		{Name: "bounded_array_type_spec", Expression: seq(peg.Lookup("simple_type_spec"), peg.Lookup("array_bounds"))},

		{Name: "simple_type_spec", Expression: peg.Choice(
			seq(peg.Literal("string"), peg.Literal("<="), peg.Lookup("integer_literal")),
			peg.Lookup("scoped_name"),
		)},

		{Name: "array_size", Expression: seq(
			peg.Literal("["),
			peg.Optional(peg.Lookup("integer_literal")),
			peg.Literal("]"),
		)},

		{Name: "array_bounds", Expression: seq(
			peg.Literal("[<="),
			peg.Lookup("integer_literal"),
			peg.Literal("]"),
		)},

		{Name: "scoped_name", Expression: peg.Choice(
			seq(peg.Lookup("identifier"), peg.Literal("/"), peg.Lookup("scoped_name")),
			peg.Lookup("identifier"),
		)},

		{Name: "identifier", Expression: tok(mustPattern(`([a-zA-Z_][a-zA-Z_0-9]*)`))},

		{Name: "default_value", Expression: peg.Lookup("literal")},

		{Name: "literal", Expression: peg.Choice(
			peg.Lookup("float_literal"),
			peg.Lookup("integer_literal"),
			peg.Lookup("boolean_literal"),
			peg.Lookup("string_literal"),
			peg.Lookup("array_literal"),
		)},

		{Name: "boolean_literal", Expression: tok(mustPattern(`([tT][rR][uU][eE]|[fF][aA][lL][sS][eE]|0|1)`))},

		{Name: "integer_literal", Expression: peg.Choice(
			peg.Lookup("hexadecimal_literal"),
			peg.Lookup("octal_literal"),
			peg.Lookup("decimal_literal"),
		)},

		{Name: "decimal_literal", Expression: peg.Choice(
			tok(mustPattern(`([-+]?[1-9][0-9]+)`)),
			tok(mustPattern(`([-+]?[0-9])`)),
		)},
		{Name: "octal_literal", Expression: tok(mustPattern(`([-+]?0[0-7]+)`))},
		{Name: "hexadecimal_literal", Expression: tok(mustPattern(`([-+]?0[xX][a-fA-F0-9]+)`))},

		{Name: "float_literal", Expression: peg.Choice(
			tok(mustPattern(`([-+]?[0-9]*\.[0-9]+(?:[eE][-+]?[0-9]+)?)`)),
			tok(mustPattern(`([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+))`)),
		)},

		{Name: "string_literal", Expression: peg.Choice(
			mustPattern(`"((?:\\.|[^"])*)"`),
			mustPattern(`'((?:\\.|[^'])*)'`),
		)},

		{Name: "array_literal", Expression: seq(
			peg.Literal("["),
			peg.Optional(peg.Lookup("array_elements")),
			peg.Literal("]"),
		)},

		{Name: "array_elements", Expression: peg.Choice(
			seq(peg.Lookup("literal"), peg.Literal(","), peg.Lookup("array_elements")),
			peg.Lookup("literal"),
		)},
	}
	return g
}

func bindProcessors(p *peg.Parser) {
	p.Process("identifier", identity)
	p.Process("scoped_name", func(args ...interface{}) (interface{}, error) {
		if len(args) == 1 {
			return args[0], nil
		}
		return args[0].(string) + "/" + args[1].(string), nil
	})

	p.Process("simple_type_spec", func(args ...interface{}) (interface{}, error) {
		// "string" and "<=" are uncaptured literals, so both alternatives of
		// this rule reduce to exactly one arg; the scoped_name alternative
		// and the string<=N alternative are told apart by that arg's
		// dynamic type (string vs. the int64 integer_literal already
		// parsed), not by arg count.
		switch v := args[0].(type) {
		case string:
			name := v
			if alias, ok := typeAliases[name]; ok {
				name = alias
			}
			if baseTypes[BaseName(name)] {
				return Field{Kind: FieldBase, Base: BaseName(name)}, nil
			}
			return Field{Kind: FieldName, Name: name}, nil
		case int64:
			return Field{Kind: FieldBase, Base: String, StringBound: int(v)}, nil
		default:
			return nil, fmt.Errorf("msgdef: unexpected simple_type_spec arg type %T", v)
		}
	})

	p.Process("array_size", identity)
	p.Process("array_bounds", identity)

	p.Process("array_type_spec", func(args ...interface{}) (interface{}, error) {
		inner := args[0].(Field)
		if len(args) == 2 {
			n := args[1].(int64)
			return Field{Kind: FieldArray, Inner: &inner, Length: int(n)}, nil
		}
		return Field{Kind: FieldSequence, Inner: &inner, Bound: 0}, nil
	})

	p.Process("bounded_array_type_spec", func(args ...interface{}) (interface{}, error) {
		inner := args[0].(Field)
		bound := args[1].(int64)
		return Field{Kind: FieldSequence, Inner: &inner, Bound: int(bound)}, nil
	})

	p.Process("decimal_literal", func(args ...interface{}) (interface{}, error) {
		return strconv.ParseInt(strings.TrimSpace(args[0].(string)), 10, 64)
	})
	p.Process("octal_literal", func(args ...interface{}) (interface{}, error) {
		return strconv.ParseInt(args[0].(string), 8, 64)
	})
	p.Process("hexadecimal_literal", func(args ...interface{}) (interface{}, error) {
		return strconv.ParseInt(args[0].(string), 0, 64)
	})
	p.Process("float_literal", func(args ...interface{}) (interface{}, error) {
		return strconv.ParseFloat(args[0].(string), 64)
	})
	p.Process("boolean_literal", func(args ...interface{}) (interface{}, error) {
		lower := strings.ToLower(args[0].(string))
		return lower == "true" || lower == "1", nil
	})
	p.Process("string_literal", identity)
	p.Process("default_value", discard)
	p.Process("literal", discard)
	p.Process("array_literal", discard)
	p.Process("array_elements", discard)
	p.Process("msgsep", discard)

	p.Process("const_dcl", func(args ...interface{}) (interface{}, error) {
		if len(args) == 2 {
			name := normalizeFieldName(args[0].(string))
			return rawItem{kind: rawConst, name: name, base: String, cKind: ConstString, cStr: strings.TrimSpace(args[1].(string))}, nil
		}
		typeField := args[0].(Field)
		name := normalizeFieldName(args[1].(string))
		item := rawItem{kind: rawConst, name: name, base: typeField.Base}
		switch v := args[2].(type) {
		case float64:
			item.cKind, item.cFlt = ConstFloat, v
		case int64:
			item.cKind, item.cInt = ConstInt, v
		case bool:
			item.cKind, item.cBool = ConstBool, v
		}
		return item, nil
	})

	p.Process("field_dcl", func(args ...interface{}) (interface{}, error) {
		field := args[0].(Field)
		name := normalizeFieldName(args[1].(string))
		return rawItem{kind: rawField, name: name, field: field}, nil
	})

	p.Process("msgdef", func(args ...interface{}) (interface{}, error) {
		name := normalizeMsgType(args[0].(string))
		items := make([]rawItem, 0, len(args)-1)
		for _, a := range args[1:] {
			items = append(items, a.(rawItem))
		}
		return rawMsgDef{name: name, items: items}, nil
	})

	p.Process("specification", func(args ...interface{}) (interface{}, error) {
		defs := make([]rawMsgDef, 0, len(args))
		for _, a := range args {
			defs = append(defs, a.(rawMsgDef))
		}

		names := make([]string, 0, len(defs))
		byName := make(map[string][]rawItem, len(defs))
		order := make([]string, 0, len(defs))
		for _, d := range defs {
			if _, seen := byName[d.name]; !seen {
				order = append(order, d.name)
			}
			byName[d.name] = d.items
			names = append(names, d.name)
		}

		dict := make(Dictionary, len(order))
		for _, name := range order {
			items := byName[name]
			msg := Message{}
			for _, it := range items {
				switch it.kind {
				case rawConst:
					msg.Constants = append(msg.Constants, Constant{
						Name: it.name, Base: it.base, Kind: it.cKind,
						Int: it.cInt, Float: it.cFlt, Bool: it.cBool, String: it.cStr,
					})
				case rawField:
					msg.Fields = append(msg.Fields, NamedField{
						Name:  it.name,
						Field: normalizeFieldType(name, it.field, names),
					})
				}
			}
			dict[name] = msg
		}
		return dict, nil
	})
}
