// Package msgdef parses MSG-format message definitions into a type
// dictionary: a PEG grammar walks the text bottom-up, normalizing field and
// message typenames as each rule reduces, and the result is a Dictionary
// ready for insertion into a type store.
package msgdef

import (
	"strings"

	"github.com/ternaris-go/typesys/diag"
	"github.com/ternaris-go/typesys/peg"
)

type config struct {
	logger diag.Logger
}

// Option configures a Parse or ParseMessage call.
type Option func(*config)

// WithLogger routes grammar tracing and per-parse diagnostics through
// logger instead of discarding them.
func WithLogger(logger diag.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func newConfig(opts []Option) config {
	c := config{logger: diag.Discard}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Parse parses one or more concatenated MSG definitions (each introduced by
// its own "MSG: name" header and separated by an 80-'=' line, the shape
// Rosbag1 connection headers use) into a Dictionary.
func Parse(text string, opts ...Option) (Dictionary, error) {
	cfg := newConfig(opts)

	p := peg.NewParser(buildGrammar(), peg.WithRoot("specification"), peg.WithTrace(cfg.logger))
	bindProcessors(p)

	value, err := p.Parse("msgdef", strings.NewReader(text))
	if err != nil {
		return nil, diag.NewParseError(snippet(text), err)
	}
	dict := value.(Dictionary)

	cfg.logger.Debug("parsed message definition", map[string]interface{}{"types": len(dict)})
	return dict, nil
}

// ParseMessage parses a single message body, prefixing the "MSG: typename"
// header Parse expects.
func ParseMessage(typename, text string, opts ...Option) (Dictionary, error) {
	return Parse("MSG: "+typename+"\n"+text, opts...)
}

func snippet(text string) string {
	const max = 60
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
