// Package jsonmeta describes the shape of JSON documents and reports the
// values of configured JSONPath selectors.
package jsonmeta

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/agentic-research/fsmap/internal/config"
	"github.com/agentic-research/fsmap/internal/extract"
	"github.com/agentic-research/fsmap/internal/markup"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	log "github.com/sirupsen/logrus"
)

var Suffixes = []string{".json"}

type selector struct {
	path string
	expr jp.Expr
}

// Extractor emits <json> blocks.
type Extractor struct {
	fs        billy.Filesystem
	selectors []selector
	log       log.FieldLogger
}

type Option func(*Extractor)

func WithFS(fs billy.Filesystem) Option {
	return func(x *Extractor) { x.fs = fs }
}

func WithLogger(logger log.FieldLogger) Option {
	return func(x *Extractor) { x.log = logger }
}

// New compiles the configured selectors. An invalid JSONPath is an error.
func New(cfg *config.JSON, opts ...Option) (*Extractor, error) {
	x := &Extractor{log: log.StandardLogger()}
	if cfg != nil {
		for _, s := range cfg.Selectors {
			expr, err := jp.ParseString(s)
			if err != nil {
				return nil, fmt.Errorf("invalid jsonpath '%s': %w", s, err)
			}
			x.selectors = append(x.selectors, selector{path: s, expr: expr})
		}
	}
	for _, o := range opts {
		o(x)
	}
	if x.fs == nil {
		x.fs = osfs.New("/")
	}
	return x, nil
}

func (x *Extractor) Name() string { return "json" }

func (x *Extractor) Expose() ([]string, extract.Func) {
	return Suffixes, x.Extract
}

// Extract parses path and describes it. Unparseable files give an empty
// block and a warning.
func (x *Extractor) Extract(_ context.Context, path string, _ int) extract.Block {
	data, err := util.ReadFile(x.fs, path)
	if err != nil {
		x.log.Warnf("(json): %s: %v", path, err)
		return nil
	}
	doc, err := oj.Parse(data)
	if err != nil {
		x.log.Warnf("(json): %s: %v", path, err)
		return nil
	}
	return x.Describe(doc)
}

// Describe renders the block for an already parsed document.
func (x *Extractor) Describe(doc any) extract.Block {
	attrs := markup.Attrs{{Name: "type", Value: TypeOf(doc)}}
	switch v := doc.(type) {
	case map[string]any:
		attrs.Add("size", strconv.Itoa(len(v)))
	case []any:
		attrs.Add("size", strconv.Itoa(len(v)))
	}

	block := extract.Block{markup.StartTag("json", attrs)}
	if obj, ok := doc.(map[string]any); ok {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			block = append(block, " "+markup.EmptyElement("key", markup.Attrs{
				{Name: "name", Value: k},
				{Name: "type", Value: TypeOf(obj[k])},
			}))
		}
	}
	for _, s := range x.selectors {
		results := s.expr.Get(doc)
		if len(results) == 0 {
			continue
		}
		var value any = results
		if len(results) == 1 {
			value = results[0]
		}
		block = append(block, " "+markup.StartTag("select", markup.Attrs{{Name: "path", Value: s.path}})+
			markup.Escape(oj.JSON(value, &oj.Options{Sort: true, HTMLUnsafe: true}))+
			markup.EndTag("select"))
	}
	return append(block, markup.EndTag("json"))
}

// TypeOf names the JSON type of a value produced by oj.Parse.
func TypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int64, float64, int, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "number"
	}
}
