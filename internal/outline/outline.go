// Package outline lists the top-level declarations of source files.
package outline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agentic-research/fsmap/internal/extract"
	"github.com/agentic-research/fsmap/internal/markup"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	sitter "github.com/smacker/go-tree-sitter"
	log "github.com/sirupsen/logrus"
)

// nameDepth bounds how far below a declaration its name is looked for.
const nameDepth = 2

// Symbol is one top-level declaration.
type Symbol struct {
	Kind string
	Name string
	Line int // 1-based
}

// Extractor emits <outline> blocks.
type Extractor struct {
	fs  billy.Filesystem
	log log.FieldLogger
}

type Option func(*Extractor)

// WithFS reads sources from fs instead of the host root.
func WithFS(fs billy.Filesystem) Option {
	return func(x *Extractor) { x.fs = fs }
}

func WithLogger(logger log.FieldLogger) Option {
	return func(x *Extractor) { x.log = logger }
}

func New(opts ...Option) *Extractor {
	x := &Extractor{log: log.StandardLogger()}
	for _, o := range opts {
		o(x)
	}
	if x.fs == nil {
		x.fs = osfs.New("/")
	}
	return x
}

func (x *Extractor) Name() string { return "outline" }

func (x *Extractor) Expose() ([]string, extract.Func) {
	return Suffixes, x.Extract
}

// Extract reads and parses path. Unreadable or symbol-free files give an
// empty block.
func (x *Extractor) Extract(ctx context.Context, path string, _ int) extract.Block {
	langName, _, ok := DetectLanguage(filepath.Ext(path))
	if !ok {
		return nil
	}
	content, err := util.ReadFile(x.fs, path)
	if err != nil {
		x.log.Warnf("(outline): %s: %v", path, err)
		return nil
	}
	symbols, err := Symbols(ctx, filepath.Ext(path), content)
	if err != nil {
		x.log.Warnf("(outline): %s: %v", path, err)
		return nil
	}
	if len(symbols) == 0 {
		return nil
	}

	block := make(extract.Block, 0, len(symbols)+2)
	block = append(block, markup.StartTag("outline", markup.Attrs{{Name: "language", Value: langName}}))
	for _, s := range symbols {
		block = append(block, " "+markup.EmptyElement("symbol", markup.Attrs{
			{Name: "kind", Value: s.Kind},
			{Name: "name", Value: s.Name},
			{Name: "line", Value: strconv.Itoa(s.Line)},
		}))
	}
	return append(block, markup.EndTag("outline"))
}

// Symbols parses content as the language of suffix and returns its
// top-level declarations in source order.
func Symbols(ctx context.Context, suffix string, content []byte) ([]Symbol, error) {
	langName, lang, ok := DetectLanguage(suffix)
	if !ok {
		return nil, fmt.Errorf("no grammar for %q", suffix)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	switch langName {
	case "terraform":
		return hclBlocks(root, content), nil
	case "yaml":
		return yamlKeys(root, content), nil
	default:
		return declarations(root, content), nil
	}
}

func declarations(root *sitter.Node, src []byte) []Symbol {
	var out []Symbol
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n == nil || skipKind(n.Type()) {
			continue
		}
		name := nameOf(n, src, nameDepth)
		if name == "" {
			continue
		}
		out = append(out, Symbol{Kind: n.Type(), Name: name, Line: int(n.StartPoint().Row) + 1})
	}
	return out
}

func skipKind(kind string) bool {
	return strings.Contains(kind, "import") || strings.Contains(kind, "comment")
}

// nameOf returns the text of the first "name" field at or below n.
func nameOf(n *sitter.Node, src []byte, depth int) string {
	if f := n.ChildByFieldName("name"); f != nil {
		return f.Content(src)
	}
	if depth == 0 {
		return ""
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		if name := nameOf(c, src, depth-1); name != "" {
			return name
		}
	}
	return ""
}

// hclBlocks reports each top-level block as its type with its labels
// joined by dots; HCL blocks carry no field names.
func hclBlocks(root *sitter.Node, src []byte) []Symbol {
	body := firstOfType(root, "body", 1)
	if body == nil {
		return nil
	}
	var out []Symbol
	for i := 0; i < int(body.NamedChildCount()); i++ {
		b := body.NamedChild(i)
		if b == nil || b.Type() != "block" {
			continue
		}
		var kind string
		var labels []string
		for j := 0; j < int(b.NamedChildCount()); j++ {
			c := b.NamedChild(j)
			if c == nil {
				continue
			}
			switch c.Type() {
			case "identifier":
				if kind == "" {
					kind = c.Content(src)
				} else {
					labels = append(labels, c.Content(src))
				}
			case "string_lit":
				labels = append(labels, strings.Trim(c.Content(src), `"`))
			}
		}
		if kind == "" {
			continue
		}
		name := strings.Join(labels, ".")
		if name == "" {
			name = kind
		}
		out = append(out, Symbol{Kind: kind, Name: name, Line: int(b.StartPoint().Row) + 1})
	}
	return out
}

// yamlKeys reports the keys of the first document's top-level mapping.
func yamlKeys(root *sitter.Node, src []byte) []Symbol {
	mapping := firstOfType(root, "block_mapping", 4)
	if mapping == nil {
		return nil
	}
	var out []Symbol
	for i := 0; i < int(mapping.NamedChildCount()); i++ {
		pair := mapping.NamedChild(i)
		if pair == nil || pair.Type() != "block_mapping_pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		if key == nil {
			continue
		}
		out = append(out, Symbol{Kind: "key", Name: key.Content(src), Line: int(pair.StartPoint().Row) + 1})
	}
	return out
}

func firstOfType(n *sitter.Node, kind string, depth int) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		if c.Type() == kind {
			return c
		}
		if depth > 1 {
			if found := firstOfType(c, kind, depth-1); found != nil {
				return found
			}
		}
	}
	return nil
}
