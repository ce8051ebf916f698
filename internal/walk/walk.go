// Package walk maps a file hierarchy to an FSML document.
//
// The hierarchy is visited depth-first and every element is written as soon
// as it is discovered, so memory use is bounded by the depth of the tree and
// not by its size. Regular files whose suffix has a registered extractor are
// expanded with the extractor's block.
package walk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/agentic-research/fsmap/api"
	"github.com/agentic-research/fsmap/internal/attrs"
	"github.com/agentic-research/fsmap/internal/extract"
	"github.com/agentic-research/fsmap/internal/markup"
	log "github.com/sirupsen/logrus"
)

// FS is the read-only view of the hierarchy. billy.Filesystem satisfies it.
type FS interface {
	attrs.StatFS
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
}

// Engine produces FSML documents. The registry must not be modified while
// Produce runs.
type Engine struct {
	reg       *extract.Registry
	fs        FS
	log       log.FieldLogger
	sink      Sink
	hardLinks bool
}

type Option func(*Engine)

// WithFS replaces the host filesystem.
func WithFS(fs FS) Option {
	return func(e *Engine) { e.fs = fs }
}

func WithLogger(logger log.FieldLogger) Option {
	return func(e *Engine) { e.log = logger }
}

// WithSink reports every emitted node to s.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithHardLinks controls whether further names of an already emitted
// inode are written as links. Enabled by default.
func WithHardLinks(enabled bool) Option {
	return func(e *Engine) { e.hardLinks = enabled }
}

// NewEngine returns an engine expanding files through reg. A nil registry
// expands nothing.
func NewEngine(reg *extract.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:       reg,
		log:       log.StandardLogger(),
		hardLinks: true,
	}
	for _, o := range opts {
		o(e)
	}
	if e.fs == nil {
		e.fs = NewHostFS()
	}
	if e.reg == nil {
		e.reg = extract.NewRegistry()
	}
	return e
}

// Produce writes the FSML document for path to w.
//
// Per-node failures are logged and never stop the traversal. The returned
// error is the root stat failure, the first write error, or ctx.Err() when
// the traversal was cut short; in the latter two cases every open element
// has still been closed as far as the writer allowed.
func (e *Engine) Produce(ctx context.Context, path string, w io.Writer) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	fi, err := e.fs.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}

	r := &run{
		Engine:  e,
		ctx:     ctx,
		out:     emitter{w: w},
		collect: attrs.NewCollector(e.fs, e.log),
		seen:    make(map[uint64]*roaring64.Bitmap),
	}

	wrapper := abs
	if !fi.IsDir() {
		wrapper = filepath.Dir(abs)
	}
	set := r.collect.Collect(wrapper)
	set.Attrs.Add(api.AttrName, wrapper)

	r.out.line(0, markup.Declaration)
	r.out.line(0, markup.StartTag(api.ElemRoot, set.Attrs))
	r.record(Node{Path: wrapper, Name: wrapper, Kind: KindRoot, Facts: set.Facts})
	if fi.IsDir() {
		r.descend(abs, 0)
	} else {
		r.file(abs, 1)
	}
	r.out.line(0, markup.EndTag(api.ElemRoot))

	if r.out.err != nil {
		return r.out.err
	}
	return ctx.Err()
}

// run is the state of one Produce call.
type run struct {
	*Engine
	ctx     context.Context
	out     emitter
	collect *attrs.Collector
	seen    map[uint64]*roaring64.Bitmap // inodes per device
}

func (r *run) descend(dir string, depth int) {
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		r.log.Warnf("(descend): %v", err)
		return
	}

	if depth > 0 {
		set := r.collect.Collect(dir)
		node := Node{Path: dir, Name: filepath.Base(dir), Kind: KindDir, Depth: depth, Facts: set.Facts}
		if len(entries) == 0 {
			r.out.line(depth, markup.EmptyElement(api.ElemDir, set.Attrs))
			r.record(node)
			return
		}
		r.out.line(depth, markup.StartTag(api.ElemDir, set.Attrs))
		r.record(node)
		defer r.out.line(depth, markup.EndTag(api.ElemDir))
	}

	for _, fi := range entries {
		if r.ctx.Err() != nil {
			return
		}
		path := filepath.Join(dir, fi.Name())
		switch {
		case fi.Mode()&os.ModeSymlink != 0:
			r.link(path, depth+1, r.collect.Collect(path))
		case fi.IsDir():
			r.descend(path, depth+1)
		default:
			r.file(path, depth+1)
		}
	}
}

func (r *run) link(path string, depth int, set attrs.Set) {
	r.out.line(depth, markup.EmptyElement(api.ElemLink, set.Attrs))
	r.record(Node{Path: path, Name: filepath.Base(path), Kind: KindLink, Depth: depth, Facts: set.Facts})
}

func (r *run) file(path string, depth int) {
	set := r.collect.Collect(path)
	if r.hardLinks && r.seenBefore(set.Facts) {
		r.link(path, depth, set)
		return
	}

	suffix := filepath.Ext(path)
	set.Attrs.Add(api.AttrSuffix, suffix)
	node := Node{Path: path, Name: filepath.Base(path), Kind: KindFile, Depth: depth, Suffix: suffix, Facts: set.Facts}

	fn, ok := r.reg.Lookup(suffix)
	if !ok {
		r.out.line(depth, markup.EmptyElement(api.ElemFile, set.Attrs))
		r.record(node)
		return
	}

	r.out.line(depth, markup.StartTag(api.ElemFile, set.Attrs))
	for _, l := range fn(r.ctx, path, depth+1) {
		r.out.line(depth+1, l)
	}
	r.out.line(depth, markup.EndTag(api.ElemFile))
	node.Extractor = r.reg.Owner(suffix)
	r.record(node)
}

// seenBefore reports whether the inode behind f was already emitted, and
// remembers it otherwise. Only multiply linked non-directories count.
func (r *run) seenBefore(f *attrs.Facts) bool {
	if f == nil || f.Nlink < 2 || f.IsDir() {
		return false
	}
	bm, ok := r.seen[f.Dev]
	if !ok {
		bm = roaring64.New()
		r.seen[f.Dev] = bm
	}
	if bm.Contains(f.Ino) {
		return true
	}
	bm.Add(f.Ino)
	return false
}

func (r *run) record(n Node) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Record(n); err != nil {
		r.log.Warnf("(sink): %s: %v", n.Path, err)
	}
}

// emitter writes indented lines. The first write error is kept and every
// later write is dropped.
type emitter struct {
	w   io.Writer
	err error
}

func (e *emitter) line(depth int, s string) {
	if e.err != nil {
		return
	}
	if _, err := io.WriteString(e.w, markup.Indent(s, depth)+"\n"); err != nil {
		e.err = fmt.Errorf("write document: %w", err)
	}
}
