// Package pdftext extracts the text layer of PDF files with pdftohtml(1).
// Each call runs the tool once and captures its XML output in full.
package pdftext

import (
	"context"
	"os/exec"
	"strings"

	"github.com/agentic-research/fsmap/internal/config"
	log "github.com/sirupsen/logrus"
)

// pdftohtml -xml output: the declaration, doctype, <pdf2xml> and the first
// page's <page> open the document; </page> and </pdf2xml> close it.
const (
	headerLines  = 4
	trailerLines = 2
)

const (
	contentOpen  = "  <content>"
	contentClose = "  </content>"
	textIndent   = "      "
	otherIndent  = "    "
)

// pdftohtml pads ff, ffi and ffl glyphs with spaces; the padding goes with
// the glyph. Longer keys come first so they win at the same position.
var ligatures = strings.NewReplacer(
	"ﬃ  ", "ffi",
	"ﬄ  ", "ffl",
	"ﬀ ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬅ", "st",
	"ﬆ", "st",
)

// Runner runs name with args and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor runs pdftohtml for one file at a time.
type Extractor struct {
	path string
	run  Runner
	log  log.FieldLogger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRunner replaces process execution.
func WithRunner(r Runner) Option {
	return func(x *Extractor) { x.run = r }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(x *Extractor) { x.log = logger }
}

// New returns an extractor invoking the pdftohtml configured in cfg.
func New(cfg *config.PDFText, opts ...Option) *Extractor {
	x := &Extractor{
		path: "pdftohtml",
		run:  execRunner,
		log:  log.StandardLogger(),
	}
	if cfg != nil && cfg.Path != "" {
		x.path = cfg.Path
	}
	for _, o := range opts {
		o(x)
	}
	return x
}

// Extract returns the text lines of path wrapped in <content>, or nil when
// the tool failed or the document has no text.
func (x *Extractor) Extract(ctx context.Context, path string) []string {
	out, err := x.run(ctx, x.path, "-nodrm", "-xml", "-enc", "UTF-8", "-stdout", path)
	if err != nil {
		x.log.Warnf("(pdftext): %s %s: %v", x.path, path, err)
		return nil
	}
	return Reshape(out)
}

// Reshape converts raw pdftohtml -xml output into content lines.
func Reshape(out []byte) []string {
	lines := splitLines(strings.ToValidUTF8(string(out), "�"))
	if len(lines) <= headerLines+trailerLines {
		return nil
	}
	lines = lines[headerLines : len(lines)-trailerLines]

	result := make([]string, 0, len(lines)+2)
	result = append(result, contentOpen)
	hasText := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "<text") {
			hasText = true
			result = append(result, textIndent+ligatures.Replace(line))
			continue
		}
		result = append(result, otherIndent+line)
	}
	if !hasText {
		return nil
	}
	return append(result, contentClose)
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
