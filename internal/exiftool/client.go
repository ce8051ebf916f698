// Package exiftool drives one long-running exiftool(1) process in
// -stay_open mode and turns its RDF/XML answers into <meta> blocks.
//
// Requests are argument lines terminated by -execute. exiftool answers with
// any number of lines followed by a {ready} line; there is no length prefix,
// so a response ends exactly where the sentinel is seen.
package exiftool

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agentic-research/fsmap/internal/config"
	"github.com/agentic-research/fsmap/internal/extract"
	log "github.com/sirupsen/logrus"
)

const (
	readySentinel = "{ready}"
	metaOpen      = `<meta xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"`
	metaClose     = "</meta>"
)

var (
	// ErrUnavailable means the co-process could not be started or broke
	// down earlier in the run. No further metadata is produced.
	ErrUnavailable = errors.New("exiftool unavailable")
	// ErrMalformed means a response did not have the expected shape.
	ErrMalformed = errors.New("malformed exiftool response")
)

// Conn is a started co-process: its standard input and output and a
// function waiting for it to exit.
type Conn struct {
	Stdin  io.WriteCloser
	Stdout io.Reader
	Wait   func() error
}

// Launcher starts the executable at path in -stay_open mode.
type Launcher func(path string) (*Conn, error)

// TextExtractor supplies the text layer appended to PDF metadata.
type TextExtractor interface {
	Extract(ctx context.Context, path string) []string
}

// Client owns the exiftool co-process for the whole run.
// Requests are serialized; there is never more than one in flight.
type Client struct {
	cfg    config.Exiftool
	launch Launcher
	text   TextExtractor
	log    *log.Entry

	mu     sync.Mutex
	conn   *Conn
	w      *bufio.Writer
	r      *bufio.Reader
	broken error
	closed bool
}

// Option configures a Client.
type Option func(*Client)

// WithLauncher replaces process creation.
func WithLauncher(l Launcher) Option {
	return func(c *Client) { c.launch = l }
}

// WithTextExtractor sets the extractor composed into .pdf blocks.
func WithTextExtractor(x TextExtractor) Option {
	return func(c *Client) { c.text = x }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(c *Client) { c.log = logger.WithField("component", "exiftool") }
}

// New returns a client for cfg. The process is started on the first request.
func New(cfg *config.Exiftool, opts ...Option) *Client {
	c := &Client{log: log.WithField("component", "exiftool")}
	if cfg != nil {
		c.cfg = *cfg
	}
	if c.cfg.Path == "" {
		c.cfg.Path = "exiftool"
	}
	if len(c.cfg.TagFilters) == 0 {
		c.cfg.TagFilters = config.DefaultTagFilters
	}
	if c.cfg.HeaderLines == 0 {
		c.cfg.HeaderLines = config.DefaultHeaderLines
	}
	if c.cfg.TrailerLines == 0 {
		c.cfg.TrailerLines = config.DefaultTrailerLines
	}
	for _, o := range opts {
		o(c)
	}
	if c.launch == nil {
		c.launch = execLauncher(c.log)
	}
	return c
}

func execLauncher(logger *log.Entry) Launcher {
	return func(path string) (*Conn, error) {
		cmd := exec.Command(path, "-stay_open", "True", "-@", "-")
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
		stderr := logger.WriterLevel(log.DebugLevel)
		cmd.Stderr = stderr
		if err := cmd.Start(); err != nil {
			_ = stderr.Close()
			return nil, err
		}
		return &Conn{
			Stdin:  stdin,
			Stdout: stdout,
			Wait: func() error {
				defer func() { _ = stderr.Close() }()
				return cmd.Wait()
			},
		}, nil
	}
}

// Name implements extract.Extractor.
func (c *Client) Name() string { return "exiftool" }

// Expose implements extract.Extractor.
func (c *Client) Expose() ([]string, extract.Func) {
	return Suffixes, c.Extract
}

// Extract is the registry callback. Failures are logged and yield an empty
// block; once the co-process is unavailable it stays silent.
func (c *Client) Extract(ctx context.Context, path string, _ int) extract.Block {
	block, err := c.Metadata(ctx, path)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			c.log.Warnf("(exiftool): %s: %v", path, err)
		}
		return nil
	}
	return block
}

// Metadata asks exiftool about path and returns the reshaped <meta> block.
// A nil block without error means the file has no metadata worth emitting.
func (c *Client) Metadata(ctx context.Context, path string) (extract.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := c.request(path)
	if err != nil {
		return nil, err
	}
	block, err := c.reshape(raw)
	if err != nil || block == nil {
		return nil, err
	}
	if c.text != nil && filepath.Ext(path) == ".pdf" {
		if lines := c.text.Extract(ctx, path); len(lines) > 0 {
			block = append(block, lines...)
		}
	}
	return append(block, metaClose), nil
}

// reshape drops the fixed header, indents the rest by one space and strips
// the closing trailer. The result is still missing its </meta>.
func (c *Client) reshape(raw []string) (extract.Block, error) {
	// Namespace continuation lines and the trailer are all an answer
	// without tags consists of.
	if len(raw)-c.cfg.HeaderLines <= 2+c.cfg.TrailerLines {
		return nil, nil
	}
	lines := make(extract.Block, 0, len(raw)-c.cfg.HeaderLines+2)
	lines = append(lines, metaOpen)
	for _, l := range raw[c.cfg.HeaderLines:] {
		lines = append(lines, " "+l)
	}
	cut := len(lines) - c.cfg.TrailerLines
	for _, l := range lines[cut:] {
		if !strings.HasPrefix(strings.TrimSpace(l), "</") {
			return nil, fmt.Errorf("%w: trailer line %q is not a closing tag", ErrMalformed, strings.TrimSpace(l))
		}
	}
	return lines[:cut], nil
}

// request sends one -execute request and reads up to the sentinel.
func (c *Client) request(path string) ([]string, error) {
	if strings.ContainsAny(path, "\r\n") {
		return nil, fmt.Errorf("path contains a line break")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureStarted(); err != nil {
		return nil, err
	}

	args := make([]string, 0, len(c.cfg.TagFilters)+5)
	args = append(args, "-b", "-X")
	args = append(args, c.cfg.TagFilters...)
	args = append(args, path, "-execute")
	for _, a := range args {
		_, _ = c.w.WriteString(a)
		_ = c.w.WriteByte('\n')
	}
	if err := c.w.Flush(); err != nil {
		return nil, c.fail(fmt.Errorf("write request: %w", err))
	}

	var lines []string
	for {
		line, err := c.r.ReadString('\n')
		if strings.TrimSpace(line) == readySentinel {
			return lines, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, c.fail(fmt.Errorf("read response: %w", err))
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
}

// ensureStarted launches the process on first use. Callers hold mu.
func (c *Client) ensureStarted() error {
	if c.closed {
		return fmt.Errorf("%w: client closed", ErrUnavailable)
	}
	if c.broken != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, c.broken)
	}
	if c.conn != nil {
		return nil
	}
	conn, err := c.launch(c.cfg.Path)
	if err != nil {
		c.broken = err
		c.log.Errorf("(exiftool): start %s: %v; metadata extraction disabled", c.cfg.Path, err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	c.conn = conn
	c.w = bufio.NewWriter(conn.Stdin)
	c.r = bufio.NewReader(conn.Stdout)
	c.log.Debugf("started %s", c.cfg.Path)
	return nil
}

// fail marks the session broken. Callers hold mu.
func (c *Client) fail(err error) error {
	c.broken = err
	c.log.Errorf("(exiftool): %v; metadata extraction disabled", err)
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Close asks exiftool to leave -stay_open mode and waits for it to exit.
// It is safe to call more than once and on a client that never started.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn == nil {
		return nil
	}

	var errs []error
	_, _ = c.w.WriteString("-stay_open\nFalse\n")
	if err := c.w.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("send stop: %w", err))
	}
	if err := c.conn.Stdin.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close stdin: %w", err))
	}
	if c.conn.Wait != nil {
		if err := c.conn.Wait(); err != nil {
			errs = append(errs, fmt.Errorf("wait: %w", err))
		}
	}
	c.log.Debugf("stopped %s", c.cfg.Path)
	return errors.Join(errs...)
}
