// Package catalog records what a traversal visited in a SQLite database.
//
// Every run gets a row in runs and one row per emitted element in nodes,
// so successive maps of the same hierarchy can be compared with SQL.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/agentic-research/fsmap/internal/walk"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS nodes (
	run_id TEXT NOT NULL,
	path TEXT NOT NULL,
	parent TEXT,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	depth INTEGER NOT NULL,
	size INTEGER,
	mtime INTEGER,
	suffix TEXT,
	extractor TEXT,
	digest TEXT,
	PRIMARY KEY (run_id, path)
) WITHOUT ROWID;
`

// ErrNoRun is returned by Record before Begin.
var ErrNoRun = errors.New("catalog: no run begun")

// Catalog is a walk.Sink writing to SQLite in batched transactions.
type Catalog struct {
	db        *sql.DB
	tx        *sql.Tx
	stmtNode  *sql.Stmt
	batchSize int
	count     int
	runID     string
	digest    bool
	fs        billy.Filesystem
	log       log.FieldLogger
	now       func() time.Time
	closed    bool
	mu        sync.Mutex
}

type Option func(*Catalog)

// WithDigest stores the xxh3 hash of every regular file's content.
func WithDigest(enabled bool) Option {
	return func(c *Catalog) { c.digest = enabled }
}

// WithFS sets the filesystem digests are read from.
func WithFS(fs billy.Filesystem) Option {
	return func(c *Catalog) { c.fs = fs }
}

func WithLogger(logger log.FieldLogger) Option {
	return func(c *Catalog) { c.log = logger }
}

// WithBatchSize sets how many nodes are written per transaction.
func WithBatchSize(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// Open creates or opens the database at path and prepares the schema.
func Open(path string, opts ...Option) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	c := &Catalog{
		db:        db,
		batchSize: 10000,
		log:       log.StandardLogger(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.fs == nil {
		c.fs = osfs.New("/")
	}
	return c, nil
}

// Begin starts a run rooted at root and returns its id.
func (c *Catalog) Begin(root string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", errors.New("catalog: closed")
	}
	if c.runID != "" {
		return "", fmt.Errorf("catalog: run %s already begun", c.runID)
	}
	if err := c.beginTx(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := c.tx.Exec(`INSERT INTO runs (id, root, started_at) VALUES (?, ?, ?)`,
		id, root, c.now().Unix()); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	c.runID = id
	return id, nil
}

// RunID returns the id of the current run, or "".
func (c *Catalog) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

func (c *Catalog) beginTx() error {
	var err error
	c.tx, err = c.db.Begin()
	if err != nil {
		return err
	}
	c.stmtNode, err = c.tx.Prepare(`
		INSERT OR REPLACE INTO nodes (run_id, path, parent, name, kind, depth, size, mtime, suffix, extractor, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	return err
}

func (c *Catalog) commitTx() error {
	if c.stmtNode != nil {
		_ = c.stmtNode.Close()
		c.stmtNode = nil
	}
	if c.tx == nil {
		return nil
	}
	err := c.tx.Commit()
	c.tx = nil
	return err
}

// Record implements walk.Sink.
func (c *Catalog) Record(n walk.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("catalog: closed")
	}
	if c.runID == "" {
		return ErrNoRun
	}
	if c.stmtNode == nil {
		return errors.New("catalog: no open transaction")
	}

	var parent, suffix, extractor, digest sql.NullString
	if n.Kind != walk.KindRoot {
		parent = sql.NullString{String: filepath.Dir(n.Path), Valid: true}
	}
	if n.Kind == walk.KindFile {
		suffix = sql.NullString{String: n.Suffix, Valid: true}
		if n.Extractor != "" {
			extractor = sql.NullString{String: n.Extractor, Valid: true}
		}
		if c.digest {
			if sum, err := c.hash(n.Path); err != nil {
				c.log.Warnf("(catalog): digest %s: %v", n.Path, err)
			} else {
				digest = sql.NullString{String: sum, Valid: true}
			}
		}
	}
	var size, mtime sql.NullInt64
	if n.Facts != nil {
		size = sql.NullInt64{Int64: n.Facts.Size, Valid: true}
		mtime = sql.NullInt64{Int64: n.Facts.Mtime, Valid: true}
	}

	if _, err := c.stmtNode.Exec(c.runID, n.Path, parent, n.Name, string(n.Kind), n.Depth,
		size, mtime, suffix, extractor, digest); err != nil {
		return fmt.Errorf("insert %s: %w", n.Path, err)
	}

	c.count++
	if c.count >= c.batchSize {
		c.count = 0
		if err := c.commitTx(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if err := c.beginTx(); err != nil {
			return fmt.Errorf("begin: %w", err)
		}
	}
	return nil
}

func (c *Catalog) hash(path string) (string, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Close stamps the run as finished, commits and closes the database.
// Later calls do nothing.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.runID != "" && c.tx != nil {
		if _, err := c.tx.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, c.now().Unix(), c.runID); err != nil {
			errs = append(errs, fmt.Errorf("finish run: %w", err))
		}
	}
	if err := c.commitTx(); err != nil {
		errs = append(errs, fmt.Errorf("commit: %w", err))
	}
	if _, err := c.db.Exec(`CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(run_id, parent)`); err != nil {
		c.log.Warnf("(catalog): index creation failed: %v", err)
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
