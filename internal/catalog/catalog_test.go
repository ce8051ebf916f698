package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentic-research/fsmap/internal/attrs"
	"github.com/agentic-research/fsmap/internal/walk"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"
)

func openCatalog(t *testing.T, opts ...Option) (*Catalog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, path
}

func query(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordBeforeBegin(t *testing.T) {
	c, _ := openCatalog(t)
	err := c.Record(walk.Node{Path: "/a", Name: "a", Kind: walk.KindFile})
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestBeginTwice(t *testing.T) {
	c, _ := openCatalog(t)
	_, err := c.Begin("/a")
	require.NoError(t, err)
	_, err = c.Begin("/a")
	assert.Error(t, err)
}

func TestRunAndNodes(t *testing.T) {
	c, path := openCatalog(t)
	start := time.Unix(1700000000, 0)
	c.now = func() time.Time { return start }

	id, err := c.Begin("/data")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, c.RunID())

	facts := &attrs.Facts{Size: 42, Mtime: 1690000000}
	require.NoError(t, c.Record(walk.Node{Path: "/data", Name: "/data", Kind: walk.KindRoot, Facts: facts}))
	require.NoError(t, c.Record(walk.Node{Path: "/data/a.jpg", Name: "a.jpg", Kind: walk.KindFile, Depth: 1,
		Suffix: ".jpg", Extractor: "exiftool", Facts: facts}))
	require.NoError(t, c.Record(walk.Node{Path: "/data/l", Name: "l", Kind: walk.KindLink, Depth: 1}))

	c.now = func() time.Time { return start.Add(time.Minute) }
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	db := query(t, path)

	var root string
	var started, finished int64
	require.NoError(t, db.QueryRow(`SELECT root, started_at, finished_at FROM runs WHERE id = ?`, id).
		Scan(&root, &started, &finished))
	assert.Equal(t, "/data", root)
	assert.Equal(t, start.Unix(), started)
	assert.Equal(t, start.Unix()+60, finished)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM nodes WHERE run_id = ?`, id).Scan(&n))
	assert.Equal(t, 3, n)

	var parent, kind, suffix, extractor string
	var size int64
	require.NoError(t, db.QueryRow(`SELECT parent, kind, suffix, extractor, size FROM nodes WHERE path = ?`, "/data/a.jpg").
		Scan(&parent, &kind, &suffix, &extractor, &size))
	assert.Equal(t, "/data", parent)
	assert.Equal(t, "file", kind)
	assert.Equal(t, ".jpg", suffix)
	assert.Equal(t, "exiftool", extractor)
	assert.EqualValues(t, 42, size)

	var rootParent, linkSize, linkSuffix sql.NullString
	require.NoError(t, db.QueryRow(`SELECT parent FROM nodes WHERE path = ?`, "/data").Scan(&rootParent))
	assert.False(t, rootParent.Valid)
	require.NoError(t, db.QueryRow(`SELECT size, suffix FROM nodes WHERE path = ?`, "/data/l").Scan(&linkSize, &linkSuffix))
	assert.False(t, linkSize.Valid)
	assert.False(t, linkSuffix.Valid)
}

func TestBatchedCommits(t *testing.T) {
	c, path := openCatalog(t, WithBatchSize(2))
	id, err := c.Begin("/d")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		p := fmt.Sprintf("/d/f%d", i)
		require.NoError(t, c.Record(walk.Node{Path: p, Name: filepath.Base(p), Kind: walk.KindFile, Depth: 1}))
	}
	require.NoError(t, c.Close())

	var n int
	require.NoError(t, query(t, path).QueryRow(`SELECT COUNT(*) FROM nodes WHERE run_id = ?`, id).Scan(&n))
	assert.Equal(t, 5, n)
}

func TestDigest(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/d/a.txt", []byte("hello"), 0o644))

	logger, hook := test.NewNullLogger()
	c, path := openCatalog(t, WithDigest(true), WithFS(fs), WithLogger(logger))
	_, err := c.Begin("/d")
	require.NoError(t, err)
	require.NoError(t, c.Record(walk.Node{Path: "/d/a.txt", Name: "a.txt", Kind: walk.KindFile, Depth: 1, Suffix: ".txt"}))
	require.NoError(t, c.Record(walk.Node{Path: "/d/gone.txt", Name: "gone.txt", Kind: walk.KindFile, Depth: 1, Suffix: ".txt"}))
	require.NoError(t, c.Close())

	db := query(t, path)
	var digest string
	require.NoError(t, db.QueryRow(`SELECT digest FROM nodes WHERE path = ?`, "/d/a.txt").Scan(&digest))
	assert.Equal(t, fmt.Sprintf("%016x", xxh3.HashString("hello")), digest)

	var missing sql.NullString
	require.NoError(t, db.QueryRow(`SELECT digest FROM nodes WHERE path = ?`, "/d/gone.txt").Scan(&missing))
	assert.False(t, missing.Valid)
	assert.Len(t, hook.AllEntries(), 1)
}

func TestEngineSink(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("y"), 0o644))

	c, path := openCatalog(t, WithDigest(true))
	id, err := c.Begin(root)
	require.NoError(t, err)

	e := walk.NewEngine(nil, walk.WithSink(c))
	require.NoError(t, e.Produce(context.Background(), root, io.Discard))
	require.NoError(t, c.Close())

	rows, err := query(t, path).Query(`SELECT kind, depth FROM nodes WHERE run_id = ? ORDER BY path`, id)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var kind string
		var depth int
		require.NoError(t, rows.Scan(&kind, &depth))
		got = append(got, fmt.Sprintf("%s/%d", kind, depth))
	}
	require.NoError(t, rows.Err())
	// root, b.txt, sub, sub/a.txt
	assert.Equal(t, []string{"fsml/0", "file/1", "dir/1", "file/2"}, got)
}
