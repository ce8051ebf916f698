// Package attrs gathers the per-node attributes every FSML element carries:
// the base name plus the lstat(2) facts of the path.
package attrs

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/agentic-research/fsmap/api"
	"github.com/agentic-research/fsmap/internal/markup"
	log "github.com/sirupsen/logrus"
)

// StatFS is the link-aware status call the collector needs.
// billy.Filesystem satisfies it.
type StatFS interface {
	Lstat(path string) (os.FileInfo, error)
}

// Facts are the status facts of one path.
type Facts struct {
	Mode  uint32 // st_mode, type and permission bits
	Dev   uint64
	Ino   uint64
	Nlink uint64
	UID   uint32
	GID   uint32
	Size  int64
	Atime int64 // whole seconds
	Mtime int64
	Ctime int64
}

// IsDir reports whether the facts describe a directory.
func (f *Facts) IsDir() bool {
	return f.Mode&sIFMT == sIFDIR
}

// Value renders one st_* attribute. Unknown names render empty.
func (f *Facts) Value(attr string) string {
	switch attr {
	case api.AttrMode:
		return "0" + strconv.FormatUint(uint64(f.Mode), 8)
	case api.AttrDev:
		return strconv.FormatUint(f.Dev, 10)
	case api.AttrNlink:
		return strconv.FormatUint(f.Nlink, 10)
	case api.AttrUID:
		return strconv.FormatUint(uint64(f.UID), 10)
	case api.AttrGID:
		return strconv.FormatUint(uint64(f.GID), 10)
	case api.AttrSize:
		return strconv.FormatInt(f.Size, 10)
	case api.AttrAtime:
		return strconv.FormatInt(f.Atime, 10)
	case api.AttrMtime:
		return strconv.FormatInt(f.Mtime, 10)
	case api.AttrCtime:
		return strconv.FormatInt(f.Ctime, 10)
	}
	return ""
}

// AppendTo adds the st_* attributes to attrs in document order.
func (f *Facts) AppendTo(attrs *markup.Attrs) {
	for _, name := range api.StatAttrs {
		attrs.Add(name, f.Value(name))
	}
}

// Set is what Collect returns. Facts is nil when the status call failed.
type Set struct {
	Attrs markup.Attrs
	Facts *Facts
}

// Collector builds attribute sets from a filesystem.
type Collector struct {
	fs  StatFS
	log log.FieldLogger
}

// NewCollector returns a collector reading status facts from fs.
// A nil logger means the standard logrus logger.
func NewCollector(fs StatFS, logger log.FieldLogger) *Collector {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Collector{fs: fs, log: logger}
}

// Collect returns the attributes of path. A failing status call is logged
// and leaves the set with only the name.
func (c *Collector) Collect(path string) Set {
	var s Set
	s.Attrs.Add(api.AttrName, filepath.Base(path))

	fi, err := c.fs.Lstat(path)
	if err != nil {
		c.log.Warnf("(attrs): %v", err)
		return s
	}
	s.Facts = FactsOf(fi)
	s.Facts.AppendTo(&s.Attrs)
	return s
}

// FactsOf extracts status facts from fi. The platform stat structure is used
// when present, otherwise the facts are derived from the portable fields.
func FactsOf(fi os.FileInfo) *Facts {
	if f, ok := factsFromSys(fi); ok {
		return f
	}
	mtime := fi.ModTime().Unix()
	return &Facts{
		Mode:  ModeBits(fi.Mode()),
		Nlink: 1,
		Size:  fi.Size(),
		Atime: mtime,
		Mtime: mtime,
		Ctime: mtime,
	}
}

const (
	sIFMT   = 0o170000
	sIFSOCK = 0o140000
	sIFLNK  = 0o120000
	sIFREG  = 0o100000
	sIFBLK  = 0o060000
	sIFDIR  = 0o040000
	sIFCHR  = 0o020000
	sIFIFO  = 0o010000
	sISUID  = 0o4000
	sISGID  = 0o2000
	sISVTX  = 0o1000
)

// ModeBits converts a Go file mode to st_mode bits.
func ModeBits(m os.FileMode) uint32 {
	bits := uint32(m.Perm())
	if m&os.ModeSetuid != 0 {
		bits |= sISUID
	}
	if m&os.ModeSetgid != 0 {
		bits |= sISGID
	}
	if m&os.ModeSticky != 0 {
		bits |= sISVTX
	}
	switch {
	case m&os.ModeDir != 0:
		bits |= sIFDIR
	case m&os.ModeSymlink != 0:
		bits |= sIFLNK
	case m&os.ModeNamedPipe != 0:
		bits |= sIFIFO
	case m&os.ModeSocket != 0:
		bits |= sIFSOCK
	case m&os.ModeCharDevice != 0:
		bits |= sIFCHR
	case m&os.ModeDevice != 0:
		bits |= sIFBLK
	default:
		bits |= sIFREG
	}
	return bits
}
