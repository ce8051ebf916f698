package walk

import (
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// HostFS is the host filesystem rooted at "/". ReadDir returns entries in
// the order the directory yields them, with lstat facts; osfs sorts by name.
type HostFS struct {
	billy.Filesystem
}

// NewHostFS returns the host filesystem.
func NewHostFS() *HostFS {
	return &HostFS{Filesystem: osfs.New("/")}
}

func (h *HostFS) ReadDir(path string) ([]os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdir(-1)
}
