//go:build linux

package attrs

import (
	"os"
	"syscall"
)

func factsFromSys(fi os.FileInfo) (*Facts, bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return nil, false
	}
	return &Facts{
		Mode:  st.Mode,
		Dev:   uint64(st.Dev),
		Ino:   st.Ino,
		Nlink: uint64(st.Nlink),
		UID:   st.Uid,
		GID:   st.Gid,
		Size:  st.Size,
		Atime: int64(st.Atim.Sec),
		Mtime: int64(st.Mtim.Sec),
		Ctime: int64(st.Ctim.Sec),
	}, true
}
