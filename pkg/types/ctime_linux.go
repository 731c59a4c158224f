//go:build linux

package types

import (
	"io/fs"
	"syscall"
	"time"
)

// createdTime extracts the inode change time, the closest thing Linux
// offers to a creation timestamp.
func createdTime(info fs.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}
