//go:build !linux

package types

import (
	"io/fs"
	"time"
)

// createdTime falls back to the modification time on platforms where the
// stat structure is not portable.
func createdTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
