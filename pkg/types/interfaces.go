package types

import (
	"io"
	"io/fs"
)

// FS provides filesystem operations that can be mocked for testing
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Open(name string) (io.ReadCloser, error)

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Move and removal
	Rename(oldpath, newpath string) error
	Remove(name string) error
	RemoveAll(path string) error

	// DiskFree reports the free bytes on the filesystem holding path.
	// The path must exist; callers resolving a not-yet-created
	// destination should pass its nearest existing ancestor.
	DiskFree(path string) (uint64, error)
}
