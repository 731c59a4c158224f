package testutil

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS implements types.FS with in-memory storage. It supports
// regular files, directories and symlinks, plus error injection and a
// configurable free-space figure for move-transaction preflight tests.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string]*fileNode

	// Error injection: operations touching these paths fail
	errorPaths map[string]error
	// Deferred injection: the path fails once its countdown of
	// successful touches is spent
	delayedErrors map[string]*delayedError

	// Free bytes reported by DiskFree (default: effectively unlimited)
	freeSpace uint64
}

// fileNode represents a file, directory or symlink in memory
type fileNode struct {
	name     string
	mode     os.FileMode
	modTime  time.Time
	content  []byte
	isDir    bool
	isLink   bool
	linkDest string
}

// NewMemoryFS creates a new in-memory filesystem containing only the root
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: map[string]*fileNode{
			"/": {name: "/", mode: 0755 | os.ModeDir, modTime: time.Now(), isDir: true},
		},
		errorPaths:    make(map[string]error),
		delayedErrors: make(map[string]*delayedError),
		freeSpace:     1 << 50,
	}
}

type delayedError struct {
	err  error
	skip int
}

// InjectError makes every operation on path fail with err
func (m *MemoryFS) InjectError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorPaths[filepath.Clean(path)] = err
}

// InjectErrorAfter makes operations on path fail with err once skip
// earlier touches of the path have succeeded
func (m *MemoryFS) InjectErrorAfter(path string, err error, skip int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delayedErrors[filepath.Clean(path)] = &delayedError{err: err, skip: skip}
}

// SetFreeSpace fixes the value DiskFree reports
func (m *MemoryFS) SetFreeSpace(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freeSpace = n
}

// SetModTime overrides the modification time of an existing node
func (m *MemoryFS) SetModTime(path string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if node, ok := m.files[filepath.Clean(path)]; ok {
		node.modTime = t
	}
}

func (m *MemoryFS) checkError(path string) error {
	path = filepath.Clean(path)
	if err, ok := m.errorPaths[path]; ok {
		return err
	}
	if de, ok := m.delayedErrors[path]; ok {
		if de.skip <= 0 {
			return de.err
		}
		de.skip--
	}
	return nil
}

func (m *MemoryFS) getNode(path string) (*fileNode, error) {
	path = filepath.Clean(path)
	if err := m.checkError(path); err != nil {
		return nil, err
	}
	node, exists := m.files[path]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return node, nil
}

// ensureParent verifies the parent directory of path exists
func (m *MemoryFS) ensureParent(op, path string) error {
	dir := filepath.Dir(path)
	parent, exists := m.files[dir]
	if !exists {
		return &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
	}
	if !parent.isDir {
		return &fs.PathError{Op: op, Path: path, Err: fs.ErrInvalid}
	}
	return nil
}

func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statLocked(name, 0)
}

// statLocked follows symlinks, mirroring os.Stat
func (m *MemoryFS) statLocked(name string, depth int) (fs.FileInfo, error) {
	if depth > 40 {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	if node.isLink {
		dest := node.linkDest
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(filepath.Clean(name)), dest)
		}
		return m.statLocked(dest, depth+1)
	}
	return &memFileInfo{node: node}, nil
}

func (m *MemoryFS) Lstat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	return &memFileInfo{node: node}, nil
}

func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, err := m.resolveLocked(name)
	if err != nil {
		return nil, err
	}
	if node.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	out := make([]byte, len(node.content))
	copy(out, node.content)
	return out, nil
}

// resolveLocked returns the node behind name, following symlinks
func (m *MemoryFS) resolveLocked(name string) (*fileNode, error) {
	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	for depth := 0; node.isLink; depth++ {
		if depth > 40 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
		}
		dest := node.linkDest
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(filepath.Clean(name)), dest)
		}
		name = dest
		node, err = m.getNode(name)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = filepath.Clean(name)
	if err := m.checkError(name); err != nil {
		return err
	}
	if err := m.ensureParent("write", name); err != nil {
		return err
	}
	content := make([]byte, len(data))
	copy(content, data)
	m.files[name] = &fileNode{
		name:    filepath.Base(name),
		mode:    perm,
		modTime: time.Now(),
		content: content,
	}
	return nil
}

func (m *MemoryFS) Open(name string) (io.ReadCloser, error) {
	data, err := m.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.checkError(path); err != nil {
		return err
	}
	parts := strings.Split(path, string(filepath.Separator))
	current := "/"
	for _, part := range parts {
		if part == "" {
			continue
		}
		current = filepath.Join(current, part)
		if node, exists := m.files[current]; exists {
			if !node.isDir {
				return &fs.PathError{Op: "mkdir", Path: current, Err: fs.ErrExist}
			}
			continue
		}
		m.files[current] = &fileNode{
			name:    part,
			mode:    perm | os.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		}
	}
	return nil
}

func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = filepath.Clean(name)
	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	if !node.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	var entries []fs.DirEntry
	for path, child := range m.files {
		if path != name && filepath.Dir(path) == name {
			entries = append(entries, &memDirEntry{node: child})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *MemoryFS) Symlink(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newname = filepath.Clean(newname)
	if err := m.checkError(newname); err != nil {
		return err
	}
	if _, exists := m.files[newname]; exists {
		return &fs.PathError{Op: "symlink", Path: newname, Err: fs.ErrExist}
	}
	if err := m.ensureParent("symlink", newname); err != nil {
		return err
	}
	m.files[newname] = &fileNode{
		name:     filepath.Base(newname),
		mode:     0777 | os.ModeSymlink,
		modTime:  time.Now(),
		isLink:   true,
		linkDest: oldname,
	}
	return nil
}

func (m *MemoryFS) Readlink(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, err := m.getNode(name)
	if err != nil {
		return "", err
	}
	if !node.isLink {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}
	return node.linkDest, nil
}

func (m *MemoryFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oldpath = filepath.Clean(oldpath)
	newpath = filepath.Clean(newpath)
	if err := m.checkError(oldpath); err != nil {
		return err
	}
	if err := m.checkError(newpath); err != nil {
		return err
	}
	node, exists := m.files[oldpath]
	if !exists {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	if err := m.ensureParent("rename", newpath); err != nil {
		return err
	}
	delete(m.files, oldpath)
	node.name = filepath.Base(newpath)
	m.files[newpath] = node
	return nil
}

func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = filepath.Clean(name)
	if err := m.checkError(name); err != nil {
		return err
	}
	if _, exists := m.files[name]; !exists {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

func (m *MemoryFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.checkError(path); err != nil {
		return err
	}
	for p := range m.files {
		if p == path || strings.HasPrefix(p, path+string(filepath.Separator)) {
			delete(m.files, p)
		}
	}
	return nil
}

func (m *MemoryFS) DiskFree(path string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(path); err != nil {
		return 0, err
	}
	return m.freeSpace, nil
}

// memFileInfo adapts a fileNode to fs.FileInfo
type memFileInfo struct {
	node *fileNode
}

func (fi *memFileInfo) Name() string       { return fi.node.name }
func (fi *memFileInfo) Size() int64        { return int64(len(fi.node.content)) }
func (fi *memFileInfo) Mode() fs.FileMode  { return fi.node.mode }
func (fi *memFileInfo) ModTime() time.Time { return fi.node.modTime }
func (fi *memFileInfo) IsDir() bool        { return fi.node.isDir }
func (fi *memFileInfo) Sys() interface{}   { return nil }

// memDirEntry adapts a fileNode to fs.DirEntry
type memDirEntry struct {
	node *fileNode
}

func (de *memDirEntry) Name() string      { return de.node.name }
func (de *memDirEntry) IsDir() bool       { return de.node.isDir }
func (de *memDirEntry) Type() fs.FileMode { return de.node.mode.Type() }
func (de *memDirEntry) Info() (fs.FileInfo, error) {
	return &memFileInfo{node: de.node}, nil
}
