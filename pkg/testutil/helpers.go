package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/ndetect/pkg/minhash"
	"github.com/arthur-debert/ndetect/pkg/types"
)

// WriteFile creates path (and its parents) with the given content
func WriteFile(t *testing.T, fsys types.FS, path, content string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fsys.WriteFile(path, []byte(content), 0644))
}

// NewTextFile writes content to path and returns a signed TextFile record
func NewTextFile(t *testing.T, fsys types.FS, engine *minhash.Engine, path, content string) *types.TextFile {
	t.Helper()
	WriteFile(t, fsys, path, content)

	file, err := types.NewTextFile(fsys, path)
	require.NoError(t, err)

	sig, err := engine.Sign(context.Background(), content)
	require.NoError(t, err)
	file.Signature = sig
	return file
}

// NewTextFileAt is NewTextFile with an explicit modification time
func NewTextFileAt(t *testing.T, fsys *MemoryFS, engine *minhash.Engine, path, content string, modTime time.Time) *types.TextFile {
	t.Helper()
	WriteFile(t, fsys, path, content)
	fsys.SetModTime(path, modTime)

	file, err := types.NewTextFile(fsys, path)
	require.NoError(t, err)

	sig, err := engine.Sign(context.Background(), content)
	require.NoError(t, err)
	file.Signature = sig
	return file
}

// DefaultEngine returns an engine with the standard configuration
func DefaultEngine(t *testing.T) *minhash.Engine {
	t.Helper()
	engine, err := minhash.NewEngine(minhash.DefaultConfig())
	require.NoError(t, err)
	return engine
}
