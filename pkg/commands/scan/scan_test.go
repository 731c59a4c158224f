package scan

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/ndetect/pkg/config"
	"github.com/arthur-debert/ndetect/pkg/errors"
	"github.com/arthur-debert/ndetect/pkg/testutil"
	"github.com/arthur-debert/ndetect/pkg/ui"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Paths = []string{"/data"}
	cfg.BaseDir = "/data"
	cfg.Move.HoldingDir = "/holding"
	return cfg
}

func exists(fsys *testutil.MemoryFS, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}

func quietOptions(fsys *testutil.MemoryFS, cfg config.Config) Options {
	return Options{
		Config:     cfg,
		FileSystem: fsys,
		Renderer:   ui.NewRenderer(io.Discard, false),
	}
}

func TestExecute_ConsolidatesDuplicates(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "hello world this is a test")
	testutil.WriteFile(t, fsys, "/data/b.txt", "hello world this is a test")
	fsys.SetModTime("/data/a.txt", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	fsys.SetModTime("/data/b.txt", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	result, err := Execute(context.Background(), quietOptions(fsys, testConfig()))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Scanned)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, 1.0, result.Groups[0].Similarity)
	assert.Equal(t, "/data/a.txt", result.Keepers[result.Groups[0].ID])
	require.Len(t, result.Moves, 1)

	assert.True(t, exists(fsys, "/data/a.txt"))
	assert.False(t, exists(fsys, "/data/b.txt"))
	assert.True(t, exists(fsys, "/holding/b.txt"))
}

func TestExecute_NoDuplicates(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "the quick brown fox jumps over the lazy dog")
	testutil.WriteFile(t, fsys, "/data/b.txt", "entirely unrelated content about gardening tips")

	var out strings.Builder
	opts := quietOptions(fsys, testConfig())
	opts.Renderer = ui.NewRenderer(&out, false)

	result, err := Execute(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Scanned)
	assert.Empty(t, result.Groups)
	assert.Empty(t, result.Moves)
	assert.Contains(t, out.String(), "No duplicate groups found")
	assert.True(t, exists(fsys, "/data/a.txt"))
	assert.True(t, exists(fsys, "/data/b.txt"))
}

func TestExecute_DryRunTouchesNothing(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "hello world this is a test")
	testutil.WriteFile(t, fsys, "/data/b.txt", "hello world this is a test")

	cfg := testConfig()
	cfg.Move.DryRun = true

	result, err := Execute(context.Background(), quietOptions(fsys, cfg))
	require.NoError(t, err)

	require.Len(t, result.Moves, 1)
	assert.True(t, exists(fsys, "/data/a.txt"))
	assert.True(t, exists(fsys, "/data/b.txt"))
	assert.False(t, exists(fsys, "/holding"))
}

func TestExecute_PreservesStructureUnderHoldingDir(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "hello world this is a test")
	testutil.WriteFile(t, fsys, "/data/sub/b.txt", "hello world this is a test")
	fsys.SetModTime("/data/a.txt", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	fsys.SetModTime("/data/sub/b.txt", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	_, err := Execute(context.Background(), quietOptions(fsys, testConfig()))
	require.NoError(t, err)

	assert.True(t, exists(fsys, "/holding/sub/b.txt"))
}

func TestExecute_InteractiveKeepLeavesGroupAlone(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "hello world this is a test")
	testutil.WriteFile(t, fsys, "/data/b.txt", "hello world this is a test")

	opts := quietOptions(fsys, testConfig())
	opts.Interactive = true
	opts.Prompter = ui.NewPrompter(strings.NewReader("k\n"), io.Discard)

	result, err := Execute(context.Background(), opts)
	require.NoError(t, err)

	assert.Empty(t, result.Moves)
	assert.False(t, result.Aborted)
	assert.True(t, exists(fsys, "/data/a.txt"))
	assert.True(t, exists(fsys, "/data/b.txt"))
}

func TestExecute_InteractiveQuitAborts(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "hello world this is a test")
	testutil.WriteFile(t, fsys, "/data/b.txt", "hello world this is a test")

	opts := quietOptions(fsys, testConfig())
	opts.Interactive = true
	opts.Prompter = ui.NewPrompter(strings.NewReader("q\n"), io.Discard)

	result, err := Execute(context.Background(), opts)
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.Empty(t, result.Moves)
	assert.True(t, exists(fsys, "/data/b.txt"))
}

func TestExecute_InteractiveSelectKeeperOverridesStrategy(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "hello world this is a test")
	testutil.WriteFile(t, fsys, "/data/b.txt", "hello world this is a test")
	// Strategy newest would keep a.txt; the user picks b.txt instead
	fsys.SetModTime("/data/a.txt", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	fsys.SetModTime("/data/b.txt", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	opts := quietOptions(fsys, testConfig())
	opts.Interactive = true
	opts.Prompter = ui.NewPrompter(strings.NewReader("s\n2\n"), io.Discard)

	result, err := Execute(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, result.Moves, 1)
	assert.True(t, exists(fsys, "/data/b.txt"))
	assert.False(t, exists(fsys, "/data/a.txt"))
	assert.True(t, exists(fsys, "/holding/a.txt"))
}

func TestExecute_InteractiveInfoThenMove(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "hello world this is a test")
	testutil.WriteFile(t, fsys, "/data/b.txt", "hello world this is a test")

	var out strings.Builder
	opts := quietOptions(fsys, testConfig())
	opts.Interactive = true
	opts.Prompter = ui.NewPrompter(strings.NewReader("i\nm\n"), io.Discard)
	opts.Renderer = ui.NewRenderer(&out, false)

	result, err := Execute(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, result.Moves, 1)
	assert.Contains(t, out.String(), "Pairwise similarities")
}

func TestExecute_RejectsEmptyPaths(t *testing.T) {
	cfg := config.Default()
	cfg.BaseDir = "/data"
	cfg.Move.HoldingDir = "/holding"

	_, err := Execute(context.Background(), quietOptions(testutil.NewMemoryFS(), cfg))
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidInput, errors.GetErrorCode(err))
}

func TestExecute_Cancellation(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "some file content here")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, quietOptions(fsys, testConfig()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_InteractiveDeleteRemovesDuplicates(t *testing.T) {
	fsys := testutil.NewMemoryFS()
	testutil.WriteFile(t, fsys, "/data/a.txt", "hello world this is a test")
	testutil.WriteFile(t, fsys, "/data/b.txt", "hello world this is a test")
	fsys.SetModTime("/data/a.txt", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	fsys.SetModTime("/data/b.txt", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	opts := quietOptions(fsys, testConfig())
	opts.Interactive = true
	opts.Prompter = ui.NewPrompter(strings.NewReader("d\n"), io.Discard)

	result, err := Execute(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"/data/b.txt"}, result.Deleted)
	assert.Empty(t, result.Moves)
	assert.True(t, exists(fsys, "/data/a.txt"))
	assert.False(t, exists(fsys, "/data/b.txt"))
	assert.False(t, exists(fsys, "/holding"))
}
