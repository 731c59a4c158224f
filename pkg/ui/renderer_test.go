package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/ndetect/pkg/operations"
	"github.com/arthur-debert/ndetect/pkg/similarity"
	"github.com/arthur-debert/ndetect/pkg/types"
)

func TestRenderGroups_Empty(t *testing.T) {
	var out strings.Builder
	r := NewRenderer(&out, false)

	require.NoError(t, r.RenderGroups(nil, nil))
	assert.Contains(t, out.String(), "No duplicate groups found")
}

func TestRenderGroups_TableContents(t *testing.T) {
	var out strings.Builder
	r := NewRenderer(&out, false)

	groups := []similarity.Group{
		{ID: 1, Files: []string{"/data/a.txt", "/data/b.txt"}, Similarity: 0.92},
	}
	index := map[string]*types.TextFile{
		"/data/a.txt": {Path: "/data/a.txt", Size: 2048},
		"/data/b.txt": {Path: "/data/b.txt", Size: 10},
	}

	require.NoError(t, r.RenderGroups(groups, index))
	got := out.String()
	assert.Contains(t, got, "Found 1 duplicate group(s)")
	assert.Contains(t, got, "/data/a.txt")
	assert.Contains(t, got, "/data/b.txt")
	assert.Contains(t, got, "92.0%")
	assert.Contains(t, got, "2.0 KiB")
	assert.Contains(t, got, "10 B")
}

func TestRenderGroupDetail_PairwiseOrder(t *testing.T) {
	var out strings.Builder
	r := NewRenderer(&out, false)

	group := similarity.Group{ID: 3, Files: []string{"/a", "/b", "/c"}, Similarity: 0.9}
	sims := map[similarity.Pair]float64{
		{A: "/b", B: "/c"}: 0.88,
		{A: "/a", B: "/b"}: 0.92,
	}

	require.NoError(t, r.RenderGroupDetail(group, sims))
	got := out.String()
	assert.Contains(t, got, "Group 3 (mean similarity 90.0%)")
	first := strings.Index(got, "/a <-> /b: 92.0%")
	second := strings.Index(got, "/b <-> /c: 88.0%")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
}

func TestRenderMovePreview(t *testing.T) {
	var out strings.Builder
	r := NewRenderer(&out, false)

	moves := []*operations.MoveOperation{
		{Source: "/data/b.txt", Destination: "/holding/b.txt", GroupID: 1, Timestamp: time.Now()},
	}

	require.NoError(t, r.RenderMovePreview(moves, false))
	got := out.String()
	assert.Contains(t, got, "Moving 1 file(s)")
	assert.Contains(t, got, "/data/b.txt")
	assert.Contains(t, got, "/holding/b.txt")
}

func TestRenderMovePreview_DryRun(t *testing.T) {
	var out strings.Builder
	r := NewRenderer(&out, false)

	moves := []*operations.MoveOperation{
		{Source: "/data/b.txt", Destination: "/holding/b.txt"},
	}

	require.NoError(t, r.RenderMovePreview(moves, true))
	assert.Contains(t, out.String(), "Would move 1 file(s) (dry run)")
}

func TestRenderSummary(t *testing.T) {
	var out strings.Builder
	r := NewRenderer(&out, false)

	require.NoError(t, r.RenderSummary(10, 2, 3))
	got := out.String()
	assert.Contains(t, got, "10 file(s) scanned")
	assert.Contains(t, got, "2 duplicate group(s)")
	assert.Contains(t, got, "3 file(s) moved")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", formatSize(0))
	assert.Equal(t, "1023 B", formatSize(1023))
	assert.Equal(t, "1.0 KiB", formatSize(1024))
	assert.Equal(t, "1.5 MiB", formatSize(3<<20/2))
}
