package retention_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/ndetect/pkg/config"
	"github.com/arthur-debert/ndetect/pkg/errors"
	"github.com/arthur-debert/ndetect/pkg/retention"
	"github.com/arthur-debert/ndetect/pkg/types"
)

func file(path string, size int64, modTime time.Time) *types.TextFile {
	return &types.TextFile{Path: path, Size: size, ModTime: modTime}
}

func strategyConfig(strategy string) config.RetentionConfig {
	return config.RetentionConfig{Strategy: strategy}
}

func TestSelectKeeper_EmptyCandidates(t *testing.T) {
	_, err := retention.SelectKeeper(nil, strategyConfig(config.StrategyNewest), "")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestSelectKeeper_InvalidStrategy(t *testing.T) {
	files := []*types.TextFile{file("/a.txt", 1, time.Now())}
	_, err := retention.SelectKeeper(files, strategyConfig("by-vibes"), "")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidStrategy))
}

func TestSelectKeeper_Newest(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	files := []*types.TextFile{
		file("/data/old.txt", 10, t1),
		file("/data/new.txt", 10, t2),
	}

	keeper, err := retention.SelectKeeper(files, strategyConfig(config.StrategyNewest), "")
	require.NoError(t, err)
	assert.Equal(t, "/data/new.txt", keeper.Path)

	// Same result regardless of input order
	keeper, err = retention.SelectKeeper([]*types.TextFile{files[1], files[0]}, strategyConfig(config.StrategyNewest), "")
	require.NoError(t, err)
	assert.Equal(t, "/data/new.txt", keeper.Path)
}

func TestSelectKeeper_Oldest(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []*types.TextFile{
		file("/data/new.txt", 10, t1.Add(time.Hour)),
		file("/data/old.txt", 10, t1),
	}
	keeper, err := retention.SelectKeeper(files, strategyConfig(config.StrategyOldest), "")
	require.NoError(t, err)
	assert.Equal(t, "/data/old.txt", keeper.Path)
}

func TestSelectKeeper_LargestAndSmallest(t *testing.T) {
	now := time.Now()
	files := []*types.TextFile{
		file("/data/mid.txt", 50, now),
		file("/data/big.txt", 100, now),
		file("/data/tiny.txt", 5, now),
	}

	keeper, err := retention.SelectKeeper(files, strategyConfig(config.StrategyLargest), "")
	require.NoError(t, err)
	assert.Equal(t, "/data/big.txt", keeper.Path)

	keeper, err = retention.SelectKeeper(files, strategyConfig(config.StrategySmallest), "")
	require.NoError(t, err)
	assert.Equal(t, "/data/tiny.txt", keeper.Path)
}

func TestSelectKeeper_ShortestPath(t *testing.T) {
	now := time.Now()
	files := []*types.TextFile{
		file("/data/deeply/nested/dir/file.txt", 10, now),
		file("/data/file.txt", 10, now),
	}

	keeper, err := retention.SelectKeeper(files, strategyConfig(config.StrategyShortestPath), "")
	require.NoError(t, err)
	assert.Equal(t, "/data/file.txt", keeper.Path)

	// Relative to a base directory the comparison uses relative lengths
	keeper, err = retention.SelectKeeper(files, strategyConfig(config.StrategyShortestPath), "/data")
	require.NoError(t, err)
	assert.Equal(t, "/data/file.txt", keeper.Path)
}

func TestSelectKeeper_TiesKeepInputOrder(t *testing.T) {
	now := time.Now()
	files := []*types.TextFile{
		file("/data/first.txt", 10, now),
		file("/data/second.txt", 10, now),
	}

	for _, strategy := range []string{
		config.StrategyNewest, config.StrategyOldest,
		config.StrategyLargest, config.StrategySmallest,
	} {
		keeper, err := retention.SelectKeeper(files, strategyConfig(strategy), "")
		require.NoError(t, err, strategy)
		assert.Equal(t, "/data/first.txt", keeper.Path, "strategy %s", strategy)
	}
}

func TestSelectKeeper_PriorityFirstWinsOverStrategy(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []*types.TextFile{
		file("/data/scratch/notes.txt", 10, t1.Add(time.Hour)),
		file("/data/important/notes.txt", 10, t1),
	}

	cfg := config.RetentionConfig{
		Strategy:      config.StrategyNewest,
		PriorityPaths: []string{"/data/important/*"},
		PriorityFirst: true,
	}
	keeper, err := retention.SelectKeeper(files, cfg, "")
	require.NoError(t, err)
	// Newest would pick scratch; the priority pattern overrides it
	assert.Equal(t, "/data/important/notes.txt", keeper.Path)
}

func TestSelectKeeper_PriorityIgnoredWithoutPriorityFirst(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []*types.TextFile{
		file("/data/scratch/notes.txt", 10, t1.Add(time.Hour)),
		file("/data/important/notes.txt", 10, t1),
	}

	cfg := config.RetentionConfig{
		Strategy:      config.StrategyNewest,
		PriorityPaths: []string{"/data/important/*"},
		PriorityFirst: false,
	}
	keeper, err := retention.SelectKeeper(files, cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "/data/scratch/notes.txt", keeper.Path)
}

func TestSelectKeeper_PriorityPatternOrderMatters(t *testing.T) {
	now := time.Now()
	files := []*types.TextFile{
		file("/data/b/keep.txt", 10, now),
		file("/data/a/keep.txt", 10, now),
	}

	cfg := config.RetentionConfig{
		Strategy:      config.StrategyNewest,
		PriorityPaths: []string{"/data/a/*", "/data/b/*"},
		PriorityFirst: true,
	}
	keeper, err := retention.SelectKeeper(files, cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "/data/a/keep.txt", keeper.Path)
}

func TestSelectKeeper_PriorityFallsBackToStrategy(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []*types.TextFile{
		file("/data/old.txt", 10, t1),
		file("/data/new.txt", 10, t1.Add(time.Hour)),
	}

	cfg := config.RetentionConfig{
		Strategy:      config.StrategyNewest,
		PriorityPaths: []string{"/nowhere/*"},
		PriorityFirst: true,
	}
	keeper, err := retention.SelectKeeper(files, cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "/data/new.txt", keeper.Path)
}
