package operations

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MoveOperation is a planned relocation of one duplicate file into the
// holding directory. Executed is set only after the filesystem move
// succeeded.
type MoveOperation struct {
	Source      string
	Destination string
	GroupID     int
	Timestamp   time.Time
	Executed    bool
}

// Planner computes destinations for duplicate files, re-rooting each
// source under the holding directory. It keeps track of destinations
// already handed out, so collisions are suffixed across an entire batch,
// not just within one group.
type Planner struct {
	holdingDir        string
	preserveStructure bool
	baseDir           string
	used              map[string]bool
}

// NewPlanner creates a planner for one move batch
func NewPlanner(holdingDir string, preserveStructure bool, baseDir string) *Planner {
	return &Planner{
		holdingDir:        holdingDir,
		preserveStructure: preserveStructure,
		baseDir:           baseDir,
		used:              make(map[string]bool),
	}
}

// Plan produces move operations for the non-keeper files of one group.
// With structure preservation, the path relative to the base dir is
// mirrored under the holding dir; sources outside the base dir fall back
// to flat filename placement. Colliding destinations get a numeric suffix
// before the extension.
func (p *Planner) Plan(files []string, groupID int) []*MoveOperation {
	moves := make([]*MoveOperation, 0, len(files))

	for _, source := range files {
		dest := filepath.Join(p.holdingDir, filepath.Base(source))
		if p.preserveStructure && p.baseDir != "" {
			if rel, err := filepath.Rel(p.baseDir, source); err == nil && !strings.HasPrefix(rel, "..") {
				dest = filepath.Join(p.holdingDir, rel)
			}
		}

		base := dest
		for counter := 1; p.used[dest]; counter++ {
			ext := filepath.Ext(base)
			stem := strings.TrimSuffix(base, ext)
			dest = fmt.Sprintf("%s_%d%s", stem, counter, ext)
		}
		p.used[dest] = true

		moves = append(moves, &MoveOperation{
			Source:      source,
			Destination: dest,
			GroupID:     groupID,
			Timestamp:   time.Now(),
		})
	}
	return moves
}

// PrepareMoves plans a single group in isolation
func PrepareMoves(files []string, holdingDir string, preserveStructure bool, groupID int, baseDir string) []*MoveOperation {
	return NewPlanner(holdingDir, preserveStructure, baseDir).Plan(files, groupID)
}
