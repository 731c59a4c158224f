package operations

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/ndetect/pkg/errors"
	"github.com/arthur-debert/ndetect/pkg/logging"
	"github.com/arthur-debert/ndetect/pkg/types"
)

// Transaction executes a batch of planned moves as a best-effort atomic
// unit: a disk-space preflight runs before any move, and any failure
// mid-batch rolls back every completed move in reverse completion order.
// A Transaction is single-use and assumes a single caller.
type Transaction struct {
	fs      types.FS
	logger  zerolog.Logger
	batchID string
}

// NewTransaction creates a transaction over the given filesystem
func NewTransaction(fsys types.FS) *Transaction {
	batchID := uuid.NewString()
	return &Transaction{
		fs:      fsys,
		logger:  logging.GetLogger("operations").With().Str("batch", batchID).Logger(),
		batchID: batchID,
	}
}

// BatchID identifies this transaction in move log records
func (t *Transaction) BatchID() string {
	return t.batchID
}

// Execute runs the planned moves in order. An empty batch is a successful
// no-op that touches nothing, not even the disk-space check. On failure
// the returned error carries the original cause; rollback problems are
// logged but never replace it.
func (t *Transaction) Execute(moves []*MoveOperation) error {
	if len(moves) == 0 {
		return nil
	}

	if err := t.preflight(moves); err != nil {
		return err
	}

	var completed []*MoveOperation
	for _, move := range moves {
		if err := t.fs.MkdirAll(filepath.Dir(move.Destination), 0755); err != nil {
			t.rollback(completed)
			return moveError(err, move, "cannot create destination directory")
		}
		if err := t.fs.Rename(move.Source, move.Destination); err != nil {
			t.rollback(completed)
			return moveError(err, move, "move failed")
		}
		move.Executed = true
		completed = append(completed, move)
		t.logger.Info().
			Str("operation", "move").
			Str("source", move.Source).
			Str("destination", move.Destination).
			Int("group", move.GroupID).
			Str("status", "completed").
			Msg("Moved file")
	}
	return nil
}

// preflight verifies every destination directory's filesystem has room
// for the combined size of the files headed there
func (t *Transaction) preflight(moves []*MoveOperation) error {
	required := make(map[string]uint64)
	for _, move := range moves {
		info, err := t.fs.Stat(move.Source)
		if err != nil {
			return moveError(err, move, "cannot stat source")
		}
		dir := filepath.Dir(move.Destination)
		required[dir] += uint64(info.Size())
	}

	for dir, need := range required {
		free, err := t.diskFreeAt(dir)
		if err != nil {
			return errors.Wrapf(err, errors.ErrOperationFailed, "cannot determine free space for %s", dir)
		}
		if free < need {
			return errors.Newf(errors.ErrInsufficientSpace,
				"need %d bytes under %s, only %d available", need, dir, free).
				WithDetail("required", need).
				WithDetail("available", free)
		}
	}
	return nil
}

// diskFreeAt reports free space at dir, walking up to the nearest
// existing ancestor since destination directories may not exist yet
func (t *Transaction) diskFreeAt(dir string) (uint64, error) {
	for {
		if _, err := t.fs.Stat(dir); err == nil {
			return t.fs.DiskFree(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return t.fs.DiskFree(dir)
		}
		dir = parent
	}
}

// rollback undoes completed moves in reverse completion order. Steps that
// cannot be undone are logged and skipped; rollback never escalates.
func (t *Transaction) rollback(completed []*MoveOperation) {
	for i := len(completed) - 1; i >= 0; i-- {
		move := completed[i]
		if err := t.fs.Rename(move.Destination, move.Source); err != nil {
			t.logger.Error().
				Str("operation", "rollback").
				Str("source", move.Source).
				Str("destination", move.Destination).
				Int("group", move.GroupID).
				Str("status", "failed").
				Err(err).
				Msg("Cannot undo completed move")
			continue
		}
		move.Executed = false
		t.logger.Info().
			Str("operation", "rollback").
			Str("source", move.Source).
			Str("destination", move.Destination).
			Int("group", move.GroupID).
			Str("status", "completed").
			Msg("Rolled back move")
	}
}

// moveError classifies a filesystem failure for one move
func moveError(err error, move *MoveOperation, message string) error {
	code := errors.ErrOperationFailed
	if os.IsPermission(err) {
		code = errors.ErrPermission
	} else if os.IsNotExist(err) {
		code = errors.ErrNotFound
	}
	return errors.Wrapf(err, code, "%s: %s -> %s", message, move.Source, move.Destination)
}
