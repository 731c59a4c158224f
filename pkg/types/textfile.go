package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/ndetect/pkg/minhash"
)

// TextFile represents a candidate text file with its metadata and signature.
// Instances are created by the discovery stage and are immutable except for
// signature attachment, which happens lazily once content has been signed.
type TextFile struct {
	Path        string
	Size        int64
	ModTime     time.Time
	CreatedTime time.Time

	// Signature is nil until the signing stage attaches one. Files whose
	// signing failed keep a nil signature and are skipped by clustering.
	Signature minhash.Signature
}

// NewTextFile builds a TextFile from a stat call on the given filesystem.
// The signature is left unset.
func NewTextFile(fsys FS, path string) (*TextFile, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, err
	}
	return &TextFile{
		Path:        path,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		CreatedTime: createdTime(info),
	}, nil
}

// HasSignature reports whether a signature has been attached
func (t *TextFile) HasSignature() bool {
	return t.Signature != nil
}

// Name returns the file name without directory
func (t *TextFile) Name() string {
	return filepath.Base(t.Path)
}

// Extension returns the lower-cased file extension, including the dot
func (t *TextFile) Extension() string {
	return strings.ToLower(filepath.Ext(t.Path))
}

func (t *TextFile) String() string {
	return fmt.Sprintf("%s (%d bytes, modified %s)", t.Path, t.Size, t.ModTime.Format(time.RFC3339))
}
