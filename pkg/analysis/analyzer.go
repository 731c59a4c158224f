package analysis

import (
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/arthur-debert/ndetect/pkg/config"
	"github.com/arthur-debert/ndetect/pkg/types"
)

// headSize is how much of a file the validity screen reads
const headSize = 8 << 10

// Analyzer screens candidate paths with a coarse textual validity check:
// an extension allow-list, a UTF-8 decode of the leading bytes and a
// printable-character ratio. It decides whether a file is worth signing
// at all; it never reads more than the head of a file.
type Analyzer struct {
	cfg        config.AnalyzerConfig
	fs         types.FS
	extensions map[string]bool
}

// NewAnalyzer validates cfg and builds an analyzer over the given
// filesystem
func NewAnalyzer(cfg config.AnalyzerConfig, fsys types.FS) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	allowed := cfg.AllowedExtensions
	if allowed == nil {
		allowed = config.DefaultAllowedExtensions
	}
	var extensions map[string]bool
	if len(allowed) > 0 {
		extensions = make(map[string]bool, len(allowed))
		for _, ext := range allowed {
			extensions[ext] = true
		}
	}
	return &Analyzer{cfg: cfg, fs: fsys, extensions: extensions}, nil
}

// Analyze returns a TextFile record when path passes the validity screen,
// nil otherwise. The signature is left for the signing stage.
func (a *Analyzer) Analyze(path string) (*types.TextFile, error) {
	if !a.isValidText(path) {
		return nil, nil
	}
	file, err := types.NewTextFile(a.fs, path)
	if err != nil {
		return nil, err
	}
	if a.cfg.SkipEmpty && file.Size == 0 {
		return nil, nil
	}
	return file, nil
}

// isValidText applies the extension and printable-ratio screens
func (a *Analyzer) isValidText(path string) bool {
	if a.extensions != nil {
		file := &types.TextFile{Path: path}
		if !a.extensions[file.Extension()] {
			return false
		}
	}

	f, err := a.fs.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, headSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false
	}
	head = head[:n]

	// Empty files are valid text
	if len(head) == 0 {
		return true
	}
	if !utf8.Valid(trimPartialRune(head)) {
		return false
	}

	printable := 0
	total := 0
	for _, r := range string(trimPartialRune(head)) {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	if total == 0 {
		return true
	}
	return float64(printable)/float64(total) >= a.cfg.MinPrintableRatio
}

// trimPartialRune drops a multi-byte rune cut off by the head boundary
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}
