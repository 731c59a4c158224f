package minhash

import (
	"context"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/arthur-debert/ndetect/pkg/errors"
)

// Signer incrementally signs content supplied in arbitrary byte chunks,
// without ever holding the whole document. It keeps a sliding window of
// the last k-1 normalized runes so shingles spanning chunk boundaries are
// never lost, and carries partial UTF-8 sequences across writes.
type Signer struct {
	engine *Engine
	sig    Signature

	window  []rune // at most k runes; slides by one per emitted shingle
	carry   []byte // incomplete UTF-8 sequence from the previous write
	pending bool   // a collapsed whitespace run awaits the next rune
	started bool   // a non-space rune has been seen
}

// NewSigner returns a fresh streaming signer for this engine
func (e *Engine) NewSigner() *Signer {
	return &Signer{
		engine: e,
		sig:    e.emptySignature(),
		window: make([]rune, 0, e.cfg.ShingleSize),
	}
}

// Write feeds the next chunk of raw bytes. Invalid UTF-8 sequences are
// replaced, never rejected; content shape cannot fail signing.
func (s *Signer) Write(p []byte) (int, error) {
	buf := p
	if len(s.carry) > 0 {
		buf = append(s.carry, p...)
		s.carry = nil
	}
	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size == 1 {
			if !utf8.FullRune(buf) && len(buf) < utf8.UTFMax {
				// Truncated sequence at the end of the chunk; keep it
				// for the next write
				s.carry = append(s.carry, buf...)
				break
			}
			r = unicode.ReplacementChar
		}
		buf = buf[size:]
		s.push(r)
	}
	return len(p), nil
}

// push normalizes one rune and slides it through the shingle window
func (s *Signer) push(r rune) {
	if unicode.IsSpace(r) {
		s.pending = s.started
		return
	}
	if s.pending {
		s.pending = false
		s.emit(' ')
	}
	s.started = true
	s.emit(unicode.ToLower(r))
}

func (s *Signer) emit(r rune) {
	k := s.engine.cfg.ShingleSize
	s.window = append(s.window, r)
	if len(s.window) < k {
		return
	}
	s.engine.update(s.sig, string(s.window))
	copy(s.window, s.window[1:])
	s.window = s.window[:k-1]
}

// Sum returns the signature of everything written so far. A document that
// never produced a shingle yields the defined empty signature.
func (s *Signer) Sum() Signature {
	out := make(Signature, len(s.sig))
	copy(out, s.sig)
	return out
}

// SignReader signs content read incrementally from r. Cancellation or a
// read failure discards the partial computation; no short sketch is ever
// returned.
func (e *Engine) SignReader(ctx context.Context, r io.Reader) (Signature, error) {
	signer := e.NewSigner()
	buf := make([]byte, 64<<10)
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrSigningFailure, "signing cancelled")
		}
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = signer.Write(buf[:n])
		}
		if err == io.EOF {
			return signer.Sum(), nil
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrSigningFailure, "failed to read content")
		}
	}
}
