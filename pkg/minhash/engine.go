package minhash

import (
	"context"
	"hash/fnv"
	"math/bits"
	"math/rand"
	"runtime"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/ndetect/pkg/errors"
	"github.com/arthur-debert/ndetect/pkg/logging"
)

// Config controls signature computation
type Config struct {
	// NumPermutations is the signature length (positions in the sketch)
	NumPermutations int
	// ShingleSize is the length k of the overlapping substrings
	ShingleSize int
	// Workers bounds the pool used for chunked extraction of large inputs
	Workers int
	// LargeInputThreshold is the input size, in bytes, at or above which
	// shingle extraction is partitioned into parallel chunks
	LargeInputThreshold int
	// ChunkSize is the partition size, in runes, for parallel extraction
	ChunkSize int
	// Seed drives the permutation coefficients. The same seed always
	// produces the same signatures.
	Seed int64
}

// DefaultConfig returns the standard engine configuration
func DefaultConfig() Config {
	return Config{
		NumPermutations:     128,
		ShingleSize:         5,
		Workers:             runtime.GOMAXPROCS(0),
		LargeInputThreshold: 1 << 20,
		ChunkSize:           256 << 10,
		Seed:                1,
	}
}

// Engine computes deterministic MinHash signatures over k-shingles of
// normalized text. An Engine is immutable after construction and safe for
// concurrent use.
type Engine struct {
	cfg Config

	// Universal hash coefficients, one (a, b) pair per permutation:
	// perm_i(h) = (a_i*h + b_i) mod mersennePrime
	coefA []uint64
	coefB []uint64
}

// NewEngine validates cfg and builds an engine with deterministic
// permutation coefficients
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.NumPermutations <= 0 {
		return nil, errors.New(errors.ErrInvalidInput, "NumPermutations must be positive")
	}
	if cfg.ShingleSize <= 0 {
		return nil, errors.New(errors.ErrInvalidInput, "ShingleSize must be positive")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.LargeInputThreshold <= 0 {
		cfg.LargeInputThreshold = DefaultConfig().LargeInputThreshold
	}
	if cfg.ChunkSize < cfg.ShingleSize {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	e := &Engine{
		cfg:   cfg,
		coefA: make([]uint64, cfg.NumPermutations),
		coefB: make([]uint64, cfg.NumPermutations),
	}
	for i := 0; i < cfg.NumPermutations; i++ {
		e.coefA[i] = uint64(rng.Int63n(int64(mersennePrime-1))) + 1
		e.coefB[i] = uint64(rng.Int63n(int64(mersennePrime)))
	}
	return e, nil
}

// ShingleSize returns the configured shingle width k
func (e *Engine) ShingleSize() int {
	return e.cfg.ShingleSize
}

// NumPermutations returns the signature length
func (e *Engine) NumPermutations() int {
	return e.cfg.NumPermutations
}

// Sign computes the signature of content. Inputs at or above the
// large-input threshold are partitioned and processed by a bounded
// worker pool; the result is identical to a single-pass signing. A
// document too short to produce any shingle yields the empty signature.
func (e *Engine) Sign(ctx context.Context, content string) (Signature, error) {
	text := normalize(content)
	if len(text) < e.cfg.ShingleSize {
		return e.emptySignature(), nil
	}
	if len(content) >= e.cfg.LargeInputThreshold {
		return e.signChunked(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrSigningFailure, "signing cancelled")
	}
	sig := e.emptySignature()
	e.updateRange(sig, text, 0, len(text)-e.cfg.ShingleSize)
	return sig, nil
}

// signChunked partitions text into fixed-size chunks processed in
// parallel. Shingles straddling a chunk boundary are recomputed once all
// chunks have completed, since naive partitioning would drop them.
func (e *Engine) signChunked(ctx context.Context, text []rune) (Signature, error) {
	k := e.cfg.ShingleSize
	chunk := e.cfg.ChunkSize
	last := len(text) - k

	var bounds []int
	for start := 0; start < len(text); start += chunk {
		bounds = append(bounds, start)
	}

	partials := make([]Signature, len(bounds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, start := range bounds {
		end := start + chunk
		if end > len(text) {
			end = len(text)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sig := e.emptySignature()
			// Interior shingles only: start positions fully inside the chunk
			e.updateRange(sig, text, start, min(end-k, last))
			partials[i] = sig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Compute-or-discard: never return a short sketch
		return nil, errors.Wrap(err, errors.ErrSigningFailure, "chunked signing aborted")
	}

	sig := e.emptySignature()
	for _, p := range partials {
		sig.merge(p)
	}

	// Boundary shingles span the last k-1 runes of one chunk and the
	// first k-1 of the next
	for _, start := range bounds[1:] {
		lo := start - k + 1
		if lo < 0 {
			lo = 0
		}
		e.updateRange(sig, text, lo, min(start-1, last))
	}

	logger := logging.GetLogger("minhash")
	logger.Debug().
		Int("chunks", len(bounds)).
		Int("runes", len(text)).
		Msg("Chunked signature computed")
	return sig, nil
}

// updateRange folds every shingle with a start position in [lo, hi]
// (inclusive) into sig
func (e *Engine) updateRange(sig Signature, text []rune, lo, hi int) {
	k := e.cfg.ShingleSize
	for p := lo; p <= hi; p++ {
		e.update(sig, string(text[p:p+k]))
	}
}

// update folds a single shingle into sig
func (e *Engine) update(sig Signature, shingle string) {
	h := baseHash(shingle)
	for i := range sig {
		if v := e.permute(i, h); v < sig[i] {
			sig[i] = v
		}
	}
}

// permute applies permutation i to a base hash value
func (e *Engine) permute(i int, h uint64) uint64 {
	hi, lo := bits.Mul64(e.coefA[i], h)
	lo, carry := bits.Add64(lo, e.coefB[i], 0)
	hi += carry
	// hi < 2^58 + 1 < mersennePrime, so Div64 cannot panic
	_, rem := bits.Div64(hi, lo, mersennePrime)
	return rem
}

func (e *Engine) emptySignature() Signature {
	sig := make(Signature, e.cfg.NumPermutations)
	for i := range sig {
		sig[i] = maxHash
	}
	return sig
}

// baseHash maps a shingle to a value below the permutation modulus
func baseHash(shingle string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(shingle))
	return h.Sum64() % mersennePrime
}

// normalize lower-cases text and collapses whitespace runs to single
// spaces, dropping leading and trailing whitespace. The rune-at-a-time
// transform matches the streaming signer exactly.
func normalize(content string) []rune {
	out := make([]rune, 0, len(content))
	pendingSpace := false
	for _, r := range content {
		if unicode.IsSpace(r) {
			pendingSpace = len(out) > 0
			continue
		}
		if pendingSpace {
			out = append(out, ' ')
			pendingSpace = false
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}
