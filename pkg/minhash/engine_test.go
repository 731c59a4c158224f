package minhash

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/ndetect/pkg/errors"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func defaultTestEngine(t *testing.T) *Engine {
	return newTestEngine(t, DefaultConfig())
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	_, err := NewEngine(Config{NumPermutations: 0, ShingleSize: 5})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = NewEngine(Config{NumPermutations: 128, ShingleSize: -1})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestSign_Deterministic(t *testing.T) {
	e := defaultTestEngine(t)
	content := "hello world this is a test of deterministic signing"

	sig1, err := e.Sign(context.Background(), content)
	require.NoError(t, err)
	sig2, err := e.Sign(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, sig1, sig2)

	// A second engine with the same config produces the same signature
	other := defaultTestEngine(t)
	sig3, err := other.Sign(context.Background(), content)
	require.NoError(t, err)
	assert.Equal(t, sig1, sig3)
}

func TestSign_IdenticalAfterNormalization(t *testing.T) {
	e := defaultTestEngine(t)

	sig1, err := e.Sign(context.Background(), "Hello   World, This\tIs A Test")
	require.NoError(t, err)
	sig2, err := e.Sign(context.Background(), "  hello world, this is a test\n")
	require.NoError(t, err)

	sim, err := Similarity(sig1, sig2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sim)
}

func TestSign_EmptyDocument(t *testing.T) {
	e := defaultTestEngine(t)

	sig, err := e.Sign(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, []uint64(sig), 128)
	assert.True(t, sig.IsEmpty())

	// A document shorter than one shingle also yields the empty signature
	short, err := e.Sign(context.Background(), "ab")
	require.NoError(t, err)
	assert.True(t, short.IsEmpty())
}

func TestSimilarity_LengthMismatch(t *testing.T) {
	_, err := Similarity(make(Signature, 128), make(Signature, 64))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = Similarity(Signature{}, Signature{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestSimilarity_Disjoint(t *testing.T) {
	e := defaultTestEngine(t)

	sig1, err := e.Sign(context.Background(), "aaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	sig2, err := e.Sign(context.Background(), "zzzzzzzzzzzzzzzzzzzzzzzz")
	require.NoError(t, err)

	sim, err := Similarity(sig1, sig2)
	require.NoError(t, err)
	assert.Less(t, sim, 0.5)
}

// shingleSet is the reference shingle extraction the signature estimates
func shingleSet(content string, k int) map[string]struct{} {
	text := normalize(content)
	set := make(map[string]struct{})
	for i := 0; i+k <= len(text); i++ {
		set[string(text[i:i+k])] = struct{}{}
	}
	return set
}

func trueJaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for s := range a {
		if _, ok := b[s]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func TestSimilarity_ConvergesToJaccard(t *testing.T) {
	doc1 := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20)
	doc2 := strings.Repeat("the quick brown fox walks under the lazy dog. ", 20)

	want := trueJaccard(shingleSet(doc1, 5), shingleSet(doc2, 5))
	require.Greater(t, want, 0.0)
	require.Less(t, want, 1.0)

	// The estimate must approach the true Jaccard value as the sketch
	// grows. Tolerances are several standard errors wide at each size.
	cases := []struct {
		numPerm int
		delta   float64
	}{
		{64, 0.40},
		{256, 0.20},
		{1024, 0.10},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		cfg.NumPermutations = tc.numPerm
		e := newTestEngine(t, cfg)

		sig1, err := e.Sign(context.Background(), doc1)
		require.NoError(t, err)
		sig2, err := e.Sign(context.Background(), doc2)
		require.NoError(t, err)

		got, err := Similarity(sig1, sig2)
		require.NoError(t, err)
		assert.InDelta(t, want, got, tc.delta, "numPerm=%d", tc.numPerm)
	}
}

func TestSignChunked_MatchesSinglePass(t *testing.T) {
	content := strings.Repeat("some reasonably varied text with numbers 0123456789 and punctuation! ", 50)

	serial := newTestEngine(t, DefaultConfig())
	want, err := serial.Sign(context.Background(), content)
	require.NoError(t, err)

	// Force the chunked path with partitions far smaller than the input,
	// including sizes that do not divide the input evenly
	for _, chunkSize := range []int{64, 97, 1000} {
		cfg := DefaultConfig()
		cfg.LargeInputThreshold = 10
		cfg.ChunkSize = chunkSize
		cfg.Workers = 4
		chunked := newTestEngine(t, cfg)

		got, err := chunked.Sign(context.Background(), content)
		require.NoError(t, err)
		assert.Equal(t, want, got, "chunkSize=%d", chunkSize)
	}
}

func TestSignChunked_ThresholdCountsInputBytes(t *testing.T) {
	// Multibyte runes and collapsed whitespace make the normalized rune
	// count far smaller than the raw byte count; the gate uses the bytes
	content := strings.Repeat("héllo wörld    ", 40)
	require.Greater(t, len(content), len([]rune(content)))

	cfg := DefaultConfig()
	cfg.LargeInputThreshold = len(content)
	cfg.ChunkSize = 32
	chunked := newTestEngine(t, cfg)

	got, err := chunked.Sign(context.Background(), content)
	require.NoError(t, err)

	want, err := defaultTestEngine(t).Sign(context.Background(), content)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSignChunked_Cancelled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LargeInputThreshold = 10
	cfg.ChunkSize = 16
	e := newTestEngine(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sig, err := e.Sign(ctx, strings.Repeat("cancel me please ", 100))
	assert.Nil(t, sig, "a cancelled signing must not return a partial sketch")
	assert.True(t, errors.IsErrorCode(err, errors.ErrSigningFailure))
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello world"},
		{"  leading and trailing  ", "leading and trailing"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"UPPER lower MiXeD", "upper lower mixed"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, string(normalize(tc.in)), "input %q", tc.in)
	}
}
