package minhash

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/ndetect/pkg/errors"
)

func TestSigner_MatchesOneShot(t *testing.T) {
	e := defaultTestEngine(t)
	content := "The quick brown fox jumps over the lazy dog, répétition émue, 世界 again and again."

	want, err := e.Sign(context.Background(), content)
	require.NoError(t, err)

	// Arbitrary chunk sizes, including ones that split multi-byte runes
	for _, size := range []int{1, 2, 3, 7, 16, 1024} {
		signer := e.NewSigner()
		data := []byte(content)
		for len(data) > 0 {
			n := size
			if n > len(data) {
				n = len(data)
			}
			_, err := signer.Write(data[:n])
			require.NoError(t, err)
			data = data[n:]
		}
		assert.Equal(t, want, signer.Sum(), "chunk size %d", size)
	}
}

func TestSigner_WhitespaceAcrossChunks(t *testing.T) {
	e := defaultTestEngine(t)

	want, err := e.Sign(context.Background(), "hello world")
	require.NoError(t, err)

	signer := e.NewSigner()
	for _, part := range []string{"hello ", " ", "\t", " world"} {
		_, err := signer.Write([]byte(part))
		require.NoError(t, err)
	}
	assert.Equal(t, want, signer.Sum())
}

func TestSigner_EmptyInput(t *testing.T) {
	e := defaultTestEngine(t)
	signer := e.NewSigner()
	assert.True(t, signer.Sum().IsEmpty())

	_, err := signer.Write(nil)
	require.NoError(t, err)
	assert.True(t, signer.Sum().IsEmpty())
}

func TestSignReader(t *testing.T) {
	e := defaultTestEngine(t)
	content := strings.Repeat("streaming content for the reader path ", 10)

	want, err := e.Sign(context.Background(), content)
	require.NoError(t, err)

	got, err := e.SignReader(context.Background(), strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("synthetic I/O failure")
}

func TestSignReader_ReadError(t *testing.T) {
	e := defaultTestEngine(t)

	sig, err := e.SignReader(context.Background(), failingReader{})
	assert.Nil(t, sig)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSigningFailure))
}

func TestSignReader_Cancelled(t *testing.T) {
	e := defaultTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var r io.Reader = strings.NewReader("content that will never be signed")
	sig, err := e.SignReader(ctx, r)
	assert.Nil(t, sig)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSigningFailure))
}
