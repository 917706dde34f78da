package compressing

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/ironsweet/gosearch/core/codec"
	"github.com/ironsweet/gosearch/core/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allModes = []CompressionMode{
	COMPRESSION_MODE_NONE,
	COMPRESSION_MODE_FAST,
	COMPRESSION_MODE_SNAPPY,
	COMPRESSION_MODE_ZSTD,
}

func compressible(r *rand.Rand, n int) []byte {
	words := [][]byte{[]byte("hello "), []byte("world "), []byte("posting "), {0, 1, 2, 3}}
	var buf bytes.Buffer
	for buf.Len() < n {
		buf.Write(words[r.Intn(len(words))])
	}
	return buf.Bytes()[:n]
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, mode := range allModes {
		for _, size := range []int{0, 1, 17, 4096, 200000} {
			src := compressible(r, size)

			b, err := store.NewBuffer(8)
			require.NoError(t, err)
			require.NoError(t, mode.NewCompressor()(src, store.NewBufferWriter(b)), "%v/%v", mode, size)

			got, err := mode.NewDecompressor()(b.Bytes(), len(src))
			require.NoError(t, err, "%v/%v", mode, size)
			assert.True(t, bytes.Equal(src, got), "%v/%v: content mismatch", mode, size)
		}
	}
}

func TestLengthMismatchIsCorrupt(t *testing.T) {
	src := compressible(rand.New(rand.NewSource(1)), 1000)
	for _, mode := range allModes {
		b, err := store.NewBuffer(8)
		require.NoError(t, err)
		require.NoError(t, mode.NewCompressor()(src, store.NewBufferWriter(b)))

		_, err = mode.NewDecompressor()(b.Bytes(), len(src)+1)
		assert.True(t, errors.Is(err, codec.ErrCorrupt), "%v: %v", mode, err)
	}
}

func TestGarbageIsCorrupt(t *testing.T) {
	garbage := []byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb, 0xfa}
	for _, mode := range []CompressionMode{COMPRESSION_MODE_SNAPPY, COMPRESSION_MODE_ZSTD} {
		_, err := mode.NewDecompressor()(garbage, 100)
		assert.True(t, errors.Is(err, codec.ErrCorrupt), "%v", mode)
	}
}

func TestParseCompressionMode(t *testing.T) {
	for _, mode := range allModes {
		parsed, err := ParseCompressionMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}
	_, err := ParseCompressionMode("gzip")
	assert.Error(t, err)
}

func TestOversizedLengthIsRejected(t *testing.T) {
	src := compressible(rand.New(rand.NewSource(3)), 100)
	for _, mode := range allModes {
		b, err := store.NewBuffer(8)
		require.NoError(t, err)
		require.NoError(t, mode.NewCompressor()(src, store.NewBufferWriter(b)))

		for _, n := range []int{-1, 1 << 30} {
			_, err = mode.NewDecompressor()(b.Bytes(), n)
			assert.True(t, errors.Is(err, codec.ErrCorrupt), "%v/%v: %v", mode, n, err)
		}
	}
	assert.Equal(t, 0, COMPRESSION_MODE_NONE.maxDecodedLength(0))
	assert.Less(t, COMPRESSION_MODE_FAST.maxDecodedLength(100), 1<<30)
	assert.Less(t, COMPRESSION_MODE_SNAPPY.maxDecodedLength(100), 1<<30)
}
