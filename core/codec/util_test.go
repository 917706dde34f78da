package codec

import (
	"testing"

	"github.com/ironsweet/gosearch/core/store"
	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeWithHeader(t *testing.T, codec string, version int32, body string) []byte {
	b, err := store.NewBuffer(16)
	require.NoError(t, err)
	out := util.NewDataOutput(store.NewBufferWriter(b))
	require.NoError(t, WriteHeader(out, codec, version))
	assert.Equal(t, HeaderLength(codec), b.Offset())
	require.NoError(t, out.WriteString(body))
	require.NoError(t, WriteFooter(b))
	return append([]byte(nil), b.Bytes()...)
}

func TestHeaderAndFooter(t *testing.T) {
	data := encodeWithHeader(t, "Postings", 3, "payload")

	b := store.WrapBuffer(data, store.BORROWED)
	_, err := CheckFooter(b)
	require.NoError(t, err)
	assert.True(t, b.AtEnd())

	r := store.NewBufferReader(b)
	r.Seek(0)
	in := util.NewDataInput(r)
	v, err := CheckHeader(in, "Postings", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
	s, err := in.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "payload", s)
	assert.Equal(t, len(data)-FOOTER_LENGTH, b.Offset())
}

func TestHeaderMismatch(t *testing.T) {
	data := encodeWithHeader(t, "Postings", 3, "")
	check := func(codec string, min, max int32) error {
		r := store.NewBufferReader(store.WrapBuffer(data, store.BORROWED))
		_, err := CheckHeader(util.NewDataInput(r), codec, min, max)
		return err
	}
	assert.True(t, errors.Is(check("Terms", 0, 5), ErrCorrupt))
	assert.True(t, errors.Is(check("Postings", 4, 5), ErrTooOld))
	assert.True(t, errors.Is(check("Postings", 0, 2), ErrTooNew))

	data[0] ^= 0xff
	assert.True(t, errors.Is(check("Postings", 0, 5), ErrCorrupt))
}

func TestFooterDetectsCorruption(t *testing.T) {
	data := encodeWithHeader(t, "Postings", 0, "some bytes to protect")
	for i := range data {
		corrupt := append([]byte(nil), data...)
		corrupt[i] ^= 0x01
		_, err := CheckFooter(store.WrapBuffer(corrupt, store.BORROWED))
		assert.True(t, errors.Is(err, ErrCorrupt), "flip at %v: %v", i, err)
	}
	_, err := CheckFooter(store.WrapBuffer(data[:FOOTER_LENGTH-1], store.BORROWED))
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestWriteHeaderRejectsBadNames(t *testing.T) {
	b, err := store.NewBuffer(16)
	require.NoError(t, err)
	out := util.NewDataOutput(store.NewBufferWriter(b))
	assert.Panics(t, func() { WriteHeader(out, "naïve", 0) })
}
