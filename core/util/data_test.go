package util_test

import (
	"math"
	"testing"

	"github.com/ironsweet/gosearch/core/store"
	. "github.com/ironsweet/gosearch/core/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferIO(t *testing.T) (*store.Buffer, *DataOutputImpl, *DataInputImpl) {
	b, err := store.NewBuffer(16)
	require.NoError(t, err)
	return b, NewDataOutput(store.NewBufferWriter(b)), NewDataInput(store.NewBufferReader(b))
}

func TestVIntEncoding(t *testing.T) {
	for _, tc := range []struct {
		value    int32
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{129, []byte{0x81, 0x01}},
		{16383, []byte{0xFF, 0x7F}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{-1, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
	} {
		b, out, in := newBufferIO(t)
		require.NoError(t, out.WriteVInt(tc.value))
		assert.Equal(t, tc.expected, b.Bytes(), "WriteVInt(%v)", tc.value)

		store.NewBufferReader(b).Seek(0)
		n, err := in.ReadVInt()
		require.NoError(t, err)
		assert.Equal(t, tc.value, n)
	}
}

func TestMixedValues(t *testing.T) {
	b, out, in := newBufferIO(t)
	require.NoError(t, out.WriteInt(-42))
	require.NoError(t, out.WriteLong(math.MinInt64+7))
	require.NoError(t, out.WriteVLong(math.MaxInt64))
	require.NoError(t, out.WriteString("héllo"))
	require.NoError(t, out.WriteFloat32(0.25))
	require.NoError(t, out.WriteFloat64(-73.9857))
	require.NoError(t, out.WriteByte(0xEE))

	// growth leaves room past the last write; fit the store to the data
	_, err := b.Truncate(0)
	require.NoError(t, err)
	store.NewBufferReader(b).Seek(0)
	i, err := in.ReadInt()
	require.NoError(t, err)
	assert.EqualValues(t, -42, i)

	l, err := in.ReadLong()
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MinInt64+7), l)

	vl, err := in.ReadVLong()
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), vl)

	s, err := in.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)

	f32, err := in.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), f32)

	f64, err := in.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, -73.9857, f64)

	c, err := in.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xEE), c)
	assert.True(t, b.AtEnd())

	_, err = in.ReadInt()
	assert.Equal(t, store.ErrShortRead, err)
}

func TestInvalidVarints(t *testing.T) {
	in := NewDataInput(store.NewBufferReader(store.WrapBuffer(
		[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x1F}, store.BORROWED)))
	_, err := in.ReadVInt()
	assert.Equal(t, ErrInvalidVInt, err)

	in = NewDataInput(store.NewBufferReader(store.WrapBuffer(
		[]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, store.BORROWED)))
	_, err = in.ReadVLong()
	assert.Equal(t, ErrInvalidVLong, err)

	// truncated input surfaces the reader's error
	in = NewDataInput(store.NewBufferReader(store.WrapBuffer([]byte{0x80}, store.BORROWED)))
	_, err = in.ReadVInt()
	assert.Equal(t, store.ErrShortRead, err)
}

func TestSkipBytes(t *testing.T) {
	b, out, in := newBufferIO(t)
	require.NoError(t, out.WriteBytes(make([]byte, 20)))
	require.NoError(t, out.WriteVInt(300))

	_, err := b.Truncate(0)
	require.NoError(t, err)
	store.NewBufferReader(b).Seek(0)
	require.NoError(t, in.SkipBytes(20))
	n, err := in.ReadVInt()
	require.NoError(t, err)
	assert.EqualValues(t, 300, n)
	assert.Error(t, in.SkipBytes(1))
}

func TestCounters(t *testing.T) {
	for _, c := range []Counter{NewCounter(), NewAtomicCounter()} {
		assert.EqualValues(t, 5, c.AddAndGet(5))
		assert.EqualValues(t, 2, c.AddAndGet(-3))
		assert.EqualValues(t, 2, c.Get())
	}
}
