package util

import (
	"math"

	"github.com/pkg/errors"
)

var (
	ErrInvalidVInt  = errors.New("invalid vInt detected (too many bits)")
	ErrInvalidVLong = errors.New("invalid vLong detected (negative values disallowed)")
)

/*
Reads the low-level data types written by DataOutput.

DataInput may only be used from one goroutine, because it is not
thread safe (the underlying position is shared state).
*/
type DataInput interface {
	DataReader
	ReadInt() (n int32, err error)
	ReadVInt() (n int32, err error)
	ReadLong() (n int64, err error)
	ReadVLong() (n int64, err error)
	ReadFloat32() (f float32, err error)
	ReadFloat64() (f float64, err error)
	ReadString() (s string, err error)
}

type DataReader interface {
	// Reads and returns a single byte.
	ReadByte() (b byte, err error)
	// Fills buf entirely, or fails without a partial read.
	ReadBytes(buf []byte) error
}

type DataInputImpl struct {
	Reader  DataReader
	scratch [8]byte
}

func NewDataInput(spi DataReader) *DataInputImpl {
	assertTrue(spi != nil)
	return &DataInputImpl{Reader: spi}
}

func (in *DataInputImpl) ReadByte() (byte, error) {
	return in.Reader.ReadByte()
}

func (in *DataInputImpl) ReadBytes(buf []byte) error {
	return in.Reader.ReadBytes(buf)
}

func (in *DataInputImpl) ReadInt() (n int32, err error) {
	if err = in.Reader.ReadBytes(in.scratch[:4]); err != nil {
		return 0, err
	}
	b := in.scratch
	return (int32(b[0]) << 24) | (int32(b[1]) << 16) | (int32(b[2]) << 8) | int32(b[3]), nil
}

func (in *DataInputImpl) ReadLong() (n int64, err error) {
	if err = in.Reader.ReadBytes(in.scratch[:8]); err != nil {
		return 0, err
	}
	for _, b := range in.scratch {
		n = (n << 8) | int64(b)
	}
	return n, nil
}

func (in *DataInputImpl) ReadVInt() (n int32, err error) {
	v, err := in.readVarint(5)
	if err != nil {
		return 0, err
	}
	// Warning: the fifth byte may only carry the top four bits
	if v > math.MaxUint32 {
		return 0, ErrInvalidVInt
	}
	return int32(uint32(v)), nil
}

func (in *DataInputImpl) ReadVLong() (n int64, err error) {
	v, err := in.readVarint(9)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

func (in *DataInputImpl) readVarint(maxBytes int) (v uint64, err error) {
	var shift uint
	for i := 0; i < maxBytes; i++ {
		b, err := in.Reader.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7F) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
	}
	if maxBytes == 5 {
		return 0, ErrInvalidVInt
	}
	return 0, ErrInvalidVLong
}

func (in *DataInputImpl) ReadFloat32() (float32, error) {
	n, err := in.ReadInt()
	return math.Float32frombits(uint32(n)), err
}

func (in *DataInputImpl) ReadFloat64() (float64, error) {
	n, err := in.ReadLong()
	return math.Float64frombits(uint64(n)), err
}

func (in *DataInputImpl) ReadString() (s string, err error) {
	length, err := in.ReadVInt()
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", errors.Errorf("invalid string length %v", length)
	}
	bytes := make([]byte, length)
	if err = in.Reader.ReadBytes(bytes); err != nil {
		return "", errors.Wrapf(err, "string of %v bytes", length)
	}
	return string(bytes), nil
}

/*
Skip over numBytes bytes. It behaves the same as reading numBytes
bytes into a buffer and discarding them. Negative values of numBytes
are not supported.
*/
func (in *DataInputImpl) SkipBytes(numBytes int) error {
	assert2(numBytes >= 0, "numBytes must be >= 0, got %v", numBytes)
	for numBytes > 0 {
		step := min(numBytes, len(in.scratch))
		if err := in.Reader.ReadBytes(in.scratch[:step]); err != nil {
			return err
		}
		numBytes -= step
	}
	return nil
}
