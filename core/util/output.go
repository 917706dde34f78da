package util

import (
	"math"
)

/*
Writes the low-level data types of the index formats on top of a
DataWriter, typically a store.BufferWriter.

DataOutput may only be used from one goroutine, because it is not
thread safe (the underlying position is shared state).
*/
type DataOutput interface {
	DataWriter
	WriteInt(i int32) error
	WriteVInt(i int32) error
	WriteLong(i int64) error
	WriteVLong(i int64) error
	WriteFloat32(f float32) error
	WriteFloat64(f float64) error
	WriteString(s string) error
}

type DataWriter interface {
	WriteByte(b byte) error
	WriteBytes(buf []byte) error
}

type DataOutputImpl struct {
	Writer  DataWriter
	scratch [10]byte
}

func NewDataOutput(part DataWriter) *DataOutputImpl {
	assertTrue(part != nil)
	return &DataOutputImpl{Writer: part}
}

func (out *DataOutputImpl) WriteByte(b byte) error {
	return out.Writer.WriteByte(b)
}

func (out *DataOutputImpl) WriteBytes(buf []byte) error {
	return out.Writer.WriteBytes(buf)
}

/*
Writes an int as four bytes.

32-bit unsigned integer written as four bytes, high-order bytes first.
*/
func (out *DataOutputImpl) WriteInt(i int32) error {
	out.scratch[0] = byte(i >> 24)
	out.scratch[1] = byte(i >> 16)
	out.scratch[2] = byte(i >> 8)
	out.scratch[3] = byte(i)
	return out.Writer.WriteBytes(out.scratch[:4])
}

/*
Writes an int in a variable-length format. Writes between one and
five bytes. Smaller values take fewer bytes. Negative numbers are
supported, but always take five bytes and should be avoided.

VByte is a variable-length format. For positive integers, it is
defined where the high-order bit of each byte indicates whether more
bytes remain to be read. The low-order seven bits are appended as
increasingly more significant bits in the resulting integer value.
Thus values from zero to 127 may be stored in a single byte, values
from 128 to 16,383 may be stored in two bytes, and so on.

	| Value  | Byte 1   | Byte 2   | Byte 3   |
	| 0      | 00000000 |
	| 127    | 01111111 |
	| 128    | 10000000 | 00000001 |
	| 16,383 | 11111111 | 01111111 |
	| 16,384 | 10000000 | 10000000 | 00000001 |

This provides compression while still being efficient to decode.
*/
func (out *DataOutputImpl) WriteVInt(i int32) error {
	return out.writeVarint(uint64(uint32(i)))
}

/*
Writes a long as eight bytes.

64-bit unsigned integer written as eight bytes, high-order bytes first.
*/
func (out *DataOutputImpl) WriteLong(i int64) error {
	for k := 0; k < 8; k++ {
		out.scratch[k] = byte(i >> uint(56-8*k))
	}
	return out.Writer.WriteBytes(out.scratch[:8])
}

/*
Writes a long in a variable-length format. Writes between one and
nine bytes. Negative numbers are not supported.

The format is described further in WriteVInt().
*/
func (out *DataOutputImpl) WriteVLong(i int64) error {
	assert2(i >= 0, "cannot write negative vLong (got: %v)", i)
	return out.writeVarint(uint64(i))
}

func (out *DataOutputImpl) writeVarint(v uint64) error {
	n := 0
	for v >= 0x80 {
		out.scratch[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	out.scratch[n] = byte(v)
	return out.Writer.WriteBytes(out.scratch[:n+1])
}

// Writes the IEEE 754 bits of f as an int.
func (out *DataOutputImpl) WriteFloat32(f float32) error {
	return out.WriteInt(int32(math.Float32bits(f)))
}

// Writes the IEEE 754 bits of f as a long.
func (out *DataOutputImpl) WriteFloat64(f float64) error {
	return out.WriteLong(int64(math.Float64bits(f)))
}

/*
Writes a string.

Writes strings as UTF-8 encoded bytes. First the length, in bytes, is
written as a VInt, followed by the bytes.
*/
func (out *DataOutputImpl) WriteString(s string) error {
	err := out.WriteVInt(int32(len(s)))
	if err == nil {
		err = out.Writer.WriteBytes([]byte(s))
	}
	return err
}
