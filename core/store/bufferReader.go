package store

/*
BufferReader consumes a Buffer from its position without ever growing
it. Reads are bounded by the capacity of the store.

Creating a reader does not move the position. After writing through a
BufferWriter the position sits at the end of the written bytes, so a
fresh reader sees an exhausted buffer until it is told where to start:

	w := NewBufferWriter(b)
	w.Write(data)
	r := NewBufferReader(b)
	r.Seek(0)
	r.ReadInto(dst)
*/
type BufferReader struct {
	buf *Buffer
}

func NewBufferReader(b *Buffer) *BufferReader {
	assertTrue(b != nil)
	return &BufferReader{b}
}

func (r *BufferReader) Buffer() *Buffer {
	return r.buf
}

/*
Copies len(dst) bytes from the position into dst and returns
len(dst). If fewer bytes remain before the end of the store, nothing
is copied, the position does not move, and 0 is returned. Callers
asking for a non-empty dst must treat 0 as "not enough data".
*/
func (r *BufferReader) ReadInto(dst []byte) int {
	b := r.buf
	n := len(dst)
	if n > len(b.data)-b.offset {
		return 0
	}
	copy(dst, b.data[b.offset:b.offset+n])
	b.offset += n
	return n
}

// Like ReadInto, but reports a short read as ErrShortRead.
func (r *BufferReader) ReadBytes(dst []byte) error {
	if len(dst) > 0 && r.ReadInto(dst) == 0 {
		return ErrShortRead
	}
	return nil
}

func (r *BufferReader) ReadByte() (byte, error) {
	b := r.buf
	if b.offset >= len(b.data) {
		return 0, ErrShortRead
	}
	c := b.data[b.offset]
	b.offset++
	return c, nil
}

/*
Reads one byte without checking for the end of the store. Only use it
where the caller has already established that a byte is available;
at the end it panics with an index out of range.
*/
func (r *BufferReader) ReadByteUnchecked() byte {
	b := r.buf
	c := b.data[b.offset]
	b.offset++
	return c
}

/*
Moves the position by n bytes and returns where it ended up. Moving
past the end of the store stops at the end. A negative n moves
backwards and stops at 0.
*/
func (r *BufferReader) Skip(n int) int {
	b := r.buf
	if n >= len(b.data)-b.offset {
		b.offset = len(b.data)
	} else if n < -b.offset {
		b.offset = 0
	} else {
		b.offset += n
	}
	return b.offset
}

// Moves the position to where, clamped to [0, capacity], and returns
// the effective position.
func (r *BufferReader) Seek(where int) int {
	b := r.buf
	switch {
	case where > len(b.data):
		where = len(b.data)
	case where < 0:
		where = 0
	}
	b.offset = where
	return where
}
