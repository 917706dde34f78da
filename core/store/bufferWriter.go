package store

/*
BufferWriter appends to a Buffer at its position, growing the store
when a write does not fit. It holds no state of its own: the position
lives in the Buffer, and the store is looked up on every call.
*/
type BufferWriter struct {
	buf *Buffer
}

func NewBufferWriter(b *Buffer) *BufferWriter {
	assertTrue(b != nil)
	return &BufferWriter{b}
}

func (w *BufferWriter) Buffer() *Buffer {
	return w.buf
}

/*
Appends p and advances the position by len(p). Writes are never
partial: either all of p is written, or nothing is and an
*AllocationError is returned.
*/
func (w *BufferWriter) Write(p []byte) (int, error) {
	b := w.buf
	if b.offset+len(p) > len(b.data) {
		if err := b.grow(len(p)); err != nil {
			return 0, err
		}
	}
	copy(b.data[b.offset:], p)
	b.offset += len(p)
	return len(p), nil
}

func (w *BufferWriter) WriteByte(c byte) error {
	b := w.buf
	if b.offset >= len(b.data) {
		if err := b.grow(1); err != nil {
			return err
		}
	}
	b.data[b.offset] = c
	b.offset++
	return nil
}

func (w *BufferWriter) WriteBytes(p []byte) error {
	_, err := w.Write(p)
	return err
}
