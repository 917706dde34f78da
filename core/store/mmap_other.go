//go:build !unix

package store

import "os"

// Reads the whole file into an OWNED buffer; there is no mmap here.
func MapFile(path string, opts ...BufferOption) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return WrapBuffer(nil, BORROWED, opts...), nil
	}
	return WrapBuffer(data, OWNED, opts...), nil
}
