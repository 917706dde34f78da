package store

import (
	"io"

	"github.com/pkg/errors"
)

var ErrAlreadyClosed = errors.New("this Directory is closed")

/*
A Directory is a flat list of files holding encoded indexes. Files are
written once through CreateOutput and read back whole as a Buffer.

	out, err := dir.CreateOutput("body.idx")
	...
	idx.Encode(out)
	out.Close()
	dir.Sync([]string{"body.idx"})
*/
type Directory interface {
	io.Closer
	// Returns the names of all files in the directory.
	ListAll() ([]string, error)
	FileExists(name string) bool
	// Returns the length in bytes of a file in the directory.
	FileLength(name string) (int64, error)
	DeleteFile(name string) error
	/*
		Creates a new, empty file, replacing any file of the same name.
		The content becomes visible to OpenBuffer once the output is
		closed.
	*/
	CreateOutput(name string) (io.WriteCloser, error)
	/*
		Ensures the named files are on stable storage. Files written but
		not closed are not covered.
	*/
	Sync(names []string) error
	/*
		Returns the content of a file as a buffer positioned at 0.
		The caller must Release it.
	*/
	OpenBuffer(name string) (*Buffer, error)
}

type directoryState struct {
	isOpen bool
}

func (d *directoryState) ensureOpen() error {
	if !d.isOpen {
		return ErrAlreadyClosed
	}
	return nil
}
