package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type NoSuchDirectoryError struct {
	msg string
}

func newNoSuchDirectoryError(msg string) *NoSuchDirectoryError {
	return &NoSuchDirectoryError{msg}
}

func (err *NoSuchDirectoryError) Error() string {
	return err.msg
}

/*
FSDirectory stores files in a file system directory. Files are mapped
into memory when opened, see MapFile.
*/
type FSDirectory struct {
	sync.Locker
	directoryState
	path           string
	opts           []BufferOption
	staleFiles     map[string]bool // written but not yet sync'ed
	staleFilesLock *sync.RWMutex
}

/*
Opens the directory at path, which is created on the first write if
missing. opts apply to the buffers returned by OpenBuffer.
*/
func OpenFSDirectory(path string, opts ...BufferOption) (*FSDirectory, error) {
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		return nil, newNoSuchDirectoryError(fmt.Sprintf("file '%v' exists but is not a directory", path))
	}
	return &FSDirectory{
		Locker:         &sync.Mutex{},
		directoryState: directoryState{isOpen: true},
		path:           path,
		opts:           opts,
		staleFiles:     make(map[string]bool),
		staleFilesLock: &sync.RWMutex{},
	}, nil
}

func (d *FSDirectory) Path() string {
	return d.path
}

func (d *FSDirectory) ListAll() ([]string, error) {
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		// exclude subdirs
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (d *FSDirectory) FileExists(name string) bool {
	_, err := os.Stat(filepath.Join(d.path, name))
	return err == nil
}

func (d *FSDirectory) FileLength(name string) (int64, error) {
	if err := d.ensureOpen(); err != nil {
		return 0, err
	}
	fi, err := os.Stat(filepath.Join(d.path, name))
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (d *FSDirectory) DeleteFile(name string) (err error) {
	if err = d.ensureOpen(); err != nil {
		return
	}
	if err = os.Remove(filepath.Join(d.path, name)); err == nil {
		d.staleFilesLock.Lock()
		defer d.staleFilesLock.Unlock()
		delete(d.staleFiles, name)
	}
	return
}

func (d *FSDirectory) CreateOutput(name string) (io.WriteCloser, error) {
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	if err := d.ensureCanWrite(name); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(filepath.Join(d.path, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0660)
	if err != nil {
		return nil, err
	}
	return &FSIndexOutput{File: file, parent: d, name: name}, nil
}

func (d *FSDirectory) ensureCanWrite(name string) error {
	if err := os.MkdirAll(d.path, 0770); err != nil {
		return errors.Wrapf(err, "cannot create directory %v", d.path)
	}
	filename := filepath.Join(d.path, name)
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "cannot overwrite %v/%v", d.path, name)
	}
	return nil
}

// Called when an output is closed so Sync knows which files to flush.
func (d *FSDirectory) onIndexOutputClosed(name string) {
	d.staleFilesLock.Lock()
	defer d.staleFilesLock.Unlock()
	d.staleFiles[name] = true
}

func (d *FSDirectory) Sync(names []string) error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	var toSync []string
	d.staleFilesLock.RLock()
	for _, name := range names {
		if d.staleFiles[name] {
			toSync = append(toSync, name)
		}
	}
	d.staleFilesLock.RUnlock()

	for _, name := range toSync {
		if err := fsync(filepath.Join(d.path, name)); err != nil {
			return errors.Wrapf(err, "sync %v", name)
		}
	}
	// fsync the directory itself, but only if any file was synced
	// before; otherwise the directory may not exist yet
	if len(toSync) > 0 {
		if err := fsync(d.path); err != nil {
			return errors.Wrapf(err, "sync %v", d.path)
		}
	}

	d.staleFilesLock.Lock()
	defer d.staleFilesLock.Unlock()
	for _, name := range toSync {
		delete(d.staleFiles, name)
	}
	return nil
}

func fsync(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

func (d *FSDirectory) OpenBuffer(name string) (*Buffer, error) {
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	return MapFile(filepath.Join(d.path, name), d.opts...)
}

func (d *FSDirectory) Close() error {
	d.Lock() // synchronized
	defer d.Unlock()
	d.isOpen = false
	return nil
}

func (d *FSDirectory) String() string {
	return fmt.Sprintf("FSDirectory@%v", d.path)
}

// Writes straight to the underlying file.
type FSIndexOutput struct {
	*os.File
	parent *FSDirectory
	name   string
}

func (out *FSIndexOutput) Close() error {
	if err := out.File.Close(); err != nil {
		return err
	}
	out.parent.onIndexOutputClosed(out.name)
	return nil
}
