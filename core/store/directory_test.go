package store

import (
	"os"
	"testing"

	"github.com/ironsweet/gosearch/core/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir Directory, name string, content []byte) {
	out, err := dir.CreateOutput(name)
	require.NoError(t, err)
	_, err = out.Write(content)
	require.NoError(t, err)
	require.NoError(t, out.Close())
	require.NoError(t, dir.Sync([]string{name}))
}

func readFile(t *testing.T, dir Directory, name string) []byte {
	b, err := dir.OpenBuffer(name)
	require.NoError(t, err)
	defer b.Release()
	assert.Equal(t, 0, b.Offset())
	data := make([]byte, b.Capacity())
	require.NoError(t, NewBufferReader(b).ReadBytes(data))
	return data
}

func testDirectory(t *testing.T, dir Directory) {
	names, err := dir.ListAll()
	require.NoError(t, err)
	assert.Empty(t, names)

	writeFile(t, dir, "b.idx", []byte("second"))
	writeFile(t, dir, "a.idx", []byte("first file"))
	writeFile(t, dir, "empty", nil)

	names, err = dir.ListAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.idx", "b.idx", "empty"}, names)
	assert.True(t, dir.FileExists("a.idx"))
	assert.False(t, dir.FileExists("c.idx"))

	n, err := dir.FileLength("a.idx")
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, []byte("first file"), readFile(t, dir, "a.idx"))
	assert.Empty(t, readFile(t, dir, "empty"))

	// overwrite
	writeFile(t, dir, "b.idx", []byte("replaced"))
	assert.Equal(t, []byte("replaced"), readFile(t, dir, "b.idx"))

	require.NoError(t, dir.DeleteFile("b.idx"))
	assert.False(t, dir.FileExists("b.idx"))
	_, err = dir.OpenBuffer("b.idx")
	assert.True(t, errors.Is(err, os.ErrNotExist), "%v", err)

	require.NoError(t, dir.Close())
	_, err = dir.ListAll()
	assert.Equal(t, ErrAlreadyClosed, err)
	_, err = dir.CreateOutput("c.idx")
	assert.Equal(t, ErrAlreadyClosed, err)
}

func TestFSDirectory(t *testing.T) {
	dir, err := OpenFSDirectory(t.TempDir() + "/index")
	require.NoError(t, err)
	testDirectory(t, dir)
}

func TestFSDirectoryOnFile(t *testing.T) {
	path := t.TempDir() + "/file"
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	_, err := OpenFSDirectory(path)
	var nsd *NoSuchDirectoryError
	assert.True(t, errors.As(err, &nsd), "%v", err)
}

func TestRAMDirectory(t *testing.T) {
	testDirectory(t, NewRAMDirectory())
}

func TestRAMDirectoryAccounting(t *testing.T) {
	tracker := NewTrackingAllocator(HEAP_ALLOCATOR, util.NewCounter(), 0)
	dir := NewRAMDirectory(WithAllocator(tracker))

	writeFile(t, dir, "a", make([]byte, 100))
	writeFile(t, dir, "b", make([]byte, 50))
	assert.Equal(t, int64(150), dir.RamBytesUsed())
	assert.Equal(t, int64(150), tracker.BytesUsed())

	writeFile(t, dir, "a", make([]byte, 10))
	assert.Equal(t, int64(60), dir.RamBytesUsed())
	assert.Equal(t, int64(60), tracker.BytesUsed())

	require.NoError(t, dir.Close())
	assert.Zero(t, dir.RamBytesUsed())
	assert.Zero(t, tracker.BytesUsed())
}
