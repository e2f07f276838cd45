package fsops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sberrors "sandboxd/internal/errors"
)

func TestMkdirWriteReadDeleteRoundTrip(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "a", "b")

	require.NoError(t, Mkdir(dir))

	file := filepath.Join(dir, "note.txt")
	require.NoError(t, Write(file, []byte("hello")))

	got, err := Read(file)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	require.NoError(t, Delete(dir))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "expected directory to be gone, stat err = %v", err)
}

func TestRenameAndMove(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.txt")
	require.NoError(t, Write(src, []byte("content")))

	renamed := filepath.Join(root, "renamed.txt")
	require.NoError(t, Rename(src, renamed))

	moved := filepath.Join(root, "nested", "moved.txt")
	require.NoError(t, Move(renamed, moved))

	got, err := Read(moved)
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
}

func TestReadMissingFileReturnsNotFound(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
	var classified *sberrors.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, "FILE_NOT_FOUND", classified.Code)
}

func TestVerbsRejectTraversal(t *testing.T) {
	assert.Error(t, Mkdir("../escape"), "expected Mkdir to reject a traversal path")
	assert.Error(t, Write("/etc/passwd", []byte("x")), "expected Write to reject a system path")
}
