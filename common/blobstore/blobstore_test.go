package blobstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NeKzor/svm/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	path, err := store.Write(models.ChannelCanary, "0.0.0-canary-0-g0b4c5d07", models.SystemWindows, "sar.dll", []byte("content"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "canary", "0.0.0-canary-0-g0b4c5d07", "windows", "sar.dll"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestWriteOverwrites(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Write(models.ChannelRelease, "1.0.0-0-gabcdef012", models.SystemLinux, "sar.so", []byte("first"))
	require.NoError(t, err)

	path, err := store.Write(models.ChannelRelease, "1.0.0-0-gabcdef012", models.SystemLinux, "sar.so", []byte("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestWriteStripsDirectoryComponents(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	path, err := store.Write(models.ChannelRelease, "1.0.0-0-gabcdef012", models.SystemLinux, "../../evil.so", []byte("x"))
	require.NoError(t, err)

	// Only the base name survives; the blob stays under the store root.
	assert.Equal(t, filepath.Join(root, "release", "1.0.0-0-gabcdef012", "linux", "evil.so"), path)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	_, err := store.Write(models.ChannelRelease, "1.0.0-0-gabcdef012", models.SystemWindows, "sar.dll", []byte("x"))
	require.NoError(t, err)

	dir := filepath.Join(root, "release", "1.0.0-0-gabcdef012", "windows")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sar.dll", entries[0].Name())
}
