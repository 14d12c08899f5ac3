package blobstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NeKzor/svm/common/models"
	"github.com/google/uuid"
)

// Store writes binary blobs under a root directory using the layout
// <root>/<channel>/<sar_version>/<system>/<name>. The filesystem is the
// blob side of the artifact store; the KV index references these paths
// and a blob is always written before its index record.
type Store struct {
	root string
}

// New creates a blob store rooted at dir
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the root directory of the store
func (s *Store) Root() string {
	return s.root
}

// Write persists data for one artifact and returns its on-disk path.
// The write goes through a temp file followed by a rename so a reader
// of the final path never observes a torn file.
func (s *Store) Write(channel models.Channel, sarVersion string, system models.System, name string, data []byte) (string, error) {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	dir := filepath.Join(s.root, string(channel), sarVersion, string(system))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	tmp := fmt.Sprintf("%s.tmp-%s", path, uuid.NewString()[:8])

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to rename %s: %w", tmp, err)
	}

	return path, nil
}
