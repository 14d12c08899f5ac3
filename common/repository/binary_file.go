package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NeKzor/svm/common/kv"
	"github.com/NeKzor/svm/common/models"
)

// BinaryFileRepository handles storage operations for binary files
type BinaryFileRepository struct {
	store *kv.Store
}

// NewBinaryFileRepository creates a new binary file repository
func NewBinaryFileRepository(store *kv.Store) *BinaryFileRepository {
	return &BinaryFileRepository{store: store}
}

// Put inserts or overwrites a binary file record
func (r *BinaryFileRepository) Put(ctx context.Context, bin *models.BinaryFile) error {
	if err := r.store.Set(ctx, bin.Key(), bin); err != nil {
		return fmt.Errorf("failed to put binary file: %w", err)
	}
	return nil
}

// Get retrieves a binary file by its (version, system, name) triple.
// The second return value reports whether the record exists.
func (r *BinaryFileRepository) Get(ctx context.Context, version string, system models.System, name string) (*models.BinaryFile, bool, error) {
	bin := &models.BinaryFile{}
	found, err := r.store.Get(ctx, models.BinaryFileKey(version, system, name), bin)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get binary file: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return bin, true, nil
}

// List scans binary file records under the ("bin", ...) prefix, narrowed
// by version and then system when provided. Results come back in key
// order; callers sort by date.
func (r *BinaryFileRepository) List(ctx context.Context, version string, system models.System) ([]*models.BinaryFile, error) {
	prefix := []string{"bin"}
	if version != "" {
		prefix = append(prefix, version)
		if system != "" {
			prefix = append(prefix, string(system))
		}
	}

	var bins []*models.BinaryFile
	err := r.store.Scan(ctx, prefix, func(key []string, value []byte) error {
		bin := &models.BinaryFile{}
		if err := json.Unmarshal(value, bin); err != nil {
			return fmt.Errorf("failed to decode binary file at %v: %w", key, err)
		}
		bins = append(bins, bin)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list binary files: %w", err)
	}

	return bins, nil
}
