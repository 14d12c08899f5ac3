package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NeKzor/svm/common/kv"
	"github.com/NeKzor/svm/common/models"
)

// ReleaseVersionRepository handles storage operations for the per-channel
// "latest" pointers
type ReleaseVersionRepository struct {
	store *kv.Store
}

// NewReleaseVersionRepository creates a new release version repository
func NewReleaseVersionRepository(store *kv.Store) *ReleaseVersionRepository {
	return &ReleaseVersionRepository{store: store}
}

// Put overwrites the latest pointer of a channel
func (r *ReleaseVersionRepository) Put(ctx context.Context, release *models.ReleaseVersion) error {
	if err := r.store.Set(ctx, release.Key(), release); err != nil {
		return fmt.Errorf("failed to put release version: %w", err)
	}
	return nil
}

// Get retrieves the latest pointer of a channel.
// The second return value reports whether the pointer exists.
func (r *ReleaseVersionRepository) Get(ctx context.Context, channel models.Channel) (*models.ReleaseVersion, bool, error) {
	release := &models.ReleaseVersion{}
	found, err := r.store.Get(ctx, models.ReleaseVersionKey(channel), release)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get release version: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return release, true, nil
}

// ListAll returns the latest pointer of every channel that has one
func (r *ReleaseVersionRepository) ListAll(ctx context.Context) ([]*models.ReleaseVersion, error) {
	var releases []*models.ReleaseVersion
	err := r.store.Scan(ctx, []string{"latest"}, func(key []string, value []byte) error {
		release := &models.ReleaseVersion{}
		if err := json.Unmarshal(value, release); err != nil {
			return fmt.Errorf("failed to decode release version at %v: %w", key, err)
		}
		releases = append(releases, release)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list release versions: %w", err)
	}

	return releases, nil
}
