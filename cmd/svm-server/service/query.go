package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/NeKzor/svm/common/logger"
	"github.com/NeKzor/svm/common/models"
	"github.com/NeKzor/svm/common/repository"
)

// QueryService serves the read-side projections of the artifact store
type QueryService struct {
	bins     *repository.BinaryFileRepository
	releases *repository.ReleaseVersionRepository
	log      *logger.Logger
}

// NewQueryService creates a new query service
func NewQueryService(
	bins *repository.BinaryFileRepository,
	releases *repository.ReleaseVersionRepository,
	log *logger.Logger,
) *QueryService {
	return &QueryService{
		bins:     bins,
		releases: releases,
		log:      log,
	}
}

// Latest returns the latest release version of a channel
func (s *QueryService) Latest(ctx context.Context, channel models.Channel) (*models.ReleaseVersion, bool, error) {
	return s.releases.Get(ctx, channel)
}

// List returns binary files filtered by version and/or system, newest
// first. A version filter naming a channel (release, prerelease, canary)
// matches every version classified into that channel, so canary builds
// tagged "0.0.0-canary" are found under "canary".
func (s *QueryService) List(ctx context.Context, versionFilter, systemFilter string) ([]*models.BinaryFile, error) {
	bins := []*models.BinaryFile{}

	if channel, ok := models.ParseChannel(versionFilter); ok {
		all, err := s.bins.List(ctx, "", "")
		if err != nil {
			return nil, err
		}
		for _, bin := range all {
			if bin.Channel != channel {
				continue
			}
			if systemFilter != "" && string(bin.System) != systemFilter {
				continue
			}
			bins = append(bins, bin)
		}
	} else {
		all, err := s.bins.List(ctx, versionFilter, models.System(systemFilter))
		if err != nil {
			return nil, err
		}
		bins = append(bins, all...)
	}

	sortByDateDesc(bins)
	return bins, nil
}

// Resolve looks up a single binary file for download
func (s *QueryService) Resolve(ctx context.Context, version string, system models.System, name string) (*models.BinaryFile, bool, error) {
	return s.bins.Get(ctx, version, system, name)
}

// ReleaseGroup is one version together with its files, for the listing page
type ReleaseGroup struct {
	Version string
	Files   []*models.BinaryFile
}

// Overview collects everything the listing page renders: the latest
// pointer of every channel and all binaries grouped by version, both
// newest first.
type Overview struct {
	Latest   []*models.ReleaseVersion
	Releases []*ReleaseGroup
}

// GetOverview builds the listing page projection
func (s *QueryService) GetOverview(ctx context.Context) (*Overview, error) {
	latest, err := s.releases.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest versions: %w", err)
	}
	sort.SliceStable(latest, func(i, j int) bool {
		return latest[i].Date.After(latest[j].Date)
	})

	bins, err := s.bins.List(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load binaries: %w", err)
	}
	sortByDateDesc(bins)

	groups := []*ReleaseGroup{}
	byVersion := map[string]*ReleaseGroup{}
	for _, bin := range bins {
		group, ok := byVersion[bin.Version]
		if !ok {
			group = &ReleaseGroup{Version: bin.Version}
			byVersion[bin.Version] = group
			groups = append(groups, group)
		}
		group.Files = append(group.Files, bin)
	}

	return &Overview{
		Latest:   latest,
		Releases: groups,
	}, nil
}

func sortByDateDesc(bins []*models.BinaryFile) {
	sort.SliceStable(bins, func(i, j int) bool {
		return bins[i].Date.After(bins[j].Date)
	})
}
