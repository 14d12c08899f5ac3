package main

import (
	"context"
	"fmt"

	"github.com/NeKzor/svm/common/blobstore"
	"github.com/NeKzor/svm/common/clients"
	"github.com/NeKzor/svm/common/hasher"
	"github.com/NeKzor/svm/common/logger"
	"github.com/NeKzor/svm/common/models"
	"github.com/NeKzor/svm/common/repository"
)

// Populator backfills the artifact store from upstream GitHub releases.
// It uses the same channel classification and the same blob-before-index
// write order as the upload path, so records from both sources are
// indistinguishable.
type Populator struct {
	github   *clients.GitHubClient
	bins     *repository.BinaryFileRepository
	releases *repository.ReleaseVersionRepository
	blobs    *blobstore.Store
	log      *logger.Logger
}

// NewPopulator creates a new populator
func NewPopulator(
	github *clients.GitHubClient,
	bins *repository.BinaryFileRepository,
	releases *repository.ReleaseVersionRepository,
	blobs *blobstore.Store,
	log *logger.Logger,
) *Populator {
	return &Populator{
		github:   github,
		bins:     bins,
		releases: releases,
		blobs:    blobs,
		log:      log,
	}
}

// Run ingests up to limit releases (0 means all). GitHub returns releases
// newest first, so the first release seen per channel seeds that
// channel's latest pointer.
func (p *Populator) Run(ctx context.Context, repo string, limit int) error {
	releases, err := p.github.GetReleases(ctx, repo)
	if err != nil {
		return err
	}

	if limit > 0 && len(releases) > limit {
		releases = releases[:limit]
	}

	seeded := map[models.Channel]bool{}

	for _, release := range releases {
		if err := p.ingestRelease(ctx, repo, release, seeded); err != nil {
			return err
		}
	}

	p.log.Info("populate complete", "repo", repo, "releases", len(releases))
	return nil
}

func (p *Populator) ingestRelease(ctx context.Context, repo string, release clients.Release, seeded map[models.Channel]bool) error {
	refTag, err := p.github.GetRefTag(ctx, repo, release.TagName)
	if err != nil {
		return err
	}

	version := release.TagName
	commit := refTag.Object.SHA
	if len(commit) < 9 {
		return fmt.Errorf("release %s has malformed commit %q", version, commit)
	}

	sarVersion := fmt.Sprintf("%s-0-g%s", version, commit[:9])
	branch := release.TargetCommitish
	channel := models.ClassifyChannel(version)

	log := p.log.WithChannel(string(channel)).WithVersion(version)

	if !seeded[channel] {
		seeded[channel] = true

		releaseVersion := &models.ReleaseVersion{
			Channel:    channel,
			Version:    version,
			SarVersion: sarVersion,
			Commit:     commit,
			Branch:     branch,
			Date:       release.CreatedAt,
		}

		if err := p.releases.Put(ctx, releaseVersion); err != nil {
			return fmt.Errorf("failed to seed latest pointer for %s: %w", channel, err)
		}
		log.Info("seeded latest pointer", "sar_version", sarVersion)
	}

	for _, asset := range release.Assets {
		if err := p.ingestAsset(ctx, release, asset, channel, sarVersion, commit, branch); err != nil {
			return err
		}
	}

	return nil
}

func (p *Populator) ingestAsset(
	ctx context.Context,
	release clients.Release,
	asset clients.Asset,
	channel models.Channel,
	sarVersion, commit, branch string,
) error {
	data, err := p.github.DownloadAsset(ctx, asset)
	if err != nil {
		return err
	}

	system := models.SystemFromFileName(asset.Name)

	path, err := p.blobs.Write(channel, sarVersion, system, asset.Name, data)
	if err != nil {
		return fmt.Errorf("failed to store blob %s: %w", asset.Name, err)
	}

	bin := &models.BinaryFile{
		Version:    release.TagName,
		System:     system,
		Name:       asset.Name,
		Hash:       hasher.Digest(data),
		Checksum:   hasher.Checksum(data),
		Path:       path,
		Size:       int64(len(data)),
		Date:       asset.CreatedAt,
		Commit:     commit,
		Branch:     branch,
		Channel:    channel,
		SarVersion: sarVersion,
	}

	if err := p.bins.Put(ctx, bin); err != nil {
		return fmt.Errorf("failed to index %s: %w", asset.Name, err)
	}

	p.log.Info("inserted binary file",
		"version", bin.Version,
		"system", bin.System,
		"name", bin.Name,
		"hash", bin.Hash,
	)
	return nil
}
