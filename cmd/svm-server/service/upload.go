package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/NeKzor/svm/common/blobstore"
	"github.com/NeKzor/svm/common/hasher"
	"github.com/NeKzor/svm/common/logger"
	"github.com/NeKzor/svm/common/models"
	"github.com/NeKzor/svm/common/repository"
)

// BatchFile is one file of an upload batch. Open is called at most once,
// when the ingestion loop reaches the file's index.
type BatchFile struct {
	Name string
	// Client-supplied content digest the stored bytes must match
	Hash string
	Open func() (io.ReadCloser, error)
}

// UploadRequest is a validated batch upload. All files of a batch share
// one version, system, commit and branch.
type UploadRequest struct {
	Version    string
	SarVersion string
	System     string
	Commit     string
	Branch     string
	Count      int
	Files      []BatchFile
}

// Validate checks every field before any side effect happens
func (r *UploadRequest) Validate() error {
	if r.Version == "" {
		return validationErr("version", "missing version")
	}
	if !models.IsValidVersion(r.Version) {
		return validationErr("version", "invalid semver version")
	}
	if r.SarVersion == "" {
		return validationErr("sar_version", "missing SAR version")
	}
	if _, ok := models.ParseSystem(r.System); !ok {
		return validationErr("system", "invalid system")
	}
	if r.Commit == "" {
		return validationErr("commit", "missing commit hash")
	}
	if r.Branch == "" {
		return validationErr("branch", "missing branch name")
	}
	if r.Count < 1 || r.Count > 4 {
		return validationErr("count", "invalid count")
	}
	return nil
}

// UploadResult reports how many files of a batch were persisted
type UploadResult struct {
	Inserted int  `json:"inserted"`
	OK       bool `json:"ok"`
}

// UploadService coordinates batch uploads: it validates the request,
// verifies and persists each file (blob before index record, sequential
// by index), and advances the channel's latest pointer only once every
// file of the batch succeeded.
type UploadService struct {
	bins     *repository.BinaryFileRepository
	releases *repository.ReleaseVersionRepository
	blobs    *blobstore.Store
	log      *logger.Logger

	// Serializes batches per channel so concurrent uploads cannot leave
	// the latest pointer reflecting a different batch than the blobs.
	mu sync.Mutex
	ch map[models.Channel]*sync.Mutex
}

// NewUploadService creates a new upload service
func NewUploadService(
	bins *repository.BinaryFileRepository,
	releases *repository.ReleaseVersionRepository,
	blobs *blobstore.Store,
	log *logger.Logger,
) *UploadService {
	return &UploadService{
		bins:     bins,
		releases: releases,
		blobs:    blobs,
		log:      log,
		ch:       make(map[models.Channel]*sync.Mutex),
	}
}

// Ingest runs one upload batch to completion. Re-running an identical
// batch is idempotent: blobs and index records are overwritten in place.
//
// On a hash mismatch or storage failure the batch stops: files committed
// for earlier indices remain (safe, idempotent), the latest pointer is
// not advanced, and the returned result carries the partial insert count.
func (s *UploadService) Ingest(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	system, _ := models.ParseSystem(req.System)
	channel := models.ClassifyChannel(req.Version)

	lock := s.channelLock(channel)
	lock.Lock()
	defer lock.Unlock()

	log := s.log.WithChannel(string(channel)).WithVersion(req.Version)

	result := &UploadResult{}

	for i := 0; i < req.Count; i++ {
		file, err := s.readFile(req, i)
		if err != nil {
			return result, err
		}

		log.Info("received file", "name", file.name, "system", req.System, "size", len(file.data))

		hash := hasher.Digest(file.data)
		if hash != file.claimedHash {
			return result, &HashMismatchError{
				Name:     file.name,
				Claimed:  file.claimedHash,
				Computed: hash,
			}
		}

		path, err := s.blobs.Write(channel, req.SarVersion, system, file.name, file.data)
		if err != nil {
			return result, fmt.Errorf("failed to store blob %s: %w", file.name, err)
		}

		bin := &models.BinaryFile{
			Version:    req.Version,
			System:     system,
			Name:       file.name,
			Hash:       hash,
			Checksum:   hasher.Checksum(file.data),
			Path:       path,
			Size:       int64(len(file.data)),
			Date:       time.Now().UTC(),
			Commit:     req.Commit,
			Branch:     req.Branch,
			Channel:    channel,
			SarVersion: req.SarVersion,
		}

		if err := s.bins.Put(ctx, bin); err != nil {
			return result, fmt.Errorf("failed to index %s: %w", file.name, err)
		}

		result.Inserted++
		log.Info("inserted binary file", "name", file.name, "hash", hash)
	}

	// Every file of the batch is on disk and indexed; only now may the
	// latest pointer move.
	release := &models.ReleaseVersion{
		Channel:    channel,
		Version:    req.Version,
		SarVersion: req.SarVersion,
		Commit:     req.Commit,
		Branch:     req.Branch,
		Date:       time.Now().UTC(),
	}

	if err := s.releases.Put(ctx, release); err != nil {
		return result, fmt.Errorf("failed to update latest pointer: %w", err)
	}

	result.OK = true
	log.Info("batch complete", "inserted", result.Inserted)
	return result, nil
}

type batchFileContent struct {
	name        string
	claimedHash string
	data        []byte
}

func (s *UploadService) readFile(req *UploadRequest, i int) (*batchFileContent, error) {
	if i >= len(req.Files) {
		return nil, fmt.Errorf("%w: files[%d] missing", ErrInvalidFile, i)
	}

	file := req.Files[i]
	if file.Open == nil || file.Name == "" {
		return nil, fmt.Errorf("%w: files[%d] missing", ErrInvalidFile, i)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: files[%d]: %v", ErrInvalidFile, i, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: files[%d]: %v", ErrInvalidFile, i, err)
	}

	return &batchFileContent{
		name:        file.Name,
		claimedHash: file.Hash,
		data:        data,
	}, nil
}

func (s *UploadService) channelLock(channel models.Channel) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.ch[channel]
	if !ok {
		lock = &sync.Mutex{}
		s.ch[channel] = lock
	}
	return lock
}
