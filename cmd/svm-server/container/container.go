package container

import (
	"github.com/NeKzor/svm/cmd/svm-server/service"
	"github.com/NeKzor/svm/common/blobstore"
	"github.com/NeKzor/svm/common/bootstrap"
	"github.com/NeKzor/svm/common/cache"
	"github.com/NeKzor/svm/common/repository"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	BinaryFileRepo     *repository.BinaryFileRepository
	ReleaseVersionRepo *repository.ReleaseVersionRepository

	// Services
	UploadService *service.UploadService
	QueryService  *service.QueryService

	// PageCache holds rendered pages, invalidated on upload
	PageCache cache.Cache
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	// Initialize repositories
	binaryFileRepo := repository.NewBinaryFileRepository(components.Store)
	releaseVersionRepo := repository.NewReleaseVersionRepository(components.Store)

	// Initialize the blob store next to the index
	blobs := blobstore.New(components.Config.Store.BinRoot)

	// Initialize services (bottom-up: dependencies first)
	uploadService := service.NewUploadService(
		binaryFileRepo,
		releaseVersionRepo,
		blobs,
		components.Logger,
	)
	queryService := service.NewQueryService(
		binaryFileRepo,
		releaseVersionRepo,
		components.Logger,
	)

	return &Container{
		Components:         components,
		BinaryFileRepo:     binaryFileRepo,
		ReleaseVersionRepo: releaseVersionRepo,
		UploadService:      uploadService,
		QueryService:       queryService,
		PageCache:          cache.NewMemoryCache(),
	}, nil
}
