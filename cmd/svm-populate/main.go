package main

import (
	"context"
	"fmt"
	"os"

	"github.com/NeKzor/svm/common/blobstore"
	"github.com/NeKzor/svm/common/bootstrap"
	"github.com/NeKzor/svm/common/clients"
	"github.com/NeKzor/svm/common/repository"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		repo  string
		limit int
	)

	cmd := &cobra.Command{
		Use:           "svm-populate",
		Short:         "Backfill the artifact store from upstream GitHub releases",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			components, err := bootstrap.Setup(ctx, "svm-populate", bootstrap.WithoutTelemetry())
			if err != nil {
				return fmt.Errorf("failed to bootstrap svm-populate: %w", err)
			}
			defer components.Shutdown(ctx)

			if repo == "" {
				repo = components.Config.GitHub.Repository
			}

			populator := NewPopulator(
				clients.NewGitHubClient(components.Config.GitHub.APIBaseURL, components.Logger),
				repository.NewBinaryFileRepository(components.Store),
				repository.NewReleaseVersionRepository(components.Store),
				blobstore.New(components.Config.Store.BinRoot),
				components.Logger,
			)

			return populator.Run(ctx, repo, limit)
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "GitHub repository to populate from (owner/name)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of releases to ingest (0 = all)")

	return cmd
}
