package main

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mediaops/intake-cli/internal/intake"
)

var (
	batchDir         string
	batchSubmittedBy string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the intake pipeline over every document in a directory",
	Long:  "Processes each regular file in the directory as one submission. Failures are logged per file; the run continues.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("intake"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		entries, err := os.ReadDir(batchDir)
		if err != nil {
			return eris.Wrap(err, "read batch directory")
		}

		extractor := newExtractor()
		svc := intake.NewService(newIngestor(), extractor, st, newMachine())

		// One primer request warms the shared system prompt cache before
		// the fan-out.
		if err := extractor.WarmCache(ctx); err != nil {
			zap.L().Warn("cache warm-up failed, continuing", zap.Error(err))
		}

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		var created, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(batchDir, entry.Name())
			g.Go(func() error {
				data, err := os.ReadFile(path)
				if err != nil {
					failed.Add(1)
					zap.L().Error("read submission failed",
						zap.String("file", path),
						zap.Error(err),
					)
					return nil
				}

				booking, err := svc.SubmitUpload(gctx, batchSubmittedBy, data)
				if err != nil {
					failed.Add(1)
					zap.L().Error("submission failed",
						zap.String("file", path),
						zap.Error(err),
					)
					return nil
				}

				created.Add(1)
				zap.L().Info("booking created",
					zap.String("file", path),
					zap.String("booking_id", booking.ID),
					zap.String("priority", string(booking.Priority)),
				)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int64("created", created.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of booking documents (required)")
	batchCmd.Flags().StringVar(&batchSubmittedBy, "submitted-by", "", "submitter identity (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent submissions (default from config)")
	_ = batchCmd.MarkFlagRequired("dir")
	_ = batchCmd.MarkFlagRequired("submitted-by")
	rootCmd.AddCommand(batchCmd)
}
