package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweetpotato0/nyaya/ingest"
)

var (
	seedFiles     []string
	seedSample    bool
	seedBatchSize int
	seedChunkSize int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Embed a legal corpus and load it into the vector collections",
	Long: `Loads taxonomy, statutes, cases and civic processes from YAML or JSON files
into the configured vector backend. Point ids are derived from the entries, so
seeding the same corpus twice overwrites instead of duplicating.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		corpora := make([]*ingest.Corpus, 0, len(seedFiles)+1)
		if seedSample || len(seedFiles) == 0 {
			c, err := ingest.Sample()
			if err != nil {
				return err
			}
			corpora = append(corpora, c)
		}
		for _, path := range seedFiles {
			c, err := ingest.LoadFile(path)
			if err != nil {
				return err
			}
			corpora = append(corpora, c)
		}

		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		stats, err := a.ingester(
			ingest.WithBatchSize(seedBatchSize),
			ingest.WithChunking(seedChunkSize, seedChunkSize/8),
		).Run(ctx, ingest.Merge(corpora...))
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		return writeJSON(cmd.OutOrStdout(), stats)
	},
}

func init() {
	seedCmd.Flags().StringSliceVarP(&seedFiles, "file", "f", nil, "corpus file (.yaml, .yml or .json), repeatable")
	seedCmd.Flags().BoolVar(&seedSample, "sample", false, "also load the bundled sample corpus")
	seedCmd.Flags().IntVar(&seedBatchSize, "batch-size", 32, "texts per embedding request")
	seedCmd.Flags().IntVar(&seedChunkSize, "chunk-size", 1200, "statute window in characters (0 disables chunking)")
}
