// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sctrait/trait-engine/internal/mine"
	"github.com/sctrait/trait-engine/pkg/types"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Classify co-occurrences and build scored native associations",
	Long: `Mine runs the classification pass over the imported corpus: every
gene-trait co-occurrence in a paragraph is classified into a case,
scored, and aggregated into per-triple associations. The resulting
native associations replace any previous mining run in the index.`,
	RunE: runMine,
}

func runMine(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	corpus, err := st.LoadCorpus(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	if len(corpus.Documents) == 0 {
		return fmt.Errorf("no documents in index: run import first")
	}
	catalog, err := st.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	workers, _ := cmd.Flags().GetInt("workers")
	window, _ := cmd.Flags().GetInt("window")
	defaultSpecies, _ := cmd.Flags().GetString("default-species")

	cfg := types.MineConfig{
		Workers:          workers,
		ProximityWindow:  window,
		DefaultSpeciesID: defaultSpecies,
	}

	result, err := mine.Run(ctx, corpus, catalog, cfg, nil, logger, os.Stdout)
	if err != nil {
		return err
	}

	if err := st.ReplaceAssociations(ctx, false, result.Associations); err != nil {
		return fmt.Errorf("store associations: %w", err)
	}
	return nil
}

func init() {
	mineCmd.Flags().Int("workers", 4, "number of concurrent document workers")
	mineCmd.Flags().Int("window", 250, "proximity window in runes")
	mineCmd.Flags().String("default-species", "", "species ID assumed when nothing else applies (empty disables case 2d)")

	rootCmd.AddCommand(mineCmd)
}
