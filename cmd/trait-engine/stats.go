// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sctrait/trait-engine/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the index: corpus size, associations, evidence spread",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
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
	assocs, err := st.LoadAssociations(ctx)
	if err != nil {
		return fmt.Errorf("load associations: %w", err)
	}

	stats.Collect(corpus, assocs).Write(os.Stdout)
	return nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
