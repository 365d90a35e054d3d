// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sctrait/trait-engine/internal/orthology"
	"github.com/sctrait/trait-engine/pkg/types"
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Propagate native associations across orthology links",
	Long: `Transfer walks the orthology graph from each native association and
derives associations for orthologous genes in other species, damping the
score per hop by the link's relation type. Derived associations replace
any previous transfer run; native associations are untouched.`,
	RunE: runTransfer,
}

func runTransfer(cmd *cobra.Command, args []string) error {
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

	all, err := st.LoadAssociations(ctx)
	if err != nil {
		return fmt.Errorf("load associations: %w", err)
	}
	natives := all[:0:0]
	for _, a := range all {
		if !a.OrthologyDerived {
			natives = append(natives, a)
		}
	}
	if len(natives) == 0 {
		return fmt.Errorf("no native associations in index: run mine first")
	}

	edges, err := st.LoadOrthology(ctx)
	if err != nil {
		return fmt.Errorf("load orthology: %w", err)
	}

	maxLinks, _ := cmd.Flags().GetInt("max-links")
	minOcc, _ := cmd.Flags().GetInt("min-occurrence")
	minScore, _ := cmd.Flags().GetFloat64("min-score")

	graph := orthology.NewGraph(edges, logger)
	engine, err := orthology.NewEngine(types.TransferConfig{MaxOrthoLinks: maxLinks}, graph, logger)
	if err != nil {
		return err
	}

	prefilter := types.ClassThresholds{MinOccurrence: minOcc, MinScore: minScore}
	derived, err := engine.Transfer(ctx, natives, prefilter)
	if err != nil {
		return err
	}

	if err := st.ReplaceAssociations(ctx, true, derived); err != nil {
		return fmt.Errorf("store derived associations: %w", err)
	}
	fmt.Printf("transferred %d association(s) from %d native over %d orthology edge(s)\n",
		len(derived), len(natives), graph.Len())
	return nil
}

func init() {
	transferCmd.Flags().Int("max-links", 1, "maximum orthology hops per transfer (0 disables transfer)")
	transferCmd.Flags().Int("min-occurrence", 0, "minimum evidence count for a native association to seed transfer")
	transferCmd.Flags().Float64("min-score", 0, "minimum score for a native association to seed transfer")

	rootCmd.AddCommand(transferCmd)
}
