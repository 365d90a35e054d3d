// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sctrait/trait-engine/internal/export"
	"github.com/sctrait/trait-engine/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write GAF and evidence files for threshold-passing associations",
	Long: `Export filters stored associations against per-class occurrence and
score thresholds, then writes a GAF 2.1 annotation file and a companion
evidence TSV. Native and orthology-derived associations are filtered
independently; both classes must pass their occurrence AND score
thresholds to be exported.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	assocs, err := st.LoadAssociations(context.Background())
	if err != nil {
		return fmt.Errorf("load associations: %w", err)
	}

	outDir, _ := cmd.Flags().GetString("out")
	nativeOcc, _ := cmd.Flags().GetInt("native-min-occurrence")
	nativeScore, _ := cmd.Flags().GetFloat64("native-min-score")
	orthoOcc, _ := cmd.Flags().GetInt("ortho-min-occurrence")
	orthoScore, _ := cmd.Flags().GetFloat64("ortho-min-score")

	cfg := types.ExportConfig{
		Native:    types.ClassThresholds{MinOccurrence: nativeOcc, MinScore: nativeScore},
		Orthology: types.ClassThresholds{MinOccurrence: orthoOcc, MinScore: orthoScore},
		OutDir:    outDir,
	}

	sel, err := export.Filter(assocs, cfg)
	if err != nil {
		return err
	}

	gafPath, evPath, err := export.Exporter{OutDir: outDir}.Write(sel)
	if err != nil {
		return err
	}

	fmt.Printf("exported %d association(s): %d native kept (%d dropped), %d derived kept (%d dropped)\n",
		len(sel.Exported), sel.NativeKept, sel.NativeDropped, sel.OrthoKept, sel.OrthoDropped)
	fmt.Println("wrote", gafPath)
	fmt.Println("wrote", evPath)
	return nil
}

func init() {
	exportCmd.Flags().String("out", "export", "output directory for triples.gaf and evidences.tsv")
	exportCmd.Flags().Int("native-min-occurrence", 2, "minimum evidence count for native associations")
	exportCmd.Flags().Float64("native-min-score", 80, "minimum score for native associations")
	exportCmd.Flags().Int("ortho-min-occurrence", 1, "minimum evidence count for orthology-derived associations")
	exportCmd.Flags().Float64("ortho-min-score", 50, "minimum score for orthology-derived associations")

	rootCmd.AddCommand(exportCmd)
}
