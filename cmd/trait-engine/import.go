// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load annotated corpus, gene catalog, and orthology files",
	Long: `Import reads an annotated corpus (YAML), a gene catalog (TSV), and an
orthology link table (TSV, optionally gzipped) into the SQLite index.
Each input replaces its previous contents; provide any subset of the
three flags to refresh only some inputs.`,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	corpusPath, _ := cmd.Flags().GetString("corpus")
	catalogPath, _ := cmd.Flags().GetString("catalog")
	orthologyPath, _ := cmd.Flags().GetString("orthology")
	if corpusPath == "" && catalogPath == "" && orthologyPath == "" {
		return fmt.Errorf("nothing to import: provide --corpus, --catalog, or --orthology")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	if corpusPath != "" {
		summary, err := st.ImportCorpus(ctx, corpusPath, os.Stdout)
		if err != nil {
			return fmt.Errorf("import corpus: %w", err)
		}
		fmt.Printf("corpus: %d documents, %d paragraphs, %d mentions\n",
			summary.Documents, summary.Paragraphs, summary.Mentions)
	}

	if catalogPath != "" {
		summary, err := st.ImportCatalog(ctx, catalogPath, os.Stdout)
		if err != nil {
			return fmt.Errorf("import catalog: %w", err)
		}
		fmt.Printf("catalog: %d genes (%d lines skipped)\n", summary.Genes, summary.SkippedLines)
	}

	if orthologyPath != "" {
		summary, err := st.ImportOrthology(ctx, orthologyPath, os.Stdout)
		if err != nil {
			return fmt.Errorf("import orthology: %w", err)
		}
		fmt.Printf("orthology: %d edges (%d lines skipped)\n", summary.Edges, summary.SkippedLines)
	}

	return nil
}

func init() {
	importCmd.Flags().String("corpus", "", "annotated corpus YAML file")
	importCmd.Flags().String("catalog", "", "gene catalog TSV file (gene_id, species_id)")
	importCmd.Flags().String("orthology", "", "orthology link TSV file (optionally .gz)")

	rootCmd.AddCommand(importCmd)
}
