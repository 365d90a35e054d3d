// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sctrait/trait-engine/pkg/types"
)

// IngestSummary holds counts from an import run.
type IngestSummary struct {
	Documents    int
	Paragraphs   int
	Mentions     int
	Genes        int
	Edges        int
	SkippedLines int
}

// ImportCorpus reads an annotated corpus YAML file produced by the external
// annotator and replaces the stored corpus with it.
func (s *Store) ImportCorpus(ctx context.Context, path string, w io.Writer) (IngestSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading corpus file %s: %w", path, err)
	}

	var corpus types.Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return IngestSummary{}, fmt.Errorf("parsing corpus file %s: %w", path, err)
	}

	var summary IngestSummary
	summary.Documents = len(corpus.Documents)
	for _, doc := range corpus.Documents {
		summary.Paragraphs += len(doc.Paragraphs)
		for _, p := range doc.Paragraphs {
			summary.Mentions += len(p.Mentions)
		}
	}

	if err := s.ReplaceCorpus(ctx, corpus); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "imported %d documents, %d paragraphs, %d mentions\n",
		summary.Documents, summary.Paragraphs, summary.Mentions)
	return summary, nil
}

// ImportCatalog reads a two-column tab-separated gene catalog
// (gene_id, species_id) and replaces the stored catalog. Lines starting with
// '#' are comments; malformed lines are skipped with a note.
func (s *Store) ImportCatalog(ctx context.Context, path string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary
	catalog := make(types.MapCatalog)

	err := readTSV(path, func(lineNo int, fields []string) {
		if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
			fmt.Fprintf(w, "skipped catalog line %d: want 2 fields, got %d\n", lineNo, len(fields))
			summary.SkippedLines++
			return
		}
		catalog[fields[0]] = fields[1]
	})
	if err != nil {
		return summary, fmt.Errorf("reading catalog file %s: %w", path, err)
	}

	summary.Genes = len(catalog)
	if err := s.ReplaceCatalog(ctx, catalog); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "imported %d catalog entries\n", summary.Genes)
	return summary, nil
}

// ImportOrthology reads a five-column tab-separated orthology file
// (query_species, query_gene, ortho_species, ortho_gene, relation),
// gzip-compressed when the name ends in .gz, and replaces the stored edge
// set. Malformed lines and unknown relation types are skipped with a note.
func (s *Store) ImportOrthology(ctx context.Context, path string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary
	var edges []types.OrthologyEdge

	err := readTSV(path, func(lineNo int, fields []string) {
		if len(fields) != 5 {
			fmt.Fprintf(w, "skipped orthology line %d: want 5 fields, got %d\n", lineNo, len(fields))
			summary.SkippedLines++
			return
		}
		edge := types.OrthologyEdge{
			QuerySpecies: fields[0],
			QueryGene:    fields[1],
			OrthoSpecies: fields[2],
			OrthoGene:    fields[3],
			Relation:     types.RelationType(fields[4]),
		}
		if !edge.Complete() || !edge.Relation.Valid() {
			fmt.Fprintf(w, "skipped orthology line %d: incomplete edge or unknown relation %q\n", lineNo, fields[4])
			summary.SkippedLines++
			return
		}
		edges = append(edges, edge)
	})
	if err != nil {
		return summary, fmt.Errorf("reading orthology file %s: %w", path, err)
	}

	summary.Edges = len(edges)
	if err := s.ReplaceOrthology(ctx, edges); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "imported %d orthology edges\n", summary.Edges)
	return summary, nil
}

// readTSV streams a plain or gzipped tab-separated file, skipping blank and
// comment lines, and calls fn per data line.
func readTSV(path string, fn func(lineNo int, fields []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fn(lineNo, strings.Split(line, "\t"))
	}
	return scanner.Err()
}
