// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sctrait/trait-engine/pkg/types"
)

const (
	triplesFile   = "triples.gaf"
	evidencesFile = "evidences.tsv"

	gafDB        = "scTrait"
	gafQualifier = "contributes_to"
	gafAspect    = "P"
	gafType      = "protein"

	codeNative    = "TAS" // traceable author statement
	codeOrthology = "ISO" // inferred from sequence orthology
)

// Exporter writes the selected association set as a GAF 2.1 triples file and
// a tab-separated evidence provenance table. Output is ordered by
// (species, gene, trait) and is byte-identical across runs for a fixed
// selection and date.
type Exporter struct {
	OutDir string

	// Date stamps the GAF rows, formatted YYYYMMDD. Zero uses today.
	Date time.Time
}

// Write produces both files and returns their paths.
func (e Exporter) Write(sel Selection) (gafPath, evPath string, err error) {
	if err := os.MkdirAll(e.OutDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating export directory: %w", err)
	}

	gafPath = filepath.Join(e.OutDir, triplesFile)
	if err := writeFile(gafPath, func(w io.Writer) error {
		return e.writeTriples(w, sel.Exported)
	}); err != nil {
		return "", "", err
	}

	evPath = filepath.Join(e.OutDir, evidencesFile)
	if err := writeFile(evPath, func(w io.Writer) error {
		return e.writeEvidences(w, sel.Exported)
	}); err != nil {
		return "", "", err
	}

	return gafPath, evPath, nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// writeTriples emits one GAF 2.1 line per exported association. Document
// references of the association's evidence are joined into the db_reference
// column, pipe-separated, as the annotation consumers expect.
func (e Exporter) writeTriples(w io.Writer, assocs []types.Association) error {
	date := e.Date
	if date.IsZero() {
		date = time.Now()
	}
	dateStr := date.Format("20060102")

	if _, err := fmt.Fprintln(w, "!gaf-version: 2.1"); err != nil {
		return err
	}

	for _, a := range assocs {
		code := codeNative
		if a.OrthologyDerived {
			code = codeOrthology
		}
		taxon := "taxon:" + a.Key.SpeciesID

		cols := []string{
			gafDB,            // db
			a.Key.GeneID,     // db_object_id
			geneSymbol(a),    // db_object_symbol
			gafQualifier,     // qualifier
			a.Key.TraitID,    // go_id / trait id
			docReferences(a), // db_reference
			code,             // evidence_code
			"",               // with_or_from
			gafAspect,        // aspect
			geneSymbol(a),    // db_object_name
			"",               // db_object_synonym
			gafType,          // db_object_type
			taxon,            // taxon
			dateStr,          // date
			gafDB,            // assigned_by
			annotations(a),   // annotation_extension
			"",               // gene_product_form_id
		}
		if _, err := fmt.Fprintln(w, strings.Join(cols, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// writeEvidences emits the provenance table: one row per evidence of each
// exported association, so every claim can be audited back to source text.
func (e Exporter) writeEvidences(w io.Writer, assocs []types.Association) error {
	header := []string{
		"species_id", "gene_id", "trait_id", "class", "assoc_score",
		"case", "evidence_score", "document_id", "paragraph_id",
		"gene_offset", "trait_offset", "species_offset",
		"trait_surface", "relation_path",
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, a := range assocs {
		class := "native"
		path := ""
		if a.OrthologyDerived {
			class = "orthology"
			path = relationPath(a)
		}

		for _, ev := range a.Evidence {
			specOffset := "-"
			if ev.SpeciesMention != nil {
				specOffset = strconv.Itoa(ev.SpeciesMention.Offset)
			}
			cols := []string{
				a.Key.SpeciesID,
				a.Key.GeneID,
				a.Key.TraitID,
				class,
				formatScore(a.Score),
				string(ev.Case),
				strconv.Itoa(ev.Score),
				ev.DocumentID,
				ev.ParagraphID,
				strconv.Itoa(ev.GeneMention.Offset),
				strconv.Itoa(ev.TraitMention.Offset),
				specOffset,
				ev.TraitSurface,
				path,
			}
			if _, err := fmt.Fprintln(w, strings.Join(cols, "\t")); err != nil {
				return err
			}
		}
	}
	return nil
}

// geneSymbol picks a display symbol for the gene: the surface text of the
// first evidence row, falling back to the gene id.
func geneSymbol(a types.Association) string {
	if len(a.Evidence) > 0 && a.Evidence[0].GeneMention.Surface != "" {
		return a.Evidence[0].GeneMention.Surface
	}
	return a.Key.GeneID
}

// docReferences joins the distinct supporting document ids, sorted.
func docReferences(a types.Association) string {
	seen := make(map[string]struct{}, len(a.Evidence))
	var refs []string
	for _, ev := range a.Evidence {
		if _, ok := seen[ev.DocumentID]; ok {
			continue
		}
		seen[ev.DocumentID] = struct{}{}
		refs = append(refs, "PMID:"+ev.DocumentID)
	}
	sort.Strings(refs)
	return strings.Join(refs, "|")
}

// annotations packs the score and evidence count the way the downstream
// statistics consumers read them.
func annotations(a types.Association) string {
	return fmt.Sprintf("score:%s|ev_count:%d", formatScore(a.Score), len(a.Evidence))
}

// relationPath names the orthology relations traversed from the native
// triple, in hop order.
func relationPath(a types.Association) string {
	rels := make([]string, len(a.Relations))
	for i, r := range a.Relations {
		rels[i] = string(r)
	}
	return strings.Join(rels, ">")
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}

func sortAssociations(assocs []types.Association) {
	sort.Slice(assocs, func(i, j int) bool {
		return assocs[i].Key.Less(assocs[j].Key)
	})
}
