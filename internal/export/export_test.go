// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctrait/trait-engine/pkg/types"
)

func assoc(species, gene, trait string, score float64, docIDs ...string) types.Association {
	a := types.Association{
		ID:    uuid.New(),
		Key:   types.TripleKey{SpeciesID: species, GeneID: gene, TraitID: trait},
		Score: score,
	}
	for i, doc := range docIDs {
		a.Evidence = append(a.Evidence, types.Evidence{
			ID:            uuid.New(),
			AssociationID: a.ID,
			DocumentID:    doc,
			ParagraphID:   doc + "-par",
			GeneMention:   types.Mention{Kind: types.KindGene, EntityID: gene, Surface: gene + "-sym", Offset: 10 + i, Length: 5},
			TraitMention:  types.Mention{Kind: types.KindTrait, EntityID: trait, Surface: "long tail", Offset: 40 + i, Length: 9},
			TraitSurface:  "long tail",
			Case:          types.Case1A,
			Score:         100,
		})
	}
	return a
}

func derivedAssoc(species, gene, trait string, score float64, src types.Association) types.Association {
	return types.Association{
		ID:               uuid.New(),
		Key:              types.TripleKey{SpeciesID: species, GeneID: gene, TraitID: trait},
		Evidence:         src.Evidence,
		Score:            score,
		OrthologyDerived: true,
		SourceID:         src.ID,
		Relations:        []types.RelationType{types.RelationOneToOne},
	}
}

// --- filtering ---

func TestFilter_ThresholdANDSemantics(t *testing.T) {
	src := assoc("sp-1", "gene-1", "trait-1", 500, manyDocs(25)...)

	excluded := derivedAssoc("sp-2", "gene-2", "trait-1", 85, assoc("sp-1", "gene-x", "trait-1", 100, manyDocs(18)...))
	included := derivedAssoc("sp-3", "gene-3", "trait-1", 82, src)

	cfg := types.ExportConfig{
		Native:    types.ClassThresholds{MinOccurrence: 5, MinScore: 0},
		Orthology: types.ClassThresholds{MinOccurrence: 20, MinScore: 80},
	}

	sel, err := Filter([]types.Association{src, excluded, included}, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, sel.NativeKept)
	assert.Equal(t, 1, sel.OrthoKept)
	assert.Equal(t, 1, sel.OrthoDropped)

	keys := exportedKeys(sel)
	assert.Contains(t, keys, "sp-3/gene-3/trait-1", "25 evidence rows at score 82 passes both minimums")
	assert.NotContains(t, keys, "sp-2/gene-2/trait-1", "18 evidence rows fails the occurrence minimum despite score 85")
}

func TestFilter_ClassIndependence(t *testing.T) {
	nativeA := assoc("sp-1", "gene-1", "trait-1", 90, "doc-1")
	nativeB := assoc("sp-1", "gene-2", "trait-1", 60, "doc-2")
	der := derivedAssoc("sp-2", "gene-3", "trait-1", 70, nativeA)

	loose := types.ExportConfig{
		Native:    types.ClassThresholds{MinOccurrence: 1, MinScore: 50},
		Orthology: types.ClassThresholds{MinOccurrence: 1, MinScore: 65},
	}
	tight := loose
	tight.Native.MinScore = 80

	looseSel, err := Filter([]types.Association{nativeA, nativeB, der}, loose)
	require.NoError(t, err)
	tightSel, err := Filter([]types.Association{nativeA, nativeB, der}, tight)
	require.NoError(t, err)

	// Tightening the native threshold only shrinks the native subset.
	assert.Equal(t, 2, looseSel.NativeKept)
	assert.Equal(t, 1, tightSel.NativeKept)
	assert.Equal(t, looseSel.OrthoKept, tightSel.OrthoKept)
}

func TestFilter_RejectsNegativeThresholds(t *testing.T) {
	_, err := Filter(nil, types.ExportConfig{
		Native: types.ClassThresholds{MinOccurrence: -1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "native thresholds")
}

// --- file output ---

func TestWrite_GAFFormat(t *testing.T) {
	nat := assoc("9606", "gene-1", "TO:0000276", 190, "1001", "1002")
	der := derivedAssoc("9615", "gene-2", "TO:0000276", 85.5, nat)

	sel, err := Filter([]types.Association{nat, der}, types.ExportConfig{})
	require.NoError(t, err)

	dir := t.TempDir()
	gafPath, evPath, err := Exporter{
		OutDir: dir,
		Date:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}.Write(sel)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "triples.gaf"), gafPath)

	data, err := os.ReadFile(gafPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "!gaf-version: 2.1", lines[0])

	nativeRow := strings.Split(lines[1], "\t")
	require.Len(t, nativeRow, 17)
	assert.Equal(t, "scTrait", nativeRow[0])
	assert.Equal(t, "gene-1", nativeRow[1])
	assert.Equal(t, "gene-1-sym", nativeRow[2])
	assert.Equal(t, "contributes_to", nativeRow[3])
	assert.Equal(t, "TO:0000276", nativeRow[4])
	assert.Equal(t, "PMID:1001|PMID:1002", nativeRow[5])
	assert.Equal(t, "TAS", nativeRow[6])
	assert.Equal(t, "taxon:9606", nativeRow[12])
	assert.Equal(t, "20260314", nativeRow[13])
	assert.Equal(t, "score:190.00|ev_count:2", nativeRow[15])

	derivedRow := strings.Split(lines[2], "\t")
	assert.Equal(t, "ISO", derivedRow[6])
	assert.Equal(t, "taxon:9615", derivedRow[12])

	evData, err := os.ReadFile(evPath)
	require.NoError(t, err)
	evLines := strings.Split(strings.TrimRight(string(evData), "\n"), "\n")
	// Header, two native rows, two rehydrated derived rows.
	require.Len(t, evLines, 5)
	assert.True(t, strings.HasPrefix(evLines[0], "species_id\tgene_id\ttrait_id\tclass"))
	assert.Contains(t, evLines[3], "orthology")
	assert.Contains(t, evLines[3], "one-to-one")
}

func TestWrite_Deterministic(t *testing.T) {
	assocs := []types.Association{
		assoc("sp-2", "gene-1", "trait-2", 100, "doc-3"),
		assoc("sp-1", "gene-2", "trait-1", 150, "doc-1", "doc-2"),
		assoc("sp-1", "gene-1", "trait-1", 90, "doc-2"),
	}
	date := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	render := func(input []types.Association) (string, string) {
		sel, err := Filter(input, types.ExportConfig{})
		require.NoError(t, err)
		dir := t.TempDir()
		gafPath, evPath, err := Exporter{OutDir: dir, Date: date}.Write(sel)
		require.NoError(t, err)
		gaf, err := os.ReadFile(gafPath)
		require.NoError(t, err)
		ev, err := os.ReadFile(evPath)
		require.NoError(t, err)
		return string(gaf), string(ev)
	}

	gaf1, ev1 := render(assocs)
	reversed := []types.Association{assocs[2], assocs[1], assocs[0]}
	gaf2, ev2 := render(reversed)

	assert.Equal(t, gaf1, gaf2, "export bytes must not depend on input order")
	assert.Equal(t, ev1, ev2)

	// Output ordered by (species, gene, trait).
	lines := strings.Split(strings.TrimRight(gaf1, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "gene-1", strings.Split(lines[1], "\t")[1])
	assert.Equal(t, "gene-2", strings.Split(lines[2], "\t")[1])
	assert.Equal(t, "taxon:sp-2", strings.Split(lines[3], "\t")[12])
}

// --- helpers ---

func manyDocs(n int) []string {
	docs := make([]string, n)
	for i := range docs {
		docs[i] = fmt.Sprintf("doc-%03d", i)
	}
	return docs
}

func exportedKeys(sel Selection) []string {
	keys := make([]string, len(sel.Exported))
	for i, a := range sel.Exported {
		keys[i] = a.Key.String()
	}
	return keys
}
