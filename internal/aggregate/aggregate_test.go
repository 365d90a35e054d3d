// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctrait/trait-engine/pkg/types"
)

func classification(docID, parID, geneID, traitID string, caseType types.CaseType, score int) types.CaseClassification {
	return types.CaseClassification{
		DocumentID:   docID,
		ParagraphID:  parID,
		GeneMention:  types.Mention{ParagraphID: parID, Kind: types.KindGene, EntityID: geneID, Surface: geneID, Offset: 10, Length: 5},
		TraitMention: types.Mention{ParagraphID: parID, Kind: types.KindTrait, EntityID: traitID, Surface: traitID, Offset: 30, Length: 5},
		SpeciesID:    "sp-1",
		Case:         caseType,
		Score:        score,
	}
}

func TestAdd_GroupsByTripleKey(t *testing.T) {
	agg := New(nil)
	agg.Add(classification("doc-1", "par-1", "gene-1", "trait-1", types.Case1A, 100))
	agg.Add(classification("doc-2", "par-9", "gene-1", "trait-1", types.Case1C, 80))
	agg.Add(classification("doc-1", "par-2", "gene-2", "trait-1", types.Case2A, 70))

	assocs, err := agg.Finalize()
	require.NoError(t, err)
	require.Len(t, assocs, 2)

	// Sorted by (species, gene, trait).
	assert.Equal(t, types.TripleKey{SpeciesID: "sp-1", GeneID: "gene-1", TraitID: "trait-1"}, assocs[0].Key)
	assert.Len(t, assocs[0].Evidence, 2)
	assert.Equal(t, types.TripleKey{SpeciesID: "sp-1", GeneID: "gene-2", TraitID: "trait-1"}, assocs[1].Key)
	assert.Len(t, assocs[1].Evidence, 1)

	for _, a := range assocs {
		for _, ev := range a.Evidence {
			assert.Equal(t, a.ID, ev.AssociationID)
		}
	}
}

func TestAdd_IdempotentPerTriad(t *testing.T) {
	agg := New(nil)
	cl := classification("doc-1", "par-1", "gene-1", "trait-1", types.Case1A, 100)

	agg.Add(cl)
	first, err := agg.Finalize()
	require.NoError(t, err)

	// Re-processing the same paragraph must not add evidence or move the score.
	agg.Add(cl)
	agg.Add(cl)
	second, err := agg.Finalize()
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Len(t, second[0].Evidence, 1)
	assert.Equal(t, first[0].Score, second[0].Score)
}

func TestAdd_DistinctTriadOffsetsAreNotDuplicates(t *testing.T) {
	agg := New(nil)
	cl := classification("doc-1", "par-1", "gene-1", "trait-1", types.Case1A, 100)
	agg.Add(cl)

	// Same entities at a different position in the paragraph.
	cl2 := cl
	cl2.TraitMention.Offset = 120
	agg.Add(cl2)

	assocs, err := agg.Finalize()
	require.NoError(t, err)
	require.Len(t, assocs, 1)
	assert.Len(t, assocs[0].Evidence, 2)
}

func TestAdd_ConcurrentSameKey(t *testing.T) {
	agg := New(nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				par := fmt.Sprintf("par-%d-%d", w, i)
				agg.Add(classification("doc-1", par, "gene-1", "trait-1", types.Case1A, 100))
				agg.Add(classification("doc-1", par, "gene-2", "trait-2", types.Case1B, 90))
			}
		}(w)
	}
	wg.Wait()

	assocs, err := agg.Finalize()
	require.NoError(t, err)
	require.Len(t, assocs, 2)
	assert.Len(t, assocs[0].Evidence, 400)
	assert.Len(t, assocs[1].Evidence, 400)
}

func TestFinalize_DeterministicEvidenceOrder(t *testing.T) {
	build := func(order []int) []types.Association {
		agg := New(nil)
		cls := []types.CaseClassification{
			classification("doc-2", "par-1", "gene-1", "trait-1", types.Case1C, 80),
			classification("doc-1", "par-3", "gene-1", "trait-1", types.Case1A, 100),
			classification("doc-1", "par-1", "gene-1", "trait-1", types.Case1B, 90),
		}
		for _, i := range order {
			agg.Add(cls[i])
		}
		assocs, err := agg.Finalize()
		require.NoError(t, err)
		return assocs
	}

	a := build([]int{0, 1, 2})
	b := build([]int{2, 0, 1})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Score, b[0].Score)
	for i := range a[0].Evidence {
		assert.Equal(t, a[0].Evidence[i].ParagraphID, b[0].Evidence[i].ParagraphID)
		assert.Equal(t, a[0].Evidence[i].Case, b[0].Evidence[i].Case)
	}
}

func TestFinalize_SpeciesMentionOrderStable(t *testing.T) {
	// One paragraph naming the same species twice around the pair yields two
	// rows tied on every other sort key; their order must not depend on the
	// order workers added them.
	withSpecies := func(offset int) types.CaseClassification {
		cl := classification("doc-1", "par-1", "gene-1", "trait-1", types.Case1A, 100)
		cl.SpeciesMention = &types.Mention{
			ParagraphID: "par-1", Kind: types.KindSpecies, EntityID: "sp-1",
			Surface: "sp-1", Offset: offset, Length: 5,
		}
		return cl
	}

	build := func(order []int) []int {
		agg := New(nil)
		cls := []types.CaseClassification{withSpecies(0), withSpecies(200)}
		for i := 0; i < 20; i++ {
			agg.Add(classification("doc-0", fmt.Sprintf("par-%d", i), "gene-9", "trait-9", types.Case1B, 90))
		}
		for _, i := range order {
			agg.Add(cls[i])
		}
		assocs, err := agg.Finalize()
		require.NoError(t, err)

		for _, a := range assocs {
			if a.Key.GeneID != "gene-1" {
				continue
			}
			offsets := make([]int, 0, len(a.Evidence))
			for _, ev := range a.Evidence {
				require.NotNil(t, ev.SpeciesMention)
				offsets = append(offsets, ev.SpeciesMention.Offset)
			}
			return offsets
		}
		t.Fatal("gene-1 association not found")
		return nil
	}

	assert.Equal(t, []int{0, 200}, build([]int{0, 1}))
	assert.Equal(t, []int{0, 200}, build([]int{1, 0}))
}

func TestScenario_TwoDocumentsOneAssociation(t *testing.T) {
	agg := New(nil)
	agg.Add(classification("doc-1", "par-1", "gene-1", "trait-1", types.Case1A, types.Case1A.Weight()))
	agg.Add(classification("doc-2", "par-7", "gene-1", "trait-1", types.Case1C, types.Case1C.Weight()))

	assocs, err := agg.Finalize()
	require.NoError(t, err)
	require.Len(t, assocs, 1)

	a := assocs[0]
	assert.Len(t, a.Evidence, 2)
	assert.Equal(t, 2, a.DistinctDocuments())
	assert.Greater(t, a.Score, float64(types.Case1A.Weight()))
	assert.Greater(t, a.Score, float64(types.Case1C.Weight()))
}
