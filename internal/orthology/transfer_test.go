// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orthology

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctrait/trait-engine/pkg/types"
)

func edge(qs, qg, os, og string, rel types.RelationType) types.OrthologyEdge {
	return types.OrthologyEdge{
		QuerySpecies: qs, QueryGene: qg,
		OrthoSpecies: os, OrthoGene: og,
		Relation: rel,
	}
}

func native(species, gene, trait string, score float64, evidenceRows int) types.Association {
	a := types.Association{
		ID:    uuid.New(),
		Key:   types.TripleKey{SpeciesID: species, GeneID: gene, TraitID: trait},
		Score: score,
	}
	for i := 0; i < evidenceRows; i++ {
		a.Evidence = append(a.Evidence, types.Evidence{
			ID:            uuid.New(),
			AssociationID: a.ID,
			DocumentID:    "doc-1",
			ParagraphID:   "par-1",
			Case:          types.Case1A,
			Score:         int(score),
		})
	}
	return a
}

func newTestEngine(t *testing.T, maxLinks int, edges ...types.OrthologyEdge) *Engine {
	t.Helper()
	e, err := NewEngine(types.TransferConfig{MaxOrthoLinks: maxLinks}, NewGraph(edges, nil), nil)
	require.NoError(t, err)
	return e
}

func TestTransfer_OneHopOneToOne(t *testing.T) {
	src := native("sp-1", "gene-1", "trait-1", 90, 1)
	engine := newTestEngine(t, 1, edge("sp-1", "gene-1", "sp-2", "gene-2", types.RelationOneToOne))

	derived, err := engine.Transfer(context.Background(), []types.Association{src}, types.ClassThresholds{})
	require.NoError(t, err)
	require.Len(t, derived, 1)

	d := derived[0]
	assert.Equal(t, types.TripleKey{SpeciesID: "sp-2", GeneID: "gene-2", TraitID: "trait-1"}, d.Key)
	assert.InDelta(t, 90*0.9, d.Score, 1e-9)
	assert.LessOrEqual(t, d.Score, src.Score)
	assert.True(t, d.OrthologyDerived)
	assert.Equal(t, src.ID, d.SourceID)
	assert.Equal(t, []types.RelationType{types.RelationOneToOne}, d.Relations)
	// Derived associations carry their source's evidence for provenance.
	require.Len(t, d.Evidence, 1)
	assert.Equal(t, src.Evidence[0].ID, d.Evidence[0].ID)
}

func TestTransfer_ZeroHopsDisabled(t *testing.T) {
	src := native("sp-1", "gene-1", "trait-1", 90, 1)
	engine := newTestEngine(t, 0, edge("sp-1", "gene-1", "sp-2", "gene-2", types.RelationOneToOne))

	derived, err := engine.Transfer(context.Background(), []types.Association{src}, types.ClassThresholds{})
	require.NoError(t, err)
	assert.Empty(t, derived)
}

func TestTransfer_HopBound(t *testing.T) {
	// Chain sp-1 -> sp-2 -> sp-3 -> sp-4.
	edges := []types.OrthologyEdge{
		edge("sp-1", "gene-1", "sp-2", "gene-2", types.RelationOneToOne),
		edge("sp-2", "gene-2", "sp-3", "gene-3", types.RelationOneToOne),
		edge("sp-3", "gene-3", "sp-4", "gene-4", types.RelationOneToOne),
	}
	src := native("sp-1", "gene-1", "trait-1", 100, 1)

	for maxLinks, wantTargets := range map[int]int{1: 1, 2: 2, 3: 3, 10: 3} {
		engine := newTestEngine(t, maxLinks, edges...)
		derived, err := engine.Transfer(context.Background(), []types.Association{src}, types.ClassThresholds{})
		require.NoError(t, err)
		assert.Len(t, derived, wantTargets, "max links %d", maxLinks)
	}
}

func TestTransfer_MultiHopDiscountCompounds(t *testing.T) {
	engine := newTestEngine(t, 2,
		edge("sp-1", "gene-1", "sp-2", "gene-2", types.RelationOneToOne),
		edge("sp-2", "gene-2", "sp-3", "gene-3", types.RelationFamily),
	)
	src := native("sp-1", "gene-1", "trait-1", 100, 1)

	derived, err := engine.Transfer(context.Background(), []types.Association{src}, types.ClassThresholds{})
	require.NoError(t, err)
	require.Len(t, derived, 2)

	byKey := map[string]types.Association{}
	for _, d := range derived {
		byKey[d.Key.String()] = d
	}
	assert.InDelta(t, 90, byKey["sp-2/gene-2/trait-1"].Score, 1e-9)
	far := byKey["sp-3/gene-3/trait-1"]
	assert.InDelta(t, 100*0.9*0.6, far.Score, 1e-9)
	assert.Equal(t, []types.RelationType{types.RelationOneToOne, types.RelationFamily}, far.Relations)
}

func TestTransfer_CycleTerminates(t *testing.T) {
	engine := newTestEngine(t, 5,
		edge("sp-1", "gene-1", "sp-2", "gene-2", types.RelationOneToOne),
		edge("sp-2", "gene-2", "sp-1", "gene-1", types.RelationOneToOne),
	)
	src := native("sp-1", "gene-1", "trait-1", 100, 1)

	derived, err := engine.Transfer(context.Background(), []types.Association{src}, types.ClassThresholds{})
	require.NoError(t, err)
	// The origin is never a target, so the two-node cycle yields one triple.
	require.Len(t, derived, 1)
	assert.Equal(t, "sp-2", derived[0].Key.SpeciesID)
	assert.InDelta(t, 90, derived[0].Score, 1e-9)
}

func TestTransfer_NoChainingFromDerived(t *testing.T) {
	engine := newTestEngine(t, 3,
		edge("sp-2", "gene-2", "sp-3", "gene-3", types.RelationOneToOne),
	)
	derivedInput := native("sp-2", "gene-2", "trait-1", 81, 1)
	derivedInput.OrthologyDerived = true
	derivedInput.SourceID = uuid.New()

	out, err := engine.Transfer(context.Background(), []types.Association{derivedInput}, types.ClassThresholds{})
	require.NoError(t, err)
	assert.Empty(t, out, "derived associations must not seed transfer")
}

func TestTransfer_NativeTripleNotShadowed(t *testing.T) {
	engine := newTestEngine(t, 1,
		edge("sp-1", "gene-1", "sp-2", "gene-2", types.RelationOneToOne),
	)
	src := native("sp-1", "gene-1", "trait-1", 100, 1)
	existing := native("sp-2", "gene-2", "trait-1", 60, 1)

	derived, err := engine.Transfer(context.Background(), []types.Association{src, existing}, types.ClassThresholds{})
	require.NoError(t, err)
	assert.Empty(t, derived, "a transfer may not shadow a natively asserted triple")
}

func TestTransfer_BestPathWinsPerTarget(t *testing.T) {
	// Two paths to gene-3: direct family edge vs one-to-one through gene-2.
	engine := newTestEngine(t, 2,
		edge("sp-1", "gene-1", "sp-3", "gene-3", types.RelationFamily),
		edge("sp-1", "gene-1", "sp-2", "gene-2", types.RelationOneToOne),
		edge("sp-2", "gene-2", "sp-3", "gene-3", types.RelationOneToOne),
	)
	src := native("sp-1", "gene-1", "trait-1", 100, 1)

	derived, err := engine.Transfer(context.Background(), []types.Association{src}, types.ClassThresholds{})
	require.NoError(t, err)
	require.Len(t, derived, 2)

	for _, d := range derived {
		if d.Key.GeneID != "gene-3" {
			continue
		}
		// 0.9 * 0.9 beats the direct 0.6; scores never sum across paths.
		assert.InDelta(t, 81, d.Score, 1e-9)
		assert.Len(t, d.Relations, 2)
	}
}

func TestTransfer_EqualScorePathsStableRelations(t *testing.T) {
	// Two 2-hop paths to sp-3/gene-3 with the same score product but swapped
	// relation order. The surviving relation path must not depend on map
	// iteration: the lexicographically smaller sequence wins every run.
	engine := newTestEngine(t, 2,
		edge("sp-1", "gene-1", "sp-2a", "gene-2a", types.RelationOneToOne),
		edge("sp-2a", "gene-2a", "sp-3", "gene-3", types.RelationFamily),
		edge("sp-1", "gene-1", "sp-2b", "gene-2b", types.RelationFamily),
		edge("sp-2b", "gene-2b", "sp-3", "gene-3", types.RelationOneToOne),
	)
	src := native("sp-1", "gene-1", "trait-1", 100, 1)

	for i := 0; i < 200; i++ {
		derived, err := engine.Transfer(context.Background(), []types.Association{src}, types.ClassThresholds{})
		require.NoError(t, err)

		var far *types.Association
		for j := range derived {
			if derived[j].Key.GeneID == "gene-3" {
				far = &derived[j]
			}
		}
		require.NotNil(t, far)
		assert.InDelta(t, 100*0.9*0.6, far.Score, 1e-9)
		require.Equal(t, []types.RelationType{types.RelationFamily, types.RelationOneToOne},
			far.Relations, "iteration %d", i)
	}
}

func TestTransfer_Prefilter(t *testing.T) {
	engine := newTestEngine(t, 1,
		edge("sp-1", "gene-1", "sp-2", "gene-2", types.RelationOneToOne),
		edge("sp-1", "gene-9", "sp-2", "gene-8", types.RelationOneToOne),
	)
	strong := native("sp-1", "gene-1", "trait-1", 100, 3)
	weak := native("sp-1", "gene-9", "trait-1", 40, 1)

	derived, err := engine.Transfer(context.Background(),
		[]types.Association{strong, weak},
		types.ClassThresholds{MinOccurrence: 2, MinScore: 50})
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, "gene-2", derived[0].Key.GeneID)
}

func TestTransfer_RetentionOverride(t *testing.T) {
	graph := NewGraph([]types.OrthologyEdge{
		edge("sp-1", "gene-1", "sp-2", "gene-2", types.RelationFamily),
	}, nil)
	engine, err := NewEngine(types.TransferConfig{
		MaxOrthoLinks: 1,
		Retention:     map[types.RelationType]float64{types.RelationFamily: 0.5},
	}, graph, nil)
	require.NoError(t, err)

	derived, err := engine.Transfer(context.Background(),
		[]types.Association{native("sp-1", "gene-1", "trait-1", 100, 1)},
		types.ClassThresholds{})
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.InDelta(t, 50, derived[0].Score, 1e-9)
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	graph := NewGraph(nil, nil)

	_, err := NewEngine(types.TransferConfig{MaxOrthoLinks: -1}, graph, nil)
	assert.Error(t, err)

	_, err = NewEngine(types.TransferConfig{
		MaxOrthoLinks: 1,
		Retention:     map[types.RelationType]float64{types.RelationOneToOne: 1.5},
	}, graph, nil)
	assert.Error(t, err)
}
