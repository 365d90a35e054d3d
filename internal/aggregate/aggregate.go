// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate folds classified mention triads into canonical
// associations. Associations are keyed strictly by (species, gene, trait);
// repeated classifications extend the existing record. The aggregator is the
// single serialization point of the corpus pass: state is sharded by triple
// key so parallel classification workers rarely contend.
package aggregate

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sctrait/trait-engine/pkg/types"
)

const shardCount = 16

// Aggregator accumulates evidence per association. Safe for concurrent Add.
type Aggregator struct {
	scorer Scorer
	shards [shardCount]shard
}

type shard struct {
	mu      sync.Mutex
	records map[types.TripleKey]*record
}

type record struct {
	assoc *types.Association
	// seen holds fingerprints of evidence already appended, keyed by
	// (document, paragraph, triad offsets, case). Re-processing a paragraph
	// is a no-op.
	seen map[string]struct{}
}

// New builds an Aggregator. A nil scorer uses DefaultScorer.
func New(scorer Scorer) *Aggregator {
	if scorer == nil {
		scorer = DefaultScorer
	}
	a := &Aggregator{scorer: scorer}
	for i := range a.shards {
		a.shards[i].records = make(map[types.TripleKey]*record)
	}
	return a
}

// Add upserts the association for the classification's triple key and
// appends one evidence row, unless an identical triad from the same
// paragraph was already recorded.
func (a *Aggregator) Add(cl types.CaseClassification) {
	key := cl.Key()
	sh := &a.shards[shardIndex(key)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[key]
	if !ok {
		rec = &record{
			assoc: &types.Association{ID: uuid.New(), Key: key},
			seen:  make(map[string]struct{}),
		}
		sh.records[key] = rec
	}

	fp := fingerprint(cl)
	if _, dup := rec.seen[fp]; dup {
		return
	}
	rec.seen[fp] = struct{}{}

	rec.assoc.Evidence = append(rec.assoc.Evidence, types.Evidence{
		ID:             uuid.New(),
		AssociationID:  rec.assoc.ID,
		DocumentID:     cl.DocumentID,
		ParagraphID:    cl.ParagraphID,
		SpeciesMention: cl.SpeciesMention,
		GeneMention:    cl.GeneMention,
		TraitMention:   cl.TraitMention,
		TraitSurface:   cl.TraitMention.Surface,
		Case:           cl.Case,
		Score:          cl.Score,
	})
}

// Finalize recomputes every aggregate score and returns the associations
// sorted by triple key. An association without evidence signals a logic
// defect and fails the run.
func (a *Aggregator) Finalize() ([]types.Association, error) {
	var out []types.Association
	for i := range a.shards {
		sh := &a.shards[i]
		sh.mu.Lock()
		for key, rec := range sh.records {
			if len(rec.assoc.Evidence) == 0 {
				sh.mu.Unlock()
				return nil, fmt.Errorf("association %s has no evidence", key)
			}
			sortEvidence(rec.assoc.Evidence)
			rec.assoc.Score = a.scorer(rec.assoc.Evidence)
			out = append(out, *rec.assoc)
		}
		sh.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.Less(out[j].Key)
	})
	return out, nil
}

// Len returns the number of associations accumulated so far.
func (a *Aggregator) Len() int {
	n := 0
	for i := range a.shards {
		sh := &a.shards[i]
		sh.mu.Lock()
		n += len(sh.records)
		sh.mu.Unlock()
	}
	return n
}

func shardIndex(key types.TripleKey) int {
	h := fnv.New32a()
	h.Write([]byte(key.SpeciesID))
	h.Write([]byte{0})
	h.Write([]byte(key.GeneID))
	h.Write([]byte{0})
	h.Write([]byte(key.TraitID))
	return int(h.Sum32() % shardCount)
}

func fingerprint(cl types.CaseClassification) string {
	specOffset := -1
	if cl.SpeciesMention != nil {
		specOffset = cl.SpeciesMention.Offset
	}
	return fmt.Sprintf("%s|%s|%d|%d|%d|%s",
		cl.DocumentID, cl.ParagraphID,
		cl.GeneMention.Offset, cl.TraitMention.Offset, specOffset, cl.Case)
}

// sortEvidence fixes a deterministic evidence order independent of the order
// paragraphs were processed in.
func sortEvidence(evidence []types.Evidence) {
	sort.Slice(evidence, func(i, j int) bool {
		a, b := evidence[i], evidence[j]
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		if a.ParagraphID != b.ParagraphID {
			return a.ParagraphID < b.ParagraphID
		}
		if a.GeneMention.Offset != b.GeneMention.Offset {
			return a.GeneMention.Offset < b.GeneMention.Offset
		}
		if a.TraitMention.Offset != b.TraitMention.Offset {
			return a.TraitMention.Offset < b.TraitMention.Offset
		}
		if a.Case != b.Case {
			return a.Case < b.Case
		}
		// Two rows can still differ only in the species mention, e.g. one
		// paragraph naming the same species twice around the pair.
		return speciesOffset(a) < speciesOffset(b)
	})
}

func speciesOffset(ev types.Evidence) int {
	if ev.SpeciesMention == nil {
		return -1
	}
	return ev.SpeciesMention.Offset
}
