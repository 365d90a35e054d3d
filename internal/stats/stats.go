// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats summarizes a run: corpus size, association counts per class
// and case, per-species counts, and the evidence distribution.
package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/sctrait/trait-engine/pkg/types"
)

// Report holds the collected statistics.
type Report struct {
	Documents  int
	Paragraphs int

	MentionsByKind map[types.MentionKind]int

	NativeAssociations  int
	DerivedAssociations int

	// EvidenceByCase counts native evidence rows per case type.
	EvidenceByCase map[types.CaseType]int

	// AssociationsBySpecies counts associations (both classes) per species.
	AssociationsBySpecies map[string]int

	// Evidence distribution over native associations.
	MinEvidence    int
	MedianEvidence int
	MaxEvidence    int
}

// Collect derives the report from a loaded corpus and association set.
func Collect(corpus types.Corpus, assocs []types.Association) Report {
	r := Report{
		MentionsByKind:        make(map[types.MentionKind]int),
		EvidenceByCase:        make(map[types.CaseType]int),
		AssociationsBySpecies: make(map[string]int),
	}

	r.Documents = len(corpus.Documents)
	for _, doc := range corpus.Documents {
		r.Paragraphs += len(doc.Paragraphs)
		for _, p := range doc.Paragraphs {
			for _, m := range p.Mentions {
				r.MentionsByKind[m.Kind]++
			}
		}
	}

	var counts []int
	for _, a := range assocs {
		r.AssociationsBySpecies[a.Key.SpeciesID]++
		if a.OrthologyDerived {
			r.DerivedAssociations++
			continue
		}
		r.NativeAssociations++
		counts = append(counts, len(a.Evidence))
		for _, ev := range a.Evidence {
			r.EvidenceByCase[ev.Case]++
		}
	}

	if len(counts) > 0 {
		sort.Ints(counts)
		r.MinEvidence = counts[0]
		r.MedianEvidence = counts[len(counts)/2]
		r.MaxEvidence = counts[len(counts)-1]
	}

	return r
}

// Write renders the report as indented text, one section per concern.
func (r Report) Write(w io.Writer) {
	fmt.Fprintf(w, "corpus: %d documents, %d paragraphs\n", r.Documents, r.Paragraphs)
	for _, kind := range []types.MentionKind{types.KindSpecies, types.KindGene, types.KindTrait} {
		fmt.Fprintf(w, "  %s mentions: %d\n", kind, r.MentionsByKind[kind])
	}

	fmt.Fprintf(w, "associations: %d native, %d orthology-derived\n",
		r.NativeAssociations, r.DerivedAssociations)
	if r.NativeAssociations > 0 {
		fmt.Fprintf(w, "  evidence per association: min %d, median %d, max %d\n",
			r.MinEvidence, r.MedianEvidence, r.MaxEvidence)
	}

	fmt.Fprintln(w, "evidence by case:")
	for _, c := range types.AllCases() {
		if n := r.EvidenceByCase[c]; n > 0 {
			fmt.Fprintf(w, "  %-3s %d\n", c, n)
		}
	}

	fmt.Fprintln(w, "associations by species:")
	for _, id := range sortedKeys(r.AssociationsBySpecies) {
		fmt.Fprintf(w, "  %s: %d\n", id, r.AssociationsBySpecies[id])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
