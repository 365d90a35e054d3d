// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"sort"

	"github.com/sctrait/trait-engine/pkg/types"
)

// Scorer maps an association's evidence set to its aggregate score. It must
// be a pure function of the evidence multiset: order-independent, and
// monotone in the sense that appending evidence never lowers the result.
type Scorer func(evidence []types.Evidence) float64

// sameDocDamp is the factor applied to every evidence row beyond a
// document's strongest one, so a single paper repeating itself cannot rival
// independent corroboration.
const sameDocDamp = 0.5

// DefaultScorer sums damped evidence contributions. Per document the
// strongest row contributes its full score and the rest contribute half;
// the aggregate is the total over all contributions. Every positive
// contribution raises the score, so independent corroboration always beats
// any single case weight, and a lone weak case cannot outweigh several
// strong ones.
func DefaultScorer(evidence []types.Evidence) float64 {
	byDoc := make(map[string][]float64)
	for _, ev := range evidence {
		w := float64(ev.Score)
		if w < 0 {
			w = 0
		}
		byDoc[ev.DocumentID] = append(byDoc[ev.DocumentID], w)
	}

	var contributions []float64
	for _, weights := range byDoc {
		sort.Sort(sort.Reverse(sort.Float64Slice(weights)))
		for i, w := range weights {
			if i > 0 {
				w *= sameDocDamp
			}
			contributions = append(contributions, w)
		}
	}

	// Sum in a fixed order so the float result does not depend on map
	// iteration.
	sort.Float64s(contributions)

	total := 0.0
	for _, w := range contributions {
		total += w
	}
	return total
}
