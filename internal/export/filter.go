// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export selects the high-quality subset of the association set and
// writes the exportable triples with their evidence provenance.
package export

import (
	"github.com/sctrait/trait-engine/pkg/types"
)

// Selection is the outcome of threshold filtering. Failing associations are
// not discarded by the caller's store; they are only excluded here.
type Selection struct {
	// Exported is the passing subset, ordered by (species, gene, trait).
	Exported []types.Association

	NativeKept    int
	NativeDropped int
	OrthoKept     int
	OrthoDropped  int
}

// Filter applies the per-class quality profiles. An association passes when
// it meets both its class's occurrence and score minimum. The thresholds are
// validated before any association is evaluated.
func Filter(assocs []types.Association, cfg types.ExportConfig) (Selection, error) {
	if err := cfg.Validate(); err != nil {
		return Selection{}, err
	}

	var sel Selection
	for _, a := range assocs {
		profile := cfg.Native
		if a.OrthologyDerived {
			profile = cfg.Orthology
		}

		if passes(a, profile) {
			sel.Exported = append(sel.Exported, a)
			if a.OrthologyDerived {
				sel.OrthoKept++
			} else {
				sel.NativeKept++
			}
		} else {
			if a.OrthologyDerived {
				sel.OrthoDropped++
			} else {
				sel.NativeDropped++
			}
		}
	}

	sortAssociations(sel.Exported)
	return sel, nil
}

func passes(a types.Association, t types.ClassThresholds) bool {
	return len(a.Evidence) >= t.MinOccurrence && a.Score >= t.MinScore
}
