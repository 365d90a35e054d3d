// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	"github.com/google/uuid"
)

// CaseType labels how the species, gene, and trait mentions of a triad
// co-occur within a paragraph. Family 1 cases have all three kinds mentioned
// locally; family 2 cases have only gene and trait mentioned, with the
// species inferred from context.
type CaseType string

const (
	// Case1A: gene and trait proximal, gene first, species mentioned elsewhere
	// in the paragraph.
	Case1A CaseType = "1a"
	// Case1B: gene and trait proximal, trait first.
	Case1B CaseType = "1b"
	// Case1C: gene and trait proximal but split by the species mention.
	Case1C CaseType = "1c"
	// Case1D: all three kinds in the paragraph, gene and trait far apart.
	Case1D CaseType = "1d"
	// Case2A: no local species; inferred from the gene catalog; pair proximal.
	Case2A CaseType = "2a"
	// Case2BA: no local species; inferred from the document title; pair proximal.
	Case2BA CaseType = "2ba"
	// Case2BB: no local species; inferred as the document's dominant species;
	// pair proximal.
	Case2BB CaseType = "2bb"
	// Case2C: no local species; inferred from catalog, title, or dominance;
	// pair not proximal.
	Case2C CaseType = "2c"
	// Case2D: no local species; fell back to the configured default organism.
	Case2D CaseType = "2d"
)

// caseWeights fixes the base reliability weight per case. Closer and more
// explicit co-mention earns a higher weight.
var caseWeights = map[CaseType]int{
	Case1A:  100,
	Case1B:  90,
	Case1C:  80,
	Case1D:  60,
	Case2A:  70,
	Case2BA: 55,
	Case2BB: 50,
	Case2C:  40,
	Case2D:  25,
}

// Weight returns the case's base reliability weight on a 0-100 scale.
// Unknown cases weigh zero.
func (c CaseType) Weight() int {
	return caseWeights[c]
}

// Valid reports whether c is one of the nine taxonomy labels.
func (c CaseType) Valid() bool {
	_, ok := caseWeights[c]
	return ok
}

// AllCases lists the taxonomy in a fixed order, for stats and validation.
func AllCases() []CaseType {
	return []CaseType{Case1A, Case1B, Case1C, Case1D, Case2A, Case2BA, Case2BB, Case2C, Case2D}
}

// TripleKey is the canonical identity of an association. It is unique across
// a run: repeated classified triads extend the same association.
type TripleKey struct {
	SpeciesID string `json:"species_id" yaml:"species_id"`
	GeneID    string `json:"gene_id" yaml:"gene_id"`
	TraitID   string `json:"trait_id" yaml:"trait_id"`
}

// String renders the key for logs and deterministic tie-breaking.
func (k TripleKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.SpeciesID, k.GeneID, k.TraitID)
}

// Less orders keys by (species, gene, trait), the export order.
func (k TripleKey) Less(other TripleKey) bool {
	if k.SpeciesID != other.SpeciesID {
		return k.SpeciesID < other.SpeciesID
	}
	if k.GeneID != other.GeneID {
		return k.GeneID < other.GeneID
	}
	return k.TraitID < other.TraitID
}

// CaseClassification is the classifier's output for one mention triad. It is
// ephemeral: the aggregator turns it into an Evidence row and discards it.
type CaseClassification struct {
	DocumentID  string
	ParagraphID string

	// SpeciesMention is nil for family 2 cases, where the species was
	// inferred rather than locally mentioned.
	SpeciesMention *Mention
	GeneMention    Mention
	TraitMention   Mention

	// SpeciesID is the resolved species: the mention's entity for family 1,
	// the inferred species for family 2.
	SpeciesID string

	Case CaseType

	// Score is the per-evidence score: the case weight discounted by the
	// paragraph's ambiguity.
	Score int
}

// Key returns the canonical triple the classification resolves to.
func (c CaseClassification) Key() TripleKey {
	return TripleKey{
		SpeciesID: c.SpeciesID,
		GeneID:    c.GeneMention.EntityID,
		TraitID:   c.TraitMention.EntityID,
	}
}

// Evidence is one classified occurrence supporting an association, with full
// provenance back to its source document, paragraph, and mentions. Immutable
// once created.
type Evidence struct {
	ID            uuid.UUID `json:"id" yaml:"id"`
	AssociationID uuid.UUID `json:"association_id" yaml:"association_id"`

	DocumentID  string `json:"document_id" yaml:"document_id"`
	ParagraphID string `json:"paragraph_id" yaml:"paragraph_id"`

	// SpeciesMention is nil when the species was inferred (family 2).
	SpeciesMention *Mention `json:"species_mention,omitempty" yaml:"species_mention,omitempty"`
	GeneMention    Mention  `json:"gene_mention" yaml:"gene_mention"`
	TraitMention   Mention  `json:"trait_mention" yaml:"trait_mention"`

	// TraitSurface is the trait text as matched in the paragraph.
	TraitSurface string `json:"trait_surface" yaml:"trait_surface"`

	Case  CaseType `json:"case" yaml:"case"`
	Score int      `json:"score" yaml:"score"`
}

// Association is a canonical (species, gene, trait) fact backed by one or
// more evidence rows. Native associations come from the corpus pass; derived
// ones from orthology transfer. The evidence list is append-only and Score is
// always recomputable from it.
type Association struct {
	ID  uuid.UUID `json:"id" yaml:"id"`
	Key TripleKey `json:"key" yaml:"key"`

	Evidence []Evidence `json:"evidence" yaml:"evidence"`

	// Score is the aggregate over the evidence set for native associations,
	// or the discounted source score for orthology-derived ones.
	Score float64 `json:"score" yaml:"score"`

	// OrthologyDerived marks associations produced by the transfer engine.
	OrthologyDerived bool `json:"orthology_derived" yaml:"orthology_derived"`

	// SourceID references the native association a derived one was
	// transferred from. Zero for native associations.
	SourceID uuid.UUID `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	// Relations is the orthology relation path traversed, derived only.
	Relations []RelationType `json:"relations,omitempty" yaml:"relations,omitempty"`
}

// DistinctDocuments counts the documents contributing evidence.
func (a Association) DistinctDocuments() int {
	seen := make(map[string]struct{}, len(a.Evidence))
	for _, ev := range a.Evidence {
		seen[ev.DocumentID] = struct{}{}
	}
	return len(seen)
}
