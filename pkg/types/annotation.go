// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the trait-engine pipeline:
// annotated corpus input, classified cases, associations with evidence, and
// the orthology graph facts they are propagated along.
package types

// MentionKind identifies the entity class of a tagged mention.
type MentionKind string

const (
	KindSpecies MentionKind = "species"
	KindGene    MentionKind = "gene"
	KindTrait   MentionKind = "trait"
)

// Valid reports whether the kind is one of the three entity classes.
func (k MentionKind) Valid() bool {
	return k == KindSpecies || k == KindGene || k == KindTrait
}

// SectionType labels the part of a document a paragraph belongs to.
type SectionType string

const (
	SectionTitle    SectionType = "title"
	SectionAbstract SectionType = "abstract"
	SectionBody     SectionType = "body"
)

// Mention is a tagged occurrence of a species, gene, or trait identifier at
// a specific offset within a paragraph. Mentions are produced by the external
// annotator and are read-only here.
type Mention struct {
	// ParagraphID refers to the paragraph carrying the mention.
	ParagraphID string `json:"paragraph_id" yaml:"paragraph_id"`

	// Kind is the entity class: species, gene, or trait.
	Kind MentionKind `json:"kind" yaml:"kind"`

	// EntityID is the normalized identifier in the external catalog
	// (e.g. an NCBI tax id, gene id, or ontology term id).
	EntityID string `json:"entity_id" yaml:"entity_id"`

	// Surface is the text as it appears in the paragraph.
	Surface string `json:"surface" yaml:"surface"`

	// Offset is the rune offset of the mention within the paragraph text.
	Offset int `json:"offset" yaml:"offset"`

	// Length is the mention length in runes.
	Length int `json:"length" yaml:"length"`
}

// End returns the offset one past the last rune of the mention.
func (m Mention) End() int {
	return m.Offset + m.Length
}

// Paragraph is one unit of annotated text. The classifier never looks at the
// raw text itself, only at the mention set and offsets.
type Paragraph struct {
	ID         string      `json:"id" yaml:"id"`
	DocumentID string      `json:"document_id" yaml:"document_id"`
	Section    SectionType `json:"section" yaml:"section"`
	Mentions   []Mention   `json:"mentions" yaml:"mentions"`
}

// MentionsOf returns the paragraph's mentions of the given kind, in input order.
func (p Paragraph) MentionsOf(kind MentionKind) []Mention {
	var out []Mention
	for _, m := range p.Mentions {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Document groups the paragraphs of one source publication.
type Document struct {
	ID         string      `json:"id" yaml:"id"`
	Title      string      `json:"title,omitempty" yaml:"title,omitempty"`
	Year       int         `json:"year,omitempty" yaml:"year,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs" yaml:"paragraphs"`
}

// Corpus is the full annotated input set for one run.
type Corpus struct {
	Documents []Document `json:"documents" yaml:"documents"`
}

// GeneCatalog resolves a gene identifier to its home species. It backs the
// species-inference rules for paragraphs that mention no species locally.
type GeneCatalog interface {
	// SpeciesOf returns the species the gene belongs to, or false when the
	// catalog has no entry for it.
	SpeciesOf(geneID string) (string, bool)
}

// MapCatalog is a GeneCatalog backed by a plain map.
type MapCatalog map[string]string

// SpeciesOf implements GeneCatalog.
func (c MapCatalog) SpeciesOf(geneID string) (string, bool) {
	s, ok := c[geneID]
	return s, ok
}
