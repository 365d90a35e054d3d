// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RelationType classifies an orthology edge by how the relationship was
// established. It determines how much confidence a transferred association
// retains.
type RelationType string

const (
	// RelationOneToOne is an unambiguous ortholog pair.
	RelationOneToOne RelationType = "one-to-one"
	// RelationOneToMany is an ortholog with paralog fan-out on one side.
	RelationOneToMany RelationType = "one-to-many"
	// RelationFamily is membership in the same orthologous gene family.
	RelationFamily RelationType = "family"
)

// Valid reports whether r is a known relation type.
func (r RelationType) Valid() bool {
	switch r {
	case RelationOneToOne, RelationOneToMany, RelationFamily:
		return true
	}
	return false
}

// DefaultRetention maps each relation type to the fraction of the source
// score a transfer across one such edge retains. Tighter relations retain
// more. Overridable per run via TransferConfig.
func DefaultRetention() map[RelationType]float64 {
	return map[RelationType]float64{
		RelationOneToOne:  0.9,
		RelationOneToMany: 0.75,
		RelationFamily:    0.6,
	}
}

// OrthologyEdge links a gene in one species to an ortholog in another.
// Read-only input supplied by the orthology-import collaborator.
type OrthologyEdge struct {
	QuerySpecies string       `json:"query_species" yaml:"query_species"`
	QueryGene    string       `json:"query_gene" yaml:"query_gene"`
	OrthoSpecies string       `json:"ortho_species" yaml:"ortho_species"`
	OrthoGene    string       `json:"ortho_gene" yaml:"ortho_gene"`
	Relation     RelationType `json:"relation" yaml:"relation"`
}

// Complete reports whether the edge names both endpoints. Incomplete edges
// are skipped during traversal rather than failing the run.
func (e OrthologyEdge) Complete() bool {
	return e.QuerySpecies != "" && e.QueryGene != "" && e.OrthoSpecies != "" && e.OrthoGene != ""
}
