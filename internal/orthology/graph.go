// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orthology propagates asserted associations to orthologous genes
// and species along a bounded-distance orthology graph.
package orthology

import (
	"go.uber.org/zap"

	"github.com/sctrait/trait-engine/pkg/types"
)

type node struct {
	species string
	gene    string
}

// Graph is an immutable snapshot of the orthology edge set, indexed by
// (species, gene). Traversals only read it, so it is safe to share across
// parallel expansions.
type Graph struct {
	edges map[node][]types.OrthologyEdge
	count int
}

// NewGraph indexes the edge set. Incomplete edges (missing a species or gene
// on either end) are skipped with a warning; the rest of the graph loads.
func NewGraph(edges []types.OrthologyEdge, logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Graph{edges: make(map[node][]types.OrthologyEdge)}
	for _, e := range edges {
		if !e.Complete() {
			logger.Warn("skipping incomplete orthology edge",
				zap.String("query_species", e.QuerySpecies),
				zap.String("query_gene", e.QueryGene),
				zap.String("ortho_species", e.OrthoSpecies),
				zap.String("ortho_gene", e.OrthoGene))
			continue
		}
		if !e.Relation.Valid() {
			logger.Warn("skipping orthology edge with unknown relation",
				zap.String("relation", string(e.Relation)),
				zap.String("query_gene", e.QueryGene))
			continue
		}
		k := node{species: e.QuerySpecies, gene: e.QueryGene}
		g.edges[k] = append(g.edges[k], e)
		g.count++
	}
	return g
}

// EdgesFrom returns the outgoing edges of a gene in a species. A gene
// without edges returns nil, which simply ends the traversal there.
func (g *Graph) EdgesFrom(species, gene string) []types.OrthologyEdge {
	return g.edges[node{species: species, gene: gene}]
}

// Len returns the number of indexed edges.
func (g *Graph) Len() int {
	return g.count
}
