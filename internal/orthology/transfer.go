// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orthology

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sctrait/trait-engine/pkg/types"
)

// Engine expands native associations into ortholog species. Expansion is
// read-only over the graph snapshot and runs per source association in
// parallel; de-duplication happens in a single reduction afterwards.
type Engine struct {
	cfg    types.TransferConfig
	graph  *Graph
	logger *zap.Logger
}

// NewEngine builds a transfer engine over an immutable graph snapshot.
func NewEngine(cfg types.TransferConfig, graph *Graph, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, graph: graph, logger: logger}, nil
}

// candidate is one reachable (species, gene) target for a source trait.
type candidate struct {
	key       types.TripleKey
	score     float64
	hops      int
	relations []types.RelationType
	source    *types.Association
}

// Transfer expands every native association that passes the prefilter and
// returns the orthology-derived association set, deduplicated by target
// triple. Derived associations never feed back into expansion, so the path
// length from a native triple is bounded by MaxOrthoLinks regardless of
// graph shape.
func (e *Engine) Transfer(ctx context.Context, natives []types.Association, prefilter types.ClassThresholds) ([]types.Association, error) {
	if err := prefilter.Validate(); err != nil {
		return nil, err
	}
	if e.cfg.MaxOrthoLinks == 0 || len(natives) == 0 {
		return nil, nil
	}

	// Native triples stay canonical: a transfer may not shadow an asserted one.
	nativeKeys := make(map[types.TripleKey]struct{}, len(natives))
	for i := range natives {
		nativeKeys[natives[i].Key] = struct{}{}
	}

	ch := make(chan []candidate, len(natives))
	var wg sync.WaitGroup

	for i := range natives {
		src := &natives[i]
		if src.OrthologyDerived {
			continue
		}
		if len(src.Evidence) < prefilter.MinOccurrence || src.Score < prefilter.MinScore {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch <- e.expand(src)
		}()
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	best := make(map[types.TripleKey]candidate)
	for cands := range ch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, c := range cands {
			if _, native := nativeKeys[c.key]; native {
				continue
			}
			cur, ok := best[c.key]
			if !ok || better(c, cur) {
				best[c.key] = c
			}
		}
	}

	out := make([]types.Association, 0, len(best))
	for _, c := range best {
		out = append(out, types.Association{
			ID:               uuid.New(),
			Key:              c.key,
			Evidence:         c.source.Evidence,
			Score:            c.score,
			OrthologyDerived: true,
			SourceID:         c.source.ID,
			Relations:        c.relations,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.Less(out[j].Key)
	})
	return out, nil
}

// better orders competing paths to the same target: highest score wins, then
// the shorter path, then the lexically smaller source triple. Scores are
// never summed across paths; orthology fan-out must not inflate confidence.
func better(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.hops != b.hops {
		return a.hops < b.hops
	}
	return a.source.Key.String() < b.source.Key.String()
}

type reach struct {
	score     float64
	hops      int
	relations []types.RelationType
}

// betterReach orders competing reaches of one node: highest score, then the
// shorter path, then the lexicographically smaller relation sequence. The
// last rule keeps the surviving relation path independent of map iteration
// order when two paths tie on score and length.
func betterReach(a, b reach) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.hops != b.hops {
		return a.hops < b.hops
	}
	return lessRelations(a.relations, b.relations)
}

func lessRelations(a, b []types.RelationType) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// expand walks outward from the source gene for up to MaxOrthoLinks hops.
// Termination is purely the hop bound; cycles just waste a hop. Within one
// expansion only the best reach per node is carried forward, which is safe
// because retention factors never exceed one.
func (e *Engine) expand(src *types.Association) []candidate {
	origin := node{species: src.Key.SpeciesID, gene: src.Key.GeneID}
	frontier := map[node]reach{origin: {score: src.Score}}
	bestReach := make(map[node]reach)

	for hop := 1; hop <= e.cfg.MaxOrthoLinks; hop++ {
		next := make(map[node]reach)
		for n, r := range frontier {
			for _, edge := range e.graph.EdgesFrom(n.species, n.gene) {
				target := node{species: edge.OrthoSpecies, gene: edge.OrthoGene}
				if target == origin {
					continue
				}
				score := r.score * e.cfg.RetentionFor(edge.Relation)
				if score <= 0 {
					continue
				}
				relations := append(append([]types.RelationType{}, r.relations...), edge.Relation)
				nr := reach{score: score, hops: hop, relations: relations}

				if cur, ok := next[target]; !ok || betterReach(nr, cur) {
					next[target] = nr
				}
			}
		}

		for n, r := range next {
			cur, ok := bestReach[n]
			if !ok || betterReach(r, cur) {
				bestReach[n] = r
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	cands := make([]candidate, 0, len(bestReach))
	for n, r := range bestReach {
		cands = append(cands, candidate{
			key:       types.TripleKey{SpeciesID: n.species, GeneID: n.gene, TraitID: src.Key.TraitID},
			score:     r.score,
			hops:      r.hops,
			relations: r.relations,
			source:    src,
		})
	}
	return cands
}
