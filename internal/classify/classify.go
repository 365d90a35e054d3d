// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns relationship cases to species-gene-trait mention
// triads within annotated paragraphs. It is stateless per paragraph apart
// from document-level species context, and fully deterministic: the same
// mention set always yields the same classifications.
package classify

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sctrait/trait-engine/pkg/types"
)

// Classifier enumerates mention triads and assigns each a case from the
// nine-way taxonomy.
type Classifier struct {
	window         int
	defaultSpecies string
	catalog        types.GeneCatalog
	logger         *zap.Logger
}

// New builds a Classifier. catalog may be nil when no gene catalog is
// available; the catalog inference rule is then skipped.
func New(cfg types.MineConfig, catalog types.GeneCatalog, logger *zap.Logger) *Classifier {
	cfg.Normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		window:         cfg.ProximityWindow,
		defaultSpecies: cfg.DefaultSpeciesID,
		catalog:        catalog,
		logger:         logger,
	}
}

// DocContext carries the document-level species signals used to infer a
// species for paragraphs that mention none. Computed once per document.
type DocContext struct {
	DocumentID string

	// TitleSpecies is set when the document title mentions exactly one
	// distinct species.
	TitleSpecies string

	// DominantSpecies is the most-mentioned species across the document.
	// Ties resolve to the smallest entity id.
	DominantSpecies string
}

// Context derives the DocContext for a document.
func (c *Classifier) Context(doc types.Document) DocContext {
	dc := DocContext{DocumentID: doc.ID}

	titleSpecies := make(map[string]struct{})
	counts := make(map[string]int)
	for _, p := range doc.Paragraphs {
		for _, m := range p.Mentions {
			if m.Kind != types.KindSpecies || m.EntityID == "" {
				continue
			}
			counts[m.EntityID]++
			if p.Section == types.SectionTitle {
				titleSpecies[m.EntityID] = struct{}{}
			}
		}
	}

	if len(titleSpecies) == 1 {
		for id := range titleSpecies {
			dc.TitleSpecies = id
		}
	}

	best, bestCount := "", 0
	for id, n := range counts {
		if n > bestCount || (n == bestCount && (best == "" || id < best)) {
			best, bestCount = id, n
		}
	}
	dc.DominantSpecies = best

	return dc
}

// ClassifyDocument classifies every paragraph of the document.
func (c *Classifier) ClassifyDocument(doc types.Document) []types.CaseClassification {
	dc := c.Context(doc)
	var out []types.CaseClassification
	for _, p := range doc.Paragraphs {
		out = append(out, c.ClassifyParagraph(dc, p)...)
	}
	return out
}

// ClassifyParagraph produces one classification per distinct mention
// combination in the paragraph. A paragraph with several mentions of the
// same kind yields one classification each; multiplicity is resolved later
// during aggregation.
func (c *Classifier) ClassifyParagraph(dc DocContext, p types.Paragraph) []types.CaseClassification {
	genes := c.validMentions(p, types.KindGene)
	traits := c.validMentions(p, types.KindTrait)
	if len(genes) == 0 || len(traits) == 0 {
		return nil
	}
	species := c.validMentions(p, types.KindSpecies)

	factor := ambiguityFactor(genes, traits, species)
	if factor == 0 {
		return nil
	}

	var out []types.CaseClassification
	for _, g := range genes {
		for _, t := range traits {
			if len(species) > 0 {
				for i := range species {
					if cl, ok := c.classifyLocal(dc, p, g, t, &species[i], factor); ok {
						out = append(out, cl)
					}
				}
			} else if cl, ok := c.classifyInferred(dc, p, g, t, factor); ok {
				out = append(out, cl)
			}
		}
	}
	return out
}

// validMentions filters and orders the paragraph's mentions of one kind.
// Malformed mentions are skipped with a warning; the paragraph keeps
// classifying on the rest.
func (c *Classifier) validMentions(p types.Paragraph, kind types.MentionKind) []types.Mention {
	var out []types.Mention
	for _, m := range p.Mentions {
		if m.Kind != kind {
			continue
		}
		if m.EntityID == "" || m.Length <= 0 || m.Offset < 0 {
			c.logger.Warn("skipping malformed mention",
				zap.String("paragraph", p.ID),
				zap.String("kind", string(m.Kind)),
				zap.String("surface", m.Surface),
				zap.Int("offset", m.Offset))
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// classifyLocal handles family 1: the species is mentioned in the paragraph.
func (c *Classifier) classifyLocal(dc DocContext, p types.Paragraph, g, t types.Mention, s *types.Mention, factor float64) (types.CaseClassification, bool) {
	var caseType types.CaseType
	switch {
	case !c.proximal(g, t):
		caseType = types.Case1D
	case between(*s, g, t):
		caseType = types.Case1C
	case g.Offset <= t.Offset:
		caseType = types.Case1A
	default:
		caseType = types.Case1B
	}

	return c.build(dc, p, g, t, s, s.EntityID, caseType, factor)
}

// classifyInferred handles family 2: no species mention in the paragraph,
// the species comes from context. Rule precedence: gene catalog, document
// title, dominant document species, configured default organism.
func (c *Classifier) classifyInferred(dc DocContext, p types.Paragraph, g, t types.Mention, factor float64) (types.CaseClassification, bool) {
	prox := c.proximal(g, t)

	var (
		speciesID string
		caseType  types.CaseType
	)
	switch {
	case c.catalogSpecies(g) != "":
		speciesID = c.catalogSpecies(g)
		caseType = pick(prox, types.Case2A)
	case dc.TitleSpecies != "":
		speciesID = dc.TitleSpecies
		caseType = pick(prox, types.Case2BA)
	case dc.DominantSpecies != "":
		speciesID = dc.DominantSpecies
		caseType = pick(prox, types.Case2BB)
	case c.defaultSpecies != "":
		speciesID = c.defaultSpecies
		caseType = types.Case2D
	default:
		return types.CaseClassification{}, false
	}

	return c.build(dc, p, g, t, nil, speciesID, caseType, factor)
}

func (c *Classifier) build(dc DocContext, p types.Paragraph, g, t types.Mention, s *types.Mention, speciesID string, caseType types.CaseType, factor float64) (types.CaseClassification, bool) {
	score := int(math.Round(float64(caseType.Weight()) * factor))
	if score <= 0 {
		return types.CaseClassification{}, false
	}
	return types.CaseClassification{
		DocumentID:     dc.DocumentID,
		ParagraphID:    p.ID,
		SpeciesMention: s,
		GeneMention:    g,
		TraitMention:   t,
		SpeciesID:      speciesID,
		Case:           caseType,
		Score:          score,
	}, true
}

func (c *Classifier) catalogSpecies(g types.Mention) string {
	if c.catalog == nil {
		return ""
	}
	s, _ := c.catalog.SpeciesOf(g.EntityID)
	return s
}

// pick maps a proximal pair to its family-2 sub-case and a distant pair to 2c.
func pick(proximal bool, proximalCase types.CaseType) types.CaseType {
	if proximal {
		return proximalCase
	}
	return types.Case2C
}

// proximal reports whether the rune gap between the two mentions is within
// the window. Overlapping mentions have gap zero.
func (c *Classifier) proximal(a, b types.Mention) bool {
	return gap(a, b) <= c.window
}

func gap(a, b types.Mention) int {
	if a.Offset > b.Offset {
		a, b = b, a
	}
	g := b.Offset - a.End()
	if g < 0 {
		return 0
	}
	return g
}

// between reports whether s lies entirely between the gene and trait mentions.
func between(s, g, t types.Mention) bool {
	lo, hi := g, t
	if lo.Offset > hi.Offset {
		lo, hi = hi, lo
	}
	return s.Offset >= lo.End() && s.End() <= hi.Offset
}

// ambiguityFactor discounts a paragraph by how many competing distinct ids it
// carries per kind. A paragraph with one species, one gene, and one trait
// scores 1.0; every additional distinct id of any kind costs a tenth.
func ambiguityFactor(genes, traits, species []types.Mention) float64 {
	dup := distinct(genes) - 1 + distinct(traits) - 1
	if s := distinct(species); s > 0 {
		dup += s - 1
	}
	if dup >= 10 {
		return 0
	}
	return float64(10-dup) / 10
}

func distinct(mentions []types.Mention) int {
	ids := make(map[string]struct{}, len(mentions))
	for _, m := range mentions {
		ids[m.EntityID] = struct{}{}
	}
	return len(ids)
}
