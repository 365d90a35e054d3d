// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sctrait/trait-engine/pkg/types"
)

// ReplaceAssociations clears one class of associations (native or derived)
// and writes the provided set. Evidence rows are persisted only for native
// associations; derived ones reference their source and rehydrate its
// evidence on load, keeping each evidence row owned by exactly one
// association. Replacing the native class drops the derived class with it:
// derived rows reference native ids, so a fresh mining run invalidates them
// until transfer is rerun.
func (s *Store) ReplaceAssociations(ctx context.Context, derived bool, assocs []types.Association) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	flag := 0
	if derived {
		flag = 1
	}
	if derived {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM associations WHERE orthology_derived = 1`); err != nil {
			return fmt.Errorf("clearing associations: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `DELETE FROM evidence`); err != nil {
			return fmt.Errorf("clearing evidence: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM associations`); err != nil {
			return fmt.Errorf("clearing associations: %w", err)
		}
	}

	assocStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO associations (id, species_id, gene_id, trait_id, score, orthology_derived, source_id, relation_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing association insert: %w", err)
	}
	defer assocStmt.Close()

	evStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO evidence (id, association_id, document_id, paragraph_id, case_type, score,
			gene_entity, gene_surface, gene_offset, gene_length,
			trait_entity, trait_surface, trait_offset, trait_length,
			species_entity, species_offset, species_length)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing evidence insert: %w", err)
	}
	defer evStmt.Close()

	for _, a := range assocs {
		if a.OrthologyDerived != derived {
			return fmt.Errorf("association %s has class %v, expected %v", a.Key, a.OrthologyDerived, derived)
		}
		if !derived && len(a.Evidence) == 0 {
			return fmt.Errorf("association %s has no evidence", a.Key)
		}

		var sourceID any
		if a.SourceID != uuid.Nil {
			sourceID = a.SourceID.String()
		}
		if _, err := assocStmt.ExecContext(ctx,
			a.ID.String(), a.Key.SpeciesID, a.Key.GeneID, a.Key.TraitID,
			a.Score, flag, sourceID, joinRelations(a.Relations)); err != nil {
			return fmt.Errorf("inserting association %s: %w", a.Key, err)
		}

		if derived {
			continue
		}
		for _, ev := range a.Evidence {
			var specEntity, specOffset, specLength any
			if ev.SpeciesMention != nil {
				specEntity = ev.SpeciesMention.EntityID
				specOffset = ev.SpeciesMention.Offset
				specLength = ev.SpeciesMention.Length
			}
			if _, err := evStmt.ExecContext(ctx,
				ev.ID.String(), a.ID.String(), ev.DocumentID, ev.ParagraphID,
				string(ev.Case), ev.Score,
				ev.GeneMention.EntityID, ev.GeneMention.Surface, ev.GeneMention.Offset, ev.GeneMention.Length,
				ev.TraitMention.EntityID, ev.TraitSurface, ev.TraitMention.Offset, ev.TraitMention.Length,
				specEntity, specOffset, specLength); err != nil {
				return fmt.Errorf("inserting evidence for %s: %w", a.Key, err)
			}
		}
	}

	return tx.Commit()
}

// LoadAssociations reads the full association set with evidence, native
// first within the (species, gene, trait) order. Derived associations carry
// their source's evidence.
func (s *Store) LoadAssociations(ctx context.Context) ([]types.Association, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, species_id, gene_id, trait_id, score, orthology_derived, source_id, relation_path
		 FROM associations ORDER BY species_id, gene_id, trait_id`)
	if err != nil {
		return nil, fmt.Errorf("querying associations: %w", err)
	}
	defer rows.Close()

	var assocs []types.Association
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			a         types.Association
			id        string
			derived   int
			sourceID  sql.NullString
			relations sql.NullString
		)
		if err := rows.Scan(&id, &a.Key.SpeciesID, &a.Key.GeneID, &a.Key.TraitID,
			&a.Score, &derived, &sourceID, &relations); err != nil {
			return nil, fmt.Errorf("scanning association: %w", err)
		}
		a.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parsing association id %q: %w", id, err)
		}
		a.OrthologyDerived = derived == 1
		if sourceID.Valid {
			a.SourceID, err = uuid.Parse(sourceID.String)
			if err != nil {
				return nil, fmt.Errorf("parsing source id %q: %w", sourceID.String, err)
			}
		}
		a.Relations = splitRelations(relations.String)

		index[a.ID] = len(assocs)
		assocs = append(assocs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadEvidence(ctx, assocs, index); err != nil {
		return nil, err
	}

	// Rehydrate derived associations from their source's evidence.
	for i := range assocs {
		a := &assocs[i]
		if !a.OrthologyDerived {
			continue
		}
		srcIdx, ok := index[a.SourceID]
		if !ok {
			return nil, fmt.Errorf("derived association %s references unknown source %s", a.Key, a.SourceID)
		}
		if assocs[srcIdx].OrthologyDerived {
			return nil, fmt.Errorf("derived association %s chains onto derived source %s", a.Key, assocs[srcIdx].Key)
		}
		a.Evidence = assocs[srcIdx].Evidence
	}

	return assocs, nil
}

func (s *Store) loadEvidence(ctx context.Context, assocs []types.Association, index map[uuid.UUID]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, association_id, document_id, paragraph_id, case_type, score,
			gene_entity, gene_surface, gene_offset, gene_length,
			trait_entity, trait_surface, trait_offset, trait_length,
			species_entity, species_offset, species_length
		 FROM evidence
		 ORDER BY document_id, paragraph_id, gene_offset, trait_offset, case_type`)
	if err != nil {
		return fmt.Errorf("querying evidence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ev                   types.Evidence
			id, assocID, caseStr string
			geneSurface          sql.NullString
			traitSurface         sql.NullString
			specEntity           sql.NullString
			specOffset           sql.NullInt64
			specLength           sql.NullInt64
		)
		if err := rows.Scan(&id, &assocID, &ev.DocumentID, &ev.ParagraphID, &caseStr, &ev.Score,
			&ev.GeneMention.EntityID, &geneSurface, &ev.GeneMention.Offset, &ev.GeneMention.Length,
			&ev.TraitMention.EntityID, &traitSurface, &ev.TraitMention.Offset, &ev.TraitMention.Length,
			&specEntity, &specOffset, &specLength); err != nil {
			return fmt.Errorf("scanning evidence: %w", err)
		}

		ev.ID, err = uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("parsing evidence id %q: %w", id, err)
		}
		ev.AssociationID, err = uuid.Parse(assocID)
		if err != nil {
			return fmt.Errorf("parsing evidence association id %q: %w", assocID, err)
		}
		ev.Case = types.CaseType(caseStr)
		ev.GeneMention.Kind = types.KindGene
		ev.GeneMention.ParagraphID = ev.ParagraphID
		ev.GeneMention.Surface = geneSurface.String
		ev.TraitMention.Kind = types.KindTrait
		ev.TraitMention.ParagraphID = ev.ParagraphID
		ev.TraitSurface = traitSurface.String
		ev.TraitMention.Surface = traitSurface.String
		if specEntity.Valid {
			ev.SpeciesMention = &types.Mention{
				ParagraphID: ev.ParagraphID,
				Kind:        types.KindSpecies,
				EntityID:    specEntity.String,
				Offset:      int(specOffset.Int64),
				Length:      int(specLength.Int64),
			}
		}

		idx, ok := index[ev.AssociationID]
		if !ok {
			return fmt.Errorf("evidence %s references unknown association %s", ev.ID, ev.AssociationID)
		}
		assocs[idx].Evidence = append(assocs[idx].Evidence, ev)
	}
	return rows.Err()
}

func joinRelations(relations []types.RelationType) string {
	parts := make([]string, len(relations))
	for i, r := range relations {
		parts[i] = string(r)
	}
	return strings.Join(parts, ">")
}

func splitRelations(joined string) []types.RelationType {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ">")
	relations := make([]types.RelationType, len(parts))
	for i, p := range parts {
		relations[i] = types.RelationType(p)
	}
	return relations
}
