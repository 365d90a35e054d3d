// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the annotated corpus, the orthology edge set, and
// the mined associations in a SQLite database. It is the contract between
// the external collaborators (annotation and orthology importers) and the
// pipeline stages, which each read and write through it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sctrait/trait-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "trait.db"
)

// Store manages the trait-engine SQLite database.
type Store struct {
	db *sql.DB
}

// New opens or creates the database at dataDir/index/trait.db and creates
// the schema if it does not exist.
func New(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT,
			year INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS paragraphs (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id),
			section TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mentions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paragraph_id TEXT NOT NULL REFERENCES paragraphs(id),
			kind TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			surface TEXT,
			offset INTEGER NOT NULL,
			length INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_paragraph ON mentions(paragraph_id)`,
		`CREATE TABLE IF NOT EXISTS gene_catalog (
			gene_id TEXT PRIMARY KEY,
			species_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orthology_edges (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			query_species TEXT NOT NULL,
			query_gene TEXT NOT NULL,
			ortho_species TEXT NOT NULL,
			ortho_gene TEXT NOT NULL,
			relation TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_query ON orthology_edges(query_species, query_gene)`,
		`CREATE TABLE IF NOT EXISTS associations (
			id TEXT PRIMARY KEY,
			species_id TEXT NOT NULL,
			gene_id TEXT NOT NULL,
			trait_id TEXT NOT NULL,
			score REAL NOT NULL,
			orthology_derived INTEGER NOT NULL DEFAULT 0,
			source_id TEXT,
			relation_path TEXT,
			UNIQUE(species_id, gene_id, trait_id)
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			id TEXT PRIMARY KEY,
			association_id TEXT NOT NULL REFERENCES associations(id),
			document_id TEXT NOT NULL,
			paragraph_id TEXT NOT NULL,
			case_type TEXT NOT NULL,
			score INTEGER NOT NULL,
			gene_entity TEXT NOT NULL,
			gene_surface TEXT,
			gene_offset INTEGER NOT NULL,
			gene_length INTEGER NOT NULL,
			trait_entity TEXT NOT NULL,
			trait_surface TEXT,
			trait_offset INTEGER NOT NULL,
			trait_length INTEGER NOT NULL,
			species_entity TEXT,
			species_offset INTEGER,
			species_length INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_association ON evidence(association_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ReplaceCorpus clears the stored corpus and writes the provided one.
func (s *Store) ReplaceCorpus(ctx context.Context, corpus types.Corpus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM mentions`, `DELETE FROM paragraphs`, `DELETE FROM documents`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing corpus: %w", err)
		}
	}

	docStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, title, year) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer docStmt.Close()

	parStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO paragraphs (id, document_id, section) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing paragraph insert: %w", err)
	}
	defer parStmt.Close()

	menStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mentions (paragraph_id, kind, entity_id, surface, offset, length)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing mention insert: %w", err)
	}
	defer menStmt.Close()

	for _, doc := range corpus.Documents {
		if _, err := docStmt.ExecContext(ctx, doc.ID, doc.Title, doc.Year); err != nil {
			return fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}
		for _, p := range doc.Paragraphs {
			if _, err := parStmt.ExecContext(ctx, p.ID, doc.ID, string(p.Section)); err != nil {
				return fmt.Errorf("inserting paragraph %s: %w", p.ID, err)
			}
			for _, m := range p.Mentions {
				if _, err := menStmt.ExecContext(ctx,
					p.ID, string(m.Kind), m.EntityID, m.Surface, m.Offset, m.Length); err != nil {
					return fmt.Errorf("inserting mention in %s: %w", p.ID, err)
				}
			}
		}
	}

	return tx.Commit()
}

// LoadCorpus reads the full corpus in a stable order: documents, paragraphs,
// and mentions each sorted by id and offset.
func (s *Store) LoadCorpus(ctx context.Context) (types.Corpus, error) {
	var corpus types.Corpus

	docRows, err := s.db.QueryContext(ctx,
		`SELECT id, title, year FROM documents ORDER BY id`)
	if err != nil {
		return corpus, fmt.Errorf("querying documents: %w", err)
	}
	defer docRows.Close()

	byID := make(map[string]*types.Document)
	var order []string
	for docRows.Next() {
		var d types.Document
		var title sql.NullString
		if err := docRows.Scan(&d.ID, &title, &d.Year); err != nil {
			return corpus, fmt.Errorf("scanning document: %w", err)
		}
		d.Title = title.String
		byID[d.ID] = &d
		order = append(order, d.ID)
	}
	if err := docRows.Err(); err != nil {
		return corpus, err
	}

	parRows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.document_id, p.section,
			m.kind, m.entity_id, m.surface, m.offset, m.length
		 FROM paragraphs p
		 LEFT JOIN mentions m ON m.paragraph_id = p.id
		 ORDER BY p.document_id, p.id, m.offset, m.entity_id`)
	if err != nil {
		return corpus, fmt.Errorf("querying paragraphs: %w", err)
	}
	defer parRows.Close()

	paragraphs := make(map[string]*types.Paragraph)
	for parRows.Next() {
		var (
			parID, docID, section string
			kind, entity, surface sql.NullString
			offset, length        sql.NullInt64
		)
		if err := parRows.Scan(&parID, &docID, &section, &kind, &entity, &surface, &offset, &length); err != nil {
			return corpus, fmt.Errorf("scanning paragraph: %w", err)
		}

		p, ok := paragraphs[parID]
		if !ok {
			doc, found := byID[docID]
			if !found {
				return corpus, fmt.Errorf("paragraph %s references unknown document %s", parID, docID)
			}
			doc.Paragraphs = append(doc.Paragraphs, types.Paragraph{
				ID:         parID,
				DocumentID: docID,
				Section:    types.SectionType(section),
			})
			p = &doc.Paragraphs[len(doc.Paragraphs)-1]
			paragraphs[parID] = p
		}

		if kind.Valid {
			p.Mentions = append(p.Mentions, types.Mention{
				ParagraphID: parID,
				Kind:        types.MentionKind(kind.String),
				EntityID:    entity.String,
				Surface:     surface.String,
				Offset:      int(offset.Int64),
				Length:      int(length.Int64),
			})
		}
	}
	if err := parRows.Err(); err != nil {
		return corpus, err
	}

	for _, id := range order {
		corpus.Documents = append(corpus.Documents, *byID[id])
	}
	return corpus, nil
}

// ReplaceCatalog clears and rewrites the gene catalog.
func (s *Store) ReplaceCatalog(ctx context.Context, catalog types.MapCatalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM gene_catalog`); err != nil {
		return fmt.Errorf("clearing gene catalog: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO gene_catalog (gene_id, species_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing catalog insert: %w", err)
	}
	defer stmt.Close()

	for gene, species := range catalog {
		if _, err := stmt.ExecContext(ctx, gene, species); err != nil {
			return fmt.Errorf("inserting catalog entry %s: %w", gene, err)
		}
	}
	return tx.Commit()
}

// LoadCatalog reads the gene catalog.
func (s *Store) LoadCatalog(ctx context.Context) (types.MapCatalog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT gene_id, species_id FROM gene_catalog`)
	if err != nil {
		return nil, fmt.Errorf("querying gene catalog: %w", err)
	}
	defer rows.Close()

	catalog := make(types.MapCatalog)
	for rows.Next() {
		var gene, species string
		if err := rows.Scan(&gene, &species); err != nil {
			return nil, fmt.Errorf("scanning catalog entry: %w", err)
		}
		catalog[gene] = species
	}
	return catalog, rows.Err()
}

// ReplaceOrthology clears and rewrites the orthology edge set.
func (s *Store) ReplaceOrthology(ctx context.Context, edges []types.OrthologyEdge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orthology_edges`); err != nil {
		return fmt.Errorf("clearing orthology edges: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO orthology_edges (query_species, query_gene, ortho_species, ortho_gene, relation)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx,
			e.QuerySpecies, e.QueryGene, e.OrthoSpecies, e.OrthoGene, string(e.Relation)); err != nil {
			return fmt.Errorf("inserting edge %s/%s: %w", e.QuerySpecies, e.QueryGene, err)
		}
	}
	return tx.Commit()
}

// LoadOrthology reads the orthology edge set in insertion order.
func (s *Store) LoadOrthology(ctx context.Context) ([]types.OrthologyEdge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query_species, query_gene, ortho_species, ortho_gene, relation
		 FROM orthology_edges ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying orthology edges: %w", err)
	}
	defer rows.Close()

	var edges []types.OrthologyEdge
	for rows.Next() {
		var e types.OrthologyEdge
		var rel string
		if err := rows.Scan(&e.QuerySpecies, &e.QueryGene, &e.OrthoSpecies, &e.OrthoGene, &rel); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.Relation = types.RelationType(rel)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
