// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// DataDir is the base directory for the store (contains index/trait.db).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// MineConfig holds settings for the classification and aggregation pass.
type MineConfig struct {
	// Workers is the number of parallel classification workers (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// ProximityWindow is the maximum rune gap between a gene and a trait
	// mention for them to count as proximal (default 250).
	ProximityWindow int `json:"proximity_window" yaml:"proximity_window"`

	// DefaultSpeciesID is the model organism used as the last-resort species
	// inference for paragraphs without a species mention. Empty disables the
	// fallback.
	DefaultSpeciesID string `json:"default_species_id" yaml:"default_species_id"`
}

// Normalize fills zero values with defaults.
func (c *MineConfig) Normalize() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ProximityWindow <= 0 {
		c.ProximityWindow = 250
	}
}

// TransferConfig holds settings for orthology transfer.
type TransferConfig struct {
	// MaxOrthoLinks bounds the traversal path length from a native triple,
	// in hops. Zero disables transfer entirely.
	MaxOrthoLinks int `json:"max_ortho_links" yaml:"max_ortho_links"`

	// Retention overrides the per-relation confidence retention factors.
	// Missing relation types fall back to DefaultRetention.
	Retention map[RelationType]float64 `json:"retention,omitempty" yaml:"retention,omitempty"`
}

// RetentionFor returns the retention factor for a relation type.
func (c TransferConfig) RetentionFor(r RelationType) float64 {
	if f, ok := c.Retention[r]; ok {
		return f
	}
	return DefaultRetention()[r]
}

// Validate rejects retention factors outside [0, 1].
func (c TransferConfig) Validate() error {
	if c.MaxOrthoLinks < 0 {
		return fmt.Errorf("max_ortho_links must be >= 0, got %d", c.MaxOrthoLinks)
	}
	for r, f := range c.Retention {
		if !r.Valid() {
			return fmt.Errorf("unknown relation type %q in retention map", r)
		}
		if f < 0 || f > 1 {
			return fmt.Errorf("retention for %s must be in [0, 1], got %g", r, f)
		}
	}
	return nil
}

// ClassThresholds is one quality profile: an association passes only when it
// meets both minimums.
type ClassThresholds struct {
	// MinOccurrence is the minimum number of evidence rows.
	MinOccurrence int `json:"min_occurrence" yaml:"min_occurrence"`

	// MinScore is the minimum aggregate score.
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// Validate rejects negative thresholds before any association is evaluated.
func (t ClassThresholds) Validate() error {
	if t.MinOccurrence < 0 {
		return fmt.Errorf("min_occurrence must be >= 0, got %d", t.MinOccurrence)
	}
	if t.MinScore < 0 {
		return fmt.Errorf("min_score must be >= 0, got %g", t.MinScore)
	}
	return nil
}

// ExportConfig holds the per-class quality profiles and the output location.
type ExportConfig struct {
	// Native is the threshold profile for associations mined from text.
	Native ClassThresholds `json:"native" yaml:"native"`

	// Orthology is the, typically stricter, profile for derived associations.
	Orthology ClassThresholds `json:"orthology" yaml:"orthology"`

	// OutDir is the directory the export files are written to.
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// Validate checks both profiles.
func (c ExportConfig) Validate() error {
	if err := c.Native.Validate(); err != nil {
		return fmt.Errorf("native thresholds: %w", err)
	}
	if err := c.Orthology.Validate(); err != nil {
		return fmt.Errorf("orthology thresholds: %w", err)
	}
	return nil
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Store    StoreConfig    `json:"store" yaml:"store"`
	Mine     MineConfig     `json:"mine" yaml:"mine"`
	Transfer TransferConfig `json:"transfer" yaml:"transfer"`
	Export   ExportConfig   `json:"export" yaml:"export"`
}
