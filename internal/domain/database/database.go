package database

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/seqclass/internal/domain"
)

// Type is the BLAST database molecule type.
type Type string

// Supported database types.
const (
	Nucleotide Type = "nucl"
	Protein    Type = "prot"
)

// IsValid reports whether t is a supported type.
func (t Type) IsValid() bool {
	return t == Nucleotide || t == Protein
}

// Database describes one local reference database.
type Database struct {
	Name  string
	FASTA string
	Path  string
	Type  Type
	Title string
}

// ReservedNameChars cannot appear in a database name. Names are embedded in
// cache keys and in SCAN match patterns.
const ReservedNameChars = ":*?[]\\"

// New creates a database descriptor. An empty path derives one from the FASTA
// file name, an empty type means nucleotide and an empty title uses the name.
func New(name, fasta, path string, typ Type, title string) (Database, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Database{}, fmt.Errorf("database name is required: %w", domain.ErrInvalidConfig)
	}
	if i := strings.IndexAny(name, ReservedNameChars); i >= 0 {
		return Database{}, fmt.Errorf("database %q: name must not contain %q: %w",
			name, name[i], domain.ErrInvalidConfig)
	}
	if typ == "" {
		typ = Nucleotide
	}
	if !typ.IsValid() {
		return Database{}, fmt.Errorf("database %q: unknown type %q: %w", name, typ, domain.ErrInvalidConfig)
	}
	if path == "" {
		if fasta == "" {
			return Database{}, fmt.Errorf("database %q: fasta or path is required: %w", name, domain.ErrInvalidConfig)
		}
		path = strings.TrimSuffix(fasta, filepath.Ext(fasta))
	}
	if title == "" {
		title = name
	}
	return Database{Name: name, FASTA: fasta, Path: path, Type: typ, Title: title}, nil
}

// Names returns database names in order.
func Names(dbs []Database) []string {
	out := make([]string, len(dbs))
	for i, d := range dbs {
		out[i] = d.Name
	}
	return out
}
