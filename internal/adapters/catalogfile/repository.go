// Package catalogfile reads a transit catalog from a YAML document.
package catalogfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/stopmap/internal/core/domain"
)

// Repository implements ports.CatalogRepository over a file on disk.
type Repository struct {
	path string
}

// NewRepository returns a repository reading path on every load.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// LoadCatalog reads and validates the catalog file.
func (r *Repository) LoadCatalog(_ context.Context) (*domain.CatalogSnapshot, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	snap, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	return snap, nil
}

// Decode parses a YAML (or JSON) catalog and validates every route, pattern
// and stop.
func Decode(rd io.Reader) (*domain.CatalogSnapshot, error) {
	var snap domain.CatalogSnapshot
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return &snap, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	v := validator.New()
	if err := v.Struct(snap); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return &snap, nil
}
