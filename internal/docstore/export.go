// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes the cached documents to dataDir/export.yaml. It
// supports the same filters as Search.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	opts.MaxResults = exportLimit
	docs, err := s.Search(ctx, opts)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	path := filepath.Join(s.dataDir, "export.yaml")
	data, err := yaml.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the cached documents to dataDir/export.json. It
// supports the same filters as Search.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	opts.MaxResults = exportLimit
	docs, err := s.Search(ctx, opts)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	path := filepath.Join(s.dataDir, "export.json")
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
