package atoms

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// catalog is the on-disk shape of an atoms catalog file.
type catalog struct {
	Atoms []*Definition `json:"atoms"`
}

// Loader reads atom catalogs from *.json files in a directory and builds
// registry snapshots.
type Loader struct {
	dir          string
	logger       zerolog.Logger
	schemaLoader gojsonschema.JSONLoader
}

// NewLoader creates a loader for the given catalog directory.
func NewLoader(dir string, logger zerolog.Logger) *Loader {
	return &Loader{
		dir:          dir,
		logger:       logger.With().Str("component", "atoms-loader").Logger(),
		schemaLoader: gojsonschema.NewStringLoader(CatalogSchema),
	}
}

// Load reads every *.json catalog under the loader's directory, in lexical
// file order, and returns a registry snapshot. Files that fail to parse or
// validate are skipped with a warning so one broken catalog cannot take down
// the rest of the registry.
func (l *Loader) Load() (*Registry, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn().Str("dir", l.dir).Msg("Atoms directory does not exist; registry is empty")
			return NewRegistry(nil), nil
		}
		return nil, fmt.Errorf("failed to read atoms directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, entry.Name()))
	}
	sort.Strings(paths)

	var defs []*Definition
	for _, path := range paths {
		fileDefs, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn().Err(err).Str("path", path).Msg("Skipping invalid atoms catalog")
			continue
		}
		defs = append(defs, fileDefs...)
	}

	registry := NewRegistry(defs)
	l.logger.Info().Int("atoms", registry.Len()).Int("catalogs", len(paths)).Msg("Loaded atoms registry")
	return registry, nil
}

// loadFile parses and schema-validates a single catalog file.
func (l *Loader) loadFile(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	result, err := gojsonschema.Validate(l.schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("catalog schema validation error: %w", err)
	}
	if !result.Valid() {
		var msg string
		for i, verr := range result.Errors() {
			if i > 0 {
				msg += "; "
			}
			msg += verr.String()
		}
		return nil, fmt.Errorf("catalog schema validation failed: %s", msg)
	}

	var cat catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}

	defs := make([]*Definition, 0, len(cat.Atoms))
	for _, def := range cat.Atoms {
		if def == nil || def.ID == "" {
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}
