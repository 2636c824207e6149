package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Loader finds, validates and caches scenario files. Scenarios are
// YAML documents named <name>.yaml in one of the search paths.
type Loader struct {
	cache       sync.Map
	validator   *Validator
	searchPaths []string
}

func NewLoader(searchPaths []string) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
	}, nil
}

func (l *Loader) Load(name string) (*Scenario, error) {
	// Cache-Check
	if cached, ok := l.cache.Load(name); ok {
		return cached.(*Scenario), nil
	}

	var data []byte
	var err error
	var foundPath string

	for _, searchPath := range l.searchPaths {
		fullPath := filepath.Join(searchPath, name+".yaml")
		data, err = os.ReadFile(fullPath)
		if err == nil {
			foundPath = fullPath
			break
		}
	}

	if data == nil {
		return nil, fmt.Errorf("scenario not found: %s (searched in: %v)", name, l.searchPaths)
	}

	sc, err := l.parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", foundPath, err)
	}

	l.cache.Store(name, sc)

	return sc, nil
}

func (l *Loader) parse(data []byte) (*Scenario, error) {
	// Validate the generic structure first so schema errors name the
	// offending field instead of surfacing as type mismatches.
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := l.validator.Validate(doc); err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}

	return &sc, nil
}

// List returns the names of all scenario files in the search paths,
// sorted and deduplicated.
func (l *Loader) List() []string {
	seen := make(map[string]bool)
	for _, searchPath := range l.searchPaths {
		entries, err := os.ReadDir(searchPath)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if strings.HasSuffix(name, ".yaml") {
				seen[strings.TrimSuffix(name, ".yaml")] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Loader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}
