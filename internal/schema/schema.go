// Package schema describes the configuration keys a backend may write: one
// schema id, one path, and the declared kind of every key under it.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/mkdgcheck/internal/value"
)

//go:embed default.yaml
var defaultSchema []byte

// Key is one entry of a schema. Scenario names the round-trip scenario that
// exercises the key; keys without one are writable but not tested.
type Key struct {
	Name     string     `yaml:"name"`
	Kind     value.Kind `yaml:"type"`
	Scenario string     `yaml:"scenario,omitempty"`
}

type Schema struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
	Keys []Key  `yaml:"keys"`
}

// Default returns the embedded ibus-chewing fixture.
func Default() (*Schema, error) {
	return Parse(defaultSchema)
}

// Load reads a schema document from path. An empty path yields Default.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a YAML schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the schema is addressable and key names are unique.
func (s *Schema) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("schema id is empty"))
	}
	if !strings.HasPrefix(s.Path, "/") || !strings.HasSuffix(s.Path, "/") {
		errs = append(errs, fmt.Errorf("schema path %q must start and end with '/'", s.Path))
	}
	seen := make(map[string]bool, len(s.Keys))
	for i, k := range s.Keys {
		if k.Name == "" {
			errs = append(errs, fmt.Errorf("key %d has no name", i))
			continue
		}
		if seen[k.Name] {
			errs = append(errs, fmt.Errorf("duplicate key %q", k.Name))
		}
		seen[k.Name] = true
		if k.Kind == value.Invalid {
			errs = append(errs, fmt.Errorf("key %q has no type", k.Name))
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the key named name.
func (s *Schema) Lookup(name string) (Key, bool) {
	for _, k := range s.Keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// Dir returns the schema path without its trailing slash.
func (s *Schema) Dir() string {
	return strings.TrimSuffix(s.Path, "/")
}
