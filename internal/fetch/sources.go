package fetch

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultSources []byte

// Source is a named list publication.
type Source struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
	Out         string `yaml:"out"`
	MinBytes    int64  `yaml:"min_bytes"`
}

// Catalogue is the set of known sources, keyed by lower-cased name.
type Catalogue struct {
	sources map[string]Source
}

type catalogueFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultCatalogue returns the catalogue compiled into the binary.
func DefaultCatalogue() *Catalogue {
	c, err := ParseCatalogue(defaultSources)
	if err != nil {
		panic(fmt.Sprintf("fetch: embedded sources.yaml: %v", err))
	}
	return c
}

// LoadCatalogue reads a catalogue file. An empty path returns the default.
func LoadCatalogue(path string) (*Catalogue, error) {
	if path == "" {
		return DefaultCatalogue(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load sources %s: %w", path, err)
	}
	c, err := ParseCatalogue(data)
	if err != nil {
		return nil, fmt.Errorf("load sources %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalogue decodes YAML catalogue data. Every source needs a name and
// a URL; names must be unique ignoring case.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}

	c := &Catalogue{sources: make(map[string]Source, len(file.Sources))}
	var errs []error
	for i, s := range file.Sources {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("source %d: name is required", i+1))
			continue
		case s.URL == "":
			errs = append(errs, fmt.Errorf("source %q: url is required", s.Name))
			continue
		case s.MinBytes < 0:
			errs = append(errs, fmt.Errorf("source %q: min_bytes must be >= 0", s.Name))
			continue
		}
		if _, dup := c.sources[key]; dup {
			errs = append(errs, fmt.Errorf("source %q: duplicate name", s.Name))
			continue
		}
		s.Name = key
		c.sources[key] = s
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Get returns the named source.
func (c *Catalogue) Get(name string) (Source, error) {
	s, ok := c.sources[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Source{}, fmt.Errorf("unknown source %q (known: %s)", name, strings.Join(c.Names(), ", "))
	}
	return s, nil
}

// Names returns the source names, sorted.
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every source, sorted by name.
func (c *Catalogue) All() []Source {
	out := make([]Source, 0, len(c.sources))
	for _, name := range c.Names() {
		out = append(out, c.sources[name])
	}
	return out
}
