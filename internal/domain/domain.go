package domain

import (
	"fmt"
	"path/filepath"
)

// FieldKind describes the value shape of a metadata schema field.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextList FieldKind = "text_list"
)

// Schema maps metadata attribute names to their expected value kind.
// Attributes outside the schema are dropped at the extraction boundary.
type Schema map[string]FieldKind

// Collections names the three similarity collections of a domain.
type Collections struct {
	Text  string
	Image string
	Table string
}

// EmbedModels names the embedding model used per modality.
type EmbedModels struct {
	Text  string
	Image string
	Table string
}

// ObjectDirs holds the on-disk directories for rendered media assets.
type ObjectDirs struct {
	Image string
	Table string
}

// Prompts holds the domain-specific prompt text used by extraction and
// answer composition. The templates are complete prompts; callers append
// the source text.
type Prompts struct {
	DocMeta      string
	QueryMeta    string
	AnswerHeader string
}

// Config describes one content domain. It is built once at startup and
// never mutated afterwards.
type Config struct {
	Name              string
	Collections       Collections
	EmbedModels       EmbedModels
	ObjectDirs        ObjectDirs
	Schema            Schema
	AllowedFilterKeys []string
	Prompts           Prompts
}

// Registry is an immutable lookup table of domain configurations.
type Registry struct {
	domains map[string]*Config
	names   []string
}

// NewRegistry builds a registry from the given configs. Duplicate names
// are a programming error.
func NewRegistry(configs ...*Config) (*Registry, error) {
	r := &Registry{domains: make(map[string]*Config, len(configs))}
	for _, c := range configs {
		if _, ok := r.domains[c.Name]; ok {
			return nil, fmt.Errorf("duplicate domain %q", c.Name)
		}
		r.domains[c.Name] = c
		r.names = append(r.names, c.Name)
	}
	return r, nil
}

// Lookup returns the config for the given domain name.
func (r *Registry) Lookup(name string) (*Config, bool) {
	c, ok := r.domains[name]
	return c, ok
}

// Names returns the configured domain names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// objectDirs builds the per-domain media directories under dataDir.
func objectDirs(dataDir, name string) ObjectDirs {
	return ObjectDirs{
		Image: filepath.Join(dataDir, "object_store", name, "images"),
		Table: filepath.Join(dataDir, "object_store", name, "tables"),
	}
}
