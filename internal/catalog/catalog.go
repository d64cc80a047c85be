// Package catalog serves the read-only endpoint documentation for the
// Functions and Secrets APIs, plus the static Introduction, Authentication and
// Errors topics.
//
// The endpoint fixture is YAML validated against a JSON schema when loaded.
// A Catalog is immutable after loading; every lookup returns copies.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/fnconsole/internal/errors"
)

//go:embed data/endpoints.yaml data/endpoints.schema.json data/topics/*.md
var data embed.FS

// Categories of endpoints.
const (
	CategoryFunctions = "functions"
	CategorySecrets   = "secrets"
)

// Parameter documents one request parameter.
type Parameter struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Required    bool   `yaml:"required" json:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Responses holds example response bodies.
type Responses struct {
	Success string `yaml:"success,omitempty" json:"success,omitempty"`
	Error   string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Endpoint describes one API endpoint.
type Endpoint struct {
	ID          string            `yaml:"id" json:"id"`
	Method      string            `yaml:"method" json:"method"`
	Path        string            `yaml:"path" json:"path"`
	Description string            `yaml:"description" json:"description"`
	Parameters  []Parameter       `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Examples    map[string]string `yaml:"examples,omitempty" json:"examples,omitempty"`
	Responses   *Responses        `yaml:"responses,omitempty" json:"responses,omitempty"`
}

var exampleOrder = map[string]int{"curl": 0, "javascript": 1, "python": 2}

// ExampleLanguages returns the languages that have examples: curl,
// javascript and python first, then any others alphabetically.
func (e Endpoint) ExampleLanguages() []string {
	langs := make([]string, 0, len(e.Examples))
	for lang := range e.Examples {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		oi, iok := exampleOrder[langs[i]]
		oj, jok := exampleOrder[langs[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		}
		return langs[i] < langs[j]
	})
	return langs
}

func (e Endpoint) clone() Endpoint {
	out := e
	if e.Parameters != nil {
		out.Parameters = append([]Parameter(nil), e.Parameters...)
	}
	if e.Examples != nil {
		out.Examples = make(map[string]string, len(e.Examples))
		for k, v := range e.Examples {
			out.Examples[k] = v
		}
	}
	if e.Responses != nil {
		r := *e.Responses
		out.Responses = &r
	}
	return out
}

type document struct {
	Functions []Endpoint `yaml:"functions"`
	Secrets   []Endpoint `yaml:"secrets"`
}

// Catalog is the loaded endpoint documentation.
type Catalog struct {
	functions []Endpoint
	secrets   []Endpoint
	topics    []Topic
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded fixture.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		doc, err := data.ReadFile("data/endpoints.yaml")
		if err != nil {
			defaultErr = err
			return
		}
		defaultCatalog, defaultErr = Load(doc)
	})
	return defaultCatalog, defaultErr
}

// LoadFile loads an endpoint fixture from path, validated against the
// embedded schema. Topics are always the embedded ones.
func LoadFile(path string) (*Catalog, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, dserrors.UserError{
			Message:    "Failed to read documentation fixture",
			Details:    err.Error(),
			Suggestion: "Check docs.fixture in your configuration",
			Err:        err,
		}
	}
	return Load(doc)
}

// Load parses and validates an endpoint fixture.
func Load(doc []byte) (*Catalog, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}

	var d document
	if err := yaml.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("failed to parse endpoint fixture: %w", err)
	}

	seen := make(map[string]bool)
	for _, ep := range append(append([]Endpoint{}, d.Functions...), d.Secrets...) {
		if seen[ep.ID] {
			return nil, fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		seen[ep.ID] = true
	}

	topics, err := loadTopics()
	if err != nil {
		return nil, err
	}

	return &Catalog{functions: d.Functions, secrets: d.Secrets, topics: topics}, nil
}

func validate(doc []byte) error {
	schema, err := data.ReadFile("data/endpoints.schema.json")
	if err != nil {
		return err
	}

	var generic interface{}
	if err := yaml.Unmarshal(doc, &generic); err != nil {
		return fmt.Errorf("failed to parse endpoint fixture: %w", err)
	}
	jsonData, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("failed to marshal endpoint fixture for validation: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	return nil
}

// Categories returns the endpoint categories in display order.
func (c *Catalog) Categories() []string {
	return []string{CategoryFunctions, CategorySecrets}
}

// ByCategory returns the endpoints of category. Unknown categories yield an
// empty slice.
func (c *Catalog) ByCategory(category string) []Endpoint {
	switch strings.ToLower(category) {
	case CategoryFunctions:
		return cloneAll(c.functions)
	case CategorySecrets:
		return cloneAll(c.secrets)
	}
	return []Endpoint{}
}

// ByID returns the endpoint with id, functions searched first.
func (c *Catalog) ByID(id string) (Endpoint, error) {
	for _, ep := range c.all() {
		if ep.ID == id {
			return ep.clone(), nil
		}
	}
	return Endpoint{}, &dserrors.NotFound{Kind: "Endpoint", ID: id}
}

// Search returns endpoints whose path, description or method contains query,
// ignoring case. An empty query matches everything.
func (c *Catalog) Search(query string) []Endpoint {
	q := strings.ToLower(query)
	out := []Endpoint{}
	for _, ep := range c.all() {
		if strings.Contains(strings.ToLower(ep.Path), q) ||
			strings.Contains(strings.ToLower(ep.Description), q) ||
			strings.Contains(strings.ToLower(ep.Method), q) {
			out = append(out, ep.clone())
		}
	}
	return out
}

func (c *Catalog) all() []Endpoint {
	all := make([]Endpoint, 0, len(c.functions)+len(c.secrets))
	all = append(all, c.functions...)
	return append(all, c.secrets...)
}

func cloneAll(eps []Endpoint) []Endpoint {
	out := make([]Endpoint, len(eps))
	for i, ep := range eps {
		out[i] = ep.clone()
	}
	return out
}
