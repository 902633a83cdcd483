// Package schema provides the metadata lookup the translator consults to
// decide whether a navigation step crosses a repeating (array) field and
// what its canonical FHIR type is.
package schema

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ElementInfo describes one element path of a resource.
type ElementInfo struct {
	// Array is true when the element's declared cardinality is 0..* / 1..*.
	Array bool
	// Type is the canonical FHIR type name (string, code, date, HumanName, ...).
	Type string
}

// Provider reports cardinality and type for a resource element path.
// Implementations must be safe for concurrent use; the compiler core shares
// one provider across translations.
type Provider interface {
	// Lookup returns the element info for a dotted path relative to a
	// resource type, or ok=false when the path is not declared. Unknown
	// paths are not an error: the translator treats them as scalars.
	Lookup(resourceType, path string) (ElementInfo, bool)
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// NormalizeResource canonicalizes a resource type name ("patient" ->
// "Patient"). FHIR resource names are UpperCamelCase; user input from CLI
// flags frequently is not.
func NormalizeResource(name string) string {
	if name == "" {
		return name
	}
	return titleCaser.String(name[:1]) + name[1:]
}

// MapProvider is an in-memory Provider backed by a nested map of
// resource type -> element path -> info.
type MapProvider struct {
	elements map[string]map[string]ElementInfo
}

// NewMapProvider creates a MapProvider over the given element table.
func NewMapProvider(elements map[string]map[string]ElementInfo) *MapProvider {
	return &MapProvider{elements: elements}
}

// Lookup implements Provider.
func (p *MapProvider) Lookup(resourceType, path string) (ElementInfo, bool) {
	paths, ok := p.elements[NormalizeResource(resourceType)]
	if !ok {
		return ElementInfo{}, false
	}
	info, ok := paths[path]
	return info, ok
}

// Resources returns the resource type names known to the provider (unsorted).
func (p *MapProvider) Resources() []string {
	names := make([]string, 0, len(p.elements))
	for name := range p.elements {
		names = append(names, name)
	}
	return names
}

// Elements returns the element table for one resource type.
func (p *MapProvider) Elements(resourceType string) map[string]ElementInfo {
	return p.elements[NormalizeResource(resourceType)]
}

// Composite chains providers; the first hit wins. Used to layer a
// user-supplied schema file over the built-in R4 subset.
type Composite struct {
	providers []Provider
}

// NewComposite creates a Composite over the given providers in priority order.
func NewComposite(providers ...Provider) *Composite {
	return &Composite{providers: providers}
}

// Lookup implements Provider.
func (c *Composite) Lookup(resourceType, path string) (ElementInfo, bool) {
	for _, p := range c.providers {
		if info, ok := p.Lookup(resourceType, path); ok {
			return info, true
		}
	}
	return ElementInfo{}, false
}
