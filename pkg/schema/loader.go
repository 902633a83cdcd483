package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileElement is the YAML shape of one element entry.
type fileElement struct {
	Array bool   `yaml:"array"`
	Type  string `yaml:"type"`
}

// schemaFile is the YAML shape of a schema definition file:
//
//	Patient:
//	  name: {array: true, type: HumanName}
//	  name.given: {array: true, type: string}
type schemaFile map[string]map[string]fileElement

// LoadFile reads a YAML schema definition and returns a provider over it.
// Resource names are normalized to UpperCamelCase on load.
func LoadFile(path string) (*MapProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML schema bytes into a provider.
func Parse(data []byte) (*MapProvider, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}

	elements := make(map[string]map[string]ElementInfo, len(sf))
	for resource, paths := range sf {
		table := make(map[string]ElementInfo, len(paths))
		for path, el := range paths {
			table[path] = ElementInfo{Array: el.Array, Type: el.Type}
		}
		elements[NormalizeResource(resource)] = table
	}
	return NewMapProvider(elements), nil
}
