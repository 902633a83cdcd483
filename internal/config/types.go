// Package config provides shared configuration types for fhirsql. It is
// decoupled from CLI concerns so the engine and other tools can load project
// configuration directly.
package config

import (
	"fmt"
	"strings"

	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, sqlite, snowflake

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Common
	Schema string `koanf:"schema"`

	// Snowflake-specific
	Account   string `koanf:"account"`
	Warehouse string `koanf:"warehouse"`
	Role      string `koanf:"role"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// ApplyDefaults fills in type-dependent defaults on the target.
func (t *TargetConfig) ApplyDefaults() {
	if t.Type == "" {
		t.Type = "duckdb"
	}
	if t.Port == 0 && strings.EqualFold(t.Type, "postgres") {
		t.Port = 5432
	}
	if t.Schema == "" {
		switch strings.ToLower(t.Type) {
		case "postgres", "snowflake":
			t.Schema = "public"
		default:
			t.Schema = "main"
		}
	}
}

// Validate checks the target against the dialect registry, which is the
// single source of truth for supported engines.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if _, ok := dialect.Get(strings.ToLower(t.Type)); !ok {
		return &dialect.UnknownDialectError{
			Name:      t.Type,
			Available: dialect.List(),
		}
	}
	return nil
}

// ResourceConfig maps one FHIR resource type onto a physical table.
type ResourceConfig struct {
	Table string `koanf:"table"`
}

// Config holds the full project configuration.
type Config struct {
	// ProjectRoot is set after loading; all relative paths resolve against it.
	ProjectRoot string `koanf:"-"`

	// SchemaFile optionally points at a YAML element-metadata file that
	// extends the built-in R4 definitions.
	SchemaFile string `koanf:"schema_file"`

	// DefaultResource is used when a command does not name one explicitly.
	DefaultResource string `koanf:"default_resource"`

	// Resources maps resource type to table settings. Unlisted resources use
	// the lowercased type name as table name.
	Resources map[string]ResourceConfig `koanf:"resources"`

	Target       *TargetConfig            `koanf:"target"`
	Environments map[string]*TargetConfig `koanf:"environments"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}

// Default configuration values.
const (
	DefaultResource = "Patient"
	DefaultOutput   = "auto" // auto-detect: TTY=text, non-TTY=json
)

// ApplyDefaults fills in missing top-level values.
func (c *Config) ApplyDefaults() {
	if c.DefaultResource == "" {
		c.DefaultResource = DefaultResource
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutput
	}
	if c.Target == nil {
		c.Target = &TargetConfig{}
	}
	c.Target.ApplyDefaults()
}

// TableFor returns the physical table for a resource type, falling back to
// the lowercased type name.
func (c *Config) TableFor(resource string) string {
	if rc, ok := c.Resources[resource]; ok && rc.Table != "" {
		return rc.Table
	}
	return strings.ToLower(resource)
}
