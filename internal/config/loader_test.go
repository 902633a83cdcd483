package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhirlake-labs/fhirsql/pkg/dialect"

	_ "github.com/fhirlake-labs/fhirsql/pkg/dialects/duckdb"
	_ "github.com/fhirlake-labs/fhirsql/pkg/dialects/postgres"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultResource, cfg.DefaultResource)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, "main", cfg.Target.Schema)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
default_resource: Observation
schema_file: schema.yaml
resources:
  Observation:
    table: obs
target:
  type: postgres
  host: db.internal
  database: fhir
environments:
  prod:
    type: postgres
    host: prod.internal
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fhirsql.yaml"), content, 0o600))
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "Observation", cfg.DefaultResource)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, 5432, cfg.Target.Port, "postgres default port applied")
	assert.Equal(t, filepath.Join(dir, "schema.yaml"), cfg.SchemaFile, "relative paths resolve against the project root")
	assert.Equal(t, "obs", cfg.TableFor("Observation"))
	assert.Equal(t, "patient", cfg.TableFor("Patient"))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fhirsql.yaml"),
		[]byte("default_resource: Observation\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("FHIRSQL_DEFAULT_RESOURCE", "Condition")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "Condition", cfg.DefaultResource)
}

func TestLoadExpandsCredentialEnvVars(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fhirsql.yaml"),
		[]byte("target:\n  type: postgres\n  password: ${DB_PASSWORD}\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("DB_PASSWORD", "hunter2")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Target.Password)
}

func TestSelectTarget(t *testing.T) {
	cfg := &Config{
		Target: &TargetConfig{Type: "duckdb", Database: "dev.db"},
		Environments: map[string]*TargetConfig{
			"prod": {Type: "postgres", Host: "prod.internal", Database: "fhir"},
		},
	}
	cfg.ApplyDefaults()

	target, err := cfg.SelectTarget("")
	require.NoError(t, err)
	assert.Equal(t, "duckdb", target.Type)

	target, err = cfg.SelectTarget("prod")
	require.NoError(t, err)
	assert.Equal(t, "postgres", target.Type)
	assert.Equal(t, "prod.internal", target.Host)
	// unset override fields inherit from the base target
	assert.Equal(t, "fhir", target.Database)

	_, err = cfg.SelectTarget("staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestTargetValidateUnknownDialect(t *testing.T) {
	target := &TargetConfig{Type: "oracle"}
	err := target.Validate()
	var unknownErr *dialect.UnknownDialectError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "oracle", unknownErr.Name)
}

func TestMergeTargetConfig(t *testing.T) {
	base := &TargetConfig{
		Type: "postgres", Host: "localhost", Port: 5432, User: "app",
		Options: map[string]string{"sslmode": "disable", "app_name": "fhirsql"},
	}
	override := &TargetConfig{
		Host:    "prod.internal",
		Options: map[string]string{"sslmode": "require"},
	}

	merged := MergeTargetConfig(base, override)
	assert.Equal(t, "postgres", merged.Type)
	assert.Equal(t, "prod.internal", merged.Host)
	assert.Equal(t, 5432, merged.Port)
	assert.Equal(t, "require", merged.Options["sslmode"])
	assert.Equal(t, "fhirsql", merged.Options["app_name"])

	// base is untouched
	assert.Equal(t, "localhost", base.Host)
	assert.Equal(t, "disable", base.Options["sslmode"])

	assert.Same(t, base, MergeTargetConfig(base, nil))
	assert.Same(t, override, MergeTargetConfig(nil, override))
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "fhirsql.yaml"), []byte("{}"), 0o600))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Equal(t, "", FindProjectRoot(filepath.Join(t.TempDir(), "elsewhere")))
}
