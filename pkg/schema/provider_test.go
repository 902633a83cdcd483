package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeResource(t *testing.T) {
	assert.Equal(t, "Patient", NormalizeResource("patient"))
	assert.Equal(t, "Patient", NormalizeResource("Patient"))
	assert.Equal(t, "MedicationRequest", NormalizeResource("medicationRequest"))
	assert.Equal(t, "", NormalizeResource(""))
}

func TestR4Lookup(t *testing.T) {
	p := R4()

	info, ok := p.Lookup("Patient", "name")
	require.True(t, ok)
	assert.True(t, info.Array)
	assert.Equal(t, "HumanName", info.Type)

	info, ok = p.Lookup("Patient", "birthDate")
	require.True(t, ok)
	assert.False(t, info.Array)
	assert.Equal(t, "date", info.Type)

	info, ok = p.Lookup("Patient", "name.given")
	require.True(t, ok)
	assert.True(t, info.Array)

	_, ok = p.Lookup("Patient", "noSuchField")
	assert.False(t, ok)

	_, ok = p.Lookup("NoSuchResource", "name")
	assert.False(t, ok)
}

func TestR4LookupNormalizesResource(t *testing.T) {
	p := R4()
	_, ok := p.Lookup("patient", "birthDate")
	assert.True(t, ok)
}

func TestCompositeFirstHitWins(t *testing.T) {
	custom := NewMapProvider(map[string]map[string]ElementInfo{
		"Patient": {
			"birthDate": {Type: "dateTime"}, // override
			"species":   {Type: "code"},     // extension of the builtin table
		},
	})
	c := NewComposite(custom, R4())

	info, ok := c.Lookup("Patient", "birthDate")
	require.True(t, ok)
	assert.Equal(t, "dateTime", info.Type)

	info, ok = c.Lookup("Patient", "species")
	require.True(t, ok)
	assert.Equal(t, "code", info.Type)

	// falls through to the builtin layer
	info, ok = c.Lookup("Patient", "name")
	require.True(t, ok)
	assert.Equal(t, "HumanName", info.Type)
}

func TestParseSchemaYAML(t *testing.T) {
	data := []byte(`
patient:
  name: {array: true, type: HumanName}
  name.given: {array: true, type: string}
  birthDate: {type: date}
`)
	p, err := Parse(data)
	require.NoError(t, err)

	info, ok := p.Lookup("Patient", "name")
	require.True(t, ok, "resource name should be normalized on load")
	assert.True(t, info.Array)

	info, ok = p.Lookup("Patient", "birthDate")
	require.True(t, ok)
	assert.False(t, info.Array)
	assert.Equal(t, "date", info.Type)
}

func TestParseSchemaYAMLInvalid(t *testing.T) {
	_, err := Parse([]byte("a: [unclosed"))
	require.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("/nonexistent/schema.yaml")
	require.Error(t, err)
}
