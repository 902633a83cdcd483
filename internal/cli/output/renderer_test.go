package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoResolvesToJSONForNonTTY(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeAuto)
	assert.Equal(t, ModeJSON, r.Mode())
	assert.True(t, r.JSON())
}

func TestTextStylingSkippedInJSONMode(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)
	r.Title("heading")
	r.Success("done")
	r.Muted("detail")
	assert.Empty(t, buf.String())
}

func TestRawWritesVerbatim(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeText)
	r.Raw("SELECT 1;")
	assert.Equal(t, "SELECT 1;\n", buf.String())
}

func TestTableJSONMode(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)
	err := r.Table([]string{"id", "family"}, [][]any{
		{"p1", "Chalmers"},
		{"p2", "Levin"},
	})
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Chalmers", rows[0]["family"])
	assert.Equal(t, "p2", rows[1]["id"])
}

func TestTableTextMode(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeText)
	err := r.Table([]string{"dialect"}, [][]any{{"duckdb"}, {"postgres"}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "duckdb")
	assert.Contains(t, out, "postgres")
	assert.Contains(t, strings.ToUpper(out), "DIALECT")
}

func TestErrorJSONMode(t *testing.T) {
	var out, errBuf bytes.Buffer
	r := NewRenderer(&out, &errBuf, ModeJSON)
	r.Error("boom: %d", 42)

	var obj map[string]string
	require.NoError(t, json.Unmarshal(errBuf.Bytes(), &obj))
	assert.Equal(t, "boom: 42", obj["error"])
	assert.Empty(t, out.String())
}

func TestObjectIndented(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)
	require.NoError(t, r.Object(map[string]int{"a": 1}))
	assert.Contains(t, buf.String(), "\"a\": 1")
}
