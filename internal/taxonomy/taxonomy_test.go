package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_TrimsAndDeduplicates(t *testing.T) {
	tax := New([]string{" PLUMBING REPAIR ", "", "DOOR REPAIRS", "PLUMBING REPAIR"})

	assert.Equal(t, []string{"PLUMBING REPAIR", "DOOR REPAIRS"}, tax.Categories())
	assert.Equal(t, 2, tax.Len())
}

func TestContains_IsCaseSensitive(t *testing.T) {
	tax := New([]string{"PLUMBING REPAIR"})

	assert.True(t, tax.Contains("PLUMBING REPAIR"))
	assert.False(t, tax.Contains("Plumbing Repair"))
	assert.False(t, tax.Contains("plumbing repair"))
	assert.False(t, tax.Contains(""))
}

func TestCategories_ReturnsCopy(t *testing.T) {
	tax := New([]string{"A", "B"})
	cats := tax.Categories()
	cats[0] = "mutated"

	assert.Equal(t, []string{"A", "B"}, tax.Categories())
}

func TestLoad_JSONArray(t *testing.T) {
	path := writeFile(t, "work-requests.json", `["ELECTRICAL REPAIR", "HEATING/COOLING"]`)

	tax, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ELECTRICAL REPAIR", "HEATING/COOLING"}, tax.Categories())
}

func TestLoad_YAMLSequence(t *testing.T) {
	path := writeFile(t, "work-requests.yaml", "- ELECTRICAL REPAIR\n- DOOR REPAIRS\n")

	tax, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ELECTRICAL REPAIR", "DOOR REPAIRS"}, tax.Categories())
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, "bad.json", `{"not": "a list"}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOrEmpty_MissingFileDegrades(t *testing.T) {
	tax := LoadOrEmpty(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())

	assert.Equal(t, 0, tax.Len())
	assert.False(t, tax.Contains("PLUMBING REPAIR"))
}
