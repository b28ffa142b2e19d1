package relmap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectsync/depsync/relmap"
	"github.com/objectsync/depsync/validate"
)

const configYAML = `relations:
  entry:
    - name: senses
      kind: ownership
      types: [sense]
    - name: see_also
      kind: cross_reference
  sense:
    - name: target
      kind: reference
defaults:
  skip_existing: false
  max_owned_depth: 3
rules:
  "*":
    - name: has-id
      expression: id != ""
      severity: critical
`

func writeConfig(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "depsync.yaml")

	file, err := relmap.Load(path)
	require.NoError(t, err)

	assert.Len(t, file.Relations["entry"], 2)
	assert.Equal(t, "ownership", file.Relations["entry"][0].Kind)

	// Explicit fields override the defaults; untouched fields keep them.
	assert.False(t, file.Defaults.SkipExisting)
	assert.Equal(t, 3, file.Defaults.MaxOwnedDepth)
	assert.True(t, file.Defaults.IncludeOwned)

	require.Len(t, file.Rules["*"], 1)
	assert.Equal(t, validate.SeverityCritical, file.Rules["*"][0].Severity)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "depsync.yml")

	file, err := relmap.Load(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, file.Relations)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := relmap.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidRelationKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "depsync.yaml")
	bad := "relations:\n  entry:\n    - name: senses\n      kind: contains\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	_, err := relmap.Load(path)
	assert.ErrorIs(t, err, relmap.ErrUnknownKind)
}

func TestLoadFromDir_WalksToParent(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "depsync.yaml")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	file, err := relmap.LoadFromDir(nested)
	require.NoError(t, err)
	assert.NotEmpty(t, file.Relations)
}

func TestLoadFromDir_NotFound(t *testing.T) {
	_, err := relmap.LoadFromDir(t.TempDir())
	assert.Error(t, err)
}
