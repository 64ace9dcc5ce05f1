package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
	return path
}

func TestValidateFile(t *testing.T) {
	v := NewInputValidator(nil)

	assert.NoError(t, v.ValidateFile(writeTemp(t, "responses.xlsx")))

	err := v.ValidateFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	dir := t.TempDir()
	err = v.ValidateFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestValidateWorkbook(t *testing.T) {
	v := NewInputValidator(nil)

	assert.NoError(t, v.ValidateWorkbook(writeTemp(t, "EXAMPLE DATA FILE.xlsx")))
	assert.NoError(t, v.ValidateWorkbook(writeTemp(t, "legacy.xls")))

	err := v.ValidateWorkbook(writeTemp(t, "responses.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an Excel workbook")

	err = v.ValidateWorkbook(writeTemp(t, "~$EXAMPLE DATA FILE.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock file")
}

func TestValidateCodeframe(t *testing.T) {
	v := NewInputValidator(nil)

	assert.NoError(t, v.ValidateCodeframe(writeTemp(t, "codeframe.yaml")))
	assert.NoError(t, v.ValidateCodeframe(writeTemp(t, "codeframe.yml")))

	err := v.ValidateCodeframe(writeTemp(t, "codeframe.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a YAML codeframe")
}

func TestValidateOutputDirectory(t *testing.T) {
	v := NewInputValidator(nil)

	dir := filepath.Join(t.TempDir(), "output", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// The writability probe must not leave anything behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
