package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestFindSpreadsheets(t *testing.T) {
	dir := t.TempDir()

	touch(t, filepath.Join(dir, "permits_2024.xlsx"))
	touch(t, filepath.Join(dir, "archive.XLSM"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "data.csv"))
	touch(t, filepath.Join(dir, ".hidden.xlsx"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.xlsx"), 0755))

	found, err := FindSpreadsheets(dir)
	require.NoError(t, err)

	require.Len(t, found, 2)
	// Sorted by name.
	assert.Equal(t, "archive.XLSM", found[0].Name)
	assert.Equal(t, "permits_2024.xlsx", found[1].Name)
	assert.Equal(t, filepath.Join(dir, "permits_2024.xlsx"), found[1].Path)
}

func TestFindSpreadsheetsEmptyDir(t *testing.T) {
	found, err := FindSpreadsheets(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindSpreadsheetsMissingDir(t *testing.T) {
	_, err := FindSpreadsheets(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestIsSpreadsheet(t *testing.T) {
	assert.True(t, IsSpreadsheet("a.xlsx"))
	assert.True(t, IsSpreadsheet("A.XLSM"))
	assert.False(t, IsSpreadsheet("a.csv"))
	assert.False(t, IsSpreadsheet("a"))
}
