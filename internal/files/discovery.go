// Package files locates the input spreadsheets for a report run.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// spreadsheetExtensions are the workbook formats the loader accepts.
var spreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// FileInfo describes a discovered input file.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// FindSpreadsheets scans dir (flat, non-recursive) for spreadsheet files.
// Hidden files, subdirectories and non-spreadsheet files are skipped.
// Results are sorted by name so runs are reproducible.
func FindSpreadsheets(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !spreadsheetExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// IsSpreadsheet reports whether name has a supported workbook extension.
func IsSpreadsheet(name string) bool {
	return spreadsheetExtensions[strings.ToLower(filepath.Ext(name))]
}
