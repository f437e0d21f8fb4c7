package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/weiihann/wavebench/adapter"
)

// Files holds the discovered trace files per format, each list in
// lexicographic order.
type Files map[adapter.Format][]string

// Count returns the number of files of format f.
func (fs Files) Count(f adapter.Format) int {
	return len(fs[f])
}

// Discover lists the trace files directly under dir, classified by
// extension. An unreadable directory is an error.
func Discover(dir string) (Files, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", dir, err)
	}

	files := make(Files)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.TrimPrefix(filepath.Ext(entry.Name()), ".")
		for _, f := range adapter.Formats() {
			if ext == string(f) {
				files[f] = append(files[f], filepath.Join(dir, entry.Name()))
			}
		}
	}

	for _, paths := range files {
		sort.Strings(paths)
	}

	return files, nil
}
