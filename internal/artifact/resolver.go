// Package artifact picks "the" result file out of a worker output folder.
package artifact

import (
	"os"
	"path/filepath"
	"strings"
)

// IsHidden reports whether a file name carries the hidden-file marker.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Latest returns the most recently modified regular, non-hidden file in dir.
// A missing, unreadable or empty directory yields ok == false, never an error.
//
// Equal modification times resolve to the lexicographically greatest name.
// Callers should not rely on that.
func Latest(dir string) (path string, ok bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var (
		bestName string
		bestInfo os.FileInfo
	)
	for _, entry := range entries {
		name := entry.Name()
		if IsHidden(name) {
			continue
		}

		// Stat follows symlinks, so a link to a regular file counts.
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		if bestInfo == nil || newer(info, name, bestInfo, bestName) {
			bestName, bestInfo = name, info
		}
	}

	if bestInfo == nil {
		return "", false
	}
	return filepath.Join(dir, bestName), true
}

func newer(info os.FileInfo, name string, best os.FileInfo, bestName string) bool {
	mt, bt := info.ModTime(), best.ModTime()
	if mt.Equal(bt) {
		return name > bestName
	}
	return mt.After(bt)
}
