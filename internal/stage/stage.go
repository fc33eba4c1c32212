// Package stage turns a user selection into a directory the worker can consume.
//
// The worker only accepts a folder of inputs. A folder selection is handed over
// untouched; a single file is copied into a scratch folder under the output root
// that is rebuilt on every call.
package stage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirName is the scratch folder created under the output root.
const DirName = "_gui_input"

// Staged is a directory ready for the worker.
type Staged struct {
	Dir string
	// Owned is true when Dir is the scratch folder this package created.
	Owned bool
}

// ScratchDir returns the scratch folder location for outputRoot.
func ScratchDir(outputRoot string) string {
	return filepath.Join(outputRoot, DirName)
}

// Prepare stages input for a job writing under outputRoot.
func Prepare(input, outputRoot string) (Staged, error) {
	absInput, err := filepath.Abs(input)
	if err != nil {
		return Staged{}, fmt.Errorf("resolve input %q: %w", input, err)
	}

	info, err := os.Stat(absInput)
	if err != nil {
		return Staged{}, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return Staged{Dir: absInput, Owned: false}, nil
	}

	absRoot, err := filepath.Abs(outputRoot)
	if err != nil {
		return Staged{}, fmt.Errorf("resolve output root %q: %w", outputRoot, err)
	}
	scratch := ScratchDir(absRoot)

	// The scratch tree is wiped below, so the selection must not live inside it.
	if within(absInput, scratch) {
		return Staged{}, fmt.Errorf("input %s lies inside the staging directory %s", absInput, scratch)
	}

	if err := os.RemoveAll(scratch); err != nil {
		return Staged{}, fmt.Errorf("clear staging directory: %w", err)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return Staged{}, fmt.Errorf("create staging directory: %w", err)
	}

	dst := filepath.Join(scratch, filepath.Base(absInput))
	if err := copyFile(absInput, dst, info.Mode().Perm()); err != nil {
		return Staged{}, fmt.Errorf("copy input into staging directory: %w", err)
	}

	return Staged{Dir: scratch, Owned: true}, nil
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
