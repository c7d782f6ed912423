// Package corpus discovers training files with doublestar globs and reads
// them into a single training text.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/example/go-subword/internal/text"
)

// ErrNoFiles is returned when no file under the root matches the includes.
var ErrNoFiles = errors.New("no corpus files matched")

// Walker selects files below a root directory. Patterns are matched against
// slash-separated paths relative to the root.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}

	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// File is a matched corpus file.
type File struct {
	Path string
	Rel  string
	Size int64
}

// Walk returns the matching files in lexical order.
func (w *Walker) Walk(root string) ([]File, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []File

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && w.excluded(rel) {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() || !w.included(rel) || w.excluded(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		files = append(files, File{Path: path, Rel: rel, Size: info.Size()})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", root, err)
	}

	return files, nil
}

func (w *Walker) validate() error {
	for _, p := range append(append([]string(nil), w.includes...), w.excludes...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	return nil
}

func (w *Walker) included(rel string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}

	return false
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}

	return false
}

// Load reads every matching file and joins their contents with newlines.
// Files that are empty or whitespace-only are skipped.
func Load(root string, includes, excludes []string) (string, []File, error) {
	files, err := NewWalker(includes, excludes).Walk(root)
	if err != nil {
		return "", nil, err
	}

	var (
		b    strings.Builder
		used []File
	)

	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return "", nil, fmt.Errorf("read corpus file %q: %w", f.Rel, err)
		}

		s, err := text.Normalize(string(data))
		if errors.Is(err, text.ErrEmptyText) {
			continue
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
		used = append(used, f)
	}

	if len(used) == 0 {
		return "", nil, fmt.Errorf("%w under %q", ErrNoFiles, root)
	}

	return b.String(), used, nil
}
