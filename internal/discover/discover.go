package discover

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// Local finds plan files on the local filesystem.
type Local struct {
	// SkipDirs names directories that are never descended into.
	SkipDirs []string
}

// Files yields every regular file under root whose base name matches
// "*"+suffix, the equivalent of the glob "<root>/**/*<suffix>". Files are
// yielded in lexical walk order as they are found.
func (l Local) Files(root, suffix string) iter.Seq2[string, error] {
	pattern := "*" + suffix
	return func(yield func(string, error) bool) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			yield("", fmt.Errorf("invalid diff file suffix %q: %w", suffix, err))
			return
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && l.skip(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			if !MatchesSuffix(d.Name(), pattern) {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", err)
		}
	}
}

// ReadText returns the whole file as a string.
func (Local) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l Local) skip(name string) bool {
	for _, s := range l.SkipDirs {
		if s == name {
			return true
		}
	}
	return false
}

// MatchesSuffix reports whether a base name matches a glob pattern such as
// "*.tfplan.txt". A leading "**/" is ignored since only base names are matched.
func MatchesSuffix(name, pattern string) bool {
	pattern = strings.TrimPrefix(pattern, "**/")
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}
