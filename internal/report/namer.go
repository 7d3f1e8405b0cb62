package report

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/rs/zerolog"
)

// Namer derives display names for plan files.
type Namer struct {
	root    string
	pattern *regexp.Regexp
	sep     string
	log     zerolog.Logger
}

// NewNamer compiles pattern (may be empty) once. An invalid pattern is a
// configuration error.
func NewNamer(root, pattern, sep string, log zerolog.Logger) (*Namer, error) {
	n := &Namer{sep: sep, log: log}
	if root != "" {
		n.root = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(root)), "/")
	}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.KindConfiguration, "invalid pretty name regex %q", pattern)
		}
		n.pattern = re
		log.Info().Str("regex", pattern).Msg("Using regex to prettify names")
	}
	return n, nil
}

// Relative strips the search root from path. The leading separator is kept,
// so "<root>/envs/prod.diff" becomes "/envs/prod.diff". Paths outside the
// root are returned unchanged.
func (n *Namer) Relative(path string) string {
	p := filepath.ToSlash(path)
	if n.root == "" {
		return p
	}
	if rest, ok := strings.CutPrefix(p, n.root); ok && strings.HasPrefix(rest, "/") {
		return rest
	}
	return p
}

// Name returns the display name for path. With a pattern, the non-empty
// capture groups are joined with the separator; when the pattern does not
// match, a warning is logged and the relative path is used.
func (n *Namer) Name(path string) string {
	rel := n.Relative(path)
	if n.pattern == nil {
		return rel
	}

	m := n.pattern.FindStringSubmatch(rel)
	if m == nil {
		n.log.Warn().Str("file", rel).Str("regex", n.pattern.String()).Msg("No match found for file name with pretty name regex")
		return rel
	}

	var parts []string
	for _, g := range m[1:] {
		if g != "" {
			parts = append(parts, g)
		}
	}
	if len(parts) == 0 {
		n.log.Warn().Str("file", rel).Str("regex", n.pattern.String()).Msg("Pretty name regex captured nothing")
		return rel
	}
	return strings.Join(parts, n.sep)
}
