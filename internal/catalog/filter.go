package catalog

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExtensions covers the common web build artifacts: scripts,
// module scripts, JSON, stylesheets and markup.
var DefaultExtensions = []string{".js", ".mjs", ".json", ".css", ".html"}

// Policy decides which discovered files are eligible for compression.
// Exactly one predicate form applies, in precedence order: Predicate,
// then Pattern, then Extensions. When none is usable the policy keeps
// every file (fail-open, the behavior of an unconfigured filter).
type Policy struct {
	// Predicate is an arbitrary test over the file's absolute path.
	// A panic inside a user predicate is not recovered: a broken
	// predicate is a configuration defect the caller must fix.
	Predicate func(path string) bool

	// Pattern is a doublestar glob matched case-insensitively against
	// the file's slash-separated path relative to the scanned root,
	// e.g. "**/*.js". A malformed pattern keeps all files.
	Pattern string

	// Extensions is an allow-list of lowercase extensions with
	// leading dots, consulted when no Predicate or Pattern is set.
	Extensions []string

	// MinSize rejects files strictly smaller, in bytes. A file of
	// exactly MinSize passes. Zero disables the size check.
	MinSize int64
}

// DefaultPolicy returns the selection used when nothing is configured:
// common web asset extensions at the conventional 1 KiB threshold.
func DefaultPolicy() Policy {
	return Policy{
		Extensions: DefaultExtensions,
		MinSize:    1025,
	}
}

// Eligible reports whether a file passes the policy.
func (p Policy) Eligible(f File) bool {
	if f.Size < p.MinSize {
		return false
	}
	return p.matches(f)
}

func (p Policy) matches(f File) bool {
	if p.Predicate != nil {
		return p.Predicate(f.Path)
	}

	if p.Pattern != "" {
		if !doublestar.ValidatePattern(p.Pattern) {
			return true
		}
		matched, err := doublestar.Match(
			strings.ToLower(p.Pattern),
			strings.ToLower(filepath.ToSlash(f.RelPath)),
		)
		if err != nil {
			return true
		}
		return matched
	}

	if len(p.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(f.Path))
		for _, allowed := range p.Extensions {
			if ext == allowed {
				return true
			}
		}
		return false
	}

	return true
}

// Select narrows files to those eligible under the policy, preserving
// the input order. It performs no I/O: sizes were captured at
// discovery time.
func Select(files []File, policy Policy) []File {
	selected := make([]File, 0, len(files))
	for _, f := range files {
		if policy.Eligible(f) {
			selected = append(selected, f)
		}
	}
	return selected
}
