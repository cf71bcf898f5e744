package filter

import (
	"fmt"
	"path"
	"strings"
)

// Filter decides whether a file takes part in a sync. It is pure: no
// I/O happens during ShouldInclude and the same arguments always give
// the same answer.
//
// Exclude rules always win over include rules. If include rules exist
// and none match, the file is rejected. With no include rules at all,
// everything not excluded is included.
type Filter struct {
	includePatterns []string
	excludePatterns []string

	includeExtensions map[string]bool
	excludeExtensions map[string]bool

	minSize int64
	maxSize int64
}

func New() *Filter {
	return &Filter{
		includeExtensions: make(map[string]bool),
		excludeExtensions: make(map[string]bool),
		minSize:           -1,
		maxSize:           -1,
	}
}

type ErrBadPattern struct {
	pattern string
	reason  string
}

func (e *ErrBadPattern) Error() string {
	return fmt.Sprintf("invalid pattern '%s': %s", e.pattern, e.reason)
}

// ParsePatterns adds glob patterns from newline delimited text.
// Lines starting with '!' are exclude patterns, lines starting with
// '#' are comments, blank lines are ignored.
func (f *Filter) ParsePatterns(patterns string) error {
	for _, line := range strings.Split(patterns, "\n") {
		line = strings.TrimSpace(line)

		// skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "!") {
			pattern := line[1:]
			if err := checkPattern(pattern); err != nil {
				return err
			}
			f.excludePatterns = append(f.excludePatterns, pattern)
		} else {
			if err := checkPattern(line); err != nil {
				return err
			}
			f.includePatterns = append(f.includePatterns, line)
		}
	}

	return nil
}

// ParseExtensions adds extension rules from a comma delimited list.
// A '!' prefix marks an exclude extension; leading dots are stripped
// and matching is case-insensitive.
func (f *Filter) ParseExtensions(extensions string) error {
	for _, ext := range strings.Split(extensions, ",") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}

		exclude := false
		if strings.HasPrefix(ext, "!") {
			exclude = true
			ext = ext[1:]
		}

		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext == "" {
			return &ErrBadPattern{pattern: ext, reason: "empty extension"}
		}

		if exclude {
			f.excludeExtensions[ext] = true
		} else {
			f.includeExtensions[ext] = true
		}
	}

	return nil
}

// SetMinSize rejects files smaller than size bytes.
func (f *Filter) SetMinSize(size int64) {
	f.minSize = size
}

// SetMaxSize rejects files larger than size bytes.
func (f *Filter) SetMaxSize(size int64) {
	f.maxSize = size
}

// ShouldInclude reports whether the file at relPath with the given
// size takes part in the sync. relPath uses forward slashes.
func (f *Filter) ShouldInclude(relPath string, size int64) bool {

	// size bounds first
	if f.minSize >= 0 && size < f.minSize {
		return false
	}
	if f.maxSize >= 0 && size > f.maxSize {
		return false
	}

	ext := extension(relPath)

	if ext != "" && f.excludeExtensions[ext] {
		return false
	}

	// include extensions are only enforced when the file actually
	// has an extension
	if len(f.includeExtensions) > 0 && ext != "" && !f.includeExtensions[ext] {
		return false
	}

	// exclude patterns win over include patterns
	for _, pattern := range f.excludePatterns {
		if matches(relPath, pattern) {
			return false
		}
	}

	if len(f.includePatterns) == 0 {
		return true
	}

	for _, pattern := range f.includePatterns {
		if matches(relPath, pattern) {
			return true
		}
	}

	return false
}

func extension(relPath string) string {
	ext := path.Ext(relPath)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func checkPattern(pattern string) error {
	if pattern == "" {
		return &ErrBadPattern{pattern: pattern, reason: "empty pattern"}
	}
	if _, err := path.Match(strings.ReplaceAll(pattern, "**", "*"), "probe"); err != nil {
		return &ErrBadPattern{pattern: pattern, reason: err.Error()}
	}
	return nil
}

// matches checks a relative path against a glob pattern. A '*' never
// crosses a path separator; '**' matches across directories. Patterns
// without a separator also match against the basename so that '*.tmp'
// excludes temp files anywhere in the tree.
func matches(relPath, pattern string) bool {

	if strings.Contains(pattern, "**") {
		return matchRecursive(relPath, pattern)
	}

	if ok, _ := path.Match(pattern, relPath); ok {
		return true
	}

	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, path.Base(relPath))
		return ok
	}

	return false
}

func matchRecursive(relPath, pattern string) bool {
	parts := strings.SplitN(pattern, "**", 2)

	prefix := parts[0]
	suffix := parts[1]

	if !strings.HasPrefix(relPath, prefix) {
		return false
	}
	if suffix == "" {
		return true
	}

	rest := strings.TrimPrefix(relPath, prefix)
	if ok, _ := path.Match(strings.TrimPrefix(suffix, "/"), path.Base(rest)); ok {
		return true
	}
	return strings.HasSuffix(relPath, suffix)
}
