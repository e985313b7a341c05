// Package pattern compiles user patterns into path predicates.
//
// A pattern is compiled exactly once, at construction. Glob syntax supports
// '*', '?', '[...]' and '**'; regular expressions use Go's regexp syntax;
// fixed strings match as substrings. Matching targets the base name of a
// path unless full-path mode is requested.
package pattern

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wutag/wutag/internal/errors"
)

// Mode selects how the pattern string is interpreted.
type Mode int

const (
	// ModeGlob interprets the pattern as a shell-style glob. Default.
	ModeGlob Mode = iota
	// ModeRegex interprets the pattern as a regular expression.
	ModeRegex
	// ModeFixed matches the pattern as a literal substring.
	ModeFixed
)

// FileType filters matches by file metadata.
type FileType string

const (
	TypeFile       FileType = "file"
	TypeDir        FileType = "dir"
	TypeSymlink    FileType = "symlink"
	TypeEmpty      FileType = "empty"
	TypeExecutable FileType = "executable"
)

// ParseFileType resolves the CLI short and long type names.
func ParseFileType(s string) (FileType, error) {
	switch strings.ToLower(s) {
	case "f", "file":
		return TypeFile, nil
	case "d", "dir", "directory":
		return TypeDir, nil
	case "l", "symlink":
		return TypeSymlink, nil
	case "e", "empty":
		return TypeEmpty, nil
	case "x", "executable":
		return TypeExecutable, nil
	default:
		return "", errors.Newf(errors.ErrCodePatternInvalid, "unknown file type %q", s)
	}
}

// Options configures a Matcher beyond the pattern string itself.
type Options struct {
	// Mode selects glob, regex, or fixed-string interpretation.
	Mode Mode
	// CaseInsensitive makes pattern comparison case insensitive.
	CaseInsensitive bool
	// FullPath matches the pattern against the whole canonical path
	// instead of the base name (the default).
	FullPath bool
	// Extensions restricts matches to these file extensions (no dot).
	Extensions []string
	// Excludes are glob patterns; a path matching any of them never matches.
	Excludes []string
	// FileTypes restricts matches to these metadata types, when non-empty.
	FileTypes []FileType
}

// Matcher is a compiled predicate over paths.
type Matcher struct {
	re       *regexp.Regexp
	excludes []*regexp.Regexp
	exts     map[string]struct{}
	types    map[FileType]struct{}
	fullPath bool
}

// New compiles the pattern and filters. Invalid syntax in the pattern or any
// exclude is a fatal error raised before traversal begins.
func New(pattern string, opts Options) (*Matcher, error) {
	re, err := compile(pattern, opts.Mode, opts.CaseInsensitive)
	if err != nil {
		return nil, errors.PatternError(pattern, err)
	}

	m := &Matcher{
		re:       re,
		fullPath: opts.FullPath,
	}

	for _, ex := range opts.Excludes {
		cre, err := compile(ex, ModeGlob, opts.CaseInsensitive)
		if err != nil {
			return nil, errors.PatternError(ex, err)
		}
		m.excludes = append(m.excludes, cre)
	}

	if len(opts.Extensions) > 0 {
		m.exts = make(map[string]struct{}, len(opts.Extensions))
		for _, ext := range opts.Extensions {
			m.exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
		}
	}

	if len(opts.FileTypes) > 0 {
		m.types = make(map[FileType]struct{}, len(opts.FileTypes))
		for _, ft := range opts.FileTypes {
			m.types[ft] = struct{}{}
		}
	}

	return m, nil
}

// Matches reports whether path qualifies. info may be nil when matching
// against stored path strings (global scope); type and emptiness filters
// are skipped in that case because there is no live metadata.
func (m *Matcher) Matches(path string, info fs.FileInfo) bool {
	target := path
	if !m.fullPath {
		target = filepath.Base(path)
	}

	if !m.re.MatchString(target) {
		return false
	}

	for _, ex := range m.excludes {
		if ex.MatchString(filepath.Base(path)) || ex.MatchString(path) {
			return false
		}
	}

	if m.exts != nil {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if _, ok := m.exts[ext]; !ok {
			return false
		}
	}

	if m.types != nil && info != nil && !m.matchesType(path, info) {
		return false
	}

	return true
}

func (m *Matcher) matchesType(path string, info fs.FileInfo) bool {
	for ft := range m.types {
		switch ft {
		case TypeFile:
			if info.Mode().IsRegular() {
				return true
			}
		case TypeDir:
			if info.IsDir() {
				return true
			}
		case TypeSymlink:
			if info.Mode()&fs.ModeSymlink != 0 {
				return true
			}
		case TypeExecutable:
			if info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
				return true
			}
		case TypeEmpty:
			if isEmpty(path, info) {
				return true
			}
		}
	}
	return false
}

func isEmpty(path string, info fs.FileInfo) bool {
	if info.Mode().IsRegular() {
		return info.Size() == 0
	}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		return err == nil && len(entries) == 0
	}
	return false
}

// compile builds the anchored regexp for a pattern in the given mode.
func compile(pattern string, mode Mode, caseInsensitive bool) (*regexp.Regexp, error) {
	var expr string
	switch mode {
	case ModeRegex:
		expr = pattern
	case ModeFixed:
		expr = ".*" + regexp.QuoteMeta(pattern) + ".*"
	default:
		expr = globToRegexp(pattern)
	}

	if caseInsensitive {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

// globToRegexp translates a glob into an anchored regular expression.
// '*' matches within a path component, '**' across components, '?' a single
// character, and '[...]' a character class.
func globToRegexp(glob string) string {
	var sb strings.Builder
	sb.WriteString("^")

	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				sb.WriteString(".*")
				i++
				// Swallow a separator following '**' so "a/**/b" matches "a/b".
				if i+1 < len(runes) && runes[i+1] == '/' {
					sb.WriteString("/?")
					i++
				}
			} else {
				sb.WriteString(`[^/]*`)
			}
		case '?':
			sb.WriteString(`[^/]`)
		case '[':
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == ']' && j > i+1 {
					end = j
					break
				}
			}
			if end < 0 {
				sb.WriteString(regexp.QuoteMeta(string(c)))
				continue
			}
			class := string(runes[i : end+1])
			if strings.HasPrefix(class, "[!") {
				class = "[^" + class[2:]
			}
			sb.WriteString(class)
			i = end
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	sb.WriteString("$")
	return sb.String()
}
