// Package query resolves a pattern plus tag-set expression into a concrete
// file list, under local (filesystem walk) or global (whole registry) scope.
package query

import (
	"context"
	"io/fs"
	"sort"

	"github.com/wutag/wutag/internal/errors"
	"github.com/wutag/wutag/internal/pattern"
	"github.com/wutag/wutag/internal/registry"
	"github.com/wutag/wutag/internal/walker"
)

// Scope selects where candidate files come from.
type Scope int

const (
	// ScopeLocal walks the filesystem from the configured roots.
	ScopeLocal Scope = iota
	// ScopeGlobal iterates all files already known to the registry,
	// matching against their stored paths without a live stat.
	ScopeGlobal
)

// Mode is the tag-set matching semantics.
type Mode int

const (
	// ModeAny qualifies a file when it carries at least one requested tag.
	ModeAny Mode = iota
	// ModeAll qualifies a file when it carries every requested tag.
	ModeAll
	// ModeOnlyAll qualifies a file when its tag set equals the request
	// exactly, with no extra tags.
	ModeOnlyAll
)

// TagFilter names a requested tag, optionally pinned to a value. A pinned
// filter only matches an association carrying that exact value; a bare
// filter matches the tag regardless of value.
type TagFilter struct {
	Name  string
	Value *string
}

// Options configures one resolution.
type Options struct {
	Scope   Scope
	Mode    Mode
	Filters []TagFilter
	// Matcher filters candidate paths; nil matches everything.
	Matcher *pattern.Matcher
	// Roots and Walk configure the traversal under local scope.
	Roots []string
	Walk  walker.Options
	// RequireTagged excludes files without registry associations. Read
	// queries set it; write-target resolution leaves untagged files in.
	RequireTagged bool
}

// Match is one resolved file. Entry is nil for local-scope candidates not
// yet known to the registry (possible write targets).
type Match struct {
	Path  string
	Entry *registry.FileEntry
	Info  fs.FileInfo
}

// Result is the resolution output plus non-fatal warnings (unknown tags,
// traversal problems).
type Result struct {
	Matches  []Match
	Warnings []error
}

// Resolve evaluates the query against the registry and, under local scope,
// the live filesystem. Output is ordered ascending by canonical path.
func Resolve(ctx context.Context, reg *registry.Registry, w *walker.Walker, opts Options) (*Result, error) {
	res := &Result{}

	filters, unknown := resolveFilters(reg, opts.Filters)
	res.Warnings = append(res.Warnings, unknown...)

	// A request that names only unknown tags can still resolve (to nothing)
	// under Any, and to nothing under All/OnlyAll.
	switch opts.Scope {
	case ScopeGlobal:
		resolveGlobal(reg, opts, filters, len(unknown) > 0, res)
	default:
		if err := resolveLocal(ctx, reg, w, opts, filters, len(unknown) > 0, res); err != nil {
			return nil, err
		}
	}

	sort.Slice(res.Matches, func(i, j int) bool { return res.Matches[i].Path < res.Matches[j].Path })
	return res, nil
}

// filter is a TagFilter resolved against the tag table.
type filter struct {
	tag   registry.TagID
	value *string
}

func resolveFilters(reg *registry.Registry, in []TagFilter) ([]filter, []error) {
	var out []filter
	var warnings []error
	for _, f := range in {
		tag, ok := reg.TagByName(f.Name)
		if !ok {
			warnings = append(warnings, errors.UnknownTagError(f.Name))
			continue
		}
		out = append(out, filter{tag: tag.ID, value: f.Value})
	}
	return out, warnings
}

func resolveGlobal(reg *registry.Registry, opts Options, filters []filter, hadUnknown bool, res *Result) {
	for _, entry := range reg.Files() {
		if opts.Matcher != nil && !opts.Matcher.Matches(entry.Path, nil) {
			continue
		}
		if !qualifies(reg, entry.ID, opts, filters, hadUnknown) {
			continue
		}
		e := entry
		res.Matches = append(res.Matches, Match{Path: entry.Path, Entry: &e})
	}
}

func resolveLocal(ctx context.Context, reg *registry.Registry, w *walker.Walker, opts Options, filters []filter, hadUnknown bool, res *Result) error {
	walkOpts := opts.Walk
	walkOpts.Matcher = opts.Matcher

	entries, warnings, err := w.Walk(ctx, opts.Roots, walkOpts)
	if err != nil {
		return err
	}
	for _, warn := range warnings {
		res.Warnings = append(res.Warnings, errors.Newf(errors.ErrCodeIO, "%s: %v", warn.Path, warn.Err))
	}

	for _, e := range entries {
		stored, known := reg.FileByPath(e.Path)

		if !known {
			if opts.RequireTagged || len(opts.Filters) > 0 {
				continue
			}
			res.Matches = append(res.Matches, Match{Path: e.Path, Info: e.Info})
			continue
		}

		if !qualifies(reg, stored.ID, opts, filters, hadUnknown) {
			continue
		}
		s := stored
		res.Matches = append(res.Matches, Match{Path: e.Path, Entry: &s, Info: e.Info})
	}
	return nil
}

// qualifies applies the tag-set semantics for one file.
func qualifies(reg *registry.Registry, id registry.FileID, opts Options, filters []filter, hadUnknown bool) bool {
	assocs := reg.AssociationsOf(id)
	if opts.RequireTagged && len(assocs) == 0 {
		return false
	}
	if len(opts.Filters) == 0 {
		return true
	}

	matched := 0
	for _, f := range filters {
		if matchesFilter(assocs, f) {
			matched++
		}
	}

	switch opts.Mode {
	case ModeAll, ModeOnlyAll:
		// Unknown tags contribute empty sets, so a subset request naming
		// one can never be satisfied.
		if hadUnknown || matched != len(filters) {
			return false
		}
		if opts.Mode == ModeOnlyAll {
			return !hasExtraTags(assocs, filters)
		}
		return true
	default:
		return matched > 0
	}
}

func matchesFilter(assocs []registry.Association, f filter) bool {
	for _, a := range assocs {
		if a.Tag != f.tag {
			continue
		}
		if f.value == nil {
			return true
		}
		if a.Value != nil && *a.Value == *f.value {
			return true
		}
	}
	return false
}

// hasExtraTags reports whether the file carries a tag outside the request.
func hasExtraTags(assocs []registry.Association, filters []filter) bool {
	requested := make(map[registry.TagID]struct{}, len(filters))
	for _, f := range filters {
		requested[f.tag] = struct{}{}
	}
	for _, a := range assocs {
		if _, ok := requested[a.Tag]; !ok {
			return true
		}
	}
	return false
}
