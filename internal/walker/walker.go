// Package walker implements bounded filesystem traversal.
//
// A walk visits every entry under the given roots down to a maximum depth,
// applies ignore rules and an optional pattern matcher, and returns the
// candidates sorted ascending by canonical path so downstream consumers get
// repeatable results. Per-entry failures (permission errors, broken
// symlinks) are recorded as warnings and never abort the whole walk.
package walker

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wutag/wutag/internal/errors"
	"github.com/wutag/wutag/internal/pattern"
)

// ignoreCacheSize bounds the compiled ignore-matcher cache.
const ignoreCacheSize = 256

// DefaultMaxDepth is used when Options.MaxDepth is zero.
const DefaultMaxDepth = 2

// Entry is one traversal candidate.
type Entry struct {
	// Path is the canonical (absolute, cleaned) path of the entry.
	Path string
	// Info is the entry's metadata. Dereferenced when symlinks are followed.
	Info fs.FileInfo
}

// Warning records a non-fatal per-entry failure.
type Warning struct {
	Path string
	Err  error
}

// Options bounds and filters a walk.
type Options struct {
	// MaxDepth limits recursion relative to each root. Zero means
	// DefaultMaxDepth; negative means unbounded.
	MaxDepth int
	// MinDepth skips entries shallower than this, but still descends.
	MinDepth int
	// FollowSymlinks dereferences symlink metadata before matching.
	FollowSymlinks bool
	// Prune stops descent into directories that themselves match Matcher.
	Prune bool
	// Ignores are glob patterns pruned from traversal entirely.
	Ignores []string
	// Matcher filters emitted entries when non-nil. Directories that fail
	// the match are still descended into.
	Matcher *pattern.Matcher
}

// Walker traverses filesystem subtrees. Safe for concurrent use.
type Walker struct {
	// ignoreCache caches compiled ignore matchers by pattern source.
	ignoreCache *lru.Cache[string, *pattern.Matcher]
	cacheMu     sync.Mutex
}

// New creates a Walker.
func New() (*Walker, error) {
	cache, err := lru.New[string, *pattern.Matcher](ignoreCacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}
	return &Walker{ignoreCache: cache}, nil
}

// Walk traverses all roots and returns matching entries sorted ascending by
// path, along with any per-entry warnings. Roots are walked in parallel.
func (w *Walker) Walk(ctx context.Context, roots []string, opts Options) ([]Entry, []Warning, error) {
	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}

	ignores, err := w.compileIgnores(opts.Ignores)
	if err != nil {
		return nil, nil, err
	}

	var (
		mu       sync.Mutex
		entries  []Entry
		warnings []Warning
		seen     = make(map[string]struct{})
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, root := range roots {
		root := root
		g.Go(func() error {
			es, ws, err := w.walkRoot(ctx, root, maxDepth, opts, ignores)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, e := range es {
				if _, dup := seen[e.Path]; dup {
					continue
				}
				seen[e.Path] = struct{}{}
				entries = append(entries, e)
			}
			warnings = append(warnings, ws...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, warnings, nil
}

func (w *Walker) walkRoot(ctx context.Context, root string, maxDepth int, opts Options, ignores []*pattern.Matcher) ([]Entry, []Warning, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeIO, err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, []Warning{{Path: absRoot, Err: err}}, nil
	}

	var entries []Entry
	var warnings []Warning

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			warnings = append(warnings, Warning{Path: path, Err: err})
			slog.Debug("skipping unreadable entry", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == absRoot {
			return nil
		}

		depth := depthOf(absRoot, path)
		if maxDepth >= 0 && depth > maxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		base := filepath.Base(path)
		for _, ig := range ignores {
			if ig.Matches(base, nil) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		info, ierr := w.statEntry(path, d, opts.FollowSymlinks)
		if ierr != nil {
			warnings = append(warnings, Warning{Path: path, Err: ierr})
			return nil
		}

		matched := opts.Matcher == nil || opts.Matcher.Matches(path, info)

		if d.IsDir() && opts.Prune && matched {
			return filepath.SkipDir
		}

		if depth >= opts.MinDepth && matched {
			entries = append(entries, Entry{Path: path, Info: info})
		}
		return nil
	})

	if walkErr != nil {
		if walkErr == context.Canceled || walkErr == context.DeadlineExceeded {
			return nil, nil, walkErr
		}
		warnings = append(warnings, Warning{Path: absRoot, Err: walkErr})
	}

	return entries, warnings, nil
}

// statEntry resolves entry metadata, dereferencing symlinks when requested.
func (w *Walker) statEntry(path string, d fs.DirEntry, follow bool) (fs.FileInfo, error) {
	if follow && d.Type()&fs.ModeSymlink != 0 {
		return os.Stat(path)
	}
	return d.Info()
}

// compileIgnores compiles the ignore globs, consulting the LRU cache.
func (w *Walker) compileIgnores(patterns []string) ([]*pattern.Matcher, error) {
	matchers := make([]*pattern.Matcher, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		w.cacheMu.Lock()
		m, ok := w.ignoreCache.Get(p)
		w.cacheMu.Unlock()
		if !ok {
			var err error
			m, err = pattern.New(p, pattern.Options{Mode: pattern.ModeGlob})
			if err != nil {
				return nil, err
			}
			w.cacheMu.Lock()
			w.ignoreCache.Add(p, m)
			w.cacheMu.Unlock()
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

// depthOf counts path components below root.
func depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
