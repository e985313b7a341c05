// Package repair reconciles registry entries against the live filesystem.
//
// Each entry lands in one terminal state: OK (content unchanged), Modified
// (content changed in place), Moved (identical content found at another
// path), or Missing (no trace found). Identity across moves is established
// by content hash; equal hashes are treated as equal content.
package repair

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wutag/wutag/internal/errors"
	"github.com/wutag/wutag/internal/registry"
	"github.com/wutag/wutag/internal/walker"
)

// State is a terminal repair state for one entry.
type State int

const (
	StateOK State = iota
	StateModified
	StateMoved
	StateMissing
)

// String returns the presentation name of the state.
func (s State) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateModified:
		return "modified"
	case StateMoved:
		return "moved"
	default:
		return "missing"
	}
}

// Options configures one repair run.
type Options struct {
	// Restrict limits the run (and the move-candidate scan) to entries
	// under this path. Empty means the full registry.
	Restrict string
	// DryRun stages transitions and reports them without touching the
	// registry.
	DryRun bool
	// RecomputeAll re-reads content even when stored size and mtime match.
	RecomputeAll bool
	// RemoveOrphans deletes Missing entries from the registry.
	RemoveOrphans bool
	// ManualMoves maps stored paths to their new locations, bypassing
	// content hashing for those entries.
	ManualMoves map[string]string
	// Ignores are glob patterns excluded from the move-candidate scan.
	Ignores []string
}

// Transition records what happened (or would happen) to one entry.
type Transition struct {
	Entry   registry.FileEntry
	State   State
	NewPath string // set for Moved
	NewHash string // set for Modified and Moved
	Removed bool   // Missing entry deleted because RemoveOrphans was set
}

// Report tallies a repair run for presentation.
type Report struct {
	OK          int
	Modified    int
	Moved       int
	Missing     int
	Removed     int
	DryRun      bool
	Transitions []Transition
	Warnings    []error
}

// HashFile computes the hex SHA-256 digest of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Run classifies every in-scope entry and, unless DryRun is set, applies the
// staged transitions to the registry. Committing the registry afterwards is
// the caller's responsibility, preserving the one-commit-per-command
// discipline.
func Run(ctx context.Context, reg *registry.Registry, w *walker.Walker, opts Options) (*Report, error) {
	report := &Report{DryRun: opts.DryRun}

	manual := make(map[string]string, len(opts.ManualMoves))
	for from, to := range opts.ManualMoves {
		cf, err := registry.Canonicalize(from)
		if err != nil {
			return nil, err
		}
		ct, err := registry.Canonicalize(to)
		if err != nil {
			return nil, err
		}
		manual[cf] = ct
	}

	var restrict string
	if opts.Restrict != "" {
		var err error
		restrict, err = registry.Canonicalize(opts.Restrict)
		if err != nil {
			return nil, err
		}
	}

	entries := inScope(reg.Files(), restrict)

	// Phase 1: classify entries whose stored path still resolves.
	// Hashing is parallel; transitions are staged before any mutation.
	var (
		mu          sync.Mutex
		transitions = make([]Transition, 0, len(entries))
		missing     []registry.FileEntry
		warnings    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			tr, miss, warn := classify(entry, manual, opts.RecomputeAll)
			mu.Lock()
			defer mu.Unlock()
			if warn != nil {
				warnings = append(warnings, warn)
			}
			if miss {
				missing = append(missing, entry)
				return nil
			}
			if tr != nil {
				transitions = append(transitions, *tr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 2: hunt for moved files among live candidates, exact hash
	// match, lexicographically first on ties.
	if len(missing) > 0 {
		moveTargets, ws, err := findMoves(ctx, reg, w, missing, restrict, opts.Ignores)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, ws...)

		for _, entry := range missing {
			if target, ok := moveTargets[entry.ID]; ok {
				transitions = append(transitions, Transition{
					Entry:   entry,
					State:   StateMoved,
					NewPath: target.path,
					NewHash: target.hash,
				})
				continue
			}
			transitions = append(transitions, Transition{
				Entry:   entry,
				State:   StateMissing,
				Removed: opts.RemoveOrphans,
			})
		}
	}

	sort.Slice(transitions, func(i, j int) bool { return transitions[i].Entry.Path < transitions[j].Entry.Path })

	// Phase 3: apply, single pass, unless dry-run.
	for i := range transitions {
		tr := &transitions[i]
		switch tr.State {
		case StateOK:
			report.OK++
		case StateModified:
			report.Modified++
		case StateMoved:
			report.Moved++
		case StateMissing:
			report.Missing++
			if tr.Removed {
				report.Removed++
			}
		}
		if opts.DryRun {
			continue
		}
		if err := apply(reg, tr); err != nil {
			warnings = append(warnings, err)
		}
	}

	report.Transitions = transitions
	report.Warnings = warnings
	return report, nil
}

// classify resolves one entry against its stored path. Returns a staged
// transition, a missing marker, or a warning (unreadable file).
func classify(entry registry.FileEntry, manual map[string]string, recompute bool) (*Transition, bool, error) {
	if target, ok := manual[entry.Path]; ok {
		hash, err := HashFile(target)
		if err != nil {
			return nil, true, errors.Newf(errors.ErrCodeIO, "manual move target %s: %v", target, err)
		}
		return &Transition{Entry: entry, State: StateMoved, NewPath: target, NewHash: hash}, false, nil
	}

	info, err := os.Stat(entry.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, true, nil
		}
		return nil, false, errors.Newf(errors.ErrCodeIO, "%s: %v", entry.Path, err)
	}

	// Directories and other non-regular entries carry no content hash.
	if !info.Mode().IsRegular() {
		return &Transition{Entry: entry, State: StateOK}, false, nil
	}

	// Fast path: stored stat matches, hash is trusted without re-reading.
	if !recompute && entry.Hash != "" && entry.Size == info.Size() && entry.MTime.Equal(info.ModTime()) {
		return &Transition{Entry: entry, State: StateOK}, false, nil
	}

	hash, err := HashFile(entry.Path)
	if err != nil {
		return nil, false, errors.Newf(errors.ErrCodeIO, "%s: %v", entry.Path, err)
	}

	if entry.Hash == "" || hash != entry.Hash {
		return &Transition{Entry: entry, State: StateModified, NewHash: hash}, false, nil
	}
	return &Transition{Entry: entry, State: StateOK}, false, nil
}

// moveTarget is a resolved new location for a missing entry.
type moveTarget struct {
	path string
	hash string
}

// findMoves scans the repair scope for files whose content hash equals a
// missing entry's stored hash. Candidates are hashed in parallel; the scan
// result is deterministic because walker output is path-sorted and the first
// exact match wins.
func findMoves(ctx context.Context, reg *registry.Registry, w *walker.Walker, missing []registry.FileEntry, restrict string, ignores []string) (map[registry.FileID]moveTarget, []error, error) {
	root := restrict
	if root == "" {
		root = commonRoot(reg.Files())
	}
	if root == "" {
		return nil, nil, nil
	}

	wanted := make(map[string][]registry.FileEntry)
	for _, e := range missing {
		if e.Hash == "" {
			continue // never hashed, nothing to match against
		}
		wanted[e.Hash] = append(wanted[e.Hash], e)
	}
	if len(wanted) == 0 {
		return nil, nil, nil
	}

	entries, walkWarnings, err := w.Walk(ctx, []string{root}, walker.Options{MaxDepth: -1, Ignores: ignores})
	if err != nil {
		return nil, nil, err
	}
	var warnings []error
	for _, warn := range walkWarnings {
		warnings = append(warnings, errors.Newf(errors.ErrCodeIO, "%s: %v", warn.Path, warn.Err))
	}

	// Hash candidates in parallel, preserving walk order for the tie-break.
	hashes := make([]string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, e := range entries {
		if !e.Info.Mode().IsRegular() {
			continue
		}
		i, e := i, e
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			h, err := HashFile(e.Path)
			if err == nil {
				hashes[i] = h
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	targets := make(map[registry.FileID]moveTarget)
	claimed := make(map[string]struct{})
	for i, e := range entries {
		h := hashes[i]
		if h == "" {
			continue
		}
		candidates, ok := wanted[h]
		if !ok {
			continue
		}
		// A live path already registered to some entry is not a move
		// target; so is a path claimed by an earlier missing entry.
		if _, taken := reg.FileByPath(e.Path); taken {
			continue
		}
		if _, taken := claimed[e.Path]; taken {
			continue
		}
		for _, cand := range candidates {
			if _, done := targets[cand.ID]; done {
				continue
			}
			targets[cand.ID] = moveTarget{path: e.Path, hash: h}
			claimed[e.Path] = struct{}{}
			break
		}
	}
	return targets, warnings, nil
}

// apply mutates the registry for one staged transition.
func apply(reg *registry.Registry, tr *Transition) error {
	switch tr.State {
	case StateModified:
		info, err := os.Stat(tr.Entry.Path)
		if err != nil {
			return errors.Newf(errors.ErrCodeIO, "%s: %v", tr.Entry.Path, err)
		}
		_, err = reg.UpdateFileStat(tr.Entry.ID, tr.NewHash, info.Size(), info.ModTime())
		return err
	case StateMoved:
		if _, err := reg.UpdateFilePath(tr.Entry.ID, tr.NewPath); err != nil {
			return err
		}
		info, err := os.Stat(tr.NewPath)
		if err != nil {
			return errors.Newf(errors.ErrCodeIO, "%s: %v", tr.NewPath, err)
		}
		_, err = reg.UpdateFileStat(tr.Entry.ID, tr.NewHash, info.Size(), info.ModTime())
		return err
	case StateMissing:
		if tr.Removed {
			reg.DeleteFile(tr.Entry.ID)
		}
	}
	return nil
}

// inScope filters entries to the restricted subtree, when set.
func inScope(files []registry.FileEntry, restrict string) []registry.FileEntry {
	if restrict == "" {
		return files
	}
	var out []registry.FileEntry
	for _, f := range files {
		if contained(f.Path, restrict) {
			out = append(out, f)
		}
	}
	return out
}

// contained reports whether path lies under root.
func contained(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// commonRoot finds the deepest directory containing every stored path.
func commonRoot(files []registry.FileEntry) string {
	if len(files) == 0 {
		return ""
	}
	root := filepath.Dir(files[0].Path)
	for _, f := range files[1:] {
		dir := filepath.Dir(f.Path)
		for !contained(dir, root) {
			parent := filepath.Dir(root)
			if parent == root {
				return root
			}
			root = parent
		}
	}
	return root
}
