package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wutag/wutag/internal/query"
	"github.com/wutag/wutag/internal/registry"
	"github.com/wutag/wutag/internal/repair"
)

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <pattern> <tag[=value]>...",
		Short: "Tag all files matching a pattern",
		Long: `Tag every file matching the pattern with the given tags. A tag may
carry a value using name=value syntax. New tags are assigned the next
color from the configured palette.

Examples:
  wutag set '*.rs' lang=rust work
  wutag -g set '**' archived`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, args[0], args[1:])
		},
	}
}

func runSet(cmd *cobra.Command, pat string, tagArgs []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	matches, err := a.resolveTargets(cmd, pat, false)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintf(a.out, "no files matched %q\n", pat)
		return nil
	}

	type namedValue struct {
		name  string
		value *string
	}
	pairs := make([]namedValue, 0, len(tagArgs))
	for _, arg := range tagArgs {
		name, value, err := parseTagArg(arg)
		if err != nil {
			return err
		}
		pairs = append(pairs, namedValue{name, value})
	}

	for _, m := range matches {
		entry, err := ensureEntry(a.reg, m)
		if err != nil {
			a.printWarnings([]error{err})
			continue
		}

		applied := make([]string, 0, len(pairs))
		for _, p := range pairs {
			tag, _, err := a.reg.EnsureTag(p.name, a.cfg.PaletteColor(a.reg.TagCreatedCount()))
			if err != nil {
				return err
			}
			if err := a.reg.AddAssociation(entry.ID, tag.ID, p.value); err != nil {
				return err
			}
			applied = append(applied, "+"+a.ui.TagValue(tag, p.value))
		}

		fmt.Fprintf(a.out, "%s:\n\t%s\n", a.ui.Path(m.Path), strings.Join(applied, " "))
	}

	return a.commit()
}

// ensureEntry registers a match if needed and fills in its content hash the
// first time the file is tagged.
func ensureEntry(reg *registry.Registry, m query.Match) (registry.FileEntry, error) {
	if m.Entry != nil && m.Entry.Hash != "" {
		return *m.Entry, nil
	}

	info := m.Info
	if info == nil {
		var err error
		info, err = os.Stat(m.Path)
		if err != nil {
			if m.Entry != nil {
				return *m.Entry, nil // stored entry whose file is gone; tag it anyway
			}
			return registry.FileEntry{}, err
		}
	}

	entry, err := reg.EnsureFile(m.Path, info.Size(), info.ModTime())
	if err != nil {
		return registry.FileEntry{}, err
	}

	if entry.Hash == "" && info.Mode().IsRegular() {
		hash, err := repair.HashFile(m.Path)
		if err != nil {
			slog.Debug("hash skipped", slog.String("path", m.Path), slog.String("error", err.Error()))
			return entry, nil
		}
		entry, err = reg.UpdateFileStat(entry.ID, hash, info.Size(), info.ModTime())
		if err != nil {
			return registry.FileEntry{}, err
		}
	}
	return entry, nil
}
