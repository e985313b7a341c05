package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wutag/wutag/internal/repair"
)

// repairOptions holds CLI flags for repair.
type repairOptions struct {
	dryRun        bool
	recomputeAll  bool
	removeOrphans bool
	manualMoves   []string
}

func newRepairCmd() *cobra.Command {
	var opts repairOptions

	cmd := &cobra.Command{
		Use:   "repair [path]",
		Short: "Reconcile the registry with the filesystem",
		Long: `Check every registered file against the filesystem. Entries whose
content changed get fresh hashes; entries whose path went stale are
re-linked when a file with identical content is found; the rest are
reported missing. Pass a path to restrict the run to that subtree.

Examples:
  wutag repair --dry-run
  wutag repair ~/projects --remove-orphans
  wutag repair --manual old/path.txt=new/path.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			restrict := ""
			if len(args) == 1 {
				restrict = args[0]
			}
			return runRepair(cmd, restrict, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Report what would change without touching the registry")
	cmd.Flags().BoolVar(&opts.recomputeAll, "recompute-all", false, "Re-read content even when size and mtime look unchanged")
	cmd.Flags().BoolVar(&opts.removeOrphans, "remove-orphans", false, "Drop entries whose files cannot be found")
	cmd.Flags().StringSliceVar(&opts.manualMoves, "manual", nil, "Re-link an entry as old=new without content matching (repeatable)")

	return cmd
}

func runRepair(cmd *cobra.Command, restrict string, opts repairOptions) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	moves := make(map[string]string, len(opts.manualMoves))
	for _, arg := range opts.manualMoves {
		from, to, found := strings.Cut(arg, "=")
		if !found || from == "" || to == "" {
			return fmt.Errorf("invalid --manual %q: want old=new", arg)
		}
		moves[from] = to
	}

	report, err := repair.Run(cmd.Context(), a.reg, a.w, repair.Options{
		Restrict:      restrict,
		DryRun:        opts.dryRun,
		RecomputeAll:  opts.recomputeAll,
		RemoveOrphans: opts.removeOrphans,
		ManualMoves:   moves,
		Ignores:       a.cfg.Ignores,
	})
	if err != nil {
		return err
	}
	a.printWarnings(report.Warnings)

	for _, tr := range report.Transitions {
		switch tr.State {
		case repair.StateModified:
			fmt.Fprintf(a.out, "%s: modified, hash updated\n", a.ui.Path(tr.Entry.Path))
		case repair.StateMoved:
			fmt.Fprintf(a.out, "%s: moved to %s\n", a.ui.Path(tr.Entry.Path), a.ui.Path(tr.NewPath))
		case repair.StateMissing:
			if tr.Removed {
				fmt.Fprintf(a.out, "%s: missing, removed\n", a.ui.Path(tr.Entry.Path))
			} else {
				fmt.Fprintf(a.out, "%s: missing\n", a.ui.Path(tr.Entry.Path))
			}
		}
	}

	fmt.Fprintf(a.out, "%d ok, %d modified, %d moved, %d missing",
		report.OK, report.Modified, report.Moved, report.Missing)
	if report.Removed > 0 {
		fmt.Fprintf(a.out, " (%d removed)", report.Removed)
	}
	if report.DryRun {
		fmt.Fprint(a.out, " [dry run]")
	}
	fmt.Fprintln(a.out)

	if report.DryRun {
		return nil
	}
	return a.commit()
}
