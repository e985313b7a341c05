package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wutag/wutag/internal/query"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	any     bool
	exact   bool
	raw     bool
	pattern string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <tag[=value]>...",
		Short: "List files carrying the given tags",
		Long: `List files tagged with every given tag. A name=value argument matches
only associations pinned to that exact value.

Examples:
  wutag search work urgent
  wutag search --any work personal
  wutag -g search lang=rust
  wutag search --raw work | xargs wc -l`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.any, "any", false, "Match files carrying any of the tags instead of all")
	cmd.Flags().BoolVar(&opts.exact, "exact", false, "Match files whose tag set equals the given tags exactly")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print bare paths, one per line, for piping")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "Additionally restrict results to paths matching this pattern")

	return cmd
}

func runSearch(cmd *cobra.Command, tagArgs []string, opts searchOptions) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	filters, err := parseTagFilters(tagArgs)
	if err != nil {
		return err
	}

	mode := query.ModeAll
	switch {
	case opts.exact:
		mode = query.ModeOnlyAll
	case opts.any:
		mode = query.ModeAny
	}

	qopts := query.Options{
		Scope:         scope(),
		Mode:          mode,
		Filters:       filters,
		Roots:         []string{gopts.dir},
		Walk:          a.walkOptions(),
		RequireTagged: true,
	}
	if opts.pattern != "" {
		qopts.Matcher, err = a.matcher(opts.pattern)
		if err != nil {
			return err
		}
	}

	res, err := query.Resolve(cmd.Context(), a.reg, a.w, qopts)
	if err != nil {
		return err
	}
	if !opts.raw {
		a.printWarnings(res.Warnings)
	}

	for _, m := range res.Matches {
		if opts.raw {
			fmt.Fprintln(a.out, m.Path)
			continue
		}
		fmt.Fprintf(a.out, "%s:\n\t%s\n", a.ui.Path(m.Path), strings.Join(a.renderedTags(m.Entry.ID), " "))
	}

	if !opts.raw && len(res.Matches) == 0 {
		fmt.Fprintln(a.out, "no matches")
	}
	return nil
}
