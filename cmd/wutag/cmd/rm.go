package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wutag/wutag/internal/errors"
)

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <pattern> <tag[=value]>...",
		Short: "Remove tags from all files matching a pattern",
		Long: `Remove the given tags from every matching file. A bare tag name removes
the tag regardless of value; name=value removes only that exact pairing.
Files left without any tags are dropped from the registry.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(cmd, args[0], args[1:])
		},
	}
}

func runRm(cmd *cobra.Command, pat string, tagArgs []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	matches, err := a.resolveTargets(cmd, pat, true)
	if err != nil {
		return err
	}

	for _, m := range matches {
		if m.Entry == nil {
			continue
		}

		removed := make([]string, 0, len(tagArgs))
		for _, arg := range tagArgs {
			name, value, err := parseTagArg(arg)
			if err != nil {
				return err
			}
			tag, ok := a.reg.TagByName(name)
			if !ok {
				a.printWarnings([]error{errors.UnknownTagError(name)})
				continue
			}
			if value == nil {
				if a.reg.RemoveTagFrom(m.Entry.ID, tag.ID) > 0 {
					removed = append(removed, "-"+a.ui.Tag(tag))
				}
			} else if a.reg.RemoveAssociation(m.Entry.ID, tag.ID, value) {
				removed = append(removed, "-"+a.ui.TagValue(tag, value))
			}
		}

		if len(removed) > 0 {
			fmt.Fprintf(a.out, "%s:\n\t%s\n", a.ui.Path(m.Path), strings.Join(removed, " "))
		}
	}

	return a.commit()
}
