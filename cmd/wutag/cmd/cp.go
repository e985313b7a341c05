package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wutag/wutag/internal/errors"
	"github.com/wutag/wutag/internal/registry"
)

func newCpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <source> <pattern>",
		Short: "Copy the tags of one file onto all files matching a pattern",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCp(cmd, args[0], args[1])
		},
	}
}

func runCp(cmd *cobra.Command, source, pat string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	srcPath, err := registry.Canonicalize(source)
	if err != nil {
		return err
	}
	src, ok := a.reg.FileByPath(srcPath)
	if !ok {
		return errors.Newf(errors.ErrCodeUnknownFile, "%s carries no tags", srcPath)
	}
	assocs := a.reg.AssociationsOf(src.ID)
	if len(assocs) == 0 {
		return errors.Newf(errors.ErrCodeUnknownFile, "%s carries no tags", srcPath)
	}

	matches, err := a.resolveTargets(cmd, pat, false)
	if err != nil {
		return err
	}

	for _, m := range matches {
		if m.Path == srcPath {
			continue
		}
		entry, err := ensureEntry(a.reg, m)
		if err != nil {
			a.printWarnings([]error{err})
			continue
		}

		copied := make([]string, 0, len(assocs))
		for _, assoc := range assocs {
			if err := a.reg.AddAssociation(entry.ID, assoc.Tag, assoc.Value); err != nil {
				return err
			}
			if tag, ok := a.reg.Tag(assoc.Tag); ok {
				copied = append(copied, "+"+a.ui.TagValue(tag, assoc.Value))
			}
		}
		fmt.Fprintf(a.out, "%s:\n\t%s\n", a.ui.Path(m.Path), strings.Join(copied, " "))
	}

	return a.commit()
}
