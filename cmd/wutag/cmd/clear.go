package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <pattern>",
		Short: "Remove all tags from files matching a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, args[0])
		},
	}
}

func runClear(cmd *cobra.Command, pat string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	matches, err := a.resolveTargets(cmd, pat, true)
	if err != nil {
		return err
	}

	cleared := 0
	for _, m := range matches {
		if m.Entry == nil {
			continue
		}
		if n := a.reg.ClearFile(m.Entry.ID); n > 0 {
			cleared++
			fmt.Fprintf(a.out, "%s: cleared\n", a.ui.Path(m.Path))
		}
	}

	if cleared == 0 {
		fmt.Fprintf(a.out, "no tagged files matched %q\n", pat)
	}
	return a.commit()
}
