package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show registry statistics",
		Args:  cobra.NoArgs,
		RunE:  runInfo,
	}
}

func runInfo(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	stats := a.reg.Stats()
	fmt.Fprintln(a.out, a.ui.Header("registry"))
	fmt.Fprintf(a.out, "\tpath:         %s\n", a.reg.Path())
	if info, err := os.Stat(a.reg.Path()); err == nil {
		fmt.Fprintf(a.out, "\tsize:         %d bytes\n", info.Size())
	} else {
		fmt.Fprintf(a.out, "\tsize:         not yet committed\n")
	}
	fmt.Fprintf(a.out, "\ttags:         %d\n", stats.Tags)
	fmt.Fprintf(a.out, "\tfiles:        %d\n", stats.Files)
	fmt.Fprintf(a.out, "\tassociations: %d\n", stats.Associations)
	return nil
}
