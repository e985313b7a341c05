package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wutag/wutag/internal/ui"
)

// editOptions holds CLI flags for edit.
type editOptions struct {
	rename string
	color  string
}

func newEditCmd() *cobra.Command {
	var opts editOptions

	cmd := &cobra.Command{
		Use:   "edit <tag>",
		Short: "Rename a tag or change its color",
		Long: `Edit an existing tag. Renaming preserves the tag's color and every
association. Colors accept hex (#FF0000, ff0000) and named palette
entries, case-insensitively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.rename, "rename", "", "New name for the tag")
	cmd.Flags().StringVarP(&opts.color, "color", "c", "", "New color for the tag")

	return cmd
}

func runEdit(cmd *cobra.Command, name string, opts editOptions) error {
	if opts.rename == "" && opts.color == "" {
		return fmt.Errorf("nothing to edit: pass --rename or --color")
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	if opts.color != "" {
		hex, err := ui.ParseColor(opts.color)
		if err != nil {
			return err
		}
		tag, err := a.reg.SetTagColor(name, hex)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: color set to %s\n", a.ui.Tag(tag), hex)
	}

	if opts.rename != "" {
		tag, err := a.reg.RenameTag(name, opts.rename)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: renamed from %s\n", a.ui.Tag(tag), name)
	}

	return a.commit()
}
