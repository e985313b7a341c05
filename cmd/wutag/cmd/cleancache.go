package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wutag/wutag/internal/registry"
)

func newCleanCacheCmd() *cobra.Command {
	var unusedTags bool

	cmd := &cobra.Command{
		Use:   "clean-cache",
		Short: "Delete the registry, or prune unused tags",
		Long: `Delete the registry snapshot entirely, losing every association. This
is the recovery path for a corrupt registry. With --unused-tags, only
tags without associations are pruned and the registry is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCleanCache(cmd, unusedTags)
		},
	}

	cmd.Flags().BoolVar(&unusedTags, "unused-tags", false, "Prune tags without associations instead of deleting the registry")

	return cmd
}

func runCleanCache(cmd *cobra.Command, unusedTags bool) error {
	if unusedTags {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		pruned := a.reg.PruneUnusedTags()
		for _, name := range pruned {
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %s\n", name)
		}
		if len(pruned) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no unused tags")
			return nil
		}
		return a.reg.Commit()
	}

	// Deleting must work even when the snapshot no longer deserializes,
	// so the registry is never opened here.
	path, err := registry.ResolvePath(gopts.registryPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "registry already clean")
			return nil
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", path)
	return nil
}
