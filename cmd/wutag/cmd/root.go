// Package cmd provides the CLI commands for wutag.
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wutag/wutag/internal/config"
	"github.com/wutag/wutag/internal/errors"
	"github.com/wutag/wutag/internal/logging"
	"github.com/wutag/wutag/internal/pattern"
	"github.com/wutag/wutag/internal/query"
	"github.com/wutag/wutag/internal/registry"
	"github.com/wutag/wutag/internal/ui"
	"github.com/wutag/wutag/internal/walker"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	dir          string
	maxDepth     int
	registryPath string
	global       bool

	regex           bool
	fixed           bool
	caseSensitive   bool
	caseInsensitive bool
	fullPath        bool

	fileTypes  []string
	extensions []string
	excludes   []string
	follow     bool

	colorMode string
	verbose   int
}

var gopts globalOptions

// NewRootCmd creates the root command for the wutag CLI.
func NewRootCmd() *cobra.Command {
	gopts = globalOptions{}

	cmd := &cobra.Command{
		Use:   "wutag",
		Short: "Tag files and search them by tag",
		Long: `wutag maintains persistent associations between filesystem paths and
named tags in a single registry file. Tags survive file moves: content
hashes let 'wutag repair' re-link entries whose paths went stale.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := logging.DefaultConfig()
			cfg.Level = logging.LevelFromVerbosity(gopts.verbose)
			logging.Setup(cfg)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&gopts.dir, "dir", "d", ".", "Base directory for filesystem traversal")
	pf.IntVarP(&gopts.maxDepth, "max-depth", "m", 0, "Maximum traversal depth (0 uses the configured default, negative is unbounded)")
	pf.StringVar(&gopts.registryPath, "registry", "", "Registry file to operate on (default: WUTAG_REGISTRY or the user cache dir)")
	pf.BoolVarP(&gopts.global, "global", "g", false, "Operate on every entry in the registry instead of walking the filesystem")
	pf.BoolVarP(&gopts.regex, "regex", "r", false, "Treat the pattern as a regular expression")
	pf.BoolVarP(&gopts.fixed, "fixed-string", "F", false, "Treat the pattern as a literal substring")
	pf.BoolVarP(&gopts.caseSensitive, "case-sensitive", "s", false, "Match the pattern case-sensitively")
	pf.BoolVarP(&gopts.caseInsensitive, "case-insensitive", "i", false, "Match the pattern case-insensitively")
	pf.BoolVarP(&gopts.fullPath, "full-path", "p", false, "Match the pattern against the full path instead of the base name")
	pf.StringSliceVarP(&gopts.fileTypes, "type", "t", nil, "Only match entries of this type: f|file, d|dir, l|symlink, e|empty, x|executable (repeatable)")
	pf.StringSliceVarP(&gopts.extensions, "ext", "e", nil, "Only match files with this extension (repeatable)")
	pf.StringSliceVarP(&gopts.excludes, "exclude", "E", nil, "Exclude paths matching this glob (repeatable)")
	pf.BoolVarP(&gopts.follow, "follow", "L", false, "Follow symlinks during traversal")
	pf.StringVar(&gopts.colorMode, "color", "auto", "When to colorize output: auto, always, never")
	pf.CountVarP(&gopts.verbose, "verbose", "v", "Increase log verbosity (repeatable)")

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCpCmd())
	cmd.AddCommand(newEditCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newRepairCmd())
	cmd.AddCommand(newCleanCacheCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// app bundles everything a subcommand needs once flags are resolved.
type app struct {
	cfg *config.Config
	reg *registry.Registry
	w   *walker.Walker
	out io.Writer
	ui  *ui.Renderer
}

// loadApp resolves configuration, opens the registry, and prepares output
// rendering for one command invocation.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	path, err := registry.ResolvePath(gopts.registryPath)
	if err != nil {
		return nil, err
	}

	var cipher registry.Cipher
	if cfg.Encryption.Enabled {
		key, err := registry.LoadKey(cfg.Encryption.KeyFile)
		if err != nil {
			return nil, err
		}
		cipher, err = registry.NewAESCipher(key)
		if err != nil {
			return nil, err
		}
	}

	reg, err := registry.Open(path, cipher)
	if err != nil {
		return nil, err
	}

	w, err := walker.New()
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	return &app{
		cfg: cfg,
		reg: reg,
		w:   w,
		out: out,
		ui:  ui.NewRenderer(gopts.colorMode, out, cfg.BaseColor, cfg.BorderColor),
	}, nil
}

// commit persists the registry, pruning unused tags first when configured.
func (a *app) commit() error {
	if !a.cfg.KeepUnusedTags {
		a.reg.PruneUnusedTags()
	}
	return a.reg.Commit()
}

// matcher compiles the user's pattern with the persistent matching flags.
func (a *app) matcher(pat string) (*pattern.Matcher, error) {
	mode := pattern.ModeGlob
	switch {
	case gopts.regex:
		mode = pattern.ModeRegex
	case gopts.fixed:
		mode = pattern.ModeFixed
	}

	var types []pattern.FileType
	for _, s := range gopts.fileTypes {
		ft, err := pattern.ParseFileType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, ft)
	}

	return pattern.New(pat, pattern.Options{
		Mode:            mode,
		CaseInsensitive: gopts.caseInsensitive && !gopts.caseSensitive,
		FullPath:        gopts.fullPath,
		Extensions:      gopts.extensions,
		Excludes:        gopts.excludes,
		FileTypes:       types,
	})
}

// walkOptions derives traversal bounds from flags and configuration.
func (a *app) walkOptions() walker.Options {
	depth := gopts.maxDepth
	if depth == 0 {
		depth = a.cfg.MaxDepth
	}
	return walker.Options{
		MaxDepth:       depth,
		FollowSymlinks: gopts.follow || a.cfg.FollowSymlinks,
		Ignores:        a.cfg.Ignores,
	}
}

// scope maps the --global flag onto a query scope.
func scope() query.Scope {
	if gopts.global {
		return query.ScopeGlobal
	}
	return query.ScopeLocal
}

// resolveTargets finds the files a pattern refers to. requireTagged
// restricts the result to files already in the registry; write commands
// that register new files leave it off.
func (a *app) resolveTargets(cmd *cobra.Command, pat string, requireTagged bool) ([]query.Match, error) {
	m, err := a.matcher(pat)
	if err != nil {
		return nil, err
	}

	res, err := query.Resolve(cmd.Context(), a.reg, a.w, query.Options{
		Scope:         scope(),
		Matcher:       m,
		Roots:         []string{gopts.dir},
		Walk:          a.walkOptions(),
		RequireTagged: requireTagged,
	})
	if err != nil {
		return nil, err
	}
	a.printWarnings(res.Warnings)
	return res.Matches, nil
}

// printWarnings writes non-fatal diagnostics to stderr-style output.
func (a *app) printWarnings(warnings []error) {
	for _, w := range warnings {
		fmt.Fprintln(a.out, a.ui.Warning("warning: "+w.Error()))
	}
}

// renderedTags formats every association of a file, values included.
func (a *app) renderedTags(id registry.FileID) []string {
	assocs := a.reg.AssociationsOf(id)
	out := make([]string, 0, len(assocs))
	for _, assoc := range assocs {
		tag, ok := a.reg.Tag(assoc.Tag)
		if !ok {
			continue
		}
		out = append(out, a.ui.TagValue(tag, assoc.Value))
	}
	return out
}

// parseTagArg splits a "name" or "name=value" tag argument.
func parseTagArg(arg string) (string, *string, error) {
	name, value, found := strings.Cut(arg, "=")
	if name == "" {
		return "", nil, errors.Newf(errors.ErrCodeUnknownTag, "empty tag name in %q", arg)
	}
	if !found {
		return name, nil, nil
	}
	return name, &value, nil
}

// parseTagFilters converts tag arguments into query filters.
func parseTagFilters(args []string) ([]query.TagFilter, error) {
	filters := make([]query.TagFilter, 0, len(args))
	for _, arg := range args {
		name, value, err := parseTagArg(arg)
		if err != nil {
			return nil, err
		}
		filters = append(filters, query.TagFilter{Name: name, Value: value})
	}
	return filters, nil
}
