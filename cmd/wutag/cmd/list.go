package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wutag/wutag/internal/errors"
	"github.com/wutag/wutag/internal/registry"
)

// listOptions holds CLI flags for list.
type listOptions struct {
	withTags  bool
	withFiles bool
	format    string
}

func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:       "list {files|tags}",
		Short:     "List registered files or tags",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"files", "tags"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.withTags, "with-tags", false, "Show each file's tags (files view)")
	cmd.Flags().BoolVar(&opts.withFiles, "with-files", false, "Show each tag's files (tags view)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: text, json, yaml (default from config)")

	return cmd
}

func runList(cmd *cobra.Command, what string, opts listOptions) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	format := opts.format
	if format == "" {
		format = a.cfg.Format
	}
	if format == "" {
		format = "text"
	}

	switch format {
	case "text":
		return a.listText(what, opts)
	case "json", "yaml":
		return a.listStructured(what, format)
	default:
		return errors.Newf(errors.ErrCodeConfigInvalid, "unsupported format %q", format)
	}
}

func (a *app) listText(what string, opts listOptions) error {
	switch what {
	case "files":
		for _, f := range a.reg.Files() {
			if opts.withTags {
				fmt.Fprintf(a.out, "%s:\n\t%s\n", a.ui.Path(f.Path), strings.Join(a.renderedTags(f.ID), " "))
			} else {
				fmt.Fprintln(a.out, a.ui.Path(f.Path))
			}
		}
	case "tags":
		for _, t := range a.reg.Tags() {
			if opts.withFiles {
				fmt.Fprintf(a.out, "%s:\n", a.ui.Tag(t))
				for _, f := range a.reg.FilesWith(t.ID) {
					fmt.Fprintf(a.out, "\t%s\n", a.ui.Path(f.Path))
				}
			} else {
				fmt.Fprintln(a.out, a.ui.Tag(t))
			}
		}
	}
	return nil
}

// listStructured emits the view as a document for piping into other tools.
func (a *app) listStructured(what, format string) error {
	var doc any
	switch what {
	case "files":
		type fileView struct {
			Path string   `json:"path" yaml:"path"`
			Tags []string `json:"tags" yaml:"tags"`
		}
		files := a.reg.Files()
		views := make([]fileView, 0, len(files))
		for _, f := range files {
			views = append(views, fileView{Path: f.Path, Tags: tagNames(a.reg, f.ID)})
		}
		doc = views
	case "tags":
		type tagView struct {
			Name  string   `json:"name" yaml:"name"`
			Color string   `json:"color" yaml:"color"`
			Files []string `json:"files" yaml:"files"`
		}
		tags := a.reg.Tags()
		views := make([]tagView, 0, len(tags))
		for _, t := range tags {
			var paths []string
			for _, f := range a.reg.FilesWith(t.ID) {
				paths = append(paths, f.Path)
			}
			views = append(views, tagView{Name: t.Name, Color: t.Color, Files: paths})
		}
		doc = views
	}

	if format == "json" {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	enc := yaml.NewEncoder(a.out)
	defer func() { _ = enc.Close() }()
	return enc.Encode(doc)
}

// tagNames returns the bare tag names of a file, values elided.
func tagNames(reg *registry.Registry, id registry.FileID) []string {
	tags := reg.TagsOf(id)
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
