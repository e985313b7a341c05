// Package ui renders tags and paths for terminal output.
package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/wutag/wutag/internal/errors"
	"github.com/wutag/wutag/internal/registry"
)

// namedColors maps the supported color names to hex values. Names are
// matched case-insensitively.
var namedColors = map[string]string{
	"black":         "#000000",
	"red":           "#cc0000",
	"green":         "#4e9a06",
	"yellow":        "#c4a000",
	"blue":          "#3465a4",
	"magenta":       "#75507b",
	"cyan":          "#06989a",
	"white":         "#d3d7cf",
	"brightblack":   "#555753",
	"brightred":     "#ef2929",
	"brightgreen":   "#8ae234",
	"brightyellow":  "#fce94f",
	"brightblue":    "#729fcf",
	"brightmagenta": "#ad7fa8",
	"brightcyan":    "#34e2e2",
	"brightwhite":   "#eeeeec",
}

var hexColorRe = regexp.MustCompile(`^#?(?:0x)?([0-9a-fA-F]{6})$`)

// ParseColor normalizes a user-supplied color to "#rrggbb". Accepts hex with
// or without a leading "#" or "0x", and the named palette, all
// case-insensitively.
func ParseColor(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if hex, ok := namedColors[strings.ToLower(trimmed)]; ok {
		return hex, nil
	}
	if m := hexColorRe.FindStringSubmatch(trimmed); m != nil {
		return "#" + strings.ToLower(m[1]), nil
	}
	return "", errors.Newf(errors.ErrCodeInvalidColor, "invalid color %q", s)
}

// Styles holds the lipgloss styles applied to each output element.
type Styles struct {
	Path    lipgloss.Style
	Header  lipgloss.Style
	Value   lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

// Renderer formats registry entities for one output stream.
type Renderer struct {
	enabled bool
	styles  Styles
}

// NewRenderer builds a Renderer. Color output respects, in order: the
// explicit never/always modes, the NO_COLOR convention, and whether the
// writer is a terminal.
func NewRenderer(mode string, w io.Writer, baseColor, borderColor string) *Renderer {
	enabled := false
	switch mode {
	case "always":
		enabled = true
	case "never":
		enabled = false
	default:
		enabled = !DetectNoColor() && IsTerminal(w)
	}

	r := &Renderer{enabled: enabled}
	if enabled {
		r.styles = Styles{
			Path:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(baseColor)),
			Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(borderColor)),
			Value:   lipgloss.NewStyle().Italic(true),
			Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#c4a000")),
			Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#cc0000")),
			Dim:     lipgloss.NewStyle().Faint(true),
		}
	}
	return r
}

// Enabled reports whether styling is active.
func (r *Renderer) Enabled() bool { return r.enabled }

// Tag renders a tag name in the tag's registered color.
func (r *Renderer) Tag(tag registry.Tag) string {
	if !r.enabled {
		return tag.Name
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(tag.Color)).Render(tag.Name)
}

// TagValue renders a tag together with a pinned value as "name=value".
func (r *Renderer) TagValue(tag registry.Tag, value *string) string {
	if value == nil {
		return r.Tag(tag)
	}
	if !r.enabled {
		return fmt.Sprintf("%s=%s", tag.Name, *value)
	}
	return r.Tag(tag) + r.styles.Dim.Render("=") + r.styles.Value.Render(*value)
}

// Path renders a file path in the configured base color.
func (r *Renderer) Path(path string) string {
	if !r.enabled {
		return path
	}
	return r.styles.Path.Render(path)
}

// Header renders a section heading.
func (r *Renderer) Header(s string) string {
	if !r.enabled {
		return s
	}
	return r.styles.Header.Render(s)
}

// Warning renders a non-fatal diagnostic line.
func (r *Renderer) Warning(s string) string {
	if !r.enabled {
		return s
	}
	return r.styles.Warning.Render(s)
}

// IsTerminal reports whether the writer is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
