package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tagerrors "github.com/wutag/wutag/internal/errors"
	"github.com/wutag/wutag/internal/registry"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hex with hash", "#FF0000", "#ff0000"},
		{"hex without hash", "ff0000", "#ff0000"},
		{"hex with 0x prefix", "0xFF0000", "#ff0000"},
		{"named lowercase", "red", "#cc0000"},
		{"named mixed case", "BrightGreen", "#8ae234"},
		{"surrounding whitespace", "  cyan  ", "#06989a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColorRejectsInvalid(t *testing.T) {
	for _, input := range []string{"", "#ff00", "notacolor", "#gggggg", "#ff0000ff"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseColor(input)
			require.Error(t, err)
			assert.Equal(t, tagerrors.ErrCodeInvalidColor, tagerrors.CodeOf(err))
		})
	}
}

func TestRendererDisabledPassesThrough(t *testing.T) {
	r := NewRenderer("never", &bytes.Buffer{}, "#ffffff", "#ffffff")

	tag := registry.Tag{Name: "work", Color: "#ff0000"}
	value := "high"

	assert.False(t, r.Enabled())
	assert.Equal(t, "work", r.Tag(tag))
	assert.Equal(t, "work=high", r.TagValue(tag, &value))
	assert.Equal(t, "/tmp/a.txt", r.Path("/tmp/a.txt"))
	assert.Equal(t, "TAGS", r.Header("TAGS"))
}

func TestRendererAlwaysStylesTags(t *testing.T) {
	r := NewRenderer("always", &bytes.Buffer{}, "#ffffff", "#ffffff")

	tag := registry.Tag{Name: "work", Color: "#ff0000"}
	out := r.Tag(tag)

	assert.True(t, r.Enabled())
	assert.Contains(t, out, "work")
}

func TestRendererAutoDisabledForNonTerminal(t *testing.T) {
	r := NewRenderer("auto", &bytes.Buffer{}, "#ffffff", "#ffffff")
	assert.False(t, r.Enabled(), "a bytes.Buffer is not a terminal")
}

func TestIsTerminalNonFile(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
