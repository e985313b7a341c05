package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wutag/wutag/internal/registry"
)

func TestEditRenamePreservesAssociations(t *testing.T) {
	dir := taggedFixture(t)

	_, err := execute(t, "edit", "red", "--rename", "crimson")
	require.NoError(t, err)

	out, err := execute(t, "--dir", dir, "search", "crimson")
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "b.txt")
	assert.Contains(t, out, "c.txt")

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)
	_, ok := reg.TagByName("red")
	assert.False(t, ok)
}

func TestEditColorAcceptsNamesAndHex(t *testing.T) {
	taggedFixture(t)

	_, err := execute(t, "edit", "red", "--color", "BrightGreen")
	require.NoError(t, err)

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)
	tag, ok := reg.TagByName("red")
	require.True(t, ok)
	assert.Equal(t, "#8ae234", tag.Color)

	_, err = execute(t, "edit", "red", "--color", "FF0000")
	require.NoError(t, err)

	reg, err = registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)
	tag, _ = reg.TagByName("red")
	assert.Equal(t, "#ff0000", tag.Color)
}

func TestEditRejectsInvalidColor(t *testing.T) {
	taggedFixture(t)

	_, err := execute(t, "edit", "red", "--color", "notacolor")
	require.Error(t, err)
}

func TestEditUnknownTagFails(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "edit", "nosuchtag", "--rename", "other")
	require.Error(t, err)
}

func TestEditWithoutFlagsFails(t *testing.T) {
	taggedFixture(t)

	_, err := execute(t, "edit", "red")
	require.Error(t, err)
}
