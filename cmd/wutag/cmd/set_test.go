package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wutag/wutag/internal/registry"
)

func TestSetTagsMatchingFiles(t *testing.T) {
	dir := testEnv(t)
	writeFile(t, filepath.Join(dir, "a.txt"), "content a")
	writeFile(t, filepath.Join(dir, "b.txt"), "content b")
	writeFile(t, filepath.Join(dir, "c.rs"), "content c")

	out, err := execute(t, "--dir", dir, "set", "*.txt", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "b.txt")
	assert.NotContains(t, out, "c.rs")

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Stats().Files)
	assert.Equal(t, 1, reg.Stats().Tags)
}

func TestSetStoresValuesAndHashes(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "hashable")

	_, err := execute(t, "--dir", dir, "set", "a.txt", "lang=rust")
	require.NoError(t, err)

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)

	canonical, err := registry.Canonicalize(path)
	require.NoError(t, err)
	entry, ok := reg.FileByPath(canonical)
	require.True(t, ok)
	assert.NotEmpty(t, entry.Hash, "first tagging computes the content hash")

	assocs := reg.AssociationsOf(entry.ID)
	require.Len(t, assocs, 1)
	require.NotNil(t, assocs[0].Value)
	assert.Equal(t, "rust", *assocs[0].Value)
}

func TestSetAssignsPaletteColors(t *testing.T) {
	dir := testEnv(t)
	writeFile(t, filepath.Join(dir, "a.txt"), "x")

	_, err := execute(t, "--dir", dir, "set", "a.txt", "first", "second")
	require.NoError(t, err)

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)

	first, ok := reg.TagByName("first")
	require.True(t, ok)
	second, ok := reg.TagByName("second")
	require.True(t, ok)
	assert.NotEmpty(t, first.Color)
	assert.NotEqual(t, first.Color, second.Color, "consecutive tags draw distinct palette colors")
}

func TestSetNoMatches(t *testing.T) {
	dir := testEnv(t)

	out, err := execute(t, "--dir", dir, "set", "*.doc", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "no files matched")
}

func TestSetIsIdempotent(t *testing.T) {
	dir := testEnv(t)
	writeFile(t, filepath.Join(dir, "a.txt"), "x")

	_, err := execute(t, "--dir", dir, "set", "a.txt", "work")
	require.NoError(t, err)
	_, err = execute(t, "--dir", dir, "set", "a.txt", "work")
	require.NoError(t, err)

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Stats().Associations)
}
