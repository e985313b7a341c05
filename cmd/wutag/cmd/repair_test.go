package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wutag/wutag/internal/registry"
)

func TestRepairRelinkMovedFile(t *testing.T) {
	dir := taggedFixture(t)

	oldPath := filepath.Join(dir, "c.txt")
	newPath := filepath.Join(dir, "moved.txt")
	require.NoError(t, os.Rename(oldPath, newPath))

	out, err := execute(t, "repair", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 moved")

	res, err := execute(t, "--dir", dir, "search", "green")
	require.NoError(t, err)
	assert.Contains(t, res, "moved.txt", "tags follow the file to its new path")
}

func TestRepairDryRunLeavesRegistryUntouched(t *testing.T) {
	dir := taggedFixture(t)

	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.Remove(path))

	out, err := execute(t, "repair", "--dry-run", "--remove-orphans", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 missing")
	assert.Contains(t, out, "[dry run]")

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)
	canonical, err := registry.Canonicalize(path)
	require.NoError(t, err)
	_, ok := reg.FileByPath(canonical)
	assert.True(t, ok, "dry run must not remove entries")
}

func TestRepairRemoveOrphans(t *testing.T) {
	dir := taggedFixture(t)

	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.Remove(path))

	out, err := execute(t, "repair", "--remove-orphans", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 removed")

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)
	canonical, err := registry.Canonicalize(path)
	require.NoError(t, err)
	_, ok := reg.FileByPath(canonical)
	assert.False(t, ok)
}

func TestRepairDetectsModification(t *testing.T) {
	dir := taggedFixture(t)

	path := filepath.Join(dir, "b.txt")
	writeFile(t, path, "rewritten content")

	out, err := execute(t, "repair", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 modified")

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)
	canonical, err := registry.Canonicalize(path)
	require.NoError(t, err)
	entry, ok := reg.FileByPath(canonical)
	require.True(t, ok)
	assert.Equal(t, int64(len("rewritten content")), entry.Size)
}

func TestRepairManualMove(t *testing.T) {
	dir := taggedFixture(t)

	oldPath := filepath.Join(dir, "a.txt")
	newPath := filepath.Join(dir, "elsewhere.txt")
	require.NoError(t, os.Remove(oldPath))
	writeFile(t, newPath, "completely different content")

	out, err := execute(t, "repair", "--manual", oldPath+"="+newPath, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 moved")

	res, err := execute(t, "--dir", dir, "search", "red")
	require.NoError(t, err)
	assert.Contains(t, res, "elsewhere.txt")
}

func TestRepairRejectsMalformedManualMove(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "repair", "--manual", "justonepath")
	require.Error(t, err)
}

func TestCleanCacheDeletesRegistry(t *testing.T) {
	taggedFixture(t)
	regPath := os.Getenv(registry.EnvRegistry)
	require.FileExists(t, regPath)

	out, err := execute(t, "clean-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "removed")
	assert.NoFileExists(t, regPath)

	// A second run is a no-op, not an error.
	out, err = execute(t, "clean-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "already clean")
}

func TestCleanCacheUnusedTags(t *testing.T) {
	dir := taggedFixture(t)

	// Leave green without associations but keep the registry populated.
	_, err := execute(t, "--dir", dir, "rm", "c.txt", "green")
	require.NoError(t, err)

	out, err := execute(t, "clean-cache", "--unused-tags")
	require.NoError(t, err)
	assert.Contains(t, out, "pruned green")

	reg, err := registry.Open(os.Getenv(registry.EnvRegistry), nil)
	require.NoError(t, err)
	_, ok := reg.TagByName("green")
	assert.False(t, ok)
	_, ok = reg.TagByName("red")
	assert.True(t, ok)
}
