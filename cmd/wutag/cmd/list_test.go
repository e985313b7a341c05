package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestListFiles(t *testing.T) {
	dir := taggedFixture(t)

	out, err := execute(t, "list", "files")
	require.NoError(t, err)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		assert.Contains(t, out, filepath.Join(dir, name))
	}
}

func TestListFilesWithTags(t *testing.T) {
	taggedFixture(t)

	out, err := execute(t, "list", "files", "--with-tags")
	require.NoError(t, err)
	assert.Contains(t, out, "red")
	assert.Contains(t, out, "green")
}

func TestListTags(t *testing.T) {
	taggedFixture(t)

	out, err := execute(t, "list", "tags")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"blue", "green", "red"}, lines, "tags list sorted by name")
}

func TestListTagsWithFiles(t *testing.T) {
	dir := taggedFixture(t)

	out, err := execute(t, "list", "tags", "--with-files")
	require.NoError(t, err)
	assert.Contains(t, out, "green:")
	assert.Contains(t, out, filepath.Join(dir, "c.txt"))
}

func TestListFilesJSON(t *testing.T) {
	dir := taggedFixture(t)

	out, err := execute(t, "list", "files", "--format", "json")
	require.NoError(t, err)

	var views []struct {
		Path string   `json:"path"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)
	assert.Equal(t, filepath.Join(dir, "a.txt"), views[0].Path)
	assert.Equal(t, []string{"red"}, views[0].Tags)
}

func TestListTagsYAML(t *testing.T) {
	taggedFixture(t)

	out, err := execute(t, "list", "tags", "--format", "yaml")
	require.NoError(t, err)

	var views []struct {
		Name  string   `yaml:"name"`
		Color string   `yaml:"color"`
		Files []string `yaml:"files"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)
	assert.Equal(t, "blue", views[0].Name)
	assert.NotEmpty(t, views[0].Color)
	assert.Len(t, views[0].Files, 2)
}

func TestListRejectsUnknownFormat(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "list", "files", "--format", "csv")
	require.Error(t, err)
}

func TestListRejectsUnknownView(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "list", "everything")
	require.Error(t, err)
}

func TestInfoShowsCounts(t *testing.T) {
	taggedFixture(t)

	out, err := execute(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "tags:         3")
	assert.Contains(t, out, "files:        3")
	assert.Contains(t, out, "associations: 6")
	assert.Contains(t, out, "wutag.registry")
}

func TestCpCopiesTagSet(t *testing.T) {
	dir := taggedFixture(t)
	writeFile(t, filepath.Join(dir, "new.txt"), "fresh")

	out, err := execute(t, "--dir", dir, "cp", filepath.Join(dir, "c.txt"), "new.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "new.txt")

	res, err := execute(t, "--dir", dir, "search", "red", "blue", "green")
	require.NoError(t, err)
	assert.Contains(t, res, "new.txt")
	assert.Contains(t, res, "c.txt")
}

func TestCpUntaggedSourceFails(t *testing.T) {
	dir := testEnv(t)
	writeFile(t, filepath.Join(dir, "plain.txt"), "x")
	writeFile(t, filepath.Join(dir, "other.txt"), "y")

	_, err := execute(t, "--dir", dir, "cp", filepath.Join(dir, "plain.txt"), "other.txt")
	require.Error(t, err)
}
