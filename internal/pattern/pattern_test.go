package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wutag/wutag/internal/errors"
)

func TestGlobMatching(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "star matches suffix", pattern: "*.rs", path: "/src/main.rs", want: true},
		{name: "star no match other ext", pattern: "*.rs", path: "/src/main.go", want: false},
		{name: "star matches whole base name", pattern: "*.rs", path: "/a/b.rs", want: true},
		{name: "question mark single char", pattern: "file?.txt", path: "/tmp/file1.txt", want: true},
		{name: "question mark rejects two chars", pattern: "file?.txt", path: "/tmp/file12.txt", want: false},
		{name: "char class", pattern: "file[0-9].txt", path: "/tmp/file7.txt", want: true},
		{name: "char class no match", pattern: "file[0-9].txt", path: "/tmp/fileA.txt", want: false},
		{name: "negated class", pattern: "file[!0-9].txt", path: "/tmp/fileA.txt", want: true},
		{name: "exact name", pattern: "Makefile", path: "/proj/Makefile", want: true},
		{name: "anchored both ends", pattern: "main", path: "/src/main.rs", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.pattern, Options{Mode: ModeGlob})
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Matches(tt.path, nil))
		})
	}
}

func TestGlobFullPath(t *testing.T) {
	m, err := New("/src/**/*.rs", Options{Mode: ModeGlob, FullPath: true})
	require.NoError(t, err)

	assert.True(t, m.Matches("/src/a/b/main.rs", nil))
	assert.True(t, m.Matches("/src/main.rs", nil))
	assert.False(t, m.Matches("/lib/main.rs", nil))
}

func TestRegexMatching(t *testing.T) {
	m, err := New(`^ma.n\.(rs|go)$`, Options{Mode: ModeRegex})
	require.NoError(t, err)

	assert.True(t, m.Matches("/src/main.rs", nil))
	assert.True(t, m.Matches("/src/main.go", nil))
	assert.False(t, m.Matches("/src/main.py", nil))
}

func TestFixedStringMatching(t *testing.T) {
	m, err := New("main", Options{Mode: ModeFixed})
	require.NoError(t, err)

	assert.True(t, m.Matches("/src/main.rs", nil))
	assert.True(t, m.Matches("/src/remains.txt", nil))
	assert.False(t, m.Matches("/src/lib.rs", nil))
}

func TestCaseInsensitive(t *testing.T) {
	sensitive, err := New("*.RS", Options{Mode: ModeGlob})
	require.NoError(t, err)
	insensitive, err := New("*.RS", Options{Mode: ModeGlob, CaseInsensitive: true})
	require.NoError(t, err)

	assert.False(t, sensitive.Matches("/src/main.rs", nil))
	assert.True(t, insensitive.Matches("/src/main.rs", nil))
}

func TestInvalidPatternFailsFast(t *testing.T) {
	_, err := New("(unclosed", Options{Mode: ModeRegex})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePatternInvalid, errors.CodeOf(err))
	assert.True(t, errors.IsFatal(err))
}

func TestExtensionFilter(t *testing.T) {
	m, err := New("*", Options{Mode: ModeGlob, Extensions: []string{"rs", ".go"}})
	require.NoError(t, err)

	assert.True(t, m.Matches("/src/main.rs", nil))
	assert.True(t, m.Matches("/src/main.go", nil))
	assert.False(t, m.Matches("/src/main.py", nil))
	assert.False(t, m.Matches("/src/Makefile", nil))
}

func TestExcludeFilter(t *testing.T) {
	m, err := New("*.rs", Options{Mode: ModeGlob, Excludes: []string{"test_*"}})
	require.NoError(t, err)

	assert.True(t, m.Matches("/src/main.rs", nil))
	assert.False(t, m.Matches("/src/test_main.rs", nil))
}

func TestFileTypeFilter(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("content"), 0o644))
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	exec := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(exec, []byte("#!/bin/sh\n"), 0o755))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	stat := func(p string) os.FileInfo {
		info, err := os.Lstat(p)
		require.NoError(t, err)
		return info
	}

	files, err := New("*", Options{Mode: ModeGlob, FileTypes: []FileType{TypeFile}})
	require.NoError(t, err)
	assert.True(t, files.Matches(file, stat(file)))
	assert.False(t, files.Matches(sub, stat(sub)))

	dirs, err := New("*", Options{Mode: ModeGlob, FileTypes: []FileType{TypeDir}})
	require.NoError(t, err)
	assert.True(t, dirs.Matches(sub, stat(sub)))
	assert.False(t, dirs.Matches(file, stat(file)))

	empties, err := New("*", Options{Mode: ModeGlob, FileTypes: []FileType{TypeEmpty}})
	require.NoError(t, err)
	assert.True(t, empties.Matches(empty, stat(empty)))
	assert.False(t, empties.Matches(file, stat(file)))

	execs, err := New("*", Options{Mode: ModeGlob, FileTypes: []FileType{TypeExecutable}})
	require.NoError(t, err)
	assert.True(t, execs.Matches(exec, stat(exec)))
	assert.False(t, execs.Matches(file, stat(file)))
}

func TestFileTypeSkippedWithoutMetadata(t *testing.T) {
	m, err := New("*", Options{Mode: ModeGlob, FileTypes: []FileType{TypeDir}})
	require.NoError(t, err)

	// Global-scope matching has no live stat; type filters do not apply.
	assert.True(t, m.Matches("/stored/path.txt", nil))
}

func TestParseFileType(t *testing.T) {
	for in, want := range map[string]FileType{
		"f": TypeFile, "file": TypeFile,
		"d": TypeDir, "dir": TypeDir, "directory": TypeDir,
		"l": TypeSymlink, "symlink": TypeSymlink,
		"e": TypeEmpty, "empty": TypeEmpty,
		"x": TypeExecutable, "executable": TypeExecutable,
	} {
		got, err := ParseFileType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFileType("bogus")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePatternInvalid, errors.CodeOf(err))
}
