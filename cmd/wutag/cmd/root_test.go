package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wutag/wutag/internal/registry"
)

// testEnv points the registry and config at per-test locations and returns
// a directory for fixture files.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(registry.EnvRegistry, filepath.Join(t.TempDir(), "wutag.registry"))
	t.Setenv("WUTAG_CONFIG", filepath.Join(dir, "no-such-config.yml"))
	return dir
}

// execute runs the CLI with args and captures its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sc := range cmd.Commands() {
		names[sc.Name()] = true
	}

	for _, want := range []string{"set", "rm", "clear", "search", "cp", "edit", "list", "info", "repair", "clean-cache"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()
	pf := cmd.PersistentFlags()

	for _, name := range []string{"dir", "max-depth", "registry", "global", "regex", "fixed-string", "case-insensitive", "full-path", "type", "ext", "exclude", "follow", "color", "verbose"} {
		assert.NotNil(t, pf.Lookup(name), "missing persistent flag --%s", name)
	}

	assert.Equal(t, ".", pf.Lookup("dir").DefValue)
	assert.Equal(t, "auto", pf.Lookup("color").DefValue)
}

func TestParseTagArg(t *testing.T) {
	tests := []struct {
		input     string
		wantName  string
		wantValue *string
		wantErr   bool
	}{
		{input: "work", wantName: "work"},
		{input: "lang=rust", wantName: "lang", wantValue: strptr("rust")},
		{input: "lang=", wantName: "lang", wantValue: strptr("")},
		{input: "=rust", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, value, err := parseTagArg(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			if tt.wantValue == nil {
				assert.Nil(t, value)
			} else {
				require.NotNil(t, value)
				assert.Equal(t, *tt.wantValue, *value)
			}
		})
	}
}

func strptr(s string) *string { return &s }
