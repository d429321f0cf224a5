package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/astrolabe/pkg/cache"
	"github.com/matzehuels/astrolabe/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, cache.DefaultDataDir, c.DataDir)
	assert.Equal(t, cache.DefaultExcludedLibraries, c.ExcludedLibraries)
	assert.Equal(t, log.InfoLevel, c.Level())
	assert.NoError(t, c.Validate())
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "err = %v", err)
}

func TestLoad_FromXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, AppName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, AppName, FileName), []byte(`log_level = "debug"`), 0o644))

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, c.Level())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, c Config)
		wantErr errors.Code
	}{
		{
			name:    "extends excluded libraries",
			content: "excluded_libraries = [\"Vendored\", \"Mathlib\"]\n",
			check: func(t *testing.T, c Config) {
				assert.Len(t, c.ExcludedLibraries, len(cache.DefaultExcludedLibraries)+1)
				assert.Contains(t, c.ExcludedLibraries, "Vendored")
				assert.Contains(t, c.ExcludedLibraries, "Batteries")
			},
		},
		{
			name:    "replaces excluded libraries",
			content: "replace_excluded = true\nexcluded_libraries = [\"Mathlib\"]\n",
			check: func(t *testing.T, c Config) {
				assert.Equal(t, []string{"Mathlib"}, c.ExcludedLibraries)
			},
		},
		{
			name:    "all fields",
			content: "data_dir = \".cache/astrolabe\"\nlog_level = \"warn\"\nmetrics_file = \"/tmp/a.prom\"\nsessions_dir = \"/tmp/sessions\"\n",
			check: func(t *testing.T, c Config) {
				assert.Equal(t, ".cache/astrolabe", c.DataDir)
				assert.Equal(t, log.WarnLevel, c.Level())
				assert.Equal(t, "/tmp/a.prom", c.MetricsFile)
				assert.Equal(t, "/tmp/sessions", c.SessionsDir)
			},
		},
		{name: "escaping data dir", content: "data_dir = \"../elsewhere\"\n", wantErr: errors.ErrCodeInvalidPath},
		{name: "absolute data dir", content: "data_dir = \"/var/astrolabe\"\n", wantErr: errors.ErrCodeInvalidPath},
		{name: "bad log level", content: "log_level = \"loud\"\n", wantErr: errors.ErrCodeInvalidInput},
		{name: "bad library name", content: "excluded_libraries = [\"a/b\"]\n", wantErr: errors.ErrCodeInvalidInput},
		{name: "unknown key", content: "datadir = \"x\"\n", wantErr: errors.ErrCodeInvalidInput},
		{name: "not toml", content: "data_dir = \n", wantErr: errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeConfig(t, tt.content))
			if tt.wantErr != "" {
				assert.True(t, errors.Is(err, tt.wantErr), "err = %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestLoadOptions(t *testing.T) {
	c := Default()
	opts := c.LoadOptions()
	assert.Equal(t, c.DataDir, opts.DataDir)
	assert.Equal(t, c.ExcludedLibraries, opts.ExcludedLibraries)

	opts.ExcludedLibraries[0] = "changed"
	assert.NotEqual(t, "changed", c.ExcludedLibraries[0])
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", AppName), dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", AppName, FileName), path)
}
