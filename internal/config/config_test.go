package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialects"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringSlice("dialect", nil, "")
	fs.Bool("pretty", false, "")
	fs.Bool("if-not-exists", false, "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultDialect}, cfg.Dialects)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.False(t, cfg.PrettySet)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
dialects: [flink, risingwave]
pretty: true
output: out.sql
if_not_exists: true
`)

	t.Run("file", func(t *testing.T) {
		cfg, err := Load(path, newFlags())
		require.NoError(t, err)
		assert.Equal(t, []string{"flink", "risingwave"}, cfg.Dialects)
		assert.True(t, cfg.Pretty)
		assert.True(t, cfg.PrettySet)
		assert.True(t, cfg.IfNotExists)
		assert.Equal(t, "out.sql", cfg.Output)
		assert.Equal(t, path, cfg.ConfigFile)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("XSQL_DIALECTS", "DuckDB, postgres")
		t.Setenv("XSQL_OUTPUT", "env.sql")
		cfg, err := Load(path, newFlags())
		require.NoError(t, err)
		assert.Equal(t, []string{"duckdb", "postgres"}, cfg.Dialects)
		assert.Equal(t, "env.sql", cfg.Output)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("XSQL_OUTPUT", "env.sql")
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--dialect", "snowflake,ansi", "-o", "-", "--pretty=false"}))
		cfg, err := Load(path, fs)
		require.NoError(t, err)
		assert.Equal(t, []string{"snowflake", "ansi"}, cfg.Dialects)
		assert.Equal(t, "-", cfg.Output)
		assert.False(t, cfg.Pretty)
		assert.True(t, cfg.PrettySet)
	})

	t.Run("unset flags keep lower layers", func(t *testing.T) {
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"-v"}))
		cfg, err := Load(path, fs)
		require.NoError(t, err)
		assert.True(t, cfg.Verbose)
		assert.True(t, cfg.Pretty)
		assert.Equal(t, "out.sql", cfg.Output)
	})
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")

	_, err = Load(writeConfig(t, "dialects: [\n"), nil)
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "dialects: []\n"), nil)
	assert.ErrorContains(t, err, "no dialects")
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileNameAlt), []byte("verbose: true\n"), 0o600))

	assert.Equal(t, filepath.Join(root, ConfigFileNameAlt), FindConfigFile(nested))
	assert.Empty(t, FindConfigFile(t.TempDir()))
}

func TestApplyOverrides(t *testing.T) {
	path := writeConfig(t, `
dialect_overrides:
  postgres:
    qualify: true
    frame_time_unit: none
    functions:
      length: LEN
  flink:
    native_distinct: true
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	base := dialects.Builtin()
	reg, err := cfg.ApplyOverrides(base)
	require.NoError(t, err)

	pg, err := reg.Lookup("postgres")
	require.NoError(t, err)
	assert.True(t, pg.SupportsQualify())
	assert.Equal(t, core.TimeUnitNone, pg.FrameTimeUnit())
	spelling, ok := pg.Function("length")
	require.True(t, ok)
	assert.Equal(t, "LEN", spelling)
	assert.Equal(t, `"userId"`, pg.QuoteIdentifierIfNeeded("userId"))

	fl, err := reg.Lookup("flink")
	require.NoError(t, err)
	assert.True(t, fl.SupportsNativeDistinct())
	assert.True(t, fl.SupportsWindowTVF())

	// The base registry is untouched.
	orig, err := base.Lookup("postgres")
	require.NoError(t, err)
	assert.False(t, orig.SupportsQualify())
	spelling, _ = orig.Function("length")
	assert.Equal(t, "LENGTH", spelling)
}

func TestApplyOverrides_Errors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]map[string]any
		errSubstr string
	}{
		{"unknown dialect", map[string]map[string]any{"oracle": {"qualify": true}}, "unknown dialect"},
		{"unknown key", map[string]map[string]any{"duckdb": {"qualifies": true}}, "qualifies"},
		{"bad unit", map[string]map[string]any{"duckdb": {"frame_time_unit": "fortnight"}}, "fortnight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DialectOverrides: tt.overrides}
			_, err := cfg.ApplyOverrides(dialects.Builtin())
			assert.ErrorContains(t, err, tt.errSubstr)
		})
	}
}
