package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/automigrate/questioner"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	for _, key := range []string{"SOURCE", "MIGRATIONS_DIR", "DATABASE_URL", "VERBOSE", "INTERACTIVE"} {
		t.Setenv(EnvPrefix+key, "")
		require.NoError(t, os.Unsetenv(EnvPrefix+key))
	}
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("migrations-dir", DefaultMigrationsDir, "")
	flags.String("source", SourceYAML, "")
	flags.Bool("verbose", false, "")
	flags.Bool("no-input", false, "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, SourceYAML, cfg.Source)
	assert.Equal(t, DefaultSchemaFile, cfg.SchemaFile)
	assert.Equal(t, DefaultModelsDir, cfg.ModelsDir)
	assert.Equal(t, DefaultMigrationsDir, cfg.MigrationsDir)
	assert.True(t, cfg.Interactive)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, time.Duration(0), cfg.LockTimeout)
	assert.Empty(t, cfg.File)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "automigrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source: structs
migrations_dir: from_file
database_url: postgres://file
lock_timeout: 5s
defaults:
  Book:
    isbn: "'n/a'"
    createdAt: now()
`), 0o644))

	t.Setenv("AUTOMIGRATE_MIGRATIONS_DIR", "from_env")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--verbose", "--no-input"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, SourceStructs, cfg.Source)
	assert.Equal(t, "from_env", cfg.MigrationsDir)
	assert.Equal(t, "postgres://file", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.Interactive)
	assert.Equal(t, map[string]string{"book.isbn": "'n/a'", "book.createdAt": "now()"}, cfg.BackfillDefaults())

	q := &questioner.NonInteractive{Defaults: cfg.BackfillDefaults()}
	value, ok := q.AskNotNullDefault("Book", "createdAt")
	assert.True(t, ok)
	assert.Equal(t, "now()", value)

	flags = newFlags()
	require.NoError(t, flags.Parse([]string{"--migrations-dir", "from_flag"}))
	cfg, err = Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.MigrationsDir)
}

func TestLoad_DatabaseURLFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "automigrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: xml\n"), 0o644))
	_, err = Load(path, nil)
	assert.ErrorContains(t, err, "unknown model source")
}
