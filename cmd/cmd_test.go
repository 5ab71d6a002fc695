package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/automigrate/config"
	"github.com/ridoystarlord/automigrate/diff"
	"github.com/ridoystarlord/automigrate/generator"
	"github.com/ridoystarlord/automigrate/history"
	"github.com/ridoystarlord/automigrate/internal/testutil"
	"github.com/ridoystarlord/automigrate/loader"
	"github.com/ridoystarlord/automigrate/questioner"
	"github.com/ridoystarlord/automigrate/schema"
	"github.com/ridoystarlord/automigrate/validator"
)

var now = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	logger = testutil.NewTestLogger(t)
	return &config.Config{
		Source:        config.SourceYAML,
		SchemaFile:    filepath.Join(dir, config.DefaultSchemaFile),
		ModelsDir:     filepath.Join(dir, config.DefaultModelsDir),
		MigrationsDir: filepath.Join(dir, config.DefaultMigrationsDir),
	}
}

func TestInitProject_YAML(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, initProject(dir, config.SourceYAML, &out))
	assert.FileExists(t, filepath.Join(dir, config.DefaultConfigFile))
	assert.FileExists(t, filepath.Join(dir, config.DefaultSchemaFile))
	assert.DirExists(t, filepath.Join(dir, config.DefaultMigrationsDir))
	assert.Contains(t, out.String(), "Created schema.yaml")

	reg, err := loadRegistry(testConfig(t, dir))
	require.NoError(t, err)
	result := validator.Validate(reg)
	assert.True(t, result.Valid, result.Errors)
	assert.Empty(t, result.Warnings)

	// Second run leaves files alone
	out.Reset()
	require.NoError(t, initProject(dir, config.SourceYAML, &out))
	assert.Contains(t, out.String(), "already exists")
}

func TestInitProject_SourcesDeclareTheSameModels(t *testing.T) {
	yamlDir, structDir := t.TempDir(), t.TempDir()
	var out bytes.Buffer
	require.NoError(t, initProject(yamlDir, config.SourceYAML, &out))
	require.NoError(t, initProject(structDir, config.SourceStructs, &out))

	yamlReg, err := loader.LoadYAML(filepath.Join(yamlDir, config.DefaultSchemaFile))
	require.NoError(t, err)
	structReg, err := loader.LoadTags(filepath.Join(structDir, config.DefaultModelsDir))
	require.NoError(t, err)
	assert.True(t, validator.Validate(structReg).Valid)

	fromYAML, err := schema.FromRegistry(yamlReg)
	require.NoError(t, err)
	fromStructs, err := schema.FromRegistry(structReg)
	require.NoError(t, err)
	assert.Equal(t, fromYAML.Skeleton(), fromStructs.Skeleton())
}

func TestMakeMigrations_Workflow(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, initProject(dir, config.SourceYAML, &out))
	cfg := testConfig(t, dir)
	ctx := context.Background()

	// Dry run writes nothing
	out.Reset()
	require.NoError(t, makeMigrations(ctx, cfg, &questioner.Fixed{}, &out, makeOptions{DryRun: true, Now: now}))
	assert.Contains(t, out.String(), "# Migration: m0001_initial")
	entries, err := os.ReadDir(cfg.MigrationsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	out.Reset()
	require.NoError(t, makeMigrations(ctx, cfg, &questioner.Fixed{}, &out, makeOptions{Now: now}))
	assert.FileExists(t, filepath.Join(cfg.MigrationsDir, "m0001_initial.yaml"))
	release, err := generator.NewFileLock(cfg.MigrationsDir).Acquire(ctx)
	require.NoError(t, err, "lock released after the run")
	release()

	// Nothing left to do
	out.Reset()
	require.NoError(t, makeMigrations(ctx, cfg, &questioner.Fixed{}, &out, makeOptions{Now: now}))
	assert.Contains(t, out.String(), "No changes detected")
	require.NoError(t, checkProject(cfg, &out))

	// Add a nullable field to Tag
	data, err := os.ReadFile(cfg.SchemaFile)
	require.NoError(t, err)
	edited := strings.Replace(string(data), `      - name: label
        type: text
        unique: true
`, `      - name: label
        type: text
        unique: true
      - name: color
        type: text
        "null": true
`, 1)
	require.NotEqual(t, string(data), edited)
	require.NoError(t, os.WriteFile(cfg.SchemaFile, []byte(edited), 0o644))

	out.Reset()
	err = checkProject(cfg, &out)
	assert.ErrorContains(t, err, "1 change(s) not covered")
	assert.Contains(t, out.String(), "color")

	require.NoError(t, makeMigrations(ctx, cfg, &questioner.Fixed{}, &out, makeOptions{Name: "tag_color", Now: now}))
	path := filepath.Join(cfg.MigrationsDir, "m0002_tag_color.yaml")
	require.FileExists(t, path)

	graph, err := loadGraph(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"m0002_tag_color"}, graph.LeafNodes())
	second, ok := graph.Migration("m0002_tag_color")
	require.True(t, ok)
	assert.Equal(t, []string{"m0001_initial"}, second.Dependencies)
	require.Len(t, second.Operations, 1)
	assert.Equal(t, diff.AddField, second.Operations[0].Type)

	out.Reset()
	showHistory(&out, graph, true)
	assert.Contains(t, out.String(), "m0001_initial")
	assert.Contains(t, out.String(), "Add field color to Tag")
	require.NoError(t, checkProject(cfg, &out))
}

func TestMakeMigrations_LockHeld(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, initProject(dir, config.SourceYAML, &out))
	cfg := testConfig(t, dir)

	release, err := generator.NewFileLock(cfg.MigrationsDir).Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	err = makeMigrations(context.Background(), cfg, &questioner.Fixed{}, &out, makeOptions{Now: now})
	assert.ErrorContains(t, err, "acquire lock")
	assert.NoFileExists(t, filepath.Join(cfg.MigrationsDir, "m0001_initial.yaml"))
}

func TestMakeMigrations_InvalidName(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	err := makeMigrations(context.Background(), cfg, &questioner.Fixed{}, &bytes.Buffer{}, makeOptions{Name: "../x", Now: now})
	assert.ErrorContains(t, err, "invalid migration name")
}

func TestLoadProject_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	require.NoError(t, os.WriteFile(cfg.SchemaFile, []byte(`
models:
  - name: Book
    fields:
      - name: author
        kind: foreign_key
        to: Writer
`), 0o644))

	_, err := loadProject(cfg)
	assert.ErrorContains(t, err, "non-existent model 'Writer'")
}

func TestMigrationStatus(t *testing.T) {
	order := []*history.Migration{
		{Name: "m0001_initial"},
		{Name: "m0002_add_book_isbn", Dependencies: []string{"m0001_initial"}},
	}
	report := migrationStatus(order, []string{"m0001_initial", "m0009_gone"})

	assert.Equal(t, []string{"m0001_initial"}, report.Applied)
	assert.Equal(t, []string{"m0002_add_book_isbn"}, report.Pending)
	assert.Equal(t, []string{"m0009_gone"}, report.Unknown)

	var out bytes.Buffer
	showStatus(&out, report)
	assert.Contains(t, out.String(), "1 applied, 1 pending")
}

func TestRenderPlan(t *testing.T) {
	ops := []*diff.Operation{
		{Type: diff.CreateModel, Model: "Author", Fields: []schema.Field{{Name: "id"}}},
		{Type: diff.RenameModel, Model: "Pupil", OldName: "Student", NewName: "Pupil"},
		{
			Type:      diff.AddField,
			Model:     "Book",
			Fields:    []schema.Field{{Name: "author"}},
			DependsOn: []diff.Dependency{{Model: "author", Action: diff.ActionCreated}},
		},
	}

	var out bytes.Buffer
	renderPlan(&out, ops)
	text := out.String()
	assert.Contains(t, text, "create_model")
	assert.Contains(t, text, "Student → Pupil")
	assert.Contains(t, text, "author (created)")
}
