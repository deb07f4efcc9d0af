package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/orbitprop/internal/config"
	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/storage"
	"github.com/san-kum/orbitprop/internal/store"
)

const leoLegacy = "0 600\n7000 0 0 0 7.546049108166282 0\n"

// execute runs the CLI in a fresh working directory so that no settings
// file or stored runs leak between tests.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--log-level", "error"))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRoot_WritesTrajectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeFile(t, dir, "leo.cfg", leoLegacy)
	out := filepath.Join(dir, "out.tsv")

	require.NoError(t, execute(t, cfg, out, "--accuracy", "1e-3"))

	traj, err := store.ReadFile(out)
	require.NoError(t, err)
	require.Greater(t, traj.Len(), 2)
	assert.Equal(t, dynamo.NewState(7000, 0, 0, 0, 7.546049108166282, 0), traj.First().State)
	assert.InDelta(t, 7000, traj.Last().State.Radius(), 1)
}

func TestRoot_WithTimeAndCompression(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeFile(t, dir, "leo.cfg", leoLegacy)
	out := filepath.Join(dir, "out.tsv.zst")

	require.NoError(t, execute(t, cfg, out, "--with-time", "--accuracy", "1e-3"))

	traj, err := store.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 0.0, traj.First().Time)
	assert.Equal(t, 600.0, traj.Last().Time)
}

func TestRoot_Preset(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	out := filepath.Join(dir, "iss.tsv")

	require.NoError(t, execute(t, "iss", out, "--with-time"))
	traj, err := store.ReadFile(out)
	require.NoError(t, err)

	cfg, ok, err := config.PresetConfig("iss", dynamo.DefaultMu)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, cfg.StopTime, traj.Last().Time)
}

func TestRoot_MalformedConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeFile(t, dir, "short.cfg", "0 600 7000 0 0\n")
	out := filepath.Join(dir, "out.tsv")

	err := execute(t, cfg, out)
	require.ErrorIs(t, err, dynamo.ErrConfigMalformed)
	assert.NoFileExists(t, out)
}

func TestRoot_FailedRunLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeFile(t, dir, "fall.cfg", "0 5000\n7000 0 0 0 0 0\n")
	out := filepath.Join(dir, "out.tsv")

	err := execute(t, cfg, out, "--accuracy", "1e-3", "--min-radius", "500")
	require.ErrorIs(t, err, dynamo.ErrNumericDegeneracy)
	assert.NoFileExists(t, out)
}

func TestRoot_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeFile(t, dir, "leo.cfg", leoLegacy)

	err := execute(t, cfg, filepath.Join(dir, "out.tsv"), "--safety=-1")
	assert.ErrorIs(t, err, dynamo.ErrInvalidSettings)
}

func TestRoot_NeedsTwoArgs(t *testing.T) {
	assert.Error(t, execute(t, "only-one"))
}

func TestRunAndExport(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeFile(t, dir, "leo.cfg", leoLegacy)
	data := filepath.Join(dir, "runs")

	require.NoError(t, execute(t, "run", cfg, "--data", data, "--accuracy", "1e-3"))

	runs, err := storage.New(data).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "leo", runs[0].Name)
	assert.Contains(t, runs[0].Metrics, "energy_drift")

	id := runs[0].ID[:8]
	require.NoError(t, execute(t, "list", "--data", data))
	require.NoError(t, execute(t, "show", id, "--data", data))

	jsonPath := filepath.Join(dir, "export", "run.json")
	require.NoError(t, execute(t, "export", id, "--data", data, "-o", jsonPath))
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var exported store.ExportData
	require.NoError(t, json.Unmarshal(raw, &exported))
	assert.Equal(t, runs[0].Samples, len(exported.Samples))
	assert.Equal(t, 600.0, exported.StopTime)

	tsvPath := filepath.Join(dir, "run.tsv")
	require.NoError(t, execute(t, "export", id, "--data", data, "--format", "tsv", "-o", tsvPath))
	traj, err := store.ReadFile(tsvPath)
	require.NoError(t, err)
	assert.Equal(t, 600.0, traj.Last().Time)

	assert.Error(t, execute(t, "export", id, "--data", data, "--format", "xml"))
	assert.ErrorIs(t, execute(t, "show", "nope", "--data", data), storage.ErrRunNotFound)
}

func TestPlot_Image(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeFile(t, dir, "leo.cfg", leoLegacy)
	data := filepath.Join(dir, "runs")
	require.NoError(t, execute(t, "run", cfg, "--data", data))
	runs, err := storage.New(data).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	png := filepath.Join(dir, "orbit.png")
	require.NoError(t, execute(t, "plot", runs[0].ID, "--data", data, "--png", png))
	assert.FileExists(t, png)
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, execute(t, "config", "init", "--accuracy", "0.01"))
	assert.FileExists(t, config.DefaultSettingsFile)
	assert.Error(t, execute(t, "config", "init"))
	require.NoError(t, execute(t, "config", "init", "--force", "--accuracy", "0.5"))

	// the written file is picked up from the working directory
	s, err := config.LoadSettings("", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.Accuracy)
}

func TestConfigConvert(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	legacy := writeFile(t, dir, "leo.cfg", leoLegacy)
	yamlPath := filepath.Join(dir, "leo.yaml")
	back := filepath.Join(dir, "back.cfg")

	require.NoError(t, execute(t, "config", "convert", legacy, yamlPath))
	require.NoError(t, execute(t, "config", "convert", yamlPath, back))

	want, err := config.Load(legacy, dynamo.DefaultMu)
	require.NoError(t, err)
	got, err := config.Load(back, dynamo.DefaultMu)
	require.NoError(t, err)
	assert.Equal(t, want.InitialState, got.InitialState)
	assert.Equal(t, want.StopTime, got.StopTime)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	a := writeFile(t, dir, "a.cfg", leoLegacy)
	b := writeFile(t, dir, "b.cfg", "0 300\n8000 0 0 0 7.058 0\n")
	outDir := filepath.Join(dir, "out")

	require.NoError(t, execute(t, "batch", a, b, "--out-dir", outDir, "--workers", "2"))
	assert.FileExists(t, filepath.Join(outDir, "a.tsv"))
	assert.FileExists(t, filepath.Join(outDir, "b.tsv"))

	fall := writeFile(t, dir, "fall.cfg", "0 5000\n7000 0 0 0 0 0\n")
	err := execute(t, "batch", a, fall, "--accuracy", "1e-3", "--min-radius", "500")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestElementsAndCompare(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeFile(t, dir, "leo.cfg", leoLegacy)

	require.NoError(t, execute(t, "elements", cfg))
	require.NoError(t, execute(t, "elements", "gui-default"))
	require.NoError(t, execute(t, "presets"))
	require.NoError(t, execute(t, "compare", cfg, "--step", "5"))
	assert.Error(t, execute(t, "compare", cfg, "--step", "0"))

	require.NoError(t, execute(t, "sweep", cfg, "--values", "1,0.01"))
	assert.ErrorIs(t, execute(t, "sweep", cfg, "--param", "policy"), dynamo.ErrInvalidSettings)
}

func TestShow_EccentricRun(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	data := filepath.Join(dir, "runs")

	require.NoError(t, execute(t, "run", "molniya", "--data", data, "--accuracy", "1e-3"))
	runs, err := storage.New(data).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NoError(t, execute(t, "show", runs[0].ID, "--data", data))
	require.NoError(t, execute(t, "plot", runs[0].ID, "--data", data, "--energy"))
}

func TestNewLogger_Level(t *testing.T) {
	logLevel = "warn"
	defer func() { logLevel = "" }()
	logger := newLogger()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))

	logLevel = ""
	t.Setenv(config.EnvPrefix+"LOG_LEVEL", "debug")
	assert.True(t, newLogger().Enabled(t.Context(), slog.LevelDebug))
}
