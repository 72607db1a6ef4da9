package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/equisense/pkg/eq/logging"
	"github.com/komsit37/equisense/pkg/eq/screen"
	"github.com/komsit37/equisense/pkg/eq/snapshot"
	"github.com/komsit37/equisense/pkg/eq/types"
)

func TestParseThresholds(t *testing.T) {
	got, err := parseThresholds(map[string]string{"dividendYield": " 3.5", "forwardPE": "20"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"dividendYield": 3.5, "forwardPE": 20}, got)

	_, err = parseThresholds(map[string]string{"beta": "low"})
	assert.Error(t, err)
}

func TestOutput(t *testing.T) {
	var stdout bytes.Buffer
	w, path, closeFn, err := output(&stdout, "", "value", "table")
	require.NoError(t, err)
	assert.Same(t, &stdout, w)
	assert.Empty(t, path)
	require.NoError(t, closeFn())

	dir := t.TempDir()
	_, path, closeFn, err = output(&stdout, dir, "value", "csv")
	require.NoError(t, err)
	require.NoError(t, closeFn())
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "screen_value_"))
	assert.True(t, strings.HasSuffix(path, ".csv"))

	_, path, closeFn, err = output(&stdout, dir, "value", "json")
	require.NoError(t, err)
	require.NoError(t, closeFn())
	assert.True(t, strings.HasSuffix(path, ".json"))
}

// newTestApp runs commands against a config file in a temp dir.
func newTestApp(t *testing.T, snapshotPath string) (*app, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "equisense.yaml")
	cfg := "log:\n  level: disabled\nsnapshot:\n  path: " + snapshotPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return &app{v: viper.New(), log: logging.Nop()}, cfgPath
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := a.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestScreenCommand(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "snap.parquet")
	require.NoError(t, snapshot.NewStore(snap).Save(types.Dataset{
		{Ticker: "1301.T", CompanyName: types.String("極洋"), Beta: types.Float(0.3), CurrentPrice: types.Float(4000)},
		{Ticker: "7203.T", CompanyName: types.String("トヨタ自動車"), Beta: types.Float(1.1), CurrentPrice: types.Float(2850)},
	}))

	a, cfg := newTestApp(t, snap)
	out, err := execute(t, a, "--config", cfg, "screen", "stable", "--format", "syms")
	require.NoError(t, err)
	assert.Equal(t, "1301\n", out)

	a, cfg = newTestApp(t, snap)
	out, err = execute(t, a, "--config", cfg, "screen", "stable", "-f", "syms", "--set", "beta=2", "--max-price", "3000")
	require.NoError(t, err)
	assert.Equal(t, "7203\n", out)

	a, cfg = newTestApp(t, snap)
	out, err = execute(t, a, "--config", cfg, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Rows:      2")
}

func TestScreenCommand_NonFiniteThreshold(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "snap.parquet")
	require.NoError(t, snapshot.NewStore(snap).Save(types.Dataset{
		{Ticker: "1301.T", CompanyName: types.String("極洋"), Beta: types.Float(0.3), CurrentPrice: types.Float(4000)},
	}))

	a, cfg := newTestApp(t, snap)
	_, err := execute(t, a, "--config", cfg, "screen", "stable", "--set", "beta=NaN")
	assert.ErrorIs(t, err, screen.ErrBadThreshold)
}

func TestScreenCommand_NoSnapshot(t *testing.T) {
	a, cfg := newTestApp(t, filepath.Join(t.TempDir(), "missing.parquet"))
	_, err := execute(t, a, "--config", cfg, "screen", "value")
	assert.ErrorIs(t, err, snapshot.ErrNoSnapshot)
}

func TestStrategiesCommand(t *testing.T) {
	a, cfg := newTestApp(t, "snap.parquet")
	out, err := execute(t, a, "--config", cfg, "strategies", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: growth")
	assert.Contains(t, out, ">=")
}
