package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/localnav/internal/monitoring"
	"github.com/banshee-data/localnav/internal/navlog"
)

const scenarioPath = "../../config/scenarios/two-robots.yaml"

func TestRunPrintsSummary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-scenario", scenarioPath, "-ticks", "5", "-seed", "3"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "scenario two-robots: 5 ticks")
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "r2")
	assert.Contains(t, stderr.String(), "[localmap] ")
}

func TestRunRecordsToDatabase(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	cfgPath := filepath.Join(dir, "tuning.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"wander_std_dev": 0.2}`), 0o644))

	var stdout, stderr bytes.Buffer
	args := []string{"-scenario", scenarioPath, "-config", cfgPath, "-db", dbPath, "-ticks", "4", "-vv"}
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())
	assert.Contains(t, stderr.String(), "recording run")

	store, err := navlog.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	// The run id is only reported in the ops log.
	var runID string
	for _, line := range bytes.Split(stderr.Bytes(), []byte("\n")) {
		if i := bytes.Index(line, []byte("recording run ")); i >= 0 {
			fields := bytes.Fields(line[i+len("recording run "):])
			runID = string(fields[0])
		}
	}
	require.NotEmpty(t, runID)

	got, err := store.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, "two-robots", got.Name)
	assert.Equal(t, uint64(1), got.Seed)
	assert.Equal(t, 4, got.Ticks)
	require.NotNil(t, got.FinishedAt)

	ticks, err := store.Ticks(context.Background(), runID)
	require.NoError(t, err)
	assert.Len(t, ticks, 8)
}

func TestRunFlagErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctx := context.Background()

	assert.ErrorIs(t, run(ctx, nil, &stdout, &stderr), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"-scenario", scenarioPath, "-ticks", "-1"}, &stdout, &stderr), errUsage)
	assert.Error(t, run(ctx, []string{"-scenario", "missing.yaml"}, &stdout, &stderr))
	assert.Error(t, run(ctx, []string{"-scenario", scenarioPath, "-config", "missing.json"}, &stdout, &stderr))
	assert.Error(t, run(ctx, []string{"-bogus"}, &stdout, &stderr))
}

func TestVersionFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "navsim dev")
}
