package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORAGE_DRIVER", "SMOOTHING_WINDOW", "PEAK_THRESHOLD"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Analysis.SmoothingWindow)
	assert.Equal(t, 0.7, cfg.Analysis.PeakThreshold)
}

func TestLoad_FileValues(t *testing.T) {
	for _, key := range []string{"PORT", "SMOOTHING_WINDOW", "PEAK_THRESHOLD"} {
		t.Setenv(key, "")
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "9000"

[analysis]
smoothing_window = 5
peak_threshold = 0.8
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Analysis.SmoothingWindow)
	assert.Equal(t, 0.8, cfg.Analysis.PeakThreshold)
}

func TestLoad_AnalysisEnvOverrides(t *testing.T) {
	t.Setenv("SMOOTHING_WINDOW", "7")
	t.Setenv("PEAK_THRESHOLD", "0.85")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Analysis.SmoothingWindow)
	assert.Equal(t, 0.85, cfg.Analysis.PeakThreshold)
}

func TestLoad_MalformedAnalysisEnvIgnored(t *testing.T) {
	t.Setenv("SMOOTHING_WINDOW", "wide")
	t.Setenv("PEAK_THRESHOLD", "hot")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Analysis.SmoothingWindow)
	assert.Equal(t, 0.7, cfg.Analysis.PeakThreshold)
}
