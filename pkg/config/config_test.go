package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromReader_EmptyInputYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromReader_OverlaysOntoDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
worker_pool_size: 8
enumeration_mode: bfs
`))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.WorkerPoolSize)
	assert.Equal(t, EnumerationBFS, cfg.EnumerationMode)
	assert.Equal(t, "info", cfg.Logging.Level) // untouched default
}

func TestLoadFromReader_RejectsUnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("bogus_field: 1\n"))
	assert.Error(t, err)
}

func TestValidate_RejectsNegativeWorkerPool(t *testing.T) {
	cfg := Default()
	cfg.WorkerPoolSize = -1
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsUnknownEnumerationMode(t *testing.T) {
	cfg := Default()
	cfg.EnumerationMode = "quux"
	assert.Error(t, Validate(cfg))
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/does-not-exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
