package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "simulated", cfg.Backend)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 256, cfg.Protocol.KeyLength)
	assert.Equal(t, 4, cfg.Protocol.TransmissionMultiplier)
	assert.Equal(t, 0.5, cfg.Protocol.InterceptRate)
	assert.Equal(t, 100, cfg.Batch.MaxRuns)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bb84d.yaml")

	cfg := Default()
	cfg.ListenAddr = ":9090"
	cfg.Backend = "circuit"
	cfg.Protocol.KeyLength = 128
	require.NoError(t, Write(path, cfg))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestReadAppliesDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bb84d.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":7070\"\n"), 0644))

	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "simulated", cfg.Backend)
	assert.Equal(t, 256, cfg.Protocol.KeyLength)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestReadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [:::"), 0644))

	_, err := Read(path)
	assert.Error(t, err)
}
