package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kt.yaml")

	want := &Config{
		Host:           "db.internal",
		Port:           1979,
		Codec:          "msgpack",
		DecodeKeys:     false,
		Timeout:        5 * time.Second,
		ConnectionPool: false,
		DefaultDB:      2,
	}

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: [this is not\n  a valid: mapping"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
