package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/branchflow/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log:
  level: debug
server:
  addr: ":9090"
  shutdown_timeout: 3s
store:
  backend: redis
  redis:
    addr: redis:6379
    db: "2"
    ttl: 1h
analysis:
  cycle_mode: strict
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset keys keep defaults")
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, validation.CycleModeStrict, cfg.CycleMode())
	assert.Equal(t, 200.0, cfg.Analysis.NodeWidth)
	assert.True(t, cfg.Analysis.MultipleStart)
}

func TestParse_AcceptsJSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"analysis": {"node_width": 240, "multiple_start": false}}`))
	require.NoError(t, err)
	assert.Equal(t, 240.0, cfg.Analysis.NodeWidth)
	assert.False(t, cfg.Analysis.MultipleStart)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "stroe: {}",
		"unknown backend": "store: {backend: sqlite}",
		"unknown mode":    "analysis: {cycle_mode: dfs}",
		"negative width":  "analysis: {node_width: -1}",
		"bad duration":    "server: {shutdown_timeout: soon}",
		"not yaml":        "log: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store: {backend: file, dir: /tmp/flows}"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, BackendFile, cfg.Store.Backend)
		assert.Equal(t, "/tmp/flows", cfg.Store.Dir)
	})

	t.Run("default path is optional", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestParse_Encryption(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))
	old := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{2}, 32))

	cfg, err := Parse([]byte("store:\n  encryption:\n    key: " + key + "\n    fallback_keys: [" + old + "]\n"))
	require.NoError(t, err)
	require.True(t, cfg.Store.Encryption.Enabled())

	active, fallback, err := cfg.Store.Encryption.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte(2), fallback[0][0])

	_, err = Parse([]byte("store:\n  encryption:\n    key: c2hvcnQ=\n"))
	assert.ErrorContains(t, err, "32 bytes")

	assert.False(t, Default().Store.Encryption.Enabled())
}
