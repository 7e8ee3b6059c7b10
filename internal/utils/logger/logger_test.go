package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	cfg := DefaultConfig()
	cfg.LogFile = path
	cfg.Compress = false

	l, err := New(cfg)
	require.NoError(t, err)

	l.WithOperation("airdrop").Info("requested")
	l.LogError("send failed", errors.New("boom"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "requested", first["msg"])
	assert.Equal(t, "airdrop", first["operation"])
	assert.NotEmpty(t, first["correlation_id"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "boom", second["error"])
}

func TestForCLI(t *testing.T) {
	cfg := ForCLI("", true)
	assert.Empty(t, cfg.LogFile)
	assert.True(t, cfg.Development)
	assert.Equal(t, DefaultConfig().MaxSize, cfg.MaxSize)
}

func TestNewWithoutFile(t *testing.T) {
	l, err := New(ForCLI("", false))
	require.NoError(t, err)
	assert.NotNil(t, l.WithComponent("test"))

	end := l.TrackPerformance("noop")
	end()
}
