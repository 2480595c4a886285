package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.toml"), filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "sheetcalc.toml", `
[names]
pattern = "^[A-Z]+[0-9]+$"
normalize = "upper"

[log]
level = "debug"
format = "json"

[server]
addr = "127.0.0.1:9000"

[storage]
lock_timeout = "750ms"
`)

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "^[A-Z]+[0-9]+$", cfg.Names.Pattern)
	assert.Equal(t, "upper", cfg.Names.Normalize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 750*time.Millisecond, cfg.Storage.LockTimeout.Duration)

	policy, err := cfg.NamePolicy()
	require.NoError(t, err)
	assert.Equal(t, "^[A-Z]+[0-9]+$", policy.Description)

	opts, err := cfg.SpreadsheetOptions(nil)
	require.NoError(t, err)
	s := spreadsheet.NewSpreadsheet(opts...)
	_, err = s.SetCell("b2", "=a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B2"}, s.GetNonemptyCellNames())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "sheetcalc.toml", "[server]\naddr = \":1\"\n")
	envFile := writeFile(t, "test.env", "SHEETCALC_LOG_FORMAT=json\n")
	t.Cleanup(func() { os.Unsetenv("SHEETCALC_LOG_FORMAT") })

	t.Setenv("SHEETCALC_SERVER_ADDR", ":2")
	t.Setenv("SHEETCALC_STORAGE_LOCK_TIMEOUT", "3s")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, ":2", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3*time.Second, cfg.Storage.LockTimeout.Duration)

	t.Setenv("SHEETCALC_STORAGE_LOCK_TIMEOUT", "soon")
	_, err = Load(path, envFile)
	assert.ErrorContains(t, err, "SHEETCALC_STORAGE_LOCK_TIMEOUT")
}

func TestLoadInvalid(t *testing.T) {
	path := writeFile(t, "bad.toml", `
[names]
pattern = "["
normalize = "sideways"

[log]
level = "loud"
format = "xml"

[storage]
lock_timeout = "0s"
`)

	_, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	for _, field := range []string{"names.pattern", "names.normalize", "log.level", "log.format", "storage.lock_timeout"} {
		assert.ErrorContains(t, err, field)
	}

	path = writeFile(t, "syntax.toml", "[names\n")
	_, err = Load(path, filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "parsing")
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "cell", "A1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"cell":"A1"`)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
	assert.Error(t, d.UnmarshalText([]byte("never")))
}
