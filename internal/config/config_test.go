package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	for _, k := range []string{"TRACK_DATA_DIR", "TRACK_LOCK_FILE", "TRACK_DATABASE_FILE", "TRACK_LOG_LEVEL", "TRACK_LOG_FILE"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return root
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaults(t *testing.T) {
	root := isolate(t)
	cfg, err := Load(Options{})
	require.NoError(t, err)

	dataDir := filepath.Join(root, "data", "track")
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, DefaultLockFile), cfg.LockPath())
	assert.Equal(t, filepath.Join(dataDir, DefaultDatabaseFile), cfg.DatabasePath())
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Empty(t, cfg.Logger().File)

	paths := cfg.TrackerPaths()
	assert.Equal(t, cfg.LockPath(), paths.LockFile)
	assert.Equal(t, cfg.DatabasePath(), paths.DatabaseFile)
}

func TestConfigFileInConfigDir(t *testing.T) {
	root := isolate(t)
	writeConfig(t, filepath.Join(root, "config", "track"), `
data_dir = "/srv/track"
database_file = "records.json"

[log]
level = "debug"
file = "track.log"
max_backups = 5
`)
	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "/srv/track/records.json", cfg.DatabasePath())
	assert.Equal(t, "/srv/track/track.lock", cfg.LockPath())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/srv/track/track.log", cfg.Logger().File)
	assert.Equal(t, 5, cfg.Logger().MaxBackups)
}

func TestExplicitConfigFile(t *testing.T) {
	root := isolate(t)
	p := writeConfig(t, filepath.Join(root, "elsewhere"), `lock_file = "/tmp/custom.lock"`)
	cfg, err := Load(Options{ConfigFile: p})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.lock", cfg.LockPath())
}

func TestExplicitConfigFileMissing(t *testing.T) {
	root := isolate(t)
	_, err := Load(Options{ConfigFile: filepath.Join(root, "nope.toml")})
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	root := isolate(t)
	writeConfig(t, filepath.Join(root, "config", "track"), `data_dir = "/from/file"`)
	t.Setenv("TRACK_DATA_DIR", "/from/env")
	t.Setenv("TRACK_LOG_LEVEL", "error")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TRACK_DATA_DIR", "/from/env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("data-dir", "", "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse([]string{"--data-dir", "/from/flag"}))

	cfg, err := Load(Options{Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.DataDir)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DataDir: "/d", LockFile: "same", DatabaseFile: "same", Log: LogConfig{Level: "info"}}
	assert.ErrorContains(t, cfg.Validate(), "must differ")

	cfg = &Config{DataDir: "/d", LockFile: "a", DatabaseFile: "b", Log: LogConfig{Level: "shout"}}
	assert.ErrorContains(t, cfg.Validate(), "unknown log level")

	cfg = &Config{Log: LogConfig{Level: "info"}}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "data_dir")
	assert.ErrorContains(t, err, "lock_file")
	assert.ErrorContains(t, err, "database_file")
}

func TestInvalidFileValue(t *testing.T) {
	root := isolate(t)
	writeConfig(t, filepath.Join(root, "config", "track"), `
[log]
level = "verbose"
`)
	_, err := Load(Options{})
	assert.ErrorContains(t, err, "unknown log level")
}
