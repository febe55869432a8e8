package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"schema_migrator/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  engine: sqlite
  name: app.db
history_table: schema_history
directory: db/migrations
log_level: debug
http_addr: :9090
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Database.Engine)
	require.Equal(t, "app.db", cfg.Database.Name)
	require.Equal(t, "schema_history", cfg.HistoryTable)
	require.Equal(t, "db/migrations", cfg.Directory)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, ":9090", cfg.HTTPAddress)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "sqlite://:memory:"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "migration_history", cfg.HistoryTable)
	require.Equal(t, "migrations", cfg.Directory)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, ":8080", cfg.HTTPAddress)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: sqlite://file.db
log_level: info
`)

	t.Setenv("MIGRATOR_DB_URL", "sqlite://other.db")
	t.Setenv("MIGRATOR_LOG_LEVEL", "debug")
	t.Setenv("MIGRATOR_HISTORY_TABLE", "ops_history")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite://other.db", cfg.Database.URL)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "ops_history", cfg.HistoryTable)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRequiresDatabase(t *testing.T) {
	path := writeConfig(t, `
log_level: info
`)

	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "database.url or database.engine")
}

func TestSource(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Database: config.Database{URL: "postgres://localhost/app"}}
	src := cfg.Source()
	require.Equal(t, "postgres://localhost/app", src.URL)
	require.Nil(t, src.Config)

	cfg = config.Config{Database: config.Database{
		Engine: "mysql",
		Name:   "app",
		Params: map[string]string{"host": "db.internal"},
	}}
	src = cfg.Source()
	require.Empty(t, src.URL)
	require.NotNil(t, src.Config)
	require.Equal(t, "mysql", src.Config.Engine)
	require.Equal(t, "db.internal", src.Config.Params["host"])
}
