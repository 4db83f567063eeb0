package config

import (
	"os"
	"path/filepath"
	"taskTracker/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv обнуляет переменные, которые могли прийти из окружения разработчика
func clearEnv(t *testing.T) {
	t.Helper()
	for _, envs := range envBindings {
		for _, env := range envs {
			t.Setenv(env, "")
			os.Unsetenv(env)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, ":8000", cfg.GetServerAddr())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "database.db", cfg.Database.SQLitePath)
	assert.Equal(t, int32(10), cfg.Database.MaxConnections)
	assert.Equal(t, "my_todo_app", cfg.Media.Folder)
	assert.Equal(t, repository.TypeSQLite, cfg.StoreType())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/todo")
	t.Setenv("DATABASE_IDLE_TIMEOUT", "30s")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres://user:pass@db:5432/todo", cfg.Database.URL)
	assert.Equal(t, 30*time.Second, cfg.Database.IdleTimeout)
	assert.Equal(t, "demo", cfg.Media.CloudName)
	assert.Equal(t, repository.TypePostgres, cfg.StoreType())
}

func TestLoad_ExplicitRepositoryTypeWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/todo")
	t.Setenv("REPOSITORY_TYPE", "inmemory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, repository.TypeInMemory, cfg.StoreType())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown repository type", env: map[string]string{"REPOSITORY_TYPE": "mongo"}},
		{name: "port is not a number", env: map[string]string{"PORT": "http"}},
		{name: "min connections above max", env: map[string]string{
			"DATABASE_MAX_CONNECTIONS": "2",
			"DATABASE_MIN_CONNECTIONS": "5",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
server:
  port: "8081"
  shutdown_timeout: 3s
database:
  sqlite_path: /tmp/tasks.db
repository:
  type: sqlite
media:
  folder: uploads
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/tmp/tasks.db", cfg.Database.SQLitePath)
	assert.Equal(t, "uploads", cfg.Media.Folder)
	assert.Equal(t, repository.TypeSQLite, cfg.StoreType())

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv("PORT", "7000")
		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "7000", cfg.Server.Port)
	})
}

func TestLoadFile_Missing(t *testing.T) {
	clearEnv(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
