// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"taskTracker/internal/repository"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Media      MediaConfig      `mapstructure:"media"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	SQLitePath     string        `mapstructure:"sqlite_path" validate:"required"`
	MaxConnections int32         `mapstructure:"max_connections" validate:"gte=1"`
	MinConnections int32         `mapstructure:"min_connections" validate:"gte=0,ltefield=MaxConnections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type" validate:"omitempty,oneof=postgres sqlite inmemory"`
}

type MediaConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder" validate:"required"`
}

// ключ конфига -> переменные окружения, первая найденная побеждает
var envBindings = map[string][]string{
	"server.host":              {"SERVER_HOST"},
	"server.port":              {"PORT", "SERVER_PORT"},
	"database.url":             {"DATABASE_URL"},
	"database.sqlite_path":     {"SQLITE_PATH"},
	"database.max_connections": {"DATABASE_MAX_CONNECTIONS"},
	"database.min_connections": {"DATABASE_MIN_CONNECTIONS"},
	"database.idle_timeout":    {"DATABASE_IDLE_TIMEOUT"},
	"repository.type":          {"REPOSITORY_TYPE"},
	"logging.development":      {"LOGGING_DEVELOPMENT"},
	"logging.level":            {"LOG_LEVEL"},
	"media.cloud_name":         {"CLOUDINARY_CLOUD_NAME"},
	"media.api_key":            {"CLOUDINARY_API_KEY"},
	"media.api_secret":         {"CLOUDINARY_API_SECRET"},
	"media.folder":             {"MEDIA_FOLDER"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite_path", "database.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)

	v.SetDefault("repository.type", "")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("media.folder", "my_todo_app")
}

// Load читает config.yml из рабочей директории, если он есть; переменные окружения важнее файла
func Load() (*Config, error) {
	return LoadFile("")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения конфига: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("привязка переменной %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфига: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("конфиг не прошёл валидацию: %w", err)
	}

	return &cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// StoreType: явный repository.type, иначе postgres при заданном DATABASE_URL, иначе sqlite
func (c *Config) StoreType() repository.Type {
	if c.Repository.Type != "" {
		return repository.Type(c.Repository.Type)
	}
	if c.Database.URL != "" {
		return repository.TypePostgres
	}
	return repository.TypeSQLite
}
