// Package config loads the application configuration from an optional
// YAML file, with environment variables taking precedence over both the
// file and the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage driver names accepted by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN builds a libpq-compatible connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	// Driver is one of memory, sqlite, or postgres. Empty selects sqlite.
	Driver string `yaml:"driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `yaml:"sqlite_path"`
	// Postgres is used only when Driver is postgres.
	Postgres PostgresConfig `yaml:"postgres"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address, e.g. ":8080".
	Listen string `yaml:"listen"`
	// Storage selects the persistence backend.
	Storage StorageConfig `yaml:"storage"`
	// AuditCron is a cron expression for the background conflict sweep,
	// e.g. "*/15 * * * *". Empty disables the sweep.
	AuditCron string `yaml:"audit_cron"`
}

// Default returns the configuration used when no file and no
// environment overrides are present.
func Default() Config {
	return Config{
		Listen: ":8080",
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "scheduler.db",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "postgres",
				Password: "postgres",
				DBName:   "scheduler",
				SSLMode:  "disable",
			},
		},
		AuditCron: "*/15 * * * *",
	}
}

// Load reads path (if it exists) over the defaults and then applies
// environment overrides. A missing file is not an error; a malformed
// one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// fall through to defaults + env
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.SQLitePath = getEnv("SQLITE_PATH", c.Storage.SQLitePath)
	c.AuditCron = getEnv("AUDIT_CRON", c.AuditCron)

	pg := &c.Storage.Postgres
	pg.Host = getEnv("DB_HOST", pg.Host)
	pg.Port = getEnv("DB_PORT", pg.Port)
	pg.User = getEnv("DB_USER", pg.User)
	pg.Password = getEnv("DB_PASSWORD", pg.Password)
	pg.DBName = getEnv("DB_NAME", pg.DBName)
	pg.SSLMode = getEnv("DB_SSLMODE", pg.SSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
