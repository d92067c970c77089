package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Database DatabaseConfig `mapstructure:"database"`
	Template TemplateConfig `mapstructure:"template"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	Type      string `mapstructure:"type"`     // storage type: local or minio
	Path      string `mapstructure:"path"`     // local storage root
	Bucket    string `mapstructure:"bucket"`   // MinIO bucket name
	Endpoint  string `mapstructure:"endpoint"` // MinIO endpoint
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// CacheConfig holds metadata cache settings.
type CacheConfig struct {
	Enable   bool   `mapstructure:"enable"`   // disabled runs on the always-miss backend
	Type     string `mapstructure:"type"`     // cache type: memory or redis
	Address  string `mapstructure:"address"`  // redis address
	Password string `mapstructure:"password"` // redis password
	DB       int    `mapstructure:"db"`       // redis database number
	TTL      int    `mapstructure:"ttl"`      // entry TTL in seconds
}

// QueueConfig holds generation job queue settings.
type QueueConfig struct {
	Type          string `mapstructure:"type"`           // queue type: memory or redis
	RedisAddr     string `mapstructure:"redis_addr"`     // redis address
	RedisPassword string `mapstructure:"redis_password"` // redis password
	RedisDB       int    `mapstructure:"redis_db"`       // redis database number
	Workers       int    `mapstructure:"workers"`        // worker pool size
	Capacity      int    `mapstructure:"capacity"`       // backlog capacity (memory queue)
	RetryDelay    int    `mapstructure:"retry_delay"`    // retry delay in seconds (redis queue)
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // database type: sqlite
	DSN  string `mapstructure:"dsn"`  // data source name
}

// TemplateConfig holds placeholder marker settings.
type TemplateConfig struct {
	MarkerOpen  string `mapstructure:"marker_open"`  // opening marker delimiter
	MarkerClose string `mapstructure:"marker_close"` // closing marker delimiter
}

// LogConfig holds log output settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`       // trace, debug, info, warn, error
	File       string `mapstructure:"file"`        // log file path, empty for stdout only
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotation size
	MaxBackups int    `mapstructure:"max_backups"` // rotated files to keep
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from a file and the environment. A missing config
// file is not an error; defaults are written out for the next run.
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
			setDefaults(v)
			dir := filepath.Dir(configPath)
			if err := os.MkdirAll(dir, 0755); err == nil {
				if err := v.WriteConfigAs(configPath); err != nil {
					log.Printf("Warning: Could not write default config to %s: %v", configPath, err)
				}
			}
		} else {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	return processEnvironmentVariables(&config), nil
}

// processEnvironmentVariables resolves ${VAR} references in secret fields.
func processEnvironmentVariables(cfg *Config) *Config {
	cfg.Storage.AccessKey = resolveEnvRef(cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = resolveEnvRef(cfg.Storage.SecretKey)
	cfg.Cache.Password = resolveEnvRef(cfg.Cache.Password)
	cfg.Queue.RedisPassword = resolveEnvRef(cfg.Queue.RedisPassword)
	return cfg
}

func resolveEnvRef(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		if envVal := os.Getenv(value[2 : len(value)-1]); envVal != "" {
			return envVal
		}
	}
	return value
}

// setDefaults registers the default value for every setting.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./data/files")
	v.SetDefault("storage.bucket", "doc-templates")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 3600)

	v.SetDefault("queue.type", "memory")
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.capacity", 256)
	v.SetDefault("queue.retry_delay", 60)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/templates.db")

	v.SetDefault("template.marker_open", "{")
	v.SetDefault("template.marker_close", "}")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}
