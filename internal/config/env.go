package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Env is the process environment: where state lives and how the process
// reports on itself. The tournament itself comes from the database or a
// YAML file.
type Env struct {
	Env string

	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Lock     LockConfig
	Storage  StorageConfig
	Metrics  MetricsConfig
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite3".
	Driver       string
	Path         string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// LockConfig selects the regeneration lock backend.
type LockConfig struct {
	// Backend is "local" or "redis".
	Backend string
	TTL     time.Duration
	Wait    time.Duration
}

// StorageConfig points at an S3-compatible bucket (AWS S3 or Cloudflare R2).
type StorageConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	Prefix          string
}

// MetricsConfig controls where generation metrics are written.
type MetricsConfig struct {
	TextfilePath string
}

// LoadEnv reads .env (if present) and the process environment.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Env{}
	cfg.Env = v.GetString("ENV")

	cfg.Database = DatabaseConfig{
		Driver:       v.GetString("DB_DRIVER"),
		Path:         v.GetString("DB_PATH"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Lock = LockConfig{
		Backend: v.GetString("LOCK_BACKEND"),
		TTL:     parseDuration(v.GetString("LOCK_TTL"), 2*time.Minute),
		Wait:    parseDuration(v.GetString("LOCK_WAIT"), 10*time.Second),
	}

	cfg.Storage = StorageConfig{
		Enabled:         v.GetBool("ENABLE_STORAGE"),
		Bucket:          v.GetString("STORAGE_BUCKET"),
		Region:          v.GetString("STORAGE_REGION"),
		Endpoint:        v.GetString("STORAGE_ENDPOINT"),
		AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
		SecretAccessKey: v.GetString("STORAGE_SECRET_ACCESS_KEY"),
		PublicURL:       strings.TrimRight(v.GetString("STORAGE_PUBLIC_URL"), "/"),
		Prefix:          strings.Trim(v.GetString("STORAGE_PREFIX"), "/"),
	}

	cfg.Metrics = MetricsConfig{
		TextfilePath: v.GetString("METRICS_TEXTFILE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_PATH", "padelfix.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "padelfix")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("LOCK_BACKEND", "local")
	v.SetDefault("LOCK_TTL", "2m")
	v.SetDefault("LOCK_WAIT", "10s")

	v.SetDefault("ENABLE_STORAGE", false)
	v.SetDefault("STORAGE_REGION", "auto")
	v.SetDefault("STORAGE_PREFIX", "fixtures")

	v.SetDefault("METRICS_TEXTFILE", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
