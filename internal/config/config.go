package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default download tuning values, matching the Federal Revenue origin's
// behavior (large files, range requests supported, occasional resets).
const (
	DefaultTimeoutSecs = 300
	DefaultMaxRetries  = 3
	DefaultMaxParallel = 4
	DefaultChunkSize   = 10 * 1024 * 1024
)

// Config holds all configuration for the application
type Config struct {
	Download  DownloadConfig  `json:"download"`
	Transform TransformConfig `json:"transform"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Server    ServerConfig    `json:"server"`
	Log       LogConfig       `json:"log"`
}

// DownloadConfig holds downloader configuration
type DownloadConfig struct {
	BaseURL      string        `json:"base_url"`
	DataDir      string        `json:"data_dir"`
	Timeout      time.Duration `json:"timeout"`
	MaxRetries   int           `json:"max_retries"`
	MaxParallel  int           `json:"max_parallel"`
	ChunkSize    int64         `json:"chunk_size"`
	SkipExisting bool          `json:"skip_existing"`
	Restart      bool          `json:"restart"`
	// RequestsPerSec throttles chunk requests against the origin. Zero
	// disables the limiter.
	RequestsPerSec float64 `json:"requests_per_sec"`
}

// Validate checks invariants the downloader depends on.
func (c DownloadConfig) Validate() error {
	if c.MaxParallel < 1 {
		return fmt.Errorf("max_parallel must be at least 1")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1")
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be positive")
	}
	return nil
}

// TransformConfig holds transformer configuration
type TransformConfig struct {
	DataDir     string `json:"data_dir"`
	OutputDir   string `json:"output_dir"`
	PrivacyMode bool   `json:"privacy_mode"`
	MaxParallel int    `json:"max_parallel"`
	BatchSize   int    `json:"batch_size"`
	QueueDepth  int    `json:"queue_depth"`
}

// Validate checks invariants the transformer depends on.
func (c TransformConfig) Validate() error {
	if c.MaxParallel < 1 {
		return fmt.Errorf("max_parallel must be at least 1")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be positive")
	}
	return nil
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL    string `json:"url"`
	Schema string `json:"schema"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	CacheTTL time.Duration `json:"cache_ttl"`
}

// Addr returns the host:port address for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Host              string `json:"host"`
	Port              int    `json:"port"`
	ReadTimeout       int    `json:"read_timeout"`
	WriteTimeout      int    `json:"write_timeout"`
	RequestsPerMinute int    `json:"requests_per_minute"`
	BurstSize         int    `json:"burst_size"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Load loads configuration from environment variables. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Download: DownloadConfig{
			BaseURL:        getEnv("CNPJ_BASE_URL", "https://arquivos.receitafederal.gov.br/dados/cnpj/dados_abertos_cnpj"),
			DataDir:        getEnv("CNPJ_DATA_DIR", "data"),
			Timeout:        time.Duration(getEnvAsInt("CNPJ_TIMEOUT", DefaultTimeoutSecs)) * time.Second,
			MaxRetries:     getEnvAsInt("CNPJ_MAX_RETRIES", DefaultMaxRetries),
			MaxParallel:    getEnvAsInt("CNPJ_MAX_PARALLEL", DefaultMaxParallel),
			ChunkSize:      int64(getEnvAsInt("CNPJ_CHUNK_SIZE", DefaultChunkSize)),
			SkipExisting:   getEnvAsBool("CNPJ_SKIP_EXISTING", false),
			Restart:        getEnvAsBool("CNPJ_RESTART", false),
			RequestsPerSec: getEnvAsFloat("CNPJ_REQUESTS_PER_SEC", 0),
		},
		Transform: TransformConfig{
			DataDir:     getEnv("CNPJ_DATA_DIR", "data"),
			OutputDir:   getEnv("CNPJ_OUTPUT_DIR", "output"),
			PrivacyMode: getEnvAsBool("CNPJ_PRIVACY_MODE", false),
			MaxParallel: getEnvAsInt("CNPJ_MAX_PARALLEL", DefaultMaxParallel),
			BatchSize:   getEnvAsInt("CNPJ_BATCH_SIZE", 10000),
			QueueDepth:  getEnvAsInt("CNPJ_QUEUE_DEPTH", 8),
		},
		Database: DatabaseConfig{
			URL:    getEnv("DATABASE_URL", ""),
			Schema: getEnv("POSTGRES_SCHEMA", "public"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: time.Duration(getEnvAsInt("REDIS_CACHE_TTL", 3600)) * time.Second,
		},
		Server: ServerConfig{
			Host:              getEnv("API_HOST", "127.0.0.1"),
			Port:              getEnvAsInt("API_PORT", 8080),
			ReadTimeout:       getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout:      getEnvAsInt("WRITE_TIMEOUT", 30),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 100),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
