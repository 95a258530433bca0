package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Resolver ResolverConfig
	OCR      OCRConfig
	Inbox    InboxConfig
	LLM      LLMConfig
	LogLevel string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "postgres" or "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// ResolverConfig holds name resolution policy
type ResolverConfig struct {
	Threshold    float64
	SuggestLimit int
	Scorer       string
	FoldWidth    bool
	Workers      int
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string
	Language    string
	TessdataDir string
	PSM         int
	Timeout     time.Duration
	CachePath   string
}

// InboxConfig configures the optional watched receipt directory
type InboxConfig struct {
	Dir       string
	OwnerID   string
	Workers   int
	QueueSize int
}

// LLMConfig configures the optional model used when OCR text yields no lines.
// An empty APIKey disables it.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Resolver: ResolverConfig{
			Threshold:    getEnvAsFloat64("MATCH_THRESHOLD", 70),
			SuggestLimit: getEnvAsInt("SUGGEST_LIMIT", 10),
			Scorer:       getEnv("SIMILARITY_SCORER", "wratio"),
			FoldWidth:    getEnvAsBool("FOLD_WIDTH", false),
			Workers:      getEnvAsInt("NORMALIZE_WORKERS", 4),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Language:    getEnv("TESSERACT_LANG", "jpn+eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			PSM:         getEnvAsInt("TESSERACT_PSM", 6),
			Timeout:     getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
			CachePath:   getEnv("OCR_CACHE_PATH", ""),
		},
		Inbox: InboxConfig{
			Dir:       getEnv("INBOX_DIR", ""),
			OwnerID:   getEnv("INBOX_OWNER_ID", ""),
			Workers:   getEnvAsInt("INBOX_WORKERS", 2),
			QueueSize: getEnvAsInt("INBOX_QUEUE_SIZE", 64),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Resolver.Threshold <= 0 || c.Resolver.Threshold > 100 {
		return NewAppError("CONFIG_ERROR", "MATCH_THRESHOLD must be in (0, 100]", ErrInvalidInput)
	}
	if c.Resolver.SuggestLimit <= 0 {
		return NewAppError("CONFIG_ERROR", "SUGGEST_LIMIT must be positive", ErrInvalidInput)
	}
	if c.Inbox.Dir != "" {
		if _, err := uuid.Parse(c.Inbox.OwnerID); err != nil {
			return NewAppError("CONFIG_ERROR", "INBOX_OWNER_ID must be a UUID when INBOX_DIR is set", ErrInvalidInput)
		}
	}
	return nil
}
