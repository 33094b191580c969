package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	PostgreSQL PostgreSQLConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	OpenAI     OpenAIConfig
	Assistant  AssistantConfig
	Pipeline   PipelineConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	GinMode         string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig selects the Domain Store backend.
// Driver is one of "memory", "postgres" or "sqlite".
type StoreConfig struct {
	Driver      string
	FixturePath string // empty means the embedded catalogue
	LogQueries  bool
	SeedOnStart bool // upsert the fixture into a SQL store at startup
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, wins over the individual fields
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// SQLiteConfig holds the local database file location
type SQLiteConfig struct {
	Path string
}

// RedisConfig holds the answer cache connection
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string
	TTL      time.Duration
	Enabled  bool
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string
	ChatTemperature     float64
	ChatTopP            float64
	ChatMaxTokens       int
	ChatExtraBody       string // JSON object merged into the request as extra_body
	EmbeddingModel      string
	EmbeddingDimensions int
	BatchSize           int
	Timeout             int
	Enabled             bool
}

// AssistantConfig controls where the remote model lives.
// Mode "openai" calls the chat API in-process, "http" calls an external
// assistant endpoint, "off" disables the remote stage.
type AssistantConfig struct {
	Mode         string
	EndpointURL  string
	EndpointKey  string
	Timeout      time.Duration
	SemanticFAQs bool
}

// PipelineConfig tunes the query resolution pipeline
type PipelineConfig struct {
	RemoteFirst       bool
	NaturalLangMinLen int
	MaxContextUnits   int
	MaxContextFAQs    int
	MaxRelevantUnits  int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", "memory")),
			FixturePath: getEnv("STORE_FIXTURE_PATH", ""),
			LogQueries:  getEnvAsBool("STORE_LOG_QUERIES", true),
			SeedOnStart: getEnvAsBool("STORE_SEED_ON_START", true),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "salesdesk"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "salesdesk.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
			Prefix:   getEnv("REDIS_PREFIX", "salesdesk:"),
			TTL:      getEnvAsDuration("REDIS_TTL", 10*time.Minute),
			Enabled:  getEnv("REDIS_ADDR", "") != "",
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             strings.TrimRight(getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"), "/"),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature:     getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			ChatTopP:            getEnvAsFloat("OPENAI_CHAT_TOP_P", 0),
			ChatMaxTokens:       getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 400),
			ChatExtraBody:       getEnv("OPENAI_CHAT_EXTRA_BODY", ""),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Assistant: AssistantConfig{
			Mode:         strings.ToLower(getEnv("ASSISTANT_MODE", "openai")),
			EndpointURL:  getEnv("ASSISTANT_ENDPOINT_URL", ""),
			EndpointKey:  getEnv("ASSISTANT_ENDPOINT_KEY", ""),
			Timeout:      getEnvAsDuration("ASSISTANT_TIMEOUT", 20*time.Second),
			SemanticFAQs: getEnvAsBool("ASSISTANT_SEMANTIC_FAQS", false),
		},
		Pipeline: PipelineConfig{
			RemoteFirst:       getEnvAsBool("PIPELINE_REMOTE_FIRST", true),
			NaturalLangMinLen: getEnvAsInt("PIPELINE_NL_MIN_LENGTH", 30),
			MaxContextUnits:   getEnvAsInt("PIPELINE_MAX_CONTEXT_UNITS", 10),
			MaxContextFAQs:    getEnvAsInt("PIPELINE_MAX_CONTEXT_FAQS", 5),
			MaxRelevantUnits:  getEnvAsInt("PIPELINE_MAX_RELEVANT_UNITS", 3),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be memory, postgres or sqlite", c.Store.Driver)
	}
	switch c.Assistant.Mode {
	case "openai", "off":
	case "http":
		if c.Assistant.EndpointURL == "" {
			return fmt.Errorf("ASSISTANT_ENDPOINT_URL is required when ASSISTANT_MODE=http")
		}
	default:
		return fmt.Errorf("invalid ASSISTANT_MODE %q: must be openai, http or off", c.Assistant.Mode)
	}
	if c.Pipeline.MaxContextUnits < 0 || c.Pipeline.MaxContextFAQs < 0 || c.Pipeline.MaxRelevantUnits < 0 {
		return fmt.Errorf("pipeline limits must not be negative")
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Address is the host:port the HTTP server binds to
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		// bare integers are seconds
		if secs, convErr := strconv.Atoi(valueStr); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
