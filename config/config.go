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

type Config struct {
	// Server
	Port           string
	Environment    string
	AllowedOrigins []string

	Chat ChatConfig

	Logging LoggingConfig

	// Database
	Database DatabaseConfig

	Redis RedisConfig

	RateLimit RateLimitConfig

	WhatsApp WhatsAppConfig
}

type ChatConfig struct {
	TypingDelay     time.Duration
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	RandomSeed      uint64 // 0 picks a time-based seed
}

type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

type DatabaseConfig struct {
	Type     string // "mongodb" or "none"
	URI      string
	Name     string
	Host     string
	Port     string
	Username string
	Password string

	// Connection pool settings
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
}

type RedisConfig struct {
	Addr     string // empty disables Redis
	Password string
	DB       int
}

type RateLimitConfig struct {
	PerWindow int
	Window    time.Duration
}

type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string
	APIVersion    string
}

var cfg *Config

// Load initializes the configuration
func Load() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	c, err := LoadFromEnv()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// LoadFromEnv builds and validates a Config from the process environment.
func LoadFromEnv() (*Config, error) {
	c := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		Chat: ChatConfig{
			TypingDelay:     getEnvAsDuration("TYPING_DELAY", "1s"),
			SessionTTL:      getEnvAsDuration("SESSION_TTL", "30m"),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", "1m"),
			RandomSeed:      getEnvAsUint64("RANDOM_SEED", 0),
		},

		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},

		Database: DatabaseConfig{
			Type:     getEnv("DB_TYPE", "none"),
			URI:      getEnv("DATABASE_URL", ""),
			Name:     getEnv("DB_NAME", "support_chatbot"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),

			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MinConnections: getEnvAsInt("DB_MIN_CONNECTIONS", 10),
			MaxIdleTime:    getEnvAsDuration("DB_MAX_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		RateLimit: RateLimitConfig{
			PerWindow: getEnvAsInt("RATE_LIMIT_PER_MIN", 30),
			Window:    getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),
		},

		WhatsApp: WhatsAppConfig{
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			VerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
			AppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
			APIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
		},
	}

	// Validate configuration
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return c, nil
}

// Get returns the loaded configuration
func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not loaded. Call Load() first")
	}
	return cfg
}

// AnalyticsEnabled reports whether intent events go to MongoDB.
func (c *Config) AnalyticsEnabled() bool {
	return c.Database.Type == "mongodb"
}

// WhatsAppEnabled reports whether the WhatsApp bridge has credentials.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsApp.AccessToken != "" && c.WhatsApp.PhoneNumberID != "" && c.WhatsApp.VerifyToken != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseUint(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validate() error {
	switch c.Database.Type {
	case "none":
	case "mongodb":
		if c.Database.URI == "" && (c.Database.Host == "" || c.Database.Port == "") {
			return fmt.Errorf("database URI or host/port must be provided")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Chat.TypingDelay < 0 {
		return fmt.Errorf("typing delay must not be negative")
	}

	if c.RateLimit.PerWindow <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit and window must be positive")
	}

	return nil
}

// BuildDatabaseURI constructs the database URI if not provided
func (c *Config) BuildDatabaseURI() string {
	if c.Database.URI != "" {
		return c.Database.URI
	}

	if c.Database.Username != "" && c.Database.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
