package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	// Storage
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	MongoURI string
	MongoDB  string

	// Redis (rate limiter state, optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret   string
	JWTExpiry   time.Duration
	BcryptCost  int
	RequireAuth bool

	// AI provider (Groq, OpenAI-compatible chat completions)
	GroqAPIKey     string
	GroqAPIURL     string
	GroqModel      string
	AITimeout      time.Duration
	AIMaxRetries   int
	AIJurisdiction string

	// Server
	Port        string
	CORSOrigins string
	SentryDSN   string
	AppEnv      string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "medai_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "medai"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTExpiry:   parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),
		BcryptCost:  parseInt(getEnv("BCRYPT_COST", "10"), 10),
		RequireAuth: parseBool(getEnv("REQUIRE_AUTH", "true"), true),

		GroqAPIKey:     getEnv("GROQ_API_KEY", ""),
		GroqAPIURL:     getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		GroqModel:      getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		AITimeout:      parseDuration(getEnv("AI_TIMEOUT", "60s"), 60*time.Second),
		AIMaxRetries:   parseInt(getEnv("AI_MAX_RETRIES", "2"), 2),
		AIJurisdiction: getEnv("AI_JURISDICTION", "India"),

		Port:        getEnv("PORT", "5000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		AppEnv:      getEnv("APP_ENV", "development"),
	}
}

// Validate reports configuration the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBPassword == "" {
			errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
		}
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI environment variable is required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, errors.New("DB_DRIVER must be one of: postgres, mongo, memory"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}
