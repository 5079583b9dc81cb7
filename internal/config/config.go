package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	SQLitePath     string
	DBQueryTimeout time.Duration

	// Identity provider tokens
	JWTSecret  string
	JWTJWKSURL string

	// Admin
	AdminTokenHash    string
	BootstrapAdminIDs []string

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string

	// Profile cache
	CacheDriver     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProfileCacheTTL time.Duration

	// Moderation events
	NATSURL     string
	NATSSubject string

	// Content rules
	ScreenerRulesPath    string
	SignalDescriptionMax int

	// Invites
	InviteTTL        time.Duration
	InvitesPerMember int

	WriteRatePerMin  int
	LogRetentionDays int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "signal_db"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		SQLitePath:     getEnv("SQLITE_PATH", "signal.db"),
		DBQueryTimeout: parseDuration(getEnv("DB_QUERY_TIMEOUT", "5s"), 5*time.Second),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTJWKSURL: getEnv("JWT_JWKS_URL", ""),

		AdminTokenHash:    getEnv("ADMIN_TOKEN_HASH", ""),
		BootstrapAdminIDs: splitList(getEnv("BOOTSTRAP_ADMIN_IDS", "")),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		CacheDriver:     getEnv("CACHE_DRIVER", "memory"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         parseInt(getEnv("REDIS_DB", "0"), 0),
		ProfileCacheTTL: parseDuration(getEnv("PROFILE_CACHE_TTL", "30s"), 30*time.Second),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "signals.moderation"),

		ScreenerRulesPath:    getEnv("SCREENER_RULES_PATH", ""),
		SignalDescriptionMax: parseInt(getEnv("SIGNAL_DESCRIPTION_MAX", "2000"), 2000),

		InviteTTL:        parseDuration(getEnv("INVITE_TTL", "168h"), 7*24*time.Hour),
		InvitesPerMember: parseInt(getEnv("INVITES_PER_MEMBER", "3"), 3),

		WriteRatePerMin:  parseInt(getEnv("WRITE_RATE_PER_MIN", "30"), 30),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
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

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
