package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	Debug   bool

	// Logging
	LogLevel string
	LogJSON  bool
	LogFile  string // Optional file sink, written in addition to stdout

	// Discord
	BotToken       string
	GuildID        string   // Command registration scope, empty registers globally
	AllowedRoleIDs []string // Roles allowed to run administrative commands
	Language       string

	// Tracked server store
	StorePath   string
	StoreSecret string // When set, remote console passwords are sealed at rest

	// Polling
	ReconcileInterval time.Duration
	PresenceInterval  time.Duration
	ProbeTimeout      time.Duration

	// Remote console
	RCONTimeout     time.Duration
	RCONDefaultPort int

	// Ops HTTP endpoint (health + Prometheus), empty disables it
	HTTPAddr string
	OpsToken string // Bearer token for /api, empty leaves /api unmounted

	// Database (optional console audit + event storage)
	DatabaseType string
	DatabaseURL  string

	// InfluxDB (optional status history)
	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string

	// Utility commands
	DeveloperID   string
	DeveloperLink string
	EmojiAPIURL   string
}

var AppConfig *Config

// Load loads configuration from environment
func Load() *Config {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		AppName:  getEnv("APP_NAME", "mcwatch"),
		Debug:    getEnvBool("DEBUG", false),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
		LogJSON:  getEnvBool("LOG_JSON", false),
		LogFile:  getEnv("LOG_FILE", ""),

		BotToken:       getEnv("BOT_TOKEN", ""),
		GuildID:        getEnv("GUILD_ID", ""),
		AllowedRoleIDs: getEnvList("ALLOWED_ROLE_IDS", nil),
		Language:       normalizeLanguage(getEnv("BOT_LANGUAGE", "en")),

		StorePath:   getEnv("STORE_PATH", "servers.json"),
		StoreSecret: getEnv("STORE_SECRET", ""),

		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", time.Minute),
		PresenceInterval:  getEnvDuration("PRESENCE_INTERVAL", 2*time.Minute),
		ProbeTimeout:      getEnvDuration("PROBE_TIMEOUT", 5*time.Second),

		RCONTimeout:     getEnvDuration("RCON_TIMEOUT", 5*time.Second),
		RCONDefaultPort: getEnvInt("RCON_DEFAULT_PORT", 25575),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		OpsToken: getEnv("OPS_TOKEN", ""),

		DatabaseType: getEnv("DATABASE_TYPE", ""),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		InfluxDBURL:    getEnv("INFLUXDB_URL", ""),
		InfluxDBToken:  getEnv("INFLUXDB_TOKEN", ""),
		InfluxDBOrg:    getEnv("INFLUXDB_ORG", "mcwatch"),
		InfluxDBBucket: getEnv("INFLUXDB_BUCKET", "status"),

		DeveloperID:   getEnv("DEVELOPER_ID", ""),
		DeveloperLink: getEnv("DEVELOPER_LINK", ""),
		EmojiAPIURL:   getEnv("EMOJI_API_URL", "https://emoji.gg/api/"),
	}

	AppConfig = config
	return config
}

// DatabaseEnabled reports whether an audit/event database is configured
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseType != "" && c.DatabaseURL != ""
}

// InfluxEnabled reports whether status history should be written to InfluxDB
func (c *Config) InfluxEnabled() bool {
	return c.InfluxDBURL != "" && c.InfluxDBToken != ""
}

// normalizeLanguage reduces locale tags such as ru_RU.UTF-8 or pt-BR to the bare language code
func normalizeLanguage(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if i := strings.IndexAny(value, "_.-@"); i >= 0 {
		value = value[:i]
	}
	if value == "" {
		return "en"
	}
	return value
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Invalid boolean for %s, using default: %v", key, defaultValue)
			return defaultValue
		}
		return boolVal
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Invalid integer for %s, using default: %d", key, defaultValue)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			log.Printf("Invalid duration for %s, using default: %s", key, defaultValue)
			return defaultValue
		}
		return d
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
