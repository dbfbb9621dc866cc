package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	JWTSecret    string
	AppEnv       string

	// External chat provider credentials. The token endpoint is
	// load-bearing, so missing credentials fail startup.
	ChatAPIKey    string
	ChatAPISecret string
	ChatBaseURL   string

	// Origin allowed to send credentialed requests.
	ClientOrigin string

	// Cron expressions for the maintenance tasks.
	RepairSchedule string
	PurgeSchedule  string
}

// Load loads configuration from a .env file (if present) and environment
// variables, with defaults for everything but secrets.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; real deployments set the environment directly

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./meeterup.db"),
		JWTSecret:      getEnv("JWT_SECRET_KEY", ""),
		AppEnv:         getEnv("APP_ENV", "development"),
		ChatAPIKey:     getEnv("CHAT_API_KEY", ""),
		ChatAPISecret:  getEnv("CHAT_API_SECRET", ""),
		ChatBaseURL:    getEnv("CHAT_BASE_URL", "https://chat.stream-io-api.com"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		RepairSchedule: getEnv("REPAIR_SCHEDULE", "*/5 * * * *"),
		PurgeSchedule:  getEnv("PURGE_SCHEDULE", "*/10 * * * *"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
