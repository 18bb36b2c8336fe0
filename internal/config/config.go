package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIURL      string
	WSURL       string
	Environment string
	// Directory for persisted credentials and the draft journal
	HomeDir string
	// Optional JWKS endpoint; enables signature checks on stored tokens
	JWKSURL string
	// OAuth
	GoogleClientID    string
	MicrosoftClientID string
	OAuthRedirectURL  string
	// Timing
	AutosaveDelay     time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	HTTPTimeout       time.Duration
	// Local preview server
	PreviewAddr    string
	PreviewOrigins []string
	// Logging
	LogDir      string
	LogMaxFiles int
	Debug       bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		APIURL:            strings.TrimRight(getEnv("SLIDEGENIE_API_URL", "http://localhost:8000"), "/"),
		WSURL:             strings.TrimRight(getEnv("SLIDEGENIE_WS_URL", "ws://localhost:3001"), "/"),
		Environment:       env,
		HomeDir:           getEnv("SLIDEGENIE_HOME", defaultHomeDir()),
		JWKSURL:           getEnv("SLIDEGENIE_JWKS_URL", ""),
		GoogleClientID:    getEnv("OAUTH_GOOGLE_CLIENT_ID", ""),
		MicrosoftClientID: getEnv("OAUTH_MICROSOFT_CLIENT_ID", ""),
		OAuthRedirectURL:  getEnv("OAUTH_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		AutosaveDelay:     getDuration("AUTOSAVE_DELAY", DefaultAutosaveDelay),
		ReconnectAttempts: getInt("RECONNECT_ATTEMPTS", DefaultReconnectAttempts),
		ReconnectDelay:    getDuration("RECONNECT_DELAY", DefaultReconnectDelay),
		HTTPTimeout:       getDuration("HTTP_TIMEOUT", DefaultHTTPTimeout),
		PreviewAddr:       getEnv("PREVIEW_ADDR", "127.0.0.1:7070"),
		PreviewOrigins:    strings.Split(getEnv("PREVIEW_CORS_ORIGINS", "http://localhost:3000"), ","),
		LogDir:            getEnv("LOG_DIR", ""),
		LogMaxFiles:       getInt("LOG_MAX_FILES", 10),
		// Debug logging defaults to on outside production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// GenerationSocketURL returns the live-channel endpoint for a generation job.
func (c *Config) GenerationSocketURL(generationID string) string {
	return c.WSURL + "/generation/" + generationID
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

func defaultHomeDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".slidegenie"
	}
	return filepath.Join(dir, "slidegenie")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
