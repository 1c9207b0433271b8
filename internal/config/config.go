// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Auth    AuthConfig
	Engine  EngineConfig
	Summary SummaryConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds local data storage configuration (auth key material).
type DataConfig struct {
	BasePath string
}

// ServerConfig holds server configuration.
// There is no write timeout knob: SSE streams are long-lived, so the HTTP
// server's WriteTimeout stays zero and the SSE handler enforces its own
// per-event write deadlines.
type ServerConfig struct {
	Name          string
	RemoteURL     string        // Optional
	Port          string        // Server port (default: 8080)
	ReadTimeout   time.Duration // HTTP read timeout (default: 15s)
	IdleTimeout   time.Duration // HTTP idle timeout (default: 60s)
	AdvertiseMDNS bool          // Advertise via mDNS/Zeroconf (default: true)
	CORSOrigins   []string      // Allowed CORS origins (default: "*")
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes)
	AccessTokenKey []byte
	// Session durations
	AccessTokenDuration  time.Duration // e.g., 15m
	RefreshTokenDuration time.Duration // e.g., 720h (30 days)
}

// EngineConfig holds timecode engine configuration.
type EngineConfig struct {
	// TickInterval is how often a playing clock recomputes its position
	// (default: 40ms, roughly one render frame).
	TickInterval time.Duration
	// PositionThrottle limits how often position events are emitted over
	// SSE while playing (default: 250ms).
	PositionThrottle time.Duration
	// SessionIdleTTL is how long a stopped session may sit untouched
	// before the cleanup job reaps it (default: 24h).
	SessionIdleTTL time.Duration
}

// SummaryConfig holds the remote summarization collaborator configuration.
type SummaryConfig struct {
	// Endpoint is the chat-completions style URL. Empty disables summaries.
	Endpoint string
	// Model is the model name sent with each request.
	Model string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Timeout bounds a single summarization call (default: 30s).
	Timeout time.Duration
	// RequestsPerMinute rate limits outbound calls (default: 6).
	RequestsPerMinute int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for server data (auth key)")
	serverName := flag.String("server-name", "", "Name for the server")
	serverRemoteURL := flag.String("remote-url", "", "Remote server url")

	// Auth flags
	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := flag.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")

	// Engine flags
	tickInterval := flag.String("tick-interval", "", "Clock tick interval (default: 40ms)")
	positionThrottle := flag.String("position-throttle", "", "Position event throttle (default: 250ms)")
	sessionIdleTTL := flag.String("session-idle-ttl", "", "Idle session lifetime (default: 24h)")

	// Summary flags
	summaryEndpoint := flag.String("summary-endpoint", "", "Summarization service URL")
	summaryModel := flag.String("summary-model", "", "Summarization model name")
	summaryTimeout := flag.String("summary-timeout", "", "Summarization request timeout (default: 30s)")
	summaryRPM := flag.String("summary-rpm", "", "Summarization requests per minute (default: 6)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},

		Server: ServerConfig{
			Name:          getConfigValue(*serverName, "SERVER_NAME", "FrameMark Server"),
			RemoteURL:     getConfigValue(*serverRemoteURL, "SERVER_REMOTE_URL", ""),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", true),
			CORSOrigins:   getListConfigValue(*corsOrigins, "CORS_ORIGINS", "*"),
		},

		Auth: AuthConfig{
			AccessTokenKey: nil, // Will be set by auth.LoadOrGenerateKey in main
		},

		Engine: EngineConfig{},

		Summary: SummaryConfig{
			Endpoint:          getConfigValue(*summaryEndpoint, "SUMMARY_ENDPOINT", ""),
			Model:             getConfigValue(*summaryModel, "SUMMARY_MODEL", "gpt-4o-mini"),
			APIKey:            getConfigValue("", "SUMMARY_API_KEY", ""),
			RequestsPerMinute: getIntConfigValue(*summaryRPM, "SUMMARY_RPM", 6),
		},
	}

	// Parse auth durations.
	accessDurationStr := getConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m")
	accessDuration, err := time.ParseDuration(accessDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration %q: %w", accessDurationStr, err)
	}
	cfg.Auth.AccessTokenDuration = accessDuration

	refreshDurationStr := getConfigValue(*refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h")
	refreshDuration, err := time.ParseDuration(refreshDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token duration %q: %w", refreshDurationStr, err)
	}
	cfg.Auth.RefreshTokenDuration = refreshDuration

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Parse engine intervals.
	tickIntervalStr := getConfigValue(*tickInterval, "TICK_INTERVAL", "40ms")
	tickIntervalDuration, err := time.ParseDuration(tickIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid tick interval %q: %w", tickIntervalStr, err)
	}
	cfg.Engine.TickInterval = tickIntervalDuration

	positionThrottleStr := getConfigValue(*positionThrottle, "POSITION_THROTTLE", "250ms")
	positionThrottleDuration, err := time.ParseDuration(positionThrottleStr)
	if err != nil {
		return nil, fmt.Errorf("invalid position throttle %q: %w", positionThrottleStr, err)
	}
	cfg.Engine.PositionThrottle = positionThrottleDuration

	sessionIdleTTLStr := getConfigValue(*sessionIdleTTL, "SESSION_IDLE_TTL", "24h")
	sessionIdleTTLDuration, err := time.ParseDuration(sessionIdleTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid session idle ttl %q: %w", sessionIdleTTLStr, err)
	}
	cfg.Engine.SessionIdleTTL = sessionIdleTTLDuration

	// Parse summary timeout.
	summaryTimeoutStr := getConfigValue(*summaryTimeout, "SUMMARY_TIMEOUT", "30s")
	summaryTimeoutDuration, err := time.ParseDuration(summaryTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid summary timeout %q: %w", summaryTimeoutStr, err)
	}
	cfg.Summary.Timeout = summaryTimeoutDuration

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Engine.TickInterval <= 0 {
		return errors.New("tick interval must be positive")
	}
	if c.Engine.PositionThrottle <= 0 {
		return errors.New("position throttle must be positive")
	}
	if c.Engine.SessionIdleTTL <= 0 {
		return errors.New("session idle ttl must be positive")
	}

	if c.Summary.RequestsPerMinute < 1 {
		return errors.New("summary requests per minute must be at least 1")
	}

	// Auth durations are validated during LoadConfig parsing.
	// Auth key is set by auth.LoadOrGenerateKey in main.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "FrameMark", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getListConfigValue returns a comma-separated list from flag, env var, or
// default. Entries are trimmed; empty entries are dropped.
func getListConfigValue(flagValue, envKey, defaultValue string) []string {
	strValue := getConfigValue(flagValue, envKey, defaultValue)

	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
