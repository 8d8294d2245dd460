// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"encoding/hex"
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
	App       AppConfig
	Logger    LoggerConfig
	Storage   StorageConfig
	Uploads   UploadsConfig
	Server    ServerConfig
	Auth      AuthConfig
	Catalog   CatalogConfig
	Bootstrap BootstrapConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds the data directory used for the database, search index and auth key.
type StorageConfig struct {
	DataPath string
}

// UploadsConfig holds image upload configuration.
type UploadsConfig struct {
	Root     string // files live under {Root}/books and are served at /uploads/books
	MaxBytes int64
	AllowGIF bool
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 5000)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// TokenSecret is an optional hex-encoded 32-byte key. When empty a key is
	// generated once and persisted under the data path.
	TokenSecret string
	// TokenKey is the resolved key; set by the auth provider at startup.
	TokenKey      []byte
	TokenTTL      time.Duration
	CookieName    string
	RatePerMinute int
	RateBurst     int
}

// CatalogConfig holds book catalog rules.
type CatalogConfig struct {
	// RequireImage rejects book creation without an image. When false the
	// placeholder is stored instead.
	RequireImage     bool
	PlaceholderImage string
}

// BootstrapConfig describes an admin account ensured at startup.
type BootstrapConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
//
// args are the command-line arguments without the program name.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookstore", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for database, search index and auth key")
	uploadRoot := fs.String("upload-root", "", "Directory for uploaded images (default: ./uploads)")

	serverPort := fs.String("port", "", "Server port (default: 5000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed origins")

	tokenTTL := fs.String("token-ttl", "", "Bearer token lifetime (default: 720h)")
	requireImage := fs.String("books-require-image", "", "Reject books created without an image (default: true)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Uploads: UploadsConfig{
			Root:     getConfigValue(*uploadRoot, "UPLOAD_ROOT", "uploads"),
			MaxBytes: int64(getIntConfigValue("", "MAX_UPLOAD_BYTES", 5<<20)),
			AllowGIF: getBoolConfigValue("", "ALLOW_GIF", false),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "5000"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "http://localhost:5173")),
		},
		Auth: AuthConfig{
			TokenSecret:   getConfigValue("", "TOKEN_SECRET", ""),
			CookieName:    getConfigValue("", "AUTH_COOKIE_NAME", "token"),
			RatePerMinute: getIntConfigValue("", "AUTH_RATE_PER_MINUTE", 20),
			RateBurst:     getIntConfigValue("", "AUTH_RATE_BURST", 10),
		},
		Catalog: CatalogConfig{
			RequireImage:     getBoolConfigValue(*requireImage, "BOOKS_REQUIRE_IMAGE", true),
			PlaceholderImage: getConfigValue("", "PLACEHOLDER_IMAGE", "/images/sample.jpg"),
		},
		Bootstrap: BootstrapConfig{
			AdminName:     getConfigValue("", "ADMIN_NAME", "Admin"),
			AdminEmail:    getConfigValue("", "ADMIN_EMAIL", ""),
			AdminPassword: getConfigValue("", "ADMIN_PASSWORD", ""),
		},
	}

	var err error
	if cfg.Auth.TokenTTL, err = parseDuration(*tokenTTL, "TOKEN_TTL", "720h"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = parseDuration(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Uploads.Root == "" {
		return errors.New("upload root cannot be empty")
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.Uploads.MaxBytes)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.TokenSecret != "" {
		if len(c.Auth.TokenSecret) != 64 {
			return fmt.Errorf("TOKEN_SECRET must be 64 hex characters, got %d", len(c.Auth.TokenSecret))
		}
		if _, err := hex.DecodeString(c.Auth.TokenSecret); err != nil {
			return fmt.Errorf("TOKEN_SECRET is not valid hex: %w", err)
		}
	}
	if c.Auth.CookieName == "" {
		return errors.New("AUTH_COOKIE_NAME cannot be empty")
	}

	if !c.Catalog.RequireImage && c.Catalog.PlaceholderImage == "" {
		return errors.New("PLACEHOLDER_IMAGE is required when BOOKS_REQUIRE_IMAGE is false")
	}

	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data path (default ~/Bookstore/data) and the upload root.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataPath, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, "Bookstore", "data"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	c.Storage.DataPath = dataPath

	uploadRoot, err := expandPath(c.Uploads.Root, "")
	if err != nil {
		return fmt.Errorf("invalid upload root: %w", err)
	}
	c.Uploads.Root = uploadRoot

	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
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

func parseDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
