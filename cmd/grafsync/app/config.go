package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/grafsync/internal/appcontext"
)

// DefaultDomain is the provider domain used when MLUVII_DOMAIN is not set.
const DefaultDomain = "app.mluvii.com"

// Config holds the application configuration loaded from environment
// variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Provider credentials
	Domain       string
	ClientID     string
	ClientSecret string

	// Grafana credentials
	GrafanaURL  string
	GrafanaUser string
	GrafanaPass string

	// Home dashboard template
	DashboardFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	// Set up Viper for environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Bind the credential keys so they are visible even when only set
	// through a .env file
	bindEnvKeys()

	viper.SetDefault("MLUVII_DOMAIN", DefaultDomain)

	config := &Config{
		// Provider credentials
		Domain:       viper.GetString("MLUVII_DOMAIN"),
		ClientID:     viper.GetString("MLUVII_CLIENT_ID"),
		ClientSecret: viper.GetString("MLUVII_CLIENT_SECRET"),

		// Grafana credentials
		GrafanaURL:  viper.GetString("GRAFANA_URL"),
		GrafanaUser: viper.GetString("GRAFANA_USER"),
		GrafanaPass: viper.GetString("GRAFANA_PASS"),

		// Home dashboard template
		DashboardFile: viper.GetString("HOME_DASHBOARD_FILE"),

		// Logging configuration
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// Settings maps the configuration onto the command-facing settings type.
func (c *Config) Settings() *appcontext.Settings {
	return &appcontext.Settings{
		Domain:        c.Domain,
		ClientID:      c.ClientID,
		ClientSecret:  c.ClientSecret,
		GrafanaURL:    c.GrafanaURL,
		GrafanaUser:   c.GrafanaUser,
		GrafanaPass:   c.GrafanaPass,
		DashboardFile: c.DashboardFile,
	}
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// Try to load .env files in order of precedence
	// .env.local overrides .env
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindEnvKeys explicitly binds the credential environment variables to Viper.
func bindEnvKeys() {
	keys := []string{
		"MLUVII_DOMAIN",
		"MLUVII_CLIENT_ID",
		"MLUVII_CLIENT_SECRET",
		"GRAFANA_URL",
		"GRAFANA_USER",
		"GRAFANA_PASS",
		"HOME_DASHBOARD_FILE",
	}

	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			// Log warning but continue - this isn't critical
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
