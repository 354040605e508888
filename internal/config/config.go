// Package config loads the calendar and credential configuration from a
// JSON file, overlaid with environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	calendar "google.golang.org/api/calendar/v3"
)

// TokenParams holds explicit token fields for the direct credential
// bootstrap shape.
type TokenParams struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	TokenURI     string `json:"token_uri,omitempty"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Config holds the calendar target and one of three credential bootstrap
// shapes: explicit token params, a persisted token file, or a client
// secrets file plus a local callback port.
type Config struct {
	CalendarID string   `json:"calendar_id,omitempty"`
	TimeZone   string   `json:"time_zone,omitempty"`
	Scopes     []string `json:"scopes,omitempty"`

	TokenParams       *TokenParams `json:"token_params,omitempty"`
	TokenPath         string       `json:"token_path,omitempty"`
	ClientSecretsPath string       `json:"client_secrets_path,omitempty"`
	CallbackPort      int          `json:"callback_port,omitempty"`
}

// LoadFromFile loads configuration from a JSON file without applying
// environment overrides or defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// Load loads configuration with the following precedence (highest to
// lowest): environment variables (after a best-effort .env load), the config
// file, defaults. configFile may be empty. Returns an error if no credential
// bootstrap shape ends up configured.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	var config Config
	if configFile != "" {
		fileConfig, err := LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		config = *fileConfig
	}

	if calendarID := os.Getenv("GCAL_CALENDAR_ID"); calendarID != "" {
		config.CalendarID = calendarID
	}
	if timeZone := os.Getenv("GCAL_TIME_ZONE"); timeZone != "" {
		config.TimeZone = timeZone
	}
	if tokenPath := os.Getenv("GCAL_TOKEN_PATH"); tokenPath != "" {
		config.TokenPath = tokenPath
	}
	if secretsPath := os.Getenv("GCAL_CLIENT_SECRETS_PATH"); secretsPath != "" {
		config.ClientSecretsPath = secretsPath
	}
	if port := os.Getenv("GCAL_CALLBACK_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid GCAL_CALLBACK_PORT value: %w", err)
		}
		config.CallbackPort = p
	}

	config.applyDefaults()

	if config.TokenParams == nil && config.TokenPath == "" && config.ClientSecretsPath == "" {
		return nil, fmt.Errorf("no credentials configured: provide token_params, token_path, or client_secrets_path")
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.CalendarID == "" {
		c.CalendarID = "primary"
	}
	if len(c.Scopes) == 0 {
		c.Scopes = []string{
			calendar.CalendarScope,
			calendar.CalendarEventsScope,
		}
	}
}
