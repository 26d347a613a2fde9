package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/DamirAkzhigitov/offer-parser/pkg/offer"
)

const (
	envTelegramBotToken   = "TELEGRAM_BOT_TOKEN"
	envTelegramWatchChats = "TELEGRAM_WATCH_CHATS"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Oracle   OracleConfig   `json:"oracle"`
	Criteria CriteriaConfig `json:"criteria"`
	Watcher  WatcherConfig  `json:"watcher"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Token string `json:"token"`
	// WatchChats lists normalized chat identifiers the watcher reacts
	// to; messages from any other chat are dropped.
	WatchChats []int64 `json:"watch_chats"`
	// IgnoreSender suppresses reactions to the operator's own account.
	IgnoreSender int64 `json:"ignore_sender,omitempty"`
}

// OracleConfig configures the language-model oracle client.
type OracleConfig struct {
	APIKeyEnv             string `json:"api_key_env,omitempty"`
	BaseURL               string `json:"base_url,omitempty"`
	Organization          string `json:"organization,omitempty"`
	Project               string `json:"project,omitempty"`
	ExtractModel          string `json:"extract_model"`
	ComposeModel          string `json:"compose_model"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
}

// CriteriaConfig is the on-disk shape of the acceptance criteria.
type CriteriaConfig struct {
	MaxPrice      float64  `json:"max_price"`
	Category      string   `json:"category"`
	LocationTerms []string `json:"location_terms"`
	NameTerms     []string `json:"name_terms"`
}

// WatcherConfig configures the status server bind settings.
type WatcherConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// LoadConfig resolves config.json, unmarshals it, applies environment
// overrides, and validates the result.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first missing or malformed essential setting.
// Missing configuration is the only fatal condition in the process.
func (c *Config) Validate() error {
	if len(c.Telegram.WatchChats) == 0 {
		return errors.New("telegram.watch_chats must list at least one chat")
	}
	if strings.TrimSpace(c.Oracle.ExtractModel) == "" {
		return errors.New("oracle.extract_model is required")
	}
	if strings.TrimSpace(c.Oracle.ComposeModel) == "" {
		return errors.New("oracle.compose_model is required")
	}
	if _, err := c.Criteria.Criteria(); err != nil {
		return err
	}

	return nil
}

// Criteria converts the on-disk criteria into the domain value.
func (c CriteriaConfig) Criteria() (offer.Criteria, error) {
	if c.MaxPrice <= 0 {
		return offer.Criteria{}, errors.New("criteria.max_price must be positive")
	}

	category, ok := offer.ParseCategory(c.Category)
	if !ok {
		return offer.Criteria{}, fmt.Errorf("criteria.category %q is not a known category", c.Category)
	}

	locationTerms := cleanTerms(c.LocationTerms)
	if len(locationTerms) == 0 {
		return offer.Criteria{}, errors.New("criteria.location_terms must list at least one term")
	}

	nameTerms := cleanTerms(c.NameTerms)
	if len(nameTerms) == 0 {
		return offer.Criteria{}, errors.New("criteria.name_terms must list at least one term")
	}

	return offer.Criteria{
		MaxPrice:      c.MaxPrice,
		Category:      category,
		LocationTerms: locationTerms,
		NameTerms:     nameTerms,
	}, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Telegram.Token = token
	}

	if rawChats := strings.TrimSpace(os.Getenv(envTelegramWatchChats)); rawChats != "" {
		if chats := parseChatIDs(rawChats); len(chats) > 0 {
			cfg.Telegram.WatchChats = chats
		}
	}
}

// parseChatIDs splits comma-separated chat identifiers, skipping
// anything that does not parse as a signed integer.
func parseChatIDs(input string) []int64 {
	parts := strings.Split(input, ",")
	chats := make([]int64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			continue
		}
		chats = append(chats, id)
	}

	return slices.Clip(chats)
}

// cleanTerms trims terms and drops empty entries.
func cleanTerms(terms []string) []string {
	clean := make([]string, 0, len(terms))
	for _, term := range terms {
		trimmed := strings.TrimSpace(term)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is OFFERPARSER_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("OFFERPARSER_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("OFFERPARSER_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
