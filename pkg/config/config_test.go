package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DamirAkzhigitov/offer-parser/pkg/offer"
)

const validConfig = `{
  "telegram": {"token": "123:abc", "watch_chats": [-1000000012345], "ignore_sender": 777},
  "oracle": {"extract_model": "gpt-4o-mini", "compose_model": "gpt-4o-mini"},
  "criteria": {
    "max_price": 40,
    "category": "furniture",
    "location_terms": ["limassol", "лимассол"],
    "name_terms": ["tv stand", "тумбочка"]
  },
  "watcher": {"host": "0.0.0.0", "port": 18790},
  "logging": {"format": "json", "level": "debug", "add_source": true}
}`

func writeConfig(t *testing.T, content string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("OFFERPARSER_CONFIG", path)
}

func clearOverrideEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envTelegramBotToken, "")
	t.Setenv(envTelegramWatchChats, "")
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearOverrideEnv(t)
	writeConfig(t, validConfig)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("telegram.token = %q", cfg.Telegram.Token)
	}
	if len(cfg.Telegram.WatchChats) != 1 || cfg.Telegram.WatchChats[0] != -1000000012345 {
		t.Fatalf("telegram.watch_chats = %v", cfg.Telegram.WatchChats)
	}
	if cfg.Telegram.IgnoreSender != 777 {
		t.Fatalf("telegram.ignore_sender = %d, want 777", cfg.Telegram.IgnoreSender)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging.format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadConfigInvalidEnvPath(t *testing.T) {
	t.Setenv("OFFERPARSER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config path")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	writeConfig(t, validConfig)
	t.Setenv(envTelegramBotToken, "999:zzz")
	t.Setenv(envTelegramWatchChats, " -200, junk, 300 ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Telegram.Token != "999:zzz" {
		t.Fatalf("telegram.token = %q, want env override", cfg.Telegram.Token)
	}
	if len(cfg.Telegram.WatchChats) != 2 || cfg.Telegram.WatchChats[0] != -200 || cfg.Telegram.WatchChats[1] != 300 {
		t.Fatalf("telegram.watch_chats = %v, want [-200 300]", cfg.Telegram.WatchChats)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	clearOverrideEnv(t)

	tests := []struct {
		name    string
		mangle  func(string) string
		wantErr string
	}{
		{
			"empty watch list",
			func(s string) string { return strings.Replace(s, "[-1000000012345]", "[]", 1) },
			"watch_chats",
		},
		{
			"missing extract model",
			func(s string) string { return strings.Replace(s, `"extract_model": "gpt-4o-mini", `, "", 1) },
			"extract_model",
		},
		{
			"zero max price",
			func(s string) string { return strings.Replace(s, `"max_price": 40`, `"max_price": 0`, 1) },
			"max_price",
		},
		{
			"unknown category",
			func(s string) string { return strings.Replace(s, `"furniture"`, `"vehicles"`, 1) },
			"category",
		},
		{
			"no name terms",
			func(s string) string { return strings.Replace(s, `["tv stand", "тумбочка"]`, `[" "]`, 1) },
			"name_terms",
		},
	}

	for _, tt := range tests {
		writeConfig(t, tt.mangle(validConfig))
		_, err := LoadConfig()
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Fatalf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestCriteriaConversion(t *testing.T) {
	cfg := CriteriaConfig{
		MaxPrice:      40,
		Category:      "furniture",
		LocationTerms: []string{" limassol ", ""},
		NameTerms:     []string{"tv stand"},
	}

	criteria, err := cfg.Criteria()
	if err != nil {
		t.Fatalf("Criteria error: %v", err)
	}

	if criteria.Category != offer.CategoryFurniture {
		t.Fatalf("category = %q", criteria.Category)
	}
	if len(criteria.LocationTerms) != 1 || criteria.LocationTerms[0] != "limassol" {
		t.Fatalf("location terms = %v, want trimmed single term", criteria.LocationTerms)
	}
}

func TestParseChatIDs(t *testing.T) {
	got := parseChatIDs("1, -2 ,, x, 3")
	if len(got) != 3 || got[0] != 1 || got[1] != -2 || got[2] != 3 {
		t.Fatalf("parseChatIDs = %v, want [1 -2 3]", got)
	}
}
