package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt.Hour != 21 || cfg.Prompt.Minute != 0 {
		t.Errorf("unexpected prompt time %02d:%02d", cfg.Prompt.Hour, cfg.Prompt.Minute)
	}
	if cfg.Prompt.File != "prompts/reflection_questions.txt" {
		t.Errorf("unexpected prompt file %q", cfg.Prompt.File)
	}
	if cfg.Database.URL != "data/diary.db" {
		t.Errorf("unexpected database url %q", cfg.Database.URL)
	}
	if cfg.HTTP.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected shutdown timeout %v", cfg.HTTP.ShutdownTimeout)
	}
}

func TestLoadPlainEnvNames(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("PROMPT_HOUR", "7")
	t.Setenv("PROMPT_MINUTE", "30")
	t.Setenv("BOT_TOKEN", "  secret  ")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "file:test.db" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Prompt.Hour != 7 || cfg.Prompt.Minute != 30 {
		t.Errorf("prompt time = %02d:%02d", cfg.Prompt.Hour, cfg.Prompt.Minute)
	}
	if cfg.Bot.Token != "secret" {
		t.Errorf("bot token = %q", cfg.Bot.Token)
	}
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	t.Setenv("PROMPT_HOUR", "7")
	t.Setenv("DIARY_PROMPT_HOUR", "9")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt.Hour != 9 {
		t.Errorf("prompt hour = %d, want 9", cfg.Prompt.Hour)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("log:\n  level: debug\n  format: json\nprompt:\n  hour: 6\n  minute: 15\n  timezone: Europe/Berlin\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log config = %+v", cfg.Log)
	}
	if cfg.Prompt.Hour != 6 || cfg.Prompt.Minute != 15 {
		t.Errorf("prompt time = %02d:%02d", cfg.Prompt.Hour, cfg.Prompt.Minute)
	}
	if _, err := cfg.Prompt.Location(); err != nil {
		t.Errorf("Location: %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"hour out of range", func(c *Config) { c.Prompt.Hour = 24 }},
		{"minute out of range", func(c *Config) { c.Prompt.Minute = -1 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }},
		{"empty database url", func(c *Config) { c.Database.URL = "" }},
		{"bad timezone", func(c *Config) { c.Prompt.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
