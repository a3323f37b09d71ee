// Package config loads runtime settings from defaults, an optional
// config.yaml, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for the diary service.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Prompt   PromptConfig   `mapstructure:"prompt"`
	Bot      BotConfig      `mapstructure:"bot"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type DatabaseConfig struct {
	URL           string        `mapstructure:"url"            validate:"required"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold" validate:"min=0"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

type PromptConfig struct {
	Hour     int    `mapstructure:"hour"     validate:"min=0,max=23"`
	Minute   int    `mapstructure:"minute"   validate:"min=0,max=59"`
	File     string `mapstructure:"file"     validate:"required"`
	Timezone string `mapstructure:"timezone" validate:"required"`
	Enabled  bool   `mapstructure:"enabled"`
}

type BotConfig struct {
	Token string `mapstructure:"token"`
}

// Location resolves the scheduler time zone.
func (p PromptConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// envAliases maps the plain variable names used by existing deployments onto
// config keys. DIARY_-prefixed variables are bound automatically.
var envAliases = map[string]string{
	"database.url":  "DATABASE_URL",
	"prompt.hour":   "PROMPT_HOUR",
	"prompt.minute": "PROMPT_MINUTE",
	"prompt.file":   "PROMPT_FILE",
	"bot.token":     "BOT_TOKEN",
	"http.addr":     "HTTP_ADDR",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.url", "data/diary.db")
	v.SetDefault("database.slow_threshold", 200*time.Millisecond)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("prompt.hour", 21)
	v.SetDefault("prompt.minute", 0)
	v.SetDefault("prompt.file", "prompts/reflection_questions.txt")
	v.SetDefault("prompt.timezone", "UTC")
	v.SetDefault("prompt.enabled", true)

	v.SetDefault("bot.token", "")
}

// Load reads configuration. configPath may be empty, in which case
// ./config.yaml is used if it exists.
func Load(configPath string) (Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("DIARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "DIARY_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)
	cfg.Bot.Token = strings.TrimSpace(cfg.Bot.Token)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the scheduler time zone.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Prompt.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
