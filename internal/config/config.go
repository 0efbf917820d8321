// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	DBPath   string         `mapstructure:"db_path"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	AI       AIConfig       `mapstructure:"ai"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Pending  PendingConfig  `mapstructure:"pending"`
	Dedup    DedupConfig    `mapstructure:"dedup"`
}

type TelegramConfig struct {
	Token        string        `mapstructure:"token"`
	BaseURL      string        `mapstructure:"base_url"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	FileMaxBytes int64         `mapstructure:"file_max_bytes"`
}

type AIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SpeechConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PendingConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type DedupConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// Load reads configuration from an optional config.yaml plus DIET_-prefixed
// environment variables. A .env file is loaded first when present, matching
// how the bot has historically been deployed.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("DIET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Legacy variable names from earlier deployments.
	_ = v.BindEnv("telegram.token", "DIET_TELEGRAM_TOKEN", "TELEGRAM_TOKEN")
	_ = v.BindEnv("ai.api_key", "DIET_AI_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("ai.model", "DIET_AI_MODEL", "OPENROUTER_MODEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", "diet_diary.db")
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.poll_timeout", 30*time.Second)
	v.SetDefault("telegram.file_max_bytes", int64(20*1024*1024))
	v.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.model", "qwen/qwen-vl-max")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("speech.base_url", "http://localhost:9000/v1")
	v.SetDefault("speech.model", "whisper-1")
	v.SetDefault("speech.language", "ru")
	v.SetDefault("speech.timeout", 120*time.Second)
	v.SetDefault("pending.ttl", 30*time.Minute)
	v.SetDefault("dedup.capacity", 4096)
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (DIET_TELEGRAM_TOKEN)")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai api key is required (DIET_AI_API_KEY)")
	}
	return nil
}
