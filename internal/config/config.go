// Package config loads the server configuration from a yaml file and
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Model    ModelConfig    `mapstructure:"model"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ModelConfig configures the generative backend and the shared call
// window in front of it.
type ModelConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Name           string        `mapstructure:"name"`
	MaxCalls       int           `mapstructure:"max_calls"`
	CallWindow     time.Duration `mapstructure:"call_window"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// TelegramConfig configures the escalation channel. An empty token
// disables handover delivery.
type TelegramConfig struct {
	BotToken     string `mapstructure:"bot_token"`
	DoctorChatID int64  `mapstructure:"doctor_chat_id"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// Load reads configuration from an optional yaml file plus WARD_*
// environment variables. A missing file is not an error; env vars and
// defaults still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("WARD")
	v.AutomaticEnv()
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("model.api_key", "OPENAI_API_KEY")
	v.BindEnv("model.name", "WARD_MODEL_NAME")
	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.doctor_chat_id", "DOCTOR_CHAT_ID")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("log.level", "WARD_LOG_LEVEL")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ward-assistant")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the invariants the rest of the system assumes.
func (c *Config) Validate() error {
	if c.Model.MaxCalls <= 0 {
		return fmt.Errorf("model.max_calls must be positive, got %d", c.Model.MaxCalls)
	}
	if c.Model.CallWindow <= 0 {
		return fmt.Errorf("model.call_window must be positive, got %s", c.Model.CallWindow)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.url", "")
	v.SetDefault("model.name", "gpt-4o-mini")
	v.SetDefault("model.max_calls", 15)
	v.SetDefault("model.call_window", time.Minute)
	v.SetDefault("model.request_timeout", 30*time.Second)
	v.SetDefault("telegram.doctor_chat_id", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
}
