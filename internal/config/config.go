package config

import (
	"errors"
	"fmt"
	"time"
)

// Translation provider names accepted in TranslationConfig.Provider.
const (
	ProviderStub   = "stub"
	ProviderOpenAI = "openai"
)

// TranslationConfig selects and configures the translation backend.
type TranslationConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Parallelism int           `mapstructure:"parallelism" yaml:"parallelism"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	MaxMessageBytes   int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MessagesPerMinute int   `mapstructure:"messages_per_minute" yaml:"messages_per_minute"`
	ClientBuffer      int   `mapstructure:"client_buffer" yaml:"client_buffer"`

	RejectUnknownRoom bool          `mapstructure:"reject_unknown_room" yaml:"reject_unknown_room"`
	RoomIdleTTL       time.Duration `mapstructure:"room_idle_ttl" yaml:"room_idle_ttl"`
	RoomReapInterval  time.Duration `mapstructure:"room_reap_interval" yaml:"room_reap_interval"`

	Translation TranslationConfig `mapstructure:"translation" yaml:"translation"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		MaxMessageBytes:   64 << 10,
		MessagesPerMinute: 60,
		ClientBuffer:      32,
		RoomIdleTTL:       0,
		RoomReapInterval:  time.Minute,
		Translation: TranslationConfig{
			Provider:    ProviderStub,
			Model:       "gpt-3.5-turbo",
			Temperature: 0.3,
			Timeout:     15 * time.Second,
			Parallelism: 4,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.RejectUnknownRoom {
		c.RejectUnknownRoom = true
	}
	if other.RoomIdleTTL != 0 {
		c.RoomIdleTTL = other.RoomIdleTTL
	}
	if other.Translation.Provider != "" {
		c.Translation.Provider = other.Translation.Provider
	}
	if other.Translation.APIKey != "" {
		c.Translation.APIKey = other.Translation.APIKey
	}
	if other.Translation.Model != "" {
		c.Translation.Model = other.Translation.Model
	}
}

// Validate reports configuration values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.ClientBuffer <= 0 {
		errs = append(errs, fmt.Errorf("client_buffer must be positive, got %d", c.ClientBuffer))
	}
	if c.RoomIdleTTL < 0 {
		errs = append(errs, fmt.Errorf("room_idle_ttl must not be negative, got %s", c.RoomIdleTTL))
	}
	if c.RoomIdleTTL > 0 && c.RoomReapInterval <= 0 {
		errs = append(errs, errors.New("room_reap_interval must be positive when room_idle_ttl is set"))
	}
	switch c.Translation.Provider {
	case ProviderStub, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown translation provider %q", c.Translation.Provider))
	}
	return errors.Join(errs...)
}
