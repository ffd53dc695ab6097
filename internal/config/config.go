// Package config provides Viper-based configuration loading for the dungeon client and its
// development server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ClientConfig holds terminal client settings.
type ClientConfig struct {
	// PlayerID is the name to log in with. Empty means the client prompts for one.
	PlayerID string `mapstructure:"player_id"`
	// ServerURL is the ws or wss endpoint of the game server.
	ServerURL string `mapstructure:"server_url"`
	// DialTimeout bounds the websocket handshake.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// WriteTimeout bounds each outbound frame.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// HighlightDelay is how long the turn emphasis stays on the message area.
	HighlightDelay time.Duration `mapstructure:"highlight_delay"`
	// MoveThrottle is the minimum interval between two movement requests.
	MoveThrottle time.Duration `mapstructure:"move_throttle"`
	// EventBuffer is the capacity of the session's task queue.
	EventBuffer int `mapstructure:"event_buffer"`
}

// Validate checks the client settings.
//
// Postcondition: Returns nil if the settings are usable, or an error describing all violations.
func (c ClientConfig) Validate() error {
	var errs []string
	if c.ServerURL == "" {
		errs = append(errs, "client.server_url must not be empty")
	} else if u, err := url.Parse(c.ServerURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("client.server_url must be a ws:// or wss:// URL, got %q", c.ServerURL))
	}
	if strings.TrimSpace(c.PlayerID) != c.PlayerID {
		errs = append(errs, "client.player_id must not have surrounding whitespace")
	}
	if c.DialTimeout < 0 {
		errs = append(errs, "client.dial_timeout must not be negative")
	}
	if c.WriteTimeout < 0 {
		errs = append(errs, "client.write_timeout must not be negative")
	}
	if c.HighlightDelay <= 0 {
		errs = append(errs, fmt.Sprintf("client.highlight_delay must be positive, got %s", c.HighlightDelay))
	}
	if c.MoveThrottle < 0 {
		errs = append(errs, "client.move_throttle must not be negative")
	}
	if c.EventBuffer < 1 {
		errs = append(errs, fmt.Sprintf("client.event_buffer must be >= 1, got %d", c.EventBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// DevServerConfig holds scripted development server settings.
type DevServerConfig struct {
	// Host is the bind address for the websocket listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the websocket listener.
	Port int `mapstructure:"port"`
	// Scenario is the path of the YAML scenario to serve.
	Scenario string `mapstructure:"scenario"`
	// RoundDelay is waited before each scripted event is sent.
	RoundDelay time.Duration `mapstructure:"round_delay"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (d DevServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is a file path, "stdout" or "stderr". Empty means stderr.
	Output string `mapstructure:"output"`
}

// Config is the top-level application configuration.
type Config struct {
	Client    ClientConfig    `mapstructure:"client"`
	DevServer DevServerConfig `mapstructure:"devserver"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := c.Client.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDevServer(c.DevServer); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDevServer(d DevServerConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "devserver.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("devserver.port must be 1-65535, got %d", d.Port))
	}
	if d.RoundDelay < 0 {
		errs = append(errs, "devserver.round_delay must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if strings.TrimSpace(l.Output) != l.Output {
		return errors.New("logging.output must not have surrounding whitespace")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults and environment only.
//
// Precondition: path must be empty or a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// NewViper returns a Viper instance carrying the defaults and the DUNGEON_ environment
// overrides.
//
// Postcondition: Returns a non-nil *viper.Viper.
func NewViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with DUNGEON_ prefix
	v.SetEnvPrefix("DUNGEON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.player_id", "")
	v.SetDefault("client.server_url", "ws://127.0.0.1:5000/ws")
	v.SetDefault("client.dial_timeout", "10s")
	v.SetDefault("client.write_timeout", "5s")
	v.SetDefault("client.highlight_delay", "500ms")
	v.SetDefault("client.move_throttle", "100ms")
	v.SetDefault("client.event_buffer", 64)

	v.SetDefault("devserver.host", "127.0.0.1")
	v.SetDefault("devserver.port", 5000)
	v.SetDefault("devserver.scenario", "content/scenarios/goblin.yaml")
	v.SetDefault("devserver.round_delay", "250ms")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "")
}
