// Package config provides YAML-based configuration loading for t2048.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-2048/internal/engine"
)

// Config is the complete application configuration.
type Config struct {
	Game    GameConfig    `yaml:"game"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// GameConfig holds the rule parameters passed to the engine.
type GameConfig struct {
	WinTile              int                `yaml:"win_tile"`
	SpawnFourProbability float64            `yaml:"spawn_four_probability"`
	SpawnPolicy          engine.SpawnPolicy `yaml:"spawn_policy"`
}

// StorageConfig locates the results database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// ServerConfig configures the remote play listeners.
type ServerConfig struct {
	SSHAddress  string        `yaml:"ssh_address"`
	HostKeyPath string        `yaml:"host_key_path"` // auto-generated under ~/.t2048 when empty
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	WSAddress   string        `yaml:"ws_address"` // empty disables the WebSocket listener
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Game: GameConfig{
			WinTile:              engine.DefaultWinTile,
			SpawnFourProbability: engine.DefaultSpawnFourProbability,
			SpawnPolicy:          engine.SpawnAlways,
		},
		Storage: StorageConfig{
			DBPath: "~/.t2048/scores.db",
		},
		Server: ServerConfig{
			SSHAddress:  ":23234",
			IdleTimeout: 30 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error

	if w := c.Game.WinTile; w < 4 || w&(w-1) != 0 {
		errs = append(errs, fmt.Errorf("game.win_tile %d is not a power of two >= 4", w))
	}
	if p := c.Game.SpawnFourProbability; p < 0 || p > 1 {
		errs = append(errs, fmt.Errorf("game.spawn_four_probability %v is outside [0, 1]", p))
	}
	switch c.Game.SpawnPolicy {
	case engine.SpawnAlways, engine.SpawnOnChange:
	default:
		errs = append(errs, fmt.Errorf("game.spawn_policy %q is not %q or %q",
			c.Game.SpawnPolicy, engine.SpawnAlways, engine.SpawnOnChange))
	}
	if c.Server.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.idle_timeout %s is negative", c.Server.IdleTimeout))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// EngineOptions converts the game section to engine options.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithWinTile(c.Game.WinTile),
		engine.WithSpawnFourProbability(c.Game.SpawnFourProbability),
		engine.WithSpawnPolicy(c.Game.SpawnPolicy),
	}
}

// LogLevel returns the parsed log level, falling back to info.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
