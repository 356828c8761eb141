// Package ftconfig loads cmd/ftctl's TOML configuration: the default
// dispatch execution mode, the default reentrant-depth policy, the
// sidecar's repair-symbol count, and the log level.
package ftconfig

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is ftctl's full configuration surface. Mode is read by the
// checkpoint encode/decode commands; `ftctl run` takes its mode from its
// --hardened flag instead. ReentrantPolicy is validated but not read by any
// ftctl command.
type Config struct {
	Mode              string `toml:"mode"`
	ReentrantPolicy   string `toml:"reentrant_policy"`
	RepairSymbolCount int    `toml:"repair_symbol_count"`
	LogLevel          string `toml:"log_level"`
}

// Default returns the configuration ftctl runs with when no config file is
// present: strict mode, zero-tolerance reentrancy, four repair symbols,
// info-level logging.
func Default() Config {
	return Config{
		Mode:              "strict",
		ReentrantPolicy:   "strict_fail",
		RepairSymbolCount: 4,
		LogLevel:          "info",
	}
}

// Load reads and parses a TOML configuration file at path, validating its
// fields against the closed set of recognised values.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("ftconfig: read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("ftconfig: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a config carrying a value outside its recognised
// closed set.
func (c Config) Validate() error {
	switch c.Mode {
	case "strict", "hardened":
	default:
		return fmt.Errorf("ftconfig: mode must be \"strict\" or \"hardened\", got %q", c.Mode)
	}
	switch c.ReentrantPolicy {
	case "strict_fail", "hardened_bounded_fallback":
	default:
		return fmt.Errorf("ftconfig: reentrant_policy must be \"strict_fail\" or \"hardened_bounded_fallback\", got %q", c.ReentrantPolicy)
	}
	if c.RepairSymbolCount < 1 {
		return fmt.Errorf("ftconfig: repair_symbol_count must be >= 1, got %d", c.RepairSymbolCount)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("ftconfig: log_level must be one of debug|info|warn|error, got %q", c.LogLevel)
	}
	return nil
}
