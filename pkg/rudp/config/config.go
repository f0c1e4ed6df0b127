// Package config loads the small amount of environment-driven
// configuration this transport honors.
package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// Config is the process-wide environment configuration. Values other
// than the documented ones (e.g. RUDP_LOG set to anything but "1") are
// treated as disabled: logging stays off unless explicitly turned on.
type Config struct {
	// LogEnabled mirrors RUDP_LOG=1. Set by Load; see rawLog below for why.
	LogEnabled bool

	// LogDir overrides the directory client_log.txt/server_log.txt are
	// written to. Empty means the current working directory.
	LogDir string `env:"RUDP_LOG_DIR"`
}

// rawLog is the literal RUDP_LOG variable, kept separate from
// LogEnabled because its accepted value is exactly "1", not any
// truthy string envconfig would otherwise accept for a bool.
type rawLog struct {
	RUDPLog string `env:"RUDP_LOG"`
}

// Load reads the process environment into a Config.
func Load(ctx context.Context) (Config, error) {
	var raw rawLog
	if err := envconfig.Process(ctx, &raw); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	cfg.LogEnabled = raw.RUDPLog == "1"
	return cfg, nil
}
