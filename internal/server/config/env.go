package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "SK_"

// parseEnv overlays SK_* environment variables. Unset variables leave the
// current value alone.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
