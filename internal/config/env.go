package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "FORMWIZARD_"

// ApplyEnv overlays FORMWIZARD_* environment variables on the registry.
// environ supplies the variables; nil means the process environment.
func (r *Registry) ApplyEnv(environ map[string]string) error {
	r.fillDefaults()

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}

	for _, section := range []any{r.API, r.Server, r.Preferences} {
		if err := env.ParseWithOptions(section, opts); err != nil {
			return fmt.Errorf("failed to parse environment overrides: %w", err)
		}
	}
	return nil
}
