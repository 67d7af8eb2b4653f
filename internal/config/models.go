package config

import (
	"fmt"
	"time"

	"github.com/muurk/formwizard/internal/wizard"
)

// CurrentVersion is the only config file version understood by this build
const CurrentVersion = 1

// DefaultSessionTTLSeconds applies when the config does not set server.session_ttl_seconds
const DefaultSessionTTLSeconds = 1800

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                  `yaml:"version"`
	API         *APIConfig           `yaml:"api,omitempty"`
	Server      *ServerConfig        `yaml:"server,omitempty"`
	Forms       []*wizard.Definition `yaml:"forms,omitempty"` // Extra definitions, merged over the built-ins
	Preferences *Preferences         `yaml:"preferences,omitempty"`
}

// APIConfig configures the record store client.
type APIConfig struct {
	BaseURL        string `yaml:"base_url" env:"API_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"API_TIMEOUT"`
	Retries        int    `yaml:"retries" env:"API_RETRIES"`
}

// ServerConfig configures formwizard-server.
type ServerConfig struct {
	Host              string `yaml:"host" env:"SERVER_HOST"`
	Port              int    `yaml:"port" env:"SERVER_PORT"`
	Token             string `yaml:"token,omitempty" env:"TOKEN"` // Bearer token guarding /api/records
	Advertise         bool   `yaml:"advertise" env:"ADVERTISE"`   // Announce the server over mDNS
	SessionTTLSeconds int    `yaml:"session_ttl_seconds" env:"SESSION_TTL"` // 0 keeps idle sessions forever
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultForm string `yaml:"default_form" env:"DEFAULT_FORM"` // Form opened by a bare `formwizard`
	LogLevel    string `yaml:"log_level,omitempty" env:"LOG_LEVEL"`
	ScanTimeout int    `yaml:"scan_timeout" env:"SCAN_TIMEOUT"` // mDNS scan timeout in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	r := &Registry{Version: CurrentVersion}
	r.fillDefaults()
	return r
}

func (r *Registry) fillDefaults() {
	if r.API == nil {
		r.API = &APIConfig{}
	}
	if r.API.BaseURL == "" {
		r.API.BaseURL = "https://api.restful-api.dev/objects"
	}
	if r.API.TimeoutSeconds <= 0 {
		r.API.TimeoutSeconds = 10
	}
	if r.API.Retries < 0 {
		r.API.Retries = 0
	}

	if r.Server == nil {
		r.Server = &ServerConfig{Advertise: true, SessionTTLSeconds: DefaultSessionTTLSeconds}
	}
	if r.Server.Host == "" {
		r.Server.Host = "0.0.0.0"
	}
	if r.Server.Port == 0 {
		r.Server.Port = 8080
	}

	if r.Preferences == nil {
		r.Preferences = &Preferences{}
	}
	if r.Preferences.DefaultForm == "" {
		r.Preferences.DefaultForm = "registration"
	}
	if r.Preferences.ScanTimeout <= 0 {
		r.Preferences.ScanTimeout = 5
	}
}

// Validate checks the registry for values that cannot be used.
func (r *Registry) Validate() error {
	if r.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", r.Version, CurrentVersion)
	}
	if r.Server.Port < 1 || r.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", r.Server.Port)
	}
	if r.Server.SessionTTLSeconds < 0 {
		return fmt.Errorf("server.session_ttl_seconds %d is negative (use 0 to keep sessions)", r.Server.SessionTTLSeconds)
	}
	for i, def := range r.Forms {
		if def == nil {
			return fmt.Errorf("forms[%d] is empty", i)
		}
		def.Normalize()
		if err := def.Validate(); err != nil {
			return fmt.Errorf("forms[%d]: %w", i, err)
		}
	}
	return nil
}

// APITimeout returns the record store timeout as a duration.
func (r *Registry) APITimeout() time.Duration {
	return time.Duration(r.API.TimeoutSeconds) * time.Second
}

// SessionTTL returns the idle session lifetime as a duration.
func (r *Registry) SessionTTL() time.Duration {
	return time.Duration(r.Server.SessionTTLSeconds) * time.Second
}

// Addr returns the server listen address.
func (r *Registry) Addr() string {
	return fmt.Sprintf("%s:%d", r.Server.Host, r.Server.Port)
}

// Catalog returns the built-in form definitions merged with the configured ones.
func (r *Registry) Catalog() (*wizard.Catalog, error) {
	return wizard.NewCatalog(r.Forms...)
}
