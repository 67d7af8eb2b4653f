package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/muurk/formwizard/internal/wizard"
)

const (
	appName    = "formwizard"
	configFile = "config.yaml"

	// PathEnvVar overrides the configuration file location
	PathEnvVar = "FORMWIZARD_CONFIG"
)

var (
	// Global registry instance (loaded lazily)
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/formwizard or $HOME/.config/formwizard
//   - macOS: $HOME/.config/formwizard (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\formwizard
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
// FORMWIZARD_CONFIG takes precedence over the platform location.
func GetConfigPath() (string, error) {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// LoadRegistry loads the configuration registry from disk and applies
// environment overrides. If the file doesn't exist, returns a new default
// registry. Thread-safe - multiple calls will return the same instance.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		globalRegistry, globalRegistryErr = loadRegistryFromDisk()
	})
	return globalRegistry, globalRegistryErr
}

func loadRegistryFromDisk() (*Registry, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	registry, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := registry.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}

// LoadFile reads and validates the configuration file at path.
// A missing file yields a default registry.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys missing from the file keep their defaults; explicit zeros stay zero
	registry := NewRegistry()
	if err := yaml.Unmarshal(data, registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	registry.fillDefaults()
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}

// Save saves the registry to the configured location.
func (r *Registry) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return r.SaveTo(configPath)
}

// SaveTo writes the registry to path.
// Performs an atomic write to prevent corruption on crash.
func (r *Registry) SaveTo(configPath string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# formwizard configuration file
#
# Settings may be overridden from the environment, e.g.
# FORMWIZARD_API_URL, FORMWIZARD_SERVER_PORT, FORMWIZARD_TOKEN.
# Prefer FORMWIZARD_TOKEN over storing server.token here.
#
# Location: ` + configPath + `

`)
	data = append(header, data...)

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// ReloadRegistry reloads the registry from disk, discarding any in-memory changes.
func ReloadRegistry() (*Registry, error) {
	globalRegistryOnce = sync.Once{}
	return LoadRegistry()
}

// CreateDefaultConfig writes a default configuration file with an example
// custom form. Existing files are left untouched unless overwrite is set.
func CreateDefaultConfig(overwrite bool) (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil && !overwrite {
		return configPath, fmt.Errorf("config file already exists: %s", configPath)
	}

	registry := NewRegistry()
	registry.Forms = []*wizard.Definition{exampleForm()}

	return configPath, registry.SaveTo(configPath)
}

func exampleForm() *wizard.Definition {
	return &wizard.Definition{
		Title: "Feedback Form",
		Kind:  wizard.KindForm,
		Groups: []wizard.GroupDef{
			{
				Name:  "feedback",
				Title: "Feedback",
				Fields: []wizard.FieldDef{
					{Name: "email", Label: "Email", Type: wizard.FieldEmail, Validators: []wizard.ValidatorDef{{Kind: wizard.KeyEmail}}},
					{Name: "comment", Label: "Comment", Validators: []wizard.ValidatorDef{{Kind: wizard.KeyRequired}, {Kind: wizard.KeyMinLength, Arg: 10}}},
				},
			},
		},
	}
}
