// Package config provides user configuration management for formwizard.
//
// The configuration is a YAML file holding the record store endpoint, the
// session server settings, extra form definitions and user preferences.
// Every scalar setting can be overridden from the environment using the
// FORMWIZARD_ prefix (see ApplyEnv).
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/formwizard/config.yaml or $HOME/.config/formwizard/config.yaml
//   - macOS: $HOME/.config/formwizard/config.yaml
//   - Windows: %LOCALAPPDATA%\formwizard\config.yaml
//
// FORMWIZARD_CONFIG points at an alternative file.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.Preferences.DefaultForm = "reactive-user"
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
