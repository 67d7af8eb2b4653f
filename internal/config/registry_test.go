package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/formwizard/internal/wizard"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "formwizard") {
		t.Errorf("GetConfigDir() = %v, should contain 'formwizard'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != "/tmp/xdg/formwizard" {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg/formwizard", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(PathEnvVar, "")

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestGetConfigPath_Override(t *testing.T) {
	t.Setenv(PathEnvVar, "/etc/formwizard.yaml")

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if configPath != "/etc/formwizard.yaml" {
		t.Errorf("GetConfigPath() = %v, want /etc/formwizard.yaml", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.API == nil || reg.Server == nil || reg.Preferences == nil {
		t.Fatal("NewRegistry() sections should not be nil")
	}

	if reg.API.BaseURL != "https://api.restful-api.dev/objects" {
		t.Errorf("API.BaseURL = %v", reg.API.BaseURL)
	}

	if reg.Server.Port != 8080 {
		t.Errorf("Server.Port = %v, want 8080", reg.Server.Port)
	}

	if !reg.Server.Advertise {
		t.Error("Server.Advertise should be true by default")
	}

	if reg.Preferences.DefaultForm != "registration" {
		t.Errorf("Preferences.DefaultForm = %v, want registration", reg.Preferences.DefaultForm)
	}

	if reg.APITimeout() != 10*time.Second {
		t.Errorf("APITimeout() = %v, want 10s", reg.APITimeout())
	}

	if reg.SessionTTL() != 30*time.Minute {
		t.Errorf("SessionTTL() = %v, want 30m", reg.SessionTTL())
	}

	if reg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %v, want 0.0.0.0:8080", reg.Addr())
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.Server.Port = 9090
	reg.Preferences.DefaultForm = "feedback-form"
	reg.Forms = []*wizard.Definition{exampleForm()}

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if loaded.Server.Port != 9090 {
		t.Errorf("Server.Port = %v, want 9090", loaded.Server.Port)
	}

	if len(loaded.Forms) != 1 {
		t.Fatalf("len(Forms) = %d, want 1", len(loaded.Forms))
	}

	if loaded.Forms[0].ID != "feedback-form" {
		t.Errorf("Forms[0].ID = %q, want feedback-form (slug of title)", loaded.Forms[0].ID)
	}

	catalog, err := loaded.Catalog()
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	if _, ok := catalog.Lookup("feedback-form"); !ok {
		t.Error("catalog should contain the configured form")
	}
	if _, ok := catalog.Lookup("registration"); !ok {
		t.Error("catalog should still contain built-ins")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	reg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if reg.Version != 1 {
		t.Errorf("Version = %d, want 1", reg.Version)
	}
}

func TestLoadFile_PartialFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "version: 1\napi:\n  base_url: http://localhost:3000/objects\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if reg.API.BaseURL != "http://localhost:3000/objects" {
		t.Errorf("API.BaseURL = %v", reg.API.BaseURL)
	}
	if reg.API.TimeoutSeconds != 10 {
		t.Errorf("API.TimeoutSeconds = %v, want default 10", reg.API.TimeoutSeconds)
	}
	if reg.Server == nil || reg.Server.Port != 8080 {
		t.Error("missing server section should get defaults")
	}
}

func TestLoadFile_SessionTTL(t *testing.T) {
	tests := []struct {
		name string
		data string
		want time.Duration
	}{
		{"absent section", "version: 1
", 30 * time.Minute},
		{"absent key", "version: 1
server:
  port: 9090
", 30 * time.Minute},
		{"explicit zero", "version: 1
server:
  session_ttl_seconds: 0
", 0},
		{"explicit value", "version: 1
server:
  session_ttl_seconds: 60
", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatal(err)
			}

			reg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if reg.SessionTTL() != tt.want {
				t.Errorf("SessionTTL() = %v, want %v", reg.SessionTTL(), tt.want)
			}
			if !reg.Server.Advertise {
				t.Error("Advertise should keep its default when the key is absent")
			}
		})
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad version", "version: 2\n", "unsupported config version"},
		{"bad yaml", "version: [\n", "failed to parse"},
		{"bad port", "version: 1\nserver:\n  port: 70000\n", "out of range"},
		{"negative ttl", "version: 1\nserver:\n  session_ttl_seconds: -5\n", "is negative"},
		{
			"bad form",
			"version: 1\nforms:\n  - id: broken\n    kind: wizard\n",
			"forms[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("LoadFile() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	reg := NewRegistry()

	err := reg.ApplyEnv(map[string]string{
		"FORMWIZARD_API_URL":      "http://records.local/objects",
		"FORMWIZARD_API_RETRIES":  "5",
		"FORMWIZARD_SERVER_PORT":  "9999",
		"FORMWIZARD_TOKEN":        "s3cret",
		"FORMWIZARD_ADVERTISE":    "false",
		"FORMWIZARD_DEFAULT_FORM": "skills",
		"UNRELATED":               "ignored",
	})
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if reg.API.BaseURL != "http://records.local/objects" {
		t.Errorf("API.BaseURL = %v", reg.API.BaseURL)
	}
	if reg.API.Retries != 5 {
		t.Errorf("API.Retries = %v, want 5", reg.API.Retries)
	}
	if reg.Server.Port != 9999 {
		t.Errorf("Server.Port = %v, want 9999", reg.Server.Port)
	}
	if reg.Server.Token != "s3cret" {
		t.Errorf("Server.Token = %v, want s3cret", reg.Server.Token)
	}
	if reg.Server.Advertise {
		t.Error("Server.Advertise should be overridden to false")
	}
	if reg.Preferences.DefaultForm != "skills" {
		t.Errorf("Preferences.DefaultForm = %v, want skills", reg.Preferences.DefaultForm)
	}
	if reg.API.TimeoutSeconds != 10 {
		t.Errorf("unset variables must keep existing values, TimeoutSeconds = %v", reg.API.TimeoutSeconds)
	}
}

func TestApplyEnv_BadValue(t *testing.T) {
	reg := NewRegistry()

	err := reg.ApplyEnv(map[string]string{"FORMWIZARD_SERVER_PORT": "eighty"})
	if err == nil {
		t.Fatal("ApplyEnv() should reject a non-numeric port")
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(PathEnvVar, path)

	got, err := CreateDefaultConfig(false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if got != path {
		t.Errorf("path = %v, want %v", got, path)
	}

	if _, err := CreateDefaultConfig(false); err == nil {
		t.Error("second CreateDefaultConfig(false) should refuse to overwrite")
	}
	if _, err := CreateDefaultConfig(true); err != nil {
		t.Errorf("CreateDefaultConfig(true) error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# formwizard configuration file") {
		t.Error("saved file should start with the header comment")
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}
