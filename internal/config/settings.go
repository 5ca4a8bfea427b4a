package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SettingsFile = "liquid_os_settings.yaml"
	APIKeyEnv    = "GEMINI_API_KEY"
)

var ErrNoSettings = errors.New("no settings saved")

// Settings is the locally persisted first-run record.
type Settings struct {
	APIKey      string `yaml:"api_key"`
	DisplayName string `yaml:"display_name"`
	StoreDSN    string `yaml:"store_dsn,omitempty"`
}

// SettingsDir is the default directory for the settings record.
func SettingsDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating settings dir: %w", err)
	}
	return filepath.Join(dir, "liquid"), nil
}

func settingsPath(dir string) string {
	return filepath.Join(dir, SettingsFile)
}

// LoadSettings reads the record in dir. A corrupt record is removed and
// reported as ErrNoSettings so the caller falls back to setup.
func LoadSettings(dir string) (*Settings, error) {
	path := settingsPath(dir)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSettings
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil || validateSettings(&settings) != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("removing corrupt settings: %w", rmErr)
		}
		return nil, ErrNoSettings
	}

	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		settings.APIKey = key
	}
	return &settings, nil
}

func SaveSettings(dir string, settings *Settings) error {
	if err := validateSettings(settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	path := settingsPath(dir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// ResetSettings removes the record. Removing a missing record is not an error.
func ResetSettings(dir string) error {
	if err := os.Remove(settingsPath(dir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("resetting settings: %w", err)
	}
	return nil
}

func validateSettings(settings *Settings) error {
	if settings == nil {
		return fmt.Errorf("settings are required")
	}
	if strings.TrimSpace(settings.APIKey) == "" && strings.TrimSpace(os.Getenv(APIKeyEnv)) == "" {
		return fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(settings.DisplayName) == "" {
		return fmt.Errorf("display name is required")
	}
	if _, err := StoreScheme(settings.StoreDSN); err != nil {
		return err
	}
	return nil
}
