package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Tuning defaults. The scroll divisor compensates for high-resolution
// wheel deltas (~100 per notch) against the injector's line-based
// scroll unit; the sample interval bounds control-channel bandwidth at
// roughly 30 sends per second.
const (
	DefaultScrollDivisor    = 20.0
	DefaultSampleIntervalMS = 33
)

// UserSettings holds persistable user preferences
type UserSettings struct {
	RelayURL         string  `json:"relayUrl"`
	ScrollDivisor    float64 `json:"scrollDivisor"`
	SampleIntervalMS int     `json:"sampleIntervalMs"`
	DisplayScale     float64 `json:"displayScale"`
}

// SettingsManager handles loading and saving user settings
type SettingsManager struct {
	path     string
	settings UserSettings
}

// NewSettingsManager creates a settings manager with the default config path
func NewSettingsManager() (*SettingsManager, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return &SettingsManager{path: path}, nil
}

// getConfigPath returns the config file path.
// Uses XDG_CONFIG_HOME if set, otherwise the OS user config directory.
func getConfigPath() (string, error) {
	var configDir string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "pairdesk")
	} else {
		userConfigDir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(userConfigDir, "pairdesk")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// DefaultSettings returns the default settings
func DefaultSettings() UserSettings {
	return UserSettings{
		ScrollDivisor:    DefaultScrollDivisor,
		SampleIntervalMS: DefaultSampleIntervalMS,
		DisplayScale:     1.0,
	}
}

// Load reads settings from the config file.
// Returns default settings if the file doesn't exist or is invalid.
func (sm *SettingsManager) Load() (UserSettings, error) {
	sm.settings = DefaultSettings()

	data, err := os.ReadFile(sm.path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist - use defaults, not an error
			return sm.settings, nil
		}
		return sm.settings, err
	}

	if err := json.Unmarshal(data, &sm.settings); err != nil {
		// Invalid JSON - use defaults
		return DefaultSettings(), nil
	}

	sm.validateSettings()
	return sm.settings, nil
}

// validateSettings ensures loaded settings are within valid ranges
func (sm *SettingsManager) validateSettings() {
	if sm.settings.ScrollDivisor <= 0 {
		sm.settings.ScrollDivisor = DefaultScrollDivisor
	}
	if sm.settings.SampleIntervalMS <= 0 {
		sm.settings.SampleIntervalMS = DefaultSampleIntervalMS
	}
	if sm.settings.DisplayScale <= 0 {
		sm.settings.DisplayScale = 1.0
	}
}

// Save writes current settings to the config file
func (sm *SettingsManager) Save(settings UserSettings) error {
	sm.settings = settings

	dir := filepath.Dir(sm.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(sm.path, data, 0644)
}

// GetSettings returns the current settings
func (sm *SettingsManager) GetSettings() UserSettings {
	return sm.settings
}
