package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	sm, err := NewSettingsManager()
	require.NoError(t, err)

	settings := DefaultSettings()
	settings.RelayURL = "ws://localhost:9999/ws"
	settings.ScrollDivisor = 10
	require.NoError(t, sm.Save(settings))

	sm2, err := NewSettingsManager()
	require.NoError(t, err)
	loaded, err := sm2.Load()
	require.NoError(t, err)

	assert.Equal(t, settings, loaded)
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	sm, err := NewSettingsManager()
	require.NoError(t, err)

	settings, err := sm.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadDefaultsOnInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "pairdesk")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"), []byte("{broken"), 0644))

	sm, err := NewSettingsManager()
	require.NoError(t, err)

	settings, err := sm.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadClampsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "pairdesk")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	payload := []byte(`{"scrollDivisor":-1,"sampleIntervalMs":0,"displayScale":-2}`)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"), payload, 0644))

	sm, err := NewSettingsManager()
	require.NoError(t, err)

	settings, err := sm.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultScrollDivisor, settings.ScrollDivisor)
	assert.Equal(t, DefaultSampleIntervalMS, settings.SampleIntervalMS)
	assert.Equal(t, 1.0, settings.DisplayScale)
}
