package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl   string `json:"base_url"`
	SinceDays int    `json:"since_days"`
	Headless  bool   `json:"headless"`
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0644)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "portal.json5")

	writeFile(t, name, `{
		// comments are allowed
		base_url: "https://portal.example.com",
		since_days: 14,
		headless: true,
	}`)

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "https://portal.example.com", config.BaseUrl)
	require.Equal(t, 14, config.SinceDays)
	require.True(t, config.Headless)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "portal.json5")

	writeFile(t, name, `{base_url: "https://portal.example.com", since_days: 14}`)
	writeFile(t, filepath.Join(dir, "portal.local.json5"), `{since_days: 30}`)

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "https://portal.example.com", config.BaseUrl)
	require.Equal(t, 30, config.SinceDays)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
