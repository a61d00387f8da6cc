package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ManouchehrRasoulli/fsbrowser/pkg"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(file, []byte("host: 127.0.0.1\nport: 9000\n"), 0644))
	configFile = file
	defer func() { configFile = "" }()

	cfg, err := loadConfig(serveCmd)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Address())

	require.NoError(t, serveCmd.Flags().Set("port", "9090"))
	cfg, err = loadConfig(serveCmd)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", cfg.Address(), "a set flag wins over the file.")
}

func TestLoadConfig_Invalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(file, []byte("folders: [../up]\n"), 0644))
	configFile = file
	defer func() { configFile = "" }()

	_, err := loadConfig(generateCmd)
	require.ErrorIs(t, err, pkg.ErrInvalidConfig)
}
