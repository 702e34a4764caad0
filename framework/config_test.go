package framework

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("Hello Triangle")

	assert.Equal(t, "Hello Triangle", cfg.Title)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
	assert.Equal(t, "assets", cfg.AssetsPath)
	assert.True(t, cfg.Validation)
	assert.False(t, cfg.SaveImages)
	assert.NoError(t, cfg.Validate())
}

func TestProcessCommandLineArgs(t *testing.T) {
	cfg := DefaultConfig("test")
	var out bytes.Buffer

	err := cfg.ProcessCommandLineArgs([]string{
		"--save-images", "--no-validation", "--vsync",
		"--assets", "/tmp/assets",
		"--width", "1024", "--height", "768",
		"--log-level", "debug",
	}, &out)
	require.NoError(t, err)

	assert.True(t, cfg.SaveImages)
	assert.False(t, cfg.Validation)
	assert.True(t, cfg.VSync)
	assert.Equal(t, "/tmp/assets", cfg.AssetsPath)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 768, cfg.Height)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, out.String())
}

func TestProcessCommandLineArgs_Help(t *testing.T) {
	for _, arg := range []string{"--help", "-h"} {
		t.Run(arg, func(t *testing.T) {
			cfg := DefaultConfig("test")
			var out bytes.Buffer

			err := cfg.ProcessCommandLineArgs([]string{arg}, &out)
			assert.True(t, errors.Is(err, ErrHelp))
			assert.Contains(t, out.String(), "--save-images")
		})
	}
}

func TestProcessCommandLineArgs_Errors(t *testing.T) {
	cases := map[string][]string{
		"unknown option": {"--fullscreen"},
		"missing value":  {"--width"},
		"bad number":     {"--height", "tall"},
		"zero width":     {"--width", "0"},
		"bad log level":  {"--log-level", "loud"},
		"missing config": {"--config", filepath.Join(t.TempDir(), "nope.toml")},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig("test")
			err := cfg.ProcessCommandLineArgs(args, &bytes.Buffer{})
			assert.Error(t, err)
			assert.False(t, errors.Is(err, ErrHelp))
		})
	}
}

func TestProcessCommandLineArgs_UnknownOptionPrintsHint(t *testing.T) {
	cfg := DefaultConfig("test")
	var out bytes.Buffer

	err := cfg.ProcessCommandLineArgs([]string{"--bogus"}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Unrecognized option: --bogus")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
width = 1280
assets = "../assets"
save_images = true
log_level = "warn"
`), 0o644))

	cfg := DefaultConfig("test")
	require.NoError(t, cfg.LoadConfigFile(path))

	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 600, cfg.Height, "keys missing from the file keep their value")
	assert.Equal(t, "../assets", cfg.AssetsPath)
	assert.True(t, cfg.SaveImages)
	assert.True(t, cfg.Validation)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigFile_ArgsAfterFileWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	require.NoError(t, os.WriteFile(path, []byte("width = 1280\n"), 0o644))

	cfg := DefaultConfig("test")
	err := cfg.ProcessCommandLineArgs([]string{"--config", path, "--width", "640"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
}

func TestLoadConfigFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("width = \n"), 0o644))

	cfg := DefaultConfig("test")
	assert.Error(t, cfg.LoadConfigFile(path))
}
