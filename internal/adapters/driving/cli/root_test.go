package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/app"
	"github.com/custodia-labs/athena/internal/core/domain"
)

func TestRootCmd_ListsCommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"serve", "ingest", "query", "ask", "verify", "docs", "watch", "mcp", "config", "doctor", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)

	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestVersionCmd(t *testing.T) {
	setupTestServices(t)
	original := version
	SetVersion("1.2.3")
	defer func() { version = original }()

	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "athena version 1.2.3")
}

func TestEnsureServices_BuildsOnce(t *testing.T) {
	setupTestServices(t)
	resetState()

	var loadedFrom string
	loadSettings = func(path string) (domain.AppSettings, error) {
		loadedFrom = path
		return domain.DefaultAppSettings(), nil
	}
	builds := 0
	buildApp = func(context.Context, domain.AppSettings) (*app.App, error) {
		builds++
		return &app.App{}, nil
	}

	configPath = "/tmp/athena-test.toml"
	require.NoError(t, ensureServices(rootCmd))
	require.NoError(t, ensureServices(rootCmd))

	assert.Equal(t, "/tmp/athena-test.toml", loadedFrom)
	assert.Equal(t, 1, builds)
	assert.True(t, servicesReady)
	assert.Equal(t, domain.DefaultPort, appSettings.Server.Port)
}

func TestEnsureServices_Errors(t *testing.T) {
	t.Run("settings", func(t *testing.T) {
		setupTestServices(t)
		resetState()
		loadSettings = func(string) (domain.AppSettings, error) {
			return domain.AppSettings{}, errors.New("bad toml")
		}

		_, err := execute(t, "docs")

		assert.EqualError(t, err, "bad toml")
	})

	t.Run("construction", func(t *testing.T) {
		setupTestServices(t)
		resetState()
		loadSettings = func(string) (domain.AppSettings, error) { return domain.DefaultAppSettings(), nil }
		buildApp = func(context.Context, domain.AppSettings) (*app.App, error) {
			return nil, domain.ErrLLMUnavailable
		}

		_, err := execute(t, "query", "hello")

		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
		assert.False(t, servicesReady)
	})
}

func TestCommands_NotConfigured(t *testing.T) {
	setupTestServices(t)
	SetServices(Services{Settings: domain.DefaultAppSettings()})

	tests := [][]string{
		{"ingest", "file.txt"},
		{"query", "hello"},
		{"verify"},
		{"docs"},
		{"serve"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			_, err := execute(t, args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "not configured")
		})
	}
}

func TestServeAddr(t *testing.T) {
	assert.Equal(t, ":8000", serveAddr(0, 8000))
	assert.Equal(t, ":9090", serveAddr(9090, 8000))
}
