// Package cli provides the athena command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/app"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	verbose    bool
	configPath string
)

// Services used by the commands. Execute builds them on first use; tests
// replace them through SetServices.
var (
	appSettings      domain.AppSettings
	ingestService    driving.IngestService
	queryService     driving.QueryService
	reconcileService driving.ReconcileService
	documentService  driving.DocumentService

	servicesReady bool
	application   *app.App
)

// Construction hooks, replaced in tests.
var (
	loadSettings = app.LoadSettings
	buildApp     = app.New
)

// Services groups the driving ports the commands call into.
type Services struct {
	Settings  domain.AppSettings
	Ingest    driving.IngestService
	Query     driving.QueryService
	Reconcile driving.ReconcileService
	Documents driving.DocumentService
}

var rootCmd = &cobra.Command{
	Use:   "athena",
	Short: "Ask questions of your documents",
	Long: `Athena ingests PDF, DOCX and plain-text documents, stores their chunks
with vector embeddings, and answers natural-language questions using the
most relevant chunks as context for a language model.

Settings are read from ~/.athena/config.toml (or --config), .env files and
the environment.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default ~/.athena/config.toml)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices installs ready-made services, bypassing settings and
// construction.
func SetServices(s Services) {
	appSettings = s.Settings
	ingestService = s.Ingest
	queryService = s.Query
	reconcileService = s.Reconcile
	documentService = s.Documents
	servicesReady = true
}

// Execute runs the root command and releases anything it opened.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// ensureSettings loads settings once.
func ensureSettings() error {
	if servicesReady {
		return nil
	}
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	appSettings = settings
	return nil
}

// ensureServices builds the pipeline on first use.
func ensureServices(cmd *cobra.Command) error {
	if servicesReady {
		return nil
	}
	if err := ensureSettings(); err != nil {
		return err
	}

	a, err := buildApp(commandContext(cmd), appSettings)
	if err != nil {
		return err
	}
	application = a
	SetServices(Services{
		Settings:  appSettings,
		Ingest:    a.Ingest,
		Query:     a.Query,
		Reconcile: a.Reconcile,
		Documents: a.Documents,
	})
	return nil
}

func closeServices() {
	if application == nil {
		return
	}
	if err := application.Close(); err != nil {
		logger.Warn("closing: %v", err)
	}
	application = nil
	servicesReady = false
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// errNotConfigured is returned when a command needs a service that is absent.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
