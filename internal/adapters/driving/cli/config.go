package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/adapters/driven/ai"
	"github.com/custodia-labs/athena/internal/adapters/driven/config/file"
	"github.com/custodia-labs/athena/internal/core/domain"
)

var configForce bool

// Provider checks run by doctor. Replaced in tests.
var (
	checkEmbedding = ai.ValidateEmbeddingConfig
	checkLLM       = ai.ValidateLLMConfig
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and initialise settings",
	Long: `Show the effective settings after config file, .env and environment
overrides are applied, or write a starter config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := settingsStore()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path())
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate settings and check provider connectivity",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
}

func settingsStore() (*file.SettingsStore, error) {
	if configPath != "" {
		return file.NewSettingsStoreAt(configPath), nil
	}
	return file.NewSettingsStore("")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}
	s := appSettings

	cmd.Println("[Server]")
	cmd.Printf("  Port: %d\n", s.Server.Port)
	cmd.Printf("  API Key: %s\n", maskAPIKey(s.Server.APIKey))
	cmd.Printf("  Docs Path: %s\n", s.Server.DocsPath)
	cmd.Printf("  Max Upload: %d MB\n", s.Server.MaxUploadMB)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", s.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", s.Embedding.Model)
	if s.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.Embedding.BaseURL)
	}
	if s.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskAPIKey(s.Embedding.APIKey))
	}
	if s.Embedding.RequestsPerMinute > 0 {
		cmd.Printf("  Requests/min: %d\n", s.Embedding.RequestsPerMinute)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(s.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", s.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", s.LLM.Model)
	if s.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.LLM.BaseURL)
	}
	if s.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskAPIKey(s.LLM.APIKey))
	}
	cmd.Printf("  Status: %s\n", configuredStatus(s.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", s.VectorIndex.Backend)
	cmd.Printf("  Collection: %s\n", s.VectorIndex.Collection)
	switch s.VectorIndex.Backend {
	case domain.VectorBackendQdrant:
		cmd.Printf("  URL: %s\n", s.VectorIndex.URL)
	case domain.VectorBackendChromem:
		cmd.Printf("  Path: %s\n", s.VectorIndex.Path)
	case domain.VectorBackendMemory:
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Data Dir: %s\n", s.Storage.DataDir)
	cmd.Printf("  Chunking: %d chars, %d overlap\n", s.Chunking.Size, s.Chunking.Overlap)
	cmd.Println()

	if err := file.Validate(s); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	store, err := settingsStore()
	if err != nil {
		return err
	}

	if _, err := os.Stat(store.Path()); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", store.Path())
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := store.Save(domain.DefaultAppSettings()); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	cmd.Printf("Wrote %s\n", store.Path())
	cmd.Println("Set GEMINI_API_KEY (or choose another provider) before ingesting.")
	return nil
}

// runDoctor validates settings, then pings each AI provider. Every check
// runs; the command fails if any did.
func runDoctor(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}
	ctx := commandContext(cmd)
	s := appSettings

	checks := []struct {
		name string
		run  func(context.Context) error
	}{
		{"settings", func(context.Context) error { return file.Validate(s) }},
		{"embedding (" + s.Embedding.Provider.String() + ")", func(ctx context.Context) error {
			return checkEmbedding(ctx, &s.Embedding)
		}},
		{"llm (" + s.LLM.Provider.String() + ")", func(ctx context.Context) error {
			return checkLLM(ctx, &s.LLM)
		}},
	}

	failed := 0
	for _, c := range checks {
		if err := c.run(ctx); err != nil {
			failed++
			cmd.Printf("  FAIL  %s: %v\n", c.name, err)
			continue
		}
		cmd.Printf("  ok    %s\n", c.name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func maskAPIKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
