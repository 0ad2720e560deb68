package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
	"github.com/felixgeelhaar/essaycoach/pkg/storage"
)

var (
	initProvider string
	initModel    string
	initStorage  string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an essaycoach workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		repo := storage.NewFilesystemRepository(root)
		if repo.IsInitialized() {
			return NewCLIError("workspace already initialized", "Edit "+storage.WorkspaceDir+"/"+storage.ConfigFile+" to change settings", nil)
		}

		cfg := config.Default()
		if initProvider != "" {
			cfg.AI.Provider = strings.ToLower(initProvider)
		}
		if initModel != "" {
			cfg.AI.Model = initModel
		}
		if initStorage != "" {
			cfg.Storage.Driver = strings.ToLower(initStorage)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}

		if err := repo.Initialize(); err != nil {
			return err
		}
		if err := config.Save(root, cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized essaycoach workspace in %s (provider %s:%s, storage %s)\n",
			repo.Dir(), cfg.AI.Provider, cfg.AI.Model, cfg.Storage.Driver)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initProvider, "provider", "", "AI provider (ollama, openai, anthropic, gemini, mock)")
	initCmd.Flags().StringVar(&initModel, "model", "", "Model name for the provider")
	initCmd.Flags().StringVar(&initStorage, "storage", "", "Document store driver (file, sqlite)")
	RootCmd.AddCommand(initCmd)
}
