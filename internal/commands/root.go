package commands

import (
	"github.com/spf13/cobra"

	"github.com/open-kbs/ai-invoice/internal/buildinfo"
	"github.com/open-kbs/ai-invoice/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "ai-invoice",
		Short:   "Chat-driven invoice bookkeeping and reports",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName, "config file")

	cfg := func() string { return configPath }
	rootCmd.AddCommand(
		newInitCommand(),
		newChatCommand(cfg),
		newReportCommand(cfg),
		newAccountsCommand(cfg),
		newDocumentsCommand(cfg),
		newServeCommand(cfg),
		newOCRCommand(cfg),
	)

	return rootCmd
}
