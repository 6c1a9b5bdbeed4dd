package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/open-kbs/ai-invoice/internal/config"
)

func newInitCommand() *cobra.Command {
	var name string
	var vatNumber string
	var driver string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ai-invoice workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(cmd, absDir, name, vatNumber, driver); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized ai-invoice workspace at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&vatNumber, "vat-number", "", "business VAT number")
	cmd.Flags().StringVar(&driver, "driver", config.DriverDir, "store driver (dir, memory, postgres)")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name, vatNumber, driver string) error {
	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default(name)
	cfg.Business.VATNumber = vatNumber
	cfg.Store.Driver = driver
	if err := cfg.Validate(); err != nil {
		return err
	}

	for _, d := range []string{".", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := "data/\nlogs/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Seed the chart of accounts.
	a, err := openApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.close()
	chart, err := a.chart.Chart(cmd.Context())
	if err != nil {
		return fmt.Errorf("seeding chart of accounts: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Chart of accounts: %d accounts\n", chart.Count())
	return nil
}
