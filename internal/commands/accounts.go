package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/render"
)

func newAccountsCommand(configPath func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Chart of accounts operations",
	}
	cmd.AddCommand(
		newAccountsListCommand(configPath),
		newAccountsAddCommand(configPath),
		newAccountsExportCommand(configPath),
		newAccountsImportCommand(configPath),
	)
	return cmd
}

func newAccountsListCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), configPath())
			if err != nil {
				return err
			}
			defer a.close()

			chart, err := a.chart.Chart(cmd.Context())
			if err != nil {
				return err
			}
			return render.Chart(cmd.OutOrStdout(), chart)
		},
	}
}

func newAccountsAddCommand(configPath func() string) *cobra.Command {
	var params accounts.AddAccountParams
	var category string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account to the chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Category = model.Category(category)
			if params.Category != "" && !params.Category.Valid() {
				return fmt.Errorf("unknown category %q", category)
			}

			a, err := openApp(cmd.Context(), configPath())
			if err != nil {
				return err
			}
			defer a.close()

			acct, err := a.chart.AddAccount(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s - %s added successfully\n", acct.Number, acct.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.ParentNumber, "parent", "", "parent account number (empty for top level)")
	cmd.Flags().StringVar(&params.Number, "number", "", "account number (required)")
	cmd.Flags().StringVar(&params.Name, "name", "", "account name (required)")
	cmd.Flags().StringVar(&category, "category", "", "Assets, Liabilities, Equity, Revenue or Expenses (default Expenses)")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAccountsExportCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the chart of accounts as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), configPath())
			if err != nil {
				return err
			}
			defer a.close()

			chart, err := a.chart.Chart(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return accounts.WriteAccounts(cmd.OutOrStdout(), chart)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}
			if err := accounts.WriteAccounts(f, chart); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func newAccountsImportCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the chart of accounts from CSV (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			chart, err := accounts.ReadAccounts(r)
			if err != nil {
				return err
			}
			if len(chart.Accounts) == 0 {
				return fmt.Errorf("%s has no accounts", args[0])
			}

			a, err := openApp(cmd.Context(), configPath())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.chart.Save(cmd.Context(), chart); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", chart.Count())
			return nil
		},
	}
}
