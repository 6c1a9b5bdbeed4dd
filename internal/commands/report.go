package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-kbs/ai-invoice/internal/actions"
	"github.com/open-kbs/ai-invoice/internal/export"
	"github.com/open-kbs/ai-invoice/internal/render"
)

// reportCommands maps report names to the chat command that produces them.
var reportCommands = map[string]string{
	"trial-balance":    "/getTrialBalance()",
	"income-statement": "/getIncomeStatement()",
	"vat":              "/getVATReport()",
	"accounts":         "/getAccountsReport()",
}

func reportNames() []string {
	names := make([]string, 0, len(reportCommands))
	for name := range reportCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newReportCommand(configPath func() string) *cobra.Command {
	var format string
	var out string

	cmd := &cobra.Command{
		Use:       "report <" + strings.Join(reportNames(), "|") + ">",
		Short:     "Build a report over the stored documents",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: reportNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", "json", "xlsx":
			default:
				return fmt.Errorf("unknown format %q (table, json, xlsx)", format)
			}

			a, err := openApp(cmd.Context(), configPath())
			if err != nil {
				return err
			}
			defer a.close()

			resp := a.dispatcher.Dispatch(cmd.Context(), actions.HookResponse, reportCommands[args[0]])
			if resp.Failed() {
				return fmt.Errorf("%s: %s", resp.Type, resp.Error)
			}

			w := cmd.OutOrStdout()
			switch format {
			case "json":
				return printJSON(w, resp)
			case "xlsx":
				if out == "" {
					out = args[0] + ".xlsx"
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				if err := export.Write(f, resp.Data); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("closing %s: %w", out, err)
				}
				fmt.Fprintf(w, "Wrote %s\n", out)
				return nil
			default:
				if resp.Message != "" {
					fmt.Fprintln(w, resp.Message)
				}
				return render.Report(w, resp.Data)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format (table, json, xlsx)")
	cmd.Flags().StringVar(&out, "out", "", "xlsx output path (default <report>.xlsx)")
	return cmd
}
