package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-kbs/ai-invoice/internal/actions"
)

func newChatCommand(configPath func() string) *cobra.Command {
	var hook string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Run the action matching a chat message and print the result",
		Long:  "Run the action matching a chat message. Use - to read the message from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := actions.Hook(hook)
			if h != actions.HookRequest && h != actions.HookResponse {
				return fmt.Errorf("hook must be %q or %q", actions.HookRequest, actions.HookResponse)
			}

			message := args[0]
			if message == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				message = string(data)
			}

			a, err := openApp(cmd.Context(), configPath())
			if err != nil {
				return err
			}
			defer a.close()

			resp := a.dispatcher.Dispatch(cmd.Context(), h, strings.TrimSpace(message))
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&hook, "hook", string(actions.HookResponse), "hook the message arrives on (request, response)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
