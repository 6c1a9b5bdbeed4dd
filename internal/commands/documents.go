package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-kbs/ai-invoice/internal/actions"
	"github.com/open-kbs/ai-invoice/internal/documents"
	"github.com/open-kbs/ai-invoice/internal/render"
)

const saveRequestType = "SAVE_DOCUMENT_REQUEST"

func newDocumentsCommand(configPath func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Stored document operations",
	}
	cmd.AddCommand(
		newDocumentsSaveCommand(configPath),
		newDocumentsListCommand(configPath),
	)
	return cmd
}

func newDocumentsSaveCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "save <file.json>",
		Short: "Save a document, or a SAVE_DOCUMENT_REQUEST, read from a JSON file (- for stdin)",
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
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			message, err := saveMessage(data)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), configPath())
			if err != nil {
				return err
			}
			defer a.close()

			resp := a.dispatcher.Dispatch(cmd.Context(), actions.HookResponse, message)
			if resp.Failed() {
				return fmt.Errorf("%s: %s", resp.Type, resp.Error)
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

// saveMessage builds the save request for a bare document or for a request
// read from disk. The type field always comes first so the dispatcher
// pattern matches.
func saveMessage(data []byte) (string, error) {
	var in struct {
		Type              string          `json:"type"`
		Document          json.RawMessage `json:"document"`
		SuggestedAccounts json.RawMessage `json:"suggestedAccounts"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return "", fmt.Errorf("parsing document: %w", err)
	}

	req := struct {
		Type              string          `json:"type"`
		Document          json.RawMessage `json:"document"`
		SuggestedAccounts json.RawMessage `json:"suggestedAccounts,omitempty"`
	}{Type: saveRequestType, Document: data}
	if in.Type == saveRequestType {
		req.Document = in.Document
		req.SuggestedAccounts = in.SuggestedAccounts
	}
	if len(req.Document) == 0 {
		return "", fmt.Errorf("no document data provided")
	}

	out, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("building save request: %w", err)
	}
	return string(out), nil
}

func newDocumentsListCommand(configPath func() string) *cobra.Command {
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), configPath())
			if err != nil {
				return err
			}
			defer a.close()

			if limit <= 0 {
				limit = a.cfg.Limits.ListDocuments
			}
			records, err := a.docs.Fetch(cmd.Context(), limit)
			if err != nil {
				return err
			}
			summaries := documents.SummarizeAll(records)

			if asJSON {
				return printJSON(cmd.OutOrStdout(), summaries)
			}
			return render.Documents(cmd.OutOrStdout(), summaries)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print summaries as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of documents (default from config)")
	return cmd
}
