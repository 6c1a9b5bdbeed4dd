package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/model"
)

// extractedRequest is the save request printed by ocr --extract. Feeding it
// to "documents save" books the document.
type extractedRequest struct {
	Type              string                      `json:"type"`
	Document          model.Document              `json:"document"`
	SuggestedAccounts []accounts.AddAccountParams `json:"suggestedAccounts"`
}

func newOCRCommand(configPath func() string) *cobra.Command {
	var extract bool
	var id string

	cmd := &cobra.Command{
		Use:   "ocr <image-url>",
		Short: "Read the text of an invoice image",
		Long: "Read the text of an invoice image. With --extract the text is turned into a " +
			"SAVE_DOCUMENT_REQUEST booked against the current chart of accounts.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), configPath())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.requireAI(); err != nil {
				return err
			}

			text, err := a.ai.ImageToText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !extract {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}

			chart, err := a.chart.Chart(cmd.Context())
			if err != nil {
				return err
			}
			ex, err := a.ai.ExtractDocument(cmd.Context(), text, chart)
			if err != nil {
				return err
			}

			if id == "" {
				id = uuid.NewString()
			}
			return printJSON(cmd.OutOrStdout(), extractedRequest{
				Type:              saveRequestType,
				Document:          ex.Document(id),
				SuggestedAccounts: ex.Suggestions(),
			})
		},
	}

	cmd.Flags().BoolVar(&extract, "extract", false, "extract a bookable document from the text")
	cmd.Flags().StringVar(&id, "id", "", "DocumentId for the extracted document (default random UUID)")
	return cmd
}
