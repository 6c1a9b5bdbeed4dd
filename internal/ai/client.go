// Package ai talks to OpenAI for invoice OCR and structured extraction.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"github.com/open-kbs/ai-invoice/internal/model"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

const ocrPrompt = `Transcribe all text on this invoice or receipt image.
Keep the original language, numbers and line structure. Do not summarize.`

// ErrEmptyResponse is returned when the model answers with no content.
var ErrEmptyResponse = errors.New("empty response content")

// Client performs OCR and invoice extraction.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a Client. Extra request options (base URL, retries) are
// passed to the OpenAI client.
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &Client{client: &client, model: model}
}

// ImageToText returns the text found on the image at imageURL.
func (c *Client) ImageToText(ctx context.Context, imageURL string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(ocrPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
			}),
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ExtractDocument turns OCR text into a structured document, booking it
// against the given chart of accounts.
func (c *Client) ExtractDocument(ctx context.Context, invoiceText string, chart model.ChartOfAccounts) (*Extraction, error) {
	chartJSON, err := json.Marshal(chart)
	if err != nil {
		return nil, fmt.Errorf("marshaling chart: %w", err)
	}
	prompt := fmt.Sprintf(`You are an expert accountant.
Read the invoice text below and extract the document and a double-entry booking for it.
Rules:
1. Use ONLY account numbers from the chart of accounts below, or propose new ones in suggestedAccounts.
2. Debits MUST equal Credits.
3. Amounts must be exact decimal strings (e.g. "100.00").
4. Dates use YYYY-MM-DD.
5. Direction is "Debit" or "Credit".

Chart of Accounts:
%s

Invoice text:
%s`, chartJSON, invoiceText)

	schemaMap, err := ExtractionSchema()
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "invoice_extraction",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("An accounting document extracted from invoice text"),
				},
			},
		},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, ErrEmptyResponse
	}
	return ParseExtraction(content)
}

// ExtractionSchema reflects the JSON schema of Extraction for strict
// structured output.
func ExtractionSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(Extraction{})
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	// Strict mode rejects the $schema and $id keywords.
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")
	return schemaMap, nil
}
