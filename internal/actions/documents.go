package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/documents"
	"github.com/open-kbs/ai-invoice/internal/ledger"
	"github.com/open-kbs/ai-invoice/internal/model"
)

type saveRequest struct {
	Type              string          `json:"type"`
	Document          *model.Document `json:"document"`
	SuggestedAccounts json.RawMessage `json:"suggestedAccounts"`
}

// SavedDocument is the data of a DOCUMENT_SAVED response.
type SavedDocument struct {
	Message           string                   `json:"message"`
	DocumentID        string                   `json:"documentId"`
	ItemCount         int                      `json:"itemCount"`
	DocumentData      model.Document           `json:"documentData"`
	SuggestedAccounts json.RawMessage          `json:"suggestedAccounts"`
	Warnings          []ledger.ValidationError `json:"warnings"`
}

var emptyList = json.RawMessage("[]")

func (d *Dispatcher) saveDocument(ctx context.Context, match []string) Response {
	var req saveRequest
	if err := json.Unmarshal([]byte(match[0]), &req); err != nil {
		return Response{Type: TypeSaveDocumentFailed, Error: err.Error()}
	}
	if req.Document == nil {
		return Response{Type: TypeSaveDocumentFailed, Error: "No document data provided"}
	}
	doc := *req.Document

	if _, err := d.docs.Save(ctx, doc); err != nil {
		return Response{Type: TypeSaveDocumentFailed, Error: err.Error()}
	}

	suggested := req.SuggestedAccounts
	if len(bytes.TrimSpace(suggested)) == 0 || bytes.Equal(bytes.TrimSpace(suggested), []byte("null")) {
		suggested = emptyList
	}

	return Response{
		Type: TypeDocumentSaved,
		Data: SavedDocument{
			Message:           fmt.Sprintf("Document saved with ID: %s", doc.DocumentID),
			DocumentID:        doc.DocumentID,
			ItemCount:         len(doc.DocumentDetails),
			DocumentData:      doc,
			SuggestedAccounts: suggested,
			Warnings:          d.check(ctx, doc),
		},
	}
}

// check runs the bookkeeping rules against the current chart. Problems are
// reported, never blocking.
func (d *Dispatcher) check(ctx context.Context, doc model.Document) []ledger.ValidationError {
	chart, err := d.chart.Chart(ctx)
	if err != nil {
		d.logger.Warn("loading chart for document check", zap.Error(err))
		return []ledger.ValidationError{}
	}
	warnings := ledger.Check(doc, ledger.Accounts(accounts.BuildAccountMap(chart.Accounts)))
	if len(warnings) == 0 {
		return []ledger.ValidationError{}
	}
	d.logger.Warn("document saved with warnings",
		zap.String("document_id", doc.DocumentID),
		zap.Errors("warnings", validationErrors(warnings)))
	return warnings
}

func validationErrors(ve []ledger.ValidationError) []error {
	out := make([]error, len(ve))
	for i, e := range ve {
		out[i] = e
	}
	return out
}

func (d *Dispatcher) listDocuments(ctx context.Context, _ []string) Response {
	records, err := d.docs.Fetch(ctx, d.limits.ListDocuments)
	if err != nil {
		return Response{Type: TypeListDocumentsFailed, Error: err.Error()}
	}
	if len(records) == 0 {
		return Response{
			Type:    TypeDocumentsList,
			Message: "No documents found",
			Data:    []documents.Summary{},
		}
	}
	summaries := documents.SummarizeAll(records)
	return Response{
		Type:  TypeDocumentsList,
		Data:  summaries,
		Count: intPtr(len(summaries)),
	}
}
