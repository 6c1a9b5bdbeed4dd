package documents

import (
	"time"

	"github.com/open-kbs/ai-invoice/internal/model"
)

// DecryptFailed is the listing error shown for unreadable items.
const DecryptFailed = "Failed to decrypt document"

// ItemSummary is one line item in a document listing.
type ItemSummary struct {
	Name      string       `json:"name"`
	Quantity  model.Amount `json:"quantity"`
	Measure   string       `json:"measure,omitempty"`
	Price     model.Amount `json:"price"`
	Amount    model.Amount `json:"amount"`
	VatRate   model.Amount `json:"vatRate"`
	VatAmount model.Amount `json:"vatAmount"`
}

// Summary is the listing view of a stored document. Only ID and Error are set
// for items that could not be read.
type Summary struct {
	ID             string        `json:"id"`
	Error          string        `json:"error,omitempty"`
	DocumentID     string        `json:"documentId,omitempty"`
	DocumentType   string        `json:"documentType,omitempty"`
	Number         string        `json:"number,omitempty"`
	Date           string        `json:"date,omitempty"`
	TotalAmount    *model.Amount `json:"totalAmount,omitempty"`
	TotalVatAmount *model.Amount `json:"totalVatAmount,omitempty"`
	Sender         string        `json:"sender,omitempty"`
	SenderTaxID    string        `json:"senderTaxId,omitempty"`
	Recipient      string        `json:"recipient,omitempty"`
	RecipientTaxID string        `json:"recipientTaxId,omitempty"`
	ItemCount      int           `json:"itemCount"`
	Items          []ItemSummary `json:"items,omitempty"`
	CreatedAt      *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time    `json:"updatedAt,omitempty"`
}

// Summarize builds the listing view of a fetched record.
func Summarize(rec Record) Summary {
	if rec.Err != nil {
		return Summary{ID: rec.ItemID, Error: DecryptFailed}
	}
	doc := rec.Document
	total, vat := doc.TotalAmount, doc.TotalVatAmount
	created, updated := rec.CreatedAt, rec.UpdatedAt
	s := Summary{
		ID:             rec.ItemID,
		DocumentID:     doc.DocumentID,
		DocumentType:   doc.DocumentType,
		Number:         doc.Number,
		Date:           doc.Date,
		TotalAmount:    &total,
		TotalVatAmount: &vat,
		Sender:         doc.SenderName(),
		Recipient:      doc.RecipientName(),
		ItemCount:      len(doc.DocumentDetails),
		Items:          make([]ItemSummary, 0, len(doc.DocumentDetails)),
		CreatedAt:      &created,
		UpdatedAt:      &updated,
	}
	if doc.CompanySender != nil {
		s.SenderTaxID = doc.CompanySender.TaxID
	}
	if doc.CompanyRecipient != nil {
		s.RecipientTaxID = doc.CompanyRecipient.TaxID
	}
	for _, d := range doc.DocumentDetails {
		s.Items = append(s.Items, ItemSummary{
			Name:      d.ServiceGood.Name,
			Quantity:  d.Qtty,
			Measure:   d.Measure,
			Price:     d.ServiceGood.Price,
			Amount:    d.Amount,
			VatRate:   d.ServiceGood.VatRate,
			VatAmount: d.VatAmount,
		})
	}
	return s
}

// SummarizeAll summarizes every record in order.
func SummarizeAll(records []Record) []Summary {
	out := make([]Summary, 0, len(records))
	for _, rec := range records {
		out = append(out, Summarize(rec))
	}
	return out
}
