package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/model"
)

// ExtractedItem is one invoice line as returned by the model.
type ExtractedItem struct {
	Name      string `json:"name" jsonschema_description:"Product or service name"`
	Quantity  string `json:"quantity" jsonschema_description:"Quantity as a decimal string"`
	Measure   string `json:"measure" jsonschema_description:"Unit of measure, empty if none"`
	Price     string `json:"price" jsonschema_description:"Unit price without VAT"`
	VatRate   string `json:"vatRate" jsonschema_description:"VAT rate in percent, e.g. 20"`
	Amount    string `json:"amount" jsonschema_description:"Line amount without VAT"`
	VatAmount string `json:"vatAmount" jsonschema_description:"VAT amount of the line"`
}

// ExtractedLine is one debit or credit line of the proposed booking.
type ExtractedLine struct {
	AccountNumber string `json:"accountNumber" jsonschema_description:"Account number from the chart of accounts"`
	Direction     string `json:"direction" jsonschema:"enum=Debit,enum=Credit"`
	Amount        string `json:"amount" jsonschema_description:"Exact decimal amount, e.g. 120.00"`
	Description   string `json:"description"`
}

// SuggestedAccount is a new account the model wants added to the chart.
type SuggestedAccount struct {
	ParentNumber string `json:"parentNumber" jsonschema_description:"Parent account number, empty for top level"`
	Number       string `json:"number"`
	Name         string `json:"name"`
	Category     string `json:"category" jsonschema:"enum=Assets,enum=Liabilities,enum=Equity,enum=Revenue,enum=Expenses"`
}

// Extraction is the structured output of the extraction call.
type Extraction struct {
	DocumentType       string             `json:"documentType" jsonschema_description:"Invoice, Credit Note, Receipt, ..."`
	Number             string             `json:"number"`
	Date               string             `json:"date" jsonschema_description:"Document date as YYYY-MM-DD"`
	SenderName         string             `json:"senderName"`
	SenderTaxID        string             `json:"senderTaxId"`
	SenderVATNumber    string             `json:"senderVatNumber"`
	RecipientName      string             `json:"recipientName"`
	RecipientTaxID     string             `json:"recipientTaxId"`
	RecipientVATNumber string             `json:"recipientVatNumber"`
	TotalAmount        string             `json:"totalAmount" jsonschema_description:"Total including VAT"`
	TotalVatAmount     string             `json:"totalVatAmount"`
	Items              []ExtractedItem    `json:"items"`
	Accountings        []ExtractedLine    `json:"accountings"`
	SuggestedAccounts  []SuggestedAccount `json:"suggestedAccounts"`
	Reasoning          string             `json:"reasoning"`
}

// ParseExtraction decodes and validates model output.
func ParseExtraction(content string) (*Extraction, error) {
	var ex Extraction
	if err := json.Unmarshal([]byte(content), &ex); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	ex.Normalize()
	if err := ex.Validate(); err != nil {
		return nil, fmt.Errorf("extraction validation failed: %w", err)
	}
	return &ex, nil
}

// Normalize trims whitespace and fixes the casing of directions.
func (e *Extraction) Normalize() {
	e.Date = strings.TrimSpace(e.Date)
	e.Number = strings.TrimSpace(e.Number)
	for i := range e.Accountings {
		l := &e.Accountings[i]
		l.AccountNumber = strings.TrimSpace(l.AccountNumber)
		switch strings.ToLower(strings.TrimSpace(l.Direction)) {
		case "debit":
			l.Direction = string(model.Debit)
		case "credit":
			l.Direction = string(model.Credit)
		}
	}
}

// Validate checks that the booking is complete and balanced.
func (e *Extraction) Validate() error {
	if len(e.Accountings) == 0 {
		return errors.New("no accounting lines")
	}
	debit, credit := decimal.Zero, decimal.Zero
	for i, l := range e.Accountings {
		if l.AccountNumber == "" {
			return fmt.Errorf("line %d: account number is empty", i+1)
		}
		amount, err := decimal.NewFromString(l.Amount)
		if err != nil {
			return fmt.Errorf("line %d: invalid amount %q", i+1, l.Amount)
		}
		switch model.Direction(l.Direction) {
		case model.Debit:
			debit = debit.Add(amount)
		case model.Credit:
			credit = credit.Add(amount)
		default:
			return fmt.Errorf("line %d: invalid direction %q", i+1, l.Direction)
		}
	}
	if !debit.Equal(credit) {
		return fmt.Errorf("debits (%s) != credits (%s)", debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}

func party(name, taxID, vat string) *model.Party {
	if name == "" && taxID == "" && vat == "" {
		return nil
	}
	return &model.Party{Name: name, TaxID: taxID, VATNumber: vat}
}

// Document converts the extraction into a document with the given id.
func (e *Extraction) Document(id string) model.Document {
	doc := model.Document{
		DocumentID:       id,
		DocumentType:     e.DocumentType,
		Number:           e.Number,
		Date:             e.Date,
		TotalAmount:      model.NewAmount(e.TotalAmount),
		TotalVatAmount:   model.NewAmount(e.TotalVatAmount),
		CompanySender:    party(e.SenderName, e.SenderTaxID, e.SenderVATNumber),
		CompanyRecipient: party(e.RecipientName, e.RecipientTaxID, e.RecipientVATNumber),
		DocumentDetails:  make([]model.LineItem, 0, len(e.Items)),
	}
	for _, it := range e.Items {
		doc.DocumentDetails = append(doc.DocumentDetails, model.LineItem{
			ServiceGood: model.ServiceGood{Name: it.Name, Price: model.NewAmount(it.Price), VatRate: model.NewAmount(it.VatRate)},
			Qtty:        model.NewAmount(it.Quantity),
			Measure:     it.Measure,
			Amount:      model.NewAmount(it.Amount),
			VatAmount:   model.NewAmount(it.VatAmount),
		})
	}
	entry := model.AccountingEntry{AccountingDate: e.Date}
	for _, l := range e.Accountings {
		entry.AccountingDetails = append(entry.AccountingDetails, model.AccountingDetail{
			AccountNumber: l.AccountNumber,
			Direction:     model.Direction(l.Direction),
			Amount:        model.NewAmount(l.Amount),
			Description:   l.Description,
		})
	}
	doc.Accountings = []model.AccountingEntry{entry}
	return doc
}

// Suggestions converts suggested accounts into add-account parameters.
func (e *Extraction) Suggestions() []accounts.AddAccountParams {
	out := make([]accounts.AddAccountParams, 0, len(e.SuggestedAccounts))
	for _, s := range e.SuggestedAccounts {
		out = append(out, accounts.AddAccountParams{
			ParentNumber: s.ParentNumber,
			Number:       s.Number,
			Name:         s.Name,
			Category:     model.Category(s.Category),
		})
	}
	return out
}
