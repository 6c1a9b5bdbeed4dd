package model

import (
	"strings"
	"time"
)

// Direction is the side of the ledger a detail line posts to.
type Direction string

const (
	Debit  Direction = "Debit"
	Credit Direction = "Credit"
)

// AccountingDetail is one debit or credit line against an account.
type AccountingDetail struct {
	AccountNumber string    `json:"AccountNumber"`
	Direction     Direction `json:"Direction"`
	Amount        Amount    `json:"Amount"`
	Description   string    `json:"Description,omitempty"`
	VatTermID     string    `json:"VatTermId,omitempty"`
}

// AccountingEntry groups the detail lines posted on one accounting date.
type AccountingEntry struct {
	AccountingDate    string             `json:"AccountingDate,omitempty"`
	AccountingDetails []AccountingDetail `json:"AccountingDetails"`
}

// Address is a postal address of a party.
type Address struct {
	Location string `json:"Location,omitempty"`
	City     string `json:"City,omitempty"`
	Country  string `json:"Country,omitempty"`
}

// BankAccount identifies a party's bank account.
type BankAccount struct {
	IBAN     string `json:"IBAN,omitempty"`
	BIC      string `json:"BIC,omitempty"`
	BankName string `json:"BankName,omitempty"`
}

// Party is a document sender or recipient. Informational only.
type Party struct {
	Name            string        `json:"Name"`
	TaxID           string        `json:"TaxID,omitempty"`
	VATNumber       string        `json:"VATNumber,omitempty"`
	IsVATRegistered bool          `json:"isVATRegistered,omitempty"`
	ID              string        `json:"Id,omitempty"`
	CompanyType     string        `json:"CompanyType,omitempty"`
	Addresses       []Address     `json:"Addresses,omitempty"`
	BankAccounts    []BankAccount `json:"BankAccounts,omitempty"`
}

// ServiceGood describes what a line item sells.
type ServiceGood struct {
	Name    string `json:"Name"`
	Price   Amount `json:"Price"`
	VatRate Amount `json:"VatRate"`
}

// LineItem is one row of an invoice body.
type LineItem struct {
	ServiceGood ServiceGood `json:"ServiceGood"`
	Qtty        Amount      `json:"Qtty"`
	Measure     string      `json:"Measure,omitempty"`
	Amount      Amount      `json:"Amount"`
	VatAmount   Amount      `json:"VatAmount"`
}

// Document is an accounting document (invoice, credit note, receipt).
type Document struct {
	DocumentID       string            `json:"DocumentId"`
	DocumentType     string            `json:"DocumentType,omitempty"`
	Number           string            `json:"Number,omitempty"`
	Date             string            `json:"Date,omitempty"`
	TotalAmount      Amount            `json:"TotalAmount"`
	TotalVatAmount   Amount            `json:"TotalVatAmount"`
	CompanySender    *Party            `json:"CompanySender,omitempty"`
	CompanyRecipient *Party            `json:"CompanyRecipient,omitempty"`
	DocumentDetails  []LineItem        `json:"DocumentDetails"`
	Accountings      []AccountingEntry `json:"Accountings"`
}

// SenderName returns the sender's name or "" when absent.
func (d Document) SenderName() string {
	if d.CompanySender == nil {
		return ""
	}
	return d.CompanySender.Name
}

// RecipientName returns the recipient's name or "" when absent.
func (d Document) RecipientName() string {
	if d.CompanyRecipient == nil {
		return ""
	}
	return d.CompanyRecipient.Name
}

// Details returns every accounting detail line of the document in order.
func (d Document) Details() []AccountingDetail {
	var out []AccountingDetail
	for _, entry := range d.Accountings {
		out = append(out, entry.AccountingDetails...)
	}
	return out
}

// HasAccount reports whether any detail line posts to number.
func (d Document) HasAccount(number string) bool {
	for _, entry := range d.Accountings {
		for _, detail := range entry.AccountingDetails {
			if detail.AccountNumber == number {
				return true
			}
		}
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
	"2006/01/02",
}

// ParseDate parses the loosely formatted dates found on documents.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
