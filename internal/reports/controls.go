// Package reports builds the trial balance, income statement, VAT report and
// payables/receivables aging report from a chart of accounts and a document
// set. Every builder is a pure function of its inputs and the time "now".
package reports

import "github.com/open-kbs/ai-invoice/internal/model"

// ControlAccounts are the account numbers the VAT and aging reports look for
// on a document to classify it.
type ControlAccounts struct {
	InputVAT   string `yaml:"input_vat" json:"inputVAT"`
	OutputVAT  string `yaml:"output_vat" json:"outputVAT"`
	Payable    string `yaml:"payable" json:"payable"`
	Receivable string `yaml:"receivable" json:"receivable"`
}

// DefaultControlAccounts matches the numbering of the seed chart.
func DefaultControlAccounts() ControlAccounts {
	return ControlAccounts{
		InputVAT:   "2310",
		OutputVAT:  "2320",
		Payable:    "2100",
		Receivable: "1200",
	}
}

// WithDefaults fills empty numbers from DefaultControlAccounts.
func (c ControlAccounts) WithDefaults() ControlAccounts {
	d := DefaultControlAccounts()
	if c.InputVAT == "" {
		c.InputVAT = d.InputVAT
	}
	if c.OutputVAT == "" {
		c.OutputVAT = d.OutputVAT
	}
	if c.Payable == "" {
		c.Payable = d.Payable
	}
	if c.Receivable == "" {
		c.Receivable = d.Receivable
	}
	return c
}

// scan reports which of the two account numbers appear on the document's
// detail lines. A line matching first is never counted as second.
func scan(doc model.Document, first, second string) (hasFirst, hasSecond bool) {
	for _, entry := range doc.Accountings {
		for _, detail := range entry.AccountingDetails {
			if detail.AccountNumber == first {
				hasFirst = true
			} else if detail.AccountNumber == second {
				hasSecond = true
			}
		}
	}
	return hasFirst, hasSecond
}
