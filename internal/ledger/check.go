package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/model"
)

// Rule names a bookkeeping rule a document can break.
type Rule string

const (
	RuleUnbalanced     Rule = "unbalanced"
	RuleDirection      Rule = "direction"
	RuleUnknownAccount Rule = "unknown_account"
	RuleNegativeAmount Rule = "negative_amount"
	RulePrecision      Rule = "precision"
)

// ValidationError describes one rule violation inside a document. They are
// warnings: documents are stored regardless.
type ValidationError struct {
	Rule        Rule   `json:"rule"`
	DocumentID  string `json:"documentId"`
	Entry       int    `json:"entry"`
	Description string `json:"description"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s entry %d]: %s", e.Rule, e.DocumentID, e.Entry, e.Description)
}

// AccountChecker tests whether an account number exists in the chart.
type AccountChecker interface {
	Exists(number string) bool
}

// Accounts adapts a flattened account map to AccountChecker.
type Accounts map[string]accounts.AccountInfo

// Exists implements AccountChecker.
func (a Accounts) Exists(number string) bool {
	_, ok := a[number]
	return ok
}

var hundred = decimal.NewFromInt(100)

// Check runs the bookkeeping rules over every accounting entry of doc.
// Entry numbers in the result are 1-based.
func Check(doc model.Document, chart AccountChecker) []ValidationError {
	var errs []ValidationError
	add := func(rule Rule, entry int, format string, args ...any) {
		errs = append(errs, ValidationError{
			Rule:        rule,
			DocumentID:  doc.DocumentID,
			Entry:       entry,
			Description: fmt.Sprintf(format, args...),
		})
	}

	for i, entry := range doc.Accountings {
		n := i + 1
		totalDebit := decimal.Zero
		totalCredit := decimal.Zero

		for _, detail := range entry.AccountingDetails {
			amount := detail.Amount.Decimal

			switch detail.Direction {
			case model.Debit:
				totalDebit = totalDebit.Add(amount)
			case model.Credit:
				totalCredit = totalCredit.Add(amount)
			default:
				add(RuleDirection, n, "account %s has direction %q", detail.AccountNumber, detail.Direction)
			}

			if !chart.Exists(detail.AccountNumber) {
				add(RuleUnknownAccount, n, "unknown account %s", detail.AccountNumber)
			}
			if amount.IsNegative() {
				add(RuleNegativeAmount, n, "account %s has negative amount %s", detail.AccountNumber, amount)
			}
			if !amount.Mul(hundred).Equal(amount.Mul(hundred).Floor()) {
				add(RulePrecision, n, "amount %s has more than 2 decimal places", amount)
			}
		}

		if !totalDebit.Equal(totalCredit) {
			add(RuleUnbalanced, n, "debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2))
		}
	}
	return errs
}
