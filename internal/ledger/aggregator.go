// Package ledger folds document accounting lines into per-account totals.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/model"
)

// Transaction is one accounting line that contributed to an account.
type Transaction struct {
	DocumentID  string          `json:"documentId"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Direction   model.Direction `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
}

// Balance is the running debit and credit total of one account.
type Balance struct {
	Number       string
	Name         string
	Category     model.Category
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Transactions []Transaction
}

// Active reports whether anything was posted to either side.
func (b Balance) Active() bool {
	return !b.Debit.IsZero() || !b.Credit.IsZero()
}

// Tally holds the balances of every account in the chart.
type Tally struct {
	balances map[string]*Balance
}

// Aggregate scans every detail line of every document. Debit lines add to
// the account's debit total and Credit lines to its credit total; lines with
// any other direction are still recorded as transactions. Lines on accounts
// missing from accountMap are skipped.
func Aggregate(accountMap map[string]accounts.AccountInfo, docs []model.Document) *Tally {
	t := &Tally{balances: make(map[string]*Balance, len(accountMap))}
	for number, info := range accountMap {
		t.balances[number] = &Balance{
			Number:   number,
			Name:     info.Name,
			Category: info.Category,
		}
	}

	for _, doc := range docs {
		for _, entry := range doc.Accountings {
			for _, detail := range entry.AccountingDetails {
				b, ok := t.balances[detail.AccountNumber]
				if !ok {
					continue
				}
				amount := detail.Amount.Decimal
				switch detail.Direction {
				case model.Debit:
					b.Debit = b.Debit.Add(amount)
				case model.Credit:
					b.Credit = b.Credit.Add(amount)
				}
				b.Transactions = append(b.Transactions, Transaction{
					DocumentID:  doc.DocumentID,
					Date:        doc.Date,
					Description: detail.Description,
					Direction:   detail.Direction,
					Amount:      amount,
				})
			}
		}
	}
	return t
}

// Get returns the balance of one account.
func (t *Tally) Get(number string) (Balance, bool) {
	b, ok := t.balances[number]
	if !ok {
		return Balance{}, false
	}
	return *b, true
}

// Balances returns every account balance sorted by account number.
func (t *Tally) Balances() []Balance {
	out := make([]Balance, 0, len(t.balances))
	for _, b := range t.balances {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Totals sums debit and credit over all accounts.
func (t *Tally) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, b := range t.balances {
		debit = debit.Add(b.Debit)
		credit = credit.Add(b.Credit)
	}
	return debit, credit
}
