package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/model"
)

var hundred = decimal.NewFromInt(100)

// IncomeAccount is one revenue or expense line of the income statement.
type IncomeAccount struct {
	Number       string          `json:"number"`
	Name         string          `json:"name"`
	Amount       model.Amount `json:"amount"`
	Transactions int          `json:"transactions"`
}

// IncomeSection is the revenue or the expenses half of the statement.
type IncomeSection struct {
	Accounts []IncomeAccount `json:"accounts"`
	Total    model.Amount    `json:"total"`
}

// IncomeStatement is the profit and loss report.
type IncomeStatement struct {
	Revenue       IncomeSection `json:"revenue"`
	Expenses      IncomeSection `json:"expenses"`
	NetIncome     model.Amount  `json:"netIncome"`
	ProfitMargin  model.Amount  `json:"profitMargin"`
	DocumentCount int           `json:"documentCount"`
	GeneratedAt   time.Time     `json:"generatedAt"`
}

// EmptyIncomeStatement is the statement of an empty document set.
func EmptyIncomeStatement(now time.Time) IncomeStatement {
	return IncomeStatement{
		Revenue:     IncomeSection{Accounts: []IncomeAccount{}},
		Expenses:    IncomeSection{Accounts: []IncomeAccount{}},
		GeneratedAt: now,
	}
}

type incomeTally struct {
	info         accounts.AccountInfo
	amount       decimal.Decimal
	transactions int
}

// BuildIncomeStatement scans docs for revenue and expense postings. Credits
// raise revenue and debits lower it; debits raise expenses and credits
// lower them. Accounts that net to zero are left out.
func BuildIncomeStatement(chart model.ChartOfAccounts, docs []model.Document, now time.Time) IncomeStatement {
	is := EmptyIncomeStatement(now)
	if len(docs) == 0 {
		return is
	}
	is.DocumentCount = len(docs)

	tallies := make(map[string]*incomeTally)
	for number, info := range accounts.BuildAccountMap(chart.Accounts) {
		tallies[number] = &incomeTally{info: info, amount: decimal.Zero}
	}

	for _, doc := range docs {
		for _, entry := range doc.Accountings {
			for _, detail := range entry.AccountingDetails {
				t, ok := tallies[detail.AccountNumber]
				if !ok {
					continue
				}
				amount := detail.Amount.Decimal
				switch t.info.Category {
				case model.CategoryRevenue:
					if detail.Direction == model.Credit {
						t.amount = t.amount.Add(amount)
					} else {
						t.amount = t.amount.Sub(amount)
					}
				case model.CategoryExpenses:
					if detail.Direction == model.Debit {
						t.amount = t.amount.Add(amount)
					} else {
						t.amount = t.amount.Sub(amount)
					}
				}
				t.transactions++
			}
		}
	}

	revenue, expenses := decimal.Zero, decimal.Zero
	for number, t := range tallies {
		if t.amount.IsZero() {
			continue
		}
		line := IncomeAccount{Number: number, Name: t.info.Name, Amount: model.AmountOf(t.amount), Transactions: t.transactions}
		switch t.info.Category {
		case model.CategoryRevenue:
			is.Revenue.Accounts = append(is.Revenue.Accounts, line)
			revenue = revenue.Add(t.amount)
		case model.CategoryExpenses:
			is.Expenses.Accounts = append(is.Expenses.Accounts, line)
			expenses = expenses.Add(t.amount)
		}
	}
	sortByAmountDesc(is.Revenue.Accounts)
	sortByAmountDesc(is.Expenses.Accounts)

	net := revenue.Sub(expenses)
	is.Revenue.Total = model.AmountOf(revenue)
	is.Expenses.Total = model.AmountOf(expenses)
	is.NetIncome = model.AmountOf(net)
	if revenue.IsPositive() {
		is.ProfitMargin = model.AmountOf(net.Div(revenue).Mul(hundred))
	}
	return is
}

func sortByAmountDesc(lines []IncomeAccount) {
	sort.Slice(lines, func(i, j int) bool {
		if c := lines[i].Amount.Cmp(lines[j].Amount.Decimal); c != 0 {
			return c > 0
		}
		return lines[i].Number < lines[j].Number
	})
}
