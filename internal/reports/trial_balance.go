package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/ledger"
	"github.com/open-kbs/ai-invoice/internal/model"
)

// CategoryOther groups accounts that have no category after inheritance.
const CategoryOther = "Other"

// TrialBalanceAccount is one account line of the trial balance.
type TrialBalanceAccount struct {
	Number           string               `json:"number"`
	Name             string               `json:"name"`
	Debit            model.Amount         `json:"debit"`
	Credit           model.Amount         `json:"credit"`
	Balance          model.Amount         `json:"balance"`
	TransactionCount int                  `json:"transactionCount"`
	Transactions     []ledger.Transaction `json:"transactions,omitempty"`
}

// CategoryGroup collects the trial balance accounts of one category.
type CategoryGroup struct {
	Accounts     []TrialBalanceAccount `json:"accounts"`
	TotalDebit   model.Amount          `json:"totalDebit"`
	TotalCredit  model.Amount          `json:"totalCredit"`
	TotalBalance model.Amount          `json:"totalBalance"`
}

// TrialBalanceTotals are the grand totals over all categories.
type TrialBalanceTotals struct {
	Debit      model.Amount `json:"debit"`
	Credit     model.Amount `json:"credit"`
	Difference model.Amount `json:"difference"`
}

// TrialBalance lists every account with postings, grouped by category.
type TrialBalance struct {
	Categories    map[string]*CategoryGroup `json:"categories"`
	Totals        TrialBalanceTotals        `json:"totals"`
	Balanced      bool                      `json:"balanced"`
	DocumentCount int                       `json:"documentCount"`
	GeneratedAt   time.Time                 `json:"generatedAt"`
}

// EmptyTrialBalance is the trial balance of an empty document set.
func EmptyTrialBalance(now time.Time) TrialBalance {
	return TrialBalance{
		Categories:  map[string]*CategoryGroup{},
		Totals:      TrialBalanceTotals{},
		Balanced:    true,
		GeneratedAt: now,
	}
}

// NormalBalance is debit minus credit for Assets and Expenses and credit
// minus debit for every other category, including none.
func NormalBalance(category model.Category, debit, credit decimal.Decimal) decimal.Decimal {
	if category == model.CategoryAssets || category == model.CategoryExpenses {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// BuildTrialBalance folds docs into a trial balance.
func BuildTrialBalance(chart model.ChartOfAccounts, docs []model.Document, now time.Time) TrialBalance {
	tb := EmptyTrialBalance(now)
	if len(docs) == 0 {
		return tb
	}
	tb.DocumentCount = len(docs)

	type groupSums struct{ debit, credit, balance decimal.Decimal }
	sums := make(map[string]*groupSums)
	totalDebit, totalCredit := decimal.Zero, decimal.Zero

	tally := ledger.Aggregate(accounts.BuildAccountMap(chart.Accounts), docs)
	for _, b := range tally.Balances() {
		if !b.Active() {
			continue
		}
		category := string(b.Category)
		if category == "" {
			category = CategoryOther
		}
		balance := NormalBalance(b.Category, b.Debit, b.Credit)

		group, ok := tb.Categories[category]
		if !ok {
			group = &CategoryGroup{}
			tb.Categories[category] = group
			sums[category] = &groupSums{debit: decimal.Zero, credit: decimal.Zero, balance: decimal.Zero}
		}
		group.Accounts = append(group.Accounts, TrialBalanceAccount{
			Number:           b.Number,
			Name:             b.Name,
			Debit:            model.AmountOf(b.Debit),
			Credit:           model.AmountOf(b.Credit),
			Balance:          model.AmountOf(balance),
			TransactionCount: len(b.Transactions),
			Transactions:     b.Transactions,
		})
		s := sums[category]
		s.debit = s.debit.Add(b.Debit)
		s.credit = s.credit.Add(b.Credit)
		s.balance = s.balance.Add(balance)

		totalDebit = totalDebit.Add(b.Debit)
		totalCredit = totalCredit.Add(b.Credit)
	}

	for category, group := range tb.Categories {
		sort.SliceStable(group.Accounts, func(i, j int) bool {
			return group.Accounts[i].Number < group.Accounts[j].Number
		})
		s := sums[category]
		group.TotalDebit = model.AmountOf(s.debit)
		group.TotalCredit = model.AmountOf(s.credit)
		group.TotalBalance = model.AmountOf(s.balance)
	}

	difference := totalDebit.Sub(totalCredit).Abs()
	tb.Totals = TrialBalanceTotals{
		Debit:      model.AmountOf(totalDebit),
		Credit:     model.AmountOf(totalCredit),
		Difference: model.AmountOf(difference),
	}
	tb.Balanced = difference.IsZero()
	return tb
}

// CategoryNames returns the categories present in tb in a fixed display order:
// the five chart categories first, then anything else alphabetically.
func (tb TrialBalance) CategoryNames() []string {
	order := map[string]int{
		string(model.CategoryAssets):      0,
		string(model.CategoryLiabilities): 1,
		string(model.CategoryEquity):      2,
		string(model.CategoryRevenue):     3,
		string(model.CategoryExpenses):    4,
	}
	names := make([]string, 0, len(tb.Categories))
	for name := range tb.Categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iok := order[names[i]]
		oj, jok := order[names[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
	return names
}
