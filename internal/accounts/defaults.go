package accounts

import "github.com/open-kbs/ai-invoice/internal/model"

// DefaultChart returns the seed chart of accounts created on first read.
func DefaultChart() model.ChartOfAccounts {
	return model.ChartOfAccounts{Accounts: []model.Account{
		// Assets (1000-1999)
		seed("1000", "Cash", model.CategoryAssets),
		seed("1100", "Bank Accounts", model.CategoryAssets),
		seed("1200", "Accounts Receivable", model.CategoryAssets),
		seed("1500", "Fixed Assets", model.CategoryAssets),

		// Liabilities (2000-2999)
		seed("2100", "Accounts Payable", model.CategoryLiabilities),
		seed("2300", "VAT Payable", model.CategoryLiabilities),
		seed("2310", "Input VAT", model.CategoryLiabilities),
		seed("2320", "Output VAT", model.CategoryLiabilities),
		seed("2500", "Loans", model.CategoryLiabilities),

		// Equity (3000-3999)
		seed("3000", "Capital", model.CategoryEquity),
		seed("3100", "Retained Earnings", model.CategoryEquity),

		// Revenue (4000-4999)
		seed("4000", "Sales", model.CategoryRevenue),
		seed("4100", "Services", model.CategoryRevenue),
		seed("4900", "Other Income", model.CategoryRevenue),

		// Expenses (5000-5999)
		seed("5000", "Purchases", model.CategoryExpenses),
		seed("5100", "Operating Expenses", model.CategoryExpenses),
		seed("5200", "Personnel Expenses", model.CategoryExpenses),
		seed("5900", "Other Expenses", model.CategoryExpenses),
	}}
}

func seed(number, name string, category model.Category) model.Account {
	return model.Account{Number: number, Name: name, Category: category, SubAccounts: []model.Account{}}
}
