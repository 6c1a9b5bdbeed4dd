package model

// Category classifies accounts in the chart of accounts.
type Category string

const (
	CategoryAssets      Category = "Assets"
	CategoryLiabilities Category = "Liabilities"
	CategoryEquity      Category = "Equity"
	CategoryRevenue     Category = "Revenue"
	CategoryExpenses    Category = "Expenses"
)

// Valid reports whether c is one of the five account categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAssets, CategoryLiabilities, CategoryEquity, CategoryRevenue, CategoryExpenses:
		return true
	}
	return false
}

// Account is one node of the chart of accounts tree.
// An empty Category means "inherit from the parent account".
type Account struct {
	Number      string    `json:"number"`
	Name        string    `json:"name"`
	Category    Category  `json:"category,omitempty"`
	SubAccounts []Account `json:"subAccounts"`
}

// ChartOfAccounts is the whole per-tenant account tree.
type ChartOfAccounts struct {
	Accounts []Account `json:"accounts"`
}

// Clone returns a deep copy of the account and its children.
func (a Account) Clone() Account {
	out := a
	if a.SubAccounts == nil {
		return out
	}
	out.SubAccounts = make([]Account, len(a.SubAccounts))
	for i, sub := range a.SubAccounts {
		out.SubAccounts[i] = sub.Clone()
	}
	return out
}

// Clone returns a deep copy of the chart.
func (c ChartOfAccounts) Clone() ChartOfAccounts {
	out := ChartOfAccounts{Accounts: make([]Account, len(c.Accounts))}
	for i, a := range c.Accounts {
		out.Accounts[i] = a.Clone()
	}
	return out
}

// Count returns the number of accounts in the tree, children included.
func (c ChartOfAccounts) Count() int {
	return countAccounts(c.Accounts)
}

func countAccounts(accounts []Account) int {
	n := len(accounts)
	for _, a := range accounts {
		n += countAccounts(a.SubAccounts)
	}
	return n
}
