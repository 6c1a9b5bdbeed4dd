package accounts

import "github.com/open-kbs/ai-invoice/internal/model"

// AccountInfo is the flattened view of one account used by the reports.
type AccountInfo struct {
	Name     string
	Category model.Category
}

// FindAccount searches the tree depth-first for number.
func FindAccount(accounts []model.Account, number string) (model.Account, bool) {
	for _, a := range accounts {
		if a.Number == number {
			return a, true
		}
		if found, ok := FindAccount(a.SubAccounts, number); ok {
			return found, true
		}
	}
	return model.Account{}, false
}

// AddAccount returns a copy of chart with acct appended. With an empty
// parentNumber the account goes to the top level and the call always
// succeeds. Otherwise acct is appended to the children of the first account
// (depth-first) whose number is parentNumber; if there is none, the chart is
// returned unchanged with false. chart itself is never modified.
func AddAccount(chart model.ChartOfAccounts, parentNumber string, acct model.Account) (model.ChartOfAccounts, bool) {
	acct = acct.Clone()
	if parentNumber == "" {
		out := chart.Clone()
		out.Accounts = append(out.Accounts, acct)
		return out, true
	}

	updated, ok := addUnder(chart.Accounts, parentNumber, acct)
	if !ok {
		return chart, false
	}
	return model.ChartOfAccounts{Accounts: updated}, true
}

func addUnder(accounts []model.Account, parentNumber string, acct model.Account) ([]model.Account, bool) {
	for i, a := range accounts {
		var children []model.Account
		switch {
		case a.Number == parentNumber:
			children = make([]model.Account, 0, len(a.SubAccounts)+1)
			for _, sub := range a.SubAccounts {
				children = append(children, sub.Clone())
			}
			children = append(children, acct)
		case len(a.SubAccounts) > 0:
			sub, ok := addUnder(a.SubAccounts, parentNumber, acct)
			if !ok {
				continue
			}
			children = sub
		default:
			continue
		}

		out := make([]model.Account, len(accounts))
		for j, other := range accounts {
			if j != i {
				out[j] = other.Clone()
			}
		}
		node := a
		node.SubAccounts = children
		out[i] = node
		return out, true
	}
	return nil, false
}

// BuildAccountMap flattens the tree into number -> AccountInfo.
//
// A child without its own category takes the category written on its direct
// parent. Only the parent's explicit category is passed down: a grandchild of
// a category-less child stays without a category even if an older ancestor
// has one.
func BuildAccountMap(accounts []model.Account) map[string]AccountInfo {
	m := make(map[string]AccountInfo)
	flatten(m, accounts, "")
	return m
}

func flatten(m map[string]AccountInfo, accounts []model.Account, parentCategory model.Category) {
	for _, a := range accounts {
		category := a.Category
		if category == "" {
			category = parentCategory
		}
		m[a.Number] = AccountInfo{Name: a.Name, Category: category}
		if len(a.SubAccounts) > 0 {
			flatten(m, a.SubAccounts, a.Category)
		}
	}
}
