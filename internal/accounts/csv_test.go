package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-kbs/ai-invoice/internal/model"
)

func TestCSVRoundTrip(t *testing.T) {
	chart, ok := AddAccount(DefaultChart(), "5000", model.Account{Number: "5010", Name: "Raw Materials"})
	require.True(t, ok)
	chart, ok = AddAccount(chart, "5010", model.Account{Number: "5011", Name: "Steel", Category: model.CategoryExpenses})
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, chart))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, chart.Count(), got.Count())

	sub, found := FindAccount(got.Accounts, "5011")
	require.True(t, found)
	assert.Equal(t, "Steel", sub.Name)

	// The empty category on 5010 survives, so inheritance still applies.
	mid, found := FindAccount(got.Accounts, "5010")
	require.True(t, found)
	assert.Equal(t, model.Category(""), mid.Category)
	assert.Equal(t, model.CategoryExpenses, BuildAccountMap(got.Accounts)["5010"].Category)
}

func TestFlattenOrder(t *testing.T) {
	chart := model.ChartOfAccounts{Accounts: []model.Account{
		{Number: "1000", Name: "Cash", Category: model.CategoryAssets, SubAccounts: []model.Account{
			{Number: "1010", Name: "Petty cash"},
		}},
		{Number: "2000", Name: "Debt", Category: model.CategoryLiabilities},
	}}

	rows := Flatten(chart)
	require.Len(t, rows, 3)
	assert.Equal(t, Row{Number: "1000", Name: "Cash", Category: model.CategoryAssets}, rows[0])
	assert.Equal(t, Row{Number: "1010", Name: "Petty cash", ParentNumber: "1000"}, rows[1])
	assert.Equal(t, "2000", rows[2].Number)
}

func TestReadAccountsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown parent", "account_number,account_name,category,parent_number\n1010,Petty,,1000\n"},
		{"duplicate number", "account_number,account_name,category,parent_number\n1000,Cash,Assets,\n1000,Cash,Assets,\n"},
		{"bad category", "account_number,account_name,category,parent_number\n1000,Cash,Money,\n"},
		{"missing name", "account_number,account_name,category,parent_number\n1000,,Assets,\n"},
		{"wrong field count", "account_number,account_name,category,parent_number\n1000,Cash\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAccounts(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReadAccountsEmpty(t *testing.T) {
	chart, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, chart.Count())
}
