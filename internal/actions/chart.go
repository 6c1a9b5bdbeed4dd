package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/open-kbs/ai-invoice/internal/accounts"
)

func (d *Dispatcher) addAccount(ctx context.Context, match []string) Response {
	var params accounts.AddAccountParams
	if err := json.Unmarshal([]byte(match[1]), &params); err != nil {
		return Response{Type: TypeAddAccountFailed, Error: err.Error()}
	}

	acct, err := d.chart.AddAccount(ctx, params)
	if err != nil {
		return Response{Type: TypeAddAccountFailed, Error: addAccountError(params, err)}
	}

	parent := params.ParentNumber
	if parent == "" {
		parent = "root"
	}
	return Response{
		Type:         TypeAccountAdded,
		Message:      fmt.Sprintf("Account %s - %s added successfully", acct.Number, acct.Name),
		Account:      &acct,
		ParentNumber: parent,
	}
}

func addAccountError(params accounts.AddAccountParams, err error) string {
	switch {
	case errors.Is(err, accounts.ErrInvalidAccount):
		return "Account number and name are required"
	case errors.Is(err, accounts.ErrParentNotFound):
		return fmt.Sprintf("Parent account %s not found", params.ParentNumber)
	case errors.Is(err, accounts.ErrDuplicateAccount):
		return fmt.Sprintf("Account %s already exists", params.Number)
	case errors.Is(err, accounts.ErrInvalidCategory):
		return fmt.Sprintf("Invalid category %s", params.Category)
	default:
		return err.Error()
	}
}

func (d *Dispatcher) chartOfAccounts(ctx context.Context, _ []string) Response {
	chart, err := d.chart.Chart(ctx)
	if err != nil {
		return Response{Type: TypeGetChartFailed, Error: err.Error()}
	}
	return Response{
		Type:         TypeChartOfAccounts,
		Data:         chart,
		AccountCount: intPtr(len(chart.Accounts)),
	}
}
