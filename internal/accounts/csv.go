package accounts

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/open-kbs/ai-invoice/internal/model"
)

const (
	numFields   = 4
	colNumber   = 0
	colName     = 1
	colCategory = 2
	colParent   = 3
)

// Row is one flattened account of the chart, as written to CSV.
type Row struct {
	Number       string
	Name         string
	Category     model.Category // as written on the account; may be empty
	ParentNumber string         // "" = top-level
}

// Flatten lists the chart depth-first, parents before their children.
func Flatten(chart model.ChartOfAccounts) []Row {
	var rows []Row
	var walk func(accounts []model.Account, parent string)
	walk = func(accounts []model.Account, parent string) {
		for _, a := range accounts {
			rows = append(rows, Row{Number: a.Number, Name: a.Name, Category: a.Category, ParentNumber: parent})
			walk(a.SubAccounts, a.Number)
		}
	}
	walk(chart.Accounts, "")
	return rows
}

// ReadAccounts reads a chart-of-accounts CSV and rebuilds the tree. Parents
// must appear before their children.
func ReadAccounts(r io.Reader) (model.ChartOfAccounts, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return model.ChartOfAccounts{}, fmt.Errorf("reading accounts CSV: %w", err)
	}

	chart := model.ChartOfAccounts{Accounts: []model.Account{}}
	if len(records) == 0 {
		return chart, nil
	}

	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return model.ChartOfAccounts{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		if _, exists := FindAccount(chart.Accounts, row.Number); exists {
			return model.ChartOfAccounts{}, fmt.Errorf("row %d: account %s: %w", i+2, row.Number, ErrDuplicateAccount)
		}
		acct := model.Account{Number: row.Number, Name: row.Name, Category: row.Category, SubAccounts: []model.Account{}}
		var ok bool
		chart, ok = AddAccount(chart, row.ParentNumber, acct)
		if !ok {
			return model.ChartOfAccounts{}, fmt.Errorf("row %d: parent account %s: %w", i+2, row.ParentNumber, ErrParentNotFound)
		}
	}
	return chart, nil
}

// WriteAccounts writes the chart as CSV.
func WriteAccounts(w io.Writer, chart model.ChartOfAccounts) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"account_number", "account_name", "category", "parent_number"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range Flatten(chart) {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	rec[colNumber] = row.Number
	rec[colName] = row.Name
	rec[colCategory] = string(row.Category)
	rec[colParent] = row.ParentNumber
	return rec
}

// UnmarshalRow converts a CSV record to a Row.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colNumber] == "" || record[colName] == "" {
		return Row{}, ErrInvalidAccount
	}
	category := model.Category(record[colCategory])
	if category != "" && !category.Valid() {
		return Row{}, fmt.Errorf("unknown category %q", record[colCategory])
	}
	return Row{
		Number:       record[colNumber],
		Name:         record[colName],
		Category:     category,
		ParentNumber: record[colParent],
	}, nil
}
