package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/reports"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func purchase(id, date string) model.Document {
	return model.Document{
		DocumentID:     id,
		Number:         "P-" + id,
		Date:           date,
		TotalAmount:    model.NewAmount("120"),
		TotalVatAmount: model.NewAmount("20"),
		CompanySender:  &model.Party{Name: "Acme", TaxID: "123"},
		Accountings: []model.AccountingEntry{{AccountingDetails: []model.AccountingDetail{
			{AccountNumber: "5000", Direction: model.Debit, Amount: model.NewAmount("100")},
			{AccountNumber: "2310", Direction: model.Debit, Amount: model.NewAmount("20")},
			{AccountNumber: "2100", Direction: model.Credit, Amount: model.NewAmount("120")},
		}}},
	}
}

func open(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	require.NoError(t, err)
	return v
}

func TestTrialBalanceSheet(t *testing.T) {
	tb := reports.BuildTrialBalance(accounts.DefaultChart(), []model.Document{purchase("1", "2025-02-20")}, now)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tb))
	f := open(t, &buf)

	assert.Equal(t, []string{SheetTrialBalance}, f.GetSheetList())
	assert.Equal(t, "Account", cell(t, f, SheetTrialBalance, "A1"))
	assert.Equal(t, "2100", cell(t, f, SheetTrialBalance, "A2"))
	assert.Equal(t, "Accounts Payable", cell(t, f, SheetTrialBalance, "B2"))
	assert.Equal(t, "Liabilities", cell(t, f, SheetTrialBalance, "C2"))
	assert.Equal(t, "120", cell(t, f, SheetTrialBalance, "E2"))
	assert.Equal(t, "Total Liabilities", cell(t, f, SheetTrialBalance, "B4"))
	assert.Equal(t, "5000", cell(t, f, SheetTrialBalance, "A5"))
	assert.Equal(t, "Total Expenses", cell(t, f, SheetTrialBalance, "B6"))
	assert.Equal(t, "120", cell(t, f, SheetTrialBalance, "D8"))
	assert.Equal(t, "120", cell(t, f, SheetTrialBalance, "E8"))
	assert.Equal(t, "TRUE", cell(t, f, SheetTrialBalance, "D10"))
}

func TestIncomeStatementSheet(t *testing.T) {
	is := reports.BuildIncomeStatement(accounts.DefaultChart(), []model.Document{purchase("1", "2025-02-20")}, now)

	var buf bytes.Buffer
	require.NoError(t, IncomeStatement(&buf, is))
	f := open(t, &buf)

	assert.Equal(t, "Revenue", cell(t, f, SheetIncomeStatement, "A1"))
	assert.Equal(t, "Total Revenue", cell(t, f, SheetIncomeStatement, "B2"))
	assert.Equal(t, "Expenses", cell(t, f, SheetIncomeStatement, "A4"))
	assert.Equal(t, "5000", cell(t, f, SheetIncomeStatement, "A5"))
	assert.Equal(t, "100", cell(t, f, SheetIncomeStatement, "C5"))
	assert.Equal(t, "Net Income", cell(t, f, SheetIncomeStatement, "B8"))
	assert.Equal(t, "-100", cell(t, f, SheetIncomeStatement, "C8"))
}

func TestVATSheet(t *testing.T) {
	r := reports.BuildVATReport([]model.Document{purchase("1", "2025-02-20")}, reports.DefaultControlAccounts(), now)

	var buf bytes.Buffer
	require.NoError(t, VATReport(&buf, r))
	f := open(t, &buf)

	assert.Equal(t, "2025-02-20", cell(t, f, SheetVAT, "A2"))
	assert.Equal(t, reports.VATInput, cell(t, f, SheetVAT, "F2"))
	assert.Equal(t, "20", cell(t, f, SheetVAT, "H2"))
	assert.Equal(t, "Input VAT", cell(t, f, SheetVAT, "A4"))
	assert.Equal(t, "20", cell(t, f, SheetVAT, "B4"))
	assert.Equal(t, "20", cell(t, f, SheetVAT, "B7"))
}

func TestAccountsSheets(t *testing.T) {
	docs := []model.Document{purchase("1", "2025-02-20"), purchase("2", "someday")}
	r := reports.BuildAccountsReport(docs, reports.DefaultControlAccounts(), now)

	var buf bytes.Buffer
	require.NoError(t, AccountsReport(&buf, r))
	f := open(t, &buf)

	assert.Equal(t, []string{SheetPayables, SheetReceivables, SheetAging}, f.GetSheetList())
	assert.Equal(t, "Acme", cell(t, f, SheetPayables, "A2"))
	assert.Equal(t, "9", cell(t, f, SheetPayables, "E2"))
	assert.Equal(t, reports.AgingCurrent, cell(t, f, SheetPayables, "F2"))
	assert.Equal(t, "", cell(t, f, SheetPayables, "E3"))
	assert.Equal(t, reports.AgingOver90, cell(t, f, SheetPayables, "F3"))
	assert.Equal(t, "Total Acme", cell(t, f, SheetPayables, "A4"))
	assert.Equal(t, "240", cell(t, f, SheetPayables, "G4"))
	assert.Equal(t, "Total", cell(t, f, SheetReceivables, "A3"))
	assert.Equal(t, "-240", cell(t, f, SheetAging, "B7"))
}

func TestEmptyReports(t *testing.T) {
	for _, report := range []any{
		reports.EmptyTrialBalance(now),
		reports.EmptyIncomeStatement(now),
		reports.EmptyVATReport(now),
		reports.EmptyAccountsReport(now),
	} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, report))
		assert.NotZero(t, buf.Len())
	}
}

func TestWriteUnknown(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "not a report")
	assert.ErrorContains(t, err, "no xlsx layout")
}
