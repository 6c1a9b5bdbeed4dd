// Package export writes reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/reports"
)

// Sheet names.
const (
	SheetTrialBalance    = "Trial Balance"
	SheetIncomeStatement = "Income Statement"
	SheetVAT             = "VAT"
	SheetPayables        = "Payables"
	SheetReceivables     = "Receivables"
	SheetAging           = "Aging"
)

// workbook appends rows to the sheets of an excelize file. The first error
// sticks and later calls become no-ops.
type workbook struct {
	f      *excelize.File
	bold   int
	sheet  string
	row    int
	err    error
	sheets int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	return &workbook{f: f, bold: bold}, nil
}

// startSheet makes name the current sheet. The default sheet is renamed
// for the first one.
func (w *workbook) startSheet(name string) {
	if w.err != nil {
		return
	}
	if w.sheets == 0 {
		w.err = w.f.SetSheetName(w.f.GetSheetName(0), name)
	} else {
		_, w.err = w.f.NewSheet(name)
	}
	w.sheets++
	w.sheet = name
	w.row = 0
}

func (w *workbook) line(values ...any) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	for i, v := range values {
		if a, ok := v.(model.Amount); ok {
			values[i] = a.InexactFloat64()
		}
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

func (w *workbook) header(values ...any) {
	w.line(values...)
	if w.err != nil || len(values) == 0 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, w.row)
	last, err := excelize.CoordinatesToCellName(len(values), w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, first, last, w.bold)
}

func (w *workbook) blank() {
	if w.err == nil {
		w.row++
	}
}

func (w *workbook) widths(cols string, width float64) {
	if w.err != nil || cols == "" {
		return
	}
	w.err = w.f.SetColWidth(w.sheet, cols[:1], cols[len(cols)-1:], width)
}

func (w *workbook) writeTo(out io.Writer) error {
	defer w.f.Close()
	if w.err != nil {
		return fmt.Errorf("building workbook: %w", w.err)
	}
	w.f.SetActiveSheet(0)
	if err := w.f.Write(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Write dispatches on the report type.
func Write(out io.Writer, report any) error {
	switch r := report.(type) {
	case reports.TrialBalance:
		return TrialBalance(out, r)
	case reports.IncomeStatement:
		return IncomeStatement(out, r)
	case reports.VATReport:
		return VATReport(out, r)
	case reports.AccountsReport:
		return AccountsReport(out, r)
	default:
		return fmt.Errorf("no xlsx layout for %T", report)
	}
}

// TrialBalance writes one row per account grouped by category.
func TrialBalance(out io.Writer, tb reports.TrialBalance) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	w.startSheet(SheetTrialBalance)
	w.widths("B", 32)
	w.header("Account", "Name", "Category", "Debit", "Credit", "Balance", "Transactions")
	for _, category := range tb.CategoryNames() {
		group := tb.Categories[category]
		for _, a := range group.Accounts {
			w.line(a.Number, a.Name, category, a.Debit, a.Credit, a.Balance, a.TransactionCount)
		}
		w.line("", "Total "+category, "", group.TotalDebit, group.TotalCredit, group.TotalBalance)
	}
	w.blank()
	w.header("", "Total", "", tb.Totals.Debit, tb.Totals.Credit)
	w.line("", "Difference", "", tb.Totals.Difference)
	w.line("", "Balanced", "", tb.Balanced)
	w.line("", "Documents", "", tb.DocumentCount)
	w.line("", "Generated", "", tb.GeneratedAt.Format("2006-01-02 15:04:05"))
	return w.writeTo(out)
}

// IncomeStatement writes revenue, expenses and the bottom line.
func IncomeStatement(out io.Writer, is reports.IncomeStatement) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	w.startSheet(SheetIncomeStatement)
	w.widths("B", 32)
	section := func(title string, s reports.IncomeSection) {
		w.header(title, "", "Amount", "Transactions")
		for _, a := range s.Accounts {
			w.line(a.Number, a.Name, a.Amount, a.Transactions)
		}
		w.line("", "Total "+title, s.Total)
		w.blank()
	}
	section("Revenue", is.Revenue)
	section("Expenses", is.Expenses)
	w.header("", "Net Income", is.NetIncome)
	w.line("", "Profit Margin %", is.ProfitMargin)
	w.line("", "Documents", is.DocumentCount)
	return w.writeTo(out)
}

// VATReport writes the VAT-bearing documents and the VAT position.
func VATReport(out io.Writer, r reports.VATReport) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	w.startSheet(SheetVAT)
	w.widths("DE", 28)
	w.header("Date", "Number", "Document ID", "Sender", "Recipient", "Type", "Total", "VAT")
	for _, d := range r.Documents {
		w.line(d.Date, d.Number, d.DocumentID, d.Sender, d.Recipient, d.Type, d.TotalAmount, d.VATAmount)
	}
	w.blank()
	w.header("Input VAT", r.InputVAT)
	w.line("Output VAT", r.OutputVAT)
	w.line("VAT Payable", r.VATPayable)
	w.line("VAT Refundable", r.VATRefundable)
	w.line("Documents", r.Summary.TotalDocuments)
	return w.writeTo(out)
}

// AccountsReport writes payables and receivables on their own sheets plus
// an aging summary.
func AccountsReport(out io.Writer, r reports.AccountsReport) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	side := func(sheet string, parties []reports.Counterparty, total model.Amount) {
		w.startSheet(sheet)
		w.widths("A", 32)
		w.header("Counterparty", "Tax ID", "Number", "Date", "Days Old", "Aging", "Amount")
		for _, p := range parties {
			for _, d := range p.Documents {
				var days any = ""
				if d.DaysOld != nil {
					days = *d.DaysOld
				}
				w.line(p.Name, p.TaxID, d.Number, d.Date, days, d.Aging, d.Amount)
			}
			w.line("Total "+p.Name, "", "", "", "", "", p.TotalAmount)
		}
		w.blank()
		w.header("Total", "", "", "", "", "", total)
	}
	side(SheetPayables, r.Payables, r.TotalPayable)
	side(SheetReceivables, r.Receivables, r.TotalReceivable)

	w.startSheet(SheetAging)
	w.header("Bucket", "Payables", "Receivables")
	p, rc := r.AgingSummary.Payables, r.AgingSummary.Receivables
	w.line(reports.AgingCurrent, p.Current, rc.Current)
	w.line(reports.Aging31To60, p.Days30To60, rc.Days30To60)
	w.line(reports.Aging61To90, p.Days60To90, rc.Days60To90)
	w.line(reports.AgingOver90, p.Over90, rc.Over90)
	w.blank()
	w.header("Net Position", r.NetPosition)
	return w.writeTo(out)
}
