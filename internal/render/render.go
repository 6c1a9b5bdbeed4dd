// Package render prints reports, charts and document listings as aligned
// terminal tables.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/open-kbs/ai-invoice/internal/documents"
	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/reports"
)

var printer = message.NewPrinter(language.English)

// Money formats an amount with two decimals and thousands separators.
func Money(a model.Amount) string {
	return printer.Sprintf("%.2f", a.Round(2).InexactFloat64())
}

type table struct {
	tw  *tabwriter.Writer
	err error
}

func newTable(w io.Writer) *table {
	return &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (t *table) row(cells ...string) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintln(t.tw, strings.Join(cells, "\t")+"\t")
}

func (t *table) flush() error {
	if t.err != nil {
		return t.err
	}
	return t.tw.Flush()
}

func title(w io.Writer, s string) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", s, strings.Repeat("=", len(s)))
	return err
}

// Report prints any of the four reports.
func Report(w io.Writer, report any) error {
	switch r := report.(type) {
	case reports.TrialBalance:
		return TrialBalance(w, r)
	case reports.IncomeStatement:
		return IncomeStatement(w, r)
	case reports.VATReport:
		return VATReport(w, r)
	case reports.AccountsReport:
		return AccountsReport(w, r)
	default:
		return fmt.Errorf("no table layout for %T", report)
	}
}

// TrialBalance prints accounts grouped by category with grand totals.
func TrialBalance(w io.Writer, tb reports.TrialBalance) error {
	if err := title(w, "Trial Balance"); err != nil {
		return err
	}
	t := newTable(w)
	t.row("Account", "Name", "Debit", "Credit", "Balance")
	for _, category := range tb.CategoryNames() {
		group := tb.Categories[category]
		t.row(category, "", "", "", "")
		for _, a := range group.Accounts {
			t.row(a.Number, a.Name, Money(a.Debit), Money(a.Credit), Money(a.Balance))
		}
		t.row("", "Total "+category, Money(group.TotalDebit), Money(group.TotalCredit), Money(group.TotalBalance))
	}
	t.row("", "TOTAL", Money(tb.Totals.Debit), Money(tb.Totals.Credit), "")
	if err := t.flush(); err != nil {
		return err
	}
	status := "balanced"
	if !tb.Balanced {
		status = "OUT OF BALANCE by " + Money(tb.Totals.Difference)
	}
	_, err := fmt.Fprintf(w, "\n%d documents, %s\n", tb.DocumentCount, status)
	return err
}

// IncomeStatement prints revenue and expenses and the net result.
func IncomeStatement(w io.Writer, is reports.IncomeStatement) error {
	if err := title(w, "Income Statement"); err != nil {
		return err
	}
	t := newTable(w)
	section := func(name string, s reports.IncomeSection) {
		t.row(name, "", "")
		for _, a := range s.Accounts {
			t.row(a.Number, a.Name, Money(a.Amount))
		}
		t.row("", "Total "+name, Money(s.Total))
	}
	section("Revenue", is.Revenue)
	section("Expenses", is.Expenses)
	t.row("", "Net Income", Money(is.NetIncome))
	t.row("", "Profit Margin", Money(is.ProfitMargin)+"%")
	return t.flush()
}

// VATReport prints the VAT documents and the VAT position.
func VATReport(w io.Writer, r reports.VATReport) error {
	if err := title(w, "VAT Report"); err != nil {
		return err
	}
	t := newTable(w)
	t.row("Date", "Number", "Counterparty", "Type", "Total", "VAT")
	for _, d := range r.Documents {
		party := d.Sender
		if d.Type == reports.VATOutput {
			party = d.Recipient
		}
		t.row(d.Date, d.Number, party, d.Type, Money(d.TotalAmount), Money(d.VATAmount))
	}
	if err := t.flush(); err != nil {
		return err
	}

	t = newTable(w)
	t.row("", "")
	t.row("Input VAT", Money(r.InputVAT))
	t.row("Output VAT", Money(r.OutputVAT))
	if r.VATRefundable.IsPositive() {
		t.row("VAT Refundable", Money(r.VATRefundable))
	} else {
		t.row("VAT Payable", Money(r.VATPayable))
	}
	return t.flush()
}

// AccountsReport prints payables, receivables and the aging summary.
func AccountsReport(w io.Writer, r reports.AccountsReport) error {
	if err := title(w, "Accounts Payable / Receivable"); err != nil {
		return err
	}
	t := newTable(w)
	side := func(name string, parties []reports.Counterparty, total model.Amount) {
		t.row(name, "", "", "", "")
		for _, p := range parties {
			for _, d := range p.Documents {
				days := "-"
				if d.DaysOld != nil {
					days = fmt.Sprint(*d.DaysOld)
				}
				t.row(p.Name, d.Number, days, d.Aging, Money(d.Amount))
			}
		}
		t.row("", "", "", "Total "+name, Money(total))
	}
	side("Payables", r.Payables, r.TotalPayable)
	side("Receivables", r.Receivables, r.TotalReceivable)
	t.row("", "", "", "Net Position", Money(r.NetPosition))
	if err := t.flush(); err != nil {
		return err
	}

	t = newTable(w)
	t.row("", "")
	t.row("Aging", "Payables", "Receivables")
	p, rc := r.AgingSummary.Payables, r.AgingSummary.Receivables
	t.row(reports.AgingCurrent, Money(p.Current), Money(rc.Current))
	t.row(reports.Aging31To60, Money(p.Days30To60), Money(rc.Days30To60))
	t.row(reports.Aging61To90, Money(p.Days60To90), Money(rc.Days60To90))
	t.row(reports.AgingOver90, Money(p.Over90), Money(rc.Over90))
	return t.flush()
}

// Chart prints the account tree indented by depth.
func Chart(w io.Writer, chart model.ChartOfAccounts) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	var walk func(accts []model.Account, depth int) error
	walk = func(accts []model.Account, depth int) error {
		for _, a := range accts {
			category := string(a.Category)
			if category == "" {
				category = "(inherited)"
			}
			if _, err := fmt.Fprintf(tw, "%s%s\t%s\t%s\n", strings.Repeat("  ", depth), a.Number, a.Name, category); err != nil {
				return err
			}
			if err := walk(a.SubAccounts, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(chart.Accounts, 0); err != nil {
		return err
	}
	return tw.Flush()
}

// Documents prints one line per stored document.
func Documents(w io.Writer, summaries []documents.Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No documents found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tType\tNumber\tDate\tSender\tRecipient\tTotal\tItems")
	for _, s := range summaries {
		if s.Error != "" {
			fmt.Fprintf(tw, "%s\t%s\t\t\t\t\t\t\n", s.ID, s.Error)
			continue
		}
		total := ""
		if s.TotalAmount != nil {
			total = Money(*s.TotalAmount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			s.DocumentID, s.DocumentType, s.Number, s.Date, s.Sender, s.Recipient, total, s.ItemCount)
	}
	return tw.Flush()
}
