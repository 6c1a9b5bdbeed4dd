package actions

import (
	"context"

	"go.uber.org/zap"

	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/reports"
)

// documents loads the report input. Unreadable documents are left out.
func (d *Dispatcher) documents(ctx context.Context) ([]model.Document, error) {
	docs, skipped, err := d.docs.Documents(ctx, d.limits.ReportDocuments)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		d.logger.Warn("report skipped unreadable documents", zap.Int("skipped", skipped))
	}
	return docs, nil
}

func (d *Dispatcher) trialBalance(ctx context.Context, _ []string) Response {
	now := d.now().UTC()
	docs, err := d.documents(ctx)
	if err != nil {
		return Response{Type: ErrorType(TypeTrialBalance), Error: err.Error()}
	}
	if len(docs) == 0 {
		return Response{
			Type:    TypeTrialBalance,
			Message: "No documents found for trial balance",
			Data:    reports.EmptyTrialBalance(now),
		}
	}
	chart, err := d.chart.Chart(ctx)
	if err != nil {
		return Response{Type: ErrorType(TypeTrialBalance), Error: err.Error()}
	}
	return Response{Type: TypeTrialBalance, Data: reports.BuildTrialBalance(chart, docs, now)}
}

func (d *Dispatcher) incomeStatement(ctx context.Context, _ []string) Response {
	now := d.now().UTC()
	docs, err := d.documents(ctx)
	if err != nil {
		return Response{Type: ErrorType(TypeIncomeStatement), Error: err.Error()}
	}
	if len(docs) == 0 {
		return Response{
			Type:    TypeIncomeStatement,
			Message: "No documents found",
			Data:    reports.EmptyIncomeStatement(now),
		}
	}
	chart, err := d.chart.Chart(ctx)
	if err != nil {
		return Response{Type: ErrorType(TypeIncomeStatement), Error: err.Error()}
	}
	return Response{Type: TypeIncomeStatement, Data: reports.BuildIncomeStatement(chart, docs, now)}
}

func (d *Dispatcher) vatReport(ctx context.Context, _ []string) Response {
	now := d.now().UTC()
	docs, err := d.documents(ctx)
	if err != nil {
		return Response{Type: ErrorType(TypeVATReport), Error: err.Error()}
	}
	if len(docs) == 0 {
		return Response{
			Type:    TypeVATReport,
			Message: "No documents found",
			Data:    reports.EmptyVATReport(now),
		}
	}
	return Response{Type: TypeVATReport, Data: reports.BuildVATReport(docs, d.controls, now)}
}

func (d *Dispatcher) accountsReport(ctx context.Context, _ []string) Response {
	now := d.now().UTC()
	docs, err := d.documents(ctx)
	if err != nil {
		return Response{Type: ErrorType(TypeAccountsReport), Error: err.Error()}
	}
	if len(docs) == 0 {
		return Response{
			Type:    TypeAccountsReport,
			Message: "No documents found",
			Data:    reports.EmptyAccountsReport(now),
		}
	}
	return Response{Type: TypeAccountsReport, Data: reports.BuildAccountsReport(docs, d.controls, now)}
}
