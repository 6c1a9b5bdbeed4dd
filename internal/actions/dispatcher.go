package actions

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/actionlog"
	"github.com/open-kbs/ai-invoice/internal/documents"
	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/reports"
	"github.com/open-kbs/ai-invoice/internal/store"
)

// ChartService loads and updates the chart of accounts.
type ChartService interface {
	Chart(ctx context.Context) (model.ChartOfAccounts, error)
	AddAccount(ctx context.Context, params accounts.AddAccountParams) (model.Account, error)
}

// DocumentRepository stores and reads documents.
type DocumentRepository interface {
	Save(ctx context.Context, doc model.Document) (store.Item, error)
	Fetch(ctx context.Context, limit int) ([]documents.Record, error)
	Documents(ctx context.Context, limit int) ([]model.Document, int, error)
}

// CompanyLookup resolves a VAT number to a registered company.
type CompanyLookup interface {
	Lookup(ctx context.Context, vat string) (*model.Party, error)
}

// OCR reads the text off an image.
type OCR interface {
	ImageToText(ctx context.Context, imageURL string) (string, error)
}

// Recorder receives one audit entry per dispatched action.
type Recorder interface {
	Record(e actionlog.Entry) error
}

// Limits caps how many documents a call reads from the store. Documents
// beyond the cap are ignored.
type Limits struct {
	ReportDocuments int
	ListDocuments   int
}

// DefaultLimits returns the standard caps.
func DefaultLimits() Limits {
	return Limits{ReportDocuments: 1000, ListDocuments: 100}
}

// Deps are the collaborators of a Dispatcher. Companies, OCR and Audit may be
// nil.
type Deps struct {
	Chart     ChartService
	Documents DocumentRepository
	Companies CompanyLookup
	OCR       OCR
	Audit     Recorder
	Limits    Limits
	Controls  reports.ControlAccounts
	Now       func() time.Time
	Logger    *zap.Logger
}

// handBack says when an action's result goes back to the chat model.
type handBack int

const (
	handBackNever handBack = iota
	// handBackResponseHook hands back every result seen on the response hook.
	handBackResponseHook
	// handBackOnSuccess hands back successful results on either hook.
	handBackOnSuccess
)

func (h handBack) applies(hook Hook, resp Response) bool {
	switch h {
	case handBackResponseHook:
		return hook == HookResponse
	case handBackOnSuccess:
		return !resp.Failed()
	}
	return false
}

type route struct {
	name    string
	pattern *regexp.Regexp
	// failType tags the response when the action panics.
	failType string
	handBack handBack
	run      func(ctx context.Context, match []string) Response
}

// Dispatcher routes chat messages to actions.
type Dispatcher struct {
	chart     ChartService
	docs      DocumentRepository
	companies CompanyLookup
	ocr       OCR
	audit     Recorder
	limits    Limits
	controls  reports.ControlAccounts
	now       func() time.Time
	logger    *zap.Logger
	routes    []route
}

// New builds a Dispatcher with the full action table.
func New(deps Deps) *Dispatcher {
	d := &Dispatcher{
		chart:     deps.Chart,
		docs:      deps.Documents,
		companies: deps.Companies,
		ocr:       deps.OCR,
		audit:     deps.Audit,
		limits:    deps.Limits,
		controls:  deps.Controls.WithDefaults(),
		now:       deps.Now,
		logger:    deps.Logger,
	}
	def := DefaultLimits()
	if d.limits.ReportDocuments <= 0 {
		d.limits.ReportDocuments = def.ReportDocuments
	}
	if d.limits.ListDocuments <= 0 {
		d.limits.ListDocuments = def.ListDocuments
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.routes = d.table()
	return d
}

func (d *Dispatcher) table() []route {
	return []route{
		{
			name:     "save_document",
			pattern:  regexp.MustCompile(`\{\s*"type"\s*:\s*"SAVE_DOCUMENT_REQUEST"[\s\S]*\}`),
			failType: TypeSaveDocumentFailed,
			handBack: handBackResponseHook,
			run:      d.saveDocument,
		},
		{
			name:     "add_account",
			pattern:  regexp.MustCompile(`/addAccount\(([^)]+)\)`),
			failType: TypeAddAccountFailed,
			run:      d.addAccount,
		},
		{
			name:     "get_chart_of_accounts",
			pattern:  regexp.MustCompile(`/getChartOfAccounts\(\)`),
			failType: TypeGetChartFailed,
			handBack: handBackOnSuccess,
			run:      d.chartOfAccounts,
		},
		{
			name:     "list_documents",
			pattern:  regexp.MustCompile(`/listDocuments\(\)`),
			failType: TypeListDocumentsFailed,
			run:      d.listDocuments,
		},
		{
			name:     "get_company_details",
			pattern:  regexp.MustCompile(`/getCompanyDetails\("([^"]*)",\s*"([^"]*)"\)`),
			failType: TypeCompanyDetailsFailed,
			handBack: handBackResponseHook,
			run:      d.companyDetails,
		},
		{
			name:     "trial_balance",
			pattern:  regexp.MustCompile(`/getTrialBalance\(\)`),
			failType: ErrorType(TypeTrialBalance),
			run:      d.trialBalance,
		},
		{
			name:     "income_statement",
			pattern:  regexp.MustCompile(`/getIncomeStatement\(\)`),
			failType: ErrorType(TypeIncomeStatement),
			run:      d.incomeStatement,
		},
		{
			name:     "vat_report",
			pattern:  regexp.MustCompile(`/getVATReport\(\)`),
			failType: ErrorType(TypeVATReport),
			run:      d.vatReport,
		},
		{
			name:     "accounts_report",
			pattern:  regexp.MustCompile(`/getAccountsReport\(\)`),
			failType: ErrorType(TypeAccountsReport),
			run:      d.accountsReport,
		},
		{
			name:     "ocr",
			pattern:  regexp.MustCompile(`\[\{"type":"text","text":[\s\S]*?\]`),
			failType: TypeOCRError,
			handBack: handBackResponseHook,
			run:      d.ocrUpload,
		},
	}
}

// Actions lists the action names in match order.
func (d *Dispatcher) Actions() []string {
	names := make([]string, len(d.routes))
	for i, r := range d.routes {
		names[i] = r.name
	}
	return names
}

// Dispatch runs the first action whose pattern matches message. When none
// matches it returns a CONTINUE response.
func (d *Dispatcher) Dispatch(ctx context.Context, hook Hook, message string) Response {
	for _, r := range d.routes {
		match := r.pattern.FindStringSubmatch(message)
		if match == nil {
			continue
		}

		start := d.now()
		resp := d.run(ctx, r, match)
		if r.handBack.applies(hook, resp) {
			resp.NextAction = NextRequestChatModel
		}
		d.record(hook, r.name, resp, start)
		return resp
	}
	return Continue()
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DispatchLast dispatches the last message of a conversation.
func (d *Dispatcher) DispatchLast(ctx context.Context, hook Hook, messages []Message) Response {
	if len(messages) == 0 {
		return Continue()
	}
	return d.Dispatch(ctx, hook, messages[len(messages)-1].Content)
}

func (d *Dispatcher) run(ctx context.Context, r route, match []string) (resp Response) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("action panicked", zap.String("action", r.name), zap.Any("panic", p))
			resp = Response{Type: r.failType, Error: fmt.Sprintf("internal error in %s", r.name)}
		}
	}()
	return r.run(ctx, match)
}

func (d *Dispatcher) record(hook Hook, name string, resp Response, start time.Time) {
	fields := []zap.Field{
		zap.String("hook", string(hook)),
		zap.String("action", name),
		zap.String("type", resp.Type),
	}
	if resp.Failed() {
		d.logger.Warn("action failed", append(fields, zap.String("error", resp.Error))...)
	} else {
		d.logger.Info("action completed", fields...)
	}

	if d.audit == nil {
		return
	}
	entry := actionlog.Entry{
		Timestamp:  start.UTC(),
		Hook:       string(hook),
		Action:     name,
		ResultType: resp.Type,
		Error:      resp.Error,
		Duration:   d.now().Sub(start),
	}
	if err := d.audit.Record(entry); err != nil {
		d.logger.Warn("writing action log", zap.Error(err))
	}
}
