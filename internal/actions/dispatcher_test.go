package actions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/actionlog"
	"github.com/open-kbs/ai-invoice/internal/documents"
	"github.com/open-kbs/ai-invoice/internal/ledger"
	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/reports"
	"github.com/open-kbs/ai-invoice/internal/store"
	"github.com/open-kbs/ai-invoice/internal/vault"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type stubLookup struct {
	parties map[string]*model.Party
}

func (s stubLookup) Lookup(_ context.Context, vat string) (*model.Party, error) {
	if p, ok := s.parties[vat]; ok {
		return p, nil
	}
	return nil, errors.New("VIES returned 404 Not Found")
}

type stubOCR struct {
	text   string
	err    error
	gotURL string
}

func (s *stubOCR) ImageToText(_ context.Context, imageURL string) (string, error) {
	s.gotURL = imageURL
	return s.text, s.err
}

type recorder struct {
	entries []actionlog.Entry
	err     error
}

func (r *recorder) Record(e actionlog.Entry) error {
	r.entries = append(r.entries, e)
	return r.err
}

type failingDocs struct{}

func (failingDocs) Save(context.Context, model.Document) (store.Item, error) {
	return store.Item{}, errors.New("store unavailable")
}

func (failingDocs) Fetch(context.Context, int) ([]documents.Record, error) {
	return nil, errors.New("store unavailable")
}

func (failingDocs) Documents(context.Context, int) ([]model.Document, int, error) {
	return nil, 0, errors.New("store unavailable")
}

type panickingChart struct{}

func (panickingChart) Chart(context.Context) (model.ChartOfAccounts, error) {
	panic("boom")
}

func (panickingChart) AddAccount(context.Context, accounts.AddAccountParams) (model.Account, error) {
	panic("boom")
}

type harness struct {
	d     *Dispatcher
	store *store.Memory
	audit *recorder
	ocr   *stubOCR
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := store.NewMemory()
	h := &harness{store: st, audit: &recorder{}, ocr: &stubOCR{text: "INVOICE 0042"}}
	h.d = New(Deps{
		Chart:     accounts.NewService(st, vault.Plain{}, nil),
		Documents: documents.NewRepository(st, vault.Plain{}, nil),
		Companies: stubLookup{parties: map[string]*model.Party{
			"BG123456789": {Name: "ACME OOD", TaxID: "123456789", VATNumber: "BG123456789"},
		}},
		OCR:   h.ocr,
		Audit: h.audit,
		Now:   func() time.Time { return fixedNow },
	})
	return h
}

func purchase(id string) model.Document {
	return model.Document{
		DocumentID:     id,
		DocumentType:   "Invoice",
		Number:         "0042",
		Date:           "2025-02-01",
		TotalAmount:    model.NewAmount("120.00"),
		TotalVatAmount: model.NewAmount("20.00"),
		CompanySender:  &model.Party{Name: "Acme", TaxID: "123"},
		DocumentDetails: []model.LineItem{{
			ServiceGood: model.ServiceGood{Name: "Paper", Price: model.NewAmount("10")},
			Qtty:        model.NewAmount("10"),
			Amount:      model.NewAmount("100"),
			VatAmount:   model.NewAmount("20"),
		}},
		Accountings: []model.AccountingEntry{{AccountingDetails: []model.AccountingDetail{
			{AccountNumber: "5000", Direction: model.Debit, Amount: model.NewAmount("100")},
			{AccountNumber: "2310", Direction: model.Debit, Amount: model.NewAmount("20")},
			{AccountNumber: "2100", Direction: model.Credit, Amount: model.NewAmount("120")},
		}}},
	}
}

func saveMessage(t *testing.T, body map[string]any) string {
	t.Helper()
	body["type"] = "SAVE_DOCUMENT_REQUEST"
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return "Here is the booking:\n" + string(data)
}

func TestDispatchNoMatch(t *testing.T) {
	h := newHarness(t)
	for _, msg := range []string{"", "hello", "/addAccount()", "/getTrialBalance"} {
		resp := h.d.Dispatch(context.Background(), HookResponse, msg)
		assert.Equal(t, Continue(), resp, msg)
	}
	assert.Empty(t, h.audit.entries)
}

func TestDispatchLast(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Equal(t, Continue(), h.d.DispatchLast(ctx, HookRequest, nil))

	resp := h.d.DispatchLast(ctx, HookRequest, []Message{
		{Role: "user", Content: "/getChartOfAccounts()"},
		{Role: "assistant", Content: "sure"},
	})
	assert.Equal(t, TypeContinue, resp.Type)

	resp = h.d.DispatchLast(ctx, HookRequest, []Message{
		{Role: "assistant", Content: "sure"},
		{Role: "user", Content: "/getChartOfAccounts()"},
	})
	assert.Equal(t, TypeChartOfAccounts, resp.Type)
}

func TestActionsOrder(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{
		"save_document", "add_account", "get_chart_of_accounts", "list_documents",
		"get_company_details", "trial_balance", "income_statement", "vat_report",
		"accounts_report", "ocr",
	}, h.d.Actions())
}

func TestChartOfAccounts(t *testing.T) {
	for _, hook := range []Hook{HookRequest, HookResponse} {
		t.Run(string(hook), func(t *testing.T) {
			h := newHarness(t)
			resp := h.d.Dispatch(context.Background(), hook, "Let me check. /getChartOfAccounts()")

			assert.Equal(t, TypeChartOfAccounts, resp.Type)
			require.NotNil(t, resp.AccountCount)
			assert.Equal(t, 18, *resp.AccountCount)
			assert.Equal(t, NextRequestChatModel, resp.NextAction, "the chart always goes back to the model")
			chart, ok := resp.Data.(model.ChartOfAccounts)
			require.True(t, ok)
			assert.Equal(t, accounts.DefaultChart(), chart)
		})
	}
}

func TestHandBack(t *testing.T) {
	ok := Response{Type: TypeChartOfAccounts}
	failed := Response{Type: TypeGetChartFailed, Error: "boom"}

	tests := []struct {
		name string
		mode handBack
		hook Hook
		resp Response
		want bool
	}{
		{"never", handBackNever, HookResponse, ok, false},
		{"response hook on response", handBackResponseHook, HookResponse, ok, true},
		{"response hook keeps failures", handBackResponseHook, HookResponse, failed, true},
		{"response hook on request", handBackResponseHook, HookRequest, ok, false},
		{"on success request hook", handBackOnSuccess, HookRequest, ok, true},
		{"on success response hook", handBackOnSuccess, HookResponse, ok, true},
		{"on success skips failures", handBackOnSuccess, HookResponse, failed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.applies(tt.hook, tt.resp))
		})
	}
}

func TestAddAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := h.d.Dispatch(ctx, HookResponse, `/addAccount({"parentNumber":"5000","number":"5010","name":"Office supplies"})`)
	assert.Equal(t, TypeAccountAdded, resp.Type)
	assert.Equal(t, "Account 5010 - Office supplies added successfully", resp.Message)
	assert.Equal(t, "5000", resp.ParentNumber)
	require.NotNil(t, resp.Account)
	assert.Equal(t, model.CategoryExpenses, resp.Account.Category)
	assert.Empty(t, resp.NextAction)

	resp = h.d.Dispatch(ctx, HookResponse, `/addAccount({"number":"6000","name":"Extraordinary","category":"Expenses"})`)
	assert.Equal(t, TypeAccountAdded, resp.Type)
	assert.Equal(t, "root", resp.ParentNumber)

	resp = h.d.Dispatch(ctx, HookResponse, "/getChartOfAccounts()")
	require.NotNil(t, resp.AccountCount)
	assert.Equal(t, 19, *resp.AccountCount)
}

func TestAddAccountFailures(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"missing name", `/addAccount({"number":"5010"})`, "Account number and name are required"},
		{"missing number", `/addAccount({"name":"Paper"})`, "Account number and name are required"},
		{"unknown parent", `/addAccount({"parentNumber":"9999","number":"9991","name":"X"})`, "Parent account 9999 not found"},
		{"duplicate", `/addAccount({"number":"1000","name":"Cash again"})`, "Account 1000 already exists"},
		{"unknown category", `/addAccount({"number":"6100","name":"Fees","category":"Expense"})`, "Invalid category Expense"},
		{"not json", `/addAccount(nope)`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			resp := h.d.Dispatch(context.Background(), HookResponse, tt.message)
			assert.Equal(t, TypeAddAccountFailed, resp.Type)
			require.True(t, resp.Failed())
			if tt.want != "" {
				assert.Equal(t, tt.want, resp.Error)
			}
		})
	}
}

func TestSaveDocument(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	msg := saveMessage(t, map[string]any{
		"document":          purchase("INV-42"),
		"suggestedAccounts": []map[string]string{{"number": "5010", "name": "Paper"}},
	})

	resp := h.d.Dispatch(ctx, HookResponse, msg)
	require.Equal(t, TypeDocumentSaved, resp.Type, resp.Error)
	assert.Equal(t, NextRequestChatModel, resp.NextAction)

	saved, ok := resp.Data.(SavedDocument)
	require.True(t, ok)
	assert.Equal(t, "Document saved with ID: INV-42", saved.Message)
	assert.Equal(t, "INV-42", saved.DocumentID)
	assert.Equal(t, 1, saved.ItemCount)
	assert.JSONEq(t, `[{"number":"5010","name":"Paper"}]`, string(saved.SuggestedAccounts))
	assert.Empty(t, saved.Warnings)

	items, err := h.store.FetchItems(ctx, store.TypeDocument, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "INV-42", items[0].ID)
}

func TestSaveDocumentRequestHook(t *testing.T) {
	h := newHarness(t)
	resp := h.d.Dispatch(context.Background(), HookRequest, saveMessage(t, map[string]any{"document": purchase("INV-1")}))

	require.Equal(t, TypeDocumentSaved, resp.Type)
	assert.Empty(t, resp.NextAction)
	saved := resp.Data.(SavedDocument)
	assert.Equal(t, "[]", string(saved.SuggestedAccounts))
}

func TestSaveDocumentWarnings(t *testing.T) {
	h := newHarness(t)
	doc := purchase("INV-7")
	doc.Accountings[0].AccountingDetails[0].AccountNumber = "9999"
	doc.Accountings[0].AccountingDetails[2].Amount = model.NewAmount("110")

	resp := h.d.Dispatch(context.Background(), HookResponse, saveMessage(t, map[string]any{"document": doc}))
	require.Equal(t, TypeDocumentSaved, resp.Type)

	var rules []ledger.Rule
	for _, w := range resp.Data.(SavedDocument).Warnings {
		rules = append(rules, w.Rule)
	}
	assert.Equal(t, []ledger.Rule{ledger.RuleUnknownAccount, ledger.RuleUnbalanced}, rules)
}

func TestSaveDocumentFailures(t *testing.T) {
	noID := purchase("")
	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"no document", map[string]any{}, "No document data provided"},
		{"null document", map[string]any{"document": nil}, "No document data provided"},
		{"missing id", map[string]any{"document": noID}, documents.ErrMissingID.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			resp := h.d.Dispatch(context.Background(), HookResponse, saveMessage(t, tt.body))
			assert.Equal(t, TypeSaveDocumentFailed, resp.Type)
			assert.Equal(t, tt.want, resp.Error)
			assert.Equal(t, NextRequestChatModel, resp.NextAction)
		})
	}
}

func TestSaveDocumentDuplicate(t *testing.T) {
	h := newHarness(t)
	msg := saveMessage(t, map[string]any{"document": purchase("INV-1")})

	require.Equal(t, TypeDocumentSaved, h.d.Dispatch(context.Background(), HookRequest, msg).Type)
	resp := h.d.Dispatch(context.Background(), HookRequest, msg)
	assert.Equal(t, TypeSaveDocumentFailed, resp.Type)
	assert.Contains(t, resp.Error, "INV-1")
}

func TestListDocumentsEmpty(t *testing.T) {
	h := newHarness(t)
	resp := h.d.Dispatch(context.Background(), HookResponse, "/listDocuments()")

	assert.Equal(t, TypeDocumentsList, resp.Type)
	assert.Equal(t, "No documents found", resp.Message)
	assert.Nil(t, resp.Count)
	assert.Empty(t, resp.NextAction)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"DOCUMENTS_LIST","message":"No documents found","data":[]}`, string(data))
}

func TestListDocuments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.d.Dispatch(ctx, HookRequest, saveMessage(t, map[string]any{"document": purchase("INV-1")}))
	_, err := h.store.CreateItem(ctx, store.TypeDocument, "broken", "{not json")
	require.NoError(t, err)

	resp := h.d.Dispatch(ctx, HookResponse, "/listDocuments()")
	assert.Equal(t, TypeDocumentsList, resp.Type)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 2, *resp.Count)

	summaries, ok := resp.Data.([]documents.Summary)
	require.True(t, ok)
	assert.Equal(t, "INV-1", summaries[0].DocumentID)
	assert.Equal(t, 1, summaries[0].ItemCount)
	assert.Equal(t, "broken", summaries[1].ID)
	assert.Equal(t, documents.DecryptFailed, summaries[1].Error)
}

func TestStoreFailures(t *testing.T) {
	d := New(Deps{
		Chart:     accounts.NewService(store.NewMemory(), vault.Plain{}, nil),
		Documents: failingDocs{},
		Now:       func() time.Time { return fixedNow },
	})

	tests := []struct {
		message string
		want    string
	}{
		{"/listDocuments()", TypeListDocumentsFailed},
		{"/getTrialBalance()", "TRIAL_BALANCE_ERROR"},
		{"/getIncomeStatement()", "INCOME_STATEMENT_ERROR"},
		{"/getVATReport()", "VAT_REPORT_ERROR"},
		{"/getAccountsReport()", "ACCOUNTS_REPORT_ERROR"},
		{saveMessage(t, map[string]any{"document": purchase("INV-1")}), TypeSaveDocumentFailed},
	}
	for _, tt := range tests {
		resp := d.Dispatch(context.Background(), HookResponse, tt.message)
		assert.Equal(t, tt.want, resp.Type, tt.message)
		assert.Equal(t, "store unavailable", resp.Error, tt.message)
	}
}

func TestReportsEmpty(t *testing.T) {
	tests := []struct {
		message string
		typ     string
		text    string
	}{
		{"/getTrialBalance()", TypeTrialBalance, "No documents found for trial balance"},
		{"/getIncomeStatement()", TypeIncomeStatement, "No documents found"},
		{"/getVATReport()", TypeVATReport, "No documents found"},
		{"/getAccountsReport()", TypeAccountsReport, "No documents found"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			h := newHarness(t)
			resp := h.d.Dispatch(context.Background(), HookResponse, tt.message)
			assert.Equal(t, tt.typ, resp.Type)
			assert.Equal(t, tt.text, resp.Message)
			assert.False(t, resp.Failed())
			assert.Empty(t, resp.NextAction)
			assert.NotNil(t, resp.Data)
		})
	}
}

func TestReports(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.d.Dispatch(ctx, HookRequest, saveMessage(t, map[string]any{"document": purchase("INV-1")}))

	resp := h.d.Dispatch(ctx, HookResponse, "/getTrialBalance()")
	tb, ok := resp.Data.(reports.TrialBalance)
	require.True(t, ok)
	assert.True(t, tb.Balanced)
	assert.Equal(t, 1, tb.DocumentCount)
	assert.Equal(t, fixedNow, tb.GeneratedAt)

	resp = h.d.Dispatch(ctx, HookResponse, "/getIncomeStatement()")
	is, ok := resp.Data.(reports.IncomeStatement)
	require.True(t, ok)
	assert.Equal(t, "-100", is.NetIncome.String())

	resp = h.d.Dispatch(ctx, HookResponse, "/getVATReport()")
	vat, ok := resp.Data.(reports.VATReport)
	require.True(t, ok)
	assert.Equal(t, "20", vat.InputVAT.String())
	assert.Equal(t, "20", vat.VATRefundable.String())

	resp = h.d.Dispatch(ctx, HookResponse, "/getAccountsReport()")
	ar, ok := resp.Data.(reports.AccountsReport)
	require.True(t, ok)
	require.Len(t, ar.Payables, 1)
	assert.Equal(t, "Acme", ar.Payables[0].Name)
	assert.Equal(t, reports.AgingCurrent, ar.Payables[0].Documents[0].Aging)
}

func TestCompanyDetails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := h.d.Dispatch(ctx, HookResponse, `/getCompanyDetails("BG123456789", "987654")`)
	require.Equal(t, TypeCompanyDetails, resp.Type)
	assert.Equal(t, NextRequestChatModel, resp.NextAction)

	details, ok := resp.Data.(CompanyDetails)
	require.True(t, ok)
	assert.Equal(t, "ACME OOD", details.YourCompany.Name)
	assert.Equal(t, "Other Company", details.OtherCompany.Name)
	assert.Equal(t, "987654", details.OtherCompany.TaxID)
	assert.Equal(t, accounts.DefaultChart(), details.ChartOfAccounts)

	resp = h.d.Dispatch(ctx, HookRequest, `/getCompanyDetails("DE000", "BG123456789")`)
	require.Equal(t, TypeCompanyDetails, resp.Type)
	assert.Empty(t, resp.NextAction)
	details = resp.Data.(CompanyDetails)
	assert.Equal(t, "Your Company", details.YourCompany.Name, "failed lookup falls back")
	assert.Equal(t, "ACME OOD", details.OtherCompany.Name)
}

func TestCompanyDetailsMissingIDs(t *testing.T) {
	h := newHarness(t)
	for _, msg := range []string{`/getCompanyDetails("", "123")`, `/getCompanyDetails("123", " ")`} {
		resp := h.d.Dispatch(context.Background(), HookResponse, msg)
		assert.Equal(t, TypeCompanyDetailsFailed, resp.Type)
		assert.Equal(t, "Both YOUR_COMPANY Tax ID and other company Tax ID are required", resp.Error)
	}
}

func TestCompanyDetailsWithoutLookup(t *testing.T) {
	d := New(Deps{Chart: accounts.NewService(store.NewMemory(), vault.Plain{}, nil), Documents: failingDocs{}})
	resp := d.Dispatch(context.Background(), HookResponse, `/getCompanyDetails("BG1", "BG2")`)
	details := resp.Data.(CompanyDetails)
	assert.Equal(t, "Your Company", details.YourCompany.Name)
	assert.Equal(t, "BG2", details.OtherCompany.VATNumber)
}

const upload = `[{"type":"text","text":"Please book this"},{"type":"image_url","image_url":{"url":"https://files.example.com/inv.png"}}]`

func TestOCR(t *testing.T) {
	h := newHarness(t)
	resp := h.d.Dispatch(context.Background(), HookResponse, upload)

	require.Equal(t, TypeOCRResult, resp.Type, resp.Error)
	assert.Equal(t, "OCR completed for uploaded image", resp.Message)
	assert.Equal(t, NextRequestChatModel, resp.NextAction)
	assert.Equal(t, "https://files.example.com/inv.png", h.ocr.gotURL)
	assert.Equal(t, OCRResult{InvoiceText: "INVOICE 0042", ImageURL: "https://files.example.com/inv.png"}, resp.Data)
}

func TestOCRFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := h.d.Dispatch(ctx, HookResponse, `[{"type":"text","text":"no picture"}]`)
	assert.Equal(t, TypeOCRError, resp.Type)
	assert.Equal(t, "No image URL found in upload", resp.Error)
	assert.Equal(t, "Error in OCR processing: No image URL found in upload", resp.Message)

	h.ocr.err = errors.New("rate limited")
	resp = h.d.Dispatch(ctx, HookResponse, upload)
	assert.Equal(t, TypeOCRError, resp.Type)
	assert.Equal(t, "Error in OCR processing: rate limited", resp.Message)
}

func TestFirstImageURL(t *testing.T) {
	got, err := FirstImageURL(upload)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/inv.png", got)

	_, err = FirstImageURL(`[{"type":"image_url"}]`)
	assert.ErrorIs(t, err, errNoImage)

	_, err = FirstImageURL(`not json`)
	assert.Error(t, err)
}

func TestAuditTrail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.d.Dispatch(ctx, HookRequest, "/getChartOfAccounts()")
	h.d.Dispatch(ctx, HookResponse, `/addAccount({"number":"1000","name":"Dup"})`)
	h.d.Dispatch(ctx, HookResponse, "nothing to do")

	require.Len(t, h.audit.entries, 2)
	assert.Equal(t, actionlog.Entry{
		Timestamp:  fixedNow,
		Hook:       "request",
		Action:     "get_chart_of_accounts",
		ResultType: TypeChartOfAccounts,
	}, h.audit.entries[0])
	assert.Equal(t, "add_account", h.audit.entries[1].Action)
	assert.Equal(t, TypeAddAccountFailed, h.audit.entries[1].ResultType)
	assert.Equal(t, "Account 1000 already exists", h.audit.entries[1].Error)
}

func TestAuditErrorIgnored(t *testing.T) {
	h := newHarness(t)
	h.audit.err = errors.New("disk full")
	resp := h.d.Dispatch(context.Background(), HookRequest, "/getChartOfAccounts()")
	assert.Equal(t, TypeChartOfAccounts, resp.Type)
}

func TestPanicBecomesFailure(t *testing.T) {
	d := New(Deps{Chart: panickingChart{}, Documents: failingDocs{}})
	resp := d.Dispatch(context.Background(), HookResponse, "/getChartOfAccounts()")
	assert.Equal(t, TypeGetChartFailed, resp.Type)
	assert.Equal(t, "internal error in get_chart_of_accounts", resp.Error)
	assert.Empty(t, resp.NextAction)
}
