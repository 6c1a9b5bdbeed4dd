// Package actions matches chat messages against a table of command patterns
// and runs the matching accounting action.
package actions

import "github.com/open-kbs/ai-invoice/internal/model"

// Hook says which side of a chat turn a message was intercepted on.
type Hook string

const (
	// HookRequest runs on the user's message before the model sees it.
	HookRequest Hook = "request"
	// HookResponse runs on the model's reply.
	HookResponse Hook = "response"
)

// NextRequestChatModel asks the host to send the result back to the model.
const NextRequestChatModel = "REQUEST_CHAT_MODEL"

// Result types.
const (
	TypeContinue = "CONTINUE"

	TypeDocumentSaved      = "DOCUMENT_SAVED"
	TypeSaveDocumentFailed = "SAVE_DOCUMENT_FAILED"

	TypeAccountAdded     = "ACCOUNT_ADDED"
	TypeAddAccountFailed = "ADD_ACCOUNT_FAILED"

	TypeChartOfAccounts = "CHART_OF_ACCOUNTS"
	TypeGetChartFailed  = "GET_CHART_FAILED"

	TypeDocumentsList       = "DOCUMENTS_LIST"
	TypeListDocumentsFailed = "LIST_DOCUMENTS_FAILED"

	TypeCompanyDetails       = "COMPANY_DETAILS"
	TypeCompanyDetailsFailed = "COMPANY_DETAILS_FAILED"

	TypeTrialBalance    = "TRIAL_BALANCE"
	TypeIncomeStatement = "INCOME_STATEMENT"
	TypeVATReport       = "VAT_REPORT"
	TypeAccountsReport  = "ACCOUNTS_REPORT"

	TypeOCRResult = "OCR_RESULT"
	TypeOCRError  = "OCR_ERROR"
)

// ErrorType returns the failure tag of a report type.
func ErrorType(reportType string) string {
	return reportType + "_ERROR"
}

// Response is the envelope every action returns. NextAction is empty when
// the host should not call the model again.
type Response struct {
	Type         string         `json:"type"`
	Data         any            `json:"data,omitempty"`
	Error        string         `json:"error,omitempty"`
	Message      string         `json:"message,omitempty"`
	Account      *model.Account `json:"account,omitempty"`
	ParentNumber string         `json:"parentNumber,omitempty"`
	AccountCount *int           `json:"accountCount,omitempty"`
	Count        *int           `json:"count,omitempty"`
	NextAction   string         `json:"nextAction,omitempty"`
}

// Failed reports whether the response carries an error.
func (r Response) Failed() bool {
	return r.Error != ""
}

// Continue is the response when no action matched.
func Continue() Response {
	return Response{Type: TypeContinue}
}

func intPtr(n int) *int { return &n }
