package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/open-kbs/ai-invoice/internal/model"
)

// VAT classification labels.
const (
	VATInput   = "Input VAT"
	VATOutput  = "Output VAT"
	VATUnknown = "Unknown"
)

// VATDocument is one document carrying VAT.
type VATDocument struct {
	DocumentID  string       `json:"documentId"`
	Number      string       `json:"number"`
	Date        string       `json:"date"`
	Sender      string       `json:"sender"`
	Recipient   string       `json:"recipient"`
	TotalAmount model.Amount `json:"totalAmount"`
	VATAmount   model.Amount `json:"vatAmount"`
	Type        string       `json:"type"`
}

// VATSummary counts documents by classification.
type VATSummary struct {
	TotalDocuments  int `json:"totalDocuments"`
	InputDocuments  int `json:"inputDocuments"`
	OutputDocuments int `json:"outputDocuments"`
}

// VATReport sums input and output VAT over the document set.
type VATReport struct {
	InputVAT      model.Amount  `json:"inputVAT"`
	OutputVAT     model.Amount  `json:"outputVAT"`
	VATPayable    model.Amount  `json:"vatPayable"`
	VATRefundable model.Amount  `json:"vatRefundable"`
	Documents     []VATDocument `json:"documents"`
	Summary       VATSummary    `json:"summary"`
	GeneratedAt   time.Time     `json:"generatedAt"`
}

// EmptyVATReport is the VAT report of an empty document set.
func EmptyVATReport(now time.Time) VATReport {
	return VATReport{
		Documents:   []VATDocument{},
		GeneratedAt: now,
	}
}

// ClassifyVAT labels a document by its VAT lines. A document with a line on
// the input VAT account is Input VAT even when it also has an output VAT line.
func ClassifyVAT(doc model.Document, controls ControlAccounts) string {
	isInput, isOutput := scan(doc, controls.InputVAT, controls.OutputVAT)
	switch {
	case isInput:
		return VATInput
	case isOutput:
		return VATOutput
	default:
		return VATUnknown
	}
}

// BuildVATReport sums TotalVatAmount of every document with positive VAT into
// the input or output bucket. Unknown documents are listed but not summed.
func BuildVATReport(docs []model.Document, controls ControlAccounts, now time.Time) VATReport {
	r := EmptyVATReport(now)
	if len(docs) == 0 {
		return r
	}

	input, output := decimal.Zero, decimal.Zero
	for _, doc := range docs {
		vat := doc.TotalVatAmount.Decimal
		if !vat.IsPositive() {
			continue
		}
		label := ClassifyVAT(doc, controls)
		r.Documents = append(r.Documents, VATDocument{
			DocumentID:  doc.DocumentID,
			Number:      doc.Number,
			Date:        doc.Date,
			Sender:      doc.SenderName(),
			Recipient:   doc.RecipientName(),
			TotalAmount: doc.TotalAmount,
			VATAmount:   doc.TotalVatAmount,
			Type:        label,
		})

		switch label {
		case VATInput:
			input = input.Add(vat)
			r.Summary.InputDocuments++
		case VATOutput:
			output = output.Add(vat)
			r.Summary.OutputDocuments++
		}
	}
	r.Summary.TotalDocuments = len(r.Documents)

	sortByDateDesc(r.Documents)

	payable := output.Sub(input)
	r.InputVAT = model.AmountOf(input)
	r.OutputVAT = model.AmountOf(output)
	r.VATPayable = model.AmountOf(payable)
	if payable.IsNegative() {
		r.VATRefundable = model.AmountOf(payable.Neg())
	}
	return r
}

// sortByDateDesc puts newer documents first and documents without a
// readable date last, keeping input order among equals.
func sortByDateDesc(docs []VATDocument) {
	type keyed struct {
		t  time.Time
		ok bool
	}
	keys := make(map[string]keyed, len(docs))
	key := func(d VATDocument) keyed {
		k, seen := keys[d.Date]
		if !seen {
			t, ok := model.ParseDate(d.Date)
			k = keyed{t: t, ok: ok}
			keys[d.Date] = k
		}
		return k
	}
	sort.SliceStable(docs, func(i, j int) bool {
		ki, kj := key(docs[i]), key(docs[j])
		if ki.ok != kj.ok {
			return ki.ok
		}
		return ki.t.After(kj.t)
	})
}
