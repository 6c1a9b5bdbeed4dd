package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/open-kbs/ai-invoice/internal/model"
)

// Aging bucket labels.
const (
	AgingCurrent = "Current"
	Aging31To60  = "31-60 days"
	Aging61To90  = "61-90 days"
	AgingOver90  = "Over 90 days"
)

// UnknownParty groups documents without a counterparty name.
const UnknownParty = "Unknown"

// OpenDocument is one document owed by or to a counterparty. DaysOld is nil
// when the document date cannot be read; such documents age as Over 90 days.
type OpenDocument struct {
	DocumentID string       `json:"documentId"`
	Number     string       `json:"number"`
	Date       string       `json:"date"`
	Amount     model.Amount `json:"amount"`
	DaysOld    *int         `json:"daysOld"`
	Aging      string       `json:"aging"`
}

// Counterparty is a supplier (payables) or a customer (receivables).
type Counterparty struct {
	Name        string         `json:"name"`
	TaxID       string         `json:"taxId,omitempty"`
	TotalAmount model.Amount   `json:"totalAmount"`
	Documents   []OpenDocument `json:"documents"`
}

// AgingSummary sums document amounts per aging bucket.
type AgingSummary struct {
	Current    model.Amount `json:"current"`
	Days30To60 model.Amount `json:"days30_60"`
	Days60To90 model.Amount `json:"days60_90"`
	Over90     model.Amount `json:"over90"`
}

// AgingSummaries holds one summary per side.
type AgingSummaries struct {
	Payables    AgingSummary `json:"payables"`
	Receivables AgingSummary `json:"receivables"`
}

// AccountsReport is the payables and receivables aging report.
type AccountsReport struct {
	Payables        []Counterparty `json:"payables"`
	Receivables     []Counterparty `json:"receivables"`
	TotalPayable    model.Amount   `json:"totalPayable"`
	TotalReceivable model.Amount   `json:"totalReceivable"`
	NetPosition     model.Amount   `json:"netPosition"`
	AgingSummary    AgingSummaries `json:"agingSummary"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}

// EmptyAccountsReport is the aging report of an empty document set.
func EmptyAccountsReport(now time.Time) AccountsReport {
	return AccountsReport{
		Payables:    []Counterparty{},
		Receivables: []Counterparty{},
		GeneratedAt: now,
	}
}

const secondsPerDay = 24 * 60 * 60

// DaysOld returns whole days between date and now, rounded down.
func DaysOld(date string, now time.Time) (int, bool) {
	t, ok := model.ParseDate(date)
	if !ok {
		return 0, false
	}
	// Unix seconds span any parseable year; time.Duration stops near 292 years.
	secs := now.Unix() - t.Unix()
	days := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		days--
	}
	return int(days), true
}

// AgingBucket maps an age in days to its bucket label.
func AgingBucket(days int) string {
	switch {
	case days <= 30:
		return AgingCurrent
	case days <= 60:
		return Aging31To60
	case days <= 90:
		return Aging61To90
	default:
		return AgingOver90
	}
}

// partyBook accumulates counterparties in first-seen order.
type partyBook struct {
	index   map[string]int
	parties []Counterparty
}

func newPartyBook() *partyBook {
	return &partyBook{index: make(map[string]int), parties: []Counterparty{}}
}

func (b *partyBook) add(party *model.Party, rec OpenDocument) {
	name := UnknownParty
	var taxID string
	if party != nil {
		if party.Name != "" {
			name = party.Name
		}
		taxID = party.TaxID
	}
	i, ok := b.index[name]
	if !ok {
		i = len(b.parties)
		b.index[name] = i
		b.parties = append(b.parties, Counterparty{Name: name, TaxID: taxID})
	}
	p := &b.parties[i]
	p.TotalAmount = model.AmountOf(p.TotalAmount.Add(rec.Amount.Decimal))
	p.Documents = append(p.Documents, rec)
}

func (b *partyBook) total() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range b.parties {
		sum = sum.Add(p.TotalAmount.Decimal)
	}
	return sum
}

func (b *partyBook) summary() AgingSummary {
	buckets := map[string]decimal.Decimal{}
	for _, p := range b.parties {
		for _, d := range p.Documents {
			buckets[d.Aging] = buckets[d.Aging].Add(d.Amount.Decimal)
		}
	}
	return AgingSummary{
		Current:    model.AmountOf(buckets[AgingCurrent]),
		Days30To60: model.AmountOf(buckets[Aging31To60]),
		Days60To90: model.AmountOf(buckets[Aging61To90]),
		Over90:     model.AmountOf(buckets[AgingOver90]),
	}
}

// BuildAccountsReport groups documents posting to the payable account by
// sender and documents posting to the receivable account by recipient. A
// document with both lines appears on both sides.
func BuildAccountsReport(docs []model.Document, controls ControlAccounts, now time.Time) AccountsReport {
	r := EmptyAccountsReport(now)
	if len(docs) == 0 {
		return r
	}

	payables := newPartyBook()
	receivables := newPartyBook()
	for _, doc := range docs {
		hasPayable, hasReceivable := scan(doc, controls.Payable, controls.Receivable)
		if !hasPayable && !hasReceivable {
			continue
		}

		rec := OpenDocument{
			DocumentID: doc.DocumentID,
			Number:     doc.Number,
			Date:       doc.Date,
			Amount:     doc.TotalAmount,
			Aging:      AgingOver90,
		}
		if days, ok := DaysOld(doc.Date, now); ok {
			rec.DaysOld = &days
			rec.Aging = AgingBucket(days)
		}

		if hasPayable {
			payables.add(doc.CompanySender, rec)
		}
		if hasReceivable {
			receivables.add(doc.CompanyRecipient, rec)
		}
	}

	r.Payables = payables.parties
	r.Receivables = receivables.parties
	payable, receivable := payables.total(), receivables.total()
	r.TotalPayable = model.AmountOf(payable)
	r.TotalReceivable = model.AmountOf(receivable)
	r.NetPosition = model.AmountOf(receivable.Sub(payable))
	r.AgingSummary = AgingSummaries{Payables: payables.summary(), Receivables: receivables.summary()}
	return r
}
