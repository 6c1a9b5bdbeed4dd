package actions

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/vies"
)

// CompanyDetails is the data of a COMPANY_DETAILS response.
type CompanyDetails struct {
	YourCompany     *model.Party          `json:"YourCompany"`
	OtherCompany    *model.Party          `json:"OtherCompany"`
	ChartOfAccounts model.ChartOfAccounts `json:"ChartOfAccounts"`
}

func (d *Dispatcher) companyDetails(ctx context.Context, match []string) Response {
	ours := strings.TrimSpace(match[1])
	theirs := strings.TrimSpace(match[2])
	if ours == "" || theirs == "" {
		return Response{
			Type:  TypeCompanyDetailsFailed,
			Error: "Both YOUR_COMPANY Tax ID and other company Tax ID are required",
		}
	}

	chart, err := d.chart.Chart(ctx)
	if err != nil {
		return Response{Type: TypeCompanyDetailsFailed, Error: err.Error()}
	}

	return Response{
		Type: TypeCompanyDetails,
		Data: CompanyDetails{
			YourCompany:     d.resolveCompany(ctx, ours, "Your Company"),
			OtherCompany:    d.resolveCompany(ctx, theirs, "Other Company"),
			ChartOfAccounts: chart,
		},
	}
}

// resolveCompany asks VIES about ids with a country prefix and falls back to
// a placeholder party for everything else.
func (d *Dispatcher) resolveCompany(ctx context.Context, taxID, placeholder string) *model.Party {
	if d.companies == nil || !vies.LooksLikeVAT(taxID) {
		return vies.Placeholder(placeholder, taxID)
	}
	party, err := d.companies.Lookup(ctx, taxID)
	if err != nil {
		d.logger.Warn("company lookup failed", zap.String("tax_id", taxID), zap.Error(err))
		return vies.Placeholder(placeholder, taxID)
	}
	return party
}
