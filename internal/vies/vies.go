// Package vies looks up EU VAT numbers in the European Commission VIES
// service.
package vies

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/open-kbs/ai-invoice/internal/model"
)

// DefaultBaseURL is the public VIES REST endpoint.
const DefaultBaseURL = "https://ec.europa.eu/taxation_customs/vies/rest-api"

var vatPrefix = regexp.MustCompile(`^[A-Za-z]{2}`)

// LooksLikeVAT reports whether id starts with a two-letter country prefix.
func LooksLikeVAT(id string) bool {
	return vatPrefix.MatchString(id)
}

// Split normalizes a VAT number and splits off its country code.
func Split(vat string) (country, number string) {
	clean := strings.ToUpper(strings.Join(strings.Fields(vat), ""))
	if len(clean) < 2 {
		return clean, ""
	}
	return clean[:2], clean[2:]
}

type response struct {
	IsValid         bool   `json:"isValid"`
	Name            string `json:"name"`
	Address         string `json:"address"`
	ViesApproximate struct {
		CompanyType string `json:"companyType"`
	} `json:"viesApproximate"`
}

// Client calls the VIES REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client. An empty baseURL uses DefaultBaseURL and a nil
// httpClient gets a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Lookup fetches the registered company behind a VAT number.
func (c *Client) Lookup(ctx context.Context, vat string) (*model.Party, error) {
	country, number := Split(vat)
	if number == "" {
		return nil, fmt.Errorf("invalid VAT number %q", vat)
	}

	endpoint := fmt.Sprintf("%s/ms/%s/vat/%s", c.baseURL, url.PathEscape(country), url.PathEscape(number))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building VIES request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling VIES: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("VIES returned %s for %s%s", resp.Status, country, number)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding VIES response: %w", err)
	}

	party := &model.Party{
		Name:            body.Name,
		TaxID:           number,
		VATNumber:       country + number,
		IsVATRegistered: body.IsValid,
		ID:              number,
		CompanyType:     body.ViesApproximate.CompanyType,
		Addresses:       []model.Address{},
	}
	if body.Address != "" {
		party.Addresses = append(party.Addresses, model.Address{Location: body.Address})
	}
	return party, nil
}

// Placeholder is the party used when a tax id cannot be looked up.
func Placeholder(name, taxID string) *model.Party {
	return &model.Party{
		Name:            name,
		TaxID:           taxID,
		VATNumber:       taxID,
		IsVATRegistered: true,
		ID:              taxID,
		Addresses:       []model.Address{},
	}
}
