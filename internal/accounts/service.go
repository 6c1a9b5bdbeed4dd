package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/store"
	"github.com/open-kbs/ai-invoice/internal/vault"
)

// ChartItemID is the fixed item id the chart is stored under.
const ChartItemID = "chartOfAccounts"

var (
	// ErrInvalidAccount is returned when a new account lacks a number or name.
	ErrInvalidAccount = errors.New("account number and name are required")
	// ErrParentNotFound is returned when the parent account does not exist.
	ErrParentNotFound = errors.New("parent account not found")
	// ErrDuplicateAccount is returned when the account number is already used.
	ErrDuplicateAccount = errors.New("account number already exists")
	// ErrInvalidCategory is returned when a new account names an unknown category.
	ErrInvalidCategory = errors.New("invalid account category")
	// ErrChartUnreadable is returned by writes when the stored chart exists
	// but cannot be fetched or decoded.
	ErrChartUnreadable = errors.New("chart of accounts unreadable")
)

// Service loads and saves the chart of accounts through the item store.
// The chart is one encrypted blob replaced wholesale on every save, so two
// concurrent read-modify-write cycles race and the last writer wins.
type Service struct {
	store  store.Store
	cipher vault.Cipher
	logger *zap.Logger
}

// NewService creates a chart Service.
func NewService(st store.Store, cipher vault.Cipher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, cipher: cipher, logger: logger}
}

// Chart returns the stored chart, creating and saving the default seed when
// none exists. A chart that cannot be read is logged and replaced by the
// default seed in the result.
func (s *Service) Chart(ctx context.Context) (model.ChartOfAccounts, error) {
	chart, found, err := s.load(ctx)
	if err != nil {
		s.logger.Error("reading chart of accounts", zap.Error(err))
		return DefaultChart(), nil
	}
	if !found {
		if err := s.create(ctx, chart); err != nil {
			s.logger.Error("saving default chart of accounts", zap.Error(err))
		}
	}
	return chart, nil
}

// load reads the stored chart. found is false, with the default seed as
// chart, when nothing is stored yet.
func (s *Service) load(ctx context.Context) (chart model.ChartOfAccounts, found bool, err error) {
	items, err := s.store.FetchItems(ctx, store.TypeChartOfAccounts, 1)
	if err != nil {
		return model.ChartOfAccounts{}, false, fmt.Errorf("%w: fetching: %w", ErrChartUnreadable, err)
	}
	if len(items) == 0 {
		return DefaultChart(), false, nil
	}
	chart, err = s.decode(items[0].Body)
	if err != nil {
		return model.ChartOfAccounts{}, false, fmt.Errorf("%w: item %s: %w", ErrChartUnreadable, items[0].ID, err)
	}
	return chart, true, nil
}

// Save replaces the stored chart (delete, then create).
func (s *Service) Save(ctx context.Context, chart model.ChartOfAccounts) error {
	if err := s.store.DeleteItem(ctx, store.TypeChartOfAccounts, ChartItemID); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("could not delete old chart, will try to create new", zap.Error(err))
	}
	if err := s.create(ctx, chart); err != nil {
		return err
	}
	s.logger.Info("chart of accounts saved", zap.Int("accounts", chart.Count()))
	return nil
}

// AddAccountParams holds parameters for adding an account.
type AddAccountParams struct {
	ParentNumber string         `json:"parentNumber,omitempty"`
	Number       string         `json:"number"`
	Name         string         `json:"name"`
	Category     model.Category `json:"category,omitempty"`
}

// AddAccount validates params, inserts the account into the current chart
// and saves it. Category defaults to Expenses. A stored chart that cannot be
// read is never overwritten.
func (s *Service) AddAccount(ctx context.Context, params AddAccountParams) (model.Account, error) {
	if params.Number == "" || params.Name == "" {
		return model.Account{}, ErrInvalidAccount
	}
	if params.Category != "" && !params.Category.Valid() {
		return model.Account{}, fmt.Errorf("category %q: %w", params.Category, ErrInvalidCategory)
	}

	chart, _, err := s.load(ctx)
	if err != nil {
		return model.Account{}, err
	}

	if _, exists := FindAccount(chart.Accounts, params.Number); exists {
		return model.Account{}, fmt.Errorf("account %s: %w", params.Number, ErrDuplicateAccount)
	}

	category := params.Category
	if category == "" {
		category = model.CategoryExpenses
	}
	acct := model.Account{
		Number:      params.Number,
		Name:        params.Name,
		Category:    category,
		SubAccounts: []model.Account{},
	}

	updated, ok := AddAccount(chart, params.ParentNumber, acct)
	if !ok {
		return model.Account{}, fmt.Errorf("parent account %s: %w", params.ParentNumber, ErrParentNotFound)
	}

	if err := s.Save(ctx, updated); err != nil {
		return model.Account{}, fmt.Errorf("saving chart of accounts: %w", err)
	}
	return acct, nil
}

func (s *Service) create(ctx context.Context, chart model.ChartOfAccounts) error {
	data, err := json.Marshal(chart)
	if err != nil {
		return fmt.Errorf("marshaling chart: %w", err)
	}
	blob, err := s.cipher.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypting chart: %w", err)
	}
	if _, err := s.store.CreateItem(ctx, store.TypeChartOfAccounts, ChartItemID, blob); err != nil {
		return fmt.Errorf("creating chart item: %w", err)
	}
	return nil
}

func (s *Service) decode(blob string) (model.ChartOfAccounts, error) {
	plain, err := s.cipher.Decrypt(blob)
	if err != nil {
		return model.ChartOfAccounts{}, err
	}
	var chart model.ChartOfAccounts
	if err := json.Unmarshal(plain, &chart); err != nil {
		return model.ChartOfAccounts{}, fmt.Errorf("parsing chart: %w", err)
	}
	return chart, nil
}
