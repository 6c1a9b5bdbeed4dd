package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/store"
	"github.com/open-kbs/ai-invoice/internal/vault"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return NewService(st, vault.Plain{}, nil), st
}

func TestChartCreatesDefault(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	chart, err := svc.Chart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 18, chart.Count())

	items, err := st.FetchItems(ctx, store.TypeChartOfAccounts, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ChartItemID, items[0].ID)

	// A second call reads the stored chart instead of seeding again.
	again, err := svc.Chart(ctx)
	require.NoError(t, err)
	assert.Equal(t, chart, again)
	items, err = st.FetchItems(ctx, store.TypeChartOfAccounts, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestChartUnreadableFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	_, err := st.CreateItem(ctx, store.TypeChartOfAccounts, ChartItemID, "{not json")
	require.NoError(t, err)

	chart, err := svc.Chart(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultChart(), chart)
}

func TestServiceAddAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	acct, err := svc.AddAccount(ctx, AddAccountParams{ParentNumber: "5000", Number: "5010", Name: "Raw Materials"})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryExpenses, acct.Category)

	chart, err := svc.Chart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 19, chart.Count())

	parent, ok := FindAccount(chart.Accounts, "5000")
	require.True(t, ok)
	require.Len(t, parent.SubAccounts, 1)
	assert.Equal(t, "5010", parent.SubAccounts[0].Number)
}

func TestServiceAddAccountTopLevel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddAccount(ctx, AddAccountParams{Number: "6000", Name: "Depreciation", Category: model.CategoryExpenses})
	require.NoError(t, err)

	chart, err := svc.Chart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "6000", chart.Accounts[len(chart.Accounts)-1].Number)
}

func TestServiceAddAccountErrors(t *testing.T) {
	tests := []struct {
		name    string
		params  AddAccountParams
		wantErr error
	}{
		{"missing number", AddAccountParams{Name: "Nameless"}, ErrInvalidAccount},
		{"missing name", AddAccountParams{Number: "6100"}, ErrInvalidAccount},
		{"unknown parent", AddAccountParams{ParentNumber: "9999", Number: "9991", Name: "Orphan"}, ErrParentNotFound},
		{"duplicate number", AddAccountParams{Number: "1000", Name: "Cash again"}, ErrDuplicateAccount},
		{"singular category", AddAccountParams{Number: "6100", Name: "Fees", Category: "Expense"}, ErrInvalidCategory},
		{"lowercase category", AddAccountParams{Number: "6100", Name: "Fees", Category: "assets"}, ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newTestService(t)

			_, err := svc.AddAccount(ctx, tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			chart, err := svc.Chart(ctx)
			require.NoError(t, err)
			assert.Equal(t, DefaultChart(), chart)
		})
	}
}

func TestServiceEncryptsChart(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	cipher, err := vault.NewSecretBox("test-secret")
	require.NoError(t, err)
	svc := NewService(st, cipher, nil)

	_, err = svc.Chart(ctx)
	require.NoError(t, err)

	items, err := st.FetchItems(ctx, store.TypeChartOfAccounts, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotContains(t, items[0].Body, "Accounts Payable")

	// Another service with a different key cannot read it and falls back.
	other, err := vault.NewSecretBox("other-secret")
	require.NoError(t, err)
	chart, err := NewService(st, other, nil).Chart(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultChart(), chart)
}

func TestServiceAddAccountKeepsUnreadableChart(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	owner, err := vault.NewSecretBox("test-secret")
	require.NoError(t, err)
	_, err = NewService(st, owner, nil).AddAccount(ctx, AddAccountParams{Number: "6000", Name: "Depreciation"})
	require.NoError(t, err)

	before, err := st.FetchItems(ctx, store.TypeChartOfAccounts, 1)
	require.NoError(t, err)
	require.Len(t, before, 1)

	other, err := vault.NewSecretBox("other-secret")
	require.NoError(t, err)
	_, err = NewService(st, other, nil).AddAccount(ctx, AddAccountParams{Number: "6100", Name: "Fees"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChartUnreadable), "got %v", err)

	after, err := st.FetchItems(ctx, store.TypeChartOfAccounts, 1)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	chart, err := NewService(st, owner, nil).Chart(ctx)
	require.NoError(t, err)
	_, ok := FindAccount(chart.Accounts, "6000")
	assert.True(t, ok)
}

type failingFetchStore struct {
	store.Store
	created int
}

func (f *failingFetchStore) FetchItems(context.Context, string, int) ([]store.Item, error) {
	return nil, errors.New("connection reset")
}

func (f *failingFetchStore) CreateItem(ctx context.Context, itemType, id, body string) (store.Item, error) {
	f.created++
	return f.Store.CreateItem(ctx, itemType, id, body)
}

func TestServiceAddAccountFetchFailure(t *testing.T) {
	ctx := context.Background()
	st := &failingFetchStore{Store: store.NewMemory()}
	svc := NewService(st, vault.Plain{}, nil)

	// Reads still fall back to the seed.
	chart, err := svc.Chart(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultChart(), chart)

	_, err = svc.AddAccount(ctx, AddAccountParams{Number: "6000", Name: "Depreciation"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChartUnreadable), "got %v", err)
	assert.Zero(t, st.created)
}

// Concurrent read-modify-write cycles are not serialized: the second save
// replaces the first one wholesale.
func TestServiceAddAccountLastWriterWins(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	a := NewService(st, vault.Plain{}, nil)
	b := NewService(st, vault.Plain{}, nil)

	chartA, err := a.Chart(ctx)
	require.NoError(t, err)
	chartB, err := b.Chart(ctx)
	require.NoError(t, err)

	updatedA, ok := AddAccount(chartA, "5000", model.Account{Number: "5010", Name: "From A"})
	require.True(t, ok)
	require.NoError(t, a.Save(ctx, updatedA))

	updatedB, ok := AddAccount(chartB, "5000", model.Account{Number: "5020", Name: "From B"})
	require.True(t, ok)
	require.NoError(t, b.Save(ctx, updatedB))

	final, err := a.Chart(ctx)
	require.NoError(t, err)
	_, hasA := FindAccount(final.Accounts, "5010")
	_, hasB := FindAccount(final.Accounts, "5020")
	assert.False(t, hasA)
	assert.True(t, hasB)
}
