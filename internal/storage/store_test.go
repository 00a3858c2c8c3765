package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"budgenet/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(Options{Path: filepath.Join(t.TempDir(), "data", "budgenet.db")})
	t.Cleanup(func() { s.Close() })
	return s
}

func expense(categoryID int64, amount string, date core.Date, desc string) core.Transaction {
	return core.Transaction{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		CategoryID:  categoryID,
		Description: desc,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Open(ctx))
	first := s.handle()
	require.NoError(t, s.Open(ctx))
	assert.Same(t, first, s.handle(), "second open must reuse the handle")

	version, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
}

func TestConcurrentOpenSharesOneHandle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Open(ctx)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.NotNil(t, s.handle())
}

func TestOpenFailureIsStorageUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := New(Options{Path: filepath.Join(blocker, "budgenet.db")})
	err := s.Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStorageUnavailable))

	_, err = s.Categories().GetAll(context.Background())
	assert.True(t, errors.Is(err, core.ErrStorageUnavailable))
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	date, err := core.ParseDate("2024-03-31T23:30:00-04:00")
	require.NoError(t, err)
	tx := expense(-1, "12.345", date, "Supermercado")
	tx.CategoryName = "Comida"

	id, err := s.Transactions().Add(ctx, tx)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, ok, err := s.Transactions().Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, core.Expense, got.Type)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.345")))
	assert.True(t, got.Date.Equal(date.Time))
	assert.Equal(t, core.Period{Month: 3, Year: 2024}, got.Date.Period())
	assert.Equal(t, "Comida", got.CategoryName)
	assert.Equal(t, "Supermercado", got.Description)
	assert.False(t, got.IsEdited)

	_, ok, err = s.Transactions().Get(ctx, id+100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCategoryNameUniqueIgnoresCase(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Categories().Add(ctx, core.Category{Name: "Mascotas"})
	require.NoError(t, err)

	_, err = s.Categories().Add(ctx, core.Category{Name: "mascotas"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConstraint))
	var ce *ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "categories", ce.Collection)

	found, err := s.Categories().FindByIndex(ctx, IndexName, "MASCOTAS")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Mascotas", found[0].Name)
}

func TestPutWithFixedIDsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 2; i++ {
		for _, c := range core.PredefinedCategories {
			_, err := s.Categories().Put(ctx, c)
			require.NoError(t, err)
		}
	}

	all, err := s.Categories().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, int64(-6), all[0].ID)
	assert.True(t, all[0].IsDefault)

	id, err := s.Categories().Add(ctx, core.Category{Name: "Mascotas"})
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestUpdateRequiresID(t *testing.T) {
	s := newTestStore(t)
	err := s.Budgets().Update(context.Background(), core.Budget{Month: 1, Year: 2024, CategoryID: -1, Amount: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, ErrMissingID))
}

func TestDeleteAllByIndex(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	txs := s.Transactions()

	for i := 1; i <= 3; i++ {
		_, err := txs.Add(ctx, expense(7, "10", core.NewDate(2024, 5, i), ""))
		require.NoError(t, err)
	}
	_, err := txs.Add(ctx, expense(8, "5", core.NewDate(2024, 5, 4), ""))
	require.NoError(t, err)

	n, err := txs.CountByIndex(ctx, IndexCategoryID, int64(7))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	deleted, err := txs.DeleteAllByIndex(ctx, IndexCategoryID, int64(7))
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	n, err = txs.CountByIndex(ctx, IndexCategoryID, int64(7))
	require.NoError(t, err)
	assert.Zero(t, n)

	deleted, err = txs.DeleteAllByIndex(ctx, IndexCategoryID, int64(7))
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = txs.DeleteAllByIndex(ctx, IndexTypeCategoryID, []any{core.Expense, int64(8)})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = txs.DeleteAllByIndex(ctx, "nope", 1)
	assert.True(t, errors.Is(err, ErrUnknownIndex))

	_, err = txs.DeleteAllByIndex(ctx, IndexTypeCategoryID, int64(8))
	assert.Error(t, err, "composite index needs one value per column")
}

func TestDeleteAllByIndexLeavesNothingOnFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var ids []int64
	for i := 1; i <= 3; i++ {
		id, err := s.Budgets().Add(ctx, core.Budget{Month: i, Year: 2024, CategoryID: 7, Amount: decimal.NewFromInt(100)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	db, err := s.conn(ctx)
	require.NoError(t, err)
	// The last match fails after the earlier ones were already deleted.
	_, err = db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TRIGGER block_delete BEFORE DELETE ON budgets WHEN old.id = %d BEGIN SELECT RAISE(ABORT, 'blocked'); END",
		ids[2]))
	require.NoError(t, err)

	_, err = s.Budgets().DeleteAllByIndex(ctx, IndexCategoryID, int64(7))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")

	n, err := s.Budgets().CountByIndex(ctx, IndexCategoryID, int64(7))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, id := range ids {
		_, ok, err := s.Budgets().Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, "budget %d survives the failed delete", id)
	}
}

func TestBudgetsByPeriod(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Budgets().Add(ctx, core.Budget{Month: 5, Year: 2024, CategoryID: -1, Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	_, err = s.Budgets().Add(ctx, core.Budget{Month: 5, Year: 2023, CategoryID: -1, Amount: decimal.NewFromInt(400)})
	require.NoError(t, err)

	got, err := s.Budgets().FindByIndex(ctx, IndexPeriod, []any{5, 2024})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(500)))
}

func TestCloseThenReopen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Categories().Add(ctx, core.Category{Name: "Mascotas"})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Nil(t, s.handle())

	got, ok, err := s.Categories().Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Mascotas", got.Name)
}

func TestQueryFiltersAndSortsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	txs := s.Transactions()

	seed := []core.Transaction{
		expense(-1, "10", core.NewDate(2024, 5, 1), "Pan"),
		expense(-2, "20", core.NewDate(2024, 5, 3), "Bus al centro"),
		{Type: core.Income, Amount: decimal.NewFromInt(1000), Date: core.NewDate(2024, 5, 2), CategoryID: -5, CategoryName: "Salario"},
	}
	for _, tx := range seed {
		_, err := txs.Add(ctx, tx)
		require.NoError(t, err)
	}

	all, err := txs.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Bus al centro", all[0].Description)

	got, err := txs.Query(ctx, Filter{Type: core.Expense})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = txs.Query(ctx, Filter{SearchTerm: "SALARIO"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.Income, got[0].Type)

	got, err = txs.Query(ctx, Filter{CategoryID: -1, SearchTerm: "bus"})
	require.NoError(t, err)
	assert.Empty(t, got)

	byDate, err := txs.FindByIndex(ctx, IndexDate, core.NewDate(2024, 5, 1))
	require.NoError(t, err)
	assert.Len(t, byDate, 1)
}
