package sqldb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ledgerbot/internal/domain"
)

// newTestStore opens an in-memory sqlite database with the real schema
// applied. One connection only: each sqlite :memory: connection is its
// own database.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "sqlite3", "0001_init.up.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return New(db)
}

func TestSQLCreateObjectDuplicateAddress(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateObject(ctx, domain.Object{Address: "Lenina 5", Name: "Shop"}))
	err := s.CreateObject(ctx, domain.Object{Address: "Lenina 5", Name: "Other"})
	require.ErrorIs(t, err, domain.ErrDuplicateKey)

	objects, err := s.ListObjects(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, "Shop", objects[0].Name, "failed commit must leave existing data untouched")
}

func TestSQLTotalsExactOverManyCommits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateObject(ctx, domain.Object{Address: "Lenina 5", Name: "Shop"}))

	salarySum := decimal.Zero
	for i := 1; i <= 50; i++ {
		amount := decimal.RequireFromString(fmt.Sprintf("%d.1%d", i, i%10))
		require.NoError(t, s.AddSalaryEntry(ctx, domain.SalaryEntry{
			ObjectAddress: "Lenina 5",
			ObjectName:    "Shop",
			Amount:        amount,
		}))
		salarySum = salarySum.Add(amount)
	}
	require.NoError(t, s.AddMaterialEntry(ctx, domain.MaterialEntry{
		ObjectAddress: "Lenina 5",
		ObjectName:    "Shop",
		MaterialName:  "Cement",
		Cost:          decimal.RequireFromString("99.99"),
	}))

	objects, err := s.ListObjects(ctx)
	require.NoError(t, err)
	require.True(t, objects[0].SalaryTotal.Equal(salarySum),
		"salary total %s must equal the exact sum %s after repeated load/save cycles",
		objects[0].SalaryTotal, salarySum)
	require.True(t, objects[0].MaterialsTotal.Equal(decimal.RequireFromString("99.99")))

	entries, err := s.ListSalaryEntries(ctx, "Lenina 5", "Shop")
	require.NoError(t, err)
	require.Len(t, entries, 50)
}

func TestSQLEntryAgainstMissingObjectWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateObject(ctx, domain.Object{Address: "Lenina 5", Name: "Shop"}))

	err := s.AddSalaryEntry(ctx, domain.SalaryEntry{
		ObjectAddress: "Nowhere 1", ObjectName: "X", Amount: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, domain.ErrNotFound)
	err = s.AddMaterialEntry(ctx, domain.MaterialEntry{
		ObjectAddress: "Nowhere 1", ObjectName: "X", Cost: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, domain.ErrNotFound)

	// The rolled-back transaction leaves no orphan entry rows and no
	// total drift on the unrelated object.
	entries, err := s.ListSalaryEntries(ctx, "Nowhere 1", "X")
	require.NoError(t, err)
	require.Empty(t, entries)
	objects, err := s.ListObjects(ctx)
	require.NoError(t, err)
	require.True(t, objects[0].SalaryTotal.IsZero())
}

func TestSQLFilterUniquePerChat(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	install := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateFilter(ctx, domain.Filter{ChatID: 1, Name: "Air", InstallDate: install, LifetimeDays: 90}))
	require.ErrorIs(t, s.CreateFilter(ctx, domain.Filter{ChatID: 1, Name: "Air", InstallDate: install, LifetimeDays: 30}), domain.ErrDuplicateKey)
	require.NoError(t, s.CreateFilter(ctx, domain.Filter{ChatID: 2, Name: "Air", InstallDate: install, LifetimeDays: 30}),
		"the same name in another chat is allowed")

	filters, err := s.ListFilters(ctx, 1)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	require.True(t, filters[0].ExpiryDate().Equal(time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, s.MarkFilterReminded(ctx, 1, "Air"))
	filters, err = s.ListFilters(ctx, 1)
	require.NoError(t, err)
	require.True(t, filters[0].Reminded)

	chats, err := s.ListFilterChats(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, chats)

	require.NoError(t, s.DeleteFilter(ctx, 1, "Air"))
	require.ErrorIs(t, s.DeleteFilter(ctx, 1, "Air"), domain.ErrNotFound)
}

func TestSQLDeleteTransactionExactlyOne(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, category := range []string{"food", "rent", "fuel"} {
		require.NoError(t, s.AddTransaction(ctx, domain.Transaction{
			ChatID:   7,
			Category: category,
			Amount:   decimal.NewFromInt(100),
			Type:     domain.Expense,
		}))
	}
	txs, err := s.ListTransactions(ctx, 7)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for _, tx := range txs {
		require.NotEmpty(t, tx.ID, "ids are generated when absent")
	}

	require.NoError(t, s.DeleteTransaction(ctx, 7, txs[1].ID))
	remaining, err := s.ListTransactions(ctx, 7)
	require.NoError(t, err)
	require.Len(t, remaining, 2)

	require.ErrorIs(t, s.DeleteTransaction(ctx, 7, "missing"), domain.ErrNotFound)
}
