package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ledgerbot/internal/domain"
)

func TestCreateObjectDuplicateAddress(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateObject(ctx, domain.Object{Address: "Lenina 5", Name: "Shop"}))
	err := s.CreateObject(ctx, domain.Object{Address: "Lenina 5", Name: "Other"})
	require.ErrorIs(t, err, domain.ErrDuplicateKey)

	objects, err := s.ListObjects(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, "Shop", objects[0].Name, "failed commit must leave existing data untouched")
}

func TestSalaryTotalsExact(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateObject(ctx, domain.Object{Address: "Lenina 5", Name: "Shop"}))

	sum := decimal.Zero
	for i := 1; i <= 50; i++ {
		amount := decimal.RequireFromString(fmt.Sprintf("%d.1%d", i, i%10))
		require.NoError(t, s.AddSalaryEntry(ctx, domain.SalaryEntry{
			ObjectAddress: "Lenina 5",
			ObjectName:    "Shop",
			Amount:        amount,
		}))
		sum = sum.Add(amount)
	}

	objects, err := s.ListObjects(ctx)
	require.NoError(t, err)
	require.True(t, objects[0].SalaryTotal.Equal(sum),
		"salary total %s must equal the exact sum %s", objects[0].SalaryTotal, sum)

	entries, err := s.ListSalaryEntries(ctx, "Lenina 5", "Shop")
	require.NoError(t, err)
	require.Len(t, entries, 50)
}

func TestEntryAgainstMissingObject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	err := s.AddSalaryEntry(ctx, domain.SalaryEntry{ObjectAddress: "Nowhere 1", ObjectName: "X", Amount: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, domain.ErrNotFound)
	err = s.AddMaterialEntry(ctx, domain.MaterialEntry{ObjectAddress: "Nowhere 1", ObjectName: "X", Cost: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFilterUniquePerChat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	install := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateFilter(ctx, domain.Filter{ChatID: 1, Name: "Air", InstallDate: install, LifetimeDays: 90}))
	require.ErrorIs(t, s.CreateFilter(ctx, domain.Filter{ChatID: 1, Name: "Air", InstallDate: install, LifetimeDays: 30}), domain.ErrDuplicateKey)
	require.NoError(t, s.CreateFilter(ctx, domain.Filter{ChatID: 2, Name: "Air", InstallDate: install, LifetimeDays: 30}),
		"the same name in another chat is allowed")

	filters, err := s.ListFilters(ctx, 1)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	require.Equal(t, time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC), filters[0].ExpiryDate())

	require.NoError(t, s.MarkFilterReminded(ctx, 1, "Air"))
	filters, err = s.ListFilters(ctx, 1)
	require.NoError(t, err)
	require.True(t, filters[0].Reminded)

	chats, err := s.ListFilterChats(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, chats)
}

func TestDeleteTransactionExactlyOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

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
	require.Equal(t, txs[0].ID, remaining[0].ID)
	require.Equal(t, txs[2].ID, remaining[1].ID)

	require.ErrorIs(t, s.DeleteTransaction(ctx, 7, "missing"), domain.ErrNotFound)
}
