package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ledgerbot/internal/forms"
	"github.com/m3rciful/ledgerbot/internal/report"
	"github.com/m3rciful/ledgerbot/internal/storage/memory"
)

func drive(t *testing.T, e *forms.Engine, chatID int64, inputs ...string) forms.Directive {
	t.Helper()
	var d forms.Directive
	var err error
	for _, in := range inputs {
		d, err = e.Handle(context.Background(), chatID, in)
		require.NoError(t, err)
	}
	return d
}

func TestObjectThenSalaryShowsUpInReport(t *testing.T) {
	store := memory.New()
	engine := forms.NewEngine()
	require.NoError(t, registerForms(engine, store))
	ctx := context.Background()
	const chat = int64(42)

	_, err := engine.Start(ctx, chat, formObject)
	require.NoError(t, err)
	d := drive(t, engine, chat, "Lenina 5", "Shop", forms.ConfirmLabel)
	require.Equal(t, forms.Menu, d.Kind)

	first, err := engine.Start(ctx, chat, formSalary)
	require.NoError(t, err)
	require.Equal(t, forms.Prompt, first.Kind)
	assert.Contains(t, first.Choices, "Lenina 5 - Shop")

	d = drive(t, engine, chat, "Lenina 5 - Shop", "1500.50", "15.02.2024", forms.ConfirmLabel)
	require.Equal(t, forms.Menu, d.Kind)

	objects, err := store.ListObjects(ctx)
	require.NoError(t, err)
	out := report.Render(report.Build(objects))
	assert.Contains(t, out, "Lenina 5 - Shop")
	assert.Contains(t, out, "salary: 1500.50")
	assert.Contains(t, out, "materials: 0.00")
	assert.Contains(t, out, "total: 1500.50")
}

func TestDuplicateObjectAddressRejectedAtCommit(t *testing.T) {
	store := memory.New()
	engine := forms.NewEngine()
	require.NoError(t, registerForms(engine, store))
	ctx := context.Background()
	const chat = int64(42)

	_, err := engine.Start(ctx, chat, formObject)
	require.NoError(t, err)
	drive(t, engine, chat, "Lenina 5", "Shop", forms.ConfirmLabel)

	_, err = engine.Start(ctx, chat, formObject)
	require.NoError(t, err)
	d := drive(t, engine, chat, "Lenina 5", "Warehouse", forms.ConfirmLabel)
	require.Equal(t, forms.Menu, d.Kind)
	assert.Contains(t, d.Text, "already exists")

	objects, err := store.ListObjects(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "Shop", objects[0].Name)
}

func TestSalaryFormWithoutObjectsAborts(t *testing.T) {
	store := memory.New()
	engine := forms.NewEngine()
	require.NoError(t, registerForms(engine, store))

	d, err := engine.Start(context.Background(), 42, formSalary)
	require.NoError(t, err)
	assert.Equal(t, forms.Menu, d.Kind)
	assert.Contains(t, d.Text, "No objects yet")
	assert.False(t, engine.Active(42))
}

func TestTransactionFormCommits(t *testing.T) {
	store := memory.New()
	engine := forms.NewEngine()
	require.NoError(t, registerForms(engine, store))
	ctx := context.Background()
	const chat = int64(42)

	_, err := engine.Start(ctx, chat, formTransaction)
	require.NoError(t, err)
	d := drive(t, engine, chat, "Expense", "Fuel", "350,75", "01.03.2024", forms.ConfirmLabel)
	require.Equal(t, forms.Menu, d.Kind)

	txs, err := store.ListTransactions(ctx, chat)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Fuel", txs[0].Category)
	assert.Equal(t, "350.75", txs[0].Amount.StringFixed(2))
	assert.NotEmpty(t, txs[0].ID)
}
