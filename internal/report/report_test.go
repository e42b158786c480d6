package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/ledgerbot/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildTotals(t *testing.T) {
	s := Build([]domain.Object{
		{Address: "Lenina 5", Name: "Shop", SalaryTotal: dec("1500.50"), MaterialsTotal: dec("0")},
		{Address: "Mira 12", Name: "Warehouse", SalaryTotal: dec("200.25"), MaterialsTotal: dec("99.75")},
	})

	assert.Len(t, s.Lines, 2)
	assert.Equal(t, "Lenina 5 - Shop", s.Lines[0].Label)
	assert.Equal(t, "1500.50", s.Lines[0].Total.StringFixed(2))
	assert.Equal(t, "1700.75", s.SalaryTotal.StringFixed(2))
	assert.Equal(t, "99.75", s.MaterialsTotal.StringFixed(2))
	assert.Equal(t, "1800.50", s.GrandTotal.StringFixed(2))
}

func TestRenderShowsFixedDecimals(t *testing.T) {
	out := Render(Build([]domain.Object{
		{Address: "Lenina 5", Name: "Shop", SalaryTotal: dec("1500.5")},
	}))

	assert.Contains(t, out, "Lenina 5 - Shop")
	assert.Contains(t, out, "salary: 1500.50")
	assert.Contains(t, out, "materials: 0.00")
	assert.Contains(t, out, "Grand total: 1500.50")
}

func TestRenderEmpty(t *testing.T) {
	out := Render(Build(nil))
	assert.Contains(t, out, "No data")
	assert.NotContains(t, out, "0.00")
}
