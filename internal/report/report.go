// Package report builds the per-object totals summary. It is a pure
// function over loaded objects; storage access and rendering stay with
// the caller.
package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/ledgerbot/internal/domain"
)

// Line is one object's row in the summary.
type Line struct {
	Label     string
	Salary    decimal.Decimal
	Materials decimal.Decimal
	Total     decimal.Decimal
}

// Summary is the full report: one line per object plus grand totals.
type Summary struct {
	Lines          []Line
	SalaryTotal    decimal.Decimal
	MaterialsTotal decimal.Decimal
	GrandTotal     decimal.Decimal
}

// Empty reports whether there were no objects to summarize.
func (s Summary) Empty() bool {
	return len(s.Lines) == 0
}

// Build computes per-object and grand totals. Object order is preserved.
func Build(objects []domain.Object) Summary {
	s := Summary{Lines: make([]Line, 0, len(objects))}
	for _, o := range objects {
		line := Line{
			Label:     o.Label(),
			Salary:    o.SalaryTotal,
			Materials: o.MaterialsTotal,
			Total:     o.Total(),
		}
		s.Lines = append(s.Lines, line)
		s.SalaryTotal = s.SalaryTotal.Add(line.Salary)
		s.MaterialsTotal = s.MaterialsTotal.Add(line.Materials)
		s.GrandTotal = s.GrandTotal.Add(line.Total)
	}
	return s
}

// Render formats the summary as a chat message. An empty summary renders
// a "no data" line instead of a zero report.
func Render(s Summary) string {
	if s.Empty() {
		return "No data yet. Create an object first."
	}
	var b strings.Builder
	b.WriteString("📊 Objects report\n")
	for _, l := range s.Lines {
		b.WriteString("\n")
		b.WriteString(l.Label)
		b.WriteString("\n  salary: ")
		b.WriteString(l.Salary.StringFixed(2))
		b.WriteString("\n  materials: ")
		b.WriteString(l.Materials.StringFixed(2))
		b.WriteString("\n  total: ")
		b.WriteString(l.Total.StringFixed(2))
		b.WriteString("\n")
	}
	b.WriteString("\nTotal salary: ")
	b.WriteString(s.SalaryTotal.StringFixed(2))
	b.WriteString("\nTotal materials: ")
	b.WriteString(s.MaterialsTotal.StringFixed(2))
	b.WriteString("\nGrand total: ")
	b.WriteString(s.GrandTotal.StringFixed(2))
	return b.String()
}
