// Package domain defines the record kinds the bot keeps and the shared
// error taxonomy for commit-time failures.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the only calendar-date format accepted from users.
const DateLayout = "02.01.2006"

// Object is a construction site identified by its address.
// Running totals are maintained transactionally by the repository
// whenever a salary or material entry referencing the object commits.
type Object struct {
	Address        string          `db:"address"`
	Name           string          `db:"name"`
	SalaryTotal    decimal.Decimal `db:"salary_total"`
	MaterialsTotal decimal.Decimal `db:"materials_total"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Label renders the menu label used to select this object in forms.
func (o Object) Label() string {
	return o.Address + " - " + o.Name
}

// Total returns the combined spend on the object.
func (o Object) Total() decimal.Decimal {
	return o.SalaryTotal.Add(o.MaterialsTotal)
}

// SalaryEntry records a salary payment against an object.
type SalaryEntry struct {
	ObjectAddress string          `db:"object_address"`
	ObjectName    string          `db:"object_name"`
	Amount        decimal.Decimal `db:"amount"`
	Date          time.Time       `db:"date"`
}

// MaterialEntry records a material purchase for an object.
type MaterialEntry struct {
	ObjectAddress string          `db:"object_address"`
	ObjectName    string          `db:"object_name"`
	MaterialName  string          `db:"material_name"`
	Cost          decimal.Decimal `db:"cost"`
	Date          time.Time       `db:"date"`
}

// Filter is a household filter tracked per chat; its name is unique
// within the chat.
type Filter struct {
	ChatID       int64     `db:"chat_id"`
	Name         string    `db:"name"`
	InstallDate  time.Time `db:"install_date"`
	LifetimeDays int       `db:"lifetime_days"`
	Reminded     bool      `db:"reminded"`
}

// ExpiryDate is the last day of the filter's service life. The install
// day counts as the first lifetime day, so a 90-day filter installed on
// 01.01.2024 expires on 30.03.2024.
func (f Filter) ExpiryDate() time.Time {
	if f.LifetimeDays <= 0 {
		return f.InstallDate
	}
	return f.InstallDate.AddDate(0, 0, f.LifetimeDays-1)
}

// TransactionType distinguishes income from expense records.
type TransactionType string

const (
	// Income marks money coming in.
	Income TransactionType = "income"
	// Expense marks money going out.
	Expense TransactionType = "expense"
)

// ParseTransactionType maps raw text to a TransactionType.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case Income:
		return Income, true
	case Expense:
		return Expense, true
	}
	return "", false
}

// Transaction is a generic income/expense record kept per chat.
type Transaction struct {
	ID       string          `db:"id"`
	ChatID   int64           `db:"chat_id"`
	Date     time.Time       `db:"date"`
	Category string          `db:"category"`
	Amount   decimal.Decimal `db:"amount"`
	Type     TransactionType `db:"type"`
}

// NewTransactionID generates a unique transaction identifier.
func NewTransactionID() string {
	return uuid.NewString()
}
