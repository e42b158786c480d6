// Package storage declares the record repository contract. The
// persistence medium stays behind this interface; the form engine and
// report generator never touch a specific driver.
package storage

import (
	"context"

	"github.com/m3rciful/ledgerbot/internal/domain"
)

// Store is the repository used by forms, reports, and reminders.
//
// Append operations that reference a parent object update the parent's
// running totals in the same logical transaction: both succeed or
// neither does. Implementations serialize mutations so the
// read-modify-write of a total can never lose an update. Any driver
// failure is surfaced as *domain.StorageError.
type Store interface {
	// ListObjects returns all objects, oldest first.
	ListObjects(ctx context.Context) ([]domain.Object, error)
	// CreateObject appends a new object. A duplicate address fails with
	// domain.ErrDuplicateKey and leaves existing data untouched.
	CreateObject(ctx context.Context, o domain.Object) error

	// AddSalaryEntry appends the entry and bumps the referenced object's
	// salary total atomically. Missing parent: domain.ErrNotFound.
	AddSalaryEntry(ctx context.Context, e domain.SalaryEntry) error
	// AddMaterialEntry appends the entry and bumps the referenced
	// object's materials total atomically. Missing parent: domain.ErrNotFound.
	AddMaterialEntry(ctx context.Context, e domain.MaterialEntry) error
	ListSalaryEntries(ctx context.Context, address, name string) ([]domain.SalaryEntry, error)
	ListMaterialEntries(ctx context.Context, address, name string) ([]domain.MaterialEntry, error)

	// CreateFilter appends a filter. A duplicate name within the chat
	// fails with domain.ErrDuplicateKey.
	CreateFilter(ctx context.Context, f domain.Filter) error
	ListFilters(ctx context.Context, chatID int64) ([]domain.Filter, error)
	// ListFilterChats returns the distinct chat ids that have at least
	// one filter, so reminder jobs can be re-registered after a restart.
	ListFilterChats(ctx context.Context) ([]int64, error)
	// MarkFilterReminded flags the filter so the expiry reminder fires
	// exactly once.
	MarkFilterReminded(ctx context.Context, chatID int64, name string) error
	DeleteFilter(ctx context.Context, chatID int64, name string) error

	AddTransaction(ctx context.Context, t domain.Transaction) error
	ListTransactions(ctx context.Context, chatID int64) ([]domain.Transaction, error)
	// DeleteTransaction removes exactly the record with the given id, or
	// fails with domain.ErrNotFound; other records are untouched.
	DeleteTransaction(ctx context.Context, chatID int64, id string) error
}
