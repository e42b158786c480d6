// Package sqldb implements the record repository on sqlx. It works
// against postgres (lib/pq) and sqlite (mattn/go-sqlite3); queries use
// `?` bindvars rebound per driver.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ledgerbot/internal/domain"
	"github.com/m3rciful/ledgerbot/internal/storage"
)

// Store is the sql-backed repository.
//
// Totals are maintained with a read-modify-write inside one transaction.
// The mutex keeps a single mutation in flight per store, closing the
// lost-update window regardless of driver isolation level; decimal
// arithmetic happens in Go so sqlite's float affinity never touches an
// amount.
type Store struct {
	db  *sqlx.DB
	mu  sync.Mutex
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New wraps an open sqlx handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// ListObjects returns all objects, oldest first.
func (s *Store) ListObjects(ctx context.Context) ([]domain.Object, error) {
	var out []domain.Object
	q := s.db.Rebind(`SELECT address, name, salary_total, materials_total, created_at FROM objects ORDER BY created_at, address`)
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, domain.WrapStorage("objects.list", err)
	}
	return out, nil
}

// CreateObject appends a new object, rejecting duplicate addresses.
func (s *Store) CreateObject(ctx context.Context, o domain.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	q := s.db.Rebind(`INSERT INTO objects (address, name, salary_total, materials_total, created_at)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (address) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, q, o.Address, o.Name, o.SalaryTotal, o.MaterialsTotal, o.CreatedAt)
	if err != nil {
		return domain.WrapStorage("objects.create", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.WrapStorage("objects.create", err)
	}
	if n == 0 {
		return domain.ErrDuplicateKey
	}
	return nil
}

// AddSalaryEntry appends the entry and bumps the parent salary total in
// one transaction.
func (s *Store) AddSalaryEntry(ctx context.Context, e domain.SalaryEntry) error {
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	return s.appendEntry(ctx, "salary.add", e.ObjectAddress, e.ObjectName,
		func(tx *sqlx.Tx, parent *domain.Object) error {
			q := tx.Rebind(`INSERT INTO salary_entries (object_address, object_name, amount, "date") VALUES (?, ?, ?, ?)`)
			if _, err := tx.ExecContext(ctx, q, e.ObjectAddress, e.ObjectName, e.Amount, e.Date); err != nil {
				return err
			}
			parent.SalaryTotal = parent.SalaryTotal.Add(e.Amount)
			return nil
		})
}

// AddMaterialEntry appends the entry and bumps the parent materials
// total in one transaction.
func (s *Store) AddMaterialEntry(ctx context.Context, e domain.MaterialEntry) error {
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	return s.appendEntry(ctx, "materials.add", e.ObjectAddress, e.ObjectName,
		func(tx *sqlx.Tx, parent *domain.Object) error {
			q := tx.Rebind(`INSERT INTO material_entries (object_address, object_name, material_name, cost, "date") VALUES (?, ?, ?, ?, ?)`)
			if _, err := tx.ExecContext(ctx, q, e.ObjectAddress, e.ObjectName, e.MaterialName, e.Cost, e.Date); err != nil {
				return err
			}
			parent.MaterialsTotal = parent.MaterialsTotal.Add(e.Cost)
			return nil
		})
}

// appendEntry runs the append-and-mutate sequence: load the parent
// object, insert the child row, write the updated totals back, commit.
func (s *Store) appendEntry(ctx context.Context, op, address, name string, insert func(tx *sqlx.Tx, parent *domain.Object) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapStorage(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var parent domain.Object
	q := tx.Rebind(`SELECT address, name, salary_total, materials_total, created_at FROM objects WHERE address = ? AND name = ?`)
	if err := tx.GetContext(ctx, &parent, q, address, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return domain.WrapStorage(op, err)
	}

	if err := insert(tx, &parent); err != nil {
		return domain.WrapStorage(op, err)
	}

	q = tx.Rebind(`UPDATE objects SET salary_total = ?, materials_total = ? WHERE address = ?`)
	if _, err := tx.ExecContext(ctx, q, parent.SalaryTotal, parent.MaterialsTotal, parent.Address); err != nil {
		return domain.WrapStorage(op, err)
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapStorage(op, err)
	}
	return nil
}

// ListSalaryEntries returns one object's salary entries in commit order.
func (s *Store) ListSalaryEntries(ctx context.Context, address, name string) ([]domain.SalaryEntry, error) {
	var out []domain.SalaryEntry
	q := s.db.Rebind(`SELECT object_address, object_name, amount, "date" FROM salary_entries WHERE object_address = ? AND object_name = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &out, q, address, name); err != nil {
		return nil, domain.WrapStorage("salary.list", err)
	}
	return out, nil
}

// ListMaterialEntries returns one object's material entries in commit order.
func (s *Store) ListMaterialEntries(ctx context.Context, address, name string) ([]domain.MaterialEntry, error) {
	var out []domain.MaterialEntry
	q := s.db.Rebind(`SELECT object_address, object_name, material_name, cost, "date" FROM material_entries WHERE object_address = ? AND object_name = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &out, q, address, name); err != nil {
		return nil, domain.WrapStorage("materials.list", err)
	}
	return out, nil
}

// CreateFilter appends a filter, rejecting duplicate names per chat.
func (s *Store) CreateFilter(ctx context.Context, f domain.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.db.Rebind(`INSERT INTO filters (chat_id, name, install_date, lifetime_days, reminded)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (chat_id, name) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, q, f.ChatID, f.Name, f.InstallDate, f.LifetimeDays, f.Reminded)
	if err != nil {
		return domain.WrapStorage("filters.create", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.WrapStorage("filters.create", err)
	}
	if n == 0 {
		return domain.ErrDuplicateKey
	}
	return nil
}

// ListFilters returns the chat's filters sorted by name.
func (s *Store) ListFilters(ctx context.Context, chatID int64) ([]domain.Filter, error) {
	var out []domain.Filter
	q := s.db.Rebind(`SELECT chat_id, name, install_date, lifetime_days, reminded FROM filters WHERE chat_id = ? ORDER BY name`)
	if err := s.db.SelectContext(ctx, &out, q, chatID); err != nil {
		return nil, domain.WrapStorage("filters.list", err)
	}
	return out, nil
}

// ListFilterChats returns the distinct chats with at least one filter.
func (s *Store) ListFilterChats(ctx context.Context) ([]int64, error) {
	var out []int64
	q := s.db.Rebind(`SELECT DISTINCT chat_id FROM filters ORDER BY chat_id`)
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, domain.WrapStorage("filters.chats", err)
	}
	return out, nil
}

// MarkFilterReminded flags the filter as already reminded.
func (s *Store) MarkFilterReminded(ctx context.Context, chatID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.db.Rebind(`UPDATE filters SET reminded = ? WHERE chat_id = ? AND name = ?`)
	res, err := s.db.ExecContext(ctx, q, true, chatID, name)
	if err != nil {
		return domain.WrapStorage("filters.remind", err)
	}
	return affectedOne(res, "filters.remind")
}

// DeleteFilter removes one filter by its per-chat name.
func (s *Store) DeleteFilter(ctx context.Context, chatID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.db.Rebind(`DELETE FROM filters WHERE chat_id = ? AND name = ?`)
	res, err := s.db.ExecContext(ctx, q, chatID, name)
	if err != nil {
		return domain.WrapStorage("filters.delete", err)
	}
	return affectedOne(res, "filters.delete")
}

// AddTransaction appends a transaction, generating an id when absent.
func (s *Store) AddTransaction(ctx context.Context, t domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = domain.NewTransactionID()
	}
	if t.Date.IsZero() {
		t.Date = s.now()
	}
	q := s.db.Rebind(`INSERT INTO transactions (id, chat_id, "date", category, amount, type) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, t.ID, t.ChatID, t.Date, t.Category, t.Amount, string(t.Type)); err != nil {
		return domain.WrapStorage("transactions.add", err)
	}
	return nil
}

// ListTransactions returns the chat's transactions in commit order.
func (s *Store) ListTransactions(ctx context.Context, chatID int64) ([]domain.Transaction, error) {
	var out []domain.Transaction
	q := s.db.Rebind(`SELECT id, chat_id, "date", category, amount, type FROM transactions WHERE chat_id = ? ORDER BY "date", id`)
	if err := s.db.SelectContext(ctx, &out, q, chatID); err != nil {
		return nil, domain.WrapStorage("transactions.list", err)
	}
	return out, nil
}

// DeleteTransaction removes exactly one transaction by id.
func (s *Store) DeleteTransaction(ctx context.Context, chatID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.db.Rebind(`DELETE FROM transactions WHERE chat_id = ? AND id = ?`)
	res, err := s.db.ExecContext(ctx, q, chatID, id)
	if err != nil {
		return domain.WrapStorage("transactions.delete", err)
	}
	return affectedOne(res, "transactions.delete")
}

func affectedOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.WrapStorage(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
