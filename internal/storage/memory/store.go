// Package memory implements the record repository with in-process maps.
// It mirrors the dictionary-backed storage the bot started with and
// backs the engine tests; one mutex serializes all mutations.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/ledgerbot/internal/domain"
	"github.com/m3rciful/ledgerbot/internal/storage"
)

type filterKey struct {
	chatID int64
	name   string
}

// Store keeps all records in memory.
type Store struct {
	mu        sync.Mutex
	objects   []domain.Object
	salaries  []domain.SalaryEntry
	materials []domain.MaterialEntry
	filters   map[filterKey]domain.Filter
	txs       []domain.Transaction
	now       func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		filters: make(map[filterKey]domain.Filter),
		now:     time.Now,
	}
}

// ListObjects returns a copy of all objects, oldest first.
func (s *Store) ListObjects(ctx context.Context) ([]domain.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Object, len(s.objects))
	copy(out, s.objects)
	return out, nil
}

// CreateObject appends a new object, rejecting duplicate addresses.
func (s *Store) CreateObject(ctx context.Context, o domain.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.objects {
		if existing.Address == o.Address {
			return domain.ErrDuplicateKey
		}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	s.objects = append(s.objects, o)
	return nil
}

func (s *Store) findObject(address, name string) int {
	for i, o := range s.objects {
		if o.Address == address && o.Name == name {
			return i
		}
	}
	return -1
}

// AddSalaryEntry appends the entry and bumps the parent salary total.
func (s *Store) AddSalaryEntry(ctx context.Context, e domain.SalaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findObject(e.ObjectAddress, e.ObjectName)
	if i < 0 {
		return domain.ErrNotFound
	}
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	s.salaries = append(s.salaries, e)
	s.objects[i].SalaryTotal = s.objects[i].SalaryTotal.Add(e.Amount)
	return nil
}

// AddMaterialEntry appends the entry and bumps the parent materials total.
func (s *Store) AddMaterialEntry(ctx context.Context, e domain.MaterialEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findObject(e.ObjectAddress, e.ObjectName)
	if i < 0 {
		return domain.ErrNotFound
	}
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	s.materials = append(s.materials, e)
	s.objects[i].MaterialsTotal = s.objects[i].MaterialsTotal.Add(e.Cost)
	return nil
}

// ListSalaryEntries returns entries for one object, in commit order.
func (s *Store) ListSalaryEntries(ctx context.Context, address, name string) ([]domain.SalaryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SalaryEntry
	for _, e := range s.salaries {
		if e.ObjectAddress == address && e.ObjectName == name {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListMaterialEntries returns entries for one object, in commit order.
func (s *Store) ListMaterialEntries(ctx context.Context, address, name string) ([]domain.MaterialEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MaterialEntry
	for _, e := range s.materials {
		if e.ObjectAddress == address && e.ObjectName == name {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateFilter appends a filter, rejecting duplicate names per chat.
func (s *Store) CreateFilter(ctx context.Context, f domain.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := filterKey{chatID: f.ChatID, name: f.Name}
	if _, exists := s.filters[key]; exists {
		return domain.ErrDuplicateKey
	}
	s.filters[key] = f
	return nil
}

// ListFilters returns the chat's filters sorted by name.
func (s *Store) ListFilters(ctx context.Context, chatID int64) ([]domain.Filter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Filter
	for key, f := range s.filters {
		if key.chatID == chatID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListFilterChats returns the distinct chats with at least one filter.
func (s *Store) ListFilterChats(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int64]struct{})
	var out []int64
	for key := range s.filters {
		if _, ok := seen[key.chatID]; ok {
			continue
		}
		seen[key.chatID] = struct{}{}
		out = append(out, key.chatID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// MarkFilterReminded flags the filter as already reminded.
func (s *Store) MarkFilterReminded(ctx context.Context, chatID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := filterKey{chatID: chatID, name: name}
	f, ok := s.filters[key]
	if !ok {
		return domain.ErrNotFound
	}
	f.Reminded = true
	s.filters[key] = f
	return nil
}

// DeleteFilter removes one filter by its per-chat name.
func (s *Store) DeleteFilter(ctx context.Context, chatID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := filterKey{chatID: chatID, name: name}
	if _, ok := s.filters[key]; !ok {
		return domain.ErrNotFound
	}
	delete(s.filters, key)
	return nil
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
	s.txs = append(s.txs, t)
	return nil
}

// ListTransactions returns the chat's transactions in commit order.
func (s *Store) ListTransactions(ctx context.Context, chatID int64) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transaction
	for _, t := range s.txs {
		if t.ChatID == chatID {
			out = append(out, t)
		}
	}
	return out, nil
}

// DeleteTransaction removes exactly one transaction by id.
func (s *Store) DeleteTransaction(ctx context.Context, chatID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.txs {
		if t.ChatID == chatID && t.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
