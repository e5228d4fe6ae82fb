package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
	"smartpurse/backend/internal/xid"
)

// table keeps rows in insertion order, which is also created_at order.
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) put(id string, row T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) remove(id string) {
	if _, exists := t.rows[id]; !exists {
		return
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(v string) bool { return v == id })
}

func (t *table[T]) list(keep func(T) bool, newestFirst bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	if newestFirst {
		slices.Reverse(out)
	}
	return out
}

// Store is the in-memory repository. It enforces the same constraints as the
// SQL schema: unique sales.billno and sale_items.billno referencing sales with
// cascading delete and update.
type Store struct {
	mu         sync.RWMutex
	now        func() time.Time
	users      *table[domain.User]
	inventory  *table[domain.InventoryItem]
	categories *table[domain.Category]
	errorLogs  *table[domain.ErrorLog]
	settings   *table[domain.Setting]
	stores     *table[domain.Store]
	sales      *table[domain.Sale]
	saleItems  *table[domain.SaleItem]
	faults     *faults
}

func New() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		users:      newTable[domain.User](),
		inventory:  newTable[domain.InventoryItem](),
		categories: newTable[domain.Category](),
		errorLogs:  newTable[domain.ErrorLog](),
		settings:   newTable[domain.Setting](),
		stores:     newTable[domain.Store](),
		sales:      newTable[domain.Sale](),
		saleItems:  newTable[domain.SaleItem](),
		faults:     newFaults(),
	}
}

// NewSeeded returns a store holding one demo store for local development.
func NewSeeded() *Store {
	s := New()
	s.AddStore(domain.Store{
		ID:      "demo-store",
		Name:    "SmartPurse Demo",
		Address: "1 Market Street",
		Email:   "demo@smartpurse.local",
	})
	return s
}

// AddStore inserts a store row. Stores are read-only over the API.
func (s *Store) AddStore(st domain.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == "" {
		st.ID = xid.New()
	}
	st.CreatedAt = s.stamp()
	s.stores.put(st.ID, st)
}

// FailNext makes the next call of the named repository method return err.
func (s *Store) FailNext(op string, err error) {
	s.faults.set(op, err)
}

func (s *Store) stamp() *time.Time {
	now := s.now()
	return &now
}

func byStore[T any](storeID string, owner func(T) string) func(T) bool {
	if storeID == "" {
		return nil
	}
	return func(row T) bool { return owner(row) == storeID }
}

func notFound(table string, id string) error {
	return store.Mark(store.ErrNotFound, fmt.Errorf("%s row %s not found", table, id))
}

func (s *Store) ListUsers(_ context.Context, filter store.ListFilter) ([]domain.User, error) {
	if err := s.faults.take("ListUsers"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.list(byStore(filter.StoreID, func(u domain.User) string { return u.StoreID }), false), nil
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	if err := s.faults.take("GetUser"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users.get(id)
	if !ok {
		return nil, notFound("users", id)
	}
	return &user, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	if err := s.faults.take("CreateUser"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = xid.New()
	user.CreatedAt = s.stamp()
	s.users.put(user.ID, user)
	return &user, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, update domain.UserUpdateRequest) (*domain.User, error) {
	if err := s.faults.take("UpdateUser"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users.get(id)
	if !ok {
		return nil, notFound("users", id)
	}
	update.Apply(&user)
	s.users.put(id, user)
	return &user, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	if err := s.faults.take("DeleteUser"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users.remove(id)
	return nil
}

func (s *Store) ListInventory(_ context.Context, filter store.ListFilter) ([]domain.InventoryItem, error) {
	if err := s.faults.take("ListInventory"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inventory.list(byStore(filter.StoreID, func(i domain.InventoryItem) string { return i.StoreID }), false), nil
}

func (s *Store) GetInventoryItem(_ context.Context, id string) (*domain.InventoryItem, error) {
	if err := s.faults.take("GetInventoryItem"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.inventory.get(id)
	if !ok {
		return nil, notFound("inventory", id)
	}
	return &item, nil
}

func (s *Store) CreateInventoryItem(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	if err := s.faults.take("CreateInventoryItem"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = xid.New()
	item.CreatedAt = s.stamp()
	s.inventory.put(item.ID, item)
	return &item, nil
}

func (s *Store) UpdateInventoryItem(_ context.Context, id string, update domain.InventoryUpdate) (*domain.InventoryItem, error) {
	if err := s.faults.take("UpdateInventoryItem"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.inventory.get(id)
	if !ok {
		return nil, notFound("inventory", id)
	}
	update.Apply(&item)
	s.inventory.put(id, item)
	return &item, nil
}

func (s *Store) DeleteInventoryItem(_ context.Context, id string) error {
	if err := s.faults.take("DeleteInventoryItem"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inventory.remove(id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, filter store.ListFilter) ([]domain.Category, error) {
	if err := s.faults.take("ListCategories"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories.list(byStore(filter.StoreID, func(c domain.Category) string { return c.StoreID }), false), nil
}

func (s *Store) GetCategory(_ context.Context, id string) (*domain.Category, error) {
	if err := s.faults.take("GetCategory"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories.get(id)
	if !ok {
		return nil, notFound("categories", id)
	}
	return &category, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	if err := s.faults.take("CreateCategory"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	category.ID = xid.New()
	category.CreatedAt = s.stamp()
	s.categories.put(category.ID, category)
	return &category, nil
}

func (s *Store) UpdateCategory(_ context.Context, id string, label string) (*domain.Category, error) {
	if err := s.faults.take("UpdateCategory"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.categories.get(id)
	if !ok {
		return nil, notFound("categories", id)
	}
	category.Category = label
	s.categories.put(id, category)
	return &category, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	if err := s.faults.take("DeleteCategory"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories.remove(id)
	return nil
}

func (s *Store) ListErrorLogs(_ context.Context, filter store.ListFilter) ([]domain.ErrorLog, error) {
	if err := s.faults.take("ListErrorLogs"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorLogs.list(byStore(filter.StoreID, func(e domain.ErrorLog) string { return e.StoreID }), true), nil
}

func (s *Store) CreateErrorLog(_ context.Context, entry domain.ErrorLog) (*domain.ErrorLog, error) {
	if err := s.faults.take("CreateErrorLog"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = xid.New()
	entry.CreatedAt = s.stamp()
	s.errorLogs.put(entry.ID, entry)
	return &entry, nil
}

func (s *Store) ListSettings(_ context.Context, filter store.ListFilter) ([]domain.Setting, error) {
	if err := s.faults.take("ListSettings"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.list(byStore(filter.StoreID, func(st domain.Setting) string { return st.StoreID }), true), nil
}

func (s *Store) GetSetting(_ context.Context, id string) (*domain.Setting, error) {
	if err := s.faults.take("GetSetting"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	setting, ok := s.settings.get(id)
	if !ok {
		return nil, notFound("settings", id)
	}
	return &setting, nil
}

func (s *Store) CreateSetting(_ context.Context, setting domain.Setting) (*domain.Setting, error) {
	if err := s.faults.take("CreateSetting"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	setting.ID = xid.New()
	setting.CreatedAt = s.stamp()
	setting.UpdatedAt = setting.CreatedAt
	s.settings.put(setting.ID, setting)
	return &setting, nil
}

func (s *Store) UpdateSetting(_ context.Context, id string, update domain.SettingUpdate) (*domain.Setting, error) {
	if err := s.faults.take("UpdateSetting"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	setting, ok := s.settings.get(id)
	if !ok {
		return nil, notFound("settings", id)
	}
	update.Apply(&setting)
	if update.UpdatedAt == nil {
		setting.UpdatedAt = s.stamp()
	}
	s.settings.put(id, setting)
	return &setting, nil
}

func (s *Store) FindStores(_ context.Context, storeID string) ([]domain.Store, error) {
	if err := s.faults.take("FindStores"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stores.list(func(st domain.Store) bool { return st.ID == storeID }, false), nil
}
