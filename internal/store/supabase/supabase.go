// Package supabase implements the repository and identity provider on top of
// the Supabase REST client.
package supabase

import (
	"context"
	"fmt"
	"time"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
	sb "smartpurse/backend/internal/supabase"
)

const (
	tableUsers     = "users"
	tableInventory = "inventory"
	tableCategory  = "categories"
	tableErrors    = "errors"
	tableSettings  = "settings"
	tableStores    = "stores"
	tableSales     = "sales"
	tableSaleItems = "sale_items"
)

// Store does not implement store.SaleTransactor: every PostgREST call commits
// on its own, so sale writes fall back to compensation.
type Store struct {
	client *sb.Client
}

func New(client *sb.Client) *Store {
	return &Store{client: client}
}

// Ping confirms the REST endpoint and key are usable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.From(tableStores).Select("id").Limit(1).Execute(ctx)
	return err
}

func (s *Store) ListUsers(ctx context.Context, filter store.ListFilter) ([]domain.User, error) {
	return selectMany[domain.User](ctx, s.client.From(tableUsers).Select("*").EqIf("storeid", filter.StoreID))
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return selectOne[domain.User](ctx, s.client.From(tableUsers).Select("*").Eq("id", id))
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	user.ID = ""
	user.CreatedAt = nil
	return insertOne[domain.User](ctx, s.client.From(tableUsers), user)
}

func (s *Store) UpdateUser(ctx context.Context, id string, update domain.UserUpdateRequest) (*domain.User, error) {
	return updateOne[domain.User](ctx, s.client.From(tableUsers).Eq("id", id), update)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return deleteWhere(ctx, s.client.From(tableUsers).Eq("id", id))
}

func (s *Store) ListInventory(ctx context.Context, filter store.ListFilter) ([]domain.InventoryItem, error) {
	return selectMany[domain.InventoryItem](ctx, s.client.From(tableInventory).Select("*").
		EqIf("storeid", filter.StoreID).
		Order("created_at", true))
}

func (s *Store) GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return selectOne[domain.InventoryItem](ctx, s.client.From(tableInventory).Select("*").Eq("id", id))
}

func (s *Store) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.ID = ""
	item.CreatedAt = nil
	return insertOne[domain.InventoryItem](ctx, s.client.From(tableInventory), item)
}

func (s *Store) UpdateInventoryItem(ctx context.Context, id string, update domain.InventoryUpdate) (*domain.InventoryItem, error) {
	return updateOne[domain.InventoryItem](ctx, s.client.From(tableInventory).Eq("id", id), update)
}

func (s *Store) DeleteInventoryItem(ctx context.Context, id string) error {
	return deleteWhere(ctx, s.client.From(tableInventory).Eq("id", id))
}

func (s *Store) ListCategories(ctx context.Context, filter store.ListFilter) ([]domain.Category, error) {
	return selectMany[domain.Category](ctx, s.client.From(tableCategory).Select("*").
		EqIf("storeid", filter.StoreID).
		Order("created_at", true))
}

func (s *Store) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return selectOne[domain.Category](ctx, s.client.From(tableCategory).Select("*").Eq("id", id))
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	category.ID = ""
	category.CreatedAt = nil
	return insertOne[domain.Category](ctx, s.client.From(tableCategory), category)
}

func (s *Store) UpdateCategory(ctx context.Context, id string, label string) (*domain.Category, error) {
	return updateOne[domain.Category](ctx, s.client.From(tableCategory).Eq("id", id), map[string]string{"category": label})
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return deleteWhere(ctx, s.client.From(tableCategory).Eq("id", id))
}

func (s *Store) ListErrorLogs(ctx context.Context, filter store.ListFilter) ([]domain.ErrorLog, error) {
	return selectMany[domain.ErrorLog](ctx, s.client.From(tableErrors).Select("*").
		EqIf("storeid", filter.StoreID).
		Order("created_at", false))
}

func (s *Store) CreateErrorLog(ctx context.Context, entry domain.ErrorLog) (*domain.ErrorLog, error) {
	entry.ID = ""
	entry.CreatedAt = nil
	return insertOne[domain.ErrorLog](ctx, s.client.From(tableErrors), entry)
}

func (s *Store) ListSettings(ctx context.Context, filter store.ListFilter) ([]domain.Setting, error) {
	return selectMany[domain.Setting](ctx, s.client.From(tableSettings).Select("*").
		EqIf("storeid", filter.StoreID).
		Order("created_at", false))
}

func (s *Store) GetSetting(ctx context.Context, id string) (*domain.Setting, error) {
	return selectOne[domain.Setting](ctx, s.client.From(tableSettings).Select("*").Eq("id", id))
}

func (s *Store) CreateSetting(ctx context.Context, setting domain.Setting) (*domain.Setting, error) {
	setting.ID = ""
	setting.CreatedAt = nil
	setting.UpdatedAt = nil
	return insertOne[domain.Setting](ctx, s.client.From(tableSettings), setting)
}

func (s *Store) UpdateSetting(ctx context.Context, id string, update domain.SettingUpdate) (*domain.Setting, error) {
	if update.UpdatedAt == nil {
		now := time.Now().UTC()
		update.UpdatedAt = &now
	}
	return updateOne[domain.Setting](ctx, s.client.From(tableSettings).Eq("id", id), update)
}

func (s *Store) FindStores(ctx context.Context, storeID string) ([]domain.Store, error) {
	return selectMany[domain.Store](ctx, s.client.From(tableStores).Select("*").Eq("id", storeID))
}

func (s *Store) ListSales(ctx context.Context, filter store.ListFilter) ([]domain.Sale, error) {
	return selectMany[domain.Sale](ctx, s.client.From(tableSales).Select("*, sale_items(*)").
		EqIf("storeid", filter.StoreID).
		Order("created_at", false))
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return selectOne[domain.Sale](ctx, s.client.From(tableSales).Select("*, sale_items(*)").Eq("id", id))
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	return insertOne[domain.Sale](ctx, s.client.From(tableSales), saleRow(sale))
}

func (s *Store) UpdateSale(ctx context.Context, id string, update domain.SaleUpdate) (*domain.Sale, error) {
	return updateOne[domain.Sale](ctx, s.client.From(tableSales).Eq("id", id), update)
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	return deleteWhere(ctx, s.client.From(tableSales).Eq("id", id))
}

func (s *Store) DeleteSaleByBillNo(ctx context.Context, billNo string) error {
	return deleteWhere(ctx, s.client.From(tableSales).Eq("billno", billNo))
}

func (s *Store) CreateSaleItems(ctx context.Context, items []domain.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]domain.SaleItem, len(items))
	for i, item := range items {
		item.ID = ""
		rows[i] = item
	}
	if _, err := s.client.From(tableSaleItems).ExecuteInsert(ctx, rows); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) ListSaleItems(ctx context.Context, billNo string) ([]domain.SaleItem, error) {
	return selectMany[domain.SaleItem](ctx, s.client.From(tableSaleItems).Select("*").Eq("billno", billNo))
}

func (s *Store) DeleteSaleItemsByBillNo(ctx context.Context, billNo string) error {
	return deleteWhere(ctx, s.client.From(tableSaleItems).Eq("billno", billNo))
}

// saleRow strips the generated and joined fields before a write.
func saleRow(sale domain.Sale) domain.Sale {
	sale.ID = ""
	sale.CreatedAt = nil
	sale.SaleItems = nil
	return sale
}

func selectMany[T any](ctx context.Context, q *sb.QueryBuilder) ([]T, error) {
	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, translate(err)
	}
	rows := []T{}
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

func selectOne[T any](ctx context.Context, q *sb.QueryBuilder) (*T, error) {
	resp, err := q.Single().Execute(ctx)
	if err != nil {
		return nil, translate(err)
	}
	var row T
	if err := resp.JSON(&row); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return &row, nil
}

func insertOne[T any](ctx context.Context, q *sb.QueryBuilder, payload any) (*T, error) {
	resp, err := q.ExecuteInsert(ctx, payload)
	if err != nil {
		return nil, translate(err)
	}
	return firstRow[T](resp)
}

func updateOne[T any](ctx context.Context, q *sb.QueryBuilder, payload any) (*T, error) {
	resp, err := q.ExecuteUpdate(ctx, payload)
	if err != nil {
		return nil, translate(err)
	}
	return firstRow[T](resp)
}

func firstRow[T any](resp *sb.Response) (*T, error) {
	var rows []T
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

func deleteWhere(ctx context.Context, q *sb.QueryBuilder) error {
	if _, err := q.ExecuteDelete(ctx); err != nil {
		return translate(err)
	}
	return nil
}

// translate keeps the PostgREST message for the caller while letting
// errors.Is match the store sentinels.
func translate(err error) error {
	switch {
	case sb.IsNotFound(err):
		return store.Mark(store.ErrNotFound, err)
	case sb.IsUniqueViolation(err):
		return store.Mark(store.ErrDuplicate, err)
	default:
		return err
	}
}
