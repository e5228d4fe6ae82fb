package store

import (
	"context"
	"errors"

	"smartpurse/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("duplicate key value violates unique constraint")
	// ErrPartialFailure marks a multi-step write that failed after an earlier
	// step had already committed.
	ErrPartialFailure = errors.New("partial failure")
	// ErrInconsistentState marks a partial failure whose compensation also
	// failed, leaving rows that no longer match the request.
	ErrInconsistentState = errors.New("inconsistent state")
)

// ListFilter restricts a list query to the rows owned by one store.
// An empty StoreID returns every row.
type ListFilter struct {
	StoreID string
}

type Repository interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, update domain.UserUpdateRequest) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error

	ListInventory(ctx context.Context, filter ListFilter) ([]domain.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id string, update domain.InventoryUpdate) (*domain.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id string) error

	ListCategories(ctx context.Context, filter ListFilter) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, label string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListErrorLogs(ctx context.Context, filter ListFilter) ([]domain.ErrorLog, error)
	CreateErrorLog(ctx context.Context, entry domain.ErrorLog) (*domain.ErrorLog, error)

	ListSettings(ctx context.Context, filter ListFilter) ([]domain.Setting, error)
	GetSetting(ctx context.Context, id string) (*domain.Setting, error)
	CreateSetting(ctx context.Context, setting domain.Setting) (*domain.Setting, error)
	UpdateSetting(ctx context.Context, id string, update domain.SettingUpdate) (*domain.Setting, error)

	FindStores(ctx context.Context, storeID string) ([]domain.Store, error)

	ListSales(ctx context.Context, filter ListFilter) ([]domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	UpdateSale(ctx context.Context, id string, update domain.SaleUpdate) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	DeleteSaleByBillNo(ctx context.Context, billNo string) error
	CreateSaleItems(ctx context.Context, items []domain.SaleItem) error
	ListSaleItems(ctx context.Context, billNo string) ([]domain.SaleItem, error)
	DeleteSaleItemsByBillNo(ctx context.Context, billNo string) error
}

// SaleTransactor is implemented by repositories that can write a sale row and
// its line items in a single transaction.
type SaleTransactor interface {
	CreateSaleWithItems(ctx context.Context, sale domain.Sale, items []domain.SaleItem) (*domain.Sale, error)
	ReplaceSale(ctx context.Context, id string, sale domain.Sale, items []domain.SaleItem) (*domain.Sale, error)
}

// IdentityProvider owns the login identities that back user rows.
type IdentityProvider interface {
	CreateIdentity(ctx context.Context, email string, password string) (string, error)
	DeleteIdentity(ctx context.Context, authUserID string) error
	SendPasswordReset(ctx context.Context, email string, redirectTo string) error
}

// Mark tags err with a sentinel kind so errors.Is matches it, while keeping
// err's own message for the caller.
func Mark(kind error, err error) error {
	if err == nil {
		return nil
	}
	return &markedError{kind: kind, err: err}
}

type markedError struct {
	kind error
	err  error
}

func (e *markedError) Error() string { return e.err.Error() }

func (e *markedError) Unwrap() []error { return []error{e.kind, e.err} }
