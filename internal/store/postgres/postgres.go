package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
	"smartpurse/backend/internal/xid"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewFromDB(db), nil
}

// NewFromDB wraps an already opened handle.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListUsers(ctx context.Context, filter store.ListFilter) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, auth_user_id, name, email, phone, role, storeid, created_at
		FROM users
		WHERE ($1::text = '' OR storeid = $1)
		ORDER BY created_at
	`, filter.StoreID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, auth_user_id, name, email, phone, role, storeid, created_at
		FROM users WHERE id = $1
	`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	user.ID = xid.New()
	createdAt := s.now()
	user.CreatedAt = &createdAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, auth_user_id, name, email, phone, role, storeid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.AuthUserID, user.Name, user.Email, user.Phone, user.Role, user.StoreID, createdAt)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, update domain.UserUpdateRequest) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET name = COALESCE($2, name), phone = COALESCE($3, phone), role = COALESCE($4, role), storeid = COALESCE($5, storeid)
		WHERE id = $1
		RETURNING id, auth_user_id, name, email, phone, role, storeid, created_at
	`, id, update.Name, update.Phone, update.Role, update.StoreID)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return translate(err)
}

func (s *Store) ListInventory(ctx context.Context, filter store.ListFilter) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item, description, buyingprice, sellingprice, rate, tax, barcode, storeid, quantity, created_at
		FROM inventory
		WHERE ($1::text = '' OR storeid = $1)
		ORDER BY created_at
	`, filter.StoreID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 64)
	for rows.Next() {
		item, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *Store) GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, item, description, buyingprice, sellingprice, rate, tax, barcode, storeid, quantity, created_at
		FROM inventory WHERE id = $1
	`, id)
	item, err := scanInventory(row)
	if err != nil {
		return nil, translate(err)
	}
	return item, nil
}

func (s *Store) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.ID = xid.New()
	createdAt := s.now()
	item.CreatedAt = &createdAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory (id, item, description, buyingprice, sellingprice, rate, tax, barcode, storeid, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, item.ID, item.Item, item.Description, item.BuyingPrice, item.SellingPrice, item.Rate, item.Tax, item.Barcode, item.StoreID, item.Quantity, createdAt)
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) UpdateInventoryItem(ctx context.Context, id string, update domain.InventoryUpdate) (*domain.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE inventory
		SET item = COALESCE($2, item), description = COALESCE($3, description),
		    buyingprice = COALESCE($4, buyingprice), sellingprice = COALESCE($5, sellingprice),
		    rate = COALESCE($6, rate), tax = COALESCE($7, tax), barcode = COALESCE($8, barcode),
		    storeid = COALESCE($9, storeid), quantity = COALESCE($10, quantity)
		WHERE id = $1
		RETURNING id, item, description, buyingprice, sellingprice, rate, tax, barcode, storeid, quantity, created_at
	`, id, update.Item, update.Description, update.BuyingPrice, update.SellingPrice, update.Rate, update.Tax, update.Barcode, update.StoreID, update.Quantity)
	updated, err := scanInventory(row)
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

func (s *Store) DeleteInventoryItem(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	return translate(err)
}

func (s *Store) ListCategories(ctx context.Context, filter store.ListFilter) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, storeid, created_at
		FROM categories
		WHERE ($1::text = '' OR storeid = $1)
		ORDER BY created_at
	`, filter.StoreID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, category, storeid, created_at FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	category.ID = xid.New()
	createdAt := s.now()
	category.CreatedAt = &createdAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, category, storeid, created_at) VALUES ($1, $2, $3, $4)
	`, category.ID, category.Category, category.StoreID, createdAt)
	if err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, label string) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE categories SET category = $2 WHERE id = $1
		RETURNING id, category, storeid, created_at
	`, id, label)
	c, err := scanCategory(row)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return translate(err)
}

func (s *Store) ListErrorLogs(ctx context.Context, filter store.ListFilter) ([]domain.ErrorLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, storeid, error_message, created_at
		FROM errors
		WHERE ($1::text = '' OR storeid = $1)
		ORDER BY created_at DESC
	`, filter.StoreID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	logs := make([]domain.ErrorLog, 0, 32)
	for rows.Next() {
		var entry domain.ErrorLog
		var createdAt time.Time
		if err := rows.Scan(&entry.ID, &entry.StoreID, &entry.ErrorMessage, &createdAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = &createdAt
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *Store) CreateErrorLog(ctx context.Context, entry domain.ErrorLog) (*domain.ErrorLog, error) {
	entry.ID = xid.New()
	createdAt := s.now()
	entry.CreatedAt = &createdAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO errors (id, storeid, error_message, created_at) VALUES ($1, $2, $3, $4)
	`, entry.ID, entry.StoreID, entry.ErrorMessage, createdAt)
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (s *Store) ListSettings(ctx context.Context, filter store.ListFilter) ([]domain.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, storeid, currency, timezone, tax_rate, theme, notifications_enabled, created_at, updated_at
		FROM settings
		WHERE ($1::text = '' OR storeid = $1)
		ORDER BY created_at DESC
	`, filter.StoreID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	settings := make([]domain.Setting, 0, 4)
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, *setting)
	}
	return settings, rows.Err()
}

func (s *Store) GetSetting(ctx context.Context, id string) (*domain.Setting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, storeid, currency, timezone, tax_rate, theme, notifications_enabled, created_at, updated_at
		FROM settings WHERE id = $1
	`, id)
	setting, err := scanSetting(row)
	if err != nil {
		return nil, translate(err)
	}
	return setting, nil
}

func (s *Store) CreateSetting(ctx context.Context, setting domain.Setting) (*domain.Setting, error) {
	setting.ID = xid.New()
	createdAt := s.now()
	setting.CreatedAt = &createdAt
	setting.UpdatedAt = &createdAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, storeid, currency, timezone, tax_rate, theme, notifications_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, setting.ID, setting.StoreID, setting.Currency, setting.Timezone, setting.TaxRate, setting.Theme, setting.NotificationsEnabled, createdAt)
	if err != nil {
		return nil, translate(err)
	}
	return &setting, nil
}

func (s *Store) UpdateSetting(ctx context.Context, id string, update domain.SettingUpdate) (*domain.Setting, error) {
	updatedAt := s.now()
	if update.UpdatedAt != nil {
		updatedAt = *update.UpdatedAt
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE settings
		SET storeid = COALESCE($2, storeid), currency = COALESCE($3, currency), timezone = COALESCE($4, timezone),
		    tax_rate = COALESCE($5, tax_rate), theme = COALESCE($6, theme),
		    notifications_enabled = COALESCE($7, notifications_enabled), updated_at = $8
		WHERE id = $1
		RETURNING id, storeid, currency, timezone, tax_rate, theme, notifications_enabled, created_at, updated_at
	`, id, update.StoreID, update.Currency, update.Timezone, update.TaxRate, update.Theme, update.NotificationsEnabled, updatedAt)
	updated, err := scanSetting(row)
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

func (s *Store) FindStores(ctx context.Context, storeID string) ([]domain.Store, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, phone, email, created_at FROM stores WHERE id = $1
	`, storeID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	stores := make([]domain.Store, 0, 1)
	for rows.Next() {
		var st domain.Store
		var createdAt time.Time
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &st.Phone, &st.Email, &createdAt); err != nil {
			return nil, err
		}
		st.CreatedAt = &createdAt
		stores = append(stores, st)
	}
	return stores, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var createdAt time.Time
	if err := row.Scan(&u.ID, &u.AuthUserID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.StoreID, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = &createdAt
	return &u, nil
}

func scanInventory(row rowScanner) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	var createdAt time.Time
	if err := row.Scan(&item.ID, &item.Item, &item.Description, &item.BuyingPrice, &item.SellingPrice, &item.Rate, &item.Tax, &item.Barcode, &item.StoreID, &item.Quantity, &createdAt); err != nil {
		return nil, err
	}
	item.CreatedAt = &createdAt
	return &item, nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	var createdAt time.Time
	if err := row.Scan(&c.ID, &c.Category, &c.StoreID, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = &createdAt
	return &c, nil
}

func scanSetting(row rowScanner) (*domain.Setting, error) {
	var st domain.Setting
	var createdAt, updatedAt time.Time
	if err := row.Scan(&st.ID, &st.StoreID, &st.Currency, &st.Timezone, &st.TaxRate, &st.Theme, &st.NotificationsEnabled, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	st.CreatedAt = &createdAt
	st.UpdatedAt = &updatedAt
	return &st, nil
}

// translate maps driver errors onto the store sentinels, keeping the
// Postgres message.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.Mark(store.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.Mark(store.ErrDuplicate, err)
		case "23503", "23502":
			return store.Mark(store.ErrInvalidInput, err)
		}
	}
	return err
}
