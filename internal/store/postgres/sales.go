package postgres

import (
	"context"
	"database/sql"
	"time"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
	"smartpurse/backend/internal/xid"
)

var (
	_ store.Repository     = (*Store)(nil)
	_ store.SaleTransactor = (*Store)(nil)
)

const saleColumns = `id, billno, server, status, total, payment_method, storeid, tax, created_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) ListSales(ctx context.Context, filter store.ListFilter) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.billno, s.server, s.status, s.total, s.payment_method, s.storeid, s.tax, s.created_at,
		       i.id, i.name, i.rate, i.quantity, i.tax, i.storeid
		FROM sales s
		LEFT JOIN sale_items i ON i.billno = s.billno
		WHERE ($1::text = '' OR s.storeid = $1)
		ORDER BY s.created_at DESC, s.id, i.position
	`, filter.StoreID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	index := make(map[string]int)
	for rows.Next() {
		var sale domain.Sale
		var createdAt time.Time
		var itemID, itemName, itemStore sql.NullString
		var itemRate, itemTax sql.NullFloat64
		var itemQty sql.NullInt64
		if err := rows.Scan(
			&sale.ID, &sale.BillNo, &sale.Server, &sale.Status, &sale.Total, &sale.PaymentMethod, &sale.StoreID, &sale.Tax, &createdAt,
			&itemID, &itemName, &itemRate, &itemQty, &itemTax, &itemStore,
		); err != nil {
			return nil, err
		}

		pos, seen := index[sale.ID]
		if !seen {
			sale.CreatedAt = &createdAt
			sale.SaleItems = []domain.SaleItem{}
			sales = append(sales, sale)
			pos = len(sales) - 1
			index[sale.ID] = pos
		}
		if itemID.Valid {
			sales[pos].SaleItems = append(sales[pos].SaleItems, domain.SaleItem{
				ID:       itemID.String,
				BillNo:   sale.BillNo,
				Name:     itemName.String,
				Rate:     itemRate.Float64,
				Quantity: int(itemQty.Int64),
				Tax:      itemTax.Float64,
				StoreID:  itemStore.String,
			})
		}
	}
	return sales, rows.Err()
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if err != nil {
		return nil, translate(err)
	}
	items, err := s.ListSaleItems(ctx, sale.BillNo)
	if err != nil {
		return nil, err
	}
	sale.SaleItems = items
	return sale, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	created, err := s.insertSale(ctx, s.db, sale)
	if err != nil {
		return nil, translate(err)
	}
	return created, nil
}

func (s *Store) UpdateSale(ctx context.Context, id string, update domain.SaleUpdate) (*domain.Sale, error) {
	updated, err := updateSale(ctx, s.db, id, update)
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	return translate(err)
}

func (s *Store) DeleteSaleByBillNo(ctx context.Context, billNo string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sales WHERE billno = $1`, billNo)
	return translate(err)
}

func (s *Store) CreateSaleItems(ctx context.Context, items []domain.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertSaleItems(ctx, tx, items); err != nil {
		return translate(err)
	}
	return translate(tx.Commit())
}

func (s *Store) ListSaleItems(ctx context.Context, billNo string) ([]domain.SaleItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, billno, name, rate, quantity, tax, storeid
		FROM sale_items
		WHERE billno = $1
		ORDER BY position
	`, billNo)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ID, &item.BillNo, &item.Name, &item.Rate, &item.Quantity, &item.Tax, &item.StoreID); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) DeleteSaleItemsByBillNo(ctx context.Context, billNo string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sale_items WHERE billno = $1`, billNo)
	return translate(err)
}

// CreateSaleWithItems inserts the sale and its items in one transaction.
func (s *Store) CreateSaleWithItems(ctx context.Context, sale domain.Sale, items []domain.SaleItem) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	created, err := s.insertSale(ctx, tx, sale)
	if err != nil {
		return nil, translate(err)
	}
	if err := insertSaleItems(ctx, tx, items); err != nil {
		return nil, translate(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, translate(err)
	}
	return created, nil
}

// ReplaceSale updates the sale row and swaps its item set in one transaction.
func (s *Store) ReplaceSale(ctx context.Context, id string, sale domain.Sale, items []domain.SaleItem) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	updated, err := updateSale(ctx, tx, id, domain.FullSaleUpdate(sale))
	if err != nil {
		return nil, translate(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE billno = $1`, updated.BillNo); err != nil {
		return nil, translate(err)
	}
	if err := insertSaleItems(ctx, tx, items); err != nil {
		return nil, translate(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

func (s *Store) insertSale(ctx context.Context, db execer, sale domain.Sale) (*domain.Sale, error) {
	sale.ID = xid.New()
	createdAt := s.now()
	sale.CreatedAt = &createdAt
	sale.SaleItems = nil
	_, err := db.ExecContext(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sale.ID, sale.BillNo, sale.Server, sale.Status, sale.Total, sale.PaymentMethod, sale.StoreID, sale.Tax, createdAt)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func updateSale(ctx context.Context, db queryRower, id string, update domain.SaleUpdate) (*domain.Sale, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE sales
		SET billno = COALESCE($2, billno), server = COALESCE($3, server), status = COALESCE($4, status),
		    total = COALESCE($5, total), payment_method = COALESCE($6, payment_method),
		    storeid = COALESCE($7, storeid), tax = COALESCE($8, tax)
		WHERE id = $1
		RETURNING `+saleColumns,
		id, update.BillNo, update.Server, update.Status, update.Total, update.PaymentMethod, update.StoreID, update.Tax)
	return scanSale(row)
}

func insertSaleItems(ctx context.Context, db execer, items []domain.SaleItem) error {
	for pos, item := range items {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO sale_items (id, billno, position, name, rate, quantity, tax, storeid)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, xid.New(), item.BillNo, pos, item.Name, item.Rate, item.Quantity, item.Tax, item.StoreID); err != nil {
			return err
		}
	}
	return nil
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	var sale domain.Sale
	var createdAt time.Time
	if err := row.Scan(&sale.ID, &sale.BillNo, &sale.Server, &sale.Status, &sale.Total, &sale.PaymentMethod, &sale.StoreID, &sale.Tax, &createdAt); err != nil {
		return nil, err
	}
	sale.CreatedAt = &createdAt
	return &sale, nil
}
