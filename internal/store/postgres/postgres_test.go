package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewFromDB(db), mock
}

func TestMigrateExecutesAllFiles(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS stores").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sales").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Migrate(context.Background(), s.DB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateSaleWithItemsCommitsOnce(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sales").
		WithArgs(sqlmock.AnyArg(), "B1", "", "unpaid", 100.0, "cash", "S1", 0.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sale_items").
		WithArgs(sqlmock.AnyArg(), "B1", 0, "Pen", 10.0, 2, 0.0, "S1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sale_items").
		WithArgs(sqlmock.AnyArg(), "B1", 1, "Ink", 5.0, 1, 0.0, "S1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sale, err := s.CreateSaleWithItems(context.Background(),
		domain.Sale{BillNo: "B1", Status: "unpaid", Total: 100, PaymentMethod: "cash", StoreID: "S1"},
		[]domain.SaleItem{
			{BillNo: "B1", Name: "Pen", Rate: 10, Quantity: 2, StoreID: "S1"},
			{BillNo: "B1", Name: "Ink", Rate: 5, Quantity: 1, StoreID: "S1"},
		})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.ID == "" || sale.CreatedAt == nil {
		t.Fatalf("expected generated id and timestamp, got %+v", sale)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateSaleWithItemsRollsBackOnItemFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sales").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sale_items").WillReturnError(&pgconn.PgError{Code: "23502", Message: "null value in column \"name\""})
	mock.ExpectRollback()

	_, err := s.CreateSaleWithItems(context.Background(),
		domain.Sale{BillNo: "B1", StoreID: "S1"},
		[]domain.SaleItem{{BillNo: "B1", StoreID: "S1"}})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateSaleDuplicateBillNo(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO sales").WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"sales_billno_key\""})

	_, err := s.CreateSale(context.Background(), domain.Sale{BillNo: "B1"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestReplaceSaleSwapsItemsInOneTransaction(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE sales").
		WithArgs("sale-1", "B1", "ana", "paid", 30.0, "card", "S1", 0.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "billno", "server", "status", "total", "payment_method", "storeid", "tax", "created_at"}).
			AddRow("sale-1", "B1", "ana", "paid", 30.0, "card", "S1", 0.0, created))
	mock.ExpectExec("DELETE FROM sale_items").WithArgs("B1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO sale_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sale, err := s.ReplaceSale(context.Background(), "sale-1",
		domain.Sale{BillNo: "B1", Server: "ana", Status: "paid", Total: 30, PaymentMethod: "card", StoreID: "S1"},
		[]domain.SaleItem{{BillNo: "B1", Name: "Cake", Rate: 30, Quantity: 1, StoreID: "S1"}})
	if err != nil {
		t.Fatalf("replace sale: %v", err)
	}
	if sale.Status != "paid" || !sale.CreatedAt.Equal(created) {
		t.Fatalf("unexpected sale: %+v", sale)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceSaleMissingRowRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE sales").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := s.ReplaceSale(context.Background(), "missing", domain.Sale{BillNo: "B1"}, nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListSalesGroupsJoinedItems(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	cols := []string{"id", "billno", "server", "status", "total", "payment_method", "storeid", "tax", "created_at",
		"item_id", "name", "rate", "quantity", "item_tax", "item_storeid"}
	mock.ExpectQuery("FROM sales s").
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s2", "B2", "", "unpaid", 0.0, "", "S1", 0.0, now, nil, nil, nil, nil, nil, nil).
			AddRow("s1", "B1", "", "paid", 25.0, "cash", "S1", 0.0, now.Add(-time.Minute), "i1", "Pen", 10.0, int64(2), 0.0, "S1").
			AddRow("s1", "B1", "", "paid", 25.0, "cash", "S1", 0.0, now.Add(-time.Minute), "i2", "Ink", 5.0, int64(1), 0.0, "S1"))

	sales, err := s.ListSales(context.Background(), store.ListFilter{StoreID: "S1"})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(sales))
	}
	if sales[0].BillNo != "B2" || len(sales[0].SaleItems) != 0 {
		t.Fatalf("unexpected first sale: %+v", sales[0])
	}
	if len(sales[1].SaleItems) != 2 || sales[1].SaleItems[1].Name != "Ink" {
		t.Fatalf("unexpected joined items: %+v", sales[1].SaleItems)
	}
}

func TestUpdateInventoryItemSendsNullForUnsetColumns(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`UPDATE inventory\s+SET item = COALESCE\(\$2, item\)`).
		WithArgs("inv-1", nil, nil, nil, nil, nil, nil, nil, nil, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item", "description", "buyingprice", "sellingprice", "rate", "tax", "barcode", "storeid", "quantity", "created_at"}).
			AddRow("inv-1", "Pen", "", 1.0, 2.0, 0.0, false, "", "S1", int64(5), now))

	quantity := 5
	item, err := s.UpdateInventoryItem(context.Background(), "inv-1", domain.InventoryUpdate{Quantity: &quantity})
	if err != nil {
		t.Fatalf("update inventory: %v", err)
	}
	if item.Item != "Pen" || item.SellingPrice != 2 || item.Quantity != 5 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateUserOnlyPassesSentFields(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery("UPDATE users").
		WithArgs("u1", nil, nil, "manager", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "auth_user_id", "name", "email", "phone", "role", "storeid", "created_at"}).
			AddRow("u1", "auth-1", "Ana", "ana@example.com", "555", "manager", "S1", now))

	role := "manager"
	user, err := s.UpdateUser(context.Background(), "u1", domain.UserUpdateRequest{Role: &role})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if user.Name != "Ana" || user.Role != "manager" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetCategoryNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM categories").WithArgs("missing").WillReturnRows(sqlmock.NewRows([]string{"id", "category", "storeid", "created_at"}))

	_, err := s.GetCategory(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListCategoriesPassesStoreFilter(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery("FROM categories").
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "storeid", "created_at"}).
			AddRow("c1", "Drinks", "S1", now).
			AddRow("c2", "Snacks", "S2", now))

	categories, err := s.ListCategories(context.Background(), store.ListFilter{})
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected all rows without filter, got %d", len(categories))
	}
}
