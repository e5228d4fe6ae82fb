package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
)

func TestSaleTransactionsAgainstPostgres(t *testing.T) {
	databaseURL := os.Getenv("SMARTPURSE_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SMARTPURSE_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := Migrate(ctx, s.DB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	billNo := fmt.Sprintf("IT-%d", time.Now().UnixNano())
	storeID := "it-store"
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE billno = $1`, billNo)
	})

	sale, err := s.CreateSaleWithItems(ctx,
		domain.Sale{BillNo: billNo, Status: domain.SaleStatusUnpaid, Total: 25, StoreID: storeID},
		[]domain.SaleItem{
			{BillNo: billNo, Name: "Pen", Rate: 10, Quantity: 2, StoreID: storeID},
			{BillNo: billNo, Name: "Ink", Rate: 5, Quantity: 1, StoreID: storeID},
		})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	items, err := s.ListSaleItems(ctx, billNo)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Pen" || items[1].Name != "Ink" {
		t.Fatalf("unexpected items: %+v", items)
	}

	if _, err := s.CreateSale(ctx, domain.Sale{BillNo: billNo, StoreID: storeID}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate bill number error, got %v", err)
	}

	if _, err := s.ReplaceSale(ctx, sale.ID, domain.Sale{BillNo: billNo, Status: domain.SaleStatusPaid, Total: 25, StoreID: storeID}, nil); err != nil {
		t.Fatalf("replace sale: %v", err)
	}
	items, err = s.ListSaleItems(ctx, billNo)
	if err != nil {
		t.Fatalf("list items after replace: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty replacement to clear items, got %+v", items)
	}

	// A failing item insert must leave no sale behind.
	failedBill := billNo + "-F"
	_, err = s.CreateSaleWithItems(ctx,
		domain.Sale{BillNo: failedBill, StoreID: storeID},
		[]domain.SaleItem{{BillNo: "does-not-exist", Name: "Ghost", StoreID: storeID}})
	if err == nil {
		t.Fatalf("expected foreign key failure")
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM sales WHERE billno = $1`, failedBill).Scan(&count); err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rolled back sale, found %d", count)
	}

	if err := s.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if _, err := s.GetSale(ctx, sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
