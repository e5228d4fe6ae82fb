package memory

import (
	"context"
	"errors"
	"fmt"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
	"smartpurse/backend/internal/xid"
)

var errSaleItemForeignKey = errors.New(`insert or update on table "sale_items" violates foreign key constraint "sale_items_billno_fkey"`)

func (s *Store) ListSales(_ context.Context, filter store.ListFilter) ([]domain.Sale, error) {
	if err := s.faults.take("ListSales"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := s.sales.list(byStore(filter.StoreID, func(sale domain.Sale) string { return sale.StoreID }), true)
	for i := range sales {
		sales[i].SaleItems = s.itemsLocked(sales[i].BillNo)
	}
	return sales, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	if err := s.faults.take("GetSale"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales.get(id)
	if !ok {
		return nil, notFound("sales", id)
	}
	sale.SaleItems = s.itemsLocked(sale.BillNo)
	return &sale, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if err := s.faults.take("CreateSale"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.saleIDByBillNoLocked(sale.BillNo); exists {
		return nil, store.Mark(store.ErrDuplicate, fmt.Errorf(`duplicate key value violates unique constraint "sales_billno_key"`))
	}
	sale.ID = xid.New()
	sale.CreatedAt = s.stamp()
	sale.SaleItems = nil
	s.sales.put(sale.ID, sale)
	return &sale, nil
}

func (s *Store) UpdateSale(_ context.Context, id string, update domain.SaleUpdate) (*domain.Sale, error) {
	if err := s.faults.take("UpdateSale"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sales.get(id)
	if !ok {
		return nil, notFound("sales", id)
	}
	sale := existing
	update.Apply(&sale)
	if sale.BillNo != existing.BillNo {
		if otherID, taken := s.saleIDByBillNoLocked(sale.BillNo); taken && otherID != id {
			return nil, store.Mark(store.ErrDuplicate, fmt.Errorf(`duplicate key value violates unique constraint "sales_billno_key"`))
		}
		// on update cascade
		for itemID, item := range s.saleItems.rows {
			if item.BillNo == existing.BillNo {
				item.BillNo = sale.BillNo
				s.saleItems.put(itemID, item)
			}
		}
	}
	sale.SaleItems = nil
	s.sales.put(id, sale)
	return &sale, nil
}

func (s *Store) DeleteSale(_ context.Context, id string) error {
	if err := s.faults.take("DeleteSale"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale, ok := s.sales.get(id); ok {
		s.deleteItemsLocked(sale.BillNo)
		s.sales.remove(id)
	}
	return nil
}

func (s *Store) DeleteSaleByBillNo(_ context.Context, billNo string) error {
	if err := s.faults.take("DeleteSaleByBillNo"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.saleIDByBillNoLocked(billNo); ok {
		s.deleteItemsLocked(billNo)
		s.sales.remove(id)
	}
	return nil
}

// CreateSaleItems inserts the batch all-or-nothing, like a single INSERT.
func (s *Store) CreateSaleItems(_ context.Context, items []domain.SaleItem) error {
	if err := s.faults.take("CreateSaleItems"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if _, ok := s.saleIDByBillNoLocked(item.BillNo); !ok {
			return store.Mark(store.ErrInvalidInput, errSaleItemForeignKey)
		}
	}
	for _, item := range items {
		item.ID = xid.New()
		s.saleItems.put(item.ID, item)
	}
	return nil
}

func (s *Store) ListSaleItems(_ context.Context, billNo string) ([]domain.SaleItem, error) {
	if err := s.faults.take("ListSaleItems"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsLocked(billNo), nil
}

func (s *Store) DeleteSaleItemsByBillNo(_ context.Context, billNo string) error {
	if err := s.faults.take("DeleteSaleItemsByBillNo"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteItemsLocked(billNo)
	return nil
}

func (s *Store) itemsLocked(billNo string) []domain.SaleItem {
	return s.saleItems.list(func(item domain.SaleItem) bool { return item.BillNo == billNo }, false)
}

func (s *Store) deleteItemsLocked(billNo string) {
	for _, item := range s.itemsLocked(billNo) {
		s.saleItems.remove(item.ID)
	}
}

func (s *Store) saleIDByBillNoLocked(billNo string) (string, bool) {
	for id, sale := range s.sales.rows {
		if sale.BillNo == billNo {
			return id, true
		}
	}
	return "", false
}
