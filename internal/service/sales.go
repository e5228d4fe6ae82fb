package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
)

func (s *Service) ListSales(ctx context.Context, filter store.ListFilter) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, filter)
}

func (s *Service) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return nil, notFound("Sale", err)
	}
	return sale, nil
}

// CreateSale writes the sale row and its line items. On a repository without
// transactions the row is deleted again when the item insert fails.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleRequest) (*domain.SaleWithItems, error) {
	sale, err := saleFromRequest(req)
	if err != nil {
		return nil, err
	}
	items := stampItems(req.Items, sale.BillNo, sale.StoreID)

	if tx, ok := s.repo.(store.SaleTransactor); ok {
		created, err := tx.CreateSaleWithItems(ctx, sale, items)
		if err != nil {
			return nil, err
		}
		return withItems(created, items), nil
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return withItems(created, items), nil
	}

	if err := s.repo.CreateSaleItems(ctx, items); err != nil {
		log := s.saleLog(sale).WithError(err)
		if delErr := s.repo.DeleteSaleByBillNo(ctx, sale.BillNo); delErr != nil {
			log.WithField("compensation_error", delErr.Error()).Error("sale items insert failed and sale row could not be removed")
			return nil, store.Mark(store.ErrInconsistentState, fmt.Errorf("%w; removing sale row: %w", err, delErr))
		}
		log.Warn("sale items insert failed, sale row removed")
		return nil, store.Mark(store.ErrPartialFailure, err)
	}
	return withItems(created, items), nil
}

// UpdateSale changes the sent sale columns only. Its items are left as they
// are, and a new billno carries them along.
func (s *Service) UpdateSale(ctx context.Context, id string, update domain.SaleUpdate) (*domain.Sale, error) {
	update.BillNo = trimmed(update.BillNo)
	update.Server = trimmed(update.Server)
	update.Status = trimmed(update.Status)
	update.PaymentMethod = trimmed(update.PaymentMethod)
	update.StoreID = trimmed(update.StoreID)
	if blankPtr(update.BillNo) {
		return nil, invalid("billno is required")
	}
	if blankPtr(update.Status) {
		unpaid := domain.SaleStatusUnpaid
		update.Status = &unpaid
	}
	if update == (domain.SaleUpdate{}) {
		sale, err := s.GetSale(ctx, id)
		if err != nil {
			return nil, err
		}
		sale.SaleItems = nil
		return sale, nil
	}
	updated, err := s.repo.UpdateSale(ctx, id, update)
	if err != nil {
		return nil, notFound("Sale", err)
	}
	return updated, nil
}

// RecallSale replaces the sale row and its whole item set. Without
// transactions a failed insert leaves the sale with no items; nothing is
// rolled back.
func (s *Service) RecallSale(ctx context.Context, id string, req domain.SaleRequest) (*domain.SaleWithItems, error) {
	sale, err := saleFromRequest(req)
	if err != nil {
		return nil, err
	}
	items := stampItems(req.Items, sale.BillNo, sale.StoreID)

	if tx, ok := s.repo.(store.SaleTransactor); ok {
		updated, err := tx.ReplaceSale(ctx, id, sale, items)
		if err != nil {
			return nil, notFound("Sale", err)
		}
		return withItems(updated, items), nil
	}

	updated, err := s.repo.UpdateSale(ctx, id, domain.FullSaleUpdate(sale))
	if err != nil {
		return nil, notFound("Sale", err)
	}
	if err := s.repo.DeleteSaleItemsByBillNo(ctx, updated.BillNo); err != nil {
		s.saleLog(*updated).WithError(err).Error("recall could not clear previous sale items")
		return nil, store.Mark(store.ErrPartialFailure, err)
	}
	if len(items) > 0 {
		if err := s.repo.CreateSaleItems(ctx, items); err != nil {
			s.saleLog(*updated).WithError(err).Error("recall cleared sale items but could not insert replacements")
			return nil, store.Mark(store.ErrPartialFailure, err)
		}
	}
	return withItems(updated, items), nil
}

func (s *Service) DeleteSale(ctx context.Context, id string) error {
	return s.repo.DeleteSale(ctx, id)
}

func (s *Service) saleLog(sale domain.Sale) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"billno":  sale.BillNo,
		"storeid": sale.StoreID,
	})
}

func saleFromRequest(req domain.SaleRequest) (domain.Sale, error) {
	billNo := strings.TrimSpace(req.BillNo)
	if billNo == "" {
		return domain.Sale{}, invalid("billno is required")
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = domain.SaleStatusUnpaid
	}
	return domain.Sale{
		BillNo:        billNo,
		Server:        strings.TrimSpace(req.Server),
		Status:        status,
		Total:         req.Total,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		StoreID:       strings.TrimSpace(req.StoreID),
		Tax:           req.Tax,
	}, nil
}

// stampItems copies the submitted items with the owning bill number and store.
// The result is never nil so an empty item set encodes as [].
func stampItems(items []domain.SaleItem, billNo string, storeID string) []domain.SaleItem {
	stamped := make([]domain.SaleItem, 0, len(items))
	for _, item := range items {
		stamped = append(stamped, domain.SaleItem{
			BillNo:   billNo,
			Name:     strings.TrimSpace(item.Name),
			Rate:     item.Rate,
			Quantity: item.Quantity,
			Tax:      item.Tax,
			StoreID:  storeID,
		})
	}
	return stamped
}

func withItems(sale *domain.Sale, items []domain.SaleItem) *domain.SaleWithItems {
	return &domain.SaleWithItems{Sale: *sale, Items: items}
}
