package service

import (
	"context"
	"strings"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
)

func (s *Service) ListInventory(ctx context.Context, filter store.ListFilter) ([]domain.InventoryItem, error) {
	return s.repo.ListInventory(ctx, filter)
}

func (s *Service) GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	item, err := s.repo.GetInventoryItem(ctx, id)
	if err != nil {
		return nil, notFound("Item", err)
	}
	return item, nil
}

func (s *Service) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.Item = strings.TrimSpace(item.Item)
	item.StoreID = strings.TrimSpace(item.StoreID)
	if item.Item == "" || item.StoreID == "" {
		return nil, invalid("Item and storeid are required")
	}
	return s.repo.CreateInventoryItem(ctx, item)
}

// UpdateInventoryItem writes only the fields present in update. Item and
// storeid may be left out but never cleared.
func (s *Service) UpdateInventoryItem(ctx context.Context, id string, update domain.InventoryUpdate) (*domain.InventoryItem, error) {
	update.Item = trimmed(update.Item)
	update.StoreID = trimmed(update.StoreID)
	update.Description = trimmed(update.Description)
	update.Barcode = trimmed(update.Barcode)
	if blankPtr(update.Item) || blankPtr(update.StoreID) {
		return nil, invalid("Item and storeid are required")
	}
	if update == (domain.InventoryUpdate{}) {
		return s.GetInventoryItem(ctx, id)
	}
	updated, err := s.repo.UpdateInventoryItem(ctx, id, update)
	if err != nil {
		return nil, notFound("Item", err)
	}
	return updated, nil
}

func (s *Service) DeleteInventoryItem(ctx context.Context, id string) error {
	return s.repo.DeleteInventoryItem(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context, filter store.ListFilter) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx, filter)
}

func (s *Service) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound("Category", err)
	}
	return category, nil
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryRequest) (*domain.Category, error) {
	label := strings.TrimSpace(req.Category)
	storeID := strings.TrimSpace(req.StoreID)
	if label == "" || storeID == "" {
		return nil, invalid("Category and storeid are required")
	}
	return s.repo.CreateCategory(ctx, domain.Category{Category: label, StoreID: storeID})
}

// UpdateCategory renames a category. The owning store cannot change.
func (s *Service) UpdateCategory(ctx context.Context, id string, req domain.CategoryRequest) (*domain.Category, error) {
	label := strings.TrimSpace(req.Category)
	if label == "" {
		return nil, invalid("Category is required")
	}
	category, err := s.repo.UpdateCategory(ctx, id, label)
	if err != nil {
		return nil, notFound("Category", err)
	}
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}
