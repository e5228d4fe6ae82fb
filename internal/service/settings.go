package service

import (
	"context"
	"strings"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
)

func (s *Service) ListErrorLogs(ctx context.Context, filter store.ListFilter) ([]domain.ErrorLog, error) {
	return s.repo.ListErrorLogs(ctx, filter)
}

func (s *Service) CreateErrorLog(ctx context.Context, req domain.ErrorLogRequest) (*domain.ErrorLog, error) {
	message := strings.TrimSpace(req.ErrorMessage)
	if message == "" {
		return nil, invalid("error_message is required")
	}
	return s.repo.CreateErrorLog(ctx, domain.ErrorLog{
		StoreID:      strings.TrimSpace(req.StoreID),
		ErrorMessage: message,
	})
}

func (s *Service) ListSettings(ctx context.Context, filter store.ListFilter) ([]domain.Setting, error) {
	return s.repo.ListSettings(ctx, filter)
}

func (s *Service) GetSetting(ctx context.Context, id string) (*domain.Setting, error) {
	setting, err := s.repo.GetSetting(ctx, id)
	if err != nil {
		return nil, notFound("Settings", err)
	}
	return setting, nil
}

func (s *Service) CreateSetting(ctx context.Context, req domain.SettingRequest) (*domain.Setting, error) {
	return s.repo.CreateSetting(ctx, settingFromRequest(req))
}

// UpdateSetting changes the sent fields and always moves updated_at.
func (s *Service) UpdateSetting(ctx context.Context, id string, req domain.SettingUpdateRequest) (*domain.Setting, error) {
	setting, err := s.repo.UpdateSetting(ctx, id, domain.SettingUpdate{
		StoreID:              trimmed(req.StoreID),
		Currency:             trimmed(req.Currency),
		Timezone:             trimmed(req.Timezone),
		TaxRate:              req.TaxRate,
		Theme:                trimmed(req.Theme),
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		return nil, notFound("Settings", err)
	}
	return setting, nil
}

func settingFromRequest(req domain.SettingRequest) domain.Setting {
	return domain.Setting{
		StoreID:              strings.TrimSpace(req.StoreID),
		Currency:             strings.TrimSpace(req.Currency),
		Timezone:             strings.TrimSpace(req.Timezone),
		TaxRate:              req.TaxRate,
		Theme:                strings.TrimSpace(req.Theme),
		NotificationsEnabled: req.NotificationsEnabled,
	}
}

// FindStores answers from the store cache when it can. Cache errors are
// logged and fall through to the repository.
func (s *Service) FindStores(ctx context.Context, storeID string) ([]domain.Store, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, invalid("storeId is required")
	}

	stores, hit, err := s.storeCache.Get(ctx, storeID)
	if err != nil {
		s.log.WithField("storeid", storeID).WithError(err).Warn("store cache read failed")
	} else if hit {
		return stores, nil
	}

	stores, err = s.repo.FindStores(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := s.storeCache.Set(ctx, storeID, stores, s.opts.StoreCacheTTL); err != nil {
		s.log.WithField("storeid", storeID).WithError(err).Warn("store cache write failed")
	}
	return stores, nil
}
