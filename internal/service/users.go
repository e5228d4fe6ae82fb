package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/store"
)

func (s *Service) ListUsers(ctx context.Context, filter store.ListFilter) ([]domain.User, error) {
	return s.repo.ListUsers(ctx, filter)
}

func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, notFound("User", err)
	}
	return user, nil
}

// CreateUser provisions the login identity with the default password and then
// inserts the business row. A failed insert leaves the identity in place; the
// orphan is logged with its auth user id so it can be removed by hand.
func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, invalid("Email is required")
	}

	authUserID, err := s.identity.CreateIdentity(ctx, email, s.opts.DefaultPassword)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, domain.User{
		AuthUserID: authUserID,
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Phone:      strings.TrimSpace(req.Phone),
		Role:       strings.TrimSpace(req.Role),
		StoreID:    strings.TrimSpace(req.StoreID),
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"auth_user_id": authUserID,
			"email":        email,
			"storeid":      req.StoreID,
		}).WithError(err).Error("user row insert failed after identity was created")
		return nil, store.Mark(store.ErrPartialFailure, err)
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, req domain.UserUpdateRequest) (*domain.User, error) {
	req.Name = trimmed(req.Name)
	req.Phone = trimmed(req.Phone)
	req.Role = trimmed(req.Role)
	req.StoreID = trimmed(req.StoreID)
	if req == (domain.UserUpdateRequest{}) {
		return s.GetUser(ctx, id)
	}

	user, err := s.repo.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, notFound("User", err)
	}
	return user, nil
}

// DeleteUser removes the identity first and the row second. If the lookup
// fails nothing is touched; if the identity delete fails the row is kept.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return notFound("User", err)
	}

	if user.AuthUserID != "" {
		if err := s.identity.DeleteIdentity(ctx, user.AuthUserID); err != nil {
			return err
		}
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id":      id,
			"auth_user_id": user.AuthUserID,
		}).WithError(err).Error("user row delete failed after identity was removed")
		return store.Mark(store.ErrPartialFailure, err)
	}
	return nil
}

func (s *Service) SendPasswordReset(ctx context.Context, req domain.PasswordResetRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return invalid("Email is required")
	}
	return s.identity.SendPasswordReset(ctx, email, s.opts.ResetRedirect)
}
