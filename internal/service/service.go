package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"smartpurse/backend/internal/cache"
	"smartpurse/backend/internal/store"
)

const (
	defaultUserPassword  = "12345678"
	defaultResetRedirect = "https://your-app.com/update-password"
)

type Options struct {
	DefaultPassword string
	ResetRedirect   string
	StoreCacheTTL   time.Duration
	Logger          logrus.FieldLogger
}

type Service struct {
	repo       store.Repository
	identity   store.IdentityProvider
	storeCache cache.StoreCache
	opts       Options
	log        logrus.FieldLogger
}

func New(repo store.Repository, identity store.IdentityProvider, storeCache cache.StoreCache, opts Options) *Service {
	if storeCache == nil {
		storeCache = cache.NoopStoreCache{}
	}
	if opts.DefaultPassword == "" {
		opts.DefaultPassword = defaultUserPassword
	}
	if opts.ResetRedirect == "" {
		opts.ResetRedirect = defaultResetRedirect
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Service{
		repo:       repo,
		identity:   identity,
		storeCache: storeCache,
		opts:       opts,
		log:        logger.WithField("component", "service"),
	}
}

// ValidationError is a request that failed a required-field check before any
// store call. Its message is returned to the client verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return store.ErrInvalidInput }

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// notFound rewrites a store miss as "<Entity> not found". Other errors pass
// through untouched.
func notFound(entity string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return store.Mark(store.ErrNotFound, errors.New(entity+" not found"))
	}
	return err
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func blankPtr(v *string) bool {
	return v != nil && *v == ""
}

// Ping checks the repository when it supports a liveness probe.
func (s *Service) Ping(ctx context.Context) error {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if p, ok := s.repo.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
