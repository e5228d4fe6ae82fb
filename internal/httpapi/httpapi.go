package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"smartpurse/backend/internal/domain"
	"smartpurse/backend/internal/service"
	"smartpurse/backend/internal/store"
)

const maxBodyBytes = 1 << 20

type Options struct {
	AllowedOrigin      string
	ResetRatePerMinute int
	Logger             logrus.FieldLogger
}

type API struct {
	service       *service.Service
	allowedOrigin string
	resetLimiter  *clientLimiter
	metrics       *httpMetrics
	log           logrus.FieldLogger
}

func New(svc *service.Service, opts Options) *API {
	allowedOrigin := strings.TrimSpace(opts.AllowedOrigin)
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	perMinute := opts.ResetRatePerMinute
	if perMinute <= 0 {
		perMinute = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
		resetLimiter:  newClientLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		metrics:       newHTTPMetrics(),
		log:           logger.WithField("component", "httpapi"),
	}
}

func (a *API) Handler() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		a.writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	router.Use(a.metrics.middleware)

	router.HandleFunc("/health", a.handleHealth)
	router.Handle("/metrics", a.metrics.handler())

	router.HandleFunc("/users", a.handleUsers)
	router.HandleFunc("/users/reset-password", a.handlePasswordReset)
	router.HandleFunc("/users/{id}", a.handleUserActions)

	router.HandleFunc("/inventory", a.handleInventory)
	router.HandleFunc("/inventory/{id}", a.handleInventoryActions)

	router.HandleFunc("/sales", a.handleSales)
	router.HandleFunc("/sales/recall/{id}", a.handleSaleRecall)
	router.HandleFunc("/sales/{id}", a.handleSaleActions)

	router.HandleFunc("/categories", a.handleCategories)
	router.HandleFunc("/categories/{id}", a.handleCategoryActions)

	router.HandleFunc("/errors", a.handleErrorLogs)

	router.HandleFunc("/settings", a.handleSettings)
	router.HandleFunc("/settings/{id}", a.handleSettingActions)

	router.HandleFunc("/stores", a.handleStores)

	return a.withMiddleware(router)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, domain.HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		a.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.status,
			"duration_ms": time.Since(startedAt).Milliseconds(),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.written {
		rw.status = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// listFilter reads the owning store from either query spelling.
func listFilter(r *http.Request) store.ListFilter {
	query := r.URL.Query()
	storeID := strings.TrimSpace(query.Get("storeid"))
	if storeID == "" {
		storeID = strings.TrimSpace(query.Get("storeId"))
	}
	return store.ListFilter{StoreID: storeID}
}

var errTrailingData = errors.New("request body must contain a single JSON value")

// decodeJSON accepts unknown fields and treats an empty body as {} so that
// required-field checks produce their own messages. Anything after the first
// value is rejected.
func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func errorStatus(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func (a *API) writeMethodNotAllowed(w http.ResponseWriter) {
	a.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: message})
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; 4xx carry the store or validation message.
	msg := err.Error()
	if status >= 500 {
		a.log.WithError(err).WithField("status", status).Error("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
