// Package httpapi exposes the storefront and back-office over HTTP: JSON
// endpoints under /api and the rendered HTML pages everywhere else.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/ratelimit"
	"ashhabsport/backend/internal/service"
	"ashhabsport/backend/internal/store"
)

type API struct {
	svc          *service.Service
	sessions     *SessionManager
	loginLimiter ratelimit.AttemptStore
	pages        *pageRenderer
	assetsDir    string
}

func New(svc *service.Service, sessions *SessionManager, limiter ratelimit.AttemptStore, templatesDir, assetsDir string) (*API, error) {
	pages, err := newPageRenderer(templatesDir)
	if err != nil {
		return nil, err
	}
	if limiter == nil {
		limiter = ratelimit.NewMemory(5, time.Minute)
	}
	return &API{
		svc:          svc,
		sessions:     sessions,
		loginLimiter: limiter,
		pages:        pages,
		assetsDir:    assetsDir,
	}, nil
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/login", a.handleLogin)
	mux.HandleFunc("/api/logout", a.handleLogout)
	mux.HandleFunc("/api/session", a.handleSession)
	mux.HandleFunc("/api/signup", a.handleSignup)

	mux.HandleFunc("/api/products", a.handleProducts)
	mux.HandleFunc("/api/products/", a.handleProductActions)
	mux.HandleFunc("/api/categories", a.handleCategories)

	mux.HandleFunc("/api/cart", a.requireCustomer(a.handleCart))
	mux.HandleFunc("/api/cart/", a.requireCustomer(a.handleCartItem))
	mux.HandleFunc("/api/payment-info", a.requireCustomer(a.handlePaymentInfo))
	mux.HandleFunc("/api/payment-info/", a.requireCustomer(a.handlePaymentInfoActions))

	mux.HandleFunc("/api/orders", a.requireLogin(a.handleOrders))
	mux.HandleFunc("/api/orders/", a.requireLogin(a.handleOrderActions))

	mux.HandleFunc("/api/stock", a.requireEmployee(a.handleStock))
	mux.HandleFunc("/api/stock/", a.requireEmployee(a.handleStockActions))
	mux.HandleFunc("/api/purchases", a.requireAdmin(a.handlePurchases))

	mux.HandleFunc("/api/employees", a.requireAdmin(a.handleEmployees))
	mux.HandleFunc("/api/employees/", a.requireAdmin(a.handleEmployeeActions))

	mux.HandleFunc("/api/admin/stats", a.requireAdmin(a.handleAdminStats))
	mux.HandleFunc("/api/admin/top-products", a.requireAdmin(a.handleTopProducts))
	mux.HandleFunc("/api/admin/movements", a.requireAdmin(a.handleMovements))

	if a.assetsDir != "" {
		mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(a.assetsDir))))
	}
	mux.HandleFunc("/", a.handlePage)

	return a.withMiddleware(mux)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func (a *API) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.sessions.FromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("not logged in"))
			return
		}
		next(w, r.WithContext(service.WithSession(r.Context(), sess)))
	}
}

func (a *API) requireCustomer(next http.HandlerFunc) http.HandlerFunc {
	return a.requireType(next, domain.UserTypeCustomer)
}

func (a *API) requireEmployee(next http.HandlerFunc) http.HandlerFunc {
	return a.requireType(next, domain.UserTypeEmployee)
}

func (a *API) requireType(next http.HandlerFunc, userType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.sessions.FromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("not logged in"))
			return
		}
		if sess.UserType != userType {
			writeError(w, http.StatusForbidden, errors.New("forbidden"))
			return
		}
		next(w, r.WithContext(service.WithSession(r.Context(), sess)))
	}
}

func (a *API) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.sessions.FromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("not logged in"))
			return
		}
		if !sess.IsAdmin() {
			writeError(w, http.StatusForbidden, errors.New("forbidden"))
			return
		}
		next(w, r.WithContext(service.WithSession(r.Context(), sess)))
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps service and store sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrPaymentInfoRequired):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "Payment info required",
			"redirect": "payment-info",
		})
	case errors.Is(err, store.ErrOrderNotPending):
		writeError(w, http.StatusBadRequest, errors.New("Order is not pending"))
	case errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrEmptyCart),
		errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrNotLoggedIn):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

var (
	errInvalidID     = errors.New("invalid id")
	errNotFoundRoute = errors.New("not found")
)

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

// pathID parses the numeric id segment after prefix, e.g. /api/orders/42.
func pathID(path, prefix string) (int64, string, error) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	segment, tail, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil || id < 1 {
		return 0, "", errors.New("invalid id")
	}
	return id, tail, nil
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details (stack traces, SQL errors, file paths, etc.).
	// 4xx responses are user-facing so we return the original error message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
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
