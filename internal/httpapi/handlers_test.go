package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ashhabsport/backend/internal/ratelimit"
	"ashhabsport/backend/internal/service"
	"ashhabsport/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real SessionManager
// and real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, 1)
	sessions := NewSessionManager("test-secret-key-0123456789abcdef", time.Hour)
	limiter := ratelimit.NewMemory(5, time.Minute)

	api, err := New(svc, sessions, limiter, "", "")
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	return api.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, payload any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, handler http.Handler, role, username, password string) []*http.Cookie {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/login", map[string]string{
		"role": role, "username": username, "password": password,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie on login")
	}
	return cookies
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_SetsCookieAndReturnsUser(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/login", map[string]string{
		"role": "customer", "username": "demo@demo.com", "password": "demo123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		User    struct {
			ID   int64  `json:"id"`
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.User.Type != "customer" || body.User.ID != 1 {
		t.Fatalf("unexpected login body: %+v", body)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Fatal("expected HttpOnly session cookie")
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/login", map[string]string{
		"role": "employee", "username": "admin", "password": "wrongpassword",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleLogin_RateLimit(t *testing.T) {
	handler := newTestAPI(t)

	// The limiter allows 5 attempts per minute per client IP; httptest uses
	// the fixed RemoteAddr 192.0.2.1:1234.
	var lastCode int
	for i := 0; i < 6; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/login", map[string]string{
			"role": "employee", "username": "admin", "password": "badpass",
		}, nil)
		lastCode = rec.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 6 attempts, got %d", lastCode)
	}
}

func TestHandleSession_Lifecycle(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/session", nil, nil)
	var anon map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&anon); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if anon["logged_in"] != false {
		t.Fatalf("expected logged_in:false, got %v", anon)
	}

	cookies := login(t, handler, "customer", "demo@demo.com", "demo123")
	rec = doJSON(t, handler, http.MethodGet, "/api/session", nil, cookies)
	var authed map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&authed); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if authed["logged_in"] != true {
		t.Fatalf("expected logged_in:true, got %v", authed)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/logout", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge >= 0 {
			t.Fatal("expected logout to expire the session cookie")
		}
	}
}

func TestHandleSignup_CreatesSession(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/signup", map[string]string{
		"firstName": "New", "lastName": "Customer",
		"email": "new@example.com", "password": "secret1",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	cartRec := doJSON(t, handler, http.MethodGet, "/api/cart", nil, cookies)
	if cartRec.Code != http.StatusOK {
		t.Fatalf("expected 200 cart after signup, got %d", cartRec.Code)
	}
	var items []any
	if err := json.NewDecoder(cartRec.Body).Decode(&items); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
}

func TestHandleSignup_DuplicateEmail(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/signup", map[string]string{
		"firstName": "Dup", "email": "demo@demo.com", "password": "secret1",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCart_RequiresLogin(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/cart", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleCart_AddListUpdateRemove(t *testing.T) {
	handler := newTestAPI(t)
	cookies := login(t, handler, "customer", "demo@demo.com", "demo123")

	rec := doJSON(t, handler, http.MethodPost, "/api/cart", map[string]any{
		"variant_id": 1, "quantity": 2,
	}, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("add failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/cart", nil, cookies)
	var items []struct {
		VariantID int64 `json:"variant_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("unexpected cart: %+v", items)
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/cart/1", map[string]int{"quantity": 4}, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/cart/1", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove failed: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/cart", nil, cookies)
	items = nil
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}
}

func TestPlaceOrder_WithoutPaymentInfoRedirects(t *testing.T) {
	handler := newTestAPI(t)
	cookies := login(t, handler, "customer", "demo@demo.com", "demo123")

	rec := doJSON(t, handler, http.MethodPost, "/api/cart", map[string]any{
		"variant_id": 1, "quantity": 1,
	}, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("add failed: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/orders", nil, cookies)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Payment info required" || body["redirect"] != "payment-info" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestOrderFlow_PlaceAndAccept(t *testing.T) {
	handler := newTestAPI(t)
	customer := login(t, handler, "customer", "demo@demo.com", "demo123")

	rec := doJSON(t, handler, http.MethodPost, "/api/payment-info", map[string]any{
		"card_type": "visa", "card_holder_name": "Demo Customer",
		"card_number": "4111111111111111", "expiry_month": 12, "expiry_year": 2030, "cvv": "123",
	}, customer)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add payment failed: %d %s", rec.Code, rec.Body.String())
	}
	var pm map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&pm); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if pm["card_number_masked"] != "**** **** **** 1111" {
		t.Fatalf("unexpected masked number: %v", pm["card_number_masked"])
	}
	if _, leaked := pm["card_number"]; leaked {
		t.Fatal("raw card number must not be returned")
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/cart", map[string]any{
		"variant_id": 1, "quantity": 2,
	}, customer)
	if rec.Code != http.StatusOK {
		t.Fatalf("add to cart failed: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/orders", nil, customer)
	if rec.Code != http.StatusCreated {
		t.Fatalf("place order failed: %d %s", rec.Code, rec.Body.String())
	}
	var order struct {
		ID     int64  `json:"order_id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.Status != "Pending" {
		t.Fatalf("expected Pending, got %q", order.Status)
	}

	// Customers cannot accept orders.
	rec = doJSON(t, handler, http.MethodPost, "/api/orders/1/accept", nil, customer)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer accept, got %d", rec.Code)
	}

	staff := login(t, handler, "employee", "staff1", "staff123")
	rec = doJSON(t, handler, http.MethodPost, "/api/orders/1/accept", nil, staff)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/orders/1/accept", nil, staff)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on double accept, got %d", rec.Code)
	}
	var dup map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&dup); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if dup["error"] != "Order is not pending" {
		t.Fatalf("unexpected error message: %v", dup["error"])
	}
}

func TestAdminEndpoints_RoleGuards(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/admin/stats", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 anonymous, got %d", rec.Code)
	}

	customer := login(t, handler, "customer", "demo@demo.com", "demo123")
	rec = doJSON(t, handler, http.MethodGet, "/api/admin/stats", nil, customer)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}

	staff := login(t, handler, "employee", "staff1", "staff123")
	rec = doJSON(t, handler, http.MethodGet, "/api/admin/stats", nil, staff)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", rec.Code)
	}

	admin := login(t, handler, "employee", "admin", "admin123")
	rec = doJSON(t, handler, http.MethodGet, "/api/admin/stats", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestStockUpdate_ReportsMovementLogged(t *testing.T) {
	handler := newTestAPI(t)
	admin := login(t, handler, "employee", "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPut, "/api/stock/1", map[string]int{"quantity": 42}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("stock update failed: %d %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["success"] != true || body["movement_logged"] != true {
		t.Fatalf("unexpected body: %v", body)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/stock/1", nil, admin)
	var vs struct {
		StockQuantity int `json:"stock_quantity"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&vs); err != nil {
		t.Fatalf("decode stock: %v", err)
	}
	if vs.StockQuantity != 42 {
		t.Fatalf("expected stock 42, got %d", vs.StockQuantity)
	}
}

func TestProducts_PublicReadAdminWrite(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/products", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var products []struct {
		ID       int64 `json:"product_id"`
		Variants []struct {
			StockQuantity int `json:"stock_quantity"`
		} `json:"variants"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&products); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 seeded products, got %d", len(products))
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/products", map[string]any{
		"product_name": "Gym Bag", "price": "19.99", "category": "Accessories",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous create, got %d", rec.Code)
	}

	admin := login(t, handler, "employee", "admin", "admin123")
	rec = doJSON(t, handler, http.MethodPost, "/api/products", map[string]any{
		"product_name": "Gym Bag", "price": "19.99", "category": "Accessories",
	}, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/products/999", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUnknownPageFallsBackWith404(t *testing.T) {
	handler := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/no-such-page", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("expected html fallback, got %q", ct)
	}
}
