package httpapi

import (
	"net/http"
	"strings"

	"ashhabsport/backend/internal/domain"
)

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := a.svc.ListProducts(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	case http.MethodPost:
		a.requireAdmin(a.handleProductCreate)(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/api/products/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if tail == "variants" {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		a.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
			a.handleVariantCreate(w, r, id)
		})(w, r)
		return
	}
	if tail != "" {
		writeError(w, http.StatusNotFound, errNotFoundRoute)
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.svc.GetProduct(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case http.MethodPut:
		a.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
			var req domain.ProductCreateRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			product, err := a.svc.UpdateProduct(r.Context(), id, req)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, product)
		})(w, r)
	case http.MethodDelete:
		a.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
			if err := a.svc.DeleteProduct(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleVariantCreate(w http.ResponseWriter, r *http.Request, productID int64) {
	var req domain.VariantCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	variant, err := a.svc.CreateVariant(r.Context(), productID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, variant)
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	categories, err := a.svc.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.svc.ListCart(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var req domain.CartAddRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.svc.AddToCart(r.Context(), req); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartItem(w http.ResponseWriter, r *http.Request) {
	variantID, tail, err := pathID(r.URL.Path, "/api/cart/")
	if err != nil || tail != "" {
		writeError(w, http.StatusBadRequest, errInvalidID)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req domain.CartUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.svc.UpdateCartItem(r.Context(), variantID, req.Quantity); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case http.MethodDelete:
		if err := a.svc.RemoveCartItem(r.Context(), variantID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePaymentInfo(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		methods, err := a.svc.ListPaymentMethods(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, methods)
	case http.MethodPost:
		var req domain.PaymentMethodCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		pm, err := a.svc.AddPaymentMethod(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, pm)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePaymentInfoActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	paymentID, tail, err := pathID(r.URL.Path, "/api/payment-info/")
	if err != nil || tail != "" {
		writeError(w, http.StatusBadRequest, errInvalidID)
		return
	}
	if err := a.svc.DeletePaymentMethod(r.Context(), paymentID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		orders, err := a.svc.ListOrders(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	case http.MethodPost:
		order, err := a.svc.PlaceOrder(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleOrderActions(w http.ResponseWriter, r *http.Request) {
	orderID, tail, err := pathID(r.URL.Path, "/api/orders/")
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidID)
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodGet:
		order, err := a.svc.GetOrder(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	case tail == "accept" && r.Method == http.MethodPost:
		a.requireEmployee(func(w http.ResponseWriter, r *http.Request) {
			if err := a.svc.AcceptOrder(r.Context(), orderID); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})(w, r)
	case tail == "status" && r.Method == http.MethodPut:
		a.requireEmployee(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Status string `json:"status"`
			}
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if err := a.svc.UpdateOrderStatus(r.Context(), orderID, strings.TrimSpace(req.Status)); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}
