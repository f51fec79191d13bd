// Package service holds the business rules between the HTTP layer and the
// repository.
package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/store"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrForbidden   = errors.New("forbidden")
)

type sessionKey struct{}

// WithSession attaches the authenticated identity to the context.
func WithSession(ctx context.Context, sess domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the identity stored by WithSession.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(domain.Session)
	return sess, ok
}

type Service struct {
	repo               store.Repository
	defaultWarehouseID int64
}

func New(repo store.Repository, defaultWarehouseID int64) *Service {
	if defaultWarehouseID < 1 {
		defaultWarehouseID = 1
	}
	return &Service{repo: repo, defaultWarehouseID: defaultWarehouseID}
}

// Login verifies credentials for either user type. Customer logins match on
// email, employee logins on username. Rows still holding a plaintext
// password are upgraded to bcrypt on first successful login.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.Session, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, store.ErrInvalidInput
	}

	if req.Role == domain.UserTypeEmployee {
		e, err := s.repo.GetEmployeeByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotLoggedIn
			}
			return nil, err
		}
		if !s.verifyPassword(ctx, e.Password, req.Password, func(hash string) error {
			return s.repo.SetEmployeePassword(ctx, e.ID, hash)
		}) {
			return nil, ErrNotLoggedIn
		}
		return &domain.Session{
			UserID:   e.ID,
			UserType: domain.UserTypeEmployee,
			Role:     e.Role,
			Name:     e.FirstName + " " + e.LastName,
		}, nil
	}

	c, err := s.repo.GetCustomerByEmail(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	if !s.verifyPassword(ctx, c.Password, req.Password, func(hash string) error {
		return s.repo.SetCustomerPassword(ctx, c.ID, hash)
	}) {
		return nil, ErrNotLoggedIn
	}
	if _, err := s.repo.EnsureCart(ctx, c.ID); err != nil {
		return nil, err
	}
	return &domain.Session{
		UserID:   c.ID,
		UserType: domain.UserTypeCustomer,
		Name:     c.FirstName + " " + c.LastName,
	}, nil
}

// verifyPassword accepts a bcrypt hash or, for rows predating hashing, the
// plaintext itself. A plaintext match is rehashed through upgrade.
func (s *Service) verifyPassword(ctx context.Context, stored, plain string, upgrade func(hash string) error) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	if stored != plain {
		return false
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err == nil {
		if err := upgrade(string(hash)); err != nil {
			log.Printf("[service] WARN: password upgrade failed: %v", err)
		}
	}
	return true
}

func (s *Service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Session, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.FirstName) == "" {
		return nil, store.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.CreateCustomer(ctx, domain.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Password:  string(hash),
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		UserID:   c.ID,
		UserType: domain.UserTypeCustomer,
		Name:     c.FirstName + " " + c.LastName,
	}, nil
}

// Catalog

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	return s.repo.CreateProduct(ctx, req)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductCreateRequest) (*domain.Product, error) {
	return s.repo.UpdateProduct(ctx, id, req)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) CreateVariant(ctx context.Context, productID int64, req domain.VariantCreateRequest) (*domain.Variant, error) {
	return s.repo.CreateVariant(ctx, productID, req)
}

// Cart

func (s *Service) customerSession(ctx context.Context) (domain.Session, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return domain.Session{}, ErrNotLoggedIn
	}
	if !sess.IsCustomer() {
		return domain.Session{}, ErrForbidden
	}
	return sess, nil
}

func (s *Service) employeeSession(ctx context.Context) (domain.Session, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return domain.Session{}, ErrNotLoggedIn
	}
	if !sess.IsEmployee() {
		return domain.Session{}, ErrForbidden
	}
	return sess, nil
}

func (s *Service) ListCart(ctx context.Context) ([]domain.CartItem, error) {
	sess, err := s.customerSession(ctx)
	if err != nil {
		return nil, err
	}
	cartID, err := s.repo.EnsureCart(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCartItems(ctx, cartID)
}

func (s *Service) AddToCart(ctx context.Context, req domain.CartAddRequest) error {
	sess, err := s.customerSession(ctx)
	if err != nil {
		return err
	}
	if req.VariantID < 1 {
		return store.ErrInvalidInput
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	cartID, err := s.repo.EnsureCart(ctx, sess.UserID)
	if err != nil {
		return err
	}
	return s.repo.AddCartItem(ctx, cartID, req.VariantID, quantity)
}

func (s *Service) UpdateCartItem(ctx context.Context, variantID int64, quantity int) error {
	sess, err := s.customerSession(ctx)
	if err != nil {
		return err
	}
	cartID, err := s.repo.EnsureCart(ctx, sess.UserID)
	if err != nil {
		return err
	}
	return s.repo.SetCartItemQuantity(ctx, cartID, variantID, quantity)
}

func (s *Service) RemoveCartItem(ctx context.Context, variantID int64) error {
	sess, err := s.customerSession(ctx)
	if err != nil {
		return err
	}
	cartID, err := s.repo.EnsureCart(ctx, sess.UserID)
	if err != nil {
		return err
	}
	return s.repo.RemoveCartItem(ctx, cartID, variantID)
}

// Payment info

func (s *Service) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	sess, err := s.customerSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPaymentMethods(ctx, sess.UserID)
}

func (s *Service) AddPaymentMethod(ctx context.Context, req domain.PaymentMethodCreateRequest) (*domain.PaymentMethod, error) {
	sess, err := s.customerSession(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.CardNumber) == "" {
		return nil, store.ErrInvalidInput
	}
	return s.repo.AddPaymentMethod(ctx, domain.PaymentMethod{
		CustomerID:     sess.UserID,
		CardType:       req.CardType,
		CardHolderName: req.CardHolderName,
		CardNumber:     strings.ReplaceAll(req.CardNumber, " ", ""),
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		CVV:            req.CVV,
		IsDefault:      req.IsDefault,
	})
}

func (s *Service) DeletePaymentMethod(ctx context.Context, paymentID int64) error {
	sess, err := s.customerSession(ctx)
	if err != nil {
		return err
	}
	return s.repo.DeletePaymentMethod(ctx, sess.UserID, paymentID)
}

// Orders

func (s *Service) ListOrders(ctx context.Context) ([]domain.OrderSummary, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrNotLoggedIn
	}
	if sess.IsCustomer() {
		return s.repo.ListCustomerOrders(ctx, sess.UserID)
	}
	return s.repo.ListEmployeeOrders(ctx, sess.UserID, sess.Role)
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrNotLoggedIn
	}
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sess.IsCustomer() && order.CustomerID != sess.UserID {
		return nil, ErrForbidden
	}
	return order, nil
}

// PlaceOrder requires at least one stored payment method before the cart is
// turned into a Pending order.
func (s *Service) PlaceOrder(ctx context.Context) (*domain.Order, error) {
	sess, err := s.customerSession(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountPaymentMethods(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, store.ErrPaymentInfoRequired
	}
	return s.repo.PlaceOrder(ctx, sess.UserID, s.defaultWarehouseID)
}

func (s *Service) AcceptOrder(ctx context.Context, orderID int64) error {
	sess, err := s.employeeSession(ctx)
	if err != nil {
		return err
	}
	return s.repo.AcceptOrder(ctx, orderID, sess.UserID)
}

func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	if _, err := s.employeeSession(ctx); err != nil {
		return err
	}
	if !domain.ValidOrderStatus(status) {
		return store.ErrInvalidInput
	}
	return s.repo.UpdateOrderStatus(ctx, orderID, status)
}

// Inventory

func (s *Service) ListVariantStock(ctx context.Context) ([]domain.VariantStock, error) {
	return s.repo.ListVariantStock(ctx)
}

func (s *Service) GetVariantStock(ctx context.Context, variantID int64) (*domain.VariantStock, error) {
	return s.repo.GetVariantStock(ctx, variantID)
}

// UpdateStock sets an absolute quantity at the default warehouse. The RECEIPT
// movement is logged best-effort; the bool reports whether it was recorded.
func (s *Service) UpdateStock(ctx context.Context, variantID int64, quantity int) (bool, error) {
	sess, err := s.employeeSession(ctx)
	if err != nil {
		return false, err
	}
	if quantity < 0 {
		return false, store.ErrInvalidInput
	}

	current, err := s.repo.GetVariantStock(ctx, variantID)
	if err != nil {
		return false, err
	}

	movement := &domain.InventoryMovement{
		WarehouseID:  s.defaultWarehouseID,
		VariantID:    variantID,
		MovementType: domain.MovementReceipt,
		QtyChange:    quantity - current.StockQuantity,
		EmployeeID:   &sess.UserID,
		RefType:      "adjustment",
	}
	logged, err := s.repo.SetStock(ctx, s.defaultWarehouseID, variantID, quantity, movement)
	if err != nil {
		return false, err
	}
	if !logged {
		log.Printf("[service] WARN: stock movement not logged for variant %d", variantID)
	}
	return logged, nil
}

func (s *Service) ListMovements(ctx context.Context, limit int) ([]domain.InventoryMovement, error) {
	return s.repo.ListMovements(ctx, limit)
}

// Purchases

func (s *Service) ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error) {
	return s.repo.ListPurchases(ctx, limit)
}

func (s *Service) CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest) (*domain.Purchase, bool, error) {
	sess, err := s.employeeSession(ctx)
	if err != nil {
		return nil, false, err
	}
	purchase, logged, err := s.repo.CreatePurchase(ctx, req, s.defaultWarehouseID, sess.UserID)
	if err != nil {
		return nil, false, err
	}
	if !logged {
		log.Printf("[service] WARN: purchase movement not logged for purchase %d", purchase.ID)
	}
	return purchase, logged, nil
}

// Employees

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeCreateRequest) (*domain.Employee, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, store.ErrInvalidInput
	}
	role := req.Role
	if role == "" {
		role = domain.RoleStaff
	}
	if role != domain.RoleAdmin && role != domain.RoleStaff {
		return nil, store.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateEmployee(ctx, domain.Employee{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  string(hash),
		Role:      role,
		Phone:     req.Phone,
		Salary:    req.Salary,
	})
}

func (s *Service) UpdateEmployee(ctx context.Context, id int64, req domain.EmployeeUpdateRequest) (*domain.Employee, error) {
	if req.Role != nil && *req.Role != domain.RoleAdmin && *req.Role != domain.RoleStaff {
		return nil, store.ErrInvalidInput
	}
	return s.repo.UpdateEmployee(ctx, id, req)
}

func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	return s.repo.DeleteEmployee(ctx, id)
}

// Reporting

func (s *Service) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	return s.repo.GetAdminStats(ctx)
}

func (s *Service) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	return s.repo.TopProducts(ctx, limit)
}
