// Package store defines the persistence contract shared by the postgres and
// in-memory implementations.
package store

import (
	"context"
	"errors"

	"ashhabsport/backend/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicate           = errors.New("duplicate")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrPaymentInfoRequired = errors.New("payment info required")
	ErrOrderNotPending     = errors.New("order is not pending")
)

// Repository is the full persistence surface. The postgres implementation is
// authoritative; the memory implementation mirrors its semantics for tests
// and database-less development.
type Repository interface {
	// Catalog
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, req domain.ProductCreateRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	CreateVariant(ctx context.Context, productID int64, req domain.VariantCreateRequest) (*domain.Variant, error)

	// Accounts
	GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetEmployeeByUsername(ctx context.Context, username string) (*domain.Employee, error)
	SetCustomerPassword(ctx context.Context, id int64, hash string) error
	SetEmployeePassword(ctx context.Context, id int64, hash string) error
	// CreateCustomer also creates the customer's cart in the same transaction.
	CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)

	// Cart
	EnsureCart(ctx context.Context, customerID int64) (int64, error)
	ListCartItems(ctx context.Context, cartID int64) ([]domain.CartItem, error)
	AddCartItem(ctx context.Context, cartID, variantID int64, quantity int) error
	SetCartItemQuantity(ctx context.Context, cartID, variantID int64, quantity int) error
	RemoveCartItem(ctx context.Context, cartID, variantID int64) error

	// Payment info
	ListPaymentMethods(ctx context.Context, customerID int64) ([]domain.PaymentMethod, error)
	CountPaymentMethods(ctx context.Context, customerID int64) (int, error)
	AddPaymentMethod(ctx context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, customerID, paymentID int64) error

	// Orders
	ListCustomerOrders(ctx context.Context, customerID int64) ([]domain.OrderSummary, error)
	ListEmployeeOrders(ctx context.Context, employeeID int64, role string) ([]domain.OrderSummary, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	PlaceOrder(ctx context.Context, customerID, warehouseID int64) (*domain.Order, error)
	AcceptOrder(ctx context.Context, orderID, employeeID int64) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error

	// Inventory
	ListVariantStock(ctx context.Context) ([]domain.VariantStock, error)
	GetVariantStock(ctx context.Context, variantID int64) (*domain.VariantStock, error)
	// SetStock upserts an absolute quantity; the movement, when non-nil, is
	// logged best-effort and its success reported in the bool.
	SetStock(ctx context.Context, warehouseID, variantID int64, quantity int, movement *domain.InventoryMovement) (bool, error)
	ListMovements(ctx context.Context, limit int) ([]domain.InventoryMovement, error)

	// Purchases
	ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error)
	// CreatePurchase resolves the supplier by name (creating it when unknown),
	// writes header and line, adds the quantity to stock, and logs a RECEIPT
	// movement best-effort. The bool reports whether the movement was logged.
	CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest, warehouseID, employeeID int64) (*domain.Purchase, bool, error)

	// Employees
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	CreateEmployee(ctx context.Context, e domain.Employee) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, req domain.EmployeeUpdateRequest) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error

	// Reporting
	GetAdminStats(ctx context.Context) (*domain.AdminStats, error)
	TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error)
}
