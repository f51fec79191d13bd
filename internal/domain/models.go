package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"product_id"`
	Name        string          `json:"product_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Featured    bool            `json:"featured"`
	Variants    []Variant       `json:"variants,omitempty"`
}

type ProductCreateRequest struct {
	Name        string          `json:"product_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Featured    bool            `json:"featured"`
}

type Variant struct {
	ID            int64  `json:"variant_id"`
	ProductID     int64  `json:"product_id,omitempty"`
	Size          string `json:"size"`
	Color         string `json:"color"`
	StockQuantity int    `json:"stock_quantity"`
}

type VariantCreateRequest struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

// VariantStock is the employee-facing stock view: one row per variant with
// the owning product and the quantity summed across warehouses.
type VariantStock struct {
	VariantID     int64           `json:"variant_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Size          string          `json:"size"`
	Color         string          `json:"color"`
	StockQuantity int             `json:"stock_quantity"`
}

type Customer struct {
	ID        int64  `json:"customer_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type Employee struct {
	ID        int64           `json:"employee_id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	Password  string          `json:"-"`
	Role      string          `json:"role"`
	Phone     string          `json:"phone"`
	Salary    decimal.Decimal `json:"salary"`
}

type EmployeeCreateRequest struct {
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	Password  string          `json:"password"`
	Role      string          `json:"role"`
	Phone     string          `json:"phone"`
	Salary    decimal.Decimal `json:"salary"`
}

// EmployeeUpdateRequest uses pointers so absent fields are left untouched.
type EmployeeUpdateRequest struct {
	Salary *decimal.Decimal `json:"salary,omitempty"`
	Phone  *string          `json:"phone,omitempty"`
	Role   *string          `json:"role,omitempty"`
}

type LoginRequest struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Session is the authenticated identity carried by the signed session cookie
// and threaded through request contexts.
type Session struct {
	UserID   int64
	UserType string
	Role     string
	Name     string
}

func (s Session) IsCustomer() bool { return s.UserType == UserTypeCustomer }
func (s Session) IsEmployee() bool { return s.UserType == UserTypeEmployee }
func (s Session) IsAdmin() bool    { return s.UserType == UserTypeEmployee && s.Role == RoleAdmin }

// SessionUser is the wire form of a session identity.
type SessionUser struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Role string `json:"role,omitempty"`
	Name string `json:"name"`
}

func (s Session) User() SessionUser {
	return SessionUser{ID: s.UserID, Type: s.UserType, Role: s.Role, Name: s.Name}
}

type CartItem struct {
	CartID        int64           `json:"cart_id"`
	VariantID     int64           `json:"variant_id"`
	Quantity      int             `json:"quantity"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	Size          string          `json:"size"`
	Color         string          `json:"color"`
	StockQuantity int             `json:"stock_quantity"`
}

type CartAddRequest struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type CartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

type PaymentMethod struct {
	ID               int64  `json:"payment_info_id"`
	CustomerID       int64  `json:"-"`
	CardType         string `json:"card_type"`
	CardHolderName   string `json:"card_holder_name"`
	CardNumber       string `json:"-"`
	CardNumberMasked string `json:"card_number_masked"`
	ExpiryMonth      int    `json:"expiry_month"`
	ExpiryYear       int    `json:"expiry_year"`
	CVV              string `json:"-"`
	IsDefault        bool   `json:"is_default"`
}

type PaymentMethodCreateRequest struct {
	CardType       string `json:"card_type"`
	CardHolderName string `json:"card_holder_name"`
	CardNumber     string `json:"card_number"`
	ExpiryMonth    int    `json:"expiry_month"`
	ExpiryYear     int    `json:"expiry_year"`
	CVV            string `json:"cvv"`
	IsDefault      bool   `json:"is_default"`
}

type OrderSummary struct {
	ID           int64           `json:"order_id"`
	OrderDate    time.Time       `json:"order_date"`
	Status       string          `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CustomerName string          `json:"customer_name,omitempty"`
	EmployeeName string          `json:"employee_name,omitempty"`
}

type Order struct {
	ID           int64           `json:"order_id"`
	CustomerID   int64           `json:"customer_id"`
	EmployeeID   *int64          `json:"employee_id"`
	WarehouseID  int64           `json:"warehouse_id"`
	OrderDate    time.Time       `json:"order_date"`
	Status       string          `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CustomerName string          `json:"customer_name,omitempty"`
	Items        []OrderLine     `json:"items"`
}

// OrderLine records the price charged at placement; it is never recomputed
// from the catalog afterwards.
type OrderLine struct {
	VariantID   int64           `json:"variant_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
}

type InventoryMovement struct {
	ID           int64     `json:"movement_id"`
	WarehouseID  int64     `json:"warehouse_id"`
	VariantID    int64     `json:"variant_id"`
	MovementType string    `json:"movement_type"`
	QtyChange    int       `json:"qty_change"`
	EmployeeID   *int64    `json:"employee_id"`
	RefType      string    `json:"ref_type"`
	RefID        *int64    `json:"ref_id"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Supplier struct {
	ID      int64  `json:"supplier_id"`
	Name    string `json:"supplier_name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Purchase is a purchase-order header joined with its single line and the
// purchased variant's product info.
type Purchase struct {
	ID           int64           `json:"purchase_id"`
	SupplierName string          `json:"supplier_name"`
	PurchaseDate time.Time       `json:"purchase_date"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Notes        string          `json:"notes,omitempty"`
	VariantID    int64           `json:"variant_id"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	LineTotal    decimal.Decimal `json:"line_total"`
	ProductName  string          `json:"product_name,omitempty"`
	Size         string          `json:"size,omitempty"`
	Color        string          `json:"color,omitempty"`
}

type PurchaseCreateRequest struct {
	SupplierName string          `json:"supplier_name"`
	VariantID    int64           `json:"variant_id"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Notes        string          `json:"notes"`
}

type AdminStats struct {
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalPurchases  decimal.Decimal `json:"total_purchases"`
	NetEarnings     decimal.Decimal `json:"net_earnings"`
	TotalOrders     int             `json:"total_orders"`
	PendingOrders   int             `json:"pending_orders"`
	AcceptedOrders  int             `json:"accepted_orders"`
	ShippedOrders   int             `json:"shipped_orders"`
	CancelledOrders int             `json:"cancelled_orders"`
	TotalProducts   int             `json:"total_products"`
}

type TopProduct struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	TotalSold    int64           `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

const (
	UserTypeCustomer = "customer"
	UserTypeEmployee = "employee"
)

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

const (
	OrderStatusPending   = "Pending"
	OrderStatusAccepted  = "Accepted"
	OrderStatusShipped   = "Shipped"
	OrderStatusCancelled = "Cancelled"
)

const (
	MovementSale    = "SALE"
	MovementReceipt = "RECEIPT"
)

// ValidOrderStatus reports whether s names one of the four order states.
// Transition ordering between states is deliberately not enforced.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusShipped, OrderStatusCancelled:
		return true
	}
	return false
}

// MaskCardNumber keeps the last four digits and blanks the rest.
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return "**** **** **** ****"
	}
	return "**** **** **** " + number[len(number)-4:]
}
