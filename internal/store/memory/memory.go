// Package memory implements store.Repository with in-process maps. It backs
// the tests and the database-less development mode, mirroring the postgres
// store's semantics.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/store"
)

type stockKey struct {
	warehouseID int64
	variantID   int64
}

type cartKey struct {
	cartID    int64
	variantID int64
}

type purchaseLine struct {
	variantID int64
	quantity  int
	unitCost  decimal.Decimal
	lineTotal decimal.Decimal
}

type purchaseRecord struct {
	id         int64
	supplierID int64
	date       time.Time
	totalCost  decimal.Decimal
	notes      string
	line       purchaseLine
}

type Store struct {
	mu sync.Mutex

	products map[int64]domain.Product
	variants map[int64]domain.Variant
	stock    map[stockKey]int

	customers map[int64]domain.Customer
	employees map[int64]domain.Employee

	carts     map[int64]int64 // customer_id -> cart_id
	cartItems map[cartKey]int

	payments map[int64]domain.PaymentMethod

	orders     map[int64]domain.Order
	orderItems map[int64][]domain.OrderLine

	suppliers map[int64]domain.Supplier
	purchases map[int64]purchaseRecord
	movements []domain.InventoryMovement

	nextID map[string]int64
}

func New() *Store {
	return &Store{
		products:   make(map[int64]domain.Product),
		variants:   make(map[int64]domain.Variant),
		stock:      make(map[stockKey]int),
		customers:  make(map[int64]domain.Customer),
		employees:  make(map[int64]domain.Employee),
		carts:      make(map[int64]int64),
		cartItems:  make(map[cartKey]int),
		payments:   make(map[int64]domain.PaymentMethod),
		orders:     make(map[int64]domain.Order),
		orderItems: make(map[int64][]domain.OrderLine),
		suppliers:  make(map[int64]domain.Supplier),
		purchases:  make(map[int64]purchaseRecord),
		nextID:     make(map[string]int64),
	}
}

// NewSeeded returns a store preloaded with demo accounts and a small catalog
// so the server is usable without a database.
func NewSeeded() *Store {
	s := New()

	price := func(v string) decimal.Decimal { return decimal.RequireFromString(v) }
	hash := func(plain string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		return string(h)
	}

	s.employees[1] = domain.Employee{
		ID: 1, FirstName: "Admin", LastName: "User", Email: "admin@ashhabsport.test",
		Username: "admin", Password: hash("admin123"), Role: domain.RoleAdmin,
		Salary: price("5000.00"),
	}
	s.employees[2] = domain.Employee{
		ID: 2, FirstName: "Staff", LastName: "One", Email: "staff1@ashhabsport.test",
		Username: "staff1", Password: hash("staff123"), Role: domain.RoleStaff,
		Salary: price("2500.00"),
	}
	s.nextID["employee"] = 2

	s.customers[1] = domain.Customer{
		ID: 1, FirstName: "Demo", LastName: "Customer", Email: "demo@demo.com",
		Password: hash("demo123"), Phone: "0800000000", Address: "1 Demo Street",
	}
	s.carts[1] = 1
	s.nextID["customer"] = 1
	s.nextID["cart"] = 1

	s.products[1] = domain.Product{
		ID: 1, Name: "Pro Running Shoes", Description: "Lightweight road runners",
		Price: price("89.99"), Category: "Footwear", Featured: true,
	}
	s.products[2] = domain.Product{
		ID: 2, Name: "Training Jersey", Description: "Breathable training top",
		Price: price("34.50"), Category: "Apparel",
	}
	s.nextID["product"] = 2

	s.variants[1] = domain.Variant{ID: 1, ProductID: 1, Size: "42", Color: "Black"}
	s.variants[2] = domain.Variant{ID: 2, ProductID: 1, Size: "43", Color: "White"}
	s.variants[3] = domain.Variant{ID: 3, ProductID: 2, Size: "M", Color: "Red"}
	s.nextID["variant"] = 3

	s.stock[stockKey{1, 1}] = 10
	s.stock[stockKey{1, 2}] = 4
	s.stock[stockKey{1, 3}] = 25

	return s
}

func (s *Store) next(kind string) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

func (s *Store) variantStockLocked(variantID int64) int {
	total := 0
	for key, qty := range s.stock {
		if key.variantID == variantID {
			total += qty
		}
	}
	return total
}

// Catalog

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		p.Variants = s.productVariantsLocked(p.ID)
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *Store) productVariantsLocked(productID int64) []domain.Variant {
	variants := make([]domain.Variant, 0, 4)
	for _, v := range s.variants {
		if v.ProductID != productID {
			continue
		}
		v.StockQuantity = s.variantStockLocked(v.ID)
		variants = append(variants, v)
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i].ID < variants[j].ID })
	return variants
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Variants = s.productVariantsLocked(id)
	return &p, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	categories := make([]string, 0, 8)
	for _, p := range s.products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (s *Store) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	if strings.TrimSpace(req.Name) == "" || req.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := domain.Product{
		ID:          s.next("product"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Featured:    req.Featured,
		Variants:    []domain.Variant{},
	}
	s.products[p.ID] = p
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, req domain.ProductCreateRequest) (*domain.Product, error) {
	if strings.TrimSpace(req.Name) == "" || req.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Category = req.Category
	p.ImageURL = req.ImageURL
	p.Featured = req.Featured
	s.products[id] = p

	p.Variants = s.productVariantsLocked(id)
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	for vid, v := range s.variants {
		if v.ProductID != id {
			continue
		}
		delete(s.variants, vid)
		for key := range s.stock {
			if key.variantID == vid {
				delete(s.stock, key)
			}
		}
		for key := range s.cartItems {
			if key.variantID == vid {
				delete(s.cartItems, key)
			}
		}
	}
	return nil
}

func (s *Store) CreateVariant(ctx context.Context, productID int64, req domain.VariantCreateRequest) (*domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return nil, store.ErrNotFound
	}
	v := domain.Variant{
		ID:        s.next("variant"),
		ProductID: productID,
		Size:      req.Size,
		Color:     req.Color,
	}
	s.variants[v.ID] = v
	return &v, nil
}

// Accounts

func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.customers {
		if strings.EqualFold(c.Email, email) {
			found := c
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetEmployeeByUsername(ctx context.Context, username string) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.employees {
		if e.Username == username {
			found := e
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SetCustomerPassword(ctx context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Password = hash
	s.customers[id] = c
	return nil
}

func (s *Store) SetEmployeePassword(ctx context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.employees[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Password = hash
	s.employees[id] = e
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if strings.EqualFold(existing.Email, c.Email) {
			return nil, store.ErrDuplicate
		}
	}

	c.ID = s.next("customer")
	s.customers[c.ID] = c
	s.carts[c.ID] = s.next("cart")
	created := c
	return &created, nil
}

// Cart

func (s *Store) EnsureCart(ctx context.Context, customerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cartID, ok := s.carts[customerID]; ok {
		return cartID, nil
	}
	if _, ok := s.customers[customerID]; !ok {
		return 0, store.ErrNotFound
	}
	cartID := s.next("cart")
	s.carts[customerID] = cartID
	return cartID, nil
}

func (s *Store) ListCartItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CartItem, 0, 8)
	for key, qty := range s.cartItems {
		if key.cartID != cartID {
			continue
		}
		v, ok := s.variants[key.variantID]
		if !ok {
			continue
		}
		p := s.products[v.ProductID]
		items = append(items, domain.CartItem{
			CartID:        cartID,
			VariantID:     key.variantID,
			Quantity:      qty,
			ProductID:     p.ID,
			ProductName:   p.Name,
			Price:         p.Price,
			Category:      p.Category,
			Size:          v.Size,
			Color:         v.Color,
			StockQuantity: s.variantStockLocked(key.variantID),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].VariantID < items[j].VariantID })
	return items, nil
}

func (s *Store) AddCartItem(ctx context.Context, cartID, variantID int64, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.variants[variantID]; !ok {
		return store.ErrNotFound
	}
	s.cartItems[cartKey{cartID, variantID}] += quantity
	return nil
}

func (s *Store) SetCartItemQuantity(ctx context.Context, cartID, variantID int64, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cartKey{cartID, variantID}
	if _, ok := s.cartItems[key]; !ok {
		return store.ErrNotFound
	}
	s.cartItems[key] = quantity
	return nil
}

func (s *Store) RemoveCartItem(ctx context.Context, cartID, variantID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cartKey{cartID, variantID}
	if _, ok := s.cartItems[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.cartItems, key)
	return nil
}

// Payment info

func (s *Store) ListPaymentMethods(ctx context.Context, customerID int64) ([]domain.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods := make([]domain.PaymentMethod, 0, 4)
	for _, pm := range s.payments {
		if pm.CustomerID != customerID {
			continue
		}
		pm.CardNumberMasked = domain.MaskCardNumber(pm.CardNumber)
		pm.CardNumber = ""
		pm.CVV = ""
		methods = append(methods, pm)
	}
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].IsDefault != methods[j].IsDefault {
			return methods[i].IsDefault
		}
		return methods[i].ID < methods[j].ID
	})
	return methods, nil
}

func (s *Store) CountPaymentMethods(ctx context.Context, customerID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, pm := range s.payments {
		if pm.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func (s *Store) AddPaymentMethod(ctx context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	if pm.CardNumber == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if pm.IsDefault {
		for id, existing := range s.payments {
			if existing.CustomerID == pm.CustomerID && existing.IsDefault {
				existing.IsDefault = false
				s.payments[id] = existing
			}
		}
	}

	pm.ID = s.next("payment")
	s.payments[pm.ID] = pm

	created := pm
	created.CardNumberMasked = domain.MaskCardNumber(created.CardNumber)
	created.CardNumber = ""
	created.CVV = ""
	return &created, nil
}

func (s *Store) DeletePaymentMethod(ctx context.Context, customerID, paymentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pm, ok := s.payments[paymentID]
	if !ok || pm.CustomerID != customerID {
		return store.ErrNotFound
	}
	delete(s.payments, paymentID)
	return nil
}

// Orders

func (s *Store) ListCustomerOrders(ctx context.Context, customerID int64) ([]domain.OrderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]domain.OrderSummary, 0, 8)
	for _, o := range s.orders {
		if o.CustomerID != customerID {
			continue
		}
		orders = append(orders, domain.OrderSummary{
			ID: o.ID, OrderDate: o.OrderDate, Status: o.Status, TotalAmount: o.TotalAmount,
		})
	}
	sortSummaries(orders)
	return orders, nil
}

func (s *Store) ListEmployeeOrders(ctx context.Context, employeeID int64, role string) ([]domain.OrderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]domain.OrderSummary, 0, 16)
	for _, o := range s.orders {
		if role != domain.RoleAdmin {
			mine := o.EmployeeID != nil && *o.EmployeeID == employeeID
			if o.Status != domain.OrderStatusPending && !mine {
				continue
			}
		}
		summary := domain.OrderSummary{
			ID: o.ID, OrderDate: o.OrderDate, Status: o.Status, TotalAmount: o.TotalAmount,
		}
		if c, ok := s.customers[o.CustomerID]; ok {
			summary.CustomerName = c.FirstName + " " + c.LastName
		}
		if o.EmployeeID != nil {
			if e, ok := s.employees[*o.EmployeeID]; ok {
				summary.EmployeeName = e.FirstName + " " + e.LastName
			}
		}
		orders = append(orders, summary)
	}
	sortSummaries(orders)
	return orders, nil
}

func sortSummaries(orders []domain.OrderSummary) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID > orders[j].ID
	})
}

func (s *Store) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if c, ok := s.customers[o.CustomerID]; ok {
		o.CustomerName = c.FirstName + " " + c.LastName
	}

	lines := s.orderItems[orderID]
	o.Items = make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		if v, ok := s.variants[line.VariantID]; ok {
			line.Size = v.Size
			line.Color = v.Color
			if p, ok := s.products[v.ProductID]; ok {
				line.ProductID = p.ID
				line.ProductName = p.Name
			}
		}
		o.Items = append(o.Items, line)
	}
	return &o, nil
}

func (s *Store) PlaceOrder(ctx context.Context, customerID, warehouseID int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cartID, ok := s.carts[customerID]
	if !ok {
		return nil, store.ErrEmptyCart
	}

	type cartLine struct {
		variantID int64
		quantity  int
		price     decimal.Decimal
	}
	lines := make([]cartLine, 0, 8)
	for key, qty := range s.cartItems {
		if key.cartID != cartID {
			continue
		}
		v, ok := s.variants[key.variantID]
		if !ok {
			return nil, store.ErrNotFound
		}
		if s.variantStockLocked(key.variantID) < qty {
			return nil, store.ErrInsufficientStock
		}
		lines = append(lines, cartLine{
			variantID: key.variantID,
			quantity:  qty,
			price:     s.products[v.ProductID].Price,
		})
	}
	if len(lines) == 0 {
		return nil, store.ErrEmptyCart
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].variantID < lines[j].variantID })

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.price.Mul(decimal.NewFromInt(int64(l.quantity))))
	}

	order := domain.Order{
		ID:          s.next("order"),
		CustomerID:  customerID,
		WarehouseID: warehouseID,
		OrderDate:   time.Now().UTC(),
		Status:      domain.OrderStatusPending,
		TotalAmount: total,
	}
	items := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderLine{
			VariantID: l.variantID,
			Quantity:  l.quantity,
			Price:     l.price,
		})
	}
	s.orders[order.ID] = order
	s.orderItems[order.ID] = items
	order.Items = items

	for key := range s.cartItems {
		if key.cartID == cartID {
			delete(s.cartItems, key)
		}
	}

	return &order, nil
}

func (s *Store) AcceptOrder(ctx context.Context, orderID, employeeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	if o.Status != domain.OrderStatusPending {
		return store.ErrOrderNotPending
	}

	lines := s.orderItems[orderID]
	for _, line := range lines {
		key := stockKey{o.WarehouseID, line.VariantID}
		if s.stock[key] < line.Quantity {
			return store.ErrInsufficientStock
		}
	}

	for _, line := range lines {
		key := stockKey{o.WarehouseID, line.VariantID}
		s.stock[key] -= line.Quantity
		refID := orderID
		s.movements = append(s.movements, domain.InventoryMovement{
			ID:           s.next("movement"),
			WarehouseID:  o.WarehouseID,
			VariantID:    line.VariantID,
			MovementType: domain.MovementSale,
			QtyChange:    -line.Quantity,
			EmployeeID:   &employeeID,
			RefType:      "order",
			RefID:        &refID,
			CreatedAt:    time.Now().UTC(),
		})
	}

	o.Status = domain.OrderStatusAccepted
	o.EmployeeID = &employeeID
	s.orders[orderID] = o
	return nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	if !domain.ValidOrderStatus(status) {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = status
	s.orders[orderID] = o
	return nil
}

// Inventory

func (s *Store) ListVariantStock(ctx context.Context) ([]domain.VariantStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.VariantStock, 0, len(s.variants))
	for _, v := range s.variants {
		p := s.products[v.ProductID]
		items = append(items, domain.VariantStock{
			VariantID:     v.ID,
			ProductID:     p.ID,
			ProductName:   p.Name,
			Category:      p.Category,
			Price:         p.Price,
			Size:          v.Size,
			Color:         v.Color,
			StockQuantity: s.variantStockLocked(v.ID),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ProductName != items[j].ProductName {
			return items[i].ProductName < items[j].ProductName
		}
		return items[i].VariantID < items[j].VariantID
	})
	return items, nil
}

func (s *Store) GetVariantStock(ctx context.Context, variantID int64) (*domain.VariantStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.variants[variantID]
	if !ok {
		return nil, store.ErrNotFound
	}
	p := s.products[v.ProductID]
	return &domain.VariantStock{
		VariantID:     v.ID,
		ProductID:     p.ID,
		ProductName:   p.Name,
		Category:      p.Category,
		Price:         p.Price,
		Size:          v.Size,
		Color:         v.Color,
		StockQuantity: s.variantStockLocked(v.ID),
	}, nil
}

func (s *Store) SetStock(ctx context.Context, warehouseID, variantID int64, quantity int, movement *domain.InventoryMovement) (bool, error) {
	if quantity < 0 {
		return false, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.variants[variantID]; !ok {
		return false, store.ErrNotFound
	}
	s.stock[stockKey{warehouseID, variantID}] = quantity

	logged := false
	if movement != nil {
		m := *movement
		m.ID = s.next("movement")
		m.CreatedAt = time.Now().UTC()
		s.movements = append(s.movements, m)
		logged = true
	}
	return logged, nil
}

func (s *Store) ListMovements(ctx context.Context, limit int) ([]domain.InventoryMovement, error) {
	if limit < 1 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	movements := make([]domain.InventoryMovement, 0, limit)
	for i := len(s.movements) - 1; i >= 0 && len(movements) < limit; i-- {
		movements = append(movements, s.movements[i])
	}
	return movements, nil
}

// Purchases

func (s *Store) ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error) {
	if limit < 1 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	purchases := make([]domain.Purchase, 0, len(s.purchases))
	for _, rec := range s.purchases {
		pu := domain.Purchase{
			ID:           rec.id,
			SupplierName: s.suppliers[rec.supplierID].Name,
			PurchaseDate: rec.date,
			TotalCost:    rec.totalCost,
			Notes:        rec.notes,
			VariantID:    rec.line.variantID,
			Quantity:     rec.line.quantity,
			UnitCost:     rec.line.unitCost,
			LineTotal:    rec.line.lineTotal,
		}
		if v, ok := s.variants[rec.line.variantID]; ok {
			pu.Size = v.Size
			pu.Color = v.Color
			pu.ProductName = s.products[v.ProductID].Name
		}
		purchases = append(purchases, pu)
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].ID > purchases[j].ID })
	if len(purchases) > limit {
		purchases = purchases[:limit]
	}
	return purchases, nil
}

func (s *Store) CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest, warehouseID, employeeID int64) (*domain.Purchase, bool, error) {
	name := strings.TrimSpace(req.SupplierName)
	if name == "" || req.VariantID < 1 || req.Quantity < 1 || req.UnitCost.IsNegative() {
		return nil, false, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.variants[req.VariantID]; !ok {
		return nil, false, store.ErrNotFound
	}

	var supplierID int64
	for id, sp := range s.suppliers {
		if sp.Name == name {
			supplierID = id
			break
		}
	}
	if supplierID == 0 {
		supplierID = s.next("supplier")
		s.suppliers[supplierID] = domain.Supplier{ID: supplierID, Name: name}
	}

	lineTotal := req.UnitCost.Mul(decimal.NewFromInt(int64(req.Quantity)))
	rec := purchaseRecord{
		id:         s.next("purchase"),
		supplierID: supplierID,
		date:       time.Now().UTC(),
		totalCost:  lineTotal,
		notes:      req.Notes,
		line: purchaseLine{
			variantID: req.VariantID,
			quantity:  req.Quantity,
			unitCost:  req.UnitCost,
			lineTotal: lineTotal,
		},
	}
	s.purchases[rec.id] = rec
	s.stock[stockKey{warehouseID, req.VariantID}] += req.Quantity

	refID := rec.id
	s.movements = append(s.movements, domain.InventoryMovement{
		ID:           s.next("movement"),
		WarehouseID:  warehouseID,
		VariantID:    req.VariantID,
		MovementType: domain.MovementReceipt,
		QtyChange:    req.Quantity,
		EmployeeID:   &employeeID,
		RefType:      "purchase",
		RefID:        &refID,
		CreatedAt:    time.Now().UTC(),
	})

	pu := domain.Purchase{
		ID:           rec.id,
		SupplierName: name,
		PurchaseDate: rec.date,
		TotalCost:    rec.totalCost,
		Notes:        rec.notes,
		VariantID:    req.VariantID,
		Quantity:     req.Quantity,
		UnitCost:     req.UnitCost,
		LineTotal:    lineTotal,
	}
	return &pu, true, nil
}

// Employees

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	employees := make([]domain.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		employees = append(employees, e)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

func (s *Store) CreateEmployee(ctx context.Context, e domain.Employee) (*domain.Employee, error) {
	if strings.TrimSpace(e.Username) == "" || e.Password == "" {
		return nil, store.ErrInvalidInput
	}
	if e.Role == "" {
		e.Role = domain.RoleStaff
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.employees {
		if existing.Username == e.Username {
			return nil, store.ErrDuplicate
		}
	}
	e.ID = s.next("employee")
	s.employees[e.ID] = e
	created := e
	return &created, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, id int64, req domain.EmployeeUpdateRequest) (*domain.Employee, error) {
	if req.Salary == nil && req.Phone == nil && req.Role == nil {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if req.Salary != nil {
		e.Salary = *req.Salary
	}
	if req.Phone != nil {
		e.Phone = *req.Phone
	}
	if req.Role != nil {
		e.Role = *req.Role
	}
	s.employees[id] = e
	updated := e
	return &updated, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.employees, id)
	return nil
}

// Reporting

func (s *Store) GetAdminStats(ctx context.Context) (*domain.AdminStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.AdminStats{
		TotalSales:     decimal.Zero,
		TotalPurchases: decimal.Zero,
		TotalProducts:  len(s.products),
	}
	for _, o := range s.orders {
		stats.TotalOrders++
		switch o.Status {
		case domain.OrderStatusPending:
			stats.PendingOrders++
		case domain.OrderStatusAccepted:
			stats.AcceptedOrders++
			stats.TotalSales = stats.TotalSales.Add(o.TotalAmount)
		case domain.OrderStatusShipped:
			stats.ShippedOrders++
		case domain.OrderStatusCancelled:
			stats.CancelledOrders++
		}
	}
	for _, rec := range s.purchases {
		stats.TotalPurchases = stats.TotalPurchases.Add(rec.totalCost)
	}
	stats.NetEarnings = stats.TotalSales.Sub(stats.TotalPurchases)
	return &stats, nil
}

func (s *Store) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	if limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sold := make(map[int64]*domain.TopProduct)
	for orderID, lines := range s.orderItems {
		o := s.orders[orderID]
		if o.Status != domain.OrderStatusAccepted && o.Status != domain.OrderStatusShipped {
			continue
		}
		for _, line := range lines {
			v, ok := s.variants[line.VariantID]
			if !ok {
				continue
			}
			p := s.products[v.ProductID]
			tp, ok := sold[p.ID]
			if !ok {
				tp = &domain.TopProduct{
					ProductID:    p.ID,
					ProductName:  p.Name,
					Category:     p.Category,
					Price:        p.Price,
					TotalRevenue: decimal.Zero,
				}
				sold[p.ID] = tp
			}
			tp.TotalSold += int64(line.Quantity)
			tp.TotalRevenue = tp.TotalRevenue.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}

	top := make([]domain.TopProduct, 0, len(sold))
	for _, tp := range sold {
		top = append(top, *tp)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].TotalSold != top[j].TotalSold {
			return top[i].TotalSold > top[j].TotalSold
		}
		return top[i].ProductID < top[j].ProductID
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}
