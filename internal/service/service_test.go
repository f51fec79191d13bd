package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/store"
	"ashhabsport/backend/internal/store/memory"
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	return New(repo, 1), repo
}

func customerCtx(id int64) context.Context {
	return WithSession(context.Background(), domain.Session{
		UserID: id, UserType: domain.UserTypeCustomer, Name: "Demo Customer",
	})
}

func employeeCtx(id int64, role string) context.Context {
	return WithSession(context.Background(), domain.Session{
		UserID: id, UserType: domain.UserTypeEmployee, Role: role, Name: "Employee",
	})
}

func addPayment(t *testing.T, svc *Service, ctx context.Context) {
	t.Helper()
	_, err := svc.AddPaymentMethod(ctx, domain.PaymentMethodCreateRequest{
		CardType:       "visa",
		CardHolderName: "Demo Customer",
		CardNumber:     "4111111111111111",
		ExpiryMonth:    12,
		ExpiryYear:     2030,
		CVV:            "123",
	})
	if err != nil {
		t.Fatalf("add payment method: %v", err)
	}
}

func TestLogin_CustomerByEmail(t *testing.T) {
	svc, _ := newTestService()

	sess, err := svc.Login(context.Background(), domain.LoginRequest{
		Role: domain.UserTypeCustomer, Username: "demo@demo.com", Password: "demo123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.UserType != domain.UserTypeCustomer || sess.UserID != 1 {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestLogin_EmployeeByUsername(t *testing.T) {
	svc, _ := newTestService()

	sess, err := svc.Login(context.Background(), domain.LoginRequest{
		Role: domain.UserTypeEmployee, Username: "admin", Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN role, got %q", sess.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Role: domain.UserTypeCustomer, Username: "demo@demo.com", Password: "nope",
	})
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestLogin_PlaintextPasswordUpgraded(t *testing.T) {
	svc, repo := newTestService()

	// Simulate a row predating password hashing.
	if err := repo.SetCustomerPassword(context.Background(), 1, "legacy-pass"); err != nil {
		t.Fatalf("seed plaintext: %v", err)
	}

	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Role: domain.UserTypeCustomer, Username: "demo@demo.com", Password: "legacy-pass",
	}); err != nil {
		t.Fatalf("plaintext login: %v", err)
	}

	c, err := repo.GetCustomerByEmail(context.Background(), "demo@demo.com")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if c.Password == "legacy-pass" {
		t.Fatal("password was not upgraded to a hash")
	}

	// The upgraded hash must still verify.
	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Role: domain.UserTypeCustomer, Username: "demo@demo.com", Password: "legacy-pass",
	}); err != nil {
		t.Fatalf("login after upgrade: %v", err)
	}
}

func TestSignup_CreatesEmptyCart(t *testing.T) {
	svc, _ := newTestService()

	sess, err := svc.Signup(context.Background(), domain.SignupRequest{
		FirstName: "New", LastName: "Customer",
		Email: "new@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	items, err := svc.ListCart(customerCtx(sess.UserID))
	if err != nil {
		t.Fatalf("list cart after signup: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Signup(context.Background(), domain.SignupRequest{
		FirstName: "Dup", Email: "demo@demo.com", Password: "secret1",
	})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAddToCart_Increments(t *testing.T) {
	svc, _ := newTestService()
	ctx := customerCtx(1)

	if err := svc.AddToCart(ctx, domain.CartAddRequest{VariantID: 1, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := svc.AddToCart(ctx, domain.CartAddRequest{VariantID: 1, Quantity: 3}); err != nil {
		t.Fatalf("second add: %v", err)
	}

	items, err := svc.ListCart(ctx)
	if err != nil {
		t.Fatalf("list cart: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one line, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", items[0].Quantity)
	}
}

func TestPlaceOrder_RequiresPaymentInfo(t *testing.T) {
	svc, _ := newTestService()
	ctx := customerCtx(1)

	if err := svc.AddToCart(ctx, domain.CartAddRequest{VariantID: 1, Quantity: 1}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	_, err := svc.PlaceOrder(ctx)
	if !errors.Is(err, store.ErrPaymentInfoRequired) {
		t.Fatalf("expected ErrPaymentInfoRequired, got %v", err)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc, _ := newTestService()
	ctx := customerCtx(1)
	addPayment(t, svc, ctx)

	_, err := svc.PlaceOrder(ctx)
	if !errors.Is(err, store.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestPlaceOrder_LivePriceTotalAndCartCleared(t *testing.T) {
	svc, _ := newTestService()
	ctx := customerCtx(1)
	addPayment(t, svc, ctx)

	// 2 x 89.99 + 1 x 34.50 = 214.48
	if err := svc.AddToCart(ctx, domain.CartAddRequest{VariantID: 1, Quantity: 2}); err != nil {
		t.Fatalf("add variant 1: %v", err)
	}
	if err := svc.AddToCart(ctx, domain.CartAddRequest{VariantID: 3, Quantity: 1}); err != nil {
		t.Fatalf("add variant 3: %v", err)
	}

	order, err := svc.PlaceOrder(ctx)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected Pending, got %q", order.Status)
	}
	want := decimal.RequireFromString("214.48")
	if !order.TotalAmount.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.TotalAmount)
	}

	items, err := svc.ListCart(ctx)
	if err != nil {
		t.Fatalf("list cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected cleared cart, got %d items", len(items))
	}

	// Placement does not deduct stock.
	vs, err := svc.GetVariantStock(ctx, 1)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if vs.StockQuantity != 10 {
		t.Fatalf("expected stock 10 after placement, got %d", vs.StockQuantity)
	}
}

func TestPlaceOrder_InsufficientStockLeavesStateUnchanged(t *testing.T) {
	svc, _ := newTestService()
	ctx := customerCtx(1)
	addPayment(t, svc, ctx)

	// Variant 2 has 4 in stock.
	if err := svc.AddToCart(ctx, domain.CartAddRequest{VariantID: 2, Quantity: 5}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	_, err := svc.PlaceOrder(ctx)
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Cart intact, no order created.
	items, err := svc.ListCart(ctx)
	if err != nil {
		t.Fatalf("list cart: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Fatalf("cart changed after failed placement: %+v", items)
	}
	orders, err := svc.ListOrders(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(orders))
	}
}

func placeTestOrder(t *testing.T, svc *Service, variantID int64, qty int) *domain.Order {
	t.Helper()
	ctx := customerCtx(1)
	addPayment(t, svc, ctx)
	if err := svc.AddToCart(ctx, domain.CartAddRequest{VariantID: variantID, Quantity: qty}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	order, err := svc.PlaceOrder(ctx)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return order
}

func TestAcceptOrder_DeductsStockAndLogsMovement(t *testing.T) {
	svc, _ := newTestService()
	order := placeTestOrder(t, svc, 1, 3)

	staff := employeeCtx(2, domain.RoleStaff)
	if err := svc.AcceptOrder(staff, order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	vs, err := svc.GetVariantStock(staff, 1)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if vs.StockQuantity != 7 {
		t.Fatalf("expected stock 7 after acceptance, got %d", vs.StockQuantity)
	}

	accepted, err := svc.GetOrder(staff, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if accepted.Status != domain.OrderStatusAccepted {
		t.Fatalf("expected Accepted, got %q", accepted.Status)
	}
	if accepted.EmployeeID == nil || *accepted.EmployeeID != 2 {
		t.Fatalf("expected accepting employee 2, got %v", accepted.EmployeeID)
	}

	movements, err := svc.ListMovements(staff, 10)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected one movement, got %d", len(movements))
	}
	m := movements[0]
	if m.MovementType != domain.MovementSale || m.QtyChange != -3 || m.RefType != "order" {
		t.Fatalf("unexpected movement: %+v", m)
	}
	if m.RefID == nil || *m.RefID != order.ID {
		t.Fatalf("movement not linked to order: %+v", m)
	}
}

func TestAcceptOrder_TwiceFails(t *testing.T) {
	svc, _ := newTestService()
	order := placeTestOrder(t, svc, 1, 1)

	staff := employeeCtx(2, domain.RoleStaff)
	if err := svc.AcceptOrder(staff, order.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	err := svc.AcceptOrder(staff, order.ID)
	if !errors.Is(err, store.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
}

func TestAcceptOrder_InsufficientStockIsAtomic(t *testing.T) {
	svc, repo := newTestService()
	order := placeTestOrder(t, svc, 2, 4)

	// Stock drained between placement and acceptance.
	admin := employeeCtx(1, domain.RoleAdmin)
	if _, err := repo.SetStock(context.Background(), 1, 2, 1, nil); err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	err := svc.AcceptOrder(admin, order.ID)
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Order stays Pending, stock untouched, no movement written.
	got, err := svc.GetOrder(admin, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.OrderStatusPending {
		t.Fatalf("expected Pending after failed accept, got %q", got.Status)
	}
	vs, err := svc.GetVariantStock(admin, 2)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if vs.StockQuantity != 1 {
		t.Fatalf("expected stock 1, got %d", vs.StockQuantity)
	}
	movements, err := svc.ListMovements(admin, 10)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("expected no movements, got %d", len(movements))
	}
}

func TestUpdateOrderStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService()
	order := placeTestOrder(t, svc, 1, 1)

	admin := employeeCtx(1, domain.RoleAdmin)
	err := svc.UpdateOrderStatus(admin, order.ID, "Delivered")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.UpdateOrderStatus(admin, order.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}

func TestGetOrder_CustomerCannotReadOthers(t *testing.T) {
	svc, _ := newTestService()
	order := placeTestOrder(t, svc, 1, 1)

	other, err := svc.Signup(context.Background(), domain.SignupRequest{
		FirstName: "Other", Email: "other@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err = svc.GetOrder(customerCtx(other.UserID), order.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListOrders_StaffSeesPendingAndOwn(t *testing.T) {
	svc, _ := newTestService()
	first := placeTestOrder(t, svc, 1, 1)

	ctx := customerCtx(1)
	if err := svc.AddToCart(ctx, domain.CartAddRequest{VariantID: 3, Quantity: 1}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	second, err := svc.PlaceOrder(ctx)
	if err != nil {
		t.Fatalf("place second order: %v", err)
	}

	// Staff 2 accepts the first order; a different staff member should then
	// see only the still-pending second order.
	staff2 := employeeCtx(2, domain.RoleStaff)
	if err := svc.AcceptOrder(staff2, first.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	mine, err := svc.ListOrders(staff2)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("staff 2 expected 2 orders, got %d", len(mine))
	}

	staff3 := employeeCtx(3, domain.RoleStaff)
	others, err := svc.ListOrders(staff3)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(others) != 1 || others[0].ID != second.ID {
		t.Fatalf("staff 3 expected only pending order %d, got %+v", second.ID, others)
	}

	admin := employeeCtx(1, domain.RoleAdmin)
	all, err := svc.ListOrders(admin)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin expected 2 orders, got %d", len(all))
	}
}

func TestCreatePurchase_AddsStockAndTotals(t *testing.T) {
	svc, _ := newTestService()
	admin := employeeCtx(1, domain.RoleAdmin)

	purchase, logged, err := svc.CreatePurchase(admin, domain.PurchaseCreateRequest{
		SupplierName: "Acme Sports Supply",
		VariantID:    1,
		Quantity:     5,
		UnitCost:     decimal.RequireFromString("10.00"),
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if !logged {
		t.Fatal("expected movement to be logged")
	}
	want := decimal.RequireFromString("50.00")
	if !purchase.TotalCost.Equal(want) || !purchase.LineTotal.Equal(want) {
		t.Fatalf("expected totals %s, got total=%s line=%s", want, purchase.TotalCost, purchase.LineTotal)
	}

	vs, err := svc.GetVariantStock(admin, 1)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if vs.StockQuantity != 15 {
		t.Fatalf("expected stock 15 after purchase, got %d", vs.StockQuantity)
	}

	movements, err := svc.ListMovements(admin, 10)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 || movements[0].MovementType != domain.MovementReceipt || movements[0].QtyChange != 5 {
		t.Fatalf("unexpected movements: %+v", movements)
	}
}

func TestCreatePurchase_ReusesSupplierByName(t *testing.T) {
	svc, _ := newTestService()
	admin := employeeCtx(1, domain.RoleAdmin)

	for i := 0; i < 2; i++ {
		if _, _, err := svc.CreatePurchase(admin, domain.PurchaseCreateRequest{
			SupplierName: "Acme Sports Supply",
			VariantID:    1,
			Quantity:     1,
			UnitCost:     decimal.RequireFromString("2.50"),
		}); err != nil {
			t.Fatalf("purchase %d: %v", i, err)
		}
	}

	purchases, err := svc.ListPurchases(admin, 10)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(purchases) != 2 {
		t.Fatalf("expected 2 purchases, got %d", len(purchases))
	}
	for _, p := range purchases {
		if p.SupplierName != "Acme Sports Supply" {
			t.Fatalf("unexpected supplier: %q", p.SupplierName)
		}
	}
}

func TestCreatePurchase_RejectsBadInput(t *testing.T) {
	svc, _ := newTestService()
	admin := employeeCtx(1, domain.RoleAdmin)

	cases := []domain.PurchaseCreateRequest{
		{SupplierName: "", VariantID: 1, Quantity: 1, UnitCost: decimal.RequireFromString("1.00")},
		{SupplierName: "Acme", VariantID: 1, Quantity: 0, UnitCost: decimal.RequireFromString("1.00")},
		{SupplierName: "Acme", VariantID: 1, Quantity: 1, UnitCost: decimal.RequireFromString("-1.00")},
	}
	for i, req := range cases {
		if _, _, err := svc.CreatePurchase(admin, req); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestUpdateStock_AbsoluteWithMovement(t *testing.T) {
	svc, _ := newTestService()
	admin := employeeCtx(1, domain.RoleAdmin)

	logged, err := svc.UpdateStock(admin, 1, 42)
	if err != nil {
		t.Fatalf("update stock: %v", err)
	}
	if !logged {
		t.Fatal("expected movement to be logged")
	}

	vs, err := svc.GetVariantStock(admin, 1)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if vs.StockQuantity != 42 {
		t.Fatalf("expected stock 42, got %d", vs.StockQuantity)
	}

	movements, err := svc.ListMovements(admin, 10)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 || movements[0].QtyChange != 32 || movements[0].RefType != "adjustment" {
		t.Fatalf("unexpected movements: %+v", movements)
	}
}

func TestAdminStats_CountsAcceptedSalesOnly(t *testing.T) {
	svc, _ := newTestService()
	order := placeTestOrder(t, svc, 1, 2)

	admin := employeeCtx(1, domain.RoleAdmin)
	stats, err := svc.AdminStats(admin)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.TotalSales.IsZero() {
		t.Fatalf("pending order must not count as sales, got %s", stats.TotalSales)
	}
	if stats.PendingOrders != 1 || stats.TotalOrders != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}

	if err := svc.AcceptOrder(admin, order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	stats, err = svc.AdminStats(admin)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := decimal.RequireFromString("179.98")
	if !stats.TotalSales.Equal(want) {
		t.Fatalf("expected sales %s, got %s", want, stats.TotalSales)
	}
	if stats.AcceptedOrders != 1 || stats.PendingOrders != 0 {
		t.Fatalf("unexpected counts after accept: %+v", stats)
	}
}

func TestTopProducts_OverAcceptedAndShipped(t *testing.T) {
	svc, _ := newTestService()
	order := placeTestOrder(t, svc, 1, 2)

	admin := employeeCtx(1, domain.RoleAdmin)

	top, err := svc.TopProducts(admin, 10)
	if err != nil {
		t.Fatalf("top products: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("pending orders must not appear, got %+v", top)
	}

	if err := svc.AcceptOrder(admin, order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	top, err = svc.TopProducts(admin, 10)
	if err != nil {
		t.Fatalf("top products: %v", err)
	}
	if len(top) != 1 || top[0].ProductID != 1 || top[0].TotalSold != 2 {
		t.Fatalf("unexpected top products: %+v", top)
	}
	wantRevenue := decimal.RequireFromString("179.98")
	if !top[0].TotalRevenue.Equal(wantRevenue) {
		t.Fatalf("expected revenue %s, got %s", wantRevenue, top[0].TotalRevenue)
	}
}

func TestEmployeeCRUD(t *testing.T) {
	svc, _ := newTestService()
	admin := employeeCtx(1, domain.RoleAdmin)

	created, err := svc.CreateEmployee(admin, domain.EmployeeCreateRequest{
		FirstName: "New", LastName: "Hire", Username: "newhire",
		Password: "hire123", Salary: decimal.RequireFromString("2000.00"),
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if created.Role != domain.RoleStaff {
		t.Fatalf("expected default STAFF role, got %q", created.Role)
	}

	// New hire can log in with the hashed password.
	if _, err := svc.Login(context.Background(), domain.LoginRequest{
		Role: domain.UserTypeEmployee, Username: "newhire", Password: "hire123",
	}); err != nil {
		t.Fatalf("new hire login: %v", err)
	}

	salary := decimal.RequireFromString("2400.00")
	updated, err := svc.UpdateEmployee(admin, created.ID, domain.EmployeeUpdateRequest{Salary: &salary})
	if err != nil {
		t.Fatalf("update employee: %v", err)
	}
	if !updated.Salary.Equal(salary) {
		t.Fatalf("expected salary %s, got %s", salary, updated.Salary)
	}

	if err := svc.DeleteEmployee(admin, created.ID); err != nil {
		t.Fatalf("delete employee: %v", err)
	}
	if err := svc.DeleteEmployee(admin, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCartOpsRequireCustomerSession(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.ListCart(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if _, err := svc.ListCart(employeeCtx(1, domain.RoleAdmin)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
