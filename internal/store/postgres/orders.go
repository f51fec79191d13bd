package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/store"
)

func (s *Store) ListCustomerOrders(ctx context.Context, customerID int64) ([]domain.OrderSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, order_date, status, total_amount
		FROM orders
		WHERE customer_id = $1
		ORDER BY order_date DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrderSummaries(rows, false)
}

// ListEmployeeOrders returns every order for ADMIN; for STAFF it returns
// Pending orders plus orders the employee accepted themselves.
func (s *Store) ListEmployeeOrders(ctx context.Context, employeeID int64, role string) ([]domain.OrderSummary, error) {
	query := `
		SELECT o.order_id, o.order_date, o.status, o.total_amount,
			c.first_name || ' ' || c.last_name,
			COALESCE(e.first_name || ' ' || e.last_name, '')
		FROM orders o
		JOIN customer c ON c.customer_id = o.customer_id
		LEFT JOIN employee e ON e.employee_id = o.employee_id
	`
	args := []any{}
	if role != domain.RoleAdmin {
		query += ` WHERE o.status = 'Pending' OR o.employee_id = $1`
		args = append(args, employeeID)
	}
	query += ` ORDER BY o.order_date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrderSummaries(rows, true)
}

func scanOrderSummaries(rows *sql.Rows, withNames bool) ([]domain.OrderSummary, error) {
	orders := make([]domain.OrderSummary, 0, 32)
	for rows.Next() {
		var o domain.OrderSummary
		var err error
		if withNames {
			err = rows.Scan(&o.ID, &o.OrderDate, &o.Status, &o.TotalAmount, &o.CustomerName, &o.EmployeeName)
		} else {
			err = rows.Scan(&o.ID, &o.OrderDate, &o.Status, &o.TotalAmount)
		}
		if err != nil {
			return nil, err
		}
		o.OrderDate = o.OrderDate.UTC()
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var o domain.Order
	var employeeID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT o.order_id, o.customer_id, o.employee_id, o.warehouse_id, o.order_date,
			o.status, o.total_amount, c.first_name || ' ' || c.last_name
		FROM orders o
		JOIN customer c ON c.customer_id = o.customer_id
		WHERE o.order_id = $1
	`, orderID).Scan(&o.ID, &o.CustomerID, &employeeID, &o.WarehouseID, &o.OrderDate,
		&o.Status, &o.TotalAmount, &o.CustomerName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if employeeID.Valid {
		o.EmployeeID = &employeeID.Int64
	}
	o.OrderDate = o.OrderDate.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.variant_id, d.quantity, d.price,
			p.product_id, p.product_name, v.size, v.color
		FROM order_detail d
		JOIN product_variant v ON v.variant_id = d.variant_id
		JOIN product p ON p.product_id = v.product_id
		WHERE d.order_id = $1
		ORDER BY d.variant_id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	o.Items = make([]domain.OrderLine, 0, 8)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.VariantID, &line.Quantity, &line.Price,
			&line.ProductID, &line.ProductName, &line.Size, &line.Color); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

// PlaceOrder turns the customer's cart into a Pending order at live catalog
// prices: stock is checked but not locked or deducted, the header and lines
// are written, and the cart is cleared, all in one transaction.
func (s *Store) PlaceOrder(ctx context.Context, customerID, warehouseID int64) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var cartID int64
	err = tx.QueryRowContext(ctx, `SELECT cart_id FROM cart WHERE customer_id = $1`, customerID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrEmptyCart
		}
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT ci.variant_id, ci.quantity, p.price, COALESCE(SUM(st.quantity), 0)
		FROM cart_item ci
		JOIN product_variant v ON v.variant_id = ci.variant_id
		JOIN product p ON p.product_id = v.product_id
		LEFT JOIN stock st ON st.variant_id = ci.variant_id
		WHERE ci.cart_id = $1
		GROUP BY ci.variant_id, ci.quantity, p.price
		ORDER BY ci.variant_id
	`, cartID)
	if err != nil {
		return nil, err
	}

	type cartLine struct {
		variantID int64
		quantity  int
		price     decimal.Decimal
		available int
	}
	lines := make([]cartLine, 0, 8)
	for rows.Next() {
		var l cartLine
		if err := rows.Scan(&l.variantID, &l.quantity, &l.price, &l.available); err != nil {
			_ = rows.Close()
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(lines) == 0 {
		return nil, store.ErrEmptyCart
	}

	total := decimal.Zero
	for _, l := range lines {
		if l.available < l.quantity {
			return nil, store.ErrInsufficientStock
		}
		total = total.Add(l.price.Mul(decimal.NewFromInt(int64(l.quantity))))
	}

	order := domain.Order{
		CustomerID:  customerID,
		WarehouseID: warehouseID,
		Status:      domain.OrderStatusPending,
		TotalAmount: total,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, warehouse_id, status, total_amount)
		VALUES ($1,$2,$3,$4)
		RETURNING order_id, order_date
	`, customerID, warehouseID, order.Status, total).Scan(&order.ID, &order.OrderDate)
	if err != nil {
		return nil, err
	}
	order.OrderDate = order.OrderDate.UTC()

	order.Items = make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_detail (order_id, variant_id, quantity, price)
			VALUES ($1,$2,$3,$4)
		`, order.ID, l.variantID, l.quantity, l.price); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, domain.OrderLine{
			VariantID: l.variantID,
			Quantity:  l.quantity,
			Price:     l.price,
		})
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_item WHERE cart_id = $1`, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}

// AcceptOrder is the authoritative stock deduction: order lines are checked
// against locked stock rows at the order's warehouse, deducted all-or-nothing,
// each deduction logged as a SALE movement, and the order marked Accepted
// with the acting employee.
func (s *Store) AcceptOrder(ctx context.Context, orderID, employeeID int64) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	var warehouseID int64
	err = tx.QueryRowContext(ctx, `
		SELECT status, warehouse_id FROM orders WHERE order_id = $1 FOR UPDATE
	`, orderID).Scan(&status, &warehouseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	if status != domain.OrderStatusPending {
		return store.ErrOrderNotPending
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT variant_id, quantity
		FROM order_detail
		WHERE order_id = $1
		ORDER BY variant_id
	`, orderID)
	if err != nil {
		return err
	}

	type deduction struct {
		variantID int64
		quantity  int
	}
	deductions := make([]deduction, 0, 8)
	for rows.Next() {
		var d deduction
		if err := rows.Scan(&d.variantID, &d.quantity); err != nil {
			_ = rows.Close()
			return err
		}
		deductions = append(deductions, d)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, d := range deductions {
		var available int
		err := tx.QueryRowContext(ctx, `
			SELECT quantity FROM stock
			WHERE warehouse_id = $1 AND variant_id = $2
			FOR UPDATE
		`, warehouseID, d.variantID).Scan(&available)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrInsufficientStock
			}
			return err
		}
		if available < d.quantity {
			return store.ErrInsufficientStock
		}
	}

	for _, d := range deductions {
		res, err := tx.ExecContext(ctx, `
			UPDATE stock
			SET quantity = quantity - $3
			WHERE warehouse_id = $1 AND variant_id = $2 AND quantity >= $3
		`, warehouseID, d.variantID, d.quantity)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrInsufficientStock
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_movement (warehouse_id, variant_id, movement_type, qty_change, employee_id, ref_type, ref_id)
			VALUES ($1,$2,$3,$4,$5,'order',$6)
		`, warehouseID, d.variantID, domain.MovementSale, -d.quantity, employeeID, orderID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, employee_id = $3 WHERE order_id = $1
	`, orderID, domain.OrderStatusAccepted, employeeID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	if !domain.ValidOrderStatus(status) {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE order_id = $1`, orderID, status)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
