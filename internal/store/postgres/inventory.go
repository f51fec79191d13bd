package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/store"
)

func (s *Store) ListVariantStock(ctx context.Context) ([]domain.VariantStock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.variant_id, p.product_id, p.product_name, p.category, p.price,
			v.size, v.color, COALESCE(SUM(st.quantity), 0)
		FROM product_variant v
		JOIN product p ON p.product_id = v.product_id
		LEFT JOIN stock st ON st.variant_id = v.variant_id
		GROUP BY v.variant_id, p.product_id, p.product_name, p.category, p.price, v.size, v.color
		ORDER BY p.product_name, v.variant_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.VariantStock, 0, 64)
	for rows.Next() {
		var vs domain.VariantStock
		if err := rows.Scan(&vs.VariantID, &vs.ProductID, &vs.ProductName, &vs.Category, &vs.Price,
			&vs.Size, &vs.Color, &vs.StockQuantity); err != nil {
			return nil, err
		}
		items = append(items, vs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetVariantStock(ctx context.Context, variantID int64) (*domain.VariantStock, error) {
	var vs domain.VariantStock
	err := s.db.QueryRowContext(ctx, `
		SELECT v.variant_id, p.product_id, p.product_name, p.category, p.price,
			v.size, v.color, COALESCE(SUM(st.quantity), 0)
		FROM product_variant v
		JOIN product p ON p.product_id = v.product_id
		LEFT JOIN stock st ON st.variant_id = v.variant_id
		WHERE v.variant_id = $1
		GROUP BY v.variant_id, p.product_id, p.product_name, p.category, p.price, v.size, v.color
	`, variantID).Scan(&vs.VariantID, &vs.ProductID, &vs.ProductName, &vs.Category, &vs.Price,
		&vs.Size, &vs.Color, &vs.StockQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &vs, nil
}

// SetStock writes an absolute quantity for the variant at the warehouse. The
// movement insert runs after the commit and its failure is reported, never
// propagated.
func (s *Store) SetStock(ctx context.Context, warehouseID, variantID int64, quantity int, movement *domain.InventoryMovement) (bool, error) {
	if quantity < 0 {
		return false, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO stock (warehouse_id, variant_id, quantity)
		VALUES ($1,$2,$3)
		ON CONFLICT (warehouse_id, variant_id)
		DO UPDATE SET quantity = EXCLUDED.quantity
	`, warehouseID, variantID, quantity)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, store.ErrNotFound
		}
		return false, err
	}
	if _, err := res.RowsAffected(); err != nil {
		return false, err
	}

	logged := false
	if movement != nil {
		logged = s.insertMovement(ctx, s.db.ExecContext, *movement) == nil
	}
	return logged, nil
}

type execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)

func (s *Store) insertMovement(ctx context.Context, exec execFunc, m domain.InventoryMovement) error {
	var employeeID, refID any
	if m.EmployeeID != nil {
		employeeID = *m.EmployeeID
	}
	if m.RefID != nil {
		refID = *m.RefID
	}
	_, err := exec(ctx, `
		INSERT INTO inventory_movement (warehouse_id, variant_id, movement_type, qty_change, employee_id, ref_type, ref_id, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, m.WarehouseID, m.VariantID, m.MovementType, m.QtyChange, employeeID, m.RefType, refID, m.Note)
	return err
}

func (s *Store) ListMovements(ctx context.Context, limit int) ([]domain.InventoryMovement, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT movement_id, warehouse_id, variant_id, movement_type, qty_change,
			employee_id, ref_type, ref_id, note, created_at
		FROM inventory_movement
		ORDER BY movement_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.InventoryMovement, 0, limit)
	for rows.Next() {
		var m domain.InventoryMovement
		var employeeID, refID sql.NullInt64
		if err := rows.Scan(&m.ID, &m.WarehouseID, &m.VariantID, &m.MovementType, &m.QtyChange,
			&employeeID, &m.RefType, &refID, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		if employeeID.Valid {
			m.EmployeeID = &employeeID.Int64
		}
		if refID.Valid {
			m.RefID = &refID.Int64
		}
		m.CreatedAt = m.CreatedAt.UTC()
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT po.purchase_id, sp.supplier_name, po.purchase_date, po.total_cost, po.notes,
			d.variant_id, d.quantity, d.unit_cost, d.line_total,
			p.product_name, v.size, v.color
		FROM purchase_order po
		JOIN supplier sp ON sp.supplier_id = po.supplier_id
		JOIN purchase_order_detail d ON d.purchase_id = po.purchase_id
		JOIN product_variant v ON v.variant_id = d.variant_id
		JOIN product p ON p.product_id = v.product_id
		ORDER BY po.purchase_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0, limit)
	for rows.Next() {
		var pu domain.Purchase
		if err := rows.Scan(&pu.ID, &pu.SupplierName, &pu.PurchaseDate, &pu.TotalCost, &pu.Notes,
			&pu.VariantID, &pu.Quantity, &pu.UnitCost, &pu.LineTotal,
			&pu.ProductName, &pu.Size, &pu.Color); err != nil {
			return nil, err
		}
		pu.PurchaseDate = pu.PurchaseDate.UTC()
		purchases = append(purchases, pu)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

// CreatePurchase writes the header, line, and additive stock update in one
// transaction. The supplier is resolved by name and created when unknown.
// The RECEIPT movement runs after the commit; its failure only clears the
// returned bool.
func (s *Store) CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest, warehouseID, employeeID int64) (*domain.Purchase, bool, error) {
	name := strings.TrimSpace(req.SupplierName)
	if name == "" || req.VariantID < 1 || req.Quantity < 1 || req.UnitCost.IsNegative() {
		return nil, false, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var supplierID int64
	err = tx.QueryRowContext(ctx, `SELECT supplier_id FROM supplier WHERE supplier_name = $1`, name).Scan(&supplierID)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO supplier (supplier_name) VALUES ($1) RETURNING supplier_id
		`, name).Scan(&supplierID)
	}
	if err != nil {
		return nil, false, err
	}

	lineTotal := req.UnitCost.Mul(decimalFromInt(req.Quantity))
	pu := domain.Purchase{
		SupplierName: name,
		TotalCost:    lineTotal,
		Notes:        req.Notes,
		VariantID:    req.VariantID,
		Quantity:     req.Quantity,
		UnitCost:     req.UnitCost,
		LineTotal:    lineTotal,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO purchase_order (supplier_id, total_cost, created_by_id, notes)
		VALUES ($1,$2,$3,$4)
		RETURNING purchase_id, purchase_date
	`, supplierID, pu.TotalCost, employeeID, pu.Notes).Scan(&pu.ID, &pu.PurchaseDate)
	if err != nil {
		return nil, false, err
	}
	pu.PurchaseDate = pu.PurchaseDate.UTC()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO purchase_order_detail (purchase_id, variant_id, quantity, unit_cost, line_total)
		VALUES ($1,$2,$3,$4,$5)
	`, pu.ID, pu.VariantID, pu.Quantity, pu.UnitCost, pu.LineTotal); err != nil {
		if isForeignKeyViolation(err) {
			return nil, false, store.ErrNotFound
		}
		return nil, false, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock (warehouse_id, variant_id, quantity)
		VALUES ($1,$2,$3)
		ON CONFLICT (warehouse_id, variant_id)
		DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity
	`, warehouseID, pu.VariantID, pu.Quantity); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	movement := domain.InventoryMovement{
		WarehouseID:  warehouseID,
		VariantID:    pu.VariantID,
		MovementType: domain.MovementReceipt,
		QtyChange:    pu.Quantity,
		EmployeeID:   &employeeID,
		RefType:      "purchase",
		RefID:        &pu.ID,
	}
	logged := s.insertMovement(ctx, s.db.ExecContext, movement) == nil

	return &pu, logged, nil
}
