package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/store"
)

// EnsureCart returns the customer's cart id, creating the cart when missing.
func (s *Store) EnsureCart(ctx context.Context, customerID int64) (int64, error) {
	var cartID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT cart_id FROM cart WHERE customer_id = $1
	`, customerID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO cart (customer_id)
		VALUES ($1)
		ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING cart_id
	`, customerID).Scan(&cartID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, store.ErrNotFound
		}
		return 0, err
	}
	return cartID, nil
}

func (s *Store) ListCartItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.cart_id, ci.variant_id, ci.quantity,
			p.product_id, p.product_name, p.price, p.category,
			v.size, v.color, COALESCE(SUM(st.quantity), 0)
		FROM cart_item ci
		JOIN product_variant v ON v.variant_id = ci.variant_id
		JOIN product p ON p.product_id = v.product_id
		LEFT JOIN stock st ON st.variant_id = ci.variant_id
		WHERE ci.cart_id = $1
		GROUP BY ci.cart_id, ci.variant_id, ci.quantity,
			p.product_id, p.product_name, p.price, p.category, v.size, v.color
		ORDER BY ci.variant_id
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0, 8)
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.CartID, &it.VariantID, &it.Quantity,
			&it.ProductID, &it.ProductName, &it.Price, &it.Category,
			&it.Size, &it.Color, &it.StockQuantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// AddCartItem inserts the line or adds to its quantity when already present.
func (s *Store) AddCartItem(ctx context.Context, cartID, variantID int64, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_item (cart_id, variant_id, quantity)
		VALUES ($1,$2,$3)
		ON CONFLICT (cart_id, variant_id)
		DO UPDATE SET quantity = cart_item.quantity + EXCLUDED.quantity
	`, cartID, variantID, quantity)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) SetCartItemQuantity(ctx context.Context, cartID, variantID int64, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_item SET quantity = $3 WHERE cart_id = $1 AND variant_id = $2
	`, cartID, variantID, quantity)
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

func (s *Store) RemoveCartItem(ctx context.Context, cartID, variantID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_item WHERE cart_id = $1 AND variant_id = $2
	`, cartID, variantID)
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
