package postgres

import (
	"context"

	"ashhabsport/backend/internal/domain"
)

func (s *Store) GetAdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var stats domain.AdminStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE((SELECT SUM(total_amount) FROM orders WHERE status = 'Accepted'), 0),
			COALESCE((SELECT SUM(total_cost) FROM purchase_order), 0),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM orders WHERE status = 'Pending'),
			(SELECT COUNT(*) FROM orders WHERE status = 'Accepted'),
			(SELECT COUNT(*) FROM orders WHERE status = 'Shipped'),
			(SELECT COUNT(*) FROM orders WHERE status = 'Cancelled'),
			(SELECT COUNT(*) FROM product)
	`).Scan(&stats.TotalSales, &stats.TotalPurchases, &stats.TotalOrders,
		&stats.PendingOrders, &stats.AcceptedOrders, &stats.ShippedOrders,
		&stats.CancelledOrders, &stats.TotalProducts)
	if err != nil {
		return nil, err
	}

	stats.NetEarnings = stats.TotalSales.Sub(stats.TotalPurchases)
	return &stats, nil
}

// TopProducts aggregates sold quantity and revenue over Accepted and Shipped
// orders.
func (s *Store) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.product_id, p.product_name, p.category, p.price,
			SUM(d.quantity), SUM(d.quantity * d.price)
		FROM order_detail d
		JOIN orders o ON o.order_id = d.order_id
		JOIN product_variant v ON v.variant_id = d.variant_id
		JOIN product p ON p.product_id = v.product_id
		WHERE o.status IN ('Accepted', 'Shipped')
		GROUP BY p.product_id, p.product_name, p.category, p.price
		ORDER BY SUM(d.quantity) DESC, p.product_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := make([]domain.TopProduct, 0, limit)
	for rows.Next() {
		var tp domain.TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.Category, &tp.Price,
			&tp.TotalSold, &tp.TotalRevenue); err != nil {
			return nil, err
		}
		top = append(top, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return top, nil
}
