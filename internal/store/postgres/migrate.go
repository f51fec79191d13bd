package postgres

import "context"

// schemaStatements create every table the backend needs. They run in order
// and are idempotent, so EnsureSchema is safe to call on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS warehouse (
		warehouse_id BIGSERIAL PRIMARY KEY,
		warehouse_name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS product (
		product_id BIGSERIAL PRIMARY KEY,
		product_name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		featured BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS product_variant (
		variant_id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES product(product_id) ON DELETE CASCADE,
		size TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS stock (
		warehouse_id BIGINT NOT NULL REFERENCES warehouse(warehouse_id),
		variant_id BIGINT NOT NULL REFERENCES product_variant(variant_id) ON DELETE CASCADE,
		quantity INT NOT NULL DEFAULT 0,
		PRIMARY KEY (warehouse_id, variant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS customer (
		customer_id BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS cart (
		cart_id BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL UNIQUE REFERENCES customer(customer_id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_item (
		cart_id BIGINT NOT NULL REFERENCES cart(cart_id) ON DELETE CASCADE,
		variant_id BIGINT NOT NULL REFERENCES product_variant(variant_id) ON DELETE CASCADE,
		quantity INT NOT NULL,
		PRIMARY KEY (cart_id, variant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS customer_payment_info (
		payment_info_id BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customer(customer_id) ON DELETE CASCADE,
		card_type TEXT NOT NULL DEFAULT '',
		card_holder_name TEXT NOT NULL DEFAULT '',
		card_number TEXT NOT NULL,
		expiry_month INT NOT NULL,
		expiry_year INT NOT NULL,
		cvv TEXT NOT NULL DEFAULT '',
		is_default BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS employee (
		employee_id BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'STAFF',
		phone TEXT NOT NULL DEFAULT '',
		salary NUMERIC(12,2) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customer(customer_id),
		employee_id BIGINT REFERENCES employee(employee_id),
		warehouse_id BIGINT NOT NULL REFERENCES warehouse(warehouse_id),
		order_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		status TEXT NOT NULL DEFAULT 'Pending',
		total_amount NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_detail (
		order_id BIGINT NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		variant_id BIGINT NOT NULL REFERENCES product_variant(variant_id),
		quantity INT NOT NULL,
		price NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (order_id, variant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS supplier (
		supplier_id BIGSERIAL PRIMARY KEY,
		supplier_name TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_order (
		purchase_id BIGSERIAL PRIMARY KEY,
		supplier_id BIGINT NOT NULL REFERENCES supplier(supplier_id),
		purchase_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		total_cost NUMERIC(12,2) NOT NULL,
		created_by_id BIGINT REFERENCES employee(employee_id),
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_order_detail (
		purchase_id BIGINT NOT NULL REFERENCES purchase_order(purchase_id) ON DELETE CASCADE,
		variant_id BIGINT NOT NULL REFERENCES product_variant(variant_id),
		quantity INT NOT NULL,
		unit_cost NUMERIC(12,2) NOT NULL,
		line_total NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (purchase_id, variant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_movement (
		movement_id BIGSERIAL PRIMARY KEY,
		warehouse_id BIGINT NOT NULL REFERENCES warehouse(warehouse_id),
		variant_id BIGINT NOT NULL REFERENCES product_variant(variant_id),
		movement_type TEXT NOT NULL,
		qty_change INT NOT NULL,
		employee_id BIGINT REFERENCES employee(employee_id),
		ref_type TEXT NOT NULL DEFAULT '',
		ref_id BIGINT,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// Seed the default warehouse so stock upserts always have a target row.
	`INSERT INTO warehouse (warehouse_id, warehouse_name, location)
		VALUES (1, 'Main Warehouse', '')
		ON CONFLICT (warehouse_id) DO NOTHING`,
	`SELECT setval('warehouse_warehouse_id_seq', GREATEST((SELECT MAX(warehouse_id) FROM warehouse), 1))`,
}

// EnsureSchema applies the schema statements in order.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
