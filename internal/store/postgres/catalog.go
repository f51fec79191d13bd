package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/store"
)

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_name, description, price, category, image_url, featured
		FROM product
		ORDER BY product_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	index := make(map[int64]int, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.Featured); err != nil {
			return nil, err
		}
		p.Variants = []domain.Variant{}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	variantRows, err := s.db.QueryContext(ctx, `
		SELECT v.variant_id, v.product_id, v.size, v.color, COALESCE(SUM(st.quantity), 0)
		FROM product_variant v
		LEFT JOIN stock st ON st.variant_id = v.variant_id
		GROUP BY v.variant_id, v.product_id, v.size, v.color
		ORDER BY v.variant_id
	`)
	if err != nil {
		return nil, err
	}
	defer variantRows.Close()

	for variantRows.Next() {
		var v domain.Variant
		if err := variantRows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.StockQuantity); err != nil {
			return nil, err
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	if err := variantRows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT product_id, product_name, description, price, category, image_url, featured
		FROM product
		WHERE product_id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.Featured)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.variant_id, v.size, v.color, COALESCE(SUM(st.quantity), 0)
		FROM product_variant v
		LEFT JOIN stock st ON st.variant_id = v.variant_id
		WHERE v.product_id = $1
		GROUP BY v.variant_id, v.size, v.color
		ORDER BY v.variant_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p.Variants = []domain.Variant{}
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.Size, &v.Color, &v.StockQuantity); err != nil {
			return nil, err
		}
		v.ProductID = p.ID
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM product
		WHERE category <> ''
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0, 16)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	if strings.TrimSpace(req.Name) == "" || req.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	p := domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Featured:    req.Featured,
		Variants:    []domain.Variant{},
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO product (product_name, description, price, category, image_url, featured)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING product_id
	`, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Featured).Scan(&p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, req domain.ProductCreateRequest) (*domain.Product, error) {
	if strings.TrimSpace(req.Name) == "" || req.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE product
		SET product_name = $2, description = $3, price = $4, category = $5, image_url = $6, featured = $7
		WHERE product_id = $1
	`, id, req.Name, req.Description, req.Price, req.Category, req.ImageURL, req.Featured)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetProduct(ctx, id)
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM product WHERE product_id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrInvalidInput
		}
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

func (s *Store) CreateVariant(ctx context.Context, productID int64, req domain.VariantCreateRequest) (*domain.Variant, error) {
	v := domain.Variant{ProductID: productID, Size: req.Size, Color: req.Color}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO product_variant (product_id, size, color)
		VALUES ($1,$2,$3)
		RETURNING variant_id
	`, productID, req.Size, req.Color).Scan(&v.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
