package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/store"
)

func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT customer_id, first_name, last_name, email, password, phone, address
		FROM customer
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Password, &c.Phone, &c.Address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) SetCustomerPassword(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE customer SET password = $2 WHERE customer_id = $1`, id, hash)
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

func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO customer (first_name, last_name, email, password, phone, address)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING customer_id
	`, c.FirstName, c.LastName, c.Email, c.Password, c.Phone, c.Address).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO cart (customer_id) VALUES ($1)`, c.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := c
	return &created, nil
}

func (s *Store) GetEmployeeByUsername(ctx context.Context, username string) (*domain.Employee, error) {
	var e domain.Employee
	err := s.db.QueryRowContext(ctx, `
		SELECT employee_id, first_name, last_name, email, username, password, role, phone, salary
		FROM employee
		WHERE username = $1
	`, username).Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Username, &e.Password, &e.Role, &e.Phone, &e.Salary)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) SetEmployeePassword(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE employee SET password = $2 WHERE employee_id = $1`, id, hash)
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

func (s *Store) ListPaymentMethods(ctx context.Context, customerID int64) ([]domain.PaymentMethod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payment_info_id, customer_id, card_type, card_holder_name, card_number,
			expiry_month, expiry_year, is_default
		FROM customer_payment_info
		WHERE customer_id = $1
		ORDER BY is_default DESC, payment_info_id
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := make([]domain.PaymentMethod, 0, 4)
	for rows.Next() {
		var pm domain.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.CustomerID, &pm.CardType, &pm.CardHolderName, &pm.CardNumber,
			&pm.ExpiryMonth, &pm.ExpiryYear, &pm.IsDefault); err != nil {
			return nil, err
		}
		pm.CardNumberMasked = domain.MaskCardNumber(pm.CardNumber)
		pm.CardNumber = ""
		methods = append(methods, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return methods, nil
}

func (s *Store) CountPaymentMethods(ctx context.Context, customerID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM customer_payment_info WHERE customer_id = $1
	`, customerID).Scan(&count)
	return count, err
}

func (s *Store) AddPaymentMethod(ctx context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	if pm.CardNumber == "" {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if pm.IsDefault {
		if _, err := tx.ExecContext(ctx, `
			UPDATE customer_payment_info SET is_default = FALSE WHERE customer_id = $1
		`, pm.CustomerID); err != nil {
			return nil, err
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO customer_payment_info (customer_id, card_type, card_holder_name, card_number,
			expiry_month, expiry_year, cvv, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING payment_info_id
	`, pm.CustomerID, pm.CardType, pm.CardHolderName, pm.CardNumber,
		pm.ExpiryMonth, pm.ExpiryYear, pm.CVV, pm.IsDefault).Scan(&pm.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	pm.CardNumberMasked = domain.MaskCardNumber(pm.CardNumber)
	pm.CardNumber = ""
	pm.CVV = ""
	created := pm
	return &created, nil
}

func (s *Store) DeletePaymentMethod(ctx context.Context, customerID, paymentID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM customer_payment_info WHERE payment_info_id = $1 AND customer_id = $2
	`, paymentID, customerID)
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
