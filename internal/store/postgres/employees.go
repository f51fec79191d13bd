package postgres

import (
	"context"
	"strconv"
	"strings"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/store"
)

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, first_name, last_name, email, username, role, phone, salary
		FROM employee
		ORDER BY employee_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 16)
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Username, &e.Role, &e.Phone, &e.Salary); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *Store) CreateEmployee(ctx context.Context, e domain.Employee) (*domain.Employee, error) {
	if strings.TrimSpace(e.Username) == "" || e.Password == "" {
		return nil, store.ErrInvalidInput
	}
	if e.Role == "" {
		e.Role = domain.RoleStaff
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO employee (first_name, last_name, email, username, password, role, phone, salary)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING employee_id
	`, e.FirstName, e.LastName, e.Email, e.Username, e.Password, e.Role, e.Phone, e.Salary).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := e
	return &created, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, id int64, req domain.EmployeeUpdateRequest) (*domain.Employee, error) {
	sets := make([]string, 0, 3)
	args := []any{id}
	if req.Salary != nil {
		args = append(args, *req.Salary)
		sets = append(sets, "salary = $"+strconv.Itoa(len(args)))
	}
	if req.Phone != nil {
		args = append(args, *req.Phone)
		sets = append(sets, "phone = $"+strconv.Itoa(len(args)))
	}
	if req.Role != nil {
		args = append(args, *req.Role)
		sets = append(sets, "role = $"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE employee SET `+strings.Join(sets, ", ")+` WHERE employee_id = $1
	`, args...)
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

	var e domain.Employee
	err = s.db.QueryRowContext(ctx, `
		SELECT employee_id, first_name, last_name, email, username, role, phone, salary
		FROM employee
		WHERE employee_id = $1
	`, id).Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Username, &e.Role, &e.Phone, &e.Salary)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employee WHERE employee_id = $1`, id)
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
