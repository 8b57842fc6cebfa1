package repository

import (
	"context"
	"errors"

	"beeja-hrm-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DirectoryRepository reads the employee directory, a read model the HR
// core maintains. The chat subsystem never writes to it.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) Get(ctx context.Context, id string) (*model.Employee, error) {
	var e model.Employee
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, email, role, COALESCE(department, ''), created_at
		FROM employees WHERE id = $1
	`, id).Scan(&e.ID, &e.FullName, &e.Email, &e.Role, &e.Department, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *DirectoryRepository) Search(ctx context.Context, query string, limit int) ([]*model.Employee, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, email, role, COALESCE(department, ''), created_at
		FROM employees
		WHERE ($1 = '' OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		ORDER BY full_name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.FullName, &e.Email, &e.Role, &e.Department, &e.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, &e)
	}
	return employees, rows.Err()
}
