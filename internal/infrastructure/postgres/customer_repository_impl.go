package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simplecrud/users-service/internal/domain/entity"
	"github.com/simplecrud/users-service/internal/domain/repository"
)

const customerColumns = `id, user_id, role, user_type, phone, address, company_name, ice,
	is_approved, created_at, updated_at`

var customerConstraints = map[string]string{
	"customers_user_id_key": "user",
}

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (user_id, role, user_type, phone, address, company_name, ice, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, c.UserID, string(c.Role), string(c.UserType), c.Phone, c.Address, c.CompanyName, c.ICE, c.IsApproved)

	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapUniqueViolation(err, customerConstraints)
	}
	return nil
}

func (r *CustomerRepository) GetByUserID(ctx context.Context, userID int64) (*entity.Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE user_id = $1`, userID)
	c := &entity.Customer{}
	if err := scanCustomer(row, c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get customer for user %d: %w", userID, err)
	}
	return c, nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]entity.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Customer, 0)
	for rows.Next() {
		var c entity.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCustomer(row pgx.Row, c *entity.Customer) error {
	var role, userType string
	if err := row.Scan(&c.ID, &c.UserID, &role, &userType, &c.Phone, &c.Address, &c.CompanyName, &c.ICE,
		&c.IsApproved, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.Role = entity.Role(role)
	c.UserType = entity.UserType(userType)
	return nil
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)
