package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simplecrud/users-service/internal/domain/entity"
	"github.com/simplecrud/users-service/internal/domain/repository"
)

type PoolProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPoolProfileRepository(pool *pgxpool.Pool) *PoolProfileRepository {
	return &PoolProfileRepository{pool: pool}
}

func (r *PoolProfileRepository) Create(ctx context.Context, p *entity.PoolProfile) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO pool_profiles (name, bio)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, p.Name, p.Bio).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PoolProfileRepository) GetByID(ctx context.Context, id int64) (*entity.PoolProfile, error) {
	p := &entity.PoolProfile{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, bio, created_at, updated_at
		FROM pool_profiles
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Bio, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PoolProfileRepository) List(ctx context.Context) ([]entity.PoolProfile, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, bio, created_at, updated_at FROM pool_profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.PoolProfile, error) {
		var p entity.PoolProfile
		err := row.Scan(&p.ID, &p.Name, &p.Bio, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
}

func (r *PoolProfileRepository) Update(ctx context.Context, p *entity.PoolProfile) error {
	p.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE pool_profiles
		SET name = $1, bio = $2, updated_at = $3
		WHERE id = $4
	`, p.Name, p.Bio, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PoolProfileRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM pool_profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.PoolProfileRepository = (*PoolProfileRepository)(nil)
