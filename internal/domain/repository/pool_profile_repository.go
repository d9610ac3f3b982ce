package repository

import (
	"context"

	"github.com/simplecrud/users-service/internal/domain/entity"
)

type PoolProfileRepository interface {
	Create(ctx context.Context, p *entity.PoolProfile) error
	GetByID(ctx context.Context, id int64) (*entity.PoolProfile, error)
	List(ctx context.Context) ([]entity.PoolProfile, error)
	Update(ctx context.Context, p *entity.PoolProfile) error
	Delete(ctx context.Context, id int64) error
}
