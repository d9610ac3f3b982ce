package repository

import (
	"context"

	"github.com/simplecrud/users-service/internal/domain/entity"
)

// CustomerRepository persists customer profiles. Create returns a
// *DuplicateError on field "user" when the user already has a profile.
type CustomerRepository interface {
	Create(ctx context.Context, c *entity.Customer) error
	GetByUserID(ctx context.Context, userID int64) (*entity.Customer, error)
	List(ctx context.Context) ([]entity.Customer, error)
}
