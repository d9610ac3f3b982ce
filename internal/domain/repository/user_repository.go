package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/simplecrud/users-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
)

// DuplicateError names the column whose uniqueness was violated.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return fmt.Sprintf("duplicate %s", e.Field) }

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Ping(ctx context.Context) error
}
