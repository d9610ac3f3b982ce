// Package memory holds process-local repositories used by tests and by
// STORAGE_DRIVER=memory for local runs.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/simplecrud/users-service/internal/domain/entity"
	"github.com/simplecrud/users-service/internal/domain/repository"
)

type UserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]entity.User)}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return &repository.DuplicateError{Field: "username"}
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.DateJoined = time.Now().UTC()
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	r.users[id] = u
	return nil
}

func (r *UserRepository) Ping(context.Context) error { return nil }

// Count returns the number of stored users.
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

var _ repository.UserRepository = (*UserRepository)(nil)
