package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/simplecrud/users-service/internal/domain/entity"
	"github.com/simplecrud/users-service/internal/domain/repository"
)

type CustomerRepository struct {
	mu        sync.RWMutex
	nextID    int64
	customers map[int64]entity.Customer // keyed by user id
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{customers: make(map[int64]entity.Customer)}
}

func (r *CustomerRepository) Create(_ context.Context, c *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.customers[c.UserID]; exists {
		return &repository.DuplicateError{Field: "user"}
	}
	r.nextID++
	now := time.Now().UTC()
	c.ID = r.nextID
	c.CreatedAt = now
	c.UpdatedAt = now
	r.customers[c.UserID] = *c
	return nil
}

func (r *CustomerRepository) GetByUserID(_ context.Context, userID int64) (*entity.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *CustomerRepository) List(context.Context) ([]entity.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)
