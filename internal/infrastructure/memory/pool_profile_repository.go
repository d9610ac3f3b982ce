package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/simplecrud/users-service/internal/domain/entity"
	"github.com/simplecrud/users-service/internal/domain/repository"
)

type PoolProfileRepository struct {
	mu       sync.RWMutex
	nextID   int64
	profiles map[int64]entity.PoolProfile
}

func NewPoolProfileRepository() *PoolProfileRepository {
	return &PoolProfileRepository{profiles: make(map[int64]entity.PoolProfile)}
}

func (r *PoolProfileRepository) Create(_ context.Context, p *entity.PoolProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now().UTC()
	p.ID = r.nextID
	p.CreatedAt = now
	p.UpdatedAt = now
	r.profiles[p.ID] = *p
	return nil
}

func (r *PoolProfileRepository) GetByID(_ context.Context, id int64) (*entity.PoolProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *PoolProfileRepository) List(context.Context) ([]entity.PoolProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.PoolProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PoolProfileRepository) Update(_ context.Context, p *entity.PoolProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.profiles[p.ID] = *p
	return nil
}

func (r *PoolProfileRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.profiles, id)
	return nil
}

var _ repository.PoolProfileRepository = (*PoolProfileRepository)(nil)
