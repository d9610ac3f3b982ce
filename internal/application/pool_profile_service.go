package application

import (
	"context"
	"errors"
	"strings"

	"github.com/simplecrud/users-service/internal/domain/entity"
	repo "github.com/simplecrud/users-service/internal/domain/repository"
)

type PoolProfileService struct {
	Repo repo.PoolProfileRepository
}

func NewPoolProfileService(r repo.PoolProfileRepository) *PoolProfileService {
	return &PoolProfileService{Repo: r}
}

func (s *PoolProfileService) Create(ctx context.Context, name, bio string) (*entity.PoolProfile, error) {
	p := &entity.PoolProfile{Name: strings.TrimSpace(name), Bio: bio}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PoolProfileService) Get(ctx context.Context, id int64) (*entity.PoolProfile, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPoolProfileNotFound
	}
	return p, err
}

func (s *PoolProfileService) List(ctx context.Context) ([]entity.PoolProfile, error) {
	return s.Repo.List(ctx)
}

func (s *PoolProfileService) Update(ctx context.Context, id int64, name, bio string) (*entity.PoolProfile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(name)
	p.Bio = bio
	if err := s.Repo.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPoolProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PoolProfileService) Delete(ctx context.Context, id int64) error {
	err := s.Repo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrPoolProfileNotFound
	}
	return err
}
