package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecrud/users-service/internal/domain/entity"
	"github.com/simplecrud/users-service/internal/domain/repository"
)

func TestUserRepository_EmailUniqueIgnoresCase(t *testing.T) {
	r := NewUserRepository()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &entity.User{Username: "alice", Email: "Alice@example.com"}))

	exists, err := r.ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	err = r.Create(ctx, &entity.User{Username: "alice2", Email: "alice@example.com"})
	var dup *repository.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
	assert.Equal(t, 1, r.Count())
}

func TestUserRepository_UsernameIsExact(t *testing.T) {
	r := NewUserRepository()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &entity.User{Username: "alice", Email: "a@example.com"}))
	require.NoError(t, r.Create(ctx, &entity.User{Username: "Alice", Email: "b@example.com"}))

	_, err := r.GetByUsername(ctx, "ALICE")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
