package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/simplecrud/users-service/config"
	"github.com/simplecrud/users-service/internal/domain/entity"
	repo "github.com/simplecrud/users-service/internal/domain/repository"
	pginfra "github.com/simplecrud/users-service/internal/infrastructure/postgres"
	"github.com/simplecrud/users-service/pkg/helpers"
)

// seed creates the staff account used to manage customer profiles.
// Re-running it with an existing username is a no-op.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	users := pginfra.NewUserRepository(pool)

	if _, err := users.GetByUsername(ctx, cfg.SeedAdminUsername); err == nil {
		logger.WithField("username", cfg.SeedAdminUsername).Info("admin already present")
		return
	} else if !errors.Is(err, repo.ErrNotFound) {
		log.Fatalf("lookup admin: %v", err)
	}

	hash, err := helpers.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	u := &entity.User{
		Username:     cfg.SeedAdminUsername,
		Email:        cfg.SeedAdminEmail,
		PasswordHash: hash,
		IsStaff:      true,
		IsSuperuser:  true,
		IsActive:     true,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	logger.WithFields(logrus.Fields{"id": u.ID, "username": u.Username, "email": u.Email}).Info("seeded admin user")
}
