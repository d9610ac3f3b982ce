package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simplecrud/users-service/internal/domain/repository"
)

const uniqueViolation = "23505"

func NewPool(ctx context.Context, dsn string, maxConns, minConns int32, maxConnLife time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLife
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// mapUniqueViolation turns a unique_violation on one of the known
// constraints into a *repository.DuplicateError naming the field.
func mapUniqueViolation(err error, fields map[string]string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	if field, ok := fields[pgErr.ConstraintName]; ok {
		return &repository.DuplicateError{Field: field}
	}
	// Unknown constraint: derive "<table>_<field>_key" -> field.
	name := strings.TrimSuffix(pgErr.ConstraintName, "_key")
	if i := strings.Index(name, "_"); i >= 0 {
		name = name[i+1:]
	}
	return &repository.DuplicateError{Field: name}
}
