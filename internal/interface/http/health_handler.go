package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	repo "github.com/simplecrud/users-service/internal/domain/repository"
	"github.com/simplecrud/users-service/pkg/response"
)

// HealthHandler reports storage and Redis reachability. Redis is required
// because refresh-token revocation lives there.
type HealthHandler struct {
	Users repo.UserRepository
	RDB   *redis.Client
}

func NewHealthHandler(users repo.UserRepository, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{Users: users, RDB: rdb}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"storage": "ok", "redis": "ok"}
	healthy := true
	if err := h.Users.Ping(ctx); err != nil {
		checks["storage"] = "unavailable"
		healthy = false
	}
	switch {
	case h.RDB == nil:
		checks["redis"] = "not configured"
		healthy = false
	case h.RDB.Ping(ctx).Err() != nil:
		checks["redis"] = "unavailable"
		healthy = false
	}

	if !healthy {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", checks)
		return
	}
	response.Success(c, http.StatusOK, checks, "healthy", nil)
}
