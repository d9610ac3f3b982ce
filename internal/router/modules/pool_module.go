package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simplecrud/users-service/internal/container"
	repo "github.com/simplecrud/users-service/internal/domain/repository"
	handlers "github.com/simplecrud/users-service/internal/interface/http"
	"github.com/simplecrud/users-service/internal/interface/middleware"
)

type PoolModule struct {
	Handler *handlers.PoolProfileHandler
	Users   repo.UserRepository
}

func NewPoolModule(h *handlers.PoolProfileHandler, users repo.UserRepository) *PoolModule {
	return &PoolModule{Handler: h, Users: users}
}

func (m *PoolModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	g := rg.Group("/pools/profiles")
	g.Use(
		middleware.Auth(container.GetJWT(), m.Users),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		g.GET("/", m.Handler.List)
		g.POST("/", m.Handler.Create)
		g.GET("/:id/", m.Handler.Get)
		g.PUT("/:id/", m.Handler.Update)
		g.DELETE("/:id/", m.Handler.Delete)
	}
}

func (m *PoolModule) Name() string { return "pools" }
