package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simplecrud/users-service/internal/container"
	handlers "github.com/simplecrud/users-service/internal/interface/http"
	"github.com/simplecrud/users-service/internal/interface/middleware"
)

// TokenModule: POST /token/ and POST /token/refresh/, both public.
type TokenModule struct {
	Handler *handlers.TokenHandler
}

func NewTokenModule(h *handlers.TokenHandler) *TokenModule {
	return &TokenModule{Handler: h}
}

func (m *TokenModule) Register(rg *gin.RouterGroup) {
	cfg := container.GetConfig()
	rdb := container.GetRedis()

	obtainLimiter := middleware.RateLimit(rdb, cfg.RateLimitLogin, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(rdb, cfg.RateLimitRefresh, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/token/", obtainLimiter, m.Handler.Obtain)
	rg.POST("/token/refresh/", refreshLimiter, m.Handler.Refresh)
}

func (m *TokenModule) Name() string { return "token" }
