package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simplecrud/users-service/internal/container"
	"github.com/simplecrud/users-service/internal/interface/middleware"
)

// DebugVarsPath is the full route of the expvar endpoint under /api.
const DebugVarsPath = "/api" + debugVarsRoute

const debugVarsRoute = "/debug/vars"

type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// expvar counters, rate-limited per IP; private networks bypass the limit
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	rg.GET(debugVarsRoute, rl, gin.WrapH(expvar.Handler()))
}

func (m *DebugModule) Name() string { return "debug" }
