package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simplecrud/users-service/internal/container"
	repo "github.com/simplecrud/users-service/internal/domain/repository"
	handlers "github.com/simplecrud/users-service/internal/interface/http"
	"github.com/simplecrud/users-service/internal/interface/middleware"
)

// UserModule wires account and customer routes under /users.
// Public: register, login. Authenticated: logout, profile.
// Staff only: create_customer, list_customers, customers/search.
type UserModule struct {
	Users     *handlers.UserHandler
	Customers *handlers.CustomerHandler
	Repo      repo.UserRepository
}

func NewUserModule(users *handlers.UserHandler, customers *handlers.CustomerHandler, r repo.UserRepository) *UserModule {
	return &UserModule{Users: users, Customers: customers, Repo: r}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	cfg := container.GetConfig()
	rdb := container.GetRedis()

	registerLimiter := middleware.RateLimit(rdb, cfg.RateLimitRegister, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, cfg.RateLimitLogin, time.Minute, middleware.KeyByIPAndPath(), nil)

	g := rg.Group("/users")
	g.POST("/register/", registerLimiter, m.Users.Register)
	g.POST("/login/", loginLimiter, m.Users.Login)

	auth := g.Group("/")
	auth.Use(
		middleware.Auth(container.GetJWT(), m.Repo),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/logout/", m.Users.Logout)
		auth.GET("/profile/", m.Users.GetProfile)
	}

	staff := auth.Group("/")
	staff.Use(middleware.RequireStaff())
	{
		staff.POST("/create_customer/", m.Customers.Create)
		staff.GET("/list_customers/", m.Customers.List)
		staff.GET("/customers/search/", m.Customers.Search)
	}
}

func (m *UserModule) Name() string { return "users" }
