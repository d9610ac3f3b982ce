package router

import (
	"time"

	"github.com/simplecrud/users-service/internal/application"
	"github.com/simplecrud/users-service/internal/container"
	repo "github.com/simplecrud/users-service/internal/domain/repository"
	meminfra "github.com/simplecrud/users-service/internal/infrastructure/memory"
	pginfra "github.com/simplecrud/users-service/internal/infrastructure/postgres"
	handlers "github.com/simplecrud/users-service/internal/interface/http"
	"github.com/simplecrud/users-service/internal/interface/middleware"
	"github.com/simplecrud/users-service/internal/router/modules"
	"github.com/simplecrud/users-service/pkg/helpers"
	mailtpl "github.com/simplecrud/users-service/pkg/mailer/templates"
)

// Repositories groups the storage implementations every module shares.
type Repositories struct {
	Users        repo.UserRepository
	Customers    repo.CustomerRepository
	PoolProfiles repo.PoolProfileRepository
}

// BuildRepositories uses postgres when a pool is available, otherwise
// process memory.
func BuildRepositories() Repositories {
	pool := container.GetPGPool()
	if pool == nil || container.GetConfig().UseMemoryStorage() {
		return Repositories{
			Users:        meminfra.NewUserRepository(),
			Customers:    meminfra.NewCustomerRepository(),
			PoolProfiles: meminfra.NewPoolProfileRepository(),
		}
	}
	return Repositories{
		Users:        pginfra.NewUserRepository(pool),
		Customers:    pginfra.NewCustomerRepository(pool),
		PoolProfiles: pginfra.NewPoolProfileRepository(pool),
	}
}

func emailPublisher() application.EmailPublisher {
	if pub := container.GetRabbitPub(); pub != nil {
		return pub
	}
	return nil
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	Mount(r, BuildRepositories())
}

// Mount registers every module against the given repositories.
func Mount(r *Registry, repos Repositories) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	userSvc := application.NewService(
		repos.Users,
		repos.Customers,
		container.GetJWT(),
		helpers.NewRedisDenylist(container.GetRedis()),
		emailPublisher(),
		mailtpl.Branding{AppName: cfg.AppName, Company: cfg.CompanyName, SupportURL: cfg.SupportURL, LoginURL: cfg.LoginURL},
		logger,
	)
	customerSvc := application.NewCustomerService(repos.Users, repos.Customers, logger, container.GetES(), cfg.ESCustomersIndex)
	poolSvc := application.NewPoolProfileService(repos.PoolProfiles)

	health := handlers.NewHealthHandler(repos.Users, container.GetRedis())
	r.Engine.GET("/healthz", health.Check)

	// debug vars carry their own private-IP aware limiter
	r.Use(middleware.RateLimit(container.GetRedis(), cfg.RateLimitAPI, time.Minute,
		middleware.KeyByIP(), middleware.AllowPaths(modules.DebugVarsPath)))

	r.Add(modules.NewUserModule(
		handlers.NewUserHandler(userSvc, logger),
		handlers.NewCustomerHandler(customerSvc, logger),
		repos.Users,
	))
	r.Add(modules.NewTokenModule(handlers.NewTokenHandler(userSvc, logger)))
	r.Add(modules.NewPoolModule(handlers.NewPoolProfileHandler(poolSvc, logger), repos.Users))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
