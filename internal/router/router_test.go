package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecrud/users-service/config"
	"github.com/simplecrud/users-service/internal/container"
	"github.com/simplecrud/users-service/internal/domain/entity"
	meminfra "github.com/simplecrud/users-service/internal/infrastructure/memory"
	"github.com/simplecrud/users-service/internal/interface/middleware"
	"github.com/simplecrud/users-service/pkg/helpers"
	"github.com/simplecrud/users-service/pkg/validation"
)

type envelope struct {
	Status    int             `json:"status"`
	RequestID string          `json:"request_id"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Meta      map[string]any  `json:"meta"`
	Error     json.RawMessage `json:"error"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	repos  Repositories
	users  *meminfra.UserRepository
	jwt    *helpers.JWTManager
	mr     *miniredis.Miniredis
}

func newTestServer(t *testing.T, tweak ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		AppName:             "users-service",
		RateLimitLogin:      100,
		RateLimitRegister:   100,
		RateLimitRefresh:    100,
		DebugMetricsEnabled: true,
		ESCustomersIndex:    "customers",
		StorageDriver:       "memory",
	}
	for _, f := range tweak {
		f(cfg)
	}
	jwt := helpers.NewJWTManager("test-access", "test-refresh", 5*time.Minute, 24*time.Hour)

	container.Reset()
	t.Cleanup(container.Reset)
	container.SetConfig(cfg)
	container.SetLogger(helpers.DiscardLogger())
	container.SetRedis(rdb)
	container.SetJWT(jwt)

	users := meminfra.NewUserRepository()
	repos := Repositories{
		Users:        users,
		Customers:    meminfra.NewCustomerRepository(),
		PoolProfiles: meminfra.NewPoolProfileRepository(),
	}

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	reg := NewRegistry(engine)
	Mount(reg, repos)
	reg.RegisterAll()

	return &testServer{t: t, engine: engine, repos: repos, users: users, jwt: jwt, mr: mr}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type tokens struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

type authData struct {
	User struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"user"`
	Tokens tokens `json:"tokens"`
}

func registerBody(username string) map[string]any {
	return map[string]any{
		"username":   username,
		"email":      username + "@example.com",
		"password":   "s3cretpass",
		"password2":  "s3cretpass",
		"first_name": "First",
		"last_name":  "Last",
	}
}

func (s *testServer) register(username string) authData {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/users/register/", "", registerBody(username))
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[authData](s.t, env.Data)
}

func (s *testServer) seedStaff(username, password string) {
	s.t.Helper()
	hash, err := helpers.HashPassword(password)
	require.NoError(s.t, err)
	require.NoError(s.t, s.users.Create(context.Background(), &entity.User{
		Username: username, Email: username + "@example.com", PasswordHash: hash, IsStaff: true, IsActive: true,
	}))
}

func (s *testServer) login(username, password string) authData {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/users/login/", "", map[string]string{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[authData](s.t, env.Data)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	got := s.register("alice")
	assert.NotZero(t, got.User.ID)
	assert.Equal(t, "alice", got.User.Username)
	assert.Equal(t, "alice@example.com", got.User.Email)
	assert.NotEmpty(t, got.Tokens.Access)
	assert.NotEmpty(t, got.Tokens.Refresh)

	// the issued access token authenticates immediately
	w, env := s.do(http.MethodGet, "/api/users/profile/", got.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[map[string]any](t, env.Data)
	assert.Equal(t, "alice", profile["username"])
	assert.Equal(t, "First", profile["first_name"])
	assert.NotEmpty(t, env.RequestID)
}

func TestRegister_ReportsEveryFieldError(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	body := registerBody("alice")
	body["password2"] = "different1"
	w, env := s.do(http.MethodPost, "/api/users/register/", "", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	fields := decode[map[string][]string](t, env.Error)
	assert.Equal(t, []string{"passwords do not match"}, fields["password2"])
	assert.Equal(t, []string{"username already exists"}, fields["username"])
	assert.Equal(t, []string{"email already exists"}, fields["email"])
	assert.Equal(t, 1, s.users.Count())
}

func TestRegister_FieldValidation(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/users/register/", "", map[string]any{
		"username": "bad name", "email": "not-an-email", "password": "short", "password2": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode[map[string][]string](t, env.Error)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "password2")
	assert.Equal(t, 0, s.users.Count())

	w, env = s.do(http.MethodPost, "/api/users/register/", "", `{"username":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string][]string{"non_field_errors": {"invalid json"}}, decode[map[string][]string](t, env.Error))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	t.Run("missing fields", func(t *testing.T) {
		for _, body := range []map[string]string{{"username": "alice"}, {"password": "x"}, {}} {
			w, env := s.do(http.MethodPost, "/api/users/login/", "", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "please provide both username and password", env.Message)
		}
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		w1, env1 := s.do(http.MethodPost, "/api/users/login/", "", map[string]string{"username": "alice", "password": "wrongpass"})
		w2, env2 := s.do(http.MethodPost, "/api/users/login/", "", map[string]string{"username": "nobody", "password": "wrongpass"})
		assert.Equal(t, http.StatusUnauthorized, w1.Code)
		assert.Equal(t, http.StatusUnauthorized, w2.Code)
		assert.Equal(t, "invalid username or password", env1.Message)
		assert.Equal(t, env1.Message, env2.Message)
	})

	t.Run("success", func(t *testing.T) {
		got := s.login("alice", "s3cretpass")
		assert.Equal(t, "First", got.User.FirstName)
		assert.Equal(t, "Last", got.User.LastName)
		claims, err := s.jwt.ParseAccessToken(got.Tokens.Access)
		require.NoError(t, err)
		assert.Equal(t, got.User.ID, claims.UserID)
		refresh, err := s.jwt.ParseRefreshToken(got.Tokens.Refresh)
		require.NoError(t, err)
		assert.Equal(t, got.User.ID, refresh.UserID)
	})
}

func TestProfile_ReturnsTokenOwner(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	require.NotEqual(t, alice.User.ID, bob.User.ID)

	for _, owner := range []authData{alice, bob, s.login("alice", "s3cretpass"), s.login("bob", "s3cretpass")} {
		w, env := s.do(http.MethodGet, "/api/users/profile/", owner.Tokens.Access, nil)
		require.Equal(t, http.StatusOK, w.Code)
		profile := decode[map[string]any](t, env.Data)
		assert.EqualValues(t, owner.User.ID, profile["id"])
		assert.Equal(t, owner.User.Username, profile["username"])
		assert.Equal(t, owner.User.Username+"@example.com", profile["email"])
	}
}

func TestProfile_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/api/users/profile/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodGet, "/api/users/profile/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutAndRefresh(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	// refresh works before logout
	w, env := s.do(http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": alice.Tokens.Refresh})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[map[string]string](t, env.Data)["access"])

	// logout requires authentication
	w, _ = s.do(http.MethodPost, "/api/users/logout/", "", map[string]string{"refresh": alice.Tokens.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a token that belongs to someone else is invalid
	w, env = s.do(http.MethodPost, "/api/users/logout/", bob.Tokens.Access, map[string]string{"refresh": alice.Tokens.Refresh})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid token", env.Message)

	w, _ = s.do(http.MethodPost, "/api/users/logout/", alice.Tokens.Access, map[string]string{"refresh": alice.Tokens.Refresh})
	require.Equal(t, http.StatusOK, w.Code)

	// second logout with the same token fails
	w, env = s.do(http.MethodPost, "/api/users/logout/", alice.Tokens.Access, map[string]string{"refresh": alice.Tokens.Refresh})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid token", env.Message)

	// denylisted token can no longer be refreshed
	w, env = s.do(http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": alice.Tokens.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token is invalid or expired", env.Message)

	// garbage and missing refresh tokens
	w, _ = s.do(http.MethodPost, "/api/users/logout/", alice.Tokens.Access, map[string]string{"refresh": "garbage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPost, "/api/users/logout/", alice.Tokens.Access, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": alice.Tokens.Access})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodPost, "/api/token/refresh/", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTokenObtain(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	w, env := s.do(http.MethodPost, "/api/token/", "", map[string]string{"username": "alice", "password": "s3cretpass"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode[map[string]any](t, env.Data)
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "alice@example.com", data["email"])
	assert.EqualValues(t, alice.User.ID, data["user_id"])
	assert.NotEmpty(t, data["access"])
	assert.NotEmpty(t, data["refresh"])

	w, _ = s.do(http.MethodPost, "/api/token/", "", map[string]string{"username": "alice", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodPost, "/api/token/", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomers(t *testing.T) {
	s := newTestServer(t)
	s.seedStaff("admin", "adminpass")
	admin := s.login("admin", "adminpass")
	alice := s.register("alice")

	t.Run("non staff is forbidden", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/users/list_customers/", alice.Tokens.Access, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		w, _ = s.do(http.MethodPost, "/api/users/create_customer/", alice.Tokens.Access, map[string]any{"user": alice.User.ID})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/users/list_customers/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		w, env := s.do(http.MethodPost, "/api/users/create_customer/", admin.Tokens.Access, map[string]any{"user": 9999})
		require.Equal(t, http.StatusBadRequest, w.Code)
		fields := decode[map[string][]string](t, env.Error)
		assert.Equal(t, []string{`Invalid pk "9999" - object does not exist.`}, fields["user"])
	})

	t.Run("invalid choice", func(t *testing.T) {
		w, env := s.do(http.MethodPost, "/api/users/create_customer/", admin.Tokens.Access, map[string]any{"user": alice.User.ID, "role": "king"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[map[string][]string](t, env.Error), "role")
	})

	t.Run("create then duplicate", func(t *testing.T) {
		body := map[string]any{
			"user":         alice.User.ID,
			"role":         "vendor",
			"user_type":    "company",
			"company_name": "Alice Pools",
			"phone":        "+212600000000",
			"is_approved":  true,
		}
		w, env := s.do(http.MethodPost, "/api/users/create_customer/", admin.Tokens.Access, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created := decode[map[string]any](t, env.Data)
		assert.EqualValues(t, alice.User.ID, created["user"])
		assert.Equal(t, "vendor", created["role"])
		assert.Equal(t, "Alice Pools", created["company_name"])

		w, env = s.do(http.MethodPost, "/api/users/create_customer/", admin.Tokens.Access, map[string]any{"user": alice.User.ID})
		require.Equal(t, http.StatusBadRequest, w.Code)
		fields := decode[map[string][]string](t, env.Error)
		assert.Equal(t, []string{"customer profile with this user already exists."}, fields["user"])
	})

	t.Run("list", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/users/list_customers/", admin.Tokens.Access, nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[[]map[string]any](t, env.Data)
		require.Len(t, list, 1)
		assert.Equal(t, "company", list[0]["user_type"])
	})

	t.Run("search without elasticsearch is empty", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/users/customers/search/?q=alice", admin.Tokens.Access, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 0, env.Meta["count"])
	})

	t.Run("search rejects a non-numeric size", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/users/customers/search/?q=alice&size=ten", admin.Tokens.Access, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"a valid integer is required."}, decode[map[string][]string](t, env.Error)["size"])
	})

	t.Run("vendor claims appear on next login", func(t *testing.T) {
		got := s.login("alice", "s3cretpass")
		claims, err := s.jwt.ParseAccessToken(got.Tokens.Access)
		require.NoError(t, err)
		assert.Equal(t, "vendor", claims.Role)
		assert.Equal(t, "company", claims.UserType)
		assert.Equal(t, "Alice Pools", claims.StoreName)
		require.NotNil(t, claims.IsApproved)
		assert.True(t, *claims.IsApproved)

		w, env := s.do(http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": got.Tokens.Refresh})
		require.Equal(t, http.StatusOK, w.Code)
		refreshed, err := s.jwt.ParseAccessToken(decode[map[string]string](t, env.Data)["access"])
		require.NoError(t, err)
		assert.Equal(t, "vendor", refreshed.Role)
	})
}

func TestPoolProfiles(t *testing.T) {
	s := newTestServer(t)
	tok := s.register("swimmer").Tokens.Access

	w, _ := s.do(http.MethodGet, "/api/pools/profiles/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodPost, "/api/pools/profiles/", tok, map[string]string{"name": "Lane 1", "bio": "fast"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[map[string]any](t, env.Data)
	id := int64(created["id"].(float64))
	path := fmt.Sprintf("/api/pools/profiles/%d/", id)

	w, env = s.do(http.MethodGet, path, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lane 1", decode[map[string]any](t, env.Data)["name"])

	w, env = s.do(http.MethodPut, path, tok, map[string]string{"name": "Lane 2", "bio": "faster"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "faster", decode[map[string]any](t, env.Data)["bio"])

	w, env = s.do(http.MethodGet, "/api/pools/profiles/", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	w, _ = s.do(http.MethodPost, "/api/pools/profiles/", tok, map[string]string{"bio": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodDelete, path, tok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = s.do(http.MethodGet, path, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/api/pools/profiles/abc/", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RateLimitLogin = 2 })

	creds := map[string]string{"username": "ghost", "password": "whatever1"}
	for i := 0; i < 2; i++ {
		w, _ := s.do(http.MethodPost, "/api/users/login/", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, env := s.do(http.MethodPost, "/api/users/login/", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate limit exceeded", env.Message)

	// registration has its own budget
	s.register("alice")
}

func TestAPIRateLimit_ExemptsDebugVars(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RateLimitAPI = 3 })

	for i := 0; i < 3; i++ {
		w, _ := s.do(http.MethodGet, "/api/users/profile/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, env := s.do(http.MethodGet, "/api/users/profile/", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate limit exceeded", env.Message)

	for i := 0; i < 5; i++ {
		w, _ = s.do(http.MethodGet, "/api/debug/vars", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w, _ = s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"storage": "ok", "redis": "ok"}, decode[map[string]string](t, env.Data))

	s.mr.Close()
	w, _ = s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDebugVars(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	w, _ := s.do(http.MethodGet, "/api/debug/vars", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var vars map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vars))
	assert.Contains(t, vars, "users_service")
}

type pingModule struct{ name string }

func (m pingModule) Name() string { return m.name }

func (m pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/"+m.name, func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func TestRegistry_SkipsDuplicateModules(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewRegistry(gin.New())
	reg.Add(pingModule{name: "a"})
	reg.Add(pingModule{name: "b"})
	reg.Add(pingModule{name: "a"})
	assert.Equal(t, []string{"a", "b"}, reg.Modules())

	assert.NotPanics(t, func() {
		reg.RegisterAll()
		reg.RegisterAll()
	})

	w := httptest.NewRecorder()
	reg.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/b", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
