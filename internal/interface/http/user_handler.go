package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/simplecrud/users-service/internal/application"
	"github.com/simplecrud/users-service/internal/domain/entity"
	"github.com/simplecrud/users-service/internal/interface/middleware"
	"github.com/simplecrud/users-service/pkg/helpers"
	"github.com/simplecrud/users-service/pkg/response"
	"github.com/simplecrud/users-service/pkg/validation"
)

const (
	msgMissingCredentials = "please provide both username and password"
	msgBadCredentials     = "invalid username or password"
	msgInvalidPayload     = "invalid payload"
	msgInternal           = "internal server error"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Username  string `json:"username" binding:"required,max=150,username"`
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required,pwd"`
	Password2 string `json:"password2" binding:"required,pwd"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type userSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type userProfile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tokenPairView struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

func toProfile(u *entity.User) userProfile {
	return userProfile{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func toPairView(p helpers.TokenPair) tokenPairView {
	return tokenPairView{Refresh: p.RefreshToken, Access: p.AccessToken}
}

func pairMeta(p helpers.TokenPair) map[string]any {
	return map[string]any{"access_expires_at": p.AccessTokenExpiry, "refresh_expires_at": p.RefreshTokenExpiry}
}

// bindCredentials returns false after writing the 400 when either field is
// missing; no lookup happens in that case.
func bindCredentials(c *gin.Context) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return req, false
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		response.Error[any](c, http.StatusBadRequest, msgMissingCredentials, nil)
		return req, false
	}
	return req, true
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password2,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		var verr *userapp.ValidationError
		if errors.As(err, &verr) {
			response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, verr.Fields)
			return
		}
		helpers.LogError(h.Logger, "register failed", err, logrus.Fields{"request_id": c.GetString("request_id")})
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"user":   userSummary{ID: u.ID, Username: u.Username, Email: u.Email},
		"tokens": toPairView(pair),
	}, "user registered", pairMeta(pair))
}

func (h *UserHandler) Login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrInvalidCredentials) {
			response.Error[any](c, http.StatusUnauthorized, msgBadCredentials, nil)
			return
		}
		helpers.LogError(h.Logger, "login failed", err, logrus.Fields{"request_id": c.GetString("request_id")})
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":   toProfile(u),
		"tokens": toPairView(pair),
	}, "login successful", pairMeta(pair))
}

func (h *UserHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid token", validation.ToDetails(err))
		return
	}
	err := h.Svc.Logout(c.Request.Context(), middleware.UserID(c), req.Refresh)
	if err != nil {
		if errors.Is(err, userapp.ErrInvalidToken) {
			response.Error[any](c, http.StatusBadRequest, "invalid token", nil)
			return
		}
		helpers.LogError(h.Logger, "logout failed", err, logrus.Fields{"request_id": c.GetString("request_id")})
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logout successful", nil)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		helpers.LogError(h.Logger, "load profile failed", err, nil)
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	response.Success(c, http.StatusOK, toProfile(u), "profile", nil)
}
