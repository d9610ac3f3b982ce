package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/simplecrud/users-service/internal/application"
	"github.com/simplecrud/users-service/pkg/helpers"
	"github.com/simplecrud/users-service/pkg/response"
	"github.com/simplecrud/users-service/pkg/validation"
)

// TokenHandler serves the bare token endpoints used by API clients that
// do not need the user payload.
type TokenHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewTokenHandler(svc *userapp.Service, logger *logrus.Logger) *TokenHandler {
	return &TokenHandler{Svc: svc, Logger: logger}
}

func (h *TokenHandler) Obtain(c *gin.Context) {
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
		helpers.LogError(h.Logger, "token obtain failed", err, logrus.Fields{"request_id": c.GetString("request_id")})
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"refresh":  pair.RefreshToken,
		"access":   pair.AccessToken,
		"username": u.Username,
		"email":    u.Email,
		"user_id":  u.ID,
	}, "token issued", pairMeta(pair))
}

func (h *TokenHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return
	}
	access, exp, err := h.Svc.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, userapp.ErrInvalidToken) {
			response.Error[any](c, http.StatusUnauthorized, "token is invalid or expired", nil)
			return
		}
		helpers.LogError(h.Logger, "token refresh failed", err, logrus.Fields{"request_id": c.GetString("request_id")})
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"access": access}, "token refreshed", map[string]any{"access_expires_at": exp})
}
