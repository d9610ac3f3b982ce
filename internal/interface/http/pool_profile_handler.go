package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/simplecrud/users-service/internal/application"
	"github.com/simplecrud/users-service/internal/domain/entity"
	"github.com/simplecrud/users-service/pkg/helpers"
	"github.com/simplecrud/users-service/pkg/response"
	"github.com/simplecrud/users-service/pkg/validation"
)

type PoolProfileHandler struct {
	Svc    *userapp.PoolProfileService
	Logger *logrus.Logger
}

func NewPoolProfileHandler(svc *userapp.PoolProfileService, logger *logrus.Logger) *PoolProfileHandler {
	return &PoolProfileHandler{Svc: svc, Logger: logger}
}

type poolProfileRequest struct {
	Name string `json:"name" binding:"required,max=150"`
	Bio  string `json:"bio" binding:"max=500"`
}

type poolProfileView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPoolProfileView(p *entity.PoolProfile) poolProfileView {
	return poolProfileView{ID: p.ID, Name: p.Name, Bio: p.Bio, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

func (h *PoolProfileHandler) List(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.internal(c, "list pool profiles failed", err)
		return
	}
	out := make([]poolProfileView, 0, len(list))
	for i := range list {
		out = append(out, toPoolProfileView(&list[i]))
	}
	response.Success(c, http.StatusOK, out, "pool profiles", map[string]any{"count": len(out)})
}

func (h *PoolProfileHandler) Create(c *gin.Context) {
	var req poolProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Create(c.Request.Context(), req.Name, req.Bio)
	if err != nil {
		h.internal(c, "create pool profile failed", err)
		return
	}
	response.Success(c, http.StatusCreated, toPoolProfileView(p), "pool profile created", nil)
}

func (h *PoolProfileHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	p, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get pool profile failed", err)
		return
	}
	response.Success(c, http.StatusOK, toPoolProfileView(p), "pool profile", nil)
}

func (h *PoolProfileHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req poolProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Update(c.Request.Context(), id, req.Name, req.Bio)
	if err != nil {
		h.fail(c, "update pool profile failed", err)
		return
	}
	response.Success(c, http.StatusOK, toPoolProfileView(p), "pool profile updated", nil)
}

func (h *PoolProfileHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete pool profile failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PoolProfileHandler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusNotFound, "not found", nil)
		return 0, false
	}
	return id, true
}

func (h *PoolProfileHandler) fail(c *gin.Context, msg string, err error) {
	if errors.Is(err, userapp.ErrPoolProfileNotFound) {
		response.Error[any](c, http.StatusNotFound, "not found", nil)
		return
	}
	h.internal(c, msg, err)
}

func (h *PoolProfileHandler) internal(c *gin.Context, msg string, err error) {
	helpers.LogError(h.Logger, msg, err, logrus.Fields{"request_id": c.GetString("request_id")})
	response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
}
