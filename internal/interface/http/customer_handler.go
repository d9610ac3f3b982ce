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

type CustomerHandler struct {
	Svc    *userapp.CustomerService
	Logger *logrus.Logger
}

func NewCustomerHandler(svc *userapp.CustomerService, logger *logrus.Logger) *CustomerHandler {
	return &CustomerHandler{Svc: svc, Logger: logger}
}

type createCustomerRequest struct {
	User        int64   `json:"user" binding:"required,gt=0"`
	Role        string  `json:"role" binding:"omitempty,oneof=customer vendor admin"`
	UserType    string  `json:"user_type" binding:"omitempty,oneof=individual company"`
	Phone       *string `json:"phone" binding:"omitempty,max=20"`
	Address     *string `json:"address"`
	CompanyName *string `json:"company_name" binding:"omitempty,max=255"`
	ICE         *string `json:"ice" binding:"omitempty,max=50"`
	IsApproved  bool    `json:"is_approved"`
}

type customerView struct {
	ID          int64     `json:"id"`
	User        int64     `json:"user"`
	Role        string    `json:"role"`
	UserType    string    `json:"user_type"`
	Phone       *string   `json:"phone"`
	Address     *string   `json:"address"`
	CompanyName *string   `json:"company_name"`
	ICE         *string   `json:"ice"`
	IsApproved  bool      `json:"is_approved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCustomerView(c *entity.Customer) customerView {
	return customerView{
		ID:          c.ID,
		User:        c.UserID,
		Role:        string(c.Role),
		UserType:    string(c.UserType),
		Phone:       c.Phone,
		Address:     c.Address,
		CompanyName: c.CompanyName,
		ICE:         c.ICE,
		IsApproved:  c.IsApproved,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return
	}
	cust, err := h.Svc.Create(c.Request.Context(), userapp.CreateCustomerInput{
		UserID:      req.User,
		Role:        entity.Role(req.Role),
		UserType:    entity.UserType(req.UserType),
		Phone:       req.Phone,
		Address:     req.Address,
		CompanyName: req.CompanyName,
		ICE:         req.ICE,
		IsApproved:  req.IsApproved,
	})
	if err != nil {
		var verr *userapp.ValidationError
		if errors.As(err, &verr) {
			response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, verr.Fields)
			return
		}
		helpers.LogError(h.Logger, "create customer failed", err, logrus.Fields{"request_id": c.GetString("request_id")})
		response.Error[any](c, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	response.Success(c, http.StatusCreated, toCustomerView(cust), "customer created", nil)
}

func (h *CustomerHandler) List(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		helpers.LogError(h.Logger, "list customers failed", err, logrus.Fields{"request_id": c.GetString("request_id")})
		response.Error[any](c, http.StatusInternalServerError, "an error occurred while fetching customers", nil)
		return
	}
	out := make([]customerView, 0, len(list))
	for i := range list {
		out = append(out, toCustomerView(&list[i]))
	}
	response.Success(c, http.StatusOK, out, "customers", map[string]any{"count": len(out)})
}

// Search queries the customer index: GET /users/customers/search/?q=...&size=10
// Out-of-range sizes fall back to the service default.
func (h *CustomerHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.FieldErrors{"size": {"a valid integer is required."}})
		return
	}
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		helpers.LogError(h.Logger, "search customers failed", err, logrus.Fields{"q": q})
		response.Error[any](c, http.StatusInternalServerError, "an error occurred while searching customers", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}
