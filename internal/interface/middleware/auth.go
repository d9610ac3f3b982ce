package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	repo "github.com/simplecrud/users-service/internal/domain/repository"
	"github.com/simplecrud/users-service/pkg/helpers"
	"github.com/simplecrud/users-service/pkg/response"
)

const (
	CtxUserIDKey  = "userID"
	CtxUserName   = "userName"
	CtxIsStaffKey = "isStaff"
	CtxClaimsKey  = "claims"
)

// Auth validates the "Authorization: Bearer <access>" header and loads the
// owner from storage. Missing, invalid, expired or orphaned tokens get 401.
func Auth(jwt *helpers.JWTManager, users repo.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "authentication credentials were not provided", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "given token not valid for any token type", nil)
			return
		}
		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || !u.IsActive {
			response.Abort(c, http.StatusUnauthorized, "user not found", nil)
			return
		}

		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUserName, u.Username)
		c.Set(CtxIsStaffKey, u.IsStaff)
		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// RequireStaff must run after Auth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsStaffKey) {
			response.Abort(c, http.StatusForbidden, "you do not have permission to perform this action", nil)
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or 0 when Auth did not run.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserIDKey)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
