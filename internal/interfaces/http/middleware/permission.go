package middleware

import (
	"net/http"
	"slices"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RequireRole creates middleware that lets the request through only when
// the authenticated actor holds one of roles. Services repeat the check
// against the actor on the context.
func RequireRole(roles ...shared.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := shared.ActorFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, "Authentication required", getRequestIDFromContext(c),
			))
			return
		}
		if !slices.Contains(roles, actor.Role) {
			code, message := roleDenied(roles)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				code, message, getRequestIDFromContext(c),
			))
			return
		}
		c.Next()
	}
}

func roleDenied(roles []shared.Role) (code, message string) {
	if len(roles) == 1 && roles[0] == shared.RoleAdmin {
		return shared.ErrAdminOnly.Code, shared.ErrAdminOnly.Message
	}
	return dto.ErrCodeForbidden, "Insufficient role for this action"
}
