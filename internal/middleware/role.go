package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sales-backoffice/internal/utils"
)

const (
	msgMissingRole  = "Função de usuário ausente."
	msgAccessDenied = "Acesso negado: permissão insuficiente."
)

// RequireRole returns a middleware that lets the request through only when
// the identity stored by JWTAuth has one of roles.  It never re-verifies the
// token.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := CurrentIdentity(c)
			if id == nil || id.Role == "" {
				return utils.Fail(c, http.StatusForbidden, msgMissingRole)
			}
			if !allowed[id.Role] {
				return utils.Fail(c, http.StatusForbidden, msgAccessDenied)
			}
			return next(c)
		}
	}
}
