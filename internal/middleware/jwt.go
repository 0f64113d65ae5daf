package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sales-backoffice/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer session token
// and stores the verified claims under IdentityKey, with the user id and
// role copied under UserIDKey and RoleKey.  A missing header or a header
// that is not a Bearer token is answered with 401; a token that fails
// verification with 403.
func JWTAuth(tokens *utils.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return utils.Fail(c, http.StatusUnauthorized, "Token não fornecido.")
			}
			scheme, raw, found := strings.Cut(auth, " ")
			raw = strings.TrimSpace(raw)
			if !found || !strings.EqualFold(scheme, "Bearer") || raw == "" {
				return utils.Fail(c, http.StatusUnauthorized, "Token inválido.")
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				return utils.Fail(c, http.StatusForbidden, "Token inválido ou expirado.")
			}

			c.Set(IdentityKey, claims)
			c.Set(UserIDKey, claims.UserID)
			c.Set(RoleKey, claims.Role)
			return next(c)
		}
	}
}
