package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sales-backoffice/internal/utils"
)

// Context keys set by JWTAuth.
const (
	IdentityKey = "identity"
	UserIDKey   = "user_id"
	RoleKey     = "role"
)

// CurrentIdentity returns the verified claims of the caller, or nil when the
// request has not passed JWTAuth.
func CurrentIdentity(c echo.Context) *utils.Claims {
	if v, ok := c.Get(IdentityKey).(*utils.Claims); ok {
		return v
	}
	return nil
}

// userID extracts a user identifier for rate limit keys.  It returns "anon"
// when no user is authenticated.
func userID(c echo.Context) string {
	if id := CurrentIdentity(c); id != nil && id.UserID != 0 {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
