package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sales-backoffice/internal/utils"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Root is the liveness text at /.
func Root(c echo.Context) error {
	return c.String(http.StatusOK, "Servidor funcionando!")
}

// Health pings the database and reports 503 when it is unreachable.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return utils.Fail(c, http.StatusServiceUnavailable, "Banco de dados indisponível.")
		}
		return utils.OK(c, http.StatusOK, echo.Map{"status": "ok"})
	}
}
