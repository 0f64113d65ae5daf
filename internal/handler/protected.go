package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sales-backoffice/internal/middleware"
	"github.com/iliyamo/sales-backoffice/internal/model"
	"github.com/iliyamo/sales-backoffice/internal/utils"
)

// Welcome greets any authenticated user and echoes their role.
func Welcome(c echo.Context) error {
	id := middleware.CurrentIdentity(c)
	if id == nil {
		return utils.Fail(c, http.StatusUnauthorized, "Token não fornecido.")
	}
	return c.JSON(http.StatusOK, utils.Envelope{
		OK:      true,
		Message: fmt.Sprintf("Bem-vindo, %s!", id.Nome),
		Data:    echo.Map{"role": id.Role},
	})
}

var areaNames = map[string]string{
	model.RoleAdmin:    "administrador",
	model.RoleGerente:  "gerente",
	model.RoleVendedor: "vendedor",
}

// RoleArea answers the role probe for role; the route is gated on it.
func RoleArea(role string) echo.HandlerFunc {
	msg := fmt.Sprintf("Bem-vindo à área de %s!", areaNames[role])
	return func(c echo.Context) error {
		return utils.OKMessage(c, http.StatusOK, msg)
	}
}
