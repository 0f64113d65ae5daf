package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sales-backoffice/internal/model"
)

// Action is an operation on a data resource.
type Action string

const (
	ActionList   Action = "list"
	ActionGet    Action = "get"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource names under /api/dados.
const (
	ResourceClientes = "clientes"
	ResourceProdutos = "produtos"
	ResourceVendas   = "vendas"
)

var (
	everyone      = []string{model.RoleAdmin, model.RoleGerente, model.RoleVendedor}
	managers      = []string{model.RoleAdmin, model.RoleGerente}
	administrator = []string{model.RoleAdmin}
)

// Policy is the single table of which roles may perform which action on
// which resource.
var Policy = map[string]map[Action][]string{
	ResourceClientes: {
		ActionList:   everyone,
		ActionGet:    everyone,
		ActionCreate: administrator,
		ActionUpdate: managers,
		ActionDelete: administrator,
	},
	ResourceProdutos: {
		ActionList:   everyone,
		ActionGet:    everyone,
		ActionCreate: administrator,
		ActionUpdate: managers,
		ActionDelete: administrator,
	},
	ResourceVendas: {
		ActionList:   everyone,
		ActionGet:    everyone,
		ActionCreate: everyone,
		ActionUpdate: managers,
		ActionDelete: administrator,
	},
}

// ownerScoped lists the roles that only see their own rows of a resource.
var ownerScoped = map[string]map[string]bool{
	ResourceVendas: {model.RoleVendedor: true},
}

// Allowed reports whether role may perform action on resource.  Unknown
// resources and actions are denied.
func Allowed(role, resource string, action Action) bool {
	for _, r := range Policy[resource][action] {
		if r == role {
			return true
		}
	}
	return false
}

// OwnerScoped reports whether role is restricted to rows it created.
func OwnerScoped(role, resource string) bool {
	return ownerScoped[resource][role]
}

// Authorize is RequireRole fed from Policy.
func Authorize(resource string, action Action) echo.MiddlewareFunc {
	return RequireRole(Policy[resource][action]...)
}
