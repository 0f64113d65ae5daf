// Package router wires handlers and gates onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sales-backoffice/internal/handler"
	"github.com/iliyamo/sales-backoffice/internal/metrics"
	"github.com/iliyamo/sales-backoffice/internal/middleware"
	"github.com/iliyamo/sales-backoffice/internal/model"
	"github.com/iliyamo/sales-backoffice/internal/utils"
)

// Deps is everything the routes need.
type Deps struct {
	Tokens    *utils.TokenService
	Audit     middleware.AuditRecorder
	DB        handler.Pinger
	Auth      *handler.AuthHandler
	Clients   *handler.ClientHandler
	Products  *handler.ProductHandler
	Sales     *handler.SaleHandler
	Dashboard *handler.DashboardHandler

	// RateLimit runs after JWTAuth on every authenticated route, so its key
	// can carry the caller.  LoginRateLimit guards POST /login and can only
	// key on the client address.  Nil disables either.
	RateLimit      echo.MiddlewareFunc
	LoginRateLimit echo.MiddlewareFunc
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func orPassthrough(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return passthrough
	}
	return m
}

// Register mounts every route.
func Register(e *echo.Echo, d Deps) {
	limit := orPassthrough(d.RateLimit)
	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.Tokens, limit, orPassthrough(d.LoginRateLimit))
	api := e.Group("/api", middleware.Audit(d.Audit), middleware.JWTAuth(d.Tokens), limit)
	RegisterProtected(api, d.Auth)
	RegisterData(api, d.Clients, d.Products, d.Sales)
	RegisterDashboard(e, d.Dashboard, d.Tokens, d.Audit, limit)
}

// RegisterRoutes registers routes that need no session: liveness, health
// and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers login (public) and register (admin only).
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens *utils.TokenService, limit, loginLimit echo.MiddlewareFunc) {
	e.POST("/login", a.Login, loginLimit)
	e.POST("/register", a.Register, middleware.JWTAuth(tokens), limit, middleware.RequireRole(model.RoleAdmin))
}

// RegisterProtected registers the welcome route and the per-role probes on
// the authenticated /api group.
func RegisterProtected(api *echo.Group, a *handler.AuthHandler) {
	api.GET("/", handler.Welcome)
	for _, role := range model.AllRoles {
		api.GET("/"+role, handler.RoleArea(role), middleware.RequireRole(role))
	}
	api.POST("/admin/confirm", a.AdminConfirm, middleware.RequireRole(model.RoleAdmin))
}

// crud is the handler set of one /api/dados resource.
type crud interface {
	List(c echo.Context) error
	Get(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
}

func mount(g *echo.Group, resource string, h crud) {
	base := "/" + resource
	g.GET(base, h.List, middleware.Authorize(resource, middleware.ActionList))
	g.GET(base+"/:id", h.Get, middleware.Authorize(resource, middleware.ActionGet))
	g.POST(base, h.Create, middleware.Authorize(resource, middleware.ActionCreate))
	g.PUT(base+"/:id", h.Update, middleware.Authorize(resource, middleware.ActionUpdate))
	g.DELETE(base+"/:id", h.Delete, middleware.Authorize(resource, middleware.ActionDelete))
}

// RegisterData registers client, product and sale CRUD under /api/dados,
// each route gated by the policy table.
func RegisterData(api *echo.Group, clients *handler.ClientHandler, products *handler.ProductHandler, sales *handler.SaleHandler) {
	dados := api.Group("/dados")
	mount(dados, middleware.ResourceClientes, clients)
	mount(dados, middleware.ResourceProdutos, products)
	mount(dados, middleware.ResourceVendas, sales)
}

// RegisterDashboard registers the metrics rollup for any authenticated role.
func RegisterDashboard(e *echo.Echo, d *handler.DashboardHandler, tokens *utils.TokenService, rec middleware.AuditRecorder, limit echo.MiddlewareFunc) {
	g := e.Group("/dashboard", middleware.Audit(rec), middleware.JWTAuth(tokens), limit)
	g.GET("/metrics", d.Get, middleware.RequireRole(model.AllRoles...))
}
