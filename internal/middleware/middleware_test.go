package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sales-backoffice/internal/config"
	"github.com/iliyamo/sales-backoffice/internal/model"
	"github.com/iliyamo/sales-backoffice/internal/utils"
)

func tokenService() *utils.TokenService {
	return utils.NewTokenService(config.TokenConfig{Secret: "test-secret", TTL: time.Hour})
}

func bearer(t *testing.T, ts *utils.TokenService, u model.User) string {
	t.Helper()
	tok, err := ts.Issue(u)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) utils.Envelope {
	t.Helper()
	var env utils.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func ok(c echo.Context) error { return utils.OK(c, http.StatusOK, "done") }

func TestJWTAuthGate(t *testing.T) {
	ts := tokenService()
	other := utils.NewTokenService(config.TokenConfig{Secret: "other", TTL: time.Hour})
	e := echo.New()
	e.GET("/p", ok, JWTAuth(ts))

	cases := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing header", "", http.StatusUnauthorized, "Token não fornecido."},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Token inválido."},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Token inválido."},
		{"foreign secret", bearer(t, other, model.User{ID: 1, Role: model.RoleAdmin}), http.StatusForbidden, "Token inválido ou expirado."},
		{"garbage", "Bearer not.a.jwt", http.StatusForbidden, "Token inválido ou expirado."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.OK)
			assert.Equal(t, tc.msg, env.Message)
		})
	}
}

func TestJWTAuthStoresIdentity(t *testing.T) {
	ts := tokenService()
	e := echo.New()
	var seen *utils.Claims
	e.GET("/p", func(c echo.Context) error {
		seen = CurrentIdentity(c)
		return ok(c)
	}, JWTAuth(ts))

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, ts, model.User{ID: 7, Nome: "Ana", Role: model.RoleGerente, CPF: "123"}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, uint64(7), seen.UserID)
	assert.Equal(t, model.RoleGerente, seen.Role)
	assert.Equal(t, "Ana", seen.Nome)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	h := RequireRole(model.RoleAdmin)(ok)

	run := func(id *utils.Claims) (*httptest.ResponseRecorder, error) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if id != nil {
			c.Set(IdentityKey, id)
		}
		return rec, h(c)
	}

	rec, err := run(&utils.Claims{UserID: 1, Role: ""})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Função de usuário ausente.", decode(t, rec).Message)

	rec, err = run(&utils.Claims{UserID: 1, Role: model.RoleVendedor})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Acesso negado: permissão insuficiente.", decode(t, rec).Message)

	rec, err = run(&utils.Claims{UserID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPolicyTable(t *testing.T) {
	for _, res := range []string{ResourceClientes, ResourceProdutos} {
		assert.True(t, Allowed(model.RoleVendedor, res, ActionList))
		assert.True(t, Allowed(model.RoleVendedor, res, ActionGet))
		assert.False(t, Allowed(model.RoleVendedor, res, ActionCreate))
		assert.False(t, Allowed(model.RoleGerente, res, ActionCreate))
		assert.True(t, Allowed(model.RoleGerente, res, ActionUpdate))
		assert.False(t, Allowed(model.RoleVendedor, res, ActionUpdate))
		assert.False(t, Allowed(model.RoleGerente, res, ActionDelete))
		assert.True(t, Allowed(model.RoleAdmin, res, ActionDelete))
	}

	assert.True(t, Allowed(model.RoleVendedor, ResourceVendas, ActionCreate))
	assert.False(t, Allowed(model.RoleVendedor, ResourceVendas, ActionUpdate))
	assert.False(t, Allowed(model.RoleGerente, ResourceVendas, ActionDelete))
	assert.False(t, Allowed(model.RoleAdmin, "usuarios", ActionList))

	assert.True(t, OwnerScoped(model.RoleVendedor, ResourceVendas))
	assert.False(t, OwnerScoped(model.RoleGerente, ResourceVendas))
	assert.False(t, OwnerScoped(model.RoleVendedor, ResourceClientes))
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (r *captureRecorder) Record(e model.AuditEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return true
}

func auditedServer(ts *utils.TokenService, rec *captureRecorder, h echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	g := e.Group("/api", Audit(rec), JWTAuth(ts))
	g.POST("/dados/clientes", h, Authorize(ResourceClientes, ActionCreate))
	g.DELETE("/dados/clientes/:id", h, Authorize(ResourceClientes, ActionDelete))
	return e
}

func TestAuditSkipsUnauthenticated(t *testing.T) {
	rec := &captureRecorder{}
	e := auditedServer(tokenService(), rec, ok)

	res := httptest.NewRecorder()
	e.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/dados/clientes", strings.NewReader(`{"nome":"x"}`)))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Empty(t, rec.entries)
}

func TestAuditRecordsForbiddenWithMessage(t *testing.T) {
	ts := tokenService()
	rec := &captureRecorder{}
	e := auditedServer(ts, rec, ok)

	req := httptest.NewRequest(http.MethodDelete, "/api/dados/clientes/12", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, ts, model.User{ID: 4, Nome: "Vera", Role: model.RoleVendedor}))
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
	require.Len(t, rec.entries, 1)
	got := rec.entries[0]
	assert.Equal(t, "Remover", got.Action)
	assert.Equal(t, "clientes", got.Resource)
	require.NotNil(t, got.ResourceID)
	assert.Equal(t, int64(12), *got.ResourceID)
	assert.Equal(t, http.StatusForbidden, got.ResponseStatus)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "Acesso negado: permissão insuficiente.", *got.ErrorMessage)
	require.NotNil(t, got.Username)
	assert.Equal(t, "Vera", *got.Username)
}

func TestAuditRestoresBodyForHandler(t *testing.T) {
	ts := tokenService()
	rec := &captureRecorder{}
	var handlerSaw string
	e := auditedServer(ts, rec, func(c echo.Context) error {
		b, _ := io.ReadAll(c.Request().Body)
		handlerSaw = string(b)
		return utils.OK(c, http.StatusCreated, map[string]int{"id": 1})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/dados/clientes", strings.NewReader(`{"nome": "ACME"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, ts, model.User{ID: 1, Nome: "Root", Role: model.RoleAdmin}))
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, `{"nome": "ACME"}`, handlerSaw)
	require.Len(t, rec.entries, 1)
	require.NotNil(t, rec.entries[0].RequestBody)
	assert.Equal(t, `{"nome":"ACME"}`, *rec.entries[0].RequestBody)
	assert.Nil(t, rec.entries[0].ErrorMessage)
}

func TestAuditRendersHandlerErrorBeforeRecording(t *testing.T) {
	ts := tokenService()
	rec := &captureRecorder{}
	e := auditedServer(ts, rec, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "in use")
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/dados/clientes/3", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, ts, model.User{ID: 1, Role: model.RoleAdmin}))
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	assert.Equal(t, http.StatusConflict, res.Code)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, http.StatusConflict, rec.entries[0].ResponseStatus)
	require.NotNil(t, rec.entries[0].ErrorMessage)
	assert.Equal(t, "in use", *rec.entries[0].ErrorMessage)
}

func TestBuildRateKeyUsesIdentity(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/dados/vendas", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/dados/vendas")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:GET /api/dados/vendas", buildRateKey(cfg, c))

	c.Set(IdentityKey, &utils.Claims{UserID: 9})
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:9", buildRateKey(cfg, c))
}
