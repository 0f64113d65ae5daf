package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/sales-backoffice/internal/middleware"
	"github.com/iliyamo/sales-backoffice/internal/repository"
	"github.com/iliyamo/sales-backoffice/internal/utils"
)

// SaleHandler serves /api/dados/vendas.
type SaleHandler struct {
	Repo *repository.SaleRepo
	Log  logrus.FieldLogger
}

func NewSaleHandler(repo *repository.SaleRepo, log logrus.FieldLogger) *SaleHandler {
	return &SaleHandler{Repo: repo, Log: log}
}

type saleItemReq struct {
	ProdutoID     uint64           `json:"produto_id"`
	Quantidade    int              `json:"quantidade"`
	PrecoUnitario *decimal.Decimal `json:"preco_unitario"`
	Subtotal      *decimal.Decimal `json:"subtotal"`
}

// saleReq is shared by create and update.  Itens is a pointer so that an
// explicit empty list can be told apart from an absent one.
type saleReq struct {
	ClienteID      *uint64          `json:"cliente_id"`
	Total          *decimal.Decimal `json:"total"`
	Status         *string          `json:"status"`
	Observacoes    *string          `json:"observacoes"`
	FormaPagamento *string          `json:"forma_pagamento"`
	DataCompra     *string          `json:"data_compra"`
	DataEntrega    *string          `json:"data_entrega"`
	Itens          *[]saleItemReq   `json:"itens"`
}

var errBadDate = errors.New("invalid date")

// parseDate accepts YYYY-MM-DD or RFC 3339.  An empty string means no date.
func parseDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	return nil, errBadDate
}

func (r saleReq) items() []repository.SaleItemInput {
	if r.Itens == nil {
		return nil
	}
	out := make([]repository.SaleItemInput, 0, len(*r.Itens))
	for _, it := range *r.Itens {
		out = append(out, repository.SaleItemInput{
			ProdutoID:     it.ProdutoID,
			Quantidade:    it.Quantidade,
			PrecoUnitario: it.PrecoUnitario,
			Subtotal:      it.Subtotal,
		})
	}
	return out
}

// ownerFilter returns the user id a caller's sale reads are restricted to,
// or zero when the caller sees every sale.
func ownerFilter(c echo.Context) uint64 {
	id := middleware.CurrentIdentity(c)
	if id != nil && middleware.OwnerScoped(id.Role, middleware.ResourceVendas) {
		return id.UserID
	}
	return 0
}

func (h *SaleHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Repo.List(ctx, ownerFilter(c))
	if err != nil {
		return internalError(c, h.Log, err, "Erro ao listar vendas.")
	}
	return utils.OK(c, http.StatusOK, list)
}

func (h *SaleHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidID)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	sale, err := h.Repo.GetVisible(ctx, id, ownerFilter(c))
	switch {
	case errors.Is(err, repository.ErrForbidden):
		return utils.Fail(c, http.StatusForbidden, "Acesso negado: esta venda pertence a outro vendedor.")
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "Venda não encontrada.")
	case err != nil:
		return internalError(c, h.Log, err, "Erro ao buscar venda.")
	}
	return utils.OK(c, http.StatusOK, sale)
}

func (h *SaleHandler) Create(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return utils.Fail(c, http.StatusUnauthorized, "Token não fornecido.")
	}
	var req saleReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidBody)
	}
	if req.ClienteID == nil || *req.ClienteID == 0 || req.Total == nil {
		return utils.Fail(c, http.StatusBadRequest, "Cliente e total são obrigatórios.")
	}
	compra, err := parseDate(req.DataCompra)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, "Data de compra inválida.")
	}
	entrega, err := parseDate(req.DataEntrega)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, "Data de entrega inválida.")
	}

	ns := repository.NewSale{
		ClienteID:      *req.ClienteID,
		UsuarioID:      ident.UserID,
		Total:          *req.Total,
		Observacoes:    req.Observacoes,
		FormaPagamento: req.FormaPagamento,
		DataCompra:     compra,
		DataEntrega:    entrega,
		Items:          req.items(),
	}
	if req.Status != nil {
		ns.Status = strings.TrimSpace(*req.Status)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	id, err := h.Repo.Create(ctx, ns)
	if errors.Is(err, repository.ErrClientNotFound) {
		return utils.Fail(c, http.StatusBadRequest, "Cliente não encontrado.")
	}
	if err != nil {
		return internalError(c, h.Log, err, "Erro ao registrar venda.")
	}
	return c.JSON(http.StatusCreated, utils.Envelope{OK: true, Message: "Venda registrada com sucesso!", Data: echo.Map{"id": id}})
}

func (h *SaleHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidID)
	}
	var req saleReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidBody)
	}

	var p repository.Patch
	if req.ClienteID != nil {
		if *req.ClienteID == 0 {
			return utils.Fail(c, http.StatusBadRequest, "Cliente inválido.")
		}
		p.Set("cliente_id", *req.ClienteID)
	}
	if req.Total != nil {
		p.Set("total", *req.Total)
	}
	if req.Status != nil {
		p.Set("status", strings.TrimSpace(*req.Status))
	}
	if req.Observacoes != nil {
		p.Set("observacoes", *req.Observacoes)
	}
	if req.FormaPagamento != nil {
		p.Set("forma_pagamento", *req.FormaPagamento)
	}
	if req.DataCompra != nil {
		d, err := parseDate(req.DataCompra)
		if err != nil {
			return utils.Fail(c, http.StatusBadRequest, "Data de compra inválida.")
		}
		p.Set("data_compra", d)
	}
	if req.DataEntrega != nil {
		d, err := parseDate(req.DataEntrega)
		if err != nil {
			return utils.Fail(c, http.StatusBadRequest, "Data de entrega inválida.")
		}
		p.Set("data_entrega", d)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	err = h.Repo.Update(ctx, id, repository.SaleUpdate{
		Fields:       p,
		Items:        req.items(),
		ReplaceItems: req.Itens != nil,
	})
	switch {
	case errors.Is(err, repository.ErrEmptyPatch):
		return utils.Fail(c, http.StatusBadRequest, msgEmptyPatch)
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "Venda não encontrada.")
	case errors.Is(err, repository.ErrClientNotFound):
		return utils.Fail(c, http.StatusBadRequest, "Cliente não encontrado.")
	case err != nil:
		return internalError(c, h.Log, err, "Erro ao atualizar venda.")
	}
	return utils.OKMessage(c, http.StatusOK, "Venda atualizada com sucesso!")
}

func (h *SaleHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidID)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	switch err := h.Repo.Delete(ctx, id); {
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "Venda não encontrada.")
	case err != nil:
		return internalError(c, h.Log, err, "Erro ao remover venda.")
	}
	return utils.OKMessage(c, http.StatusOK, "Venda removida com sucesso!")
}
