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

	"github.com/iliyamo/sales-backoffice/internal/model"
	"github.com/iliyamo/sales-backoffice/internal/repository"
	"github.com/iliyamo/sales-backoffice/internal/utils"
)

// ProductHandler serves /api/dados/produtos.
type ProductHandler struct {
	Repo *repository.ProductRepo
	Log  logrus.FieldLogger
}

func NewProductHandler(repo *repository.ProductRepo, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{Repo: repo, Log: log}
}

type productReq struct {
	Nome      *string          `json:"nome"`
	Categoria *string          `json:"categoria"`
	Preco     *decimal.Decimal `json:"preco"`
	Descricao *string          `json:"descricao"`
	Estoque   *int             `json:"estoque"`
}

// validate checks the fields that are present.
func (r productReq) validate() string {
	if r.Nome != nil && strings.TrimSpace(*r.Nome) == "" {
		return "Nome não pode ser vazio."
	}
	if r.Categoria != nil && strings.TrimSpace(*r.Categoria) == "" {
		return "Categoria não pode ser vazia."
	}
	if r.Preco != nil && r.Preco.IsNegative() {
		return "Preço não pode ser negativo."
	}
	if r.Estoque != nil && *r.Estoque < 0 {
		return "Estoque não pode ser negativo."
	}
	return ""
}

func (r productReq) patch() repository.Patch {
	var p repository.Patch
	if r.Nome != nil {
		p.Set("nome", strings.TrimSpace(*r.Nome))
	}
	if r.Categoria != nil {
		p.Set("categoria", strings.TrimSpace(*r.Categoria))
	}
	if r.Preco != nil {
		p.Set("preco", *r.Preco)
	}
	if r.Descricao != nil {
		p.Set("descricao", *r.Descricao)
	}
	if r.Estoque != nil {
		p.Set("estoque", *r.Estoque)
	}
	return p
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Repo.List(ctx)
	if err != nil {
		return internalError(c, h.Log, err, "Erro ao listar produtos.")
	}
	return utils.OK(c, http.StatusOK, list)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidID)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.Fail(c, http.StatusNotFound, "Produto não encontrado.")
	}
	if err != nil {
		return internalError(c, h.Log, err, "Erro ao buscar produto.")
	}
	return utils.OK(c, http.StatusOK, p)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidBody)
	}
	if req.Nome == nil || req.Categoria == nil || req.Preco == nil {
		return utils.Fail(c, http.StatusBadRequest, "Nome, categoria e preço são obrigatórios.")
	}
	if msg := req.validate(); msg != "" {
		return utils.Fail(c, http.StatusBadRequest, msg)
	}
	p := &model.Product{
		Nome:      strings.TrimSpace(*req.Nome),
		Categoria: strings.TrimSpace(*req.Categoria),
		Preco:     *req.Preco,
		Descricao: req.Descricao,
	}
	if req.Estoque != nil {
		p.Estoque = *req.Estoque
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Repo.Create(ctx, p); err != nil {
		return internalError(c, h.Log, err, "Erro ao adicionar produto.")
	}
	return c.JSON(http.StatusCreated, utils.Envelope{OK: true, Message: "Produto adicionado com sucesso!", Data: echo.Map{"id": p.ID}})
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidID)
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidBody)
	}
	if msg := req.validate(); msg != "" {
		return utils.Fail(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	switch err := h.Repo.Update(ctx, id, req.patch()); {
	case errors.Is(err, repository.ErrEmptyPatch):
		return utils.Fail(c, http.StatusBadRequest, msgEmptyPatch)
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "Produto não encontrado.")
	case err != nil:
		return internalError(c, h.Log, err, "Erro ao atualizar produto.")
	}
	return utils.OKMessage(c, http.StatusOK, "Produto atualizado com sucesso!")
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidID)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	switch err := h.Repo.Delete(ctx, id); {
	case errors.Is(err, repository.ErrConflict):
		return utils.Fail(c, http.StatusConflict, "Produto está em vendas registradas e não pode ser removido.")
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "Produto não encontrado.")
	case err != nil:
		return internalError(c, h.Log, err, "Erro ao remover produto.")
	}
	return utils.OKMessage(c, http.StatusOK, "Produto removido com sucesso!")
}
