package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/sales-backoffice/internal/model"
	"github.com/iliyamo/sales-backoffice/internal/repository"
	"github.com/iliyamo/sales-backoffice/internal/utils"
)

const (
	msgInvalidBody = "Corpo da requisição inválido."
	msgInvalidID   = "ID inválido."
	msgEmptyPatch  = "Nenhum campo para atualizar."
)

// ClientHandler serves /api/dados/clientes.
type ClientHandler struct {
	Repo *repository.ClientRepo
	Log  logrus.FieldLogger
}

func NewClientHandler(repo *repository.ClientRepo, log logrus.FieldLogger) *ClientHandler {
	return &ClientHandler{Repo: repo, Log: log}
}

// clientReq is shared by create and update.  A nil field was absent (or
// null) in the body.
type clientReq struct {
	Nome     *string `json:"nome"`
	CPFCNPJ  *string `json:"cpf_cnpj"`
	Email    *string `json:"email"`
	Telefone *string `json:"telefone"`
	Endereco *string `json:"endereco"`
	Cidade   *string `json:"cidade"`
	Estado   *string `json:"estado"`
	CEP      *string `json:"cep"`
}

func (r clientReq) patch() repository.Patch {
	var p repository.Patch
	set := func(col string, v *string) {
		if v != nil {
			p.Set(col, strings.TrimSpace(*v))
		}
	}
	set("nome", r.Nome)
	set("cpf_cnpj", r.CPFCNPJ)
	set("email", r.Email)
	set("telefone", r.Telefone)
	set("endereco", r.Endereco)
	set("cidade", r.Cidade)
	set("estado", r.Estado)
	set("cep", r.CEP)
	return p
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func (h *ClientHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Repo.List(ctx)
	if err != nil {
		return internalError(c, h.Log, err, "Erro ao listar clientes.")
	}
	return utils.OK(c, http.StatusOK, list)
}

func (h *ClientHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidID)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	cl, err := h.Repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.Fail(c, http.StatusNotFound, "Cliente não encontrado.")
	}
	if err != nil {
		return internalError(c, h.Log, err, "Erro ao buscar cliente.")
	}
	return utils.OK(c, http.StatusOK, cl)
}

func (h *ClientHandler) Create(c echo.Context) error {
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidBody)
	}
	if req.Nome == nil || strings.TrimSpace(*req.Nome) == "" {
		return utils.Fail(c, http.StatusBadRequest, "Nome é obrigatório.")
	}
	cl := &model.Client{
		Nome:     strings.TrimSpace(*req.Nome),
		CPFCNPJ:  trimmed(req.CPFCNPJ),
		Email:    trimmed(req.Email),
		Telefone: trimmed(req.Telefone),
		Endereco: trimmed(req.Endereco),
		Cidade:   trimmed(req.Cidade),
		Estado:   trimmed(req.Estado),
		CEP:      trimmed(req.CEP),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Repo.Create(ctx, cl); err != nil {
		return internalError(c, h.Log, err, "Erro ao cadastrar cliente.")
	}
	return c.JSON(http.StatusCreated, utils.Envelope{OK: true, Message: "Cliente cadastrado com sucesso!", Data: echo.Map{"id": cl.ID}})
}

func (h *ClientHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidID)
	}
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidBody)
	}
	if req.Nome != nil && strings.TrimSpace(*req.Nome) == "" {
		return utils.Fail(c, http.StatusBadRequest, "Nome não pode ser vazio.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	switch err := h.Repo.Update(ctx, id, req.patch()); {
	case errors.Is(err, repository.ErrEmptyPatch):
		return utils.Fail(c, http.StatusBadRequest, msgEmptyPatch)
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "Cliente não encontrado.")
	case err != nil:
		return internalError(c, h.Log, err, "Erro ao atualizar cliente.")
	}
	return utils.OKMessage(c, http.StatusOK, "Cliente atualizado com sucesso!")
}

func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return utils.Fail(c, http.StatusBadRequest, msgInvalidID)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	switch err := h.Repo.Delete(ctx, id); {
	case errors.Is(err, repository.ErrConflict):
		return utils.Fail(c, http.StatusConflict, "Cliente possui vendas vinculadas e não pode ser removido.")
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "Cliente não encontrado.")
	case err != nil:
		return internalError(c, h.Log, err, "Erro ao remover cliente.")
	}
	return utils.OKMessage(c, http.StatusOK, "Cliente removido com sucesso!")
}
