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

// AuthHandler bundles dependencies for login, registration and credential
// confirmation.
type AuthHandler struct {
	Users      *repository.UserRepo
	Tokens     *utils.TokenService
	BcryptCost int
	Log        logrus.FieldLogger
}

func NewAuthHandler(users *repository.UserRepo, tokens *utils.TokenService, bcryptCost int, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, BcryptCost: bcryptCost, Log: log}
}

// ----- DTOs -----

type credentialsReq struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

type registerReq struct {
	Nome     string `json:"nome"`
	CPF      string `json:"cpf"`
	Senha    string `json:"senha"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

type loginResp struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

const msgBadCredentials = "CPF ou senha inválidos."

// checkCredentials loads the user by CPF and verifies the password.
func (h *AuthHandler) checkCredentials(ctx context.Context, cpf, password string) (model.User, error) {
	u, err := h.Users.GetByCPF(ctx, cpf)
	if err != nil {
		return u, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return u, errBadPassword
	}
	return u, nil
}

var errBadPassword = errors.New("password mismatch")

// Login exchanges a CPF and password for a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "Corpo da requisição inválido.")
	}
	req.CPF = strings.TrimSpace(req.CPF)
	if req.CPF == "" || req.Password == "" {
		return utils.Fail(c, http.StatusBadRequest, "CPF e senha são obrigatórios.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.checkCredentials(ctx, req.CPF, req.Password)
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, errBadPassword):
		return utils.Fail(c, http.StatusUnauthorized, msgBadCredentials)
	case err != nil:
		return internalError(c, h.Log, err, msgInternal)
	}

	tok, err := h.Tokens.Issue(u)
	if err != nil {
		return internalError(c, h.Log, err, "Erro ao gerar token.")
	}
	return utils.OK(c, http.StatusOK, loginResp{Token: tok.Token, ExpiresAt: tok.ExpiresAt, User: u})
}

// Register creates a user.  Only admins reach it; the route is gated.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "Corpo da requisição inválido.")
	}
	req.Nome = strings.TrimSpace(req.Nome)
	req.CPF = strings.TrimSpace(req.CPF)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if req.Nome == "" || req.CPF == "" || req.Senha == "" || req.Role == "" {
		return utils.Fail(c, http.StatusBadRequest, "Nome, CPF, senha e função são obrigatórios.")
	}
	if !model.ValidRole(req.Role) {
		return utils.Fail(c, http.StatusBadRequest, "Função inválida. Deve ser admin, gerente ou vendedor.")
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = req.CPF
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	taken, err := h.Users.ExistsByCPF(ctx, req.CPF)
	if err != nil {
		return internalError(c, h.Log, err, msgInternal)
	}
	if taken {
		return utils.Fail(c, http.StatusBadRequest, "CPF já cadastrado.")
	}
	taken, err = h.Users.ExistsByUsername(ctx, username)
	if err != nil {
		return internalError(c, h.Log, err, msgInternal)
	}
	if taken {
		return utils.Fail(c, http.StatusBadRequest, "Username já está em uso.")
	}

	id, err := h.Users.Create(ctx, repository.NewUser{
		Username: username,
		Nome:     req.Nome,
		CPF:      req.CPF,
		Password: req.Senha,
		Role:     req.Role,
	}, h.BcryptCost)
	if errors.Is(err, repository.ErrDuplicate) {
		return utils.Fail(c, http.StatusBadRequest, "CPF ou username já cadastrado.")
	}
	if err != nil {
		return internalError(c, h.Log, err, msgInternal)
	}
	return c.JSON(http.StatusCreated, utils.Envelope{
		OK:      true,
		Message: "Usuário criado com sucesso!",
		Data:    echo.Map{"id": id, "username": username, "role": req.Role},
	})
}

// AdminConfirm re-validates a CPF and password before a critical action.
func (h *AuthHandler) AdminConfirm(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "Corpo da requisição inválido.")
	}
	req.CPF = strings.TrimSpace(req.CPF)
	if req.CPF == "" || req.Password == "" {
		return utils.Fail(c, http.StatusBadRequest, "CPF e senha são obrigatórios para confirmação.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, err := h.checkCredentials(ctx, req.CPF, req.Password)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "Usuário não encontrado.")
	case errors.Is(err, errBadPassword):
		return utils.Fail(c, http.StatusUnauthorized, "Senha incorreta.")
	case err != nil:
		return internalError(c, h.Log, err, "Erro interno ao confirmar credenciais.")
	}
	return utils.OKMessage(c, http.StatusOK, "Credenciais confirmadas.")
}
