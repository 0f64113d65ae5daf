package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/sales-backoffice/internal/model"
	"github.com/iliyamo/sales-backoffice/internal/utils"
)

// UserRepo is the credential store backed by the `usuarios` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser carries the fields needed to register a user.  Password is plain
// text and hashed by Create.
type NewUser struct {
	Username string
	Nome     string
	CPF      string
	Password string
	Role     string
}

const userColumns = "id, username, nome, cpf, senha, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Nome, &u.CPF, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// Create hashes the password, inserts the user and returns its ID.
// ErrDuplicate is returned when the CPF or username is already taken.
func (r *UserRepo) Create(ctx context.Context, nu NewUser, cost int) (uint64, error) {
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO usuarios (username, nome, cpf, senha, role) VALUES (?, ?, ?, ?, ?)",
		strings.TrimSpace(nu.Username), strings.TrimSpace(nu.Nome), strings.TrimSpace(nu.CPF), hash, nu.Role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByCPF fetches a user by CPF.  ErrNotFound when there is none.
func (r *UserRepo) GetByCPF(ctx context.Context, cpf string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM usuarios WHERE cpf = ? LIMIT 1", strings.TrimSpace(cpf)))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// ExistsByCPF reports whether a user with cpf exists.
func (r *UserRepo) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	return r.exists(ctx, "SELECT id FROM usuarios WHERE cpf = ? LIMIT 1", strings.TrimSpace(cpf))
}

// ExistsByUsername reports whether username is taken.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT id FROM usuarios WHERE username = ? LIMIT 1", strings.TrimSpace(username))
}

func (r *UserRepo) exists(ctx context.Context, q string, arg any) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of registered users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM usuarios").Scan(&n)
	return n, err
}

// EnsureAdmin creates the bootstrap admin when the table is empty.  It
// returns true when a user was created.  Nothing happens once any user
// exists, so the bootstrap credentials cannot be used to take over a
// populated install.
func (r *UserRepo) EnsureAdmin(ctx context.Context, cpf, password, nome string, cost int) (bool, error) {
	if strings.TrimSpace(cpf) == "" || password == "" {
		return false, nil
	}
	n, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err = r.Create(ctx, NewUser{Username: cpf, Nome: nome, CPF: cpf, Password: password, Role: model.RoleAdmin}, cost)
	if err != nil {
		return false, err
	}
	return true, nil
}
