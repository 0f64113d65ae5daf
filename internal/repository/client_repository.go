package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/sales-backoffice/internal/model"
)

// ClientRepo encapsulates all queries on the `clientes` table.
type ClientRepo struct {
	db *sql.DB
}

// NewClientRepo constructs a ClientRepo with the provided DB handle.
func NewClientRepo(db *sql.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

const clientColumns = "id, nome, cpf_cnpj, email, telefone, endereco, cidade, estado, cep, created_at, updated_at"

func scanClient(row interface{ Scan(...any) error }) (*model.Client, error) {
	c := new(model.Client)
	err := row.Scan(&c.ID, &c.Nome, &c.CPFCNPJ, &c.Email, &c.Telefone, &c.Endereco,
		&c.Cidade, &c.Estado, &c.CEP, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns every client ordered by name.
func (r *ClientRepo) List(ctx context.Context) ([]*model.Client, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+clientColumns+" FROM clientes ORDER BY nome, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a client.  It returns ErrNotFound if no row is found.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (*model.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx, "SELECT "+clientColumns+" FROM clientes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Create inserts c and populates its ID.  Timestamps are left to the
// database defaults.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	const q = `INSERT INTO clientes (nome, cpf_cnpj, email, telefone, endereco, cidade, estado, cep)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.Nome, c.CPFCNPJ, c.Email, c.Telefone,
		c.Endereco, c.Cidade, c.Estado, c.CEP)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Update writes only the columns present in p.  ErrEmptyPatch when p has
// nothing to write, ErrNotFound when the id does not exist.
func (r *ClientRepo) Update(ctx context.Context, id uint64, p Patch) error {
	if p.Empty() {
		return ErrEmptyPatch
	}
	q, args := p.updateStatement("clientes", id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a client.  A client referenced by any sale is kept and
// ErrConflict is returned.
func (r *ClientRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM clientes WHERE id = ?", id)
	if err != nil {
		if isForeignKeyParent(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
