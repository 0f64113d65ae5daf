package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/sales-backoffice/internal/model"
)

// ProductRepo encapsulates all queries on the `produtos` table.
type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = "id, nome, categoria, preco, descricao, estoque, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := new(model.Product)
	if err := row.Scan(&p.ID, &p.Nome, &p.Categoria, &p.Preco, &p.Descricao, &p.Estoque,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every product ordered by category then name.
func (r *ProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM produtos ORDER BY categoria, nome, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches a product or returns ErrNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM produtos WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Create inserts p and populates its ID.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO produtos (nome, categoria, preco, descricao, estoque) VALUES (?, ?, ?, ?, ?)",
		p.Nome, p.Categoria, p.Preco, p.Descricao, p.Estoque)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update writes only the columns present in p.
func (r *ProductRepo) Update(ctx context.Context, id uint64, p Patch) error {
	if p.Empty() {
		return ErrEmptyPatch
	}
	q, args := p.updateStatement("produtos", id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a product unless a sale line still references it, in
// which case ErrConflict is returned.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM produtos WHERE id = ?", id)
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
