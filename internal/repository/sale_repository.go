package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/sales-backoffice/internal/model"
)

// SaleItemInput is one requested line item.  Nil pointers mean the field
// was absent from the request body.
type SaleItemInput struct {
	ProdutoID     uint64
	Quantidade    int
	PrecoUnitario *decimal.Decimal
	Subtotal      *decimal.Decimal
}

// NewSale holds everything needed to create a sale and its items.
type NewSale struct {
	ClienteID      uint64
	UsuarioID      uint64
	Total          decimal.Decimal
	Status         string
	Observacoes    *string
	FormaPagamento *string
	DataCompra     *time.Time
	DataEntrega    *time.Time
	Items          []SaleItemInput
}

// SaleUpdate is a partial update of a sale.  When ReplaceItems is true the
// existing items are deleted and Items inserted in their place, even when
// Items is empty.
type SaleUpdate struct {
	Fields       Patch
	Items        []SaleItemInput
	ReplaceItems bool
}

// SaleRepo owns the `vendas` and `venda_itens` tables.  Every write that
// touches both tables runs inside a single transaction.
type SaleRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSaleRepo(db *sql.DB) *SaleRepo {
	return &SaleRepo{db: db, now: time.Now}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const saleSelect = `SELECT v.id, v.cliente_id, c.nome, v.usuario_id, u.nome, v.total, v.status,
       v.observacoes, v.forma_pagamento, v.data_compra, v.data_entrega, v.created_at, v.updated_at
  FROM vendas v
  JOIN clientes c ON c.id = v.cliente_id
  JOIN usuarios u ON u.id = v.usuario_id`

func scanSale(row interface{ Scan(...any) error }) (*model.Sale, error) {
	s := new(model.Sale)
	if err := row.Scan(&s.ID, &s.ClienteID, &s.ClienteNome, &s.UsuarioID, &s.VendedorNome,
		&s.Total, &s.Status, &s.Observacoes, &s.FormaPagamento, &s.DataCompra, &s.DataEntrega,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// acceptedItems drops entries without a product, a positive quantity or a
// positive unit price, and fills in subtotal = quantity × unit price when the
// caller did not supply one.
func acceptedItems(in []SaleItemInput) []model.SaleItem {
	out := make([]model.SaleItem, 0, len(in))
	for _, it := range in {
		if it.ProdutoID == 0 || it.Quantidade <= 0 || it.PrecoUnitario == nil || !it.PrecoUnitario.IsPositive() {
			continue
		}
		subtotal := it.PrecoUnitario.Mul(decimal.NewFromInt(int64(it.Quantidade)))
		if it.Subtotal != nil {
			subtotal = *it.Subtotal
		}
		out = append(out, model.SaleItem{
			ProdutoID:     it.ProdutoID,
			Quantidade:    it.Quantidade,
			PrecoUnitario: *it.PrecoUnitario,
			Subtotal:      subtotal,
		})
	}
	return out
}

func clientExists(ctx context.Context, q querier, id uint64) (bool, error) {
	var found uint64
	err := q.QueryRowContext(ctx, "SELECT id FROM clientes WHERE id = ?", id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func insertItems(ctx context.Context, tx *sql.Tx, saleID uint64, in []SaleItemInput) error {
	for _, it := range acceptedItems(in) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO venda_itens (venda_id, produto_id, quantidade, preco_unitario, subtotal)
			 VALUES (?, ?, ?, ?, ?)`,
			saleID, it.ProdutoID, it.Quantidade, it.PrecoUnitario, it.Subtotal); err != nil {
			return fmt.Errorf("insert item for product %d: %w", it.ProdutoID, err)
		}
	}
	return nil
}

func (r *SaleRepo) today() time.Time {
	y, m, d := r.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Create validates the client, then inserts the sale and its accepted items
// in one transaction and returns the new sale id.  ErrClientNotFound when the
// client does not exist; any failure inside the transaction rolls back
// everything, so a partial sale is never visible.
func (r *SaleRepo) Create(ctx context.Context, s NewSale) (uint64, error) {
	ok, err := clientExists(ctx, r.db, s.ClienteID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrClientNotFound
	}
	if s.Status == "" {
		s.Status = model.DefaultSaleStatus
	}
	if s.DataCompra == nil {
		today := r.today()
		s.DataCompra = &today
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin sale tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO vendas (cliente_id, usuario_id, total, status, observacoes, forma_pagamento, data_compra, data_entrega)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ClienteID, s.UsuarioID, s.Total, s.Status, s.Observacoes, s.FormaPagamento, s.DataCompra, s.DataEntrega)
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertItems(ctx, tx, uint64(id), s.Items); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sale: %w", err)
	}
	committed = true
	return uint64(id), nil
}

// Update applies u to sale id inside one transaction.  ErrEmptyPatch when u
// changes nothing, ErrNotFound when the sale does not exist and
// ErrClientNotFound when a patched cliente_id does not resolve.
func (r *SaleRepo) Update(ctx context.Context, id uint64, u SaleUpdate) error {
	if u.Fields.Empty() && !u.ReplaceItems {
		return ErrEmptyPatch
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var found uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM vendas WHERE id = ? FOR UPDATE", id).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if v, ok := u.Fields.Get("cliente_id"); ok {
		cid, _ := v.(uint64)
		ok, err := clientExists(ctx, tx, cid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClientNotFound
		}
	}

	if u.Fields.Empty() {
		if _, err := tx.ExecContext(ctx, "UPDATE vendas SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", id); err != nil {
			return fmt.Errorf("touch sale: %w", err)
		}
	} else {
		q, args := u.Fields.updateStatement("vendas", id)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
	}

	if u.ReplaceItems {
		if _, err := tx.ExecContext(ctx, "DELETE FROM venda_itens WHERE venda_id = ?", id); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := insertItems(ctx, tx, id, u.Items); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sale: %w", err)
	}
	committed = true
	return nil
}

// Delete removes a sale and its items in one transaction.
func (r *SaleRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM venda_itens WHERE venda_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM vendas WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// OwnerOf returns the usuario_id that created sale id.
func (r *SaleRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx, "SELECT usuario_id FROM vendas WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return owner, err
}

// GetVisible returns sale id with its items.  When ownerID is non-zero only
// the owner column is read first and ErrForbidden is returned for a sale
// created by another user, before any join or item query runs.
func (r *SaleRepo) GetVisible(ctx context.Context, id, ownerID uint64) (*model.SaleDetail, error) {
	if ownerID != 0 {
		owner, err := r.OwnerOf(ctx, id)
		if err != nil {
			return nil, err
		}
		if owner != ownerID {
			return nil, ErrForbidden
		}
	}
	return r.GetByID(ctx, id)
}

// GetByID returns sale id joined with client and seller names and its items.
func (r *SaleRepo) GetByID(ctx context.Context, id uint64) (*model.SaleDetail, error) {
	s, err := scanSale(r.db.QueryRowContext(ctx, saleSelect+" WHERE v.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.SaleDetail{Sale: *s, Items: items}, nil
}

func (r *SaleRepo) items(ctx context.Context, saleID uint64) ([]model.SaleItem, error) {
	const q = `SELECT i.id, i.venda_id, i.produto_id, p.nome, i.quantidade, i.preco_unitario, i.subtotal
	             FROM venda_itens i
	             JOIN produtos p ON p.id = i.produto_id
	            WHERE i.venda_id = ?
	            ORDER BY i.id`
	rows, err := r.db.QueryContext(ctx, q, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SaleItem{}
	for rows.Next() {
		var it model.SaleItem
		if err := rows.Scan(&it.ID, &it.VendaID, &it.ProdutoID, &it.ProdutoNome, &it.Quantidade,
			&it.PrecoUnitario, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// List returns sales newest first.  A non-zero ownerID restricts the result
// to sales created by that user.
func (r *SaleRepo) List(ctx context.Context, ownerID uint64) ([]*model.Sale, error) {
	q := saleSelect
	var args []any
	if ownerID != 0 {
		q += " WHERE v.usuario_id = ?"
		args = append(args, ownerID)
	}
	q += " ORDER BY v.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
