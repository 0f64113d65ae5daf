package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSaleStatus is applied when a sale is created without a status.
const DefaultSaleStatus = "pendente"

// Sale records an order placed for a client by a user.  Total is supplied
// by the caller and is not reconciled against Items.
//
// Fields:
//
//	ID             – primary key identifier.
//	ClienteID      – client the sale belongs to.
//	ClienteNome    – joined clientes.nome (read only).
//	UsuarioID      – user who created the sale; vendedores only see their own.
//	VendedorNome   – joined usuarios.nome (read only).
//	Total          – caller supplied amount.
//	Status         – free-form status, "pendente" by default.
//	DataCompra     – purchase date, defaults to the creation date.
//	DataEntrega    – optional delivery date.
type Sale struct {
	ID             uint64          `json:"id"`
	ClienteID      uint64          `json:"cliente_id"`
	ClienteNome    string          `json:"cliente_nome,omitempty"`
	UsuarioID      uint64          `json:"usuario_id"`
	VendedorNome   string          `json:"vendedor_nome,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Status         string          `json:"status"`
	Observacoes    *string         `json:"observacoes"`
	FormaPagamento *string         `json:"forma_pagamento"`
	DataCompra     *time.Time      `json:"data_compra"`
	DataEntrega    *time.Time      `json:"data_entrega"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SaleDetail is a sale together with its line items, as returned by
// single-sale reads.  Itens is always an array, never null.
type SaleDetail struct {
	Sale
	Items []SaleItem `json:"itens"`
}

// SaleItem is one row of `venda_itens`.  Items only exist inside their
// sale and are replaced wholesale when the sale's item list changes.
type SaleItem struct {
	ID            uint64          `json:"id"`
	VendaID       uint64          `json:"venda_id"`
	ProdutoID     uint64          `json:"produto_id"`
	ProdutoNome   string          `json:"produto_nome,omitempty"`
	Quantidade    int             `json:"quantidade"`
	PrecoUnitario decimal.Decimal `json:"preco_unitario"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}
