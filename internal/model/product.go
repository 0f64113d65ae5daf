package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals are JSON numbers on the wire, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a row of the `produtos` table.
type Product struct {
	ID        uint64          `json:"id"`
	Nome      string          `json:"nome"`
	Categoria string          `json:"categoria"`
	Preco     decimal.Decimal `json:"preco"`
	Descricao *string         `json:"descricao"`
	Estoque   int             `json:"estoque"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
