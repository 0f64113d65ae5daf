package model

import "time"

// Client is a row of the `clientes` table.  Only Nome is mandatory; the
// contact fields are nullable in the schema and rendered as null when unset.
type Client struct {
	ID        uint64    `json:"id"`
	Nome      string    `json:"nome"`
	CPFCNPJ   *string   `json:"cpf_cnpj"`
	Email     *string   `json:"email"`
	Telefone  *string   `json:"telefone"`
	Endereco  *string   `json:"endereco"`
	Cidade    *string   `json:"cidade"`
	Estado    *string   `json:"estado"`
	CEP       *string   `json:"cep"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
