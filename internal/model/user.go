package model

import "time"

// Role names stored in usuarios.role and carried in session tokens.
const (
	RoleAdmin    = "admin"
	RoleGerente  = "gerente"
	RoleVendedor = "vendedor"
)

// AllRoles lists every valid role, in privilege order.
var AllRoles = []string{RoleAdmin, RoleGerente, RoleVendedor}

// ValidRole reports whether r is one of AllRoles.
func ValidRole(r string) bool {
	for _, v := range AllRoles {
		if v == r {
			return true
		}
	}
	return false
}

// User represents an application user record as stored in the
// `usuarios` table.  The CPF is the login key; Username is a second unique
// handle used for display and audit records.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique handle (defaults to the CPF).
//	Nome         – display name.
//	CPF          – unique national id, used to log in.
//	PasswordHash – bcrypt hashed password (never serialised).
//	Role         – admin, gerente or vendedor.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Nome         string    `json:"nome"`
	CPF          string    `json:"cpf"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
