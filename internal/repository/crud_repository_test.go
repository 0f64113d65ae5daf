package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sales-backoffice/internal/model"
)

func TestPatchUpdateStatement(t *testing.T) {
	var p Patch
	assert.True(t, p.Empty())

	p.Set("nome", "A")
	p.Set("estoque", 3)
	p.Set("nome", "B")

	q, args := p.updateStatement("produtos", 9)
	assert.Equal(t, "UPDATE produtos SET nome = ?, estoque = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", q)
	assert.Equal(t, []any{"B", 3, uint64(9)}, args)
	assert.Equal(t, 2, p.Len())
	assert.True(t, p.Has("estoque"))
	assert.False(t, p.Has("preco"))
}

func TestClientDeleteReferencedBySale(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM clientes WHERE id = ?")).WithArgs(4).
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})

	err := NewClientRepo(db).Delete(context.Background(), 4)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestClientDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM clientes WHERE id = ?")).WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewClientRepo(db).Delete(context.Background(), 4), ErrNotFound)
}

func TestClientGetByIDMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM clientes WHERE id = ?").WithArgs(8).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, err := NewClientRepo(db).GetByID(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, c)
}

func TestClientListEmptyIsNotNil(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM clientes ORDER BY nome, id").WillReturnRows(sqlmock.NewRows([]string{
		"id", "nome", "cpf_cnpj", "email", "telefone", "endereco", "cidade", "estado", "cep", "created_at", "updated_at"}))

	list, err := NewClientRepo(db).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestClientCreateSetsID(t *testing.T) {
	db, mock := newMock(t)
	email := "a@b.c"
	mock.ExpectExec("INSERT INTO clientes").
		WithArgs("ACME", nil, email, nil, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(31, 1))

	c := &model.Client{Nome: "ACME", Email: &email}
	require.NoError(t, NewClientRepo(db).Create(context.Background(), c))
	assert.Equal(t, uint64(31), c.ID)
}

func TestClientUpdateEmptyPatch(t *testing.T) {
	db, _ := newMock(t)
	assert.ErrorIs(t, NewClientRepo(db).Update(context.Background(), 1, Patch{}), ErrEmptyPatch)
}

func TestProductPatchWritesOnlyPrice(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE produtos SET preco = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?")).
		WithArgs(decimalArg("42"), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var p Patch
	p.Set("preco", decimal.NewFromInt(42))
	require.NoError(t, NewProductRepo(db).Update(context.Background(), 4, p))
}

func TestProductUpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE produtos").WillReturnResult(sqlmock.NewResult(0, 0))

	var p Patch
	p.Set("estoque", 1)
	assert.ErrorIs(t, NewProductRepo(db).Update(context.Background(), 4, p), ErrNotFound)
}

func TestProductDeleteReferencedBySaleItem(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM produtos WHERE id = ?")).WithArgs(2).
		WillReturnError(&mysql.MySQLError{Number: 1451})

	assert.ErrorIs(t, NewProductRepo(db).Delete(context.Background(), 2), ErrConflict)
}

func TestProductGetByIDScansDecimal(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("FROM produtos WHERE id = ?").WithArgs(2).WillReturnRows(
		sqlmock.NewRows([]string{"id", "nome", "categoria", "preco", "descricao", "estoque", "created_at", "updated_at"}).
			AddRow(2, "Caneta", "Papelaria", "3.90", nil, 100, now, now))

	p, err := NewProductRepo(db).GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "3.9", p.Preco.String())
	assert.Nil(t, p.Descricao)
	assert.Equal(t, 100, p.Estoque)
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO usuarios").
		WithArgs("ana", "Ana", "12345678901", sqlmock.AnyArg(), model.RoleVendedor).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewUserRepo(db).Create(context.Background(), NewUser{
		Username: "ana", Nome: "Ana", CPF: " 12345678901 ", Password: "pw", Role: model.RoleVendedor,
	}, 4)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserGetByCPFMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM usuarios WHERE cpf = ?").WithArgs("000").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewUserRepo(db).GetByCPF(context.Background(), "000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdminSkipsPopulatedTable(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM usuarios")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))

	created, err := NewUserRepo(db).EnsureAdmin(context.Background(), "111", "secret", "Admin", 4)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureAdminCreatesFirstUser(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM usuarios")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("INSERT INTO usuarios").
		WithArgs("111", "Admin", "111", sqlmock.AnyArg(), model.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := NewUserRepo(db).EnsureAdmin(context.Background(), "111", "secret", "Admin", 4)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestEnsureAdminWithoutCredentialsIsNoop(t *testing.T) {
	db, _ := newMock(t)
	created, err := NewUserRepo(db).EnsureAdmin(context.Background(), "", "", "", 4)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAuditStore(t *testing.T) {
	db, mock := newMock(t)
	uid := uint64(3)
	user := "ana"
	rid := int64(12)
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(uid, user, "Remover", "clientes", rid, "DELETE", "/api/dados/clientes/12", nil, nil, nil, 204, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewAuditRepo(db).Store(context.Background(), model.AuditEntry{
		UsuarioID: &uid, Username: &user, Action: "Remover", Resource: "clientes", ResourceID: &rid,
		Method: "DELETE", Endpoint: "/api/dados/clientes/12", ResponseStatus: 204,
	})
	require.NoError(t, err)
}

func TestAuditStoreKeepsRecordedTime(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("COALESCE(?, CURRENT_TIMESTAMP)")).
		WithArgs(nil, nil, "Consultar", "unknown", nil, "GET", "/dashboard/metrics", nil, nil, nil, 200, nil, at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewAuditRepo(db).Store(context.Background(), model.AuditEntry{
		Action: "Consultar", Resource: "unknown", Method: "GET", Endpoint: "/dashboard/metrics",
		ResponseStatus: 200, CreatedAt: at,
	})
	require.NoError(t, err)
}

func TestMetricsTotalsAndMonths(t *testing.T) {
	db, mock := newMock(t)
	m := NewMetricsRepo(db, "sqlmock")

	mock.ExpectQuery("AS total_clientes").WillReturnRows(
		sqlmock.NewRows([]string{"total_clientes", "total_vendas", "faturamento"}).AddRow(4, 7, "1500.50"))
	mock.ExpectQuery("GROUP BY mes").WithArgs(6).WillReturnRows(
		sqlmock.NewRows([]string{"mes", "faturamento"}).AddRow("2026-03", "900.00").AddRow("2026-02", "600.50"))

	tot, err := m.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), tot.Clientes)
	assert.Equal(t, int64(7), tot.Vendas)
	assert.True(t, tot.Faturamento.Equal(decimal.RequireFromString("1500.5")))

	months, err := m.RecentMonths(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "2026-03", months[0].Mes)
}

func TestMySQLErrorClassification(t *testing.T) {
	assert.True(t, isDuplicate(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isForeignKeyParent(&mysql.MySQLError{Number: 1217}))
	assert.False(t, isForeignKeyParent(errors.New("plain")))
}
