package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Totals are the all-time dashboard counters.
type Totals struct {
	Clientes    int64           `db:"total_clientes"`
	Vendas      int64           `db:"total_vendas"`
	Faturamento decimal.Decimal `db:"faturamento"`
}

// MonthlyRevenue is the revenue of one YYYY-MM month.
type MonthlyRevenue struct {
	Mes         string          `db:"mes"`
	Faturamento decimal.Decimal `db:"faturamento"`
}

// MetricsRepo runs the read-only dashboard rollups.
type MetricsRepo struct {
	db *sqlx.DB
}

// NewMetricsRepo wraps an existing *sql.DB; driverName selects sqlx's bind
// style and is "mysql" in production.
func NewMetricsRepo(db *sql.DB, driverName string) *MetricsRepo {
	return &MetricsRepo{db: sqlx.NewDb(db, driverName)}
}

// Totals counts clients and sales and sums sale totals.
func (r *MetricsRepo) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.db.GetContext(ctx, &t, `SELECT
	       (SELECT COUNT(*) FROM clientes) AS total_clientes,
	       COUNT(*) AS total_vendas,
	       COALESCE(SUM(total), 0) AS faturamento
	  FROM vendas`)
	return t, err
}

// RecentMonths returns revenue for the latest `limit` months that have
// sales, newest first.  A sale's month is its purchase date, or its creation
// date when the purchase date is missing.
func (r *MetricsRepo) RecentMonths(ctx context.Context, limit int) ([]MonthlyRevenue, error) {
	out := []MonthlyRevenue{}
	err := r.db.SelectContext(ctx, &out, `SELECT
	       DATE_FORMAT(COALESCE(v.data_compra, DATE(v.created_at)), '%Y-%m') AS mes,
	       COALESCE(SUM(v.total), 0) AS faturamento
	  FROM vendas v
	 GROUP BY mes
	 ORDER BY mes DESC
	 LIMIT ?`, limit)
	return out, err
}
